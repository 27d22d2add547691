package media

import (
	"fmt"
	"os/exec"
	"slices"
	"strings"

	"github.com/pders01/dex/internal/config"
	"github.com/pders01/dex/internal/debuglog"
)

var imageExtensions = []string{"png", "gif", "jpg", "jpeg", "webp", "svg"}

// Launcher opens artwork in an external image viewer.
type Launcher struct {
	candidates    []string
	defaultOpener string
	registry      *ViewerRegistry
	goos          string

	lookPath func(string) (string, error)
	start    func(name string, args ...string) error
}

func NewLauncher(cfg *config.Config) *Launcher {
	registry, err := NewViewerRegistry()
	if err != nil {
		debuglog.Warnf("viewer definitions unavailable: %v", err)
		registry = &ViewerRegistry{viewers: make(map[string]ViewerDefinition)}
	}

	goos := currentOS()
	var candidates []string
	switch goos {
	case "darwin":
		candidates = cfg.Media.Darwin
	case "windows":
		candidates = cfg.Media.Windows
	default:
		candidates = cfg.Media.Linux
	}

	return &Launcher{
		candidates:    candidates,
		defaultOpener: cfg.Media.DefaultOpener,
		registry:      registry,
		goos:          goos,
		lookPath:      exec.LookPath,
		start:         startDetached,
	}
}

// IsImage reports whether target looks like an image location.
func IsImage(target string) bool {
	lower := strings.ToLower(target)
	if i := strings.IndexAny(lower, "?#"); i >= 0 {
		lower = lower[:i]
	}
	dot := strings.LastIndex(lower, ".")
	if dot < 0 {
		return false
	}
	return slices.Contains(imageExtensions, lower[dot+1:])
}

// Open launches the first installed viewer that accepts target, falling back
// to the platform default opener.
func (l *Launcher) Open(target string) error {
	if target == "" {
		return fmt.Errorf("no artwork to open")
	}
	if !IsImage(target) {
		debuglog.Warnf("opening non-image artwork location %s", target)
	}

	tried := make([]string, 0, len(l.candidates)+1)
	for _, name := range append(append([]string(nil), l.candidates...), l.defaultOpener) {
		if name == "" || slices.Contains(tried, name) {
			continue
		}
		tried = append(tried, name)

		exe, args, err := l.registry.Command(name, l.goos, target)
		if err != nil {
			debuglog.Debugf("skipping viewer %s: %v", name, err)
			continue
		}
		if _, err := l.lookPath(exe); err != nil {
			continue
		}
		if err := l.start(exe, args...); err != nil {
			return fmt.Errorf("failed to start %s: %w", name, err)
		}
		debuglog.Infof("opened %s with %s", target, name)
		return nil
	}
	return fmt.Errorf("no image viewer found (tried %s)", strings.Join(tried, ", "))
}

func startDetached(name string, args ...string) error {
	cmd := exec.Command(name, args...)
	if err := cmd.Start(); err != nil {
		return err
	}
	go func() {
		_ = cmd.Wait()
	}()
	return nil
}

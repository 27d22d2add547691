package media

import (
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"slices"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

//go:embed viewers.toml
var viewersTOML []byte

// ViewerDefinition describes how to invoke an image viewer.
type ViewerDefinition struct {
	Description string   `toml:"description"`
	Platforms   []string `toml:"platforms"`
	// Command overrides the executable; the table key is used otherwise.
	Command string   `toml:"command,omitempty"`
	Args    []string `toml:"args"`
	// Remote is false for viewers that cannot open http(s) locations.
	Remote *bool `toml:"remote,omitempty"`
}

// ViewersConfig is the on-disk shape of viewers.toml.
type ViewersConfig struct {
	Viewers map[string]ViewerDefinition `toml:"viewers"`
}

// ViewerRegistry maps viewer names to their definitions.
type ViewerRegistry struct {
	viewers map[string]ViewerDefinition
}

// NewViewerRegistry parses the embedded definitions and merges in
// ~/.config/dex/viewers.toml when present.
func NewViewerRegistry() (*ViewerRegistry, error) {
	r, err := parseViewers(viewersTOML)
	if err != nil {
		return nil, fmt.Errorf("parsing viewers.toml: %w", err)
	}
	if home, err := os.UserHomeDir(); err == nil {
		r.mergeFile(filepath.Join(home, ".config", "dex", "viewers.toml"))
	}
	return r, nil
}

func parseViewers(data []byte) (*ViewerRegistry, error) {
	var cfg ViewersConfig
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	if cfg.Viewers == nil {
		cfg.Viewers = make(map[string]ViewerDefinition)
	}
	return &ViewerRegistry{viewers: cfg.Viewers}, nil
}

func (r *ViewerRegistry) mergeFile(path string) {
	data, err := os.ReadFile(path)
	if err != nil {
		return
	}
	user, err := parseViewers(data)
	if err != nil {
		return
	}
	for name, def := range user.viewers {
		r.viewers[name] = def
	}
}

// Lookup returns the definition for name.
func (r *ViewerRegistry) Lookup(name string) (ViewerDefinition, bool) {
	def, ok := r.viewers[name]
	return def, ok
}

// Command resolves the executable and argument list for opening target with
// viewer name on goos. Unknown viewers get the target as their only argument.
func (r *ViewerRegistry) Command(name, goos, target string) (string, []string, error) {
	def, ok := r.viewers[name]
	if !ok {
		return name, []string{target}, nil
	}
	if len(def.Platforms) > 0 && !slices.Contains(def.Platforms, goos) {
		return "", nil, fmt.Errorf("%s not supported on %s", name, goos)
	}
	if def.Remote != nil && !*def.Remote && isRemote(target) {
		return "", nil, fmt.Errorf("%s cannot open remote images", name)
	}

	exe := name
	if def.Command != "" {
		exe = def.Command
	}

	args := make([]string, 0, len(def.Args)+1)
	substituted := false
	for _, a := range def.Args {
		if strings.Contains(a, "{url}") {
			a = strings.ReplaceAll(a, "{url}", target)
			substituted = true
		}
		args = append(args, a)
	}
	if !substituted {
		args = append(args, target)
	}
	return exe, args, nil
}

func currentOS() string { return runtime.GOOS }

func isRemote(target string) bool {
	lower := strings.ToLower(target)
	return strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://")
}

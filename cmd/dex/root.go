package main

import (
	"fmt"
	"os"
	"path/filepath"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/pders01/dex/internal/config"
	"github.com/pders01/dex/internal/debuglog"
	"github.com/pders01/dex/internal/pokeapi"
	"github.com/pders01/dex/internal/session"
	"github.com/pders01/dex/internal/tui"
	"github.com/pders01/dex/internal/validation"
)

var (
	configPath string
	quiet      bool
	logLevel   string
	logFile    string
)

var rootCmd = &cobra.Command{
	Use:   "dex",
	Short: "Browse the Pokédex from your terminal",
	Long: `dex is a terminal Pokédex backed by PokéAPI.

Run without arguments to open the interactive browser: scroll to load
more entries, search by name or number, and open any entry for its
types, abilities and base stats.`,
	SilenceErrors: true,
	SilenceUsage:  true,
	RunE:          runBrowser,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("dex %s\n", Version)
		fmt.Println("Terminal Pokédex")
		fmt.Println("github.com/pders01/dex")
	},
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage the configuration file",
}

var configGenCmd = &cobra.Command{
	Use:   "generate [path]",
	Short: "Write the default configuration (default ~/.config/dex/config.toml)",
	Args:  cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		home, _ := os.UserHomeDir()
		configFile := filepath.Join(home, ".config", "dex", "config.toml")
		if len(args) == 1 {
			path, err := validation.ValidateFilePath(args[0])
			if err != nil {
				fmt.Fprintf(os.Stderr, "Invalid config path: %v\n", err)
				return
			}
			configFile = path
		}

		if err := config.GenerateDefaultConfig(configFile); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to generate config: %v\n", err)
			return
		}
		fmt.Printf("Generated default configuration at: %s\n", configFile)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "path to configuration file (default ~/.config/dex/config.toml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level: debug, info, warn, error or off (overrides config)")
	rootCmd.PersistentFlags().StringVar(&logFile, "log-file", "", "log file path (overrides config)")
	rootCmd.Flags().BoolVarP(&quiet, "quiet", "q", false, "skip startup banner")

	configCmd.AddCommand(configGenCmd)
	rootCmd.AddCommand(versionCmd, configCmd, listCmd, searchCmd, showCmd)
}

// loadConfig reads the configuration and starts debug logging.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	if logLevel != "" {
		cfg.Log.Level = logLevel
	}
	if logFile != "" {
		cfg.Log.File = logFile
	}

	level := debuglog.ParseLogLevel(cfg.Log.Level)
	if level == debuglog.LevelOff {
		return cfg, nil
	}
	path, err := validation.ValidateFilePath(cfg.Log.File)
	if err != nil {
		return nil, fmt.Errorf("invalid log file: %w", err)
	}
	if err := debuglog.Setup(level, path); err != nil {
		return nil, fmt.Errorf("setting up logging: %w", err)
	}
	return cfg, nil
}

func newSession(cfg *config.Config) (*session.Session, error) {
	client, err := pokeapi.NewClient(cfg)
	if err != nil {
		return nil, err
	}
	return session.New(client, cfg), nil
}

func runBrowser(cmd *cobra.Command, args []string) error {
	if !quiet {
		tui.ShowBanner(Version)
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	defer debuglog.Close()

	tui.ApplyTheme(cfg.UI.Colors)

	sess, err := newSession(cfg)
	if err != nil {
		return err
	}

	app := tui.NewApp(sess, cfg)
	defer app.Close()

	p := tea.NewProgram(app, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return err
	}
	return nil
}

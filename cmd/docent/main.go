package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"docent/internal/config"
	"docent/internal/logging"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	// Global flags
	configPath string
	dbPath     string
	verbose    bool

	cfg    *config.Config
	logs   *logging.Logger
	logger *zap.Logger
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "docent",
	Short: "docent - narrated museum guide for the terminal",
	Long: `docent plays narrated guides for exhibitions and artworks, highlighting
each sentence as it is spoken, and keeps your likes, saved docents,
underlines and visit records in a local database.

Run without arguments to start the interactive guide.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load(configPath)
		if err != nil {
			return err
		}
		if dbPath != "" {
			cfg.Store.DatabasePath = dbPath
		}
		if verbose {
			cfg.Logging.Level = "debug"
		}
		if err := cfg.Validate(); err != nil {
			return err
		}

		// The TUI owns the terminal; keep log lines out of it.
		if isInteractive(cmd) && cfg.Logging.File == "" {
			cfg.Logging.File = filepath.Join(config.DefaultHome(), "docent.log")
		}

		logs, err = logging.New(cfg.Logging)
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		logger = logs.Get(logging.CategoryBoot)
		logger.Debug("config loaded", zap.String("path", configPath))
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logs != nil {
			_ = logs.Close()
		}
	},
	RunE: runGuide,
}

// cmdContext tolerates commands run without Execute, as the tests do.
func cmdContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

func isInteractive(cmd *cobra.Command) bool {
	return !cmd.HasParent() || cmd.Name() == "run"
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", config.DefaultPath(), "Config file")
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", "", "SQLite database (overrides store.database_path)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")

	rootCmd.Flags().StringSliceVar(&scripts, "script", nil, "Narration script to offer on the home feed (repeatable)")
	runCmd.Flags().StringSliceVar(&scripts, "script", nil, "Narration script to offer on the home feed (repeatable)")

	narrationCmd.AddCommand(narrationValidateCmd)
	narrationCmd.AddCommand(narrationAtCmd)

	sessionLoginCmd.Flags().StringVar(&loginToken, "token", "", "Access token (default: a fresh random token)")
	sessionLoginCmd.Flags().Int64Var(&loginUserID, "user-id", 1, "User id")
	sessionCmd.AddCommand(sessionStatusCmd)
	sessionCmd.AddCommand(sessionLoginCmd)
	sessionCmd.AddCommand(sessionLogoutCmd)

	configInitCmd.Flags().BoolVar(&forceInit, "force", false, "Overwrite an existing config file")
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configShowCmd)

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(narrationCmd)
	rootCmd.AddCommand(sessionCmd)
	rootCmd.AddCommand(configCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// Command cappy is a menu bar screenshot logger that skips idle screens.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"runtime"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/GriffinCanCode/mac-cappy/internal/app"
	"github.com/GriffinCanCode/mac-cappy/internal/config"
	"github.com/GriffinCanCode/mac-cappy/internal/logging"
)

// version is set with -ldflags "-X main.version=...".
var version = "dev"

// The menu bar needs the main OS thread on macOS.
func init() { runtime.LockOSThread() }

type globalFlags struct {
	configPath string
	logLevel   string
	logFormat  string
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		stop()
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var (
		flags    globalFlags
		cfg      *config.Config
		headless bool
	)

	root := &cobra.Command{
		Use:           "cappy",
		Short:         "Menu bar screenshots that skip idle screens",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			var err error
			cfg, err = loadConfig(flags)
			return err
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runApp(cmd.Context(), cfg, headless)
		},
	}
	root.PersistentFlags().StringVar(&flags.configPath, "config", "", "config file (default ./"+config.DefaultFileName+" or $CAPPY_CONFIG)")
	root.PersistentFlags().StringVar(&flags.logLevel, "log-level", "", "debug, info, warn or error")
	root.PersistentFlags().StringVar(&flags.logFormat, "log-format", "", "text or json")

	run := &cobra.Command{
		Use:   "run",
		Short: "Run the scheduler (menu bar unless --headless)",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runApp(cmd.Context(), cfg, headless)
		},
	}
	run.Flags().BoolVar(&headless, "headless", false, "run without the menu bar; notifications go to stdout")
	root.Flags().BoolVar(&headless, "headless", false, "run without the menu bar")

	var note string
	capture := &cobra.Command{
		Use:   "capture",
		Short: "Save every screen once, optionally as a milestone with --note",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := headlessApp(cfg)
			if err != nil {
				return err
			}
			if err := a.EnsureDirs(); err != nil {
				return err
			}
			sched := a.Scheduler()
			if cmd.Flags().Changed("note") {
				res, err := sched.CaptureMilestone(cmd.Context(), note)
				if err != nil {
					return err
				}
				printPaths(cmd, res.Paths())
				if res.NotePath != "" {
					fmt.Fprintln(cmd.OutOrStdout(), res.NotePath)
				}
				return nil
			}
			res, err := sched.ManualCapture(cmd.Context())
			if err != nil {
				return err
			}
			printPaths(cmd, res.Paths())
			return nil
		},
	}
	capture.Flags().StringVar(&note, "note", "", "milestone note; writes a Markdown log entry")

	check := &cobra.Command{
		Use:   "check",
		Short: "Verify Screen Recording permission with a test shot",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := headlessApp(cfg)
			if err != nil {
				return err
			}
			if !a.CheckPermissions(cmd.Context()) {
				return fmt.Errorf("screen recording permission check failed")
			}
			return nil
		},
	}

	openLogs := &cobra.Command{
		Use:   "open-logs",
		Short: "Open the milestone logs folder",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := headlessApp(cfg)
			if err != nil {
				return err
			}
			a.OpenLogs(cmd.Context())
			return nil
		},
	}

	versionCmd := &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		PersistentPreRunE: func(*cobra.Command, []string) error {
			return nil
		},
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", config.AppName, version)
		},
	}

	root.AddCommand(run, capture, check, openLogs, versionCmd)
	return root
}

func loadConfig(flags globalFlags) (*config.Config, error) {
	cfg, err := config.Load(flags.configPath)
	if err != nil {
		return nil, err
	}
	if flags.logLevel != "" {
		cfg.LogLevel = strings.ToLower(flags.logLevel)
	}
	if flags.logFormat != "" {
		cfg.LogFormat = strings.ToLower(flags.logFormat)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	logger, err := logging.New(logging.Options{Level: cfg.LogLevel, Format: cfg.LogFormat, Output: os.Stderr})
	if err != nil {
		return nil, err
	}
	slog.SetDefault(logger)
	slog.Debug("config loaded", "sources", cfg.Source)
	return cfg, nil
}

func runApp(ctx context.Context, cfg *config.Config, headless bool) error {
	if headless {
		cfg.Headless = true
	}
	a, err := app.New(cfg, app.Deps{})
	if err != nil {
		return err
	}
	return a.Run(ctx)
}

func headlessApp(cfg *config.Config) (*app.App, error) {
	cfg.Headless = true
	return app.New(cfg, app.Deps{})
}

func printPaths(cmd *cobra.Command, paths []string) {
	for _, p := range paths {
		fmt.Fprintln(cmd.OutOrStdout(), p)
	}
}

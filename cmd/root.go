// Package cmd provides the CLI commands for the flow-grid application.
package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/xvierd/flow-grid/internal/adapters/tui"
	"github.com/xvierd/flow-grid/internal/domain"
	"github.com/xvierd/flow-grid/internal/services"
	"github.com/xvierd/flow-grid/internal/timer"
)

var (
	// Version info (set at build time via ldflags)
	Version   = "dev"
	BuildDate = "unknown"
	GitCommit = "unknown"

	// Global flags
	configPath string
	dbPath     string
	storeFlag  string
	jsonOutput bool
	inlineMode bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "flow-grid",
	Short: "flow-grid - a focus timer with a progress grid per task",
	Long: `flow-grid is a terminal Pomodoro timer. Every task carries a grid of
cells you fill as work gets done, and every focus session records how far
the grid moved while the clock ran.

Run "flow-grid" with no arguments to open the timer.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return initializeServices()
	},
	PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
		return cleanupServices()
	},
	RunE: runTimer,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		cleanupServices()
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to the config file (default: ~/.flow-grid/config.toml)")
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", "", "Path to the data file (default: inside storage.data_dir)")
	rootCmd.PersistentFlags().StringVar(&storeFlag, "store", "", "Storage backend: sqlite or json (overrides storage.backend)")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Output results in JSON format")
	rootCmd.PersistentFlags().BoolVarP(&inlineMode, "inline", "i", false, "Compact inline timer (no fullscreen)")

	rootCmd.Version = Version
	rootCmd.SetVersionTemplate("flow-grid\nVersion: {{.Version}}\n")
}

// runTimer opens the interactive timer, asking for a task first when none is
// active.
func runTimer(cmd *cobra.Command, args []string) error {
	ctx := setupSignalHandler()

	engine, err := newEngine(ctx)
	if err != nil {
		return err
	}

	if engine.ActiveTaskID() == "" {
		if err := pickActiveTask(ctx, engine); err != nil {
			return err
		}
	}

	model := tui.NewModel(ctx, engine, app.tasks, &app.config.Theme)
	return tui.Run(ctx, model, inlineMode)
}

// pickActiveTask lets the user choose among the open tasks. No tasks, or an
// aborted picker, leaves the timer without a task.
func pickActiveTask(ctx context.Context, engine *timer.Engine) error {
	tasks, err := app.tasks.ListTasks(ctx, services.ListTasksRequest{})
	if err != nil {
		return fmt.Errorf("failed to list tasks: %w", err)
	}
	if len(tasks) == 0 {
		return nil
	}

	result, err := tui.RunTaskPicker(tasks, &app.config.Theme)
	if err != nil {
		return err
	}
	if result.Aborted || result.Task == nil {
		return nil
	}
	return engine.SelectTask(ctx, result.Task.ID)
}

// resolveTask finds the task named by ref and wraps lookup failures for the
// user.
func resolveTask(ctx context.Context, ref string) (*domain.Task, error) {
	task, err := app.tasks.Resolve(ctx, ref)
	if err != nil {
		return nil, fmt.Errorf("failed to find task %q: %w", ref, err)
	}
	return task, nil
}

// writeJSON prints v as indented JSON.
func writeJSON(w io.Writer, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal output: %w", err)
	}
	fmt.Fprintln(w, string(data))
	return nil
}

// formatMinutes formats a duration as a compact human string like "1h30m".
func formatMinutes(d time.Duration) string {
	d = d.Round(time.Minute)
	h := int(d.Hours())
	m := int(d.Minutes()) % 60
	switch {
	case h > 0 && m > 0:
		return fmt.Sprintf("%dh%dm", h, m)
	case h > 0:
		return fmt.Sprintf("%dh", h)
	default:
		return fmt.Sprintf("%dm", m)
	}
}

// minutes converts fractional minutes to a duration.
func minutes(m float64) time.Duration {
	return time.Duration(m * float64(time.Minute))
}

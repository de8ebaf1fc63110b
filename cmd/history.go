package cmd

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/xvierd/flow-grid/internal/domain"
)

var (
	historyTask  string
	historyDays  int
	historyLimit int
)

// historyCmd represents the history command
var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List recorded sessions",
	Long: `List recorded focus and break sessions, newest first.
Use --task to show one task's sessions.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()

		var sessions []*domain.Session
		var err error
		if historyTask != "" {
			task, rerr := resolveTask(ctx, historyTask)
			if rerr != nil {
				return rerr
			}
			sessions, err = app.history.ForTask(ctx, task.ID)
			if historyLimit > 0 && len(sessions) > historyLimit {
				sessions = sessions[:historyLimit]
			}
		} else {
			since := time.Now().AddDate(0, 0, -historyDays)
			sessions, err = app.history.Recent(ctx, since, historyLimit)
		}
		if err != nil {
			return fmt.Errorf("failed to load history: %w", err)
		}

		if jsonOutput {
			list := make([]map[string]any, 0, len(sessions))
			for _, s := range sessions {
				list = append(list, sessionJSON(s))
			}
			return writeJSON(cmd.OutOrStdout(), map[string]any{"sessions": list, "count": len(list)})
		}

		out := cmd.OutOrStdout()
		if len(sessions) == 0 {
			fmt.Fprintln(out, "No sessions recorded.")
			return nil
		}
		for _, s := range sessions {
			printSession(out, s)
		}
		return nil
	},
}

var historyDescribeCmd = &cobra.Command{
	Use:   "describe [session] [text]",
	Short: "Set what a session was about",
	Args:  cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()
		session, err := resolveSession(ctx, args[0])
		if err != nil {
			return err
		}
		session, err = app.history.Describe(ctx, session.ID, strings.Join(args[1:], " "))
		if err != nil {
			return fmt.Errorf("failed to describe session: %w", err)
		}
		if jsonOutput {
			return writeJSON(cmd.OutOrStdout(), sessionJSON(session))
		}
		printSession(cmd.OutOrStdout(), session)
		return nil
	},
}

var historyDeleteCmd = &cobra.Command{
	Use:   "delete [session]",
	Short: "Remove a session from the history",
	Long:  `Remove a session from listings and daily totals. Task time is not changed.`,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()
		session, err := resolveSession(ctx, args[0])
		if err != nil {
			return err
		}
		if err := app.history.Delete(ctx, session.ID); err != nil {
			return fmt.Errorf("failed to delete session: %w", err)
		}
		if jsonOutput {
			return writeJSON(cmd.OutOrStdout(), map[string]any{"deleted": true, "session_id": session.ID})
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Session %s deleted.\n", shortID(session.ID))
		return nil
	},
}

func init() {
	historyCmd.Flags().StringVarP(&historyTask, "task", "t", "", "Only show sessions of this task")
	historyCmd.Flags().IntVarP(&historyDays, "days", "d", 7, "How many days back to list")
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", 20, "Maximum number of sessions (0 for all)")
	historyCmd.AddCommand(historyDescribeCmd, historyDeleteCmd)
	rootCmd.AddCommand(historyCmd)
}

// resolveSession finds a live session by ID or ID prefix.
func resolveSession(ctx context.Context, ref string) (*domain.Session, error) {
	sessions, err := app.history.Recent(ctx, time.Time{}, 0)
	if err != nil {
		return nil, fmt.Errorf("failed to load history: %w", err)
	}

	var found *domain.Session
	for _, s := range sessions {
		if s.ID == ref {
			return s, nil
		}
		if strings.HasPrefix(s.ID, ref) {
			if found != nil {
				return nil, fmt.Errorf("session %q is ambiguous", ref)
			}
			found = s
		}
	}
	if found == nil {
		return nil, fmt.Errorf("session %q: %w", ref, domain.ErrSessionNotFound)
	}
	return found, nil
}

func sessionJSON(s *domain.Session) map[string]any {
	return map[string]any{
		"id":          s.ID,
		"task_id":     s.TaskID,
		"task_name":   s.TaskName,
		"phase":       string(s.Phase),
		"duration":    s.Duration,
		"ended_at":    s.DateEnded.Format("2006-01-02T15:04:05"),
		"grid_start":  s.ProgressGridStart,
		"grid_end":    s.ProgressGridEnd,
		"grid_size":   s.ProgressGridSize,
		"grid_delta":  s.ProgressDelta(),
		"description": s.Description,
		"git_branch":  s.GitBranch,
		"git_commit":  s.GitCommit,
	}
}

func printSession(w io.Writer, s *domain.Session) {
	fmt.Fprintf(w, "%s  %s  %-5s %6s  %s\n",
		shortID(s.ID),
		s.DateEnded.Format("Jan 02 15:04"),
		s.Phase.Label(),
		s.DurationValue().Round(time.Second),
		s.TaskName)
	if s.IsFocus() {
		fmt.Fprintf(w, "          grid %d -> %d of %d\n", s.ProgressGridStart, s.ProgressGridEnd, s.ProgressGridSize)
	}
	if s.Description != "" {
		fmt.Fprintf(w, "          %s\n", s.Description)
	}
	if s.GitBranch != "" {
		fmt.Fprintf(w, "          git: %s %s\n", s.GitBranch, shortCommit(s.GitCommit))
	}
}

func shortCommit(c string) string {
	if len(c) > 7 {
		return c[:7]
	}
	return c
}

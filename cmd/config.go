package cmd

import (
	"fmt"
	"io"
	"sort"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/xvierd/flow-grid/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show the configuration",
	Long: `Show the effective configuration. Use "config set" to change a value
and "config path" to locate the file.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if jsonOutput {
			values := make(map[string]string, len(configKeys))
			for key, k := range configKeys {
				values[key] = k.get(app.config)
			}
			return writeJSON(cmd.OutOrStdout(), values)
		}
		printConfig(cmd.OutOrStdout(), app.config)
		return nil
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set [key] [value]",
	Short: "Change one configuration value",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		key, value := args[0], args[1]
		k, ok := configKeys[key]
		if !ok {
			return fmt.Errorf("unknown config key %q", key)
		}

		// Start from the file so flag overrides are not persisted.
		cfg, err := config.LoadFrom(app.configPath)
		if err != nil {
			return err
		}
		if err := k.set(cfg, value); err != nil {
			return fmt.Errorf("invalid value for %s: %w", key, err)
		}
		if err := cfg.Validate(); err != nil {
			return err
		}
		if err := config.Save(cfg, app.configPath); err != nil {
			return fmt.Errorf("failed to save config: %w", err)
		}

		fmt.Fprintf(cmd.OutOrStdout(), "%s = %s\n", key, k.get(cfg))
		return nil
	},
}

var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Print the config file location",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		fmt.Fprintln(cmd.OutOrStdout(), app.configPath)
		return nil
	},
}

func init() {
	configCmd.AddCommand(configSetCmd, configPathCmd)
	rootCmd.AddCommand(configCmd)
}

type configKey struct {
	get func(*config.Config) string
	set func(*config.Config, string) error
}

func durationKey(field func(*config.Config) *config.Duration) configKey {
	return configKey{
		get: func(c *config.Config) string { return field(c).String() },
		set: func(c *config.Config, s string) error {
			d, err := time.ParseDuration(s)
			if err != nil {
				return err
			}
			*field(c) = config.Duration(d)
			return nil
		},
	}
}

func boolKey(field func(*config.Config) *bool) configKey {
	return configKey{
		get: func(c *config.Config) string { return strconv.FormatBool(*field(c)) },
		set: func(c *config.Config, s string) error {
			b, err := strconv.ParseBool(s)
			if err != nil {
				return err
			}
			*field(c) = b
			return nil
		},
	}
}

func stringKey(field func(*config.Config) *string) configKey {
	return configKey{
		get: func(c *config.Config) string { return *field(c) },
		set: func(c *config.Config, s string) error {
			*field(c) = s
			return nil
		},
	}
}

var configKeys = map[string]configKey{
	"timer.focus_duration": durationKey(func(c *config.Config) *config.Duration { return &c.Timer.FocusDuration }),
	"timer.break_duration": durationKey(func(c *config.Config) *config.Duration { return &c.Timer.BreakDuration }),
	"timer.break_bonus":    durationKey(func(c *config.Config) *config.Duration { return &c.Timer.BreakBonus }),
	"timer.min_session":    durationKey(func(c *config.Config) *config.Duration { return &c.Timer.MinSession }),
	"grid.default_size": {
		get: func(c *config.Config) string { return strconv.Itoa(c.Grid.DefaultSize) },
		set: func(c *config.Config, s string) error {
			n, err := strconv.Atoi(s)
			if err != nil {
				return err
			}
			c.Grid.DefaultSize = n
			return nil
		},
	},
	"notifications.enabled": boolKey(func(c *config.Config) *bool { return &c.Notifications.Enabled }),
	"notifications.sound":   boolKey(func(c *config.Config) *bool { return &c.Notifications.Sound }),
	"storage.backend":       stringKey(func(c *config.Config) *string { return &c.Storage.Backend }),
	"storage.data_dir":      stringKey(func(c *config.Config) *string { return &c.Storage.DataDir }),
	"git.enabled":           boolKey(func(c *config.Config) *bool { return &c.Git.Enabled }),
	"theme.color_focus":     stringKey(func(c *config.Config) *string { return &c.Theme.ColorFocus }),
	"theme.color_break":     stringKey(func(c *config.Config) *string { return &c.Theme.ColorBreak }),
	"theme.color_paused":    stringKey(func(c *config.Config) *string { return &c.Theme.ColorPaused }),
	"theme.color_title":     stringKey(func(c *config.Config) *string { return &c.Theme.ColorTitle }),
	"theme.color_help":      stringKey(func(c *config.Config) *string { return &c.Theme.ColorHelp }),
	"theme.cell_filled":     stringKey(func(c *config.Config) *string { return &c.Theme.CellFilled }),
	"theme.cell_empty":      stringKey(func(c *config.Config) *string { return &c.Theme.CellEmpty }),
	"theme.cell_linked":     stringKey(func(c *config.Config) *string { return &c.Theme.CellLinked }),
}

func printConfig(w io.Writer, cfg *config.Config) {
	keys := make([]string, 0, len(configKeys))
	for key := range configKeys {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	fmt.Fprintln(w, "Current configuration:")
	fmt.Fprintln(w)
	for _, key := range keys {
		fmt.Fprintf(w, "  %-24s %s\n", key, configKeys[key].get(cfg))
	}
}

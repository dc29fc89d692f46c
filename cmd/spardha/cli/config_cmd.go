package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/spardhafest/spardha/internal/config"
)

const defaultConfigFile = "spardha.yaml"

func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage Spardha configuration",
		Long:  "Initialize a default configuration file or display the current effective configuration.",
	}

	cmd.AddCommand(newConfigInitCmd())
	cmd.AddCommand(newConfigShowCmd())

	return cmd
}

// ---------- config init ----------

func newConfigInitCmd() *cobra.Command {
	var (
		force bool
		path  string
	)

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Create a default spardha.yaml configuration file",
		RunE: func(cmd *cobra.Command, args []string) error {
			if !force {
				if _, err := os.Stat(path); err == nil {
					return fmt.Errorf("%s already exists (use --force to overwrite)", path)
				}
			}

			if err := config.WriteDefaultConfig(path); err != nil {
				return fmt.Errorf("failed to write config: %w", err)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Created %s\n", path)
			fmt.Fprintln(out, "Set auth.session_secret and gate.pin, then run 'spardha admin create' and 'spardha serve'.")
			return nil
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "Overwrite existing config file")
	cmd.Flags().StringVarP(&path, "output", "o", defaultConfigFile, "Path of the file to write")

	return cmd
}

// ---------- config show ----------

func newConfigShowCmd() *cobra.Command {
	var reveal bool

	cmd := &cobra.Command{
		Use:   "show",
		Short: "Show the current effective configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()

			if configFile := viper.ConfigFileUsed(); configFile != "" {
				fmt.Fprintf(out, "# Config file: %s\n", configFile)
			} else {
				fmt.Fprintln(out, "# Config file: (none found, using defaults and environment)")
			}

			settings := currentSettings()
			if !reveal {
				maskSecrets(settings)
			}

			enc := yaml.NewEncoder(out)
			enc.SetIndent(2)
			defer enc.Close()
			return enc.Encode(settings)
		},
	}

	cmd.Flags().BoolVar(&reveal, "reveal", false, "Print secrets instead of masking them")

	return cmd
}

// maskSecrets replaces the values that grant access with a placeholder.
func maskSecrets(c *config.YAMLConfig) {
	mask := func(s *string) {
		if *s != "" {
			*s = "********"
		}
	}
	mask(&c.Auth.SessionSecret)
	mask(&c.Gate.PIN)
	mask(&c.Database.DSN)
}

package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"sigs.k8s.io/yaml"

	"github.com/celikgo/og-cli/internal/config"
	"github.com/celikgo/og-cli/internal/printer"
)

// newConfigCmd creates the config command for managing the og-cli config file
func newConfigCmd(app *application) *cobra.Command {
	configCmd := &cobra.Command{
		Use:   "config",
		Short: "Manage the og-cli configuration file",
		Long: `The config command helps you set up and inspect the og-cli configuration file.

The file is optional. It lets you point og-cli at a different Rancher
instance, manage a kubeconfig other than ~/.kube/config, change the prefix
that marks clusters og-cli may delete, or store the Rancher token under a
different credential store entry.

Examples:
  og config init                    # Create a sample configuration file
  og config show                    # Display the effective configuration
  og config path                    # Show where the config file is located`,
		Annotations: map[string]string{tolerateConfigError: "true"},
	}

	configCmd.AddCommand(newConfigInitCmd(app))
	configCmd.AddCommand(newConfigShowCmd(app))
	configCmd.AddCommand(newConfigPathCmd(app))

	return configCmd
}

// newConfigInitCmd creates the 'config init' subcommand
func newConfigInitCmd(app *application) *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:         "init",
		Short:       "Initialize a new configuration file",
		Annotations: map[string]string{tolerateConfigError: "true"},
		Long: `Create a configuration file holding the default settings, with comments
explaining each option. The file is written to --config when given, otherwise
to $XDG_CONFIG_HOME/og/config.yaml.`,

		RunE: func(cmd *cobra.Command, args []string) error {
			configPath := viper.GetString("config")
			if configPath == "" {
				var err error
				configPath, err = getConfigInitPath()
				if err != nil {
					return errors.Wrap(err, "failed to determine config path")
				}
			}

			if _, err := os.Stat(configPath); err == nil {
				if !force {
					return fmt.Errorf("configuration file already exists at %s\nUse --force to overwrite", configPath)
				}
				printer.Warning(cmd.OutOrStdout(), "Overwriting existing configuration file at %s", configPath)
			}

			if err := writeSampleConfig(configPath); err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			printer.Success(out, "Configuration file created at: %s\n", configPath)
			fmt.Fprintln(out, "Next steps:")
			fmt.Fprintln(out, "1. Adjust the Rancher URL if you are not using the default instance")
			fmt.Fprintln(out, "2. Store your Rancher token: og kube init")
			fmt.Fprintln(out, "3. Sync your kubeconfig: og kube sync")
			return nil
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "overwrite existing configuration file")
	return cmd
}

// newConfigShowCmd creates the 'config show' subcommand
func newConfigShowCmd(app *application) *cobra.Command {
	return &cobra.Command{
		Use:         "show",
		Short:       "Display the effective configuration",
		Annotations: map[string]string{tolerateConfigError: "true"},
		Long: `Show the configuration og-cli runs with after defaults, the config file,
environment variables and flags have been applied. The Rancher token itself
lives in the credential store and is never shown.`,

		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()

			switch viper.GetString("output") {
			case "json":
				data, err := json.MarshalIndent(app.config, "", "  ")
				if err != nil {
					return err
				}
				fmt.Fprintln(out, string(data))
				return nil
			case "yaml":
				data, err := yaml.Marshal(app.config)
				if err != nil {
					return err
				}
				fmt.Fprint(out, string(data))
				return nil
			}

			if app.configErr != nil {
				printer.Warning(out, "Config file could not be loaded, showing defaults: %v\n", app.configErr)
			}

			tbl := printer.NewTablePrinter(out)
			tbl.SetHeader("SETTING", "VALUE")
			tbl.AddRow("Config file", getValueOrDefault(app.configPath, "none (defaults)"))
			tbl.AddRow("Rancher URL", app.config.Rancher.BaseURL)
			tbl.AddRow("Kubeconfig", app.kubeconfig.Path())
			tbl.AddRow("Managed prefix", app.config.ManagedPrefix)
			tbl.AddRow("Credential store", app.config.Keyring.Service+"/"+app.config.Keyring.Key)
			tbl.AddRow("Timeout", app.config.TimeoutDuration().String())
			tbl.Print()
			return nil
		},
	}
}

// newConfigPathCmd creates the 'config path' subcommand
func newConfigPathCmd(app *application) *cobra.Command {
	return &cobra.Command{
		Use:         "path",
		Short:       "Show configuration file location",
		Annotations: map[string]string{tolerateConfigError: "true"},

		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()

			if app.configPath == "" {
				fmt.Fprintln(out, "No configuration file found.")
				fmt.Fprintln(out, "\nog looks for configuration in these locations (in order):")
				for i, path := range config.SearchPaths() {
					fmt.Fprintf(out, "%d. %s\n", i+1, path)
				}
				fmt.Fprintln(out, "\nRun 'og config init' to create a configuration file.")
				return nil
			}

			info, err := os.Stat(app.configPath)
			if err != nil {
				fmt.Fprintf(out, "Configuration file: %s (does not exist)\n", app.configPath)
				fmt.Fprintln(out, "Run 'og config init' to create it.")
				return nil
			}

			fmt.Fprintf(out, "Configuration file: %s\n", app.configPath)
			fmt.Fprintf(out, "Last modified: %s\n", info.ModTime().Format("2006-01-02 15:04:05"))
			fmt.Fprintf(out, "File size: %d bytes\n", info.Size())
			return nil
		},
	}
}

// getConfigInitPath determines where to create a new configuration file
func getConfigInitPath() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}

	configDir := os.Getenv("XDG_CONFIG_HOME")
	if configDir == "" {
		configDir = filepath.Join(homeDir, ".config")
	}

	return filepath.Join(configDir, "og", "config.yaml"), nil
}

// writeSampleConfig writes the commented default configuration to path
func writeSampleConfig(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return errors.Wrapf(err, "failed to create config directory %s", dir)
	}
	if err := os.WriteFile(path, []byte(generateSampleConfig()), 0644); err != nil {
		return errors.Wrap(err, "failed to write config file")
	}
	return nil
}

// generateSampleConfig creates the sample configuration file content
func generateSampleConfig() string {
	return fmt.Sprintf(`# og-cli configuration
# Every setting is optional; the values below are the defaults.

rancher:
  # Rancher management API; 'og kube init' links to <baseUrl>/dashboard/account/create-key
  baseUrl: %q

# kubeconfig managed by 'og kube'; empty means ~/.kube/config
kubeconfig: ""

# Local clusters starting with this prefix are offered for deletion
# once they disappear from Rancher. Other entries are never touched.
managedPrefix: %q

# Where the Rancher API token is kept in the OS credential store
keyring:
  service: %q
  key: %q

# Timeout in seconds for Rancher requests and cluster probes
timeout: %d
`, config.DefaultRancherBaseURL, config.Default().ManagedPrefix,
		config.Default().Keyring.Service, config.Default().Keyring.Key, config.DefaultTimeout)
}

// getValueOrDefault returns the value if not empty, otherwise returns the default
func getValueOrDefault(value, defaultValue string) string {
	if value == "" {
		return defaultValue
	}
	return value
}

package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// tolerateConfigError marks commands that must keep working when the og-cli
// config file is broken, so they can report or replace it
const tolerateConfigError = "og/tolerate-config-error"

// app is filled in by PersistentPreRunE and handed to every subcommand
var app = &application{}

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "og",
	Short: "og-cli keeps your local kubeconfig in step with Rancher",
	Long: `og is a command line tool for developers working with the clusters
managed by Rancher.

The kube commands compare your local kubeconfig with the clusters Rancher
knows about and let you pick which entries to create, refresh or delete.

Examples:
  og kube init                # Create a kubeconfig and store your Rancher token
  og kube sync                # Sync the kubeconfig with Rancher
  og kube cleanup             # Remove clusters from the kubeconfig
  og kube status              # Check which synced clusters are reachable
  og doctor --apply-fixes     # Diagnose and repair the local setup

Configuration:
  og looks for configuration in these locations (in order):
  1. ./og-config.yaml (current directory)
  2. ~/.og/config.yaml (user home directory)
  3. $XDG_CONFIG_HOME/og/config.yaml (XDG config directory)

  Every setting has a default, so a config file is optional.
  Use 'og config init' to create one.`,

	SilenceUsage: true,

	// PersistentPreRunE loads the configuration once and wires the stores,
	// so individual commands only deal with their own workflow
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		tolerant := cmd.Annotations[tolerateConfigError] == "true"
		return app.init(viper.GetString("config"), overridesFromFlags(), viper.GetBool("verbose"), tolerant)
	},
}

func main() {
	// Ctrl+C cancels in-flight Rancher requests and cluster probes
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	err := rootCmd.ExecuteContext(ctx)
	stop()

	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	// Global flags that apply to all commands
	rootCmd.PersistentFlags().String("config", "", "config file path (default: auto-detect)")
	rootCmd.PersistentFlags().String("kubeconfig", "", "kubeconfig to manage (default: ~/.kube/config)")
	rootCmd.PersistentFlags().String("rancher-url", "", "Rancher base URL (default from config file)")
	rootCmd.PersistentFlags().Bool("verbose", false, "enable verbose output")
	rootCmd.PersistentFlags().String("output", "table", "output format (table, json, yaml)")

	// A failing bind means a flag name typo, which is a programming error
	for _, name := range []string{"config", "kubeconfig", "rancher-url", "verbose", "output"} {
		if err := viper.BindPFlag(name, rootCmd.PersistentFlags().Lookup(name)); err != nil {
			panic(fmt.Sprintf("failed to bind %s flag: %v", name, err))
		}
	}

	rootCmd.AddCommand(newKubeCmd(app))
	rootCmd.AddCommand(newDoctorCmd(app))
	rootCmd.AddCommand(newConfigCmd(app))
}

// initConfig reads ENV variables such as OG_KUBECONFIG or OG_RANCHER_URL
func initConfig() {
	viper.SetEnvPrefix("OG")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()
}

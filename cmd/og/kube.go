package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"sigs.k8s.io/yaml"

	"github.com/celikgo/og-cli/internal/cluster"
	"github.com/celikgo/og-cli/internal/credstore"
	"github.com/celikgo/og-cli/internal/printer"
)

const createKeyPath = "/dashboard/account/create-key"

// newKubeCmd groups everything that touches the kubeconfig or Rancher
func newKubeCmd(app *application) *cobra.Command {
	kubeCmd := &cobra.Command{
		Use:   "kube",
		Short: "Manage your kubeconfig against Rancher",
		Long: `The kube commands keep your local kubeconfig aligned with the clusters
that Rancher manages.

Rancher cluster names end in a three character revision suffix, for example
"dg-payments001". When a cluster is rebuilt it comes back with a higher
suffix, and 'og kube sync' offers to move your local entry to the new
revision. Entries that start with the managed prefix (default "dg-") and no
longer exist in Rancher are offered for deletion. Entries you added by hand
with any other name are never touched.

Examples:
  og kube init              # First time setup
  og kube sync              # Pick which changes to apply
  og kube sync -B           # Same, without writing a backup first
  og kube cleanup           # Pick local clusters to remove
  og kube status --all      # Probe every context, not only managed ones`,
	}

	kubeCmd.AddCommand(newKubeInitCmd(app))
	kubeCmd.AddCommand(newKubeSyncCmd(app))
	kubeCmd.AddCommand(newKubeCleanupCmd(app))
	kubeCmd.AddCommand(newKubeStatusCmd(app))
	kubeCmd.AddCommand(newKubeTokenCmd(app))

	return kubeCmd
}

func newKubeInitCmd(app *application) *cobra.Command {
	var noKubeconfig, noToken, noBackup bool

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Create a kubeconfig and store your Rancher API token",
		Long: `Prepare this machine for 'og kube sync'.

If no valid kubeconfig exists an empty one is created. The previous file, if
any, is backed up first unless --no-backup is given.

Then the Rancher API token is stored in your OS credential store. When a
token is already present you are asked before it is replaced.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()

			if !noKubeconfig {
				if _, err := app.kubeconfig.Read(); err != nil {
					app.log.Debug().Err(err).Msg("kubeconfig unusable")
					if err := app.kubeconfig.CreateEmpty(!noBackup); err != nil {
						return err
					}
					printer.Success(out, "Created an empty kubeconfig at %s", app.kubeconfig.Path())
				} else {
					printer.Success(out, "A valid kubeconfig already exists at %s", app.kubeconfig.Path())
				}
			}

			if noToken {
				return nil
			}

			printer.Info(out, "Depending on your OS, you have to confirm or enter your password to access the credential store\n")
			tokens, err := app.tokenStore()
			if err != nil {
				return err
			}

			if _, err := tokens.Get(); err == nil {
				overwrite, err := app.prompter.Confirm("A Rancher API token is already stored. Replace it")
				if err != nil {
					return err
				}
				if !overwrite {
					printer.Success(out, "Keeping the existing Rancher API token")
					return nil
				}
			} else if !errors.Is(err, credstore.ErrTokenNotFound) {
				return err
			}

			return promptForToken(app, out)
		},
	}

	cmd.Flags().BoolVarP(&noKubeconfig, "no-kubeconfig", "K", false, "skip creating the kubeconfig")
	cmd.Flags().BoolVarP(&noToken, "no-rancher-token", "T", false, "skip storing the Rancher API token")
	cmd.Flags().BoolVarP(&noBackup, "no-backup", "B", false, "do not back up an existing kubeconfig")
	return cmd
}

func newKubeSyncCmd(app *application) *cobra.Command {
	var noBackup bool

	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Sync your kubeconfig with the clusters in Rancher",
		Long: `Compare the local kubeconfig with Rancher and pick which changes to apply.

Three kinds of change are offered:
  [Create]  a Rancher cluster has no local entry yet
  [Update]  the local entry points at an older revision or a different server
  [Delete]  a managed local entry no longer exists in Rancher

Nothing is written unless at least one change is picked and every picked
change succeeds. The previous kubeconfig is backed up to
<kubeconfig>.bak-<unix time> unless --no-backup is given.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			r := app.runner()
			r.Out = cmd.OutOrStdout()
			return r.RunSync(cmd.Context(), !noBackup)
		},
	}

	cmd.Flags().BoolVarP(&noBackup, "no-backup", "B", false, "do not back up the kubeconfig before writing")
	return cmd
}

func newKubeCleanupCmd(app *application) *cobra.Command {
	var noBackup bool

	cmd := &cobra.Command{
		Use:   "cleanup",
		Short: "Remove clusters from your kubeconfig",
		Long: `Pick any clusters in the local kubeconfig to remove, managed or not.
Each pick removes the cluster, its context and its user entry.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			r := app.runner()
			r.Out = cmd.OutOrStdout()
			return r.RunCleanup(cmd.Context(), !noBackup)
		},
	}

	cmd.Flags().BoolVarP(&noBackup, "no-backup", "B", false, "do not back up the kubeconfig before writing")
	return cmd
}

func newKubeStatusCmd(app *application) *cobra.Command {
	var all bool

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Check which clusters in your kubeconfig are reachable",
		Long: `Connect to every managed context in the kubeconfig in parallel and report
the server version and how many nodes are Ready. Use --all to include
contexts that og-cli does not manage.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			prober := cluster.NewProber(app.kubeconfig.Path(), app.config.TimeoutDuration(), app.log)

			contexts, err := prober.Contexts(app.config.ManagedPrefix, all)
			if err != nil {
				return err
			}
			if len(contexts) == 0 {
				printer.Failure(out, "No clusters to check, run 'og kube sync' first")
				return nil
			}

			stop := printer.Progress(out, fmt.Sprintf("Checking %d clusters...", len(contexts)))
			statuses := prober.Probe(cmd.Context(), contexts)
			stop()

			switch viper.GetString("output") {
			case "json":
				data, err := json.MarshalIndent(statuses, "", "  ")
				if err != nil {
					return err
				}
				fmt.Fprintln(out, string(data))
			case "yaml":
				data, err := yaml.Marshal(statuses)
				if err != nil {
					return err
				}
				fmt.Fprint(out, string(data))
			default:
				printStatusTable(out, statuses)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&all, "all", false, "include contexts without the managed prefix")
	return cmd
}

func newKubeTokenCmd(app *application) *cobra.Command {
	tokenCmd := &cobra.Command{
		Use:   "token",
		Short: "Manage the stored Rancher API token",
	}

	tokenCmd.AddCommand(&cobra.Command{
		Use:   "set",
		Short: "Store a new Rancher API token",
		RunE: func(cmd *cobra.Command, args []string) error {
			return promptForToken(app, cmd.OutOrStdout())
		},
	})

	return tokenCmd
}

// promptForToken explains where to create a token, asks for it and stores it
func promptForToken(app *application, out io.Writer) error {
	tokens, err := app.tokenStore()
	if err != nil {
		return err
	}

	printer.Info(out, "Create a Rancher API key at %s", printer.Cyan(app.config.Rancher.BaseURL+createKeyPath))
	printer.Info(out, "Recommended settings: no scope, expiry matching your team's rotation policy\n")

	token, err := app.prompter.Password("Rancher API token (Bearer Token)", credstore.ValidateToken)
	if err != nil {
		return err
	}
	if err := tokens.Set(token); err != nil {
		return err
	}

	printer.Success(out, "Rancher API token stored in your credential store")
	return nil
}

// nodesColumn renders ready/total nodes, or "-" when the counts are unknown
func nodesColumn(s cluster.ContextStatus) string {
	if !s.Connected || s.Error != "" {
		return "-"
	}
	return fmt.Sprintf("%d/%d", s.ReadyNodes, s.TotalNodes)
}

func printStatusTable(out io.Writer, statuses []cluster.ContextStatus) {
	tbl := printer.NewTablePrinter(out)
	tbl.SetHeader("CONTEXT", "STATUS", "VERSION", "NODES READY", "SERVER", "ERROR")

	reachable := 0
	for _, s := range statuses {
		status := printer.Red("unreachable")
		if s.Connected {
			reachable++
			status = printer.Green("connected")
		}
		tbl.AddRow(s.Context, status, s.Version, nodesColumn(s), s.Server, s.Error)
	}
	tbl.Print()

	fmt.Fprintln(out)
	if reachable == len(statuses) {
		printer.Success(out, "All %d clusters are reachable", reachable)
	} else {
		printer.Warning(out, "%d/%d clusters reachable", reachable, len(statuses))
	}
}

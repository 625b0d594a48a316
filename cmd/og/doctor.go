package main

import (
	"context"
	"fmt"
	"io"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/celikgo/og-cli/internal/doctor"
	"github.com/celikgo/og-cli/internal/printer"
)

func newDoctorCmd(app *application) *cobra.Command {
	var applyFixes bool

	cmd := &cobra.Command{
		Use:         "doctor",
		Short:       "Check your og-cli setup and optionally repair it",
		Annotations: map[string]string{tolerateConfigError: "true"},
		Long: `Run health checks for every og-cli feature:

  og-cli       the config file loads
  Kubernetes   the kubeconfig parses and its contexts reference existing entries
  Kubernetes   a Rancher API token is stored in the credential store

With --apply-fixes each failing check that has a known remedy is repaired:
a broken kubeconfig is replaced by an empty one (after a backup), a missing
token is asked for, and a broken config file is rewritten with defaults.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()

			var tokens doctor.TokenGetter
			if store, err := app.tokenStore(); err != nil {
				app.log.Debug().Err(err).Msg("credential store unavailable")
			} else {
				tokens = store
			}

			plugins := []doctor.Plugin{
				doctor.OgCLIPlugin(app.configPath, app.configErr),
				doctor.KubernetesPlugin(app.kubeconfig, tokens),
			}

			results := doctor.Run(cmd.Context(), plugins, fixers(app, out), applyFixes)
			doctor.Print(out, results)
			fmt.Fprintln(out)

			if !doctor.Healthy(results) {
				return errors.New("some checks failed")
			}
			printer.Success(out, "Everything looks good")
			return nil
		},
	}

	cmd.Flags().BoolVarP(&applyFixes, "apply-fixes", "a", false, "try to repair failing checks")
	return cmd
}

// fixers maps every remediation the doctor may report to its repair
func fixers(app *application, out io.Writer) map[doctor.RemediationKind]doctor.Fixer {
	return map[doctor.RemediationKind]doctor.Fixer{
		doctor.CreateEmptyKubeconfig: func(context.Context) error {
			return app.kubeconfig.CreateEmpty(true)
		},
		doctor.AddRancherToken: func(context.Context) error {
			return promptForToken(app, out)
		},
		doctor.WriteSampleConfig: func(context.Context) error {
			path := app.configPath
			if path == "" {
				var err error
				if path, err = getConfigInitPath(); err != nil {
					return err
				}
			}
			return writeSampleConfig(path)
		},
	}
}

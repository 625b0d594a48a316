package kubesync

import (
	"context"
	"fmt"
	"io"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/celikgo/og-cli/internal/kubeconfig"
	"github.com/celikgo/og-cli/internal/printer"
)

// TokenSource hands out the Rancher API token
type TokenSource interface {
	Get() (string, error)
}

// Directory is the remote source of truth for clusters
type Directory interface {
	CredentialFetcher
	ListClusters(ctx context.Context, token string) []Cluster
}

// ConfigStore persists the kubeconfig
type ConfigStore interface {
	Read() (*kubeconfig.Config, error)
	Write(cfg *kubeconfig.Config, backup bool) error
}

// Selector lets the user pick items; it returns indexes in picking order
type Selector interface {
	MultiSelect(label string, items []string) ([]int, error)
}

// ErrNoValidKubeconfig is returned when sync or cleanup cannot read the kubeconfig
var ErrNoValidKubeconfig = errors.New("no valid local kubeconfig found, run 'og kube init' to create one")

const credentialStoreWarning = "Depending on your OS, you have to confirm or enter your password to access the credential store to retrieve the necessary access tokens"

// Runner drives the interactive sync and cleanup workflows.
// It reads the kubeconfig once, mutates it in memory and writes it once.
type Runner struct {
	Store         ConfigStore
	Directory     Directory
	Tokens        TokenSource
	Selector      Selector
	ManagedPrefix string
	Out           io.Writer
	Log           zerolog.Logger
}

// RunSync plans the changes between the kubeconfig and Rancher, lets the
// user pick which to apply and persists the result
func (r *Runner) RunSync(ctx context.Context, backup bool) error {
	printer.Info(r.Out, "%s\n", credentialStoreWarning)

	token, err := r.Tokens.Get()
	if err != nil {
		return errors.Wrap(err, "failed to read Rancher token from credential store")
	}

	stop := printer.Progress(r.Out, "Fetching Rancher clusters...")
	remote := r.Directory.ListClusters(ctx, token)
	stop()

	cfg, err := r.Store.Read()
	if err != nil {
		return fmt.Errorf("%w: %w", ErrNoValidKubeconfig, err)
	}
	local := LocalClusters(cfg, r.Log)

	if len(remote) == 0 {
		printer.Failure(r.Out, "No clusters found to sync")
		return nil
	}

	printer.Info(r.Out, "Found %s Rancher clusters", printer.Green(len(remote)))
	printer.Info(r.Out, "Found %s local clusters\n", printer.Green(len(local)))

	actions := Plan(local, remote, r.ManagedPrefix)
	if len(actions) == 0 {
		printer.Success(r.Out, "Your config is already up to date.")
		return nil
	}

	labels := make([]string, len(actions))
	for i, a := range actions {
		labels[i] = a.String()
	}

	picked, err := r.Selector.MultiSelect("Select the clusters to sync", labels)
	if err != nil {
		return errors.Wrap(err, "selection aborted")
	}
	if len(picked) == 0 {
		printer.Failure(r.Out, "No sync action selected.")
		return nil
	}

	selected := make([]Action, 0, len(picked))
	for _, i := range picked {
		if i < 0 || i >= len(actions) {
			return errors.Errorf("selected index %d out of range", i)
		}
		selected = append(selected, actions[i])
	}

	r.Log.Debug().Int("actions", len(selected)).Msg("applying sync actions")

	stop = printer.Progress(r.Out, "Fetching cluster credentials...")
	updated, err := Execute(ctx, selected, cfg, token, r.Directory)
	stop()
	if err != nil {
		return err
	}

	if err := r.Store.Write(updated, backup); err != nil {
		return err
	}

	printer.Success(r.Out, "kubeconfig has successfully been synced with the selected Rancher clusters")
	return nil
}

// RunCleanup lets the user pick local clusters and removes them
func (r *Runner) RunCleanup(ctx context.Context, backup bool) error {
	cfg, err := r.Store.Read()
	if err != nil {
		return fmt.Errorf("%w: %w", ErrNoValidKubeconfig, err)
	}

	names := make([]string, len(cfg.Clusters))
	for i, c := range cfg.Clusters {
		names[i] = c.Name
	}

	if len(names) == 0 {
		printer.Success(r.Out, "Your kubeconfig is currently empty. Nothing to clean up.")
		return nil
	}

	picked, err := r.Selector.MultiSelect("Select the clusters to delete", names)
	if err != nil {
		return errors.Wrap(err, "selection aborted")
	}

	ids := make([]string, 0, len(picked))
	for _, i := range picked {
		if i < 0 || i >= len(names) {
			return errors.Errorf("selected index %d out of range", i)
		}
		ids = append(ids, names[i])
	}

	updated, changed := Cleanup(ids, cfg)
	if !changed {
		printer.Success(r.Out, "There are no clusters selected to clean up in your local kubeconfig")
		return nil
	}

	if err := r.Store.Write(updated, backup); err != nil {
		return err
	}

	printer.Success(r.Out, "Your local kubeconfig has been cleaned up successfully")
	return nil
}

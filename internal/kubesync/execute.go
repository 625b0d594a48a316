package kubesync

import (
	"context"
	"fmt"

	"github.com/pkg/errors"

	"github.com/celikgo/og-cli/internal/kubeconfig"
)

// CredentialFetcher mints a per-cluster kubeconfig from a credential URL
type CredentialFetcher interface {
	GenerateKubeconfig(ctx context.Context, credentialURL, token string) (*kubeconfig.Config, error)
}

// ActionError ties a failure to the planned action that caused it
type ActionError struct {
	Action Action
	Err    error
}

func (e *ActionError) Error() string {
	return fmt.Sprintf("%s: %v", e.Action, e.Err)
}

func (e *ActionError) Unwrap() error {
	return e.Err
}

// Execute applies the selected actions in the given order to a copy of cfg
// and returns the copy. cfg itself is never modified, so a failing action
// leaves nothing half-applied for the caller to persist.
//
// Several updates may target the same local revision. The first one that
// renames it wins and the others are skipped; the next sync plans them again.
func Execute(ctx context.Context, selected []Action, cfg *kubeconfig.Config, token string, fetcher CredentialFetcher) (*kubeconfig.Config, error) {
	out := cfg.Clone()
	renamed := map[string]bool{}

	for _, action := range selected {
		var err error
		switch action.Kind {
		case Create:
			err = applyCreate(ctx, out, action, token, fetcher)
		case Update:
			if action.Local != nil && renamed[action.Local.ID] && out.ClusterIndex(action.Local.ID) < 0 {
				continue
			}
			err = applyUpdate(ctx, out, action, token, fetcher)
			if err == nil && action.Remote.FullName() != action.Local.ID {
				renamed[action.Local.ID] = true
			}
		case Delete:
			err = applyDelete(out, action)
		default:
			err = errors.Errorf("unknown action kind %d", int(action.Kind))
		}
		if err != nil {
			return nil, &ActionError{Action: action, Err: err}
		}
	}

	return out, nil
}

func applyCreate(ctx context.Context, cfg *kubeconfig.Config, action Action, token string, fetcher CredentialFetcher) error {
	if action.Remote == nil {
		return errors.New("create action has no remote cluster")
	}

	server, clusterToken, err := fetchCredentials(ctx, fetcher, action.Remote, token)
	if err != nil {
		return err
	}

	cfg.AddEntry(action.Remote.FullName(), server, clusterToken)
	return nil
}

func applyUpdate(ctx context.Context, cfg *kubeconfig.Config, action Action, token string, fetcher CredentialFetcher) error {
	if action.Local == nil || action.Remote == nil {
		return errors.New("update action needs both a local and a remote cluster")
	}

	server, clusterToken, err := fetchCredentials(ctx, fetcher, action.Remote, token)
	if err != nil {
		return err
	}

	clusterPos := cfg.ClusterIndex(action.Local.ID)
	if clusterPos < 0 {
		return errors.Errorf("cluster %q not found in kubeconfig", action.Local.ID)
	}
	userPos := cfg.UserIndex(action.Local.ID)
	if userPos < 0 {
		return errors.Errorf("user %q not found in kubeconfig", action.Local.ID)
	}

	cfg.Clusters[clusterPos].Cluster.Server = server
	cfg.Users[userPos].User.Token = clusterToken

	// A second local revision already named like the remote one is superseded
	name := action.Remote.FullName()
	if name != action.Local.ID {
		cfg.RemoveEntry(name)
	}
	cfg.RenameEntry(action.Local.ID, name)
	return nil
}

func applyDelete(cfg *kubeconfig.Config, action Action) error {
	if action.Local == nil {
		return errors.New("delete action has no local cluster")
	}
	cfg.RemoveEntry(action.Local.FullName())
	return nil
}

// fetchCredentials returns the server and bearer token of the first cluster
// and user in the minted kubeconfig
func fetchCredentials(ctx context.Context, fetcher CredentialFetcher, remote *Cluster, token string) (string, string, error) {
	if remote.CredentialURL == "" {
		return "", "", errors.Errorf("cluster %q has no credential endpoint", remote.FullName())
	}

	bundle, err := fetcher.GenerateKubeconfig(ctx, remote.CredentialURL, token)
	if err != nil {
		return "", "", errors.Wrapf(err, "failed to fetch credentials for %s", remote.FullName())
	}

	if len(bundle.Clusters) == 0 {
		return "", "", errors.Errorf("credentials for %s contain no cluster", remote.FullName())
	}
	if len(bundle.Users) == 0 || bundle.Users[0].User.Token == "" {
		return "", "", errors.Errorf("credentials for %s contain no user token", remote.FullName())
	}

	return bundle.Clusters[0].Cluster.Server, bundle.Users[0].User.Token, nil
}

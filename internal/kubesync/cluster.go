package kubesync

import (
	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/celikgo/og-cli/internal/kubeconfig"
)

const (
	// SuffixLength is the size of the trailing name fragment that tells two
	// revisions of the same cluster apart, e.g. "001" in "dg-foo001"
	SuffixLength = 3

	// DefaultManagedPrefix marks kubeconfig entries og-cli may delete
	DefaultManagedPrefix = "dg-"
)

// ErrNameTooShort is returned for names that cannot hold a suffix
var ErrNameTooShort = errors.Errorf("cluster name must have at least %d characters", SuffixLength)

// Cluster is one cluster as seen by the planner, either from the local
// kubeconfig or from the remote directory.
type Cluster struct {
	// ID is the kubeconfig entry name for local clusters and the remote
	// identifier for remote ones
	ID       string
	BaseName string
	Suffix   string
	Server   string
	// CredentialURL mints a kubeconfig for this cluster; remote only
	CredentialURL string
}

// FullName joins base name and suffix back into the kubeconfig entry name
func (c Cluster) FullName() string {
	return c.BaseName + c.Suffix
}

// SplitName cuts a raw cluster name into base name and suffix
func SplitName(raw string) (base, suffix string, err error) {
	if len(raw) < SuffixLength {
		return "", "", errors.Wrapf(ErrNameTooShort, "%q", raw)
	}
	cut := len(raw) - SuffixLength
	return raw[:cut], raw[cut:], nil
}

// LocalClusters turns the clusters of a kubeconfig into planner input.
// Entries whose names are too short to split are skipped with a warning.
func LocalClusters(cfg *kubeconfig.Config, log zerolog.Logger) []Cluster {
	clusters := make([]Cluster, 0, len(cfg.Clusters))
	for _, c := range cfg.Clusters {
		base, suffix, err := SplitName(c.Name)
		if err != nil {
			log.Warn().Err(err).Str("cluster", c.Name).Msg("skipping local cluster")
			continue
		}
		clusters = append(clusters, Cluster{
			ID:       c.Name,
			BaseName: base,
			Suffix:   suffix,
			Server:   c.Cluster.Server,
		})
	}
	return clusters
}

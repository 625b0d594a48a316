package kubesync

import "github.com/celikgo/og-cli/internal/kubeconfig"

// Cleanup removes the cluster, context and user triples named by ids from a
// copy of cfg. The flag reports whether anything was actually removed, so
// callers can skip an unneeded write.
func Cleanup(ids []string, cfg *kubeconfig.Config) (*kubeconfig.Config, bool) {
	out := cfg.Clone()
	changed := false
	for _, id := range ids {
		if out.RemoveEntry(id) {
			changed = true
		}
	}
	return out, changed
}

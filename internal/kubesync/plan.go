package kubesync

import (
	"fmt"
	"strings"

	"k8s.io/apimachinery/pkg/util/sets"
)

// Kind classifies a planned change
type Kind int

const (
	Create Kind = iota
	Update
	Delete
)

func (k Kind) String() string {
	switch k {
	case Create:
		return "Create"
	case Update:
		return "Update"
	case Delete:
		return "Delete"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Action is one planned change to the kubeconfig.
// Create carries only Remote, Delete only Local, Update both.
type Action struct {
	Kind   Kind
	Local  *Cluster
	Remote *Cluster
}

// String renders the action the way the selection prompt shows it
func (a Action) String() string {
	local := "NEW"
	if a.Local != nil {
		local = a.Local.FullName()
	}
	remote := "DELETE"
	if a.Remote != nil {
		remote = a.Remote.FullName()
	}
	return fmt.Sprintf("[%s] %s -> %s", a.Kind, local, remote)
}

// Plan diffs local against remote clusters by base name.
//
// The result lists every Create, then every Update, then every Delete, each
// group in source order. Only local clusters whose ID starts with
// managedPrefix are ever deleted. A pair with the same base name, suffix and
// server produces nothing.
func Plan(local, remote []Cluster, managedPrefix string) []Action {
	localNames := sets.New[string]()
	for _, lc := range local {
		localNames.Insert(lc.BaseName)
	}
	remoteNames := sets.New[string]()
	for _, rc := range remote {
		remoteNames.Insert(rc.BaseName)
	}

	var actions []Action

	for i := range remote {
		if !localNames.Has(remote[i].BaseName) {
			actions = append(actions, Action{Kind: Create, Remote: &remote[i]})
		}
	}

	for i := range remote {
		rc := &remote[i]
		if !needsUpdate(local, rc) {
			continue
		}
		// Several local revisions may share a base name; the first one in
		// kubeconfig order is the one that gets updated
		if lc := firstWithBaseName(local, rc.BaseName); lc != nil {
			actions = append(actions, Action{Kind: Update, Local: lc, Remote: rc})
		}
	}

	for i := range local {
		lc := &local[i]
		if !remoteNames.Has(lc.BaseName) && strings.HasPrefix(lc.ID, managedPrefix) {
			actions = append(actions, Action{Kind: Delete, Local: lc})
		}
	}

	return actions
}

// needsUpdate reports whether any local cluster with the same base name is
// older than rc or points at a different server
func needsUpdate(local []Cluster, rc *Cluster) bool {
	for _, lc := range local {
		if lc.BaseName == rc.BaseName && (lc.Suffix < rc.Suffix || lc.Server != rc.Server) {
			return true
		}
	}
	return false
}

func firstWithBaseName(clusters []Cluster, baseName string) *Cluster {
	for i := range clusters {
		if clusters[i].BaseName == baseName {
			return &clusters[i]
		}
	}
	return nil
}

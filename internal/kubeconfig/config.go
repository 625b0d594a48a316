package kubeconfig

import (
	"fmt"

	"github.com/pkg/errors"
	"sigs.k8s.io/yaml"
)

const (
	// DefaultAPIVersion and DefaultKind are the format markers kubectl writes
	DefaultAPIVersion = "v1"
	DefaultKind       = "Config"
)

// ErrParse is returned when content does not match the kubeconfig schema
var ErrParse = errors.New("kubeconfig is invalid")

// Parse decodes kubeconfig YAML into a Config.
// Both format markers are required; everything else may be empty.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, errors.Wrapf(ErrParse, "%v", err)
	}

	if cfg.APIVersion == "" {
		return nil, errors.Wrap(ErrParse, "missing apiVersion")
	}
	if cfg.Kind == "" {
		return nil, errors.Wrap(ErrParse, "missing kind")
	}

	cfg.normalize()
	return &cfg, nil
}

// Marshal encodes the Config back into kubeconfig YAML
func Marshal(cfg *Config) ([]byte, error) {
	out := cfg.Clone()
	out.normalize()

	data, err := yaml.Marshal(out)
	if err != nil {
		return nil, errors.Wrap(err, "failed to marshal kubeconfig")
	}
	return data, nil
}

// Empty returns a minimal valid kubeconfig with no clusters, contexts or users
func Empty() *Config {
	return &Config{
		APIVersion:     DefaultAPIVersion,
		Kind:           DefaultKind,
		CurrentContext: "",
		Clusters:       []NamedCluster{},
		Contexts:       []NamedContext{},
		Users:          []NamedUser{},
	}
}

// normalize replaces nil lists with empty ones so they serialize as []
func (c *Config) normalize() {
	if c.Clusters == nil {
		c.Clusters = []NamedCluster{}
	}
	if c.Contexts == nil {
		c.Contexts = []NamedContext{}
	}
	if c.Users == nil {
		c.Users = []NamedUser{}
	}
}

// Clone returns a copy whose lists can be mutated without touching c.
// Preferences and unmodeled keys are never mutated and stay shared.
func (c *Config) Clone() *Config {
	out := *c
	if c.Clusters != nil {
		out.Clusters = append([]NamedCluster{}, c.Clusters...)
	}
	if c.Contexts != nil {
		out.Contexts = append([]NamedContext{}, c.Contexts...)
	}
	if c.Users != nil {
		out.Users = append([]NamedUser{}, c.Users...)
	}
	return &out
}

// ClusterIndex returns the position of the named cluster or -1
func (c *Config) ClusterIndex(name string) int {
	for i := range c.Clusters {
		if c.Clusters[i].Name == name {
			return i
		}
	}
	return -1
}

// ContextIndex returns the position of the named context or -1
func (c *Config) ContextIndex(name string) int {
	for i := range c.Contexts {
		if c.Contexts[i].Name == name {
			return i
		}
	}
	return -1
}

// UserIndex returns the position of the named user or -1
func (c *Config) UserIndex(name string) int {
	for i := range c.Users {
		if c.Users[i].Name == name {
			return i
		}
	}
	return -1
}

// AddEntry appends a cluster, context and user that all share one name.
// Entries are always added as a unit so context references stay valid.
func (c *Config) AddEntry(name, server, token string) {
	c.Clusters = append(c.Clusters, NamedCluster{
		Name:    name,
		Cluster: Cluster{Server: server},
	})
	c.Contexts = append(c.Contexts, NamedContext{
		Name:    name,
		Context: Context{Cluster: name, User: name},
	})
	c.Users = append(c.Users, NamedUser{
		Name: name,
		User: User{Token: token},
	})
}

// RemoveEntry drops the cluster, context and user with the given name.
// It reports whether anything was removed.
func (c *Config) RemoveEntry(name string) bool {
	removed := false

	clusters := c.Clusters[:0]
	for _, cl := range c.Clusters {
		if cl.Name == name {
			removed = true
			continue
		}
		clusters = append(clusters, cl)
	}
	c.Clusters = clusters

	contexts := c.Contexts[:0]
	for _, ctx := range c.Contexts {
		if ctx.Name == name {
			removed = true
			continue
		}
		contexts = append(contexts, ctx)
	}
	c.Contexts = contexts

	users := c.Users[:0]
	for _, u := range c.Users {
		if u.Name == name {
			removed = true
			continue
		}
		users = append(users, u)
	}
	c.Users = users

	return removed
}

// RenameEntry renames the cluster, context and user called oldName in place
// and rewrites every context reference and the current context to match.
func (c *Config) RenameEntry(oldName, newName string) {
	if oldName == newName {
		return
	}

	for i := range c.Clusters {
		if c.Clusters[i].Name == oldName {
			c.Clusters[i].Name = newName
		}
	}
	for i := range c.Users {
		if c.Users[i].Name == oldName {
			c.Users[i].Name = newName
		}
	}
	for i := range c.Contexts {
		if c.Contexts[i].Name == oldName {
			c.Contexts[i].Name = newName
		}
		if c.Contexts[i].Context.Cluster == oldName {
			c.Contexts[i].Context.Cluster = newName
		}
		if c.Contexts[i].Context.User == oldName {
			c.Contexts[i].Context.User = newName
		}
	}
	if c.CurrentContext == oldName {
		c.CurrentContext = newName
	}
}

// Validate checks that every context references an existing cluster and user
func (c *Config) Validate() error {
	for _, ctx := range c.Contexts {
		if c.ClusterIndex(ctx.Context.Cluster) < 0 {
			return fmt.Errorf("context %q references unknown cluster %q", ctx.Name, ctx.Context.Cluster)
		}
		if c.UserIndex(ctx.Context.User) < 0 {
			return fmt.Errorf("context %q references unknown user %q", ctx.Name, ctx.Context.User)
		}
	}
	return nil
}

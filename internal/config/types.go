package config

import "time"

// Config is the og-cli application configuration.
// It is built once at startup and handed to every command that needs it.
type Config struct {
	Rancher       RancherConfig `yaml:"rancher" json:"rancher"`
	Kubeconfig    string        `yaml:"kubeconfig,omitempty" json:"kubeconfig,omitempty"`       // Path to the kubeconfig og-cli manages
	ManagedPrefix string        `yaml:"managedPrefix,omitempty" json:"managedPrefix,omitempty"` // Entries with this prefix may be auto-deleted
	Keyring       KeyringConfig `yaml:"keyring" json:"keyring"`
	Timeout       int           `yaml:"timeout,omitempty" json:"timeout,omitempty"` // HTTP and probe timeout in seconds
}

// RancherConfig points at the Rancher management API
type RancherConfig struct {
	BaseURL string `yaml:"baseUrl" json:"baseUrl"`
}

// KeyringConfig locates the Rancher token in the OS credential store
type KeyringConfig struct {
	Service string `yaml:"service,omitempty" json:"service,omitempty"`
	Key     string `yaml:"key,omitempty" json:"key,omitempty"`
}

// TimeoutDuration returns Timeout as a duration
func (c *Config) TimeoutDuration() time.Duration {
	return time.Duration(c.Timeout) * time.Second
}

package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"sigs.k8s.io/yaml"

	"github.com/celikgo/og-cli/internal/credstore"
	"github.com/celikgo/og-cli/internal/kubesync"
)

const (
	DefaultRancherBaseURL = "https://kubernetes-management.int.devinite.com"
	DefaultTimeout        = 30

	localConfigFile = "./og-config.yaml"
)

// Overrides carries values from flags or environment that win over the file
type Overrides struct {
	RancherBaseURL string
	Kubeconfig     string
}

// LoadConfig reads the og-cli configuration from a YAML file.
// An explicit path must exist. Without one the standard locations are
// searched, and when none holds a file the defaults are used.
func LoadConfig(configPath string) (*Config, error) {
	var config Config

	if configPath == "" {
		configPath = findDefaultConfigPath()
	}

	if configPath != "" {
		data, err := os.ReadFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", configPath, err)
		}

		if err := yaml.Unmarshal(data, &config); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", configPath, err)
		}
	}

	setDefaults(&config)

	if err := validateConfig(&config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// Default returns the configuration used when no file exists
func Default() *Config {
	config := &Config{}
	setDefaults(config)
	return config
}

// ApplyOverrides layers non-empty overrides on top of the loaded config
func ApplyOverrides(config *Config, o Overrides) error {
	if o.RancherBaseURL != "" {
		config.Rancher.BaseURL = o.RancherBaseURL
	}
	if o.Kubeconfig != "" {
		config.Kubeconfig = o.Kubeconfig
	}
	setDefaults(config)
	return validateConfig(config)
}

// ResolvePath returns the config file LoadConfig would read, or "" when
// defaults would be used
func ResolvePath(configPath string) string {
	if configPath != "" {
		return configPath
	}
	return findDefaultConfigPath()
}

// findDefaultConfigPath returns the first existing config file in the
// standard locations, or "" when there is none
func findDefaultConfigPath() string {
	for _, path := range SearchPaths() {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

// SearchPaths lists where og-cli looks for its config, in order
func SearchPaths() []string {
	paths := []string{localConfigFile}

	homeDir, err := os.UserHomeDir()
	if err == nil {
		paths = append(paths, filepath.Join(homeDir, ".og", "config.yaml"))
	}

	configDir := os.Getenv("XDG_CONFIG_HOME")
	if configDir == "" && homeDir != "" {
		configDir = filepath.Join(homeDir, ".config")
	}
	if configDir != "" {
		paths = append(paths, filepath.Join(configDir, "og", "config.yaml"))
	}

	return paths
}

// validateConfig ensures the configuration makes sense
func validateConfig(config *Config) error {
	u, err := url.Parse(config.Rancher.BaseURL)
	if err != nil {
		return fmt.Errorf("rancher base URL %q is invalid: %w", config.Rancher.BaseURL, err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("rancher base URL %q must be an absolute http(s) URL", config.Rancher.BaseURL)
	}

	if strings.TrimSpace(config.ManagedPrefix) == "" {
		return fmt.Errorf("managed prefix must not be empty")
	}

	if config.Timeout < 0 {
		return fmt.Errorf("timeout must not be negative, got %d", config.Timeout)
	}

	return nil
}

// setDefaults fills in reasonable default values for missing configuration
func setDefaults(config *Config) {
	if config.Rancher.BaseURL == "" {
		config.Rancher.BaseURL = DefaultRancherBaseURL
	}
	config.Rancher.BaseURL = strings.TrimSuffix(config.Rancher.BaseURL, "/")

	if config.ManagedPrefix == "" {
		config.ManagedPrefix = kubesync.DefaultManagedPrefix
	}

	if config.Keyring.Service == "" {
		config.Keyring.Service = credstore.DefaultService
	}
	if config.Keyring.Key == "" {
		config.Keyring.Key = credstore.DefaultKey
	}

	if config.Timeout == 0 {
		config.Timeout = DefaultTimeout
	}

	// Handle tilde expansion for paths like "~/.kube/config"
	if strings.HasPrefix(config.Kubeconfig, "~/") {
		if homeDir, err := os.UserHomeDir(); err == nil {
			config.Kubeconfig = filepath.Join(homeDir, config.Kubeconfig[2:])
		}
	}
}

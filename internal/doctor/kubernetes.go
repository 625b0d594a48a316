package doctor

import (
	"context"
	"fmt"

	"github.com/celikgo/og-cli/internal/kubeconfig"
)

const kubernetesPlugin = "Kubernetes"

// KubeconfigReader is the part of the kubeconfig store the checks need
type KubeconfigReader interface {
	Read() (*kubeconfig.Config, error)
}

// TokenGetter is the part of the credential store the checks need
type TokenGetter interface {
	Get() (string, error)
}

// KubernetesPlugin checks the local kubeconfig and the Rancher token
func KubernetesPlugin(store KubeconfigReader, tokens TokenGetter) Plugin {
	return Plugin{
		Name: kubernetesPlugin,
		Checks: []Check{
			kubeconfigValid(store),
			rancherTokenAvailable(tokens),
		},
	}
}

func kubeconfigValid(store KubeconfigReader) Check {
	return func(context.Context) Report {
		cfg, err := store.Read()
		if err == nil {
			err = cfg.Validate()
		}
		if err != nil {
			return Report{
				Plugin:      kubernetesPlugin,
				Message:     fmt.Sprintf("Error while parsing the kubeconfig: %v", err),
				Remediation: CreateEmptyKubeconfig,
			}
		}
		return Report{Plugin: kubernetesPlugin, Message: "kubeconfig is valid", OK: true}
	}
}

func rancherTokenAvailable(tokens TokenGetter) Check {
	return func(context.Context) Report {
		if tokens == nil {
			return Report{
				Plugin:      kubernetesPlugin,
				Message:     "Credential store is not available",
				Remediation: NoRemediation,
			}
		}
		if _, err := tokens.Get(); err != nil {
			return Report{
				Plugin:      kubernetesPlugin,
				Message:     fmt.Sprintf("Unable to retrieve Rancher token from credential store: %v", err),
				Remediation: AddRancherToken,
			}
		}
		return Report{Plugin: kubernetesPlugin, Message: "Rancher token found in credential store", OK: true}
	}
}

package cluster

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	corev1 "k8s.io/api/core/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/client-go/kubernetes"
	"k8s.io/client-go/rest"
	"k8s.io/client-go/tools/clientcmd"
)

// ClientFactory builds a clientset for a resolved REST config
type ClientFactory func(*rest.Config) (kubernetes.Interface, error)

// Prober checks whether the contexts in a kubeconfig point at reachable clusters.
// Every probe loads its own REST config, so one broken entry never affects another.
type Prober struct {
	kubeconfigPath string
	timeout        time.Duration
	log            zerolog.Logger

	// NewClient defaults to kubernetes.NewForConfig and is swapped out in tests
	NewClient ClientFactory
}

// ContextStatus is the outcome of probing a single kubeconfig context
type ContextStatus struct {
	Context    string `json:"context"`
	Server     string `json:"server,omitempty"`
	Version    string `json:"version,omitempty"`
	ReadyNodes int    `json:"readyNodes"`
	TotalNodes int    `json:"totalNodes"`
	Connected  bool   `json:"connected"`
	Error      string `json:"error,omitempty"`
}

// NewProber creates a prober for the kubeconfig at path
func NewProber(path string, timeout time.Duration, log zerolog.Logger) *Prober {
	return &Prober{
		kubeconfigPath: path,
		timeout:        timeout,
		log:            log,
		NewClient: func(c *rest.Config) (kubernetes.Interface, error) {
			return kubernetes.NewForConfig(c)
		},
	}
}

// Contexts lists the context names in the kubeconfig, sorted.
// Unless all is set only names carrying prefix are returned.
func (p *Prober) Contexts(prefix string, all bool) ([]string, error) {
	raw, err := clientcmd.LoadFromFile(p.kubeconfigPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load kubeconfig: %w", err)
	}

	var names []string
	for name := range raw.Contexts {
		if all || strings.HasPrefix(name, prefix) {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names, nil
}

// Probe checks all given contexts in parallel.
// The result keeps the order of contexts.
func (p *Prober) Probe(ctx context.Context, contexts []string) []ContextStatus {
	results := make([]ContextStatus, len(contexts))

	var wg sync.WaitGroup
	for i, name := range contexts {
		wg.Add(1)
		go func(i int, name string) {
			defer wg.Done()
			results[i] = p.probeContext(ctx, name)
		}(i, name)
	}
	wg.Wait()

	for _, status := range results {
		if status.Connected {
			p.log.Debug().Str("context", status.Context).Str("version", status.Version).Msg("cluster reachable")
		} else {
			p.log.Debug().Str("context", status.Context).Str("error", status.Error).Msg("cluster unreachable")
		}
	}
	return results
}

// probeContext loads the REST config for one context and asks the API server
// for its version and nodes
func (p *Prober) probeContext(ctx context.Context, name string) ContextStatus {
	status := ContextStatus{Context: name}

	restConfig, err := clientcmd.NewNonInteractiveDeferredLoadingClientConfig(
		&clientcmd.ClientConfigLoadingRules{ExplicitPath: p.kubeconfigPath},
		&clientcmd.ConfigOverrides{CurrentContext: name},
	).ClientConfig()
	if err != nil {
		status.Error = fmt.Sprintf("failed to load context: %v", err)
		return status
	}
	status.Server = restConfig.Host
	restConfig.Timeout = p.timeout

	clientset, err := p.NewClient(restConfig)
	if err != nil {
		status.Error = fmt.Sprintf("failed to create Kubernetes client: %v", err)
		return status
	}

	version, err := clientset.Discovery().ServerVersion()
	if err != nil {
		status.Error = fmt.Sprintf("failed to connect to cluster: %v", err)
		return status
	}
	status.Version = version.GitVersion
	status.Connected = true

	if p.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.timeout)
		defer cancel()
	}

	nodes, err := clientset.CoreV1().Nodes().List(ctx, metav1.ListOptions{})
	if err != nil {
		// Reachable but not allowed to list nodes is still reachable
		status.Error = fmt.Sprintf("failed to list nodes: %v", err)
		return status
	}
	status.TotalNodes = len(nodes.Items)
	for _, node := range nodes.Items {
		if nodeReady(node) {
			status.ReadyNodes++
		}
	}

	return status
}

func nodeReady(node corev1.Node) bool {
	for _, cond := range node.Status.Conditions {
		if cond.Type == corev1.NodeReady {
			return cond.Status == corev1.ConditionTrue
		}
	}
	return false
}

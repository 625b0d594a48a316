package rancher

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/hashicorp/go-cleanhttp"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/celikgo/og-cli/internal/kubeconfig"
	"github.com/celikgo/og-cli/internal/kubesync"
)

const (
	clustersPath = "/v3/clusters"

	selfLink                 = "self"
	generateKubeconfigAction = "generateKubeconfig"

	// The management API serves cluster objects under /v3/; the proxied
	// Kubernetes API of the same cluster lives under /k8s/
	managementSegment = "/v3/"
	dataPlaneSegment  = "/k8s/"
)

// ErrDecode is returned when a Rancher response cannot be decoded
var ErrDecode = errors.New("failed to decode Rancher response")

// HTTPError carries a non-2xx Rancher response
type HTTPError struct {
	Status int
	Body   string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("http %d %s: %s", e.Status, http.StatusText(e.Status), e.Body)
}

type clusterCollection struct {
	Data []clusterResource `json:"data"`
}

type clusterResource struct {
	ID      string            `json:"id"`
	Name    string            `json:"name"`
	Links   map[string]string `json:"links"`
	Actions map[string]string `json:"actions"`
}

type generateKubeconfigResponse struct {
	BaseType string `json:"baseType"`
	Config   string `json:"config"`
	Type     string `json:"type"`
}

// Directory talks to the Rancher management API
type Directory struct {
	baseURL    string
	httpClient *http.Client
	log        zerolog.Logger
}

// NewDirectory creates a Rancher directory for baseURL.
// timeout bounds every HTTP request; zero means no limit.
func NewDirectory(baseURL string, timeout time.Duration, log zerolog.Logger) *Directory {
	client := cleanhttp.DefaultClient()
	client.Timeout = timeout

	return &Directory{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		httpClient: client,
		log:        log.With().Str("component", "rancher").Logger(),
	}
}

// ServerURL turns a cluster self link into the URL of its Kubernetes API
func ServerURL(self string) string {
	return strings.Replace(self, managementSegment, dataPlaneSegment, 1)
}

// ListClusters returns every cluster Rancher knows about.
//
// Any failure is logged and yields an empty list. Nothing destructive follows
// from an empty list, so callers simply report that there is nothing to sync.
// Clusters missing a self link, a generateKubeconfig action or a splittable
// name are skipped one by one.
func (d *Directory) ListClusters(ctx context.Context, token string) []kubesync.Cluster {
	body, err := d.do(ctx, http.MethodGet, d.baseURL+clustersPath, token)
	if err != nil {
		d.log.Warn().Err(err).Msg("failed to list Rancher clusters")
		return nil
	}

	var collection clusterCollection
	if err := json.Unmarshal(body, &collection); err != nil {
		d.log.Warn().Err(err).Msg("failed to decode Rancher cluster list")
		return nil
	}

	clusters := make([]kubesync.Cluster, 0, len(collection.Data))
	for _, rc := range collection.Data {
		c, err := toCluster(rc)
		if err != nil {
			d.log.Warn().Err(err).Str("cluster", rc.ID).Msg("skipping Rancher cluster")
			continue
		}
		clusters = append(clusters, c)
	}

	d.log.Debug().Int("clusters", len(clusters)).Msg("listed Rancher clusters")
	return clusters
}

func toCluster(rc clusterResource) (kubesync.Cluster, error) {
	self, ok := rc.Links[selfLink]
	if !ok {
		return kubesync.Cluster{}, errors.Errorf("cluster %q has no %s link", rc.Name, selfLink)
	}
	credentialURL, ok := rc.Actions[generateKubeconfigAction]
	if !ok {
		return kubesync.Cluster{}, errors.Errorf("cluster %q has no %s action", rc.Name, generateKubeconfigAction)
	}

	base, suffix, err := kubesync.SplitName(rc.Name)
	if err != nil {
		return kubesync.Cluster{}, err
	}

	return kubesync.Cluster{
		ID:            rc.ID,
		BaseName:      base,
		Suffix:        suffix,
		Server:        ServerURL(self),
		CredentialURL: credentialURL,
	}, nil
}

// GenerateKubeconfig asks Rancher to mint a kubeconfig for one cluster.
// The response wraps the kubeconfig YAML in a JSON envelope.
func (d *Directory) GenerateKubeconfig(ctx context.Context, credentialURL, token string) (*kubeconfig.Config, error) {
	body, err := d.do(ctx, http.MethodPost, credentialURL, token)
	if err != nil {
		return nil, err
	}

	var envelope generateKubeconfigResponse
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, errors.Wrapf(ErrDecode, "%v", err)
	}

	cfg, err := kubeconfig.Parse([]byte(envelope.Config))
	if err != nil {
		return nil, errors.Wrapf(ErrDecode, "%v", err)
	}
	return cfg, nil
}

// do sends an authenticated request and returns the body of a 2xx response
func (d *Directory) do(ctx context.Context, method, url, token string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, method, url, nil)
	if err != nil {
		return nil, errors.Wrapf(err, "invalid request to %s", url)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Accept", "application/json")

	resp, err := d.httpClient.Do(req)
	if err != nil {
		return nil, errors.Wrapf(err, "%s %s", method, url)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read response from %s", url)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &HTTPError{Status: resp.StatusCode, Body: string(body)}
	}
	return body, nil
}

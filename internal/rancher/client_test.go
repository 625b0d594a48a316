package rancher

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testToken = "token-abc:secret"

const mintedKubeconfig = `apiVersion: v1
kind: Config
current-context: dg-foo002
clusters:
- name: dg-foo002
  cluster:
    server: https://new.example.com/k8s/clusters/c-1
contexts:
- name: dg-foo002
  context:
    cluster: dg-foo002
    user: dg-foo002
users:
- name: dg-foo002
  user:
    token: kubeconfig-user-1:minted
`

func newTestDirectory(t *testing.T, handler http.HandlerFunc) *Directory {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return NewDirectory(server.URL, 5*time.Second, zerolog.Nop())
}

func TestServerURL(t *testing.T) {
	assert.Equal(t, "https://mgmt/k8s/clusters/r1", ServerURL("https://mgmt/v3/clusters/r1"))
	assert.Equal(t, "https://mgmt/k8s/v3/x", ServerURL("https://mgmt/v3/v3/x"))
	assert.Equal(t, "https://mgmt/clusters/r1", ServerURL("https://mgmt/clusters/r1"))
}

func TestListClusters(t *testing.T) {
	dir := newTestDirectory(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, clustersPath, r.URL.Path)
		assert.Equal(t, "Bearer "+testToken, r.Header.Get("Authorization"))

		_ = json.NewEncoder(w).Encode(clusterCollection{Data: []clusterResource{
			{
				ID:      "c-1",
				Name:    "dg-foo002",
				Links:   map[string]string{"self": "https://mgmt/v3/clusters/c-1"},
				Actions: map[string]string{"generateKubeconfig": "https://mgmt/v3/clusters/c-1?action=generateKubeconfig"},
			},
			{
				ID:      "c-2",
				Name:    "dg-nolink001",
				Actions: map[string]string{"generateKubeconfig": "https://mgmt/v3/x"},
			},
			{
				ID:    "c-3",
				Name:  "dg-noaction001",
				Links: map[string]string{"self": "https://mgmt/v3/clusters/c-3"},
			},
			{
				ID:      "c-4",
				Name:    "ab",
				Links:   map[string]string{"self": "https://mgmt/v3/clusters/c-4"},
				Actions: map[string]string{"generateKubeconfig": "https://mgmt/v3/y"},
			},
		}})
	})

	clusters := dir.ListClusters(context.Background(), testToken)
	require.Len(t, clusters, 1)

	c := clusters[0]
	assert.Equal(t, "c-1", c.ID)
	assert.Equal(t, "dg-foo", c.BaseName)
	assert.Equal(t, "002", c.Suffix)
	assert.Equal(t, "https://mgmt/k8s/clusters/c-1", c.Server)
	assert.Equal(t, "https://mgmt/v3/clusters/c-1?action=generateKubeconfig", c.CredentialURL)
}

func TestListClustersFailuresYieldEmptyList(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
	}{
		{
			name: "unauthorized",
			handler: func(w http.ResponseWriter, r *http.Request) {
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
			},
		},
		{
			name: "garbage body",
			handler: func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte("<html>"))
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := newTestDirectory(t, tt.handler)
			assert.Empty(t, dir.ListClusters(context.Background(), testToken))
		})
	}
}

func TestListClustersUnreachable(t *testing.T) {
	dir := NewDirectory("http://127.0.0.1:1", time.Second, zerolog.Nop())
	assert.Empty(t, dir.ListClusters(context.Background(), testToken))
}

func TestGenerateKubeconfig(t *testing.T) {
	dir := newTestDirectory(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "Bearer "+testToken, r.Header.Get("Authorization"))
		assert.Equal(t, "generateKubeconfig", r.URL.Query().Get("action"))

		_ = json.NewEncoder(w).Encode(generateKubeconfigResponse{
			BaseType: "generateKubeConfigOutput",
			Config:   mintedKubeconfig,
			Type:     "generateKubeConfigOutput",
		})
	})

	cfg, err := dir.GenerateKubeconfig(context.Background(), dir.baseURL+"/v3/clusters/c-1?action=generateKubeconfig", testToken)
	require.NoError(t, err)
	require.Len(t, cfg.Clusters, 1)
	assert.Equal(t, "https://new.example.com/k8s/clusters/c-1", cfg.Clusters[0].Cluster.Server)
	require.Len(t, cfg.Users, 1)
	assert.Equal(t, "kubeconfig-user-1:minted", cfg.Users[0].User.Token)
}

func TestGenerateKubeconfigErrors(t *testing.T) {
	t.Run("http error keeps status and body", func(t *testing.T) {
		dir := newTestDirectory(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusForbidden)
			_, _ = w.Write([]byte(`{"message":"forbidden"}`))
		})

		_, err := dir.GenerateKubeconfig(context.Background(), dir.baseURL+"/v3/x", testToken)
		require.Error(t, err)

		var httpErr *HTTPError
		require.True(t, errors.As(err, &httpErr))
		assert.Equal(t, http.StatusForbidden, httpErr.Status)
		assert.Equal(t, `{"message":"forbidden"}`, httpErr.Body)
	})

	t.Run("malformed envelope", func(t *testing.T) {
		dir := newTestDirectory(t, func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`not json`))
		})

		_, err := dir.GenerateKubeconfig(context.Background(), dir.baseURL+"/v3/x", testToken)
		assert.True(t, errors.Is(err, ErrDecode))
	})

	t.Run("malformed inner kubeconfig", func(t *testing.T) {
		dir := newTestDirectory(t, func(w http.ResponseWriter, r *http.Request) {
			_ = json.NewEncoder(w).Encode(generateKubeconfigResponse{Config: "clusters: {"})
		})

		_, err := dir.GenerateKubeconfig(context.Background(), dir.baseURL+"/v3/x", testToken)
		assert.True(t, errors.Is(err, ErrDecode))
	})
}

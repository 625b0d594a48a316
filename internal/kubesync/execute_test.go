package kubesync

import (
	"context"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/celikgo/og-cli/internal/kubeconfig"
)

// fakeFetcher mints a kubeconfig per credential URL and records the calls
type fakeFetcher struct {
	bundles map[string]*kubeconfig.Config
	errs    map[string]error
	calls   []string
	tokens  []string
}

func newFakeFetcher() *fakeFetcher {
	return &fakeFetcher{
		bundles: map[string]*kubeconfig.Config{},
		errs:    map[string]error{},
	}
}

func (f *fakeFetcher) mint(c Cluster, server, token string) {
	bundle := kubeconfig.Empty()
	bundle.AddEntry(c.FullName(), server, token)
	f.bundles[c.CredentialURL] = bundle
}

func (f *fakeFetcher) GenerateKubeconfig(_ context.Context, url, token string) (*kubeconfig.Config, error) {
	f.calls = append(f.calls, url)
	f.tokens = append(f.tokens, token)
	if err, ok := f.errs[url]; ok {
		return nil, err
	}
	bundle, ok := f.bundles[url]
	if !ok {
		return nil, errors.Errorf("no bundle for %s", url)
	}
	return bundle, nil
}

func TestExecuteCreate(t *testing.T) {
	rc := remote("c-1", "dg-new001", "https://mgmt/k8s/clusters/c-1")
	fetcher := newFakeFetcher()
	fetcher.mint(rc, "https://minted/k8s/clusters/c-1", "tok-new")

	cfg := kubeconfig.Empty()
	out, err := Execute(context.Background(), []Action{{Kind: Create, Remote: &rc}}, cfg, "rancher-token", fetcher)
	require.NoError(t, err)

	assert.Empty(t, cfg.Clusters, "input must stay untouched")
	require.Len(t, out.Clusters, 1)
	assert.Equal(t, "dg-new001", out.Clusters[0].Name)
	assert.Equal(t, "https://minted/k8s/clusters/c-1", out.Clusters[0].Cluster.Server)
	require.Len(t, out.Contexts, 1)
	assert.Equal(t, kubeconfig.Context{Cluster: "dg-new001", User: "dg-new001"}, out.Contexts[0].Context)
	require.Len(t, out.Users, 1)
	assert.Equal(t, "tok-new", out.Users[0].User.Token)
	assert.Equal(t, []string{"rancher-token"}, fetcher.tokens)
	assert.NoError(t, out.Validate())
}

func TestExecuteUpdateRenamesInPlace(t *testing.T) {
	cfg := kubeconfig.Empty()
	cfg.AddEntry("minikube", "https://mini", "m")
	cfg.AddEntry("dg-foo001", "https://old", "old-token")
	cfg.CurrentContext = "dg-foo001"

	lc := local("dg-foo001", "https://old")
	rc := remote("r1", "dg-foo002", "https://mgmt/k8s/clusters/r1")
	fetcher := newFakeFetcher()
	fetcher.mint(rc, "https://new", "tok")

	out, err := Execute(context.Background(), []Action{{Kind: Update, Local: &lc, Remote: &rc}}, cfg, "t", fetcher)
	require.NoError(t, err)

	require.Len(t, out.Clusters, 2)
	assert.Equal(t, "dg-foo002", out.Clusters[1].Name)
	assert.Equal(t, "https://new", out.Clusters[1].Cluster.Server)
	assert.Equal(t, "dg-foo002", out.Users[1].Name)
	assert.Equal(t, "tok", out.Users[1].User.Token)
	assert.Equal(t, "dg-foo002", out.Contexts[1].Name)
	assert.Equal(t, "dg-foo002", out.CurrentContext)
	assert.Equal(t, "minikube", out.Clusters[0].Name)
	assert.NoError(t, out.Validate())

	// The planner converges once the update is applied
	next := Plan(LocalClusters(out, nopLog), []Cluster{remote("r1", "dg-foo002", "https://new")}, DefaultManagedPrefix)
	assert.Empty(t, next)
}

func TestExecuteUpdateSupersedesExistingRevision(t *testing.T) {
	cfg := kubeconfig.Empty()
	cfg.AddEntry("dg-foo001", "https://old", "a")
	cfg.AddEntry("dg-foo002", "https://stale", "b")

	lc := local("dg-foo001", "https://old")
	rc := remote("r1", "dg-foo002", "https://fresh")
	fetcher := newFakeFetcher()
	fetcher.mint(rc, "https://fresh", "c")

	out, err := Execute(context.Background(), []Action{{Kind: Update, Local: &lc, Remote: &rc}}, cfg, "t", fetcher)
	require.NoError(t, err)

	require.Len(t, out.Clusters, 1)
	assert.Equal(t, "dg-foo002", out.Clusters[0].Name)
	assert.Equal(t, "https://fresh", out.Clusters[0].Cluster.Server)
	assert.Equal(t, "c", out.Users[0].User.Token)
	assert.NoError(t, out.Validate())
}

func TestExecuteDelete(t *testing.T) {
	cfg := kubeconfig.Empty()
	cfg.AddEntry("dg-gone001", "https://g", "g")
	cfg.AddEntry("minikube", "https://m", "m")

	lc := local("dg-gone001", "https://g")
	out, err := Execute(context.Background(), []Action{{Kind: Delete, Local: &lc}}, cfg, "t", newFakeFetcher())
	require.NoError(t, err)

	require.Len(t, out.Clusters, 1)
	assert.Equal(t, "minikube", out.Clusters[0].Name)
	assert.Len(t, out.Contexts, 1)
	assert.Len(t, out.Users, 1)
}

func TestExecuteAppliesInSelectedOrder(t *testing.T) {
	a := remote("r-a", "dg-a001", "https://a")
	b := remote("r-b", "dg-b001", "https://b")
	fetcher := newFakeFetcher()
	fetcher.mint(a, "https://a", "ta")
	fetcher.mint(b, "https://b", "tb")

	selected := []Action{{Kind: Create, Remote: &b}, {Kind: Create, Remote: &a}}
	out, err := Execute(context.Background(), selected, kubeconfig.Empty(), "t", fetcher)
	require.NoError(t, err)

	assert.Equal(t, []string{b.CredentialURL, a.CredentialURL}, fetcher.calls)
	assert.Equal(t, "dg-b001", out.Clusters[0].Name)
	assert.Equal(t, "dg-a001", out.Clusters[1].Name)
}

func TestExecuteAbortsOnCredentialFailure(t *testing.T) {
	ok := remote("r-ok", "dg-ok001", "https://ok")
	bad := remote("r-bad", "dg-bad001", "https://bad")
	never := remote("r-never", "dg-never001", "https://never")

	fetcher := newFakeFetcher()
	fetcher.mint(ok, "https://ok", "t1")
	fetcher.mint(never, "https://never", "t3")
	fetcher.errs[bad.CredentialURL] = errors.New("http 403")

	cfg := kubeconfig.Empty()
	selected := []Action{
		{Kind: Create, Remote: &ok},
		{Kind: Create, Remote: &bad},
		{Kind: Create, Remote: &never},
	}

	out, err := Execute(context.Background(), selected, cfg, "t", fetcher)
	require.Error(t, err)
	assert.Nil(t, out)

	var actionErr *ActionError
	require.True(t, errors.As(err, &actionErr))
	assert.Equal(t, "dg-bad001", actionErr.Action.Remote.FullName())
	assert.Contains(t, err.Error(), "[Create] NEW -> dg-bad001")
	assert.Contains(t, err.Error(), "http 403")

	assert.Empty(t, cfg.Clusters)
	assert.Equal(t, []string{ok.CredentialURL, bad.CredentialURL}, fetcher.calls)
}

func TestExecuteRejectsIncompleteBundle(t *testing.T) {
	rc := remote("r1", "dg-foo001", "https://a")
	fetcher := newFakeFetcher()
	bundle := kubeconfig.Empty()
	bundle.Clusters = append(bundle.Clusters, kubeconfig.NamedCluster{Name: "x", Cluster: kubeconfig.Cluster{Server: "https://a"}})
	fetcher.bundles[rc.CredentialURL] = bundle

	_, err := Execute(context.Background(), []Action{{Kind: Create, Remote: &rc}}, kubeconfig.Empty(), "t", fetcher)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no user token")
}

func TestExecuteUpdateMissingLocalEntry(t *testing.T) {
	lc := local("dg-foo001", "https://old")
	rc := remote("r1", "dg-foo002", "https://new")
	fetcher := newFakeFetcher()
	fetcher.mint(rc, "https://new", "tok")

	_, err := Execute(context.Background(), []Action{{Kind: Update, Local: &lc, Remote: &rc}}, kubeconfig.Empty(), "t", fetcher)
	require.Error(t, err)
	assert.Contains(t, err.Error(), `cluster "dg-foo001" not found`)
}

func TestCleanup(t *testing.T) {
	cfg := kubeconfig.Empty()
	cfg.AddEntry("dg-a001", "https://a", "a")
	cfg.AddEntry("dg-b001", "https://b", "b")

	out, changed := Cleanup([]string{"dg-a001"}, cfg)
	assert.True(t, changed)
	require.Len(t, out.Clusters, 1)
	assert.Equal(t, "dg-b001", out.Clusters[0].Name)
	assert.Len(t, cfg.Clusters, 2)

	_, changed = Cleanup(nil, cfg)
	assert.False(t, changed)

	_, changed = Cleanup([]string{"does-not-exist"}, cfg)
	assert.False(t, changed)
}

func TestExecuteSkipsUpdateOfAlreadyRenamedEntry(t *testing.T) {
	cfg := kubeconfig.Empty()
	cfg.AddEntry("dg-foo000", "https://old", "old-token")

	lc := local("dg-foo000", "https://old")
	first := remote("r1", "dg-foo001", "https://mgmt/k8s/clusters/r1")
	second := remote("r2", "dg-foo002", "https://mgmt/k8s/clusters/r2")
	fetcher := newFakeFetcher()
	fetcher.mint(first, "https://one", "tok-1")
	fetcher.mint(second, "https://two", "tok-2")

	out, err := Execute(context.Background(), []Action{
		{Kind: Update, Local: &lc, Remote: &first},
		{Kind: Update, Local: &lc, Remote: &second},
	}, cfg, "t", fetcher)
	require.NoError(t, err)

	require.Len(t, out.Clusters, 1)
	assert.Equal(t, "dg-foo001", out.Clusters[0].Name)
	assert.Equal(t, "https://one", out.Clusters[0].Cluster.Server)
	assert.Equal(t, "tok-1", out.Users[0].User.Token)
	assert.Equal(t, []string{first.CredentialURL}, fetcher.calls)
	assert.NoError(t, out.Validate())
}

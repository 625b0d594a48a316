package kubeconfig

// Config is the part of a kubeconfig file that og-cli reads and writes.
// Field tags follow the hyphenated kubeconfig naming; sigs.k8s.io/yaml maps
// them through the json tags, so the in-memory names stay Go-style.
// Keys og-cli does not model, such as extensions, are kept aside and
// written back unchanged.
type Config struct {
	APIVersion     string         `json:"apiVersion"`
	Clusters       []NamedCluster `json:"clusters"`
	Contexts       []NamedContext `json:"contexts"`
	CurrentContext string         `json:"current-context"`
	Kind           string         `json:"kind"`
	Preferences    interface{}    `json:"preferences,omitempty"`
	Users          []NamedUser    `json:"users"`

	extra extras
}

// NamedCluster binds a cluster definition to its name
type NamedCluster struct {
	Name    string  `json:"name"`
	Cluster Cluster `json:"cluster"`
}

// Cluster holds the API endpoint of a cluster and how to trust it.
// Other keys such as proxy-url or tls-server-name survive a rewrite.
type Cluster struct {
	Server                   string `json:"server"`
	CertificateAuthority     string `json:"certificate-authority,omitempty"`
	CertificateAuthorityData string `json:"certificate-authority-data,omitempty"`
	InsecureSkipTLSVerify    bool   `json:"insecure-skip-tls-verify,omitempty"`

	extra extras
}

// NamedContext binds a context (cluster + user + namespace) to its name
type NamedContext struct {
	Name    string  `json:"name"`
	Context Context `json:"context"`
}

// Context points at a cluster and a user by name
type Context struct {
	Cluster   string `json:"cluster"`
	User      string `json:"user"`
	Namespace string `json:"namespace,omitempty"`

	extra extras
}

// NamedUser binds user credentials to their name
type NamedUser struct {
	Name string `json:"name"`
	User User   `json:"user"`
}

// User carries the credentials used to authenticate against a cluster.
// og-cli only ever writes Token. exec, auth-provider and any other
// credential keys of hand-written entries are kept as they are.
type User struct {
	Token                 string `json:"token,omitempty"`
	ClientCertificate     string `json:"client-certificate,omitempty"`
	ClientCertificateData string `json:"client-certificate-data,omitempty"`
	ClientKey             string `json:"client-key,omitempty"`
	ClientKeyData         string `json:"client-key-data,omitempty"`

	extra extras
}

var (
	configKeys  = knownKeys(Config{})
	clusterKeys = knownKeys(Cluster{})
	contextKeys = knownKeys(Context{})
	userKeys    = knownKeys(User{})
)

func (c *Config) UnmarshalJSON(data []byte) error {
	type plain Config
	var p plain
	extra, err := decodeWithExtras(data, &p, configKeys)
	if err != nil {
		return err
	}
	*c = Config(p)
	c.extra = extra
	return nil
}

func (c Config) MarshalJSON() ([]byte, error) {
	type plain Config
	return encodeWithExtras(plain(c), c.extra)
}

func (c *Cluster) UnmarshalJSON(data []byte) error {
	type plain Cluster
	var p plain
	extra, err := decodeWithExtras(data, &p, clusterKeys)
	if err != nil {
		return err
	}
	*c = Cluster(p)
	c.extra = extra
	return nil
}

func (c Cluster) MarshalJSON() ([]byte, error) {
	type plain Cluster
	return encodeWithExtras(plain(c), c.extra)
}

func (c *Context) UnmarshalJSON(data []byte) error {
	type plain Context
	var p plain
	extra, err := decodeWithExtras(data, &p, contextKeys)
	if err != nil {
		return err
	}
	*c = Context(p)
	c.extra = extra
	return nil
}

func (c Context) MarshalJSON() ([]byte, error) {
	type plain Context
	return encodeWithExtras(plain(c), c.extra)
}

func (u *User) UnmarshalJSON(data []byte) error {
	type plain User
	var p plain
	extra, err := decodeWithExtras(data, &p, userKeys)
	if err != nil {
		return err
	}
	*u = User(p)
	u.extra = extra
	return nil
}

func (u User) MarshalJSON() ([]byte, error) {
	type plain User
	return encodeWithExtras(plain(u), u.extra)
}

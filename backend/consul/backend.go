package consul

import (
	"strings"

	"github.com/hashicorp/consul/api"
	"github.com/mwantia/objectstore"
	"github.com/mwantia/objectstore/log"
)

const (
	// Scheme is the URI scheme handled by this backend.
	Scheme = "consul"
	// Prefix is the route prefix this backend is registered under.
	Prefix = Scheme + "://"
)

// ConsulBackend stores objects in the HashiCorp Consul KV store.
// Paths have the form "consul://key/path"; the key is stored below the
// configured root prefix.
//
// Limitations:
// - Consul KV has a 512KB limit per value
// - Best suited for configuration files, small assets, and metadata storage
type ConsulBackend struct {
	kv     *api.KV
	log    *log.Logger
	config *ConsulBackendConfig
}

var _ objectstore.ObjectStore = (*ConsulBackend)(nil)

// ConsulBackendConfig contains configuration options for the Consul backend
type ConsulBackendConfig struct {
	// Address of the Consul server (default: "127.0.0.1:8500")
	Address string `yaml:"address"`

	// Token for Consul ACL authentication (optional)
	Token string `yaml:"token"`

	// Datacenter to use (optional)
	Datacenter string `yaml:"datacenter"`

	// Namespace for Consul Enterprise (optional)
	Namespace string `yaml:"namespace"`

	// Root key all objects are stored below (optional)
	Root string `yaml:"root"`
}

type Option func(*ConsulBackend)

func WithLogger(logger *log.Logger) Option {
	return func(cb *ConsulBackend) {
		if logger != nil {
			cb.log = logger.Named("consul")
		}
	}
}

// NewConsulBackend creates a new Consul-backed object store
func NewConsulBackend(config *ConsulBackendConfig, opts ...Option) (*ConsulBackend, error) {
	if config == nil {
		config = &ConsulBackendConfig{}
	}

	if config.Address == "" {
		config.Address = "127.0.0.1:8500"
	}

	clientConfig := api.DefaultConfig()
	clientConfig.Address = config.Address
	if config.Token != "" {
		clientConfig.Token = config.Token
	}
	if config.Datacenter != "" {
		clientConfig.Datacenter = config.Datacenter
	}
	if config.Namespace != "" {
		clientConfig.Namespace = config.Namespace
	}

	client, err := api.NewClient(clientConfig)
	if err != nil {
		return nil, err
	}

	cb := &ConsulBackend{
		kv:     client.KV(),
		log:    log.Discard(),
		config: config,
	}

	for _, opt := range opts {
		opt(cb)
	}

	return cb, nil
}

// Returns the identifier name defined for this backend
func (*ConsulBackend) Name() string {
	return "consul"
}

func (cb *ConsulBackend) PathJoin(p string, paths ...string) string {
	return objectstore.JoinPath("/", p, paths...)
}

// buildKey translates a path into the Consul KV key it is stored under.
func (cb *ConsulBackend) buildKey(path string) (string, error) {
	key, ok := strings.CutPrefix(path, Prefix)
	if !ok {
		return "", objectstore.InvalidPath(nil, path)
	}

	key = strings.TrimLeft(key, "/")
	root := strings.Trim(cb.config.Root, "/")
	if root == "" {
		return key, nil
	}

	return root + "/" + key, nil
}

// buildPath is the inverse of buildKey.
func (cb *ConsulBackend) buildPath(key string) string {
	root := strings.Trim(cb.config.Root, "/")
	if root != "" {
		key = strings.TrimPrefix(key, root+"/")
	}

	return Prefix + key
}

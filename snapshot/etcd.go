package snapshot

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"os"
	"strings"
	"time"

	clientv3 "go.etcd.io/etcd/client/v3"
)

// EtcdTLSConfig holds the certificate files for a TLS-secured etcd
// connection. All three files are required when TLS is enabled.
type EtcdTLSConfig struct {
	Enabled  bool
	CertFile string
	KeyFile  string
	CAFile   string
}

// EtcdConfig configures the etcd snapshot store.
type EtcdConfig struct {
	// Endpoints is the list of etcd cluster endpoints.
	Endpoints []string

	// Namespace prefixes all snapshot keys. Default: "structid".
	Namespace string

	// DialTimeout is the maximum time to wait for connection establishment.
	// Default: 5s.
	DialTimeout time.Duration

	// TLS enables certificate-based transport security.
	TLS *EtcdTLSConfig
}

// EtcdStore persists snapshots under a namespace in an etcd cluster.
//
// Thread-safety: all methods are safe for concurrent use.
type EtcdStore struct {
	client    *clientv3.Client
	namespace string
}

// NewEtcdStore creates an etcd snapshot store from the provided
// configuration and verifies connectivity.
func NewEtcdStore(cfg EtcdConfig) (*EtcdStore, error) {
	if len(cfg.Endpoints) == 0 {
		return nil, fmt.Errorf("etcd endpoints cannot be empty")
	}

	namespace := cfg.Namespace
	if namespace == "" {
		namespace = "structid"
	}
	dialTimeout := cfg.DialTimeout
	if dialTimeout <= 0 {
		dialTimeout = 5 * time.Second
	}

	clientCfg := clientv3.Config{
		Endpoints:   cfg.Endpoints,
		DialTimeout: dialTimeout,
	}

	if cfg.TLS != nil && cfg.TLS.Enabled {
		tlsConfig, err := newTLSConfig(cfg.TLS)
		if err != nil {
			return nil, fmt.Errorf("failed to configure TLS: %w", err)
		}
		clientCfg.TLS = tlsConfig
	}

	cli, err := clientv3.New(clientCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create etcd client: %w", err)
	}

	// Verify connectivity with a quick health check
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	if _, err := cli.Get(ctx, "health-check"); err != nil && err != context.DeadlineExceeded {
		cli.Close()
		return nil, fmt.Errorf("etcd health check failed: %w", err)
	}

	return &EtcdStore{client: cli, namespace: namespace}, nil
}

// newTLSConfig loads the certificate pair and CA bundle from disk.
func newTLSConfig(cfg *EtcdTLSConfig) (*tls.Config, error) {
	if cfg.CertFile == "" {
		return nil, fmt.Errorf("TLS cert file is required when TLS is enabled")
	}
	if cfg.KeyFile == "" {
		return nil, fmt.Errorf("TLS key file is required when TLS is enabled")
	}
	if cfg.CAFile == "" {
		return nil, fmt.Errorf("TLS CA file is required when TLS is enabled")
	}

	cert, err := tls.LoadX509KeyPair(cfg.CertFile, cfg.KeyFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load key pair: %w", err)
	}

	caData, err := os.ReadFile(cfg.CAFile)
	if err != nil {
		return nil, fmt.Errorf("failed to read CA file: %w", err)
	}
	pool := x509.NewCertPool()
	if !pool.AppendCertsFromPEM(caData) {
		return nil, fmt.Errorf("failed to parse CA certificate from %s", cfg.CAFile)
	}

	return &tls.Config{
		Certificates: []tls.Certificate{cert},
		RootCAs:      pool,
		MinVersion:   tls.VersionTLS12,
	}, nil
}

func (s *EtcdStore) key(name string) string {
	return "/" + s.namespace + "/snapshots/" + name
}

// Save writes the encoded state under the snapshot's key.
func (s *EtcdStore) Save(ctx context.Context, name string, st State) error {
	if err := validName(name); err != nil {
		return err
	}
	if err := st.Validate(); err != nil {
		return fmt.Errorf("refusing to save invalid state: %w", err)
	}

	data, err := Encode(st)
	if err != nil {
		return err
	}
	if _, err := s.client.Put(ctx, s.key(name), string(data)); err != nil {
		return fmt.Errorf("failed to save snapshot %s: %w", name, err)
	}
	return nil
}

// Load reads and decodes the snapshot stored under name.
func (s *EtcdStore) Load(ctx context.Context, name string) (State, error) {
	if err := validName(name); err != nil {
		return State{}, err
	}

	resp, err := s.client.Get(ctx, s.key(name))
	if err != nil {
		return State{}, fmt.Errorf("failed to load snapshot %s: %w", name, err)
	}
	if len(resp.Kvs) == 0 {
		return State{}, ErrNotFound
	}
	return Decode(resp.Kvs[0].Value)
}

// Delete removes the snapshot stored under name.
func (s *EtcdStore) Delete(ctx context.Context, name string) error {
	if err := validName(name); err != nil {
		return err
	}

	resp, err := s.client.Delete(ctx, s.key(name))
	if err != nil {
		return fmt.Errorf("failed to delete snapshot %s: %w", name, err)
	}
	if resp.Deleted == 0 {
		return ErrNotFound
	}
	return nil
}

// List returns the names of all snapshots under the store's namespace.
func (s *EtcdStore) List(ctx context.Context) ([]string, error) {
	prefix := "/" + s.namespace + "/snapshots/"
	resp, err := s.client.Get(ctx, prefix, clientv3.WithPrefix(), clientv3.WithKeysOnly())
	if err != nil {
		return nil, fmt.Errorf("failed to list snapshots: %w", err)
	}

	names := make([]string, 0, len(resp.Kvs))
	for _, kv := range resp.Kvs {
		names = append(names, strings.TrimPrefix(string(kv.Key), prefix))
	}
	return names, nil
}

// Close closes the etcd connection.
func (s *EtcdStore) Close() error {
	return s.client.Close()
}

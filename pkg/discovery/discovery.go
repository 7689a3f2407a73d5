package discovery

import (
	"context"
	"fmt"
	"net"
	"strconv"

	"github.com/example/eshop/pkg/config"
	clientv3 "go.etcd.io/etcd/client/v3"
	"go.uber.org/zap"
)

// Registry announces API instances in etcd under a leased key so that
// crashed instances disappear once the lease expires.
type Registry struct {
	client *clientv3.Client
	config *config.EtcdConfig
	logger *zap.Logger
	lease  clientv3.LeaseID
}

type Instance struct {
	Name string
	Host string
	Port int
}

func (i *Instance) Addr() string {
	return net.JoinHostPort(i.Host, strconv.Itoa(i.Port))
}

func NewRegistry(cfg *config.EtcdConfig, logger *zap.Logger) (*Registry, error) {
	cli, err := clientv3.New(clientv3.Config{
		Endpoints:   cfg.Endpoints,
		DialTimeout: cfg.DialTimeout,
		Logger:      logger.Named("etcd"),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to etcd: %w", err)
	}

	return &Registry{
		client: cli,
		config: cfg,
		logger: logger,
	}, nil
}

func (r *Registry) key(instance *Instance) string {
	return instanceKey(r.config.Prefix, instance)
}

func instanceKey(prefix string, instance *Instance) string {
	return fmt.Sprintf("%s%s/%s", prefix, instance.Name, instance.Addr())
}

// Register puts the instance under a lease and keeps the lease alive until
// ctx is cancelled.
func (r *Registry) Register(ctx context.Context, instance *Instance) error {
	ttl := r.config.LeaseTTL
	if ttl <= 0 {
		ttl = 30
	}
	lease, err := r.client.Grant(ctx, ttl)
	if err != nil {
		return fmt.Errorf("failed to create lease: %w", err)
	}

	if _, err := r.client.Put(ctx, r.key(instance), instance.Addr(), clientv3.WithLease(lease.ID)); err != nil {
		return fmt.Errorf("failed to register service: %w", err)
	}

	ch, err := r.client.KeepAlive(ctx, lease.ID)
	if err != nil {
		return fmt.Errorf("failed to keep alive: %w", err)
	}
	r.lease = lease.ID

	go func() {
		for range ch {
		}
		r.logger.Info("Service lease keep-alive stopped", zap.String("key", r.key(instance)))
	}()

	return nil
}

func (r *Registry) Discover(ctx context.Context, name string) ([]*Instance, error) {
	resp, err := r.client.Get(ctx, fmt.Sprintf("%s%s/", r.config.Prefix, name), clientv3.WithPrefix())
	if err != nil {
		return nil, fmt.Errorf("failed to discover service: %w", err)
	}

	instances := make([]*Instance, 0, len(resp.Kvs))
	for _, kv := range resp.Kvs {
		instance, err := parseInstance(name, string(kv.Value))
		if err != nil {
			r.logger.Warn("Skipping malformed service entry", zap.ByteString("key", kv.Key), zap.Error(err))
			continue
		}
		instances = append(instances, instance)
	}
	return instances, nil
}

func parseInstance(name, addr string) (*Instance, error) {
	host, port, err := net.SplitHostPort(addr)
	if err != nil {
		return nil, err
	}
	p, err := strconv.Atoi(port)
	if err != nil {
		return nil, fmt.Errorf("invalid port %q", port)
	}
	return &Instance{Name: name, Host: host, Port: p}, nil
}

// Deregister removes the instance key and revokes its lease.
func (r *Registry) Deregister(ctx context.Context, instance *Instance) error {
	if _, err := r.client.Delete(ctx, r.key(instance)); err != nil {
		return fmt.Errorf("failed to deregister service: %w", err)
	}
	if r.lease != 0 {
		if _, err := r.client.Revoke(ctx, r.lease); err != nil {
			return fmt.Errorf("failed to revoke lease: %w", err)
		}
	}
	return nil
}

func (r *Registry) Close() error {
	return r.client.Close()
}

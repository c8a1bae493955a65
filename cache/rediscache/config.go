package rediscache

import "time"

// Config defines the connection and namespace options for the Redis cache.
type Config struct {

	// Addrs is the list of Redis server addresses in the format "host:port,host2:port2".
	Addrs string `yaml:"addrs" validate:"required"`

	// Username is the username for the Redis server/cluster.
	Username string `yaml:"username"`

	// Password is the password for the Redis server/cluster.
	Password string `yaml:"password" mask:"true"`

	// IsClusterMode indicates whether the Redis server is a Redis cluster.
	IsClusterMode bool `yaml:"is_cluster_mode"`

	// Prefix namespaces every key written by this cache. Clear removes
	// exactly the keys under it.
	Prefix string `yaml:"prefix" default:"mediacore"`

	// TTL is the lifetime of cached entries.
	TTL time.Duration `yaml:"ttl" default:"5m"`
}

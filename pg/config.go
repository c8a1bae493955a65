package pg

import (
	"fmt"
	"net/url"
	"time"
)

// Config holds the connection settings for a PostgreSQL database.
type Config struct {
	Host     string `yaml:"host"     validate:"required"`
	Port     int    `yaml:"port"     validate:"required"`
	User     string `yaml:"user"     validate:"required"`
	Password string `yaml:"password" validate:"required" mask:"true"`
	Database string `yaml:"database" validate:"required"`

	// SSLMode is passed through to libpq-style connection parameters.
	SSLMode string `yaml:"sslmode"     default:"disable" validate:"oneof=disable allow prefer require verify-ca verify-full"`
	// SearchPath is the schema search path for every pooled connection.
	SearchPath string `yaml:"search_path" default:"public"`

	ConnectTimeout time.Duration `yaml:"connect_timeout" default:"10s"`

	// Pool sizing. The defaults suit a small service instance; raise
	// PoolMaxConns together with the server's max_connections budget.
	PoolMaxConns        int32         `yaml:"pool_max_conns"          default:"4"`
	PoolMinConns        int32         `yaml:"pool_min_conns"          default:"1"`
	PoolMaxConnLifetime time.Duration `yaml:"pool_max_conn_lifetime"  default:"1h"`
	PoolMaxConnIdleTime time.Duration `yaml:"pool_max_conn_idle_time" default:"30m"`

	// Debug turns on SQL statement logging through the debug query hook.
	Debug bool `yaml:"debug" default:"false"`
}

// dsn renders the config as a postgres connection URL.
func (c Config) dsn() string {
	q := url.Values{}
	q.Set("sslmode", c.SSLMode)
	q.Set("search_path", c.SearchPath)
	q.Set("connect_timeout", fmt.Sprintf("%d", int(c.ConnectTimeout.Seconds())))

	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(c.User, c.Password),
		Host:     fmt.Sprintf("%s:%d", c.Host, c.Port),
		Path:     "/" + c.Database,
		RawQuery: q.Encode(),
	}
	return u.String()
}

// Package config handles configuration for the server component,
// including defaults, a JSON or YAML file overlay, and command-line flags.
package config

import (
	"time"

	"github.com/dmitrijs2005/handover/internal/common"
)

// Config holds runtime settings for the handover server.
//
// Fields:
//   - EndpointAddrGRPC: bind address for the gRPC endpoint.
//   - RedisURL: redis:// URL; when set it takes precedence over RedisAddr/RedisDB.
//   - RedisAddr / RedisDB: host:port and logical database of the store.
//   - SecretKey: HMAC secret for signing user tokens. Do not use the default in prod.
//   - RecordTTL: expiry applied to every record and index on each write.
//   - TokenValidityDuration: lifetime of a user token.
//   - SweepSchedule: cron spec of the dangling-index sweep; empty disables it.
//   - LogFormat: "json", "text" or "zap".
//   - DefaultTasks: checklist created with every new patient.
type Config struct {
	EndpointAddrGRPC      string
	RedisURL              string
	RedisAddr             string
	RedisDB               int
	SecretKey             string
	RecordTTL             time.Duration
	TokenValidityDuration time.Duration
	SweepSchedule         string
	LogFormat             string
	DefaultTasks          []string
}

// LoadDefaults populates Config with development defaults.
func (c *Config) LoadDefaults() {
	c.EndpointAddrGRPC = ":50051"
	c.RedisURL = ""
	c.RedisAddr = "localhost:6379"
	c.RedisDB = 0
	c.SecretKey = "secretKey"
	c.RecordTTL = common.DefaultRecordTTL
	c.TokenValidityDuration = common.DefaultRecordTTL
	c.SweepSchedule = "@every 10m"
	c.LogFormat = "json"
	c.DefaultTasks = DefaultTaskNames()
}

// DefaultTaskNames returns a fresh copy of the built-in patient checklist.
func DefaultTaskNames() []string {
	return []string{"anamnez", "3tup kan", "dosya girişi"}
}

// LoadConfig builds a Config by applying defaults, then overlaying values
// from an optional config file and finally from command-line flags.
func LoadConfig() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseFile(cfg)
	parseFlags(cfg)
	return cfg
}

package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"github.com/dmitrijs2005/handover/internal/flagx"
	"github.com/dmitrijs2005/handover/internal/timex"
	"gopkg.in/yaml.v3"
)

// FileConfig is the on-disk shape of the configuration. Pointer fields tell
// "absent" apart from zero values so a partial file only overrides what it
// names.
type FileConfig struct {
	EndpointAddrGRPC      *string         `json:"endpoint_addr_grpc" yaml:"endpoint_addr_grpc"`
	RedisURL              *string         `json:"redis_url" yaml:"redis_url"`
	RedisAddr             *string         `json:"redis_addr" yaml:"redis_addr"`
	RedisDB               *int            `json:"redis_db" yaml:"redis_db"`
	SecretKey             *string         `json:"secret_key" yaml:"secret_key"`
	RecordTTL             *timex.Duration `json:"record_ttl" yaml:"record_ttl"`
	TokenValidityDuration *timex.Duration `json:"token_validity_duration" yaml:"token_validity_duration"`
	SweepSchedule         *string         `json:"sweep_schedule" yaml:"sweep_schedule"`
	LogFormat             *string         `json:"log_format" yaml:"log_format"`
	DefaultTasks          []string        `json:"default_tasks" yaml:"default_tasks"`
}

// parseFile overlays values from the file named by -c/-config onto config.
// Files ending in .yaml or .yml are decoded as YAML, anything else as JSON.
// An unreadable or malformed file panics: the server must not start with a
// half-applied configuration.
func parseFile(config *Config) {
	path := flagx.ConfigFileFlag()
	if path == "" {
		return
	}

	data, err := os.ReadFile(path)
	if err != nil {
		panic(err)
	}

	fc := &FileConfig{}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, fc)
	default:
		err = json.Unmarshal(data, fc)
	}
	if err != nil {
		panic(err)
	}

	fc.apply(config)
}

func (fc *FileConfig) apply(config *Config) {
	if fc.EndpointAddrGRPC != nil {
		config.EndpointAddrGRPC = *fc.EndpointAddrGRPC
	}
	if fc.RedisURL != nil {
		config.RedisURL = *fc.RedisURL
	}
	if fc.RedisAddr != nil {
		config.RedisAddr = *fc.RedisAddr
	}
	if fc.RedisDB != nil {
		config.RedisDB = *fc.RedisDB
	}
	if fc.SecretKey != nil {
		config.SecretKey = *fc.SecretKey
	}
	if fc.RecordTTL != nil {
		config.RecordTTL = fc.RecordTTL.Duration
	}
	if fc.TokenValidityDuration != nil {
		config.TokenValidityDuration = fc.TokenValidityDuration.Duration
	}
	if fc.SweepSchedule != nil {
		config.SweepSchedule = *fc.SweepSchedule
	}
	if fc.LogFormat != nil {
		config.LogFormat = *fc.LogFormat
	}
	if len(fc.DefaultTasks) > 0 {
		config.DefaultTasks = append([]string(nil), fc.DefaultTasks...)
	}
}

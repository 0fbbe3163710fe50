package config

import (
	"encoding/json"
	"os"

	"github.com/dmitrijs2005/handover/internal/flagx"
	"github.com/dmitrijs2005/handover/internal/timex"
)

// JSONConfig is the on-disk shape of the client configuration.
type JSONConfig struct {
	ServerEndpointAddr  *string         `json:"server_endpoint_addr"`
	OnlineCheckInterval *timex.Duration `json:"online_check_interval"`
}

// parseJSON overlays cfg with values from the JSON file named by -c/-config.
// Read or decode errors panic.
func parseJSON(cfg *Config) {
	path := flagx.ConfigFileFlag()
	if path == "" {
		return
	}

	data, err := os.ReadFile(path)
	if err != nil {
		panic(err)
	}

	var jc JSONConfig
	if err := json.Unmarshal(data, &jc); err != nil {
		panic(err)
	}

	jc.apply(cfg)
}

func (jc *JSONConfig) apply(cfg *Config) {
	if jc.ServerEndpointAddr != nil {
		cfg.ServerEndpointAddr = *jc.ServerEndpointAddr
	}
	if jc.OnlineCheckInterval != nil {
		cfg.OnlineCheckInterval = jc.OnlineCheckInterval.Duration
	}
}

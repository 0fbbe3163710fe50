package config

import (
	"flag"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/dmitrijs2005/handover/internal/flagx"
)

// parseFlags overlays cfg with command-line flags:
//
//	-a string   address:port of the backend server
//	-i value    online check interval, whole seconds ("5") or a duration ("1m")
//
// Unknown flags are left for other parsers. A bad value panics.
func parseFlags(cfg *Config) {
	args := flagx.FilterArgs(os.Args[1:], []string{"-a", "-i"})

	fs := flag.NewFlagSet("client", flag.ContinueOnError)
	fs.StringVar(&cfg.ServerEndpointAddr, "a", cfg.ServerEndpointAddr, "address and port to access server")
	fs.Func("i", "online check interval (seconds or duration)", func(v string) error {
		d, err := parseInterval(v)
		if err != nil {
			return err
		}
		cfg.OnlineCheckInterval = d
		return nil
	})

	if err := fs.Parse(args); err != nil {
		panic(err)
	}
}

func parseInterval(v string) (time.Duration, error) {
	if n, err := strconv.Atoi(v); err == nil {
		return time.Duration(n) * time.Second, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("invalid interval %q", v)
	}
	return d, nil
}

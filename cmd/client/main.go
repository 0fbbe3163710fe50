// Command client is the interactive terminal for the handover service.
package main

import (
	"context"
	"log"

	"github.com/dmitrijs2005/handover/internal/client/cli"
	"github.com/dmitrijs2005/handover/internal/client/config"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	app, err := cli.NewApp(cfg)
	if err != nil {
		log.Fatalf("client: %v", err)
	}
	app.Run(context.Background())
}

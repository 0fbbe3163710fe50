// Command server runs the handover gRPC service backed by Redis.
package main

import (
	"context"
	"log"

	"github.com/dmitrijs2005/handover/internal/server"
	"github.com/dmitrijs2005/handover/internal/server/config"
)

func main() {
	app, err := server.NewApp(config.LoadConfig())
	if err != nil {
		log.Fatalf("server: %v", err)
	}
	app.Run(context.Background())
}

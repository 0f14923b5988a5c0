package main

import (
	"context"
	"log"

	"github.com/sapatil2212/CMS-SYSTEM-sub003/internal/server"
	"github.com/sapatil2212/CMS-SYSTEM-sub003/internal/server/config"
)

func main() {

	ctx := context.Background()
	cfg := config.LoadConfig()
	app, err := server.NewApp(ctx, cfg)

	if err != nil {
		log.Printf("%v", err)
		return
	}

	app.Run(ctx)

}

package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"

	"github.com/spiralapp/journal/internal/cli"
	"github.com/spiralapp/journal/internal/config"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(),
		syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)
	defer stop()

	cfg := config.LoadConfig()

	a, err := cli.NewApp(cfg)
	if err != nil {
		log.Printf("%v", err)
		return
	}

	a.Run(ctx)
}

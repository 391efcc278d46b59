package main

import (
	"flag"
	"os"

	"github.com/muliwe/go-triangle-classifier/internal/config"
	xlog "github.com/muliwe/go-triangle-classifier/internal/log"
	"github.com/muliwe/go-triangle-classifier/internal/server"
)

func main() {
	configPath := flag.String("config", os.Getenv("CONFIG_FILE"), "Path to YAML config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		l := xlog.WithComponent("main")
		l.Fatal().Err(err).Msg("failed to load config")
	}

	xlog.Configure(xlog.Config{Level: cfg.LogLevel})
	l := xlog.WithComponent("main")

	srv, err := server.New(cfg.Server)
	if err != nil {
		l.Fatal().Err(err).Msg("failed to create server")
	}

	if err := srv.Start(); err != nil {
		l.Fatal().Err(err).Msg("server error")
	}
}

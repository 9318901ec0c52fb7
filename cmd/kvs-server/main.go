// Command kvs-server runs the TCP front end for a store directory,
// backed by either the LSKV engine or the bolt-backed alternative.
package main

import (
	"fmt"
	"log"
	"log/slog"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/lskv/lskv/internal/config"
	"github.com/lskv/lskv/internal/engine"
	"github.com/lskv/lskv/internal/engine/altengine"
	"github.com/lskv/lskv/internal/pool"
	"github.com/lskv/lskv/internal/server"
)

// Version is set at build time via -ldflags; defaults to "dev" for a
// plain `go build`.
var Version = "dev"

func main() {
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	})))

	cli.VersionFlag = &cli.BoolFlag{
		Name:    "version",
		Aliases: []string{"V"},
		Usage:   "print the version",
	}

	app := &cli.App{
		Name:    "kvs-server",
		Usage:   "serve a persistent key-value store over TCP",
		Version: Version,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "addr",
				Aliases: []string{"a"},
				Usage:   "IP:PORT to listen on",
			},
			&cli.StringFlag{
				Name:    "engine",
				Aliases: []string{"e"},
				Usage:   "storage engine to use: kvs or bolt",
			},
			&cli.StringFlag{
				Name:  "data-dir",
				Usage: "directory holding the store's files",
			},
		},
		Action: run,
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func run(c *cli.Context) error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("loading configuration: %w", err)
	}

	addr := cfg.ADDR
	if v := c.String("addr"); v != "" {
		addr = v
	}
	engineName := cfg.ENGINE
	if v := c.String("engine"); v != "" {
		engineName = v
	}
	dataDir := cfg.DATA_DIR
	if v := c.String("data-dir"); v != "" {
		dataDir = v
	}

	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return fmt.Errorf("creating data directory: %w", err)
	}
	if err := engine.CheckEngineMarker(dataDir, engineName); err != nil {
		return fmt.Errorf("kvs-server: %w", err)
	}

	var eng engine.Engine

	switch engineName {
	case "kvs", "":
		eng, err = engine.OpenWithThreshold(dataDir, cfg.COMPACT_THRESHOLD)
	case altengine.Name:
		eng, err = altengine.Open(dataDir)
	default:
		return fmt.Errorf("kvs-server: unknown engine %q", engineName)
	}
	if err != nil {
		return fmt.Errorf("opening engine %q at %q: %w", engineName, dataDir, err)
	}
	defer eng.Close()

	poolSize := int(cfg.POOL_SIZE)
	if poolSize <= 0 {
		poolSize = server.DefaultPoolSize
	}
	workers, err := pool.NewSharedQueuePool(poolSize)
	if err != nil {
		return fmt.Errorf("building worker pool: %w", err)
	}
	defer workers.Close()

	srv := server.New(addr, eng, workers)
	slog.Info("kvs-server: starting", "addr", addr, "engine", engineName, "data_dir", dataDir)
	return srv.ListenAndServe()
}

package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fabiov64/Filter-UAS-Zones/internal/config"
	"github.com/fabiov64/Filter-UAS-Zones/internal/geozone"
	"github.com/fabiov64/Filter-UAS-Zones/internal/logger"
	"github.com/fabiov64/Filter-UAS-Zones/internal/server"

	"github.com/jessevdk/go-flags"
	"github.com/rs/zerolog/log"
)

const shutdownTimeout = 5 * time.Second

type Options struct {
	Logger logger.Logger  `group:"Logger options"`
	Engine config.Options `group:"Filter options"`

	Addr string `short:"a" long:"addr" env:"LISTEN_ADDRESS" description:"Address to listen on (default 127.0.0.1)"`
	Port int    `short:"p" long:"port" env:"LISTEN_PORT"    description:"Port to listen on (default 5000)"`

	Args struct {
		File string `positional-arg-name:"FILE" description:"GeoZones JSON file"`
	} `positional-args:"yes" required:"yes"`
}

func main() {
	var opts Options
	parser := flags.NewParser(&opts, flags.Default)
	if _, err := parser.Parse(); err != nil {
		if flagsErr, ok := err.(*flags.Error); ok && flagsErr.Type == flags.ErrHelp {
			os.Exit(0)
		}
		os.Exit(1)
	}

	// Setup Logging
	opts.Logger.Setup()

	cfg, engine, err := opts.Engine.Resolve(config.Override{Addr: opts.Addr, Port: opts.Port})
	if err != nil {
		log.Fatal().Err(err).Msg("Invalid configuration")
	}

	original, err := geozone.Load(opts.Args.File)
	if err != nil {
		log.Fatal().Err(err).Str("path", opts.Args.File).Msg("Failed to load geozones")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	session := server.NewSession(original, engine, cfg.OutputPath())
	srvCtx := server.NewServerContext(session, cfg, stop)

	listenAddr := cfg.ListenAddr()
	srv := &http.Server{
		Addr:              listenAddr,
		Handler:           srvCtx.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	stopped := make(chan struct{})
	go func() {
		defer close(stopped)
		<-ctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("Graceful shutdown failed")
		}
	}()

	log.Info().
		Str("addr", "http://"+listenAddr).
		Int("zones_loaded", len(original.Features)).
		Str("policy", engine.Policy.String()).
		Str("transform", engine.Transform.String()).
		Str("output", cfg.OutputPath()).
		Msg("Web server started")

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatal().Err(err).Msg("Server failed")
	}

	<-stopped
	log.Info().Msg("Server stopped")
}

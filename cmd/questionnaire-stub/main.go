package main

import (
	"bytes"
	"context"
	_ "embed"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/goliatone/go-questionnaire/internal/config"
	"github.com/goliatone/go-questionnaire/pkg/remote"
)

//go:embed seed.yaml
var defaultSeed []byte

func main() {
	envFile := flag.String("env", "", "optional .env file")
	seedPath := flag.String("seed", "", "YAML seed file (defaults to STUB_SEED, then the built-in demo)")
	flag.Parse()

	var files []string
	if *envFile != "" {
		files = append(files, *envFile)
	}
	cfg, err := config.Load(files...)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	logger := cfg.Log.NewLogger(os.Stderr)
	if *seedPath == "" {
		*seedPath = cfg.Stub.SeedPath
	}

	seeds, err := loadSeeds(*seedPath)
	if err != nil {
		logger.Error("load seeds", "path", *seedPath, "error", err)
		os.Exit(1)
	}
	memory := remote.NewMemory(seeds...)

	httpServer := &http.Server{
		Addr: config.Addr(cfg.Stub.Port),
		Handler: remote.NewHandler(memory,
			remote.WithHandlerLogger(logger),
			remote.WithRequiredToken(cfg.Remote.Token),
		),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		logger.Info("stub remote listening", "addr", httpServer.Addr, "forms", len(seeds))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("listen", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown", "error", err)
	}
}

func loadSeeds(path string) ([]remote.Seed, error) {
	var r io.Reader = bytes.NewReader(defaultSeed)
	if path != "" {
		file, err := os.Open(path)
		if err != nil {
			return nil, err
		}
		defer file.Close()
		r = file
	}
	return remote.LoadSeeds(r)
}

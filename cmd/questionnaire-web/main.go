package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/goliatone/go-questionnaire"
	"github.com/goliatone/go-questionnaire/internal/config"
	"github.com/goliatone/go-questionnaire/internal/web"
	"github.com/goliatone/go-questionnaire/pkg/remote"
	"github.com/goliatone/go-questionnaire/pkg/renderers/html"
)

func main() {
	envFile := flag.String("env", "", "optional .env file")
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
	if cfg.Web.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	page, err := html.New(html.WithTemplatesDir(cfg.Web.TemplatesDir))
	if err != nil {
		logger.Error("build html renderer", "error", err)
		os.Exit(1)
	}
	client := questionnaire.NewHTTPRemote(cfg.Remote.URL,
		remote.WithBearerToken(cfg.Remote.Token),
		remote.WithTimeout(cfg.Remote.Timeout),
	)
	server, err := web.New(client,
		web.WithLogger(logger),
		web.WithRenderer(page),
		web.WithDefaultLang(cfg.Remote.Lang),
		web.WithSecureCookies(cfg.Web.Environment == "production"),
	)
	if err != nil {
		logger.Error("build server", "error", err)
		os.Exit(1)
	}

	httpServer := &http.Server{
		Addr:              config.Addr(cfg.Web.Port),
		Handler:           server.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		logger.Info("web front-end listening", "addr", httpServer.Addr, "remote", cfg.Remote.URL)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("listen", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown", "error", err)
	}
}

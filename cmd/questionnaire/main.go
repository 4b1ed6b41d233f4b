package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"

	"github.com/goliatone/go-questionnaire"
	"github.com/goliatone/go-questionnaire/internal/config"
	"github.com/goliatone/go-questionnaire/pkg/remote"
	"github.com/goliatone/go-questionnaire/pkg/renderers/tui"
	"github.com/goliatone/go-questionnaire/pkg/session"
)

func main() {
	envFile := flag.String("env", "", "optional .env file")
	formID := flag.String("form", "", "form ID to answer")
	lang := flag.String("lang", "", "language for labels (defaults to QUESTIONNAIRE_LANG)")
	remoteURL := flag.String("remote", "", "remote service URL (defaults to QUESTIONNAIRE_REMOTE_URL)")
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
	if *formID == "" {
		fmt.Fprintln(os.Stderr, "questionnaire: -form is required")
		flag.Usage()
		os.Exit(2)
	}
	if *lang == "" {
		*lang = cfg.Remote.Lang
	}
	if *remoteURL == "" {
		*remoteURL = cfg.Remote.URL
	}

	logger := cfg.Log.NewLogger(os.Stderr)
	client := questionnaire.NewHTTPRemote(*remoteURL,
		remote.WithBearerToken(cfg.Remote.Token),
		remote.WithTimeout(cfg.Remote.Timeout),
	)
	sess := questionnaire.NewSession(client, *formID, *lang, session.WithLogger(logger))

	runner, err := tui.NewRunner(sess,
		tui.WithLogger(logger),
		tui.WithTheme(tui.Theme{PromptPrefix: "", InfoPrefix: "· ", ErrorPrefix: "✗ "}),
	)
	if err != nil {
		logger.Error("build runner", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := runner.Run(ctx); err != nil {
		if errors.Is(err, tui.ErrAborted) || errors.Is(err, context.Canceled) {
			sess.Close()
			return
		}
		logger.Error("questionnaire failed", "form", *formID, "error", err)
		os.Exit(1)
	}
}

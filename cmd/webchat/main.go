package main

import (
	"context"
	"flag"
	"os"

	"github.com/charmbracelet/log"
	goterm "golang.org/x/term"

	"webchat/internal/config"
	"webchat/internal/session"
	"webchat/internal/term"
)

func main() {
	var (
		configPath string
		startURL   string
	)
	flag.StringVar(&configPath, "config", "", "Path to config JSON (comments allowed)")
	flag.StringVar(&startURL, "url", "", "Website URL to load at startup (skips the URL prompt)")
	flag.Parse()

	logger := log.New(os.Stderr)

	cfg, err := config.Load(configPath)
	if err != nil {
		logger.Error("load config failed", "err", err)
		os.Exit(1)
	}

	input, inputErr := newLineInput()
	if inputErr != nil {
		logger.Warn("readline unavailable, falling back to basic input", "err", inputErr)
	}
	defer input.Close()

	isTTY := goterm.IsTerminal(int(os.Stdout.Fd()))
	theme := term.DefaultTheme()
	if !isTTY {
		theme = term.PlainTheme()
	}

	ctrl := session.New(session.Options{
		Config:     cfg,
		Input:      input,
		Output:     os.Stdout,
		Logger:     logger,
		Theme:      theme,
		Progress:   isTTY,
		InitialURL: startURL,
	})

	ctx := context.Background()
	if err := ctrl.Setup(ctx); err != nil {
		logger.Error("setup failed", "err", err)
		os.Exit(1)
	}
	if err := ctrl.Run(ctx); err != nil {
		logger.Error("chat loop failed", "err", err)
		os.Exit(1)
	}
}

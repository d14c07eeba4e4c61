package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/polzovatel/console-browser/internal/browser"
	"github.com/polzovatel/console-browser/internal/dispatch"
	"github.com/polzovatel/console-browser/internal/render"
	"github.com/polzovatel/console-browser/internal/repl"
	"github.com/polzovatel/console-browser/internal/ui"
)

type cliOptions struct {
	headed      bool
	renderMode  string
	maxChars    int
	userDataDir string
	url         string
	once        string
	saveState   string
}

func main() {
	_ = godotenv.Load()
	opts := parseFlags()

	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	// run owns every resource via defers so a startup failure still closes
	// the engine; only this one exit path is fatal.
	if err := run(opts); err != nil {
		log.Fatal().Err(err).Msg("startup")
	}
}

func run(opts cliOptions) error {
	mode, ok := render.ParseMode(opts.renderMode)
	if !ok {
		return fmt.Errorf("render mode %q must be html or text", opts.renderMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	out := ui.New(os.Stdout)

	launcher, err := browser.NewLauncher(ctx, browser.Options{
		Headless:    !opts.headed,
		UserDataDir: opts.userDataDir,
	}, log.With().Str("comp", "browser").Logger())
	if err != nil {
		return fmt.Errorf("browser init: %w", err)
	}
	defer launcher.Close()

	session, err := launcher.NewSession(ctx, browser.Options{
		ConsoleSink: func(msgType, text string) {
			out.Dim("[page:console] " + msgType + " - " + text)
		},
	})
	if err != nil {
		return fmt.Errorf("browser session: %w", err)
	}
	defer session.Close(ctx)

	renderer := render.New(mode, opts.maxChars)
	disp := dispatch.New(session, renderer, log.With().Str("comp", "dispatch").Logger())
	loop := repl.New(session, disp, renderer, out, os.Stdin, log.With().Str("comp", "repl").Logger())

	if opts.url != "" {
		loop.Preload(ctx, "goto "+opts.url)
	}

	if err := loop.Run(ctx, opts.once); err != nil {
		log.Error().Err(err).Msg("command loop ended with error")
	}

	if opts.saveState != "" {
		if err := session.SaveState(ctx, opts.saveState); err != nil {
			log.Error().Err(err).Msg("save state")
		} else {
			log.Info().Str("path", opts.saveState).Msg("storage saved")
		}
	}
	return nil
}

func parseFlags() cliOptions {
	headed := flag.Bool("headed", false, "Run with browser UI (headless by default)")
	renderMode := flag.String("render", "html", "Render mode: html or text")
	maxChars := flag.Int("max-chars", render.DefaultBudget, "Max characters to print per render")
	userDataDir := flag.String("user-data-dir", "", "Persistent user data directory")
	url := flag.String("url", "", "Initial URL to open")
	once := flag.String("once", "", `Run a single command and exit (e.g. "goto https://example.com")`)
	saveState := flag.String("save-state", "", "Path to save storage state on exit")
	flag.Parse()
	return cliOptions{
		headed:      *headed,
		renderMode:  strings.TrimSpace(*renderMode),
		maxChars:    *maxChars,
		userDataDir: strings.TrimSpace(*userDataDir),
		url:         strings.TrimSpace(*url),
		once:        strings.TrimSpace(*once),
		saveState:   strings.TrimSpace(*saveState),
	}
}

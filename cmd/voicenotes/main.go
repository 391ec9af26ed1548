package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/mwozniak/voicenotes/internal/auth"
	"github.com/mwozniak/voicenotes/internal/bootstrap"
	"github.com/mwozniak/voicenotes/internal/config"
	"github.com/mwozniak/voicenotes/internal/service"
	"github.com/mwozniak/voicenotes/internal/transport/http"
)

// Build-time variables (overridable via -ldflags).
var version = "dev"

// Options holds the CLI flag values.
type Options struct {
	Host       string
	Port       int
	ConfigPath string
	Limit      int
	Format     string
	Save       bool
}

func main() {
	var err error

	// With no arguments, serve is the default command.
	if len(os.Args) < 2 {
		err = runServeCmd([]string{})
	} else {
		switch os.Args[1] {
		case "serve":
			err = runServeCmd(os.Args[2:])
		case "add":
			err = runAddCmd(os.Args[2:])
		case "search":
			err = runSearchCmd(os.Args[2:])
		case "transcribe":
			err = runTranscribeCmd(os.Args[2:])
		case "verify":
			err = runVerifyCmd(os.Args[2:])
		case "version", "-v", "--version":
			printVersion()
			return
		case "help", "-h", "--help":
			printUsage()
			return
		default:
			fmt.Fprintf(os.Stderr, "unknown command: %s\n\n", os.Args[1])
			printUsage()
			os.Exit(1)
		}
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

// printUsage prints the usage information
func printUsage() {
	fmt.Println(`voicenotes - Personal voice note capture and semantic search

Usage:
  voicenotes <command> [options]

Commands:
  serve       Start the HTTP API server
  add         Add a text note
  search      Search notes, or list recent notes with no query
  transcribe  Transcribe an audio file
  verify      Verify the configured API credential
  version     Print version information
  help        Print this help message

Serve Options:
  --host string        HTTP host (default: 127.0.0.1)
  -p, --port int       HTTP port (default: 8765)
  -c, --config string  Env file path

Add Options:
  -c, --config string  Env file path

Search Options:
  -k, --limit int      Number of results (default: from config)
  -f, --format string  Output format: text, json (default: text)
  -c, --config string  Env file path

Transcribe Options:
  --save               Also store the transcript as a note
  -c, --config string  Env file path

Examples:
  voicenotes serve -p 8080
  voicenotes add "call the plumber about the kitchen sink"
  voicenotes search "grocery list"
  voicenotes search
  voicenotes transcribe memo.mp3 --save`)
}

// printVersion prints the version information
func printVersion() {
	fmt.Printf("voicenotes version %s\n", version)
}

// parseFlags parses common flags for the given subcommand.
func parseFlags(name string, args []string) (*Options, []string, error) {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)

	opts := &Options{}
	fs.StringVar(&opts.Host, "host", "127.0.0.1", "HTTP host")
	fs.IntVar(&opts.Port, "port", 8765, "HTTP port")
	fs.IntVar(&opts.Port, "p", 8765, "HTTP port (shorthand)")
	fs.StringVar(&opts.ConfigPath, "config", "", "Env file path")
	fs.StringVar(&opts.ConfigPath, "c", "", "Env file path (shorthand)")
	fs.IntVar(&opts.Limit, "limit", 0, "Number of results")
	fs.IntVar(&opts.Limit, "k", 0, "Number of results (shorthand)")
	fs.StringVar(&opts.Format, "format", "text", "Output format: text, json")
	fs.StringVar(&opts.Format, "f", "text", "Output format (shorthand)")
	fs.BoolVar(&opts.Save, "save", false, "Also store the transcript as a note")

	if err := fs.Parse(args); err != nil {
		return nil, nil, err
	}

	if opts.Port < 1 || opts.Port > 65535 {
		return nil, nil, fmt.Errorf("invalid port: %d (must be 1-65535)", opts.Port)
	}
	if opts.Format != "text" && opts.Format != "json" {
		return nil, nil, fmt.Errorf("invalid format: %s (must be text or json)", opts.Format)
	}
	if opts.Limit < 0 {
		return nil, nil, fmt.Errorf("invalid limit: %d (must be positive)", opts.Limit)
	}

	return opts, fs.Args(), nil
}

// setupSignalHandler cancels the context on SIGINT/SIGTERM.
func setupSignalHandler() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-sigCh
		cancel()
	}()

	return ctx, cancel
}

func buildApp(ctx context.Context, opts *Options) (*bootstrap.App, error) {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return nil, err
	}
	return bootstrap.Build(ctx, cfg)
}

func runServeCmd(args []string) error {
	opts, _, err := parseFlags("serve", args)
	if err != nil {
		return err
	}

	ctx, cancel := setupSignalHandler()
	defer cancel()

	app, err := buildApp(ctx, opts)
	if err != nil {
		return err
	}
	defer app.Close()

	server := http.New(app.Notes, app.Transcriber, app.Verifier, http.Config{
		Addr: fmt.Sprintf("%s:%d", opts.Host, opts.Port),
	})
	return server.Run(ctx)
}

func runAddCmd(args []string) error {
	opts, rest, err := parseFlags("add", args)
	if err != nil {
		return err
	}
	text := strings.TrimSpace(strings.Join(rest, " "))
	if text == "" {
		return fmt.Errorf("usage: voicenotes add [options] <text>")
	}

	ctx, cancel := setupSignalHandler()
	defer cancel()

	app, err := buildApp(ctx, opts)
	if err != nil {
		return err
	}
	defer app.Close()

	resp, err := app.Notes.AddNote(ctx, &service.AddNoteRequest{
		Text:   text,
		UserID: auth.UserID(app.Config.OpenAIAPIKey),
	})
	if err != nil {
		return err
	}

	fmt.Printf("stored note %s\n", resp.Note.ID)
	return nil
}

func runSearchCmd(args []string) error {
	opts, rest, err := parseFlags("search", args)
	if err != nil {
		return err
	}
	query := strings.TrimSpace(strings.Join(rest, " "))

	ctx, cancel := setupSignalHandler()
	defer cancel()

	app, err := buildApp(ctx, opts)
	if err != nil {
		return err
	}
	defer app.Close()

	resp, err := app.Notes.ListNotes(ctx, &service.ListNotesRequest{
		UserID: auth.UserID(app.Config.OpenAIAPIKey),
		Query:  query,
		Limit:  opts.Limit,
	})
	if err != nil {
		return err
	}

	if opts.Format == "json" {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(resp.Results)
	}

	if len(resp.Results) == 0 {
		fmt.Println("no notes found")
		return nil
	}
	for _, r := range resp.Results {
		if r.Score != nil {
			fmt.Printf("%.4f  %s  %s\n", *r.Score, r.CreatedAt, r.Text)
		} else {
			fmt.Printf("%s  %s\n", r.CreatedAt, r.Text)
		}
	}
	return nil
}

func runTranscribeCmd(args []string) error {
	opts, rest, err := parseFlags("transcribe", args)
	if err != nil {
		return err
	}
	if len(rest) != 1 {
		return fmt.Errorf("usage: voicenotes transcribe [options] <audio file>")
	}

	audio, err := os.ReadFile(rest[0])
	if err != nil {
		return fmt.Errorf("failed to read audio file: %w", err)
	}

	ctx, cancel := setupSignalHandler()
	defer cancel()

	app, err := buildApp(ctx, opts)
	if err != nil {
		return err
	}
	defer app.Close()

	text, err := app.Transcriber.Transcribe(ctx, audio)
	if err != nil {
		return err
	}
	fmt.Println(text)

	if opts.Save {
		resp, err := app.Notes.AddNote(ctx, &service.AddNoteRequest{
			Text:   text,
			UserID: auth.UserID(app.Config.OpenAIAPIKey),
		})
		if err != nil {
			return err
		}
		fmt.Printf("stored note %s\n", resp.Note.ID)
	}
	return nil
}

func runVerifyCmd(args []string) error {
	opts, _, err := parseFlags("verify", args)
	if err != nil {
		return err
	}

	ctx, cancel := setupSignalHandler()
	defer cancel()

	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return err
	}

	userID, err := auth.NewVerifier().Verify(ctx, cfg.OpenAIAPIKey)
	if err != nil {
		return err
	}

	fmt.Printf("credential accepted, user id %s\n", userID)
	return nil
}

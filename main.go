package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/lmittmann/tint"
	"github.com/mattn/go-colorable"
	"github.com/mattn/go-isatty"

	"github.com/mrlokans/mymanga/internal/cli"
	"github.com/mrlokans/mymanga/internal/config"
)

// Version information - set at build time via ldflags
var (
	Version = "dev"
	Commit  = "unknown"
)

type command interface {
	ParseFlags(args []string) error
	Run(ctx context.Context) error
}

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	cfg := config.NewConfig()
	setupLogger(cfg.Log.Level)

	name := os.Args[1]
	args := os.Args[2:]

	var cmd command
	switch name {
	case "create-manga":
		cmd = cli.NewCreateMangaCommand(cfg)
	case "upload-images":
		cmd = cli.NewUploadImagesCommand(cfg)
	case "upload-document":
		cmd = cli.NewUploadDocumentCommand(cfg)
	case "list":
		cmd = cli.NewListCommand(cfg)
	case "chapters":
		cmd = cli.NewChaptersCommand(cfg)
	case "pages":
		cmd = cli.NewPagesCommand(cfg)
	case "read":
		cmd = cli.NewReadCommand(cfg)
	case "signup":
		cmd = cli.NewSignupCommand(cfg)
	case "login":
		cmd = cli.NewLoginCommand(cfg)
	case "stats":
		cmd = cli.NewStatsCommand(cfg)
	case "maintain":
		cmd = cli.NewMaintainCommand(cfg)

	case "version":
		fmt.Printf("mymanga %s (%s)\n", Version, Commit)
		return

	case "-h", "--help", "help":
		printUsage()
		return

	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", name)
		printUsage()
		os.Exit(1)
	}

	if err := cmd.ParseFlags(args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	err := cmd.Run(ctx)
	stop()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func setupLogger(level slog.Level) {
	slog.SetDefault(slog.New(tint.NewHandler(colorable.NewColorable(os.Stderr), &tint.Options{
		Level:      level,
		TimeFormat: "15:04:05.000",
		NoColor:    !isatty.IsTerminal(os.Stderr.Fd()),
	})))
}

func printUsage() {
	fmt.Fprintf(os.Stderr, "Usage: %s <command> [options]\n\n", os.Args[0])
	fmt.Fprintf(os.Stderr, "Library commands:\n")
	fmt.Fprintf(os.Stderr, "  list             List the manga in the catalog\n")
	fmt.Fprintf(os.Stderr, "  chapters         List the chapters of a manga\n")
	fmt.Fprintf(os.Stderr, "  pages            List (or export) the pages of a chapter\n")
	fmt.Fprintf(os.Stderr, "  read             View a chapter and save reading progress\n")
	fmt.Fprintf(os.Stderr, "\nAccount commands:\n")
	fmt.Fprintf(os.Stderr, "  signup           Create a reader account\n")
	fmt.Fprintf(os.Stderr, "  login            Verify account credentials\n")
	fmt.Fprintf(os.Stderr, "\nAdministration (admin account required):\n")
	fmt.Fprintf(os.Stderr, "  create-manga     Add a manga to the catalog\n")
	fmt.Fprintf(os.Stderr, "  upload-images    Upload a directory of page images as a chapter\n")
	fmt.Fprintf(os.Stderr, "  upload-document  Upload a single document as a chapter\n")
	fmt.Fprintf(os.Stderr, "\nMaintenance:\n")
	fmt.Fprintf(os.Stderr, "  stats            Show library statistics\n")
	fmt.Fprintf(os.Stderr, "  maintain         Audit chapters and optimize the database\n")
	fmt.Fprintf(os.Stderr, "\nUse '%s <command> -h' for help on a specific command.\n", os.Args[0])
}

package cli

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"

	"github.com/mrlokans/mymanga/internal/config"
	"github.com/mrlokans/mymanga/internal/database"
	"github.com/mrlokans/mymanga/internal/scheduler"
)

// StatsCommand prints library counts and the database size.
type StatsCommand struct {
	Config       *config.Config
	DatabasePath string
	Out          io.Writer
}

func NewStatsCommand(cfg *config.Config) *StatsCommand {
	return &StatsCommand{Config: cfg}
}

func (cmd *StatsCommand) ParseFlags(args []string) error {
	fs := flag.NewFlagSet("stats", flag.ExitOnError)

	fs.StringVar(&cmd.DatabasePath, "db", cmd.Config.Database.Path, "Path to the library database file")

	fs.Usage = usage(fs, "stats", "Show library statistics.")

	return fs.Parse(args)
}

func (cmd *StatsCommand) Run(ctx context.Context) error {
	lib, err := openLibrary(cmd.Config, cmd.DatabasePath)
	if err != nil {
		return err
	}
	defer lib.Close()

	stats, err := lib.db.Stats(ctx)
	if err != nil {
		return err
	}
	version, err := lib.db.SchemaVersion(ctx)
	if err != nil {
		return err
	}

	out := stdout(cmd.Out)
	fmt.Fprintf(out, "Database:       %s\n", lib.db.Path())
	fmt.Fprintf(out, "Schema version: %d\n", version)
	printStats(out, stats)
	return nil
}

func printStats(out io.Writer, stats database.Stats) {
	fmt.Fprintf(out, "Manga:          %d\n", stats.MangaCount)
	fmt.Fprintf(out, "Chapters:       %d\n", stats.ChapterCount)
	fmt.Fprintf(out, "Pages:          %d\n", stats.PageCount)
	fmt.Fprintf(out, "Size:           %d bytes\n", stats.SizeBytes)
}

// MaintainCommand audits chapter consistency and optimizes the database,
// once or on the configured schedule.
type MaintainCommand struct {
	Config       *config.Config
	DatabasePath string
	Out          io.Writer

	Schedule string
	Watch    bool
}

func NewMaintainCommand(cfg *config.Config) *MaintainCommand {
	return &MaintainCommand{Config: cfg}
}

func (cmd *MaintainCommand) ParseFlags(args []string) error {
	fs := flag.NewFlagSet("maintain", flag.ExitOnError)

	fs.StringVar(&cmd.DatabasePath, "db", cmd.Config.Database.Path, "Path to the library database file")
	fs.StringVar(&cmd.Schedule, "schedule", cmd.Config.Maintenance.Schedule, "Cron schedule used with -watch")
	fs.BoolVar(&cmd.Watch, "watch", false, "Keep running and maintain on the schedule until interrupted")

	fs.Usage = usage(fs, "maintain [-watch] [-schedule <cron>]",
		"Check that every chapter's page count matches its stored pages, then\n"+
			"checkpoint and optimize the database.")

	if err := fs.Parse(args); err != nil {
		return err
	}
	if cmd.Watch {
		return scheduler.ValidateSchedule(cmd.Schedule)
	}
	return nil
}

func (cmd *MaintainCommand) Run(ctx context.Context) error {
	lib, err := openLibrary(cmd.Config, cmd.DatabasePath)
	if err != nil {
		return err
	}
	defer lib.Close()

	sched := scheduler.NewMaintenanceScheduler(lib.db, lib.chapters, cmd.Schedule)
	out := stdout(cmd.Out)

	if !cmd.Watch {
		report, err := sched.RunNow(ctx)
		if err != nil {
			return err
		}
		printReport(out, report)
		return nil
	}

	if err := sched.Start(ctx); err != nil {
		return err
	}
	msg := fmt.Sprintf("Maintenance scheduled (%s)", cmd.Schedule)
	if next := sched.NextRunTime(); next != nil {
		msg += ", next run at " + next.Format("15:04:05")
	}
	fmt.Fprintln(out, msg+". Press Ctrl+C to stop.")
	<-ctx.Done()
	slog.Info("stopping maintenance scheduler")
	sched.Stop()
	if report := sched.LastReport(); report != nil {
		printReport(out, report)
	}
	return nil
}

func printReport(out io.Writer, report *scheduler.Report) {
	if len(report.Inconsistencies) == 0 {
		fmt.Fprintln(out, "No inconsistent chapters.")
	} else {
		fmt.Fprintf(out, "Inconsistent chapters: %d\n", len(report.Inconsistencies))
		for _, issue := range report.Inconsistencies {
			fmt.Fprintf(out, "  - %s\n", issue)
		}
	}
	printStats(out, report.Stats)
	fmt.Fprintf(out, "Took %s\n", report.Duration)
}

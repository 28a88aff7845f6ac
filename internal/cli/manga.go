package cli

import (
	"context"
	"flag"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/mrlokans/mymanga/internal/codec"
	"github.com/mrlokans/mymanga/internal/config"
	"github.com/mrlokans/mymanga/internal/database/catalog"
	"github.com/mrlokans/mymanga/internal/entities"
	"github.com/mrlokans/mymanga/internal/progress"
)

// CreateMangaCommand adds a catalog entry. Requires an administrator account.
type CreateMangaCommand struct {
	Config       *config.Config
	DatabasePath string
	Out          io.Writer

	Credentials credentials
	Title       string
	Description string
	CoverPath   string
	Author      string
	Status      string
}

func NewCreateMangaCommand(cfg *config.Config) *CreateMangaCommand {
	return &CreateMangaCommand{Config: cfg}
}

func (cmd *CreateMangaCommand) ParseFlags(args []string) error {
	fs := flag.NewFlagSet("create-manga", flag.ExitOnError)

	fs.StringVar(&cmd.DatabasePath, "db", cmd.Config.Database.Path, "Path to the library database file")
	cmd.Credentials.register(fs)
	fs.StringVar(&cmd.Title, "title", "", "Manga title (required)")
	fs.StringVar(&cmd.Description, "description", "", "Synopsis")
	fs.StringVar(&cmd.CoverPath, "cover", "", "Path to the cover image (required)")
	fs.StringVar(&cmd.Author, "author", "", "Author name")
	fs.StringVar(&cmd.Status, "status", string(entities.CatalogStatusOngoing), "Publication status: Ongoing, Completed or Hiatus")

	fs.Usage = usage(fs, "create-manga -email <admin> -password <pw> -title <title> -cover <image> [options]",
		"Add a manga to the catalog.")

	if err := fs.Parse(args); err != nil {
		return err
	}
	if err := cmd.Credentials.require(); err != nil {
		return err
	}
	if cmd.Title == "" {
		return fmt.Errorf("required flag -title not provided")
	}
	if cmd.CoverPath == "" {
		return fmt.Errorf("required flag -cover not provided")
	}
	return nil
}

func (cmd *CreateMangaCommand) Run(ctx context.Context) error {
	lib, err := openLibrary(cmd.Config, cmd.DatabasePath)
	if err != nil {
		return err
	}
	defer lib.Close()

	if _, err := lib.loginAdmin(ctx, cmd.Credentials); err != nil {
		return err
	}

	cover, err := codec.EncodeFile(ctx, cmd.CoverPath)
	if err != nil {
		return err
	}
	entry, err := lib.catalog.Create(ctx, catalog.NewEntry{
		Title:       cmd.Title,
		Description: cmd.Description,
		CoverAsset:  cover,
		Author:      cmd.Author,
		Status:      entities.CatalogStatus(cmd.Status),
	})
	if err != nil {
		return err
	}

	fmt.Fprintf(stdout(cmd.Out), "Created manga %s: %s\n", entry.ID, entry.Title)
	return nil
}

// ListCommand prints the catalog, newest first.
type ListCommand struct {
	Config       *config.Config
	DatabasePath string
	Out          io.Writer

	Search string
}

func NewListCommand(cfg *config.Config) *ListCommand {
	return &ListCommand{Config: cfg}
}

func (cmd *ListCommand) ParseFlags(args []string) error {
	fs := flag.NewFlagSet("list", flag.ExitOnError)

	fs.StringVar(&cmd.DatabasePath, "db", cmd.Config.Database.Path, "Path to the library database file")
	fs.StringVar(&cmd.Search, "search", "", "Only show titles containing this text (case-insensitive)")

	fs.Usage = usage(fs, "list [-search <text>]", "List the manga in the catalog, newest first.")

	return fs.Parse(args)
}

func (cmd *ListCommand) Run(ctx context.Context) error {
	lib, err := openLibrary(cmd.Config, cmd.DatabasePath)
	if err != nil {
		return err
	}
	defer lib.Close()

	entries, err := lib.service.Catalog(ctx, cmd.Search)
	if err != nil {
		return err
	}

	out := stdout(cmd.Out)
	if len(entries) == 0 {
		fmt.Fprintln(out, "No manga found.")
		return nil
	}
	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tTITLE\tAUTHOR\tSTATUS\tADDED")
	for _, e := range entries {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", e.ID, e.Title, e.Author, e.Status, e.CreatedAt.Format("2006-01-02"))
	}
	return w.Flush()
}

// ChaptersCommand prints a manga's chapters in display order. With
// credentials it also shows the reader's progress on each chapter.
type ChaptersCommand struct {
	Config       *config.Config
	DatabasePath string
	Out          io.Writer

	Credentials credentials
	MangaID     string
}

func NewChaptersCommand(cfg *config.Config) *ChaptersCommand {
	return &ChaptersCommand{Config: cfg}
}

func (cmd *ChaptersCommand) ParseFlags(args []string) error {
	fs := flag.NewFlagSet("chapters", flag.ExitOnError)

	fs.StringVar(&cmd.DatabasePath, "db", cmd.Config.Database.Path, "Path to the library database file")
	fs.StringVar(&cmd.MangaID, "manga", "", "Manga id (required)")
	cmd.Credentials.register(fs)

	fs.Usage = usage(fs, "chapters -manga <id> [-email <email> -password <pw>]",
		"List the chapters of a manga, highest number first.")

	if err := fs.Parse(args); err != nil {
		return err
	}
	if cmd.MangaID == "" {
		return fmt.Errorf("required flag -manga not provided")
	}
	if cmd.Credentials.provided() {
		return cmd.Credentials.require()
	}
	return nil
}

func (cmd *ChaptersCommand) Run(ctx context.Context) error {
	lib, err := openLibrary(cmd.Config, cmd.DatabasePath)
	if err != nil {
		return err
	}
	defer lib.Close()

	details, err := lib.service.MangaDetails(ctx, cmd.MangaID)
	if err != nil {
		return err
	}

	var marks []entities.ProgressMark
	if cmd.Credentials.provided() {
		session, err := lib.auth.Login(ctx, cmd.Credentials.Email, cmd.Credentials.Password)
		if err != nil {
			return fmt.Errorf("login failed: %w", err)
		}
		defer lib.auth.Logout(session)
		marks, err = lib.progress.ListForAccountAndCatalogEntry(ctx, session.AccountID(), cmd.MangaID)
		if err != nil {
			return err
		}
	}

	out := stdout(cmd.Out)
	fmt.Fprintf(out, "%s (%s)\n", details.Entry.Title, details.Entry.Status)
	if details.Entry.Description != "" {
		fmt.Fprintf(out, "%s\n", details.Entry.Description)
	}
	fmt.Fprintln(out)
	if len(details.Chapters) == 0 {
		fmt.Fprintln(out, "No chapters yet.")
		return nil
	}

	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	header := []string{"ID", "NUMBER", "TITLE", "PAGES"}
	if cmd.Credentials.provided() {
		header = append(header, "PROGRESS")
	}
	fmt.Fprintln(w, strings.Join(header, "\t"))
	for _, s := range progress.Summarize(details.Chapters, marks) {
		pages := fmt.Sprintf("%d", s.Chapter.PageCount)
		if s.Chapter.IsDocumentForm {
			pages = "document"
		}
		row := []string{s.Chapter.ID, formatNumber(s.Chapter.Number), s.Chapter.Title, pages}
		if cmd.Credentials.provided() {
			row = append(row, formatProgress(s))
		}
		fmt.Fprintln(w, strings.Join(row, "\t"))
	}
	return w.Flush()
}

func formatNumber(n float64) string {
	return fmt.Sprintf("%g", n)
}

func formatProgress(s progress.ChapterSummary) string {
	if s.State == progress.InProgress {
		return fmt.Sprintf("%s (page %d)", s.State, s.LastPage)
	}
	return s.State.String()
}

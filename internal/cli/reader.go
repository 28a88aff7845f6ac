package cli

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/mrlokans/mymanga/internal/codec"
	"github.com/mrlokans/mymanga/internal/config"
	progressdb "github.com/mrlokans/mymanga/internal/database/progress"
	"github.com/mrlokans/mymanga/internal/progress"
)

// PagesCommand lists the pages of a chapter, optionally writing them to disk.
type PagesCommand struct {
	Config       *config.Config
	DatabasePath string
	Out          io.Writer

	ChapterID string
	OutputDir string
}

func NewPagesCommand(cfg *config.Config) *PagesCommand {
	return &PagesCommand{Config: cfg}
}

func (cmd *PagesCommand) ParseFlags(args []string) error {
	fs := flag.NewFlagSet("pages", flag.ExitOnError)

	fs.StringVar(&cmd.DatabasePath, "db", cmd.Config.Database.Path, "Path to the library database file")
	fs.StringVar(&cmd.ChapterID, "chapter", "", "Chapter id (required)")
	fs.StringVar(&cmd.OutputDir, "output", "", "Write the decoded pages (or the document) into this directory")

	fs.Usage = usage(fs, "pages -chapter <id> [-output <dir>]", "List the pages of a chapter in reading order.")

	if err := fs.Parse(args); err != nil {
		return err
	}
	if cmd.ChapterID == "" {
		return fmt.Errorf("required flag -chapter not provided")
	}
	return nil
}

func (cmd *PagesCommand) Run(ctx context.Context) error {
	lib, err := openLibrary(cmd.Config, cmd.DatabasePath)
	if err != nil {
		return err
	}
	defer lib.Close()

	data, err := lib.service.ReaderData(ctx, cmd.ChapterID)
	if err != nil {
		return err
	}
	if cmd.OutputDir != "" {
		if err := os.MkdirAll(cmd.OutputDir, 0o755); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}
	}

	out := stdout(cmd.Out)
	if data.Chapter.IsDocumentForm {
		asset, err := codec.Parse(data.Chapter.DocumentAsset)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "Document chapter: %s, %d bytes\n", asset.MediaType, len(asset.Data))
		if cmd.OutputDir != "" {
			name := "chapter-" + formatNumber(data.Chapter.Number) + codec.Extension(data.Chapter.DocumentAsset)
			return writeAsset(filepath.Join(cmd.OutputDir, name), asset.Data)
		}
		return nil
	}

	for _, p := range data.Pages {
		asset, err := codec.Parse(p.ImageAsset)
		if err != nil {
			return fmt.Errorf("page %d: %w", p.PageNumber, err)
		}
		fmt.Fprintf(out, "%3d  %-12s %d bytes\n", p.PageNumber, asset.MediaType, len(asset.Data))
		if cmd.OutputDir != "" {
			name := fmt.Sprintf("page-%03d%s", p.PageNumber, codec.Extension(p.ImageAsset))
			if err := writeAsset(filepath.Join(cmd.OutputDir, name), asset.Data); err != nil {
				return err
			}
		}
	}
	return nil
}

func writeAsset(path string, data []byte) error {
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}

// markWait bounds how long read waits for a page's progress to be stored.
const markWait = 5 * time.Second

// ReadCommand simulates the chapter viewer: it scrolls through the given pages
// one at a time while a progress tracker records how far the reader got.
type ReadCommand struct {
	Config       *config.Config
	DatabasePath string
	Out          io.Writer

	Credentials credentials
	ChapterID   string
	Pages       []int
}

func NewReadCommand(cfg *config.Config) *ReadCommand {
	return &ReadCommand{Config: cfg}
}

func (cmd *ReadCommand) ParseFlags(args []string) error {
	fs := flag.NewFlagSet("read", flag.ExitOnError)

	var pages string
	fs.StringVar(&cmd.DatabasePath, "db", cmd.Config.Database.Path, "Path to the library database file")
	fs.StringVar(&cmd.ChapterID, "chapter", "", "Chapter id (required)")
	fs.StringVar(&pages, "pages", "", "Comma-separated page numbers to view in order (default: every page)")
	cmd.Credentials.register(fs)

	fs.Usage = usage(fs, "read -chapter <id> [-pages 1,2,5] [-email <email> -password <pw>]",
		"View a chapter page by page. Signed-in readers have their progress saved.")

	if err := fs.Parse(args); err != nil {
		return err
	}
	if cmd.ChapterID == "" {
		return fmt.Errorf("required flag -chapter not provided")
	}
	if cmd.Credentials.provided() {
		if err := cmd.Credentials.require(); err != nil {
			return err
		}
	}
	list, err := parsePageList(pages)
	if err != nil {
		return err
	}
	cmd.Pages = list
	return nil
}

func parsePageList(s string) ([]int, error) {
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}
	var pages []int
	for _, part := range strings.Split(s, ",") {
		n, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil || n < 1 {
			return nil, fmt.Errorf("invalid page number %q", part)
		}
		pages = append(pages, n)
	}
	return pages, nil
}

func (cmd *ReadCommand) Run(ctx context.Context) error {
	lib, err := openLibrary(cmd.Config, cmd.DatabasePath)
	if err != nil {
		return err
	}
	defer lib.Close()

	data, err := lib.service.ReaderData(ctx, cmd.ChapterID)
	if err != nil {
		return err
	}
	ch := data.Chapter
	out := stdout(cmd.Out)

	// A nil *auth.Session must not become a non-nil progress.Session.
	var session progress.Session
	if cmd.Credentials.provided() {
		s, err := lib.auth.Login(ctx, cmd.Credentials.Email, cmd.Credentials.Password)
		if err != nil {
			return fmt.Errorf("login failed: %w", err)
		}
		defer lib.auth.Logout(s)
		session = s
	}

	if ch.IsDocumentForm {
		fmt.Fprintln(out, "Document chapter: progress is not tracked.")
		return nil
	}

	pages := cmd.Pages
	if len(pages) == 0 {
		for i := range ch.PageCount {
			pages = append(pages, i+1)
		}
	}
	for _, p := range pages {
		if p > ch.PageCount {
			return fmt.Errorf("page %d out of range, chapter has %d pages", p, ch.PageCount)
		}
	}

	resume, err := progress.ResumePage(ctx, lib.progress, session, ch.ID)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "Resume at page %d of %d\n", resume, ch.PageCount)

	viewport := progress.NewViewport()
	tracker := progress.NewTracker(lib.progress)
	if err := tracker.Enter(ctx, session, ch, viewport); err != nil {
		return err
	}
	defer tracker.Leave()

	current := 0
	for _, p := range pages {
		start := time.Now()
		viewport.ScrollTo(p - 1)
		fmt.Fprintf(out, "Viewing page %d/%d\n", p, ch.PageCount)
		if session != nil && p != current {
			if err := waitForMark(ctx, lib.progress, session.AccountID(), ch.ID, p, start); err != nil {
				return err
			}
		}
		current = p
	}
	tracker.Leave()

	after, err := progress.ResumePage(ctx, lib.progress, session, ch.ID)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "Resume at page %d of %d\n", after, ch.PageCount)
	return nil
}

// waitForMark polls until the tracker has stored page as the last page reached.
func waitForMark(ctx context.Context, store *progressdb.Repository, accountID, chapterID string, page int, since time.Time) error {
	ctx, cancel := context.WithTimeout(ctx, markWait)
	defer cancel()

	ticker := time.NewTicker(10 * time.Millisecond)
	defer ticker.Stop()
	for {
		mark, ok, err := store.Get(ctx, accountID, chapterID)
		if err != nil {
			return err
		}
		if ok && mark.LastPageReached == page && !mark.UpdatedAt.Before(since) {
			return nil
		}
		select {
		case <-ctx.Done():
			if errors.Is(ctx.Err(), context.DeadlineExceeded) {
				return fmt.Errorf("progress for page %d was not saved within %s", page, markWait)
			}
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

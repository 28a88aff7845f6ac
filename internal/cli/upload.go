package cli

import (
	"context"
	"flag"
	"fmt"
	"io"
	"path/filepath"
	"strconv"

	"github.com/mrlokans/mymanga/internal/config"
	"github.com/mrlokans/mymanga/internal/ingest"
	"github.com/mrlokans/mymanga/internal/utils"
)

// UploadImagesCommand uploads a directory of page images as one chapter.
type UploadImagesCommand struct {
	Config       *config.Config
	DatabasePath string
	Out          io.Writer

	Credentials credentials
	MangaID     string
	Number      float64
	Title       string
	Dir         string
}

func NewUploadImagesCommand(cfg *config.Config) *UploadImagesCommand {
	return &UploadImagesCommand{Config: cfg}
}

func (cmd *UploadImagesCommand) ParseFlags(args []string) error {
	fs := flag.NewFlagSet("upload-images", flag.ExitOnError)

	fs.StringVar(&cmd.DatabasePath, "db", cmd.Config.Database.Path, "Path to the library database file")
	cmd.Credentials.register(fs)
	fs.StringVar(&cmd.MangaID, "manga", "", "Manga id (required)")
	fs.Float64Var(&cmd.Number, "number", 0, "Chapter number, fractions such as 10.5 allowed (required)")
	fs.StringVar(&cmd.Title, "title", "", "Chapter title")
	fs.StringVar(&cmd.Dir, "dir", "", "Directory holding the page images (required)")

	fs.Usage = usage(fs, "upload-images -email <admin> -password <pw> -manga <id> -number <n> -dir <path> [options]",
		"Upload a directory of page images as a new chapter.\n"+
			"Pages are ordered by the first number in each file name; images below\n"+
			"the minimum page size (INGEST_MIN_PAGE_BYTES) are skipped.")

	if err := fs.Parse(args); err != nil {
		return err
	}
	if err := cmd.Credentials.require(); err != nil {
		return err
	}
	if cmd.MangaID == "" {
		return fmt.Errorf("required flag -manga not provided")
	}
	if cmd.Dir == "" {
		return fmt.Errorf("required flag -dir not provided")
	}
	return nil
}

func (cmd *UploadImagesCommand) Run(ctx context.Context) error {
	sources, err := ingest.DirSources(cmd.Dir, utils.IsImageFile)
	if err != nil {
		return err
	}

	lib, err := openLibrary(cmd.Config, cmd.DatabasePath)
	if err != nil {
		return err
	}
	defer lib.Close()

	if _, err := lib.loginAdmin(ctx, cmd.Credentials); err != nil {
		return err
	}

	ch, err := lib.ingester.UploadImages(ctx, ingest.UploadRequest{
		CatalogEntryID: cmd.MangaID,
		Number:         cmd.Number,
		Title:          cmd.Title,
		Assets:         sources,
	})
	if err != nil {
		return err
	}

	out := stdout(cmd.Out)
	fmt.Fprintf(out, "Created chapter %s (number %s)\n", ch.ID, formatNumber(ch.Number))
	fmt.Fprintf(out, "Pages stored: %d of %d files\n", ch.PageCount, len(sources))
	return nil
}

// UploadDocumentCommand uploads a single document as one chapter.
type UploadDocumentCommand struct {
	Config       *config.Config
	DatabasePath string
	Out          io.Writer

	Credentials credentials
	MangaID     string
	Number      float64
	Title       string
	File        string
}

func NewUploadDocumentCommand(cfg *config.Config) *UploadDocumentCommand {
	return &UploadDocumentCommand{Config: cfg}
}

func (cmd *UploadDocumentCommand) ParseFlags(args []string) error {
	fs := flag.NewFlagSet("upload-document", flag.ExitOnError)

	fs.StringVar(&cmd.DatabasePath, "db", cmd.Config.Database.Path, "Path to the library database file")
	cmd.Credentials.register(fs)
	fs.StringVar(&cmd.MangaID, "manga", "", "Manga id (required)")
	fs.Float64Var(&cmd.Number, "number", 0, "Chapter number (defaults to the first number in the file name)")
	fs.StringVar(&cmd.Title, "title", "", "Chapter title (defaults to the file name)")
	fs.StringVar(&cmd.File, "file", "", "Path to the document, e.g. a PDF (required)")

	fs.Usage = usage(fs, "upload-document -email <admin> -password <pw> -manga <id> -file <path> [options]",
		"Upload a single document as a new chapter.")

	if err := fs.Parse(args); err != nil {
		return err
	}
	if err := cmd.Credentials.require(); err != nil {
		return err
	}
	if cmd.MangaID == "" {
		return fmt.Errorf("required flag -manga not provided")
	}
	if cmd.File == "" {
		return fmt.Errorf("required flag -file not provided")
	}

	base := filepath.Base(cmd.File)
	if cmd.Title == "" {
		cmd.Title = utils.TitleFromFilename(base)
	}
	numberSet := false
	fs.Visit(func(f *flag.Flag) {
		if f.Name == "number" {
			numberSet = true
		}
	})
	if !numberSet {
		cmd.Number = float64(utils.FirstNumber(base))
	}
	return nil
}

func (cmd *UploadDocumentCommand) Run(ctx context.Context) error {
	src, err := ingest.FileSource(cmd.File)
	if err != nil {
		return err
	}

	lib, err := openLibrary(cmd.Config, cmd.DatabasePath)
	if err != nil {
		return err
	}
	defer lib.Close()

	if _, err := lib.loginAdmin(ctx, cmd.Credentials); err != nil {
		return err
	}

	ch, err := lib.ingester.UploadDocument(ctx, ingest.DocumentRequest{
		CatalogEntryID: cmd.MangaID,
		Number:         cmd.Number,
		Title:          cmd.Title,
		Asset:          src,
	})
	if err != nil {
		return err
	}

	fmt.Fprintf(stdout(cmd.Out), "Created document chapter %s (number %s, %s)\n",
		ch.ID, formatNumber(ch.Number), strconv.Quote(ch.Title))
	return nil
}

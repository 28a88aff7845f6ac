// Command generate_demo creates a demo library with generated page images.
// Usage: go run ./cmd/generate_demo [-db path/to/demo.db]
package main

import (
	"bytes"
	"context"
	"flag"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"log/slog"
	"math/rand/v2"
	"os"

	"github.com/lmittmann/tint"

	"github.com/mrlokans/mymanga/internal/auth"
	"github.com/mrlokans/mymanga/internal/codec"
	"github.com/mrlokans/mymanga/internal/config"
	"github.com/mrlokans/mymanga/internal/database"
	"github.com/mrlokans/mymanga/internal/database/accounts"
	"github.com/mrlokans/mymanga/internal/database/catalog"
	"github.com/mrlokans/mymanga/internal/database/chapters"
	progressdb "github.com/mrlokans/mymanga/internal/database/progress"
	"github.com/mrlokans/mymanga/internal/entities"
	"github.com/mrlokans/mymanga/internal/ingest"
)

const (
	defaultDemoDatabasePath = "./demo/demo.db"

	demoReaderEmail    = "reader@mymanga.com"
	demoReaderPassword = "readerpass"

	pageWidth  = 160
	pageHeight = 240
)

// seriesConfig describes one generated series.
type seriesConfig struct {
	Entry    catalog.NewEntry
	Hue      color.RGBA
	Chapters []float64 // chapter numbers, each generated with PagesPer pages
	PagesPer int
	Document bool // add one extra document-form chapter
}

func main() {
	dbPath := flag.String("db", defaultDemoDatabasePath, "path to the demo database file")
	flag.Parse()

	slog.SetDefault(slog.New(tint.NewHandler(os.Stderr, nil)))
	if err := run(context.Background(), *dbPath); err != nil {
		slog.Error("failed to generate demo library", "error", err)
		os.Exit(1)
	}
	slog.Info("demo library generated", "path", *dbPath)
}

func run(ctx context.Context, dbPath string) error {
	// Start fresh
	for _, suffix := range []string{"", "-wal", "-shm"} {
		if err := os.Remove(dbPath + suffix); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("failed to remove existing demo database: %w", err)
		}
	}

	db, err := database.NewDatabase(dbPath)
	if err != nil {
		return err
	}
	defer db.Close()

	catalogRepo := catalog.NewRepository(db)
	chapterRepo := chapters.NewRepository(db)
	ingester := ingest.NewIngester(catalogRepo, chapterRepo)

	var firstChapter *entities.Chapter
	for _, s := range demoSeries() {
		cover, err := renderPage(s.Hue, 0)
		if err != nil {
			return err
		}
		s.Entry.CoverAsset = codec.EncodeAs("image/png", cover)
		entry, err := catalogRepo.Create(ctx, s.Entry)
		if err != nil {
			return err
		}

		for _, number := range s.Chapters {
			sources := make([]ingest.Source, 0, s.PagesPer)
			for p := range s.PagesPer {
				data, err := renderPage(s.Hue, p+1)
				if err != nil {
					return err
				}
				sources = append(sources, ingest.BytesSource(fmt.Sprintf("page_%02d.png", p+1), data))
			}
			ch, err := ingester.UploadImages(ctx, ingest.UploadRequest{
				CatalogEntryID: entry.ID,
				Number:         number,
				Title:          fmt.Sprintf("Chapter %g", number),
				Assets:         sources,
			})
			if err != nil {
				return err
			}
			if firstChapter == nil {
				firstChapter = ch
			}
		}

		if s.Document {
			_, err := ingester.UploadDocument(ctx, ingest.DocumentRequest{
				CatalogEntryID: entry.ID,
				Number:         float64(len(s.Chapters) + 1),
				Title:          "Collected Extras",
				Asset:          ingest.BytesSource("extras.pdf", demoDocument(entry.Title)),
			})
			if err != nil {
				return err
			}
		}
		slog.Info("created series", "title", entry.Title, "chapters", len(s.Chapters))
	}

	return seedReader(ctx, db, firstChapter)
}

// seedReader creates a reader account that is part way through the first chapter.
func seedReader(ctx context.Context, db *database.Database, ch *entities.Chapter) error {
	cfg := config.NewConfig().Auth
	service := auth.NewService(accounts.NewRepository(db), cfg)
	session, err := service.Signup(ctx, "Demo Reader", demoReaderEmail, demoReaderPassword)
	if err != nil {
		return err
	}
	defer service.Logout(session)

	if ch == nil {
		return nil
	}
	_, err = progressdb.NewRepository(db).Upsert(ctx, session.AccountID(), ch.CatalogEntryID, ch.ID, ch.PageCount/2+1)
	if err != nil {
		return err
	}
	slog.Info("created demo reader", "email", demoReaderEmail, "password", demoReaderPassword)
	return nil
}

func demoSeries() []seriesConfig {
	return []seriesConfig{
		{
			Entry: catalog.NewEntry{
				Title:       "Little Nemo in Slumberland",
				Description: "A boy's nightly adventures in a dream kingdom.",
				Author:      "Winsor McCay",
				Status:      entities.CatalogStatusCompleted,
			},
			Hue:      color.RGBA{R: 70, G: 110, B: 200, A: 255},
			Chapters: []float64{1, 2, 3},
			PagesPer: 8,
			Document: true,
		},
		{
			Entry: catalog.NewEntry{
				Title:       "The Yellow Kid",
				Description: "Life in Hogan's Alley.",
				Author:      "Richard F. Outcault",
				Status:      entities.CatalogStatusHiatus,
			},
			Hue:      color.RGBA{R: 220, G: 190, B: 40, A: 255},
			Chapters: []float64{1, 1.5, 2},
			PagesPer: 5,
		},
		{
			Entry: catalog.NewEntry{
				Title:       "Krazy Kat",
				Description: "A cat, a mouse and a brick.",
				Author:      "George Herriman",
			},
			Hue:      color.RGBA{R: 200, G: 80, B: 60, A: 255},
			Chapters: []float64{1},
			PagesPer: 12,
		},
	}
}

// renderPage draws a page with a band whose position encodes the page number.
// The noise keeps every page well above the minimum page size.
func renderPage(hue color.RGBA, page int) ([]byte, error) {
	img := image.NewRGBA(image.Rect(0, 0, pageWidth, pageHeight))
	noise := rand.New(rand.NewPCG(uint64(hue.R), uint64(page)))
	band := (page * 17) % pageHeight
	for y := range pageHeight {
		for x := range pageWidth {
			n := uint8(noise.IntN(32))
			c := color.RGBA{R: uint8(x+y) ^ n, G: uint8(x*y) ^ n, B: uint8(y*3) ^ n, A: 255}
			if y >= band && y < band+20 {
				c = hue
			}
			img.Set(x, y, c)
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("failed to encode page %d: %w", page, err)
	}
	return buf.Bytes(), nil
}

// demoDocument returns a minimal single-page PDF.
func demoDocument(title string) []byte {
	return []byte("%PDF-1.4\n" +
		"1 0 obj << /Type /Catalog /Pages 2 0 R >> endobj\n" +
		"2 0 obj << /Type /Pages /Kids [3 0 R] /Count 1 >> endobj\n" +
		"3 0 obj << /Type /Page /Parent 2 0 R /MediaBox [0 0 200 200] >> endobj\n" +
		"% " + title + "\n" +
		"trailer << /Root 1 0 R >>\n%%EOF\n")
}

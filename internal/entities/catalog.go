package entities

import (
	"errors"
	"time"
)

type CatalogStatus string

const (
	CatalogStatusOngoing   CatalogStatus = "Ongoing"
	CatalogStatusCompleted CatalogStatus = "Completed"
	CatalogStatusHiatus    CatalogStatus = "Hiatus"
)

// Valid reports whether s is one of the known publication statuses.
func (s CatalogStatus) Valid() bool {
	switch s {
	case CatalogStatusOngoing, CatalogStatusCompleted, CatalogStatusHiatus:
		return true
	}
	return false
}

// CatalogEntry is a manga series in the library.
type CatalogEntry struct {
	ID          string        `gorm:"primaryKey;size:64" json:"id"`
	Title       string        `gorm:"size:512" json:"title"`
	Description string        `gorm:"type:text" json:"description"`
	CoverAsset  string        `gorm:"type:text" json:"cover_asset"` // data URL, see codec
	Author      string        `gorm:"size:256" json:"author,omitempty"`
	Status      CatalogStatus `gorm:"size:20" json:"status"`
	CreatedAt   time.Time     `gorm:"autoCreateTime:false" json:"created_at"`
}

type Chapter struct {
	ID             string    `gorm:"primaryKey;size:64" json:"id"`
	CatalogEntryID string    `gorm:"size:64" json:"catalog_entry_id"`
	Title          string    `gorm:"size:512" json:"title,omitempty"`
	Number         float64   `json:"number"` // fractional chapters such as 1.5 are allowed
	CreatedAt      time.Time `gorm:"autoCreateTime:false" json:"created_at"`
	PageCount      int       `json:"page_count"`
	IsDocumentForm bool      `json:"is_document_form"`
	DocumentAsset  string    `gorm:"type:text" json:"document_asset,omitempty"`
}

// HasDocument reports whether the chapter carries a bundled document instead of pages.
func (c *Chapter) HasDocument() bool {
	return c.IsDocumentForm && c.DocumentAsset != ""
}

// Validate checks the document half of the chapter invariant: a document-form
// chapter carries a document and no pages, any other chapter carries no document.
func (c *Chapter) Validate() error {
	if c.PageCount < 0 {
		return errors.New("page count must not be negative")
	}
	if c.IsDocumentForm {
		if c.DocumentAsset == "" {
			return errors.New("document-form chapter requires a document asset")
		}
		if c.PageCount != 0 {
			return errors.New("document-form chapter must have a page count of 0")
		}
		return nil
	}
	if c.DocumentAsset != "" {
		return errors.New("document asset set on a chapter that is not in document form")
	}
	return nil
}

type Page struct {
	ID         string `gorm:"primaryKey;size:64" json:"id"`
	ChapterID  string `gorm:"size:64" json:"chapter_id"`
	PageNumber int    `json:"page_number"`
	ImageAsset string `gorm:"type:text" json:"image_asset"`
}

func (CatalogEntry) TableName() string {
	return "manga"
}

func (Chapter) TableName() string {
	return "chapters"
}

func (Page) TableName() string {
	return "pages"
}

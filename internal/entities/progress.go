package entities

import (
	"time"
)

// ProgressMark records the last page an account looked at in a chapter.
// There is at most one mark per (account, chapter) pair; ID is ProgressMarkID of the pair.
type ProgressMark struct {
	ID              string    `gorm:"primaryKey;size:160" json:"id"`
	AccountID       string    `gorm:"size:64" json:"account_id"`
	CatalogEntryID  string    `gorm:"size:64" json:"catalog_entry_id"`
	ChapterID       string    `gorm:"size:64" json:"chapter_id"`
	LastPageReached int       `json:"last_page_reached"`
	UpdatedAt       time.Time `gorm:"autoUpdateTime:false" json:"updated_at"`
}

// ProgressMarkID builds the composite key of a mark.
func ProgressMarkID(accountID, chapterID string) string {
	return accountID + "_" + chapterID
}

func (ProgressMark) TableName() string {
	return "progress"
}

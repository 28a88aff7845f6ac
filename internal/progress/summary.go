package progress

import "github.com/mrlokans/mymanga/internal/entities"

// ChapterState is a reader's standing on one chapter.
type ChapterState int

const (
	Unread ChapterState = iota
	InProgress
	Finished
)

func (s ChapterState) String() string {
	switch s {
	case Unread:
		return "unread"
	case InProgress:
		return "in progress"
	case Finished:
		return "finished"
	}
	return "unknown"
}

// ChapterSummary pairs a chapter with the reader's state and mark on it.
type ChapterSummary struct {
	Chapter  entities.Chapter
	State    ChapterState
	LastPage int // 0 when unread
}

// StateOf classifies a chapter given the reader's mark, which may be nil.
// Document-form chapters are never Finished since their length is unknown.
func StateOf(ch entities.Chapter, mark *entities.ProgressMark) ChapterState {
	if mark == nil {
		return Unread
	}
	if !ch.IsDocumentForm && ch.PageCount > 0 && mark.LastPageReached >= ch.PageCount {
		return Finished
	}
	return InProgress
}

// Summarize classifies each chapter, keeping the chapters' order.
func Summarize(chapters []entities.Chapter, marks []entities.ProgressMark) []ChapterSummary {
	byChapter := make(map[string]*entities.ProgressMark, len(marks))
	for i := range marks {
		byChapter[marks[i].ChapterID] = &marks[i]
	}

	out := make([]ChapterSummary, len(chapters))
	for i, ch := range chapters {
		mark := byChapter[ch.ID]
		out[i] = ChapterSummary{Chapter: ch, State: StateOf(ch, mark)}
		if mark != nil {
			out[i].LastPage = mark.LastPageReached
		}
	}
	return out
}

// Package progress tracks how far a reader got in a chapter.
//
// A Tracker subscribes to the visibility of every page of the open chapter and
// records a progress mark each time a page becomes visible. Marks are written
// unconditionally, so scrolling back moves the mark back: the last page seen
// wins. A page reported visible before that one never overwrites it.
//
//	tracker := progress.NewTracker(progressRepo)
//	err := tracker.Enter(ctx, session, chapter, viewport)
//	...
//	tracker.Leave()
package progress

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/mrlokans/mymanga/internal/entities"
)

var (
	ErrAlreadyObserving = errors.New("tracker is already observing a chapter")
	ErrSessionInactive  = errors.New("session is no longer active")
)

// State is the tracker lifecycle state.
type State int

const (
	Idle State = iota
	Observing
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Observing:
		return "observing"
	}
	return "unknown"
}

// Session identifies the signed-in reader.
type Session interface {
	AccountID() string
	Active() bool
}

// ProgressRecorder persists progress marks.
type ProgressRecorder interface {
	Upsert(ctx context.Context, accountID, catalogEntryID, chapterID string, lastPageReached int) (*entities.ProgressMark, error)
}

// ProgressStore is a ProgressRecorder that can also read marks back.
type ProgressStore interface {
	ProgressRecorder
	Get(ctx context.Context, accountID, chapterID string) (*entities.ProgressMark, bool, error)
}

// Tracker observes one chapter at a time for one reader.
type Tracker struct {
	recorder ProgressRecorder

	mu    sync.Mutex
	state State
	subs  []Subscription
	stop  chan struct{}
	wg    sync.WaitGroup
}

// NewTracker creates an idle Tracker.
func NewTracker(recorder ProgressRecorder) *Tracker {
	return &Tracker{recorder: recorder}
}

// State returns the current lifecycle state.
func (t *Tracker) State() State {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state
}

// Enter starts observing chapter. With no session, or for a document-form
// chapter, there is nothing to track: the tracker stays Idle and Enter
// returns nil.
func (t *Tracker) Enter(ctx context.Context, session Session, chapter *entities.Chapter, source VisibilitySource) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.state == Observing {
		return ErrAlreadyObserving
	}
	if session == nil || chapter.IsDocumentForm || chapter.PageCount == 0 {
		return nil
	}
	if !session.Active() {
		return ErrSessionInactive
	}

	t.stop = make(chan struct{})
	t.subs = make([]Subscription, 0, chapter.PageCount)
	crossings := make(chan Crossing)
	for i := range chapter.PageCount {
		sub := source.Observe(i)
		t.subs = append(t.subs, sub)
		t.wg.Add(1)
		go t.forward(t.stop, sub, crossings)
	}

	t.wg.Add(1)
	go t.consume(context.WithoutCancel(ctx), t.stop, session, *chapter, crossings)

	t.state = Observing
	slog.DebugContext(ctx, "tracking progress", "chapter_id", chapter.ID, "pages", chapter.PageCount)
	return nil
}

func (t *Tracker) forward(stop <-chan struct{}, sub Subscription, out chan<- Crossing) {
	defer t.wg.Done()
	for {
		select {
		case <-stop:
			return
		case c := <-sub.C():
			select {
			case out <- c:
			case <-stop:
				return
			}
		}
	}
}

// consume writes marks one at a time. Crossings from different pages can
// arrive out of order; a sequenced crossing older than the last one written
// is dropped, so the mark ends on the page reported last.
func (t *Tracker) consume(ctx context.Context, stop <-chan struct{}, session Session, chapter entities.Chapter, in <-chan Crossing) {
	defer t.wg.Done()
	var lastSeq uint64
	for {
		select {
		case <-stop:
			return
		case c := <-in:
			if !c.Visible {
				continue
			}
			if c.Seq != 0 {
				if c.Seq <= lastSeq {
					slog.DebugContext(ctx, "skipping superseded crossing", "chapter_id", chapter.ID, "page", c.PageIndex+1)
					continue
				}
				lastSeq = c.Seq
			}
			if !session.Active() {
				slog.WarnContext(ctx, "dropping progress for closed session", "chapter_id", chapter.ID, "page", c.PageIndex+1)
				continue
			}
			_, err := t.recorder.Upsert(ctx, session.AccountID(), chapter.CatalogEntryID, chapter.ID, c.PageIndex+1)
			if err != nil {
				slog.ErrorContext(ctx, "failed to save reading progress",
					"chapter_id", chapter.ID, "page", c.PageIndex+1, "error", err)
			}
		}
	}
}

// Leave stops observing and waits for the write in flight, if any. Crossings
// not yet consumed are discarded. Leave on an idle tracker does nothing.
func (t *Tracker) Leave() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.state != Observing {
		return
	}
	close(t.stop)
	for _, sub := range t.subs {
		sub.Cancel()
	}
	t.wg.Wait()
	t.subs = nil
	t.state = Idle
}

// ResumePage returns the page the reader should be put back on: the last page
// reached, or 1 for an unread chapter or an anonymous reader.
func ResumePage(ctx context.Context, store ProgressStore, session Session, chapterID string) (int, error) {
	if session == nil {
		return 1, nil
	}
	mark, ok, err := store.Get(ctx, session.AccountID(), chapterID)
	if err != nil {
		return 0, err
	}
	if !ok || mark.LastPageReached < 1 {
		return 1, nil
	}
	return mark.LastPageReached, nil
}

package progress

import "sync"

// DefaultThreshold is the visible fraction at which a page counts as seen.
const DefaultThreshold = 0.5

// Crossing reports that a page moved across the visibility threshold.
//
// Seq orders crossings across all pages of one source, starting at 1. A
// source that cannot order its crossings leaves Seq at zero.
type Crossing struct {
	PageIndex int // 0-based position of the page in the chapter
	Visible   bool
	Seq       uint64
}

// Subscription delivers the crossings of one observed page until canceled.
type Subscription interface {
	C() <-chan Crossing
	// Cancel stops delivery. It is safe to call more than once.
	Cancel()
}

// VisibilitySource is anything that can tell when pages become visible:
// a rendering viewport, a test driver, a replayed log.
type VisibilitySource interface {
	Observe(pageIndex int) Subscription
}

// Viewport is an in-process VisibilitySource fed with visible ratios by
// whatever renders the pages.
type Viewport struct {
	Threshold float64

	mu      sync.Mutex
	seq     uint64
	visible map[int]bool
	subs    map[int]map[*viewportSub]struct{}
}

// NewViewport returns a Viewport using DefaultThreshold.
func NewViewport() *Viewport {
	return &Viewport{
		Threshold: DefaultThreshold,
		visible:   make(map[int]bool),
		subs:      make(map[int]map[*viewportSub]struct{}),
	}
}

type viewportSub struct {
	v    *Viewport
	page int
	ch   chan Crossing
	done chan struct{}
	once sync.Once
}

func (s *viewportSub) C() <-chan Crossing { return s.ch }

func (s *viewportSub) Cancel() {
	s.once.Do(func() {
		close(s.done)
		s.v.mu.Lock()
		delete(s.v.subs[s.page], s)
		s.v.mu.Unlock()
	})
}

// Observe subscribes to crossings of pageIndex.
func (v *Viewport) Observe(pageIndex int) Subscription {
	s := &viewportSub{
		v:    v,
		page: pageIndex,
		ch:   make(chan Crossing, 8),
		done: make(chan struct{}),
	}
	v.mu.Lock()
	if v.subs[pageIndex] == nil {
		v.subs[pageIndex] = make(map[*viewportSub]struct{})
	}
	v.subs[pageIndex][s] = struct{}{}
	v.mu.Unlock()
	return s
}

// Report records that ratio of the page is now visible. Subscribers are
// notified only when the page crosses Threshold in either direction. Report
// blocks until every live subscriber has accepted the crossing.
func (v *Viewport) Report(pageIndex int, ratio float64) {
	v.mu.Lock()
	now := ratio >= v.Threshold
	if v.visible[pageIndex] == now {
		v.mu.Unlock()
		return
	}
	v.visible[pageIndex] = now
	v.seq++
	c := Crossing{PageIndex: pageIndex, Visible: now, Seq: v.seq}
	targets := make([]*viewportSub, 0, len(v.subs[pageIndex]))
	for s := range v.subs[pageIndex] {
		targets = append(targets, s)
	}
	v.mu.Unlock()

	for _, s := range targets {
		select {
		case s.ch <- c:
		case <-s.done:
		}
	}
}

// ScrollTo makes pageIndex fully visible and every other known page hidden,
// the way a reader jumping to a page would.
func (v *Viewport) ScrollTo(pageIndex int) {
	v.mu.Lock()
	var shown []int
	for p, vis := range v.visible {
		if vis && p != pageIndex {
			shown = append(shown, p)
		}
	}
	v.mu.Unlock()

	for _, p := range shown {
		v.Report(p, 0)
	}
	v.Report(pageIndex, 1)
}

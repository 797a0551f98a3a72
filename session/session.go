package session

import (
	"time"

	"github.com/SaiNageswarS/vidya-core/locale"
)

// Menu state tags, set by the telephony layer as the caller navigates.
const (
	MenuMain     = "main_menu"
	MenuLanguage = "language_select"
	MenuQuestion = "asking_question"
)

// Turn is one answered question in a session's bounded history.
type Turn struct {
	Question string
	Answer   string
	AskedAt  time.Time
}

// StageTimings accumulates elapsed time per pipeline stage. A Session sums
// the timings of every run it served; each run also reports its own.
type StageTimings struct {
	Transcribe time.Duration
	CacheCheck time.Duration
	Retrieve   time.Duration
	Generate   time.Duration
	Synthesize time.Duration
	Total      time.Duration
}

func (t *StageTimings) Add(other StageTimings) {
	t.Transcribe += other.Transcribe
	t.CacheCheck += other.CacheCheck
	t.Retrieve += other.Retrieve
	t.Generate += other.Generate
	t.Synthesize += other.Synthesize
	t.Total += other.Total
}

// Session is the per-caller state for one phone call. Owned by the Store;
// callers receive value snapshots and mutate only through Store methods.
type Session struct {
	ID         string
	Language   locale.Language
	Menu       string
	History    []Turn
	CreatedOn  time.Time
	LastActive time.Time
	Timings    StageTimings
}

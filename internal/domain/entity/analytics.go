package entity

import "time"

// Ranking periods accepted by the analytics store.
const (
	PeriodToday = "today"
	Period7d    = "7d"
	Period30d   = "30d"
	PeriodAll   = "all"
)

// ValidPeriod reports whether p is a supported ranking period.
func ValidPeriod(p string) bool {
	switch p {
	case PeriodToday, Period7d, Period30d, PeriodAll:
		return true
	}
	return false
}

// GenreOther is the catch-all genre used when classification fails or
// returns something outside the taxonomy.
const GenreOther = "other"

// Genres is the fixed topical taxonomy keywords are classified into.
var Genres = []string{
	"culture",
	"geography",
	"history",
	"food",
	"nature",
	"people",
	"events",
	"language",
	GenreOther,
}

// KnownGenre reports whether g belongs to the taxonomy.
func KnownGenre(g string) bool {
	for _, known := range Genres {
		if g == known {
			return true
		}
	}
	return false
}

// KeywordCount is one row of the keyword ranking.
type KeywordCount struct {
	Keyword string `json:"keyword"`
	Count   int64  `json:"count"`
	Genre   string `json:"genre"`
}

// DailyCount is the number of recorded requests for one calendar day (UTC).
type DailyCount struct {
	Date  string `json:"date"`
	Count int64  `json:"count"`
}

// CachedAnswer is a previously accepted answer served from the semantic
// cache.
type CachedAnswer struct {
	Keyword   string
	Text      string
	Model     string
	CreatedAt time.Time
}

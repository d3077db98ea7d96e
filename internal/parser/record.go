package parser

import (
	"regexp"
	"strings"
	"time"
)

// Record is one parsed access-log line, normalized for crawl analysis.
// Records are immutable once produced; the derived fields (Date, Hour,
// IsHTML, FileExt) are computed from the validated fields at parse time
// and are never updated independently.
type Record struct {
	ClientIP  string
	Timestamp time.Time
	Method    string
	Path      string
	Status    int
	Bytes     int64
	Referer   string
	UserAgent string

	// BotType is the matched bot name, or "" for non-bot traffic.
	BotType string
	IsBot   bool

	// Date is the local calendar date of Timestamp, formatted YYYY-MM-DD.
	// The rendering sorts lexicographically in date order.
	Date string
	// Hour is the local hour of day, 0-23.
	Hour int
	// IsHTML reports whether Path looks like a page (ends in .html, .htm or /).
	IsHTML bool
	// FileExt is the trailing lowercase file extension of Path without the
	// dot, or "" when the path has no such suffix.
	FileExt string
}

var fileExtRe = regexp.MustCompile(`\.([a-z0-9]+)$`)

// deriveFields fills the analysis columns from the already-validated
// timestamp and path.
func (r *Record) deriveFields() {
	r.Date = r.Timestamp.Format("2006-01-02")
	r.Hour = r.Timestamp.Hour()
	r.IsHTML = strings.HasSuffix(r.Path, ".html") ||
		strings.HasSuffix(r.Path, ".htm") ||
		strings.HasSuffix(r.Path, "/")
	if m := fileExtRe.FindStringSubmatch(r.Path); m != nil {
		r.FileExt = m[1]
	}
}

package engine

import (
	"fmt"
	"time"
)

// =============================================================================
// RECORD DATES - One parser for every date read from persisted records
// =============================================================================

// RecordTimeLayout is the encoding written for new records. It matches the
// timestamp variant that older stores already contain, so files written by
// previous tooling and by this engine stay mutually readable.
const RecordTimeLayout = "2006-01-02 15:04"

// recordDateLayouts are tried in this fixed order; the first that parses
// wins. RFC3339 is accepted ahead of the historical encodings.
var recordDateLayouts = []string{
	time.RFC3339,
	RecordTimeLayout,
	"2006-01-02",
	"02/01/2006",
}

// ParseRecordDate interprets a date string found in a persisted record.
// Historical stores mix several encodings; this is the single place that
// understands all of them.
func ParseRecordDate(s string) (time.Time, error) {
	for _, layout := range recordDateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized date %q", s)
}

// FormatRecordDate renders a time in the canonical persisted encoding.
func FormatRecordDate(t time.Time) string {
	return t.Format(RecordTimeLayout)
}

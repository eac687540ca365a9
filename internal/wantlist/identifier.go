package wantlist

import "strings"

// MaxIDDigits is the longest token accepted as a Discogs release id.
const MaxIDDigits = 8

// yearMarkers are the century prefixes of a release year.
var yearMarkers = []string{"19", "20"}

// Recovery is the outcome of looking for a release id in a line.
type Recovery struct {
	ID    string
	Found bool
	// Scanned is true when the nominal release_id field was unusable and
	// the other fields were searched instead.
	Scanned bool
	// Candidates counts the qualifying fields seen during the scan.
	Candidates int
}

// Ambiguous reports whether a scan found no candidate or more than one.
func (r Recovery) Ambiguous() bool {
	return r.Scanned && r.Candidates != 1
}

// RecoverID returns candidate when it is a usable release id, otherwise the
// last field of fields that looks like one.
func RecoverID(candidate string, fields []string) (string, bool) {
	r := Recover(candidate, fields)
	return r.ID, r.Found
}

// Recover is RecoverID with scan details. The scan does not stop at the
// first match: the last qualifying field wins.
func Recover(candidate string, fields []string) Recovery {
	if isDigits(candidate) && len(candidate) <= MaxIDDigits {
		return Recovery{ID: candidate, Found: true}
	}

	r := Recovery{Scanned: true}
	for _, f := range fields {
		f = strings.TrimSpace(f)
		if !LooksLikeID(f) {
			continue
		}
		r.ID = f
		r.Found = true
		r.Candidates++
	}
	return r
}

// LooksLikeID reports whether a field can stand in for a missing release id.
//
// The year rule compares the first character of the token against the
// two-character year markers, so the marker half of the test never matches
// and any 4-digit token is rejected regardless of its prefix. This is the
// long-standing import behavior and is kept as is.
func LooksLikeID(token string) bool {
	if !isDigits(token) || len(token) > MaxIDDigits {
		return false
	}
	return len(token) != 4 && !hasYearMarker(token[0:1])
}

func hasYearMarker(prefix string) bool {
	for _, m := range yearMarkers {
		if prefix == m {
			return true
		}
	}
	return false
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

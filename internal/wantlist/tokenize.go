package wantlist

import "strings"

// Field positions in a Discogs wantlist/collection export line:
// Catalog#, Artist, Title, Label, Format, Rating, Released, release_id, Notes.
const (
	FieldCatalog   = 0
	FieldArtist    = 1
	FieldTitle     = 2
	FieldLabel     = 3
	FieldFormat    = 4
	FieldRating    = 5
	FieldReleased  = 6
	FieldReleaseID = 7
	FieldNotes     = 8
)

const quoteChar = '"'

// discSizeReplacer rewrites the 7" and 12" disc-size notation before the
// quote scan; the doubled quote would otherwise flip the quote state.
var discSizeReplacer = strings.NewReplacer(`"7""`, `"7inch`, `"12""`, `"12inch`)

// collaboratorWords end the primary artist name: "The Band with Joe Smith"
// is searched as "The Band".
var collaboratorWords = map[string]struct{}{
	"Featuring": {}, "featuring": {},
	"with": {}, "With": {},
	"con": {}, "Con": {},
	"Y": {}, "y": {},
	"et": {}, "Et": {},
}

// Tokenizer splits raw export lines into fields.
type Tokenizer struct {
	Delimiter rune
	// KeepQuotes copies quote characters into the fields instead of
	// stripping them. By default `"B,C"` yields BC; with KeepQuotes it
	// yields `"BC"`.
	// Delimiters inside quotes are dropped either way.
	KeepQuotes bool
}

// Tokenize splits line on delimiter with the default Tokenizer settings.
func Tokenize(line string, delimiter rune) []string {
	return Tokenizer{Delimiter: delimiter}.Tokenize(line)
}

// Tokenize splits one raw line into ordered fields. Delimiters inside a
// quoted span are removed rather than treated as separators, whitespace is
// collapsed and the artist field is simplified with NormalizeArtist.
//
// Quote tracking is plain parity: an unbalanced quote leaves the rest of
// the line quoted.
func (t Tokenizer) Tokenize(line string) []string {
	line = discSizeReplacer.Replace(line)

	var b strings.Builder
	b.Grow(len(line))
	inQuotes := false
	for _, r := range line {
		if r == quoteChar {
			inQuotes = !inQuotes
			if t.KeepQuotes {
				b.WriteRune(r)
			}
			continue
		}
		if r == t.Delimiter && inQuotes {
			continue
		}
		b.WriteRune(r)
	}

	collapsed := collapseSpace(b.String())
	fields := strings.Split(collapsed, string(t.Delimiter))
	if len(fields) > FieldArtist {
		fields[FieldArtist] = NormalizeArtist(fields[FieldArtist])
	}
	return fields
}

// NormalizeArtist strips Discogs disambiguation indices such as "(3)" and
// truncates the name at the first collaborator word.
func NormalizeArtist(artist string) string {
	words := strings.Fields(artist)
	kept := make([]string, 0, len(words))
	for _, w := range words {
		if _, ok := collaboratorWords[w]; ok {
			break
		}
		if isDisambiguation(w) {
			continue
		}
		kept = append(kept, w)
	}
	return strings.Join(kept, " ")
}

// Field returns fields[i], or "" when the line was too short to have it.
func Field(fields []string, i int) string {
	if i < 0 || i >= len(fields) {
		return ""
	}
	return strings.TrimSpace(fields[i])
}

func isDisambiguation(word string) bool {
	if len(word) < 3 || word[0] != '(' || word[len(word)-1] != ')' {
		return false
	}
	return isDigits(word[1 : len(word)-1])
}

func collapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

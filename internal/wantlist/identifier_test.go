package wantlist

import "testing"

func TestRecover_NominalFieldValid(t *testing.T) {
	for _, id := range []string{"1", "123456", "12345678"} {
		got, found := RecoverID(id, []string{"x", "999"})
		if !found || got != id {
			t.Errorf("RecoverID(%q) = (%q, %v), want (%q, true)", id, got, found, id)
		}
	}
}

func TestRecover_ScansWhenNominalInvalid(t *testing.T) {
	tests := []struct {
		name       string
		candidate  string
		fields     []string
		want       string
		found      bool
		candidates int
	}{
		{
			name:       "non-numeric nominal, last qualifying wins",
			candidate:  "Notes here",
			fields:     []string{"CAT1", "Artist", "111", "Label", "222", "", "1999", "Notes here"},
			want:       "222",
			found:      true,
			candidates: 2,
		},
		{
			name:       "too long nominal",
			candidate:  "123456789",
			fields:     []string{"123456789", "55"},
			want:       "55",
			found:      true,
			candidates: 1,
		},
		{
			name:      "only years",
			candidate: "",
			fields:    []string{"A", "B", "1997", "2004"},
			want:      "",
			found:     false,
		},
		{
			name:      "nothing numeric",
			candidate: "",
			fields:    []string{"A", "B"},
			want:      "",
			found:     false,
		},
		{
			name:       "padded field trimmed",
			candidate:  "",
			fields:     []string{"A", " 4242 ", " 31337 "},
			want:       "31337",
			found:      true,
			candidates: 1,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := Recover(tt.candidate, tt.fields)
			if r.ID != tt.want || r.Found != tt.found {
				t.Errorf("Recover = (%q, %v), want (%q, %v)", r.ID, r.Found, tt.want, tt.found)
			}
			if !r.Scanned {
				t.Error("expected Scanned")
			}
			if r.Candidates != tt.candidates {
				t.Errorf("Candidates = %d, want %d", r.Candidates, tt.candidates)
			}
		})
	}
}

func TestRecover_Ambiguous(t *testing.T) {
	if Recover("42", nil).Ambiguous() {
		t.Error("a valid nominal id is never ambiguous")
	}
	if !Recover("", []string{"1", "2"}).Ambiguous() {
		t.Error("two candidates should be ambiguous")
	}
	if !Recover("", []string{"x"}).Ambiguous() {
		t.Error("zero candidates should be ambiguous")
	}
	if Recover("", []string{"x", "7"}).Ambiguous() {
		t.Error("a single candidate is not ambiguous")
	}
}

func TestLooksLikeID(t *testing.T) {
	tests := map[string]bool{
		"1":         true,
		"123":       true,
		"12345":     true,
		"12345678":  true,
		"123456789": false,
		"1999":      false,
		"2020":      false,
		"5555":      false,
		"0042":      false,
		"19":        true,
		"20123":     true,
		"":          false,
		"12a":       false,
		"-12":       false,
	}
	for tok, want := range tests {
		if got := LooksLikeID(tok); got != want {
			t.Errorf("LooksLikeID(%q) = %v, want %v", tok, got, want)
		}
	}
}

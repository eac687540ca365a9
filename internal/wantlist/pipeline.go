package wantlist

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/sydlexius/wantsync/internal/diag"
)

// headerMarkers must all appear in a line for it to be treated as the
// export's header row.
var headerMarkers = []string{"Catalog", "Artist", "Title"}

// maxLineSize bounds a single input line.
const maxLineSize = 1 << 20

// IsHeader reports whether line looks like an export header row.
func IsHeader(line string) bool {
	for _, m := range headerMarkers {
		if !strings.Contains(line, m) {
			return false
		}
	}
	return true
}

// Options configures a Pipeline.
type Options struct {
	Delimiter  rune
	Format     string
	Direction  Direction
	KeepQuotes bool
}

// LineResult is everything learned about one processed line.
type LineResult struct {
	LineNo   int
	Raw      string
	Artist   string
	Title    string
	Recovery Recovery
	Match    MatchResult
	Outcomes []Outcome
}

// Failed counts the outcomes that did not apply.
func (r LineResult) Failed() int {
	n := 0
	for _, o := range r.Outcomes {
		if o.Status == OutcomeFailed {
			n++
		}
	}
	return n
}

// Recorder persists line results, e.g. to the run history.
type Recorder interface {
	RecordLine(ctx context.Context, r LineResult) error
}

// Summary totals one run.
type Summary struct {
	LinesRead      int
	LinesSkipped   int
	LinesProcessed int
	LinesResolved  int
	EntriesApplied int
	EntriesFailed  int
	Tiers          map[Tier]int
}

func (s *Summary) add(r LineResult) {
	s.LinesProcessed++
	s.Tiers[r.Match.Tier]++
	if !r.Match.Empty() {
		s.LinesResolved++
	}
	failed := r.Failed()
	s.EntriesFailed += failed
	s.EntriesApplied += len(r.Outcomes) - failed
}

// Pipeline imports a delimited file line by line, strictly in order.
type Pipeline struct {
	session   *Session
	opts      Options
	tokenizer Tokenizer
	matcher   *Matcher
	syncer    *Syncer
	recorder  Recorder
	logger    *slog.Logger
}

// NewPipeline creates a Pipeline for the session.
func NewPipeline(session *Session, opts Options, logger *slog.Logger) *Pipeline {
	if opts.Delimiter == 0 {
		opts.Delimiter = ','
	}
	if opts.Direction == "" {
		opts.Direction = DirectionAdd
	}
	return &Pipeline{
		session:   session,
		opts:      opts,
		tokenizer: Tokenizer{Delimiter: opts.Delimiter, KeepQuotes: opts.KeepQuotes},
		matcher:   NewMatcher(session, logger),
		syncer:    NewSyncer(session, logger),
		logger:    logger.With(slog.String("component", "pipeline")),
	}
}

// SetRecorder attaches a Recorder that receives every processed line.
func (p *Pipeline) SetRecorder(r Recorder) {
	p.recorder = r
}

// RunFile opens path and runs the import over it.
func (p *Pipeline) RunFile(ctx context.Context, path string) (Summary, error) {
	f, err := os.Open(path) //nolint:gosec // G304: path supplied by the user
	if err != nil {
		return Summary{Tiers: map[Tier]int{}}, fmt.Errorf("opening input file: %w", err)
	}
	defer f.Close() //nolint:errcheck
	return p.Run(ctx, f)
}

// Run processes every line of r. Per-line problems are reported as
// diagnostics and never stop the run; only a read error or ctx
// cancellation does.
func (p *Pipeline) Run(ctx context.Context, r io.Reader) (Summary, error) {
	sum := Summary{Tiers: make(map[Tier]int, len(Tiers()))}

	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), maxLineSize)

	lineNo := 0
	for sc.Scan() {
		lineNo++
		sum.LinesRead++
		raw := sc.Text()

		if strings.TrimSpace(raw) == "" || IsHeader(raw) {
			sum.LinesSkipped++
			p.logger.Debug("skipping line", slog.Int("line", lineNo))
			continue
		}

		if err := p.session.pacer().Wait(ctx); err != nil {
			return sum, err
		}

		res := p.processLine(ctx, lineNo, raw)
		sum.add(res)

		if p.recorder != nil {
			if err := p.recorder.RecordLine(ctx, res); err != nil {
				p.logger.Warn("recording line result", slog.Int("line", lineNo), slog.Any("error", err))
			}
		}
	}
	if err := sc.Err(); err != nil {
		return sum, fmt.Errorf("reading input: %w", err)
	}

	p.logger.Info("import finished",
		slog.Int("lines_read", sum.LinesRead),
		slog.Int("lines_resolved", sum.LinesResolved),
		slog.Int("entries_applied", sum.EntriesApplied),
		slog.Int("entries_failed", sum.EntriesFailed))
	return sum, nil
}

// ProcessLine resolves and applies a single line outside of a file run.
func (p *Pipeline) ProcessLine(ctx context.Context, raw string) LineResult {
	return p.processLine(ctx, 0, raw)
}

func (p *Pipeline) processLine(ctx context.Context, lineNo int, raw string) LineResult {
	sink := p.session.sink()
	line := strings.TrimSpace(raw)

	fields := p.tokenizer.Tokenize(raw)
	res := LineResult{
		LineNo: lineNo,
		Raw:    line,
		Artist: Field(fields, FieldArtist),
		Title:  Field(fields, FieldTitle),
	}

	// Stray delimiters shift release_id past its nominal column; Recover
	// looks for it elsewhere in the line.
	res.Recovery = Recover(Field(fields, FieldReleaseID), fields)
	switch {
	case !res.Recovery.Found:
		sink.Append(diag.Warning, "release_id not found for line: "+line)
	case res.Recovery.Ambiguous():
		sink.Append(diag.Warning, fmt.Sprintf("%d possible release_id values for line, using '%s': %s",
			res.Recovery.Candidates, res.Recovery.ID, line))
	}

	res.Match = p.matcher.Match(ctx, Query{
		Artist:  res.Artist,
		Title:   res.Title,
		ID:      res.Recovery.ID,
		IDFound: res.Recovery.Found,
		Format:  p.opts.Format,
		Fields:  fields,
		Line:    line,
	})

	if !res.Match.Empty() {
		res.Outcomes = p.syncer.Apply(ctx, res.Match.Entries, p.opts.Direction)
	}
	return res
}

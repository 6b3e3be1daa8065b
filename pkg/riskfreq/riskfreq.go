// Package riskfreq ranks the words of one narrative section of annual
// filings, one ranking per fiscal year.
//
// The Engine ties the pieces together: a source fetches each filing, the
// ingest pipeline finds the section and counts its words, and a sink
// persists the ranking. Documents are processed strictly one at a time.
package riskfreq

import (
	"context"
	"crypto/rand"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/cognicore/riskfreq/pkg/riskfreq/ingest"
	"github.com/cognicore/riskfreq/pkg/riskfreq/internalerr"
	"github.com/cognicore/riskfreq/pkg/riskfreq/metrics"
	"github.com/cognicore/riskfreq/pkg/riskfreq/report"
	"github.com/cognicore/riskfreq/pkg/riskfreq/source"
	"github.com/cognicore/riskfreq/pkg/riskfreq/store"
)

// RankedEntry is one (year, word, count) row of a result.
type RankedEntry = store.Entry

// Result is the ranking of one document.
type Result struct {
	RunID          string
	Year           int
	Source         string
	Status         ingest.Status
	Entries        []RankedEntry
	SectionLines   int
	FalsePositives int
	Tokens         int
}

// Ranking converts r for persistence.
func (r Result) Ranking() store.Ranking {
	return store.Ranking{
		RunID:     r.RunID,
		Year:      r.Year,
		Source:    r.Source,
		Status:    r.Status.String(),
		CreatedAt: time.Now().UTC(),
		Entries:   r.Entries,
	}
}

// Filing is one document in a run.
type Filing struct {
	Year     int
	Location string
}

// FetchFailure records a filing that could not be fetched.
type FetchFailure struct {
	Year     int
	Location string
	Err      error
}

// RunReport summarizes a Run.
type RunReport struct {
	RunID   string
	Results []Result
	Failed  []FetchFailure
}

// Options configures an Engine.
type Options struct {
	Pipeline *ingest.Pipeline

	// Sink receives every result, including NotFound ones. Optional.
	Sink store.Sink

	// Fetcher resolves filing locations for Run. Defaults to source.Router
	// with a plain HTTP fetcher.
	Fetcher source.Fetcher

	// Prefetch is how many filings may be downloaded concurrently ahead of
	// processing. Processing itself is always sequential.
	Prefetch int

	// Preview, when set, receives a top-N table per result.
	Preview io.Writer
	TopN    int

	Metrics *metrics.Metrics
	Logger  *slog.Logger
}

// Engine processes filings.
type Engine struct {
	pipeline *ingest.Pipeline
	sink     store.Sink
	fetcher  source.Fetcher
	prefetch int
	preview  io.Writer
	topN     int
	metrics  *metrics.Metrics
	logger   *slog.Logger

	mu      sync.Mutex
	entropy *ulid.MonotonicEntropy
}

// New creates an Engine.
func New(opts Options) *Engine {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	fetcher := opts.Fetcher
	if fetcher == nil {
		fetcher = source.Router{Remote: source.NewHTTPFetcher(source.HTTPOptions{Logger: logger})}
	}
	prefetch := opts.Prefetch
	if prefetch <= 0 {
		prefetch = 1
	}
	return &Engine{
		pipeline: opts.Pipeline,
		sink:     opts.Sink,
		fetcher:  fetcher,
		prefetch: prefetch,
		preview:  opts.Preview,
		topN:     opts.TopN,
		metrics:  opts.Metrics,
		logger:   logger.With("component", "engine"),
		entropy:  ulid.Monotonic(rand.Reader, 0),
	}
}

func (e *Engine) newID() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return ulid.MustNew(ulid.Now(), e.entropy).String()
}

// Process ranks one document with a fresh run ID.
func (e *Engine) Process(ctx context.Context, doc ingest.Doc) (Result, error) {
	return e.process(ctx, e.newID(), doc)
}

func (e *Engine) process(ctx context.Context, runID string, doc ingest.Doc) (Result, error) {
	start := time.Now()
	out, err := e.pipeline.Process(ctx, doc)
	if err != nil {
		return Result{}, err
	}
	if e.metrics != nil {
		e.metrics.ObserveDocument(out, time.Since(start))
	}

	res := Result{
		RunID:          runID,
		Year:           out.Year,
		Source:         out.Source,
		Status:         out.Status,
		SectionLines:   out.SectionLines,
		FalsePositives: out.FalsePositives,
		Tokens:         out.Tokens,
		Entries:        make([]RankedEntry, len(out.Ranked)),
	}
	for i, c := range out.Ranked {
		res.Entries[i] = RankedEntry{Year: out.Year, Word: c.Word, Count: c.Count}
	}

	log := e.logger.With("year", res.Year, "source", res.Source)
	switch res.Status {
	case ingest.NotFound:
		log.Warn("section not found", "false_positives", res.FalsePositives)
	case ingest.Unterminated:
		log.Warn("section end marker not found, counted to end of document",
			"lines", res.SectionLines, "words", len(res.Entries))
	default:
		log.Info("section processed",
			"lines", res.SectionLines, "words", len(res.Entries), "tokens", res.Tokens,
			"false_positives", res.FalsePositives)
	}

	ranking := res.Ranking()
	if e.sink != nil {
		if err := e.sink.SaveRanking(ctx, ranking); err != nil {
			return Result{}, fmt.Errorf("save ranking for %d: %w", res.Year, err)
		}
	}
	if e.preview != nil {
		if err := report.WriteTop(e.preview, ranking, e.topN); err != nil {
			return Result{}, fmt.Errorf("write preview: %w", err)
		}
	}
	return res, nil
}

// Run fetches every filing and processes them in order under one run ID.
// Fetch failures are logged and reported; sink failures and cancellation
// abort the run.
func (e *Engine) Run(ctx context.Context, filings []Filing) (RunReport, error) {
	rep := RunReport{RunID: e.newID()}
	log := e.logger.With("run_id", rep.RunID)

	locations := make([]string, len(filings))
	for i, f := range filings {
		if f.Year <= 0 || strings.TrimSpace(f.Location) == "" {
			return rep, fmt.Errorf("%w: filing %d needs a year and a location", internalerr.ErrInvalidInput, i)
		}
		locations[i] = f.Location
	}

	log.Info("run started", "filings", len(filings))
	fetched, err := source.Prefetch(ctx, e.fetcher, locations, e.prefetch)
	if err != nil {
		return rep, err
	}

	for i, f := range filings {
		if err := fetched[i].Err; err != nil {
			log.Error("fetch failed", "year", f.Year, "location", f.Location, "error", err)
			if e.metrics != nil {
				e.metrics.FetchFailed()
			}
			rep.Failed = append(rep.Failed, FetchFailure{Year: f.Year, Location: f.Location, Err: err})
			continue
		}

		res, err := e.process(ctx, rep.RunID, ingest.NewTextDoc(f.Year, f.Location, fetched[i].Text))
		if err != nil {
			return rep, err
		}
		rep.Results = append(rep.Results, res)
	}

	log.Info("run finished", "processed", len(rep.Results), "failed", len(rep.Failed))
	return rep, nil
}

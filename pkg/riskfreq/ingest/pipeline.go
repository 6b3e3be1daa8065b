package ingest

import (
	"bufio"
	"context"
	"fmt"
	"log/slog"

	"github.com/cognicore/riskfreq/pkg/riskfreq/freq"
	"github.com/cognicore/riskfreq/pkg/riskfreq/internalerr"
	"github.com/cognicore/riskfreq/pkg/riskfreq/normalize"
	"github.com/cognicore/riskfreq/pkg/riskfreq/scan"
)

// maxLineBytes bounds a single line. Filing text extracted from HTML can put a
// whole table on one line; anything past the bound is dropped.
const maxLineBytes = 4 << 20

// ctxCheckEvery is how many lines are read between context checks.
const ctxCheckEvery = 1024

// Status says how the section scan ended.
type Status int

const (
	// NotFound means no confirmed heading was seen.
	NotFound Status = iota
	// Terminated means the end marker closed the section.
	Terminated
	// Unterminated means the document ended inside the section.
	Unterminated
)

func (s Status) String() string {
	switch s {
	case NotFound:
		return "not_found"
	case Terminated:
		return "terminated"
	case Unterminated:
		return "unterminated"
	default:
		return "unknown"
	}
}

// ParseStatus is the inverse of Status.String.
func ParseStatus(s string) (Status, error) {
	switch s {
	case "not_found":
		return NotFound, nil
	case "terminated":
		return Terminated, nil
	case "unterminated":
		return Unterminated, nil
	}
	return NotFound, fmt.Errorf("%w: unknown status %q", internalerr.ErrInvalidInput, s)
}

// Pipeline orchestrates the per-document flow:
// line normalization → section scanning → tokenization → counting → ranking
type Pipeline struct {
	normalizer *normalize.Normalizer
	tokenizer  *Tokenizer
	heading    scan.Marker
	end        scan.Marker
	logger     *slog.Logger
}

// NewPipeline creates a pipeline with the given components
func NewPipeline(normalizer *normalize.Normalizer, tokenizer *Tokenizer, heading, end scan.Marker) *Pipeline {
	return &Pipeline{
		normalizer: normalizer,
		tokenizer:  tokenizer,
		heading:    heading,
		end:        end,
		logger:     slog.Default().With("component", "pipeline"),
	}
}

// SetLogger replaces the pipeline logger.
func (p *Pipeline) SetLogger(l *slog.Logger) {
	if l != nil {
		p.logger = l.With("component", "pipeline")
	}
}

// ProcessedDoc is the outcome of scanning one document.
type ProcessedDoc struct {
	Year           int
	Source         string
	Status         Status
	Ranked         []freq.Count
	SectionLines   int
	FalsePositives int
	Tokens         int
}

// Process scans one document. Scanner and table are created per call, so
// concurrent calls on the same pipeline do not share counting state; the
// tokenizer's observer must tolerate that if set.
func (p *Pipeline) Process(ctx context.Context, doc Doc) (ProcessedDoc, error) {
	if err := doc.Validate(); err != nil {
		return ProcessedDoc{}, fmt.Errorf("%w: %v", internalerr.ErrInvalidInput, err)
	}

	log := p.logger.With("year", doc.Year, "source", doc.Source)
	scanner := scan.New(p.heading, p.end)
	table := freq.NewTable()
	stopped := false

	lines := bufio.NewScanner(doc.Body)
	lines.Buffer(make([]byte, 0, 64*1024), maxLineBytes)
	lines.Split(splitLines(maxLineBytes))

	for n := 0; lines.Scan(); n++ {
		if n%ctxCheckEvery == 0 {
			if err := ctx.Err(); err != nil {
				return ProcessedDoc{}, err
			}
		}

		line, ok := p.normalizer.Line(lines.Text())
		if !ok {
			continue
		}

		switch scanner.Step(line) {
		case scan.Begin:
			table.Reset()
			log.Debug("section heading matched", "line", n+1)
		case scan.Reject:
			log.Debug("heading was a table of contents entry, continuing to search", "line", n+1)
		case scan.Content:
			for _, w := range p.tokenizer.Tokenize(line) {
				table.Record(w)
			}
		case scan.Stop:
			log.Debug("section end marker matched", "line", n+1)
			stopped = true
		}
		if stopped {
			break
		}
	}
	if err := lines.Err(); err != nil {
		return ProcessedDoc{}, fmt.Errorf("read %s: %w", doc.Source, err)
	}

	out := ProcessedDoc{
		Year:           doc.Year,
		Source:         doc.Source,
		Status:         statusOf(scanner.State()),
		SectionLines:   scanner.Lines(),
		FalsePositives: scanner.FalsePositives(),
	}
	if out.Status != NotFound {
		out.Ranked = table.Rank()
		out.Tokens = table.Total()
	}
	table.Reset()

	return out, nil
}

func statusOf(s scan.State) Status {
	switch s {
	case scan.Done:
		return Terminated
	case scan.Accumulating:
		return Unterminated
	default:
		return NotFound
	}
}

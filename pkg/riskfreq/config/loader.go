package config

import (
	"fmt"
	"log/slog"

	"github.com/cognicore/riskfreq/pkg/riskfreq/ingest"
	"github.com/cognicore/riskfreq/pkg/riskfreq/lexicon"
	"github.com/cognicore/riskfreq/pkg/riskfreq/normalize"
	"github.com/cognicore/riskfreq/pkg/riskfreq/scan"
	"github.com/cognicore/riskfreq/pkg/riskfreq/stoplist"
)

// Loader constructs pipeline components from a Config.
type Loader struct {
	Config *Config
	Logger *slog.Logger
}

// Components holds all loaded configuration components
type Components struct {
	Normalizer *normalize.Normalizer
	Stoplist   *stoplist.Manager
	Lexicon    *lexicon.Lexicon
	Tokenizer  *ingest.Tokenizer
	Heading    scan.Marker
	End        scan.Marker
	Pipeline   *ingest.Pipeline
}

// Load reads the referenced files and returns initialized components.
// A nil Config means Default().
func (l *Loader) Load() (*Components, error) {
	cfg := l.Config
	if cfg == nil {
		cfg = Default()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	comp := &Components{
		Normalizer: normalize.New(normalize.Options{ASCII: cfg.Normalize.ASCII}),
	}

	// Stoplist
	stops, err := loadStops(cfg.Filter)
	if err != nil {
		return nil, err
	}
	comp.Stoplist = stops

	// Word normalization
	var chain lexicon.Chain
	if cfg.Filter.Lexicon != "" {
		lex, err := lexicon.LoadFromYAML(cfg.Filter.Lexicon)
		if err != nil {
			return nil, fmt.Errorf("load lexicon: %w", err)
		}
		comp.Lexicon = lex
		chain = append(chain, lex)
	}
	if cfg.Filter.Stemming {
		chain = append(chain, lexicon.Stemmer{})
	}

	comp.Tokenizer = ingest.NewTokenizerWithStoplist(stops)
	comp.Tokenizer.SetMinLength(cfg.Filter.MinLength)
	if len(chain) > 0 {
		comp.Tokenizer.SetNormalizer(chain)
	}

	// Markers are matched against normalized lines, so normalize them the same way.
	heading, _ := comp.Normalizer.Line(cfg.Section.Heading)
	end, _ := comp.Normalizer.Line(cfg.Section.EndMarker)
	comp.Heading = scan.Suffix(heading)
	comp.End = scan.Prefix(end)

	comp.Pipeline = ingest.NewPipeline(comp.Normalizer, comp.Tokenizer, comp.Heading, comp.End)
	if l.Logger != nil {
		comp.Pipeline.SetLogger(l.Logger)
	}

	return comp, nil
}

func loadStops(f FilterConfig) (*stoplist.Manager, error) {
	var stops *stoplist.Manager
	if f.Stoplist == "" && len(f.Stopwords) == 0 {
		stops = stoplist.NewDefault()
	} else {
		terms := append([]string(nil), f.Stopwords...)
		if f.Stoplist != "" {
			sl, err := LoadStoplist(f.Stoplist)
			if err != nil {
				return nil, fmt.Errorf("load stoplist: %w", err)
			}
			terms = append(terms, sl.Terms...)
		}
		stops = stoplist.NewManager(terms)
	}
	for _, w := range f.ExtraStopwords {
		stops.Add(w, stoplist.Configured)
	}
	return stops, nil
}

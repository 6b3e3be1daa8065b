// Package filings loads the ordered list of filings a run processes.
package filings

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/cognicore/riskfreq/pkg/riskfreq/config"
	"github.com/cognicore/riskfreq/pkg/riskfreq/internalerr"
)

// Filing is one annual filing. Exactly one of URL and Path is set.
type Filing struct {
	Year int    `json:"year,omitempty"`
	URL  string `json:"url,omitempty"`
	Path string `json:"path,omitempty"`
}

// Location returns the URL or path of the filing.
func (f Filing) Location() string {
	if f.URL != "" {
		return f.URL
	}
	return f.Path
}

// LoadFromJSONL loads filings from a JSONL file, one object per line.
// Malformed lines are logged and skipped.
func LoadFromJSONL(path string, logger *slog.Logger) ([]Filing, error) {
	if logger == nil {
		logger = slog.Default()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read file %s: %w", path, err)
	}

	var out []Filing
	for i, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		var f Filing
		if err := json.Unmarshal([]byte(line), &f); err != nil {
			logger.Warn("skipping malformed filing", "path", path, "line", i+1, "error", err)
			continue
		}
		if (f.URL == "") == (f.Path == "") {
			logger.Warn("skipping filing without exactly one of url and path", "path", path, "line", i+1)
			continue
		}
		out = append(out, f)
	}

	if len(out) == 0 {
		return nil, fmt.Errorf("%w: no valid filings found in %s", internalerr.ErrInvalidInput, path)
	}
	return out, nil
}

// FromConfig converts configured filings.
func FromConfig(cfgs []config.FilingConfig) []Filing {
	out := make([]Filing, len(cfgs))
	for i, c := range cfgs {
		out[i] = Filing{Year: c.Year, URL: c.URL, Path: c.Path}
	}
	return out
}

// AssignYears fills in missing years by position: the filing at index i gets
// firstYear+i. Two filings ending up with the same year is an error, since
// the later ranking would replace the earlier one.
func AssignYears(list []Filing, firstYear int) ([]Filing, error) {
	out := make([]Filing, len(list))
	seen := make(map[int]int, len(list))
	for i, f := range list {
		if f.Year == 0 {
			f.Year = firstYear + i
		}
		if prev, dup := seen[f.Year]; dup {
			return nil, fmt.Errorf("%w: filings %d and %d both have year %d",
				internalerr.ErrInvalidInput, prev, i, f.Year)
		}
		seen[f.Year] = i
		out[i] = f
	}
	return out, nil
}

// Package report renders rankings as terminal tables.
package report

import (
	"fmt"
	"io"
	"strconv"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/cognicore/riskfreq/pkg/riskfreq/store"
)

// Top renders the first limit entries of r as a Rank/Word/Count table.
// limit <= 0 renders every entry.
func Top(r store.Ranking, limit int) string {
	entries := r.Entries
	if limit > 0 && len(entries) > limit {
		entries = entries[:limit]
	}

	tw := newWriter()
	tw.SetTitle(title(r))
	tw.AppendHeader(table.Row{"Rank", "Word", "Count"})
	for i, e := range entries {
		tw.AppendRow(table.Row{i + 1, e.Word, e.Count})
	}
	if len(entries) == 0 {
		tw.AppendRow(table.Row{"", "(no words)", ""})
	}
	tw.SetColumnConfigs([]table.ColumnConfig{
		{Number: 1, Align: text.AlignRight, AlignHeader: text.AlignLeft},
		{Number: 2, Align: text.AlignLeft, AlignHeader: text.AlignLeft},
		{Number: 3, Align: text.AlignRight, AlignHeader: text.AlignLeft},
	})
	return tw.Render()
}

// WriteTop writes Top(r, limit) followed by a newline.
func WriteTop(w io.Writer, r store.Ranking, limit int) error {
	_, err := fmt.Fprintln(w, Top(r, limit))
	return err
}

// Summary renders one row per ranking: year, status, distinct words and the
// top word.
func Summary(rankings []store.Ranking) string {
	tw := newWriter()
	tw.AppendHeader(table.Row{"Year", "Status", "Words", "Top word", "Count"})
	for _, r := range rankings {
		top, count := "", ""
		if len(r.Entries) > 0 {
			top = r.Entries[0].Word
			count = strconv.Itoa(r.Entries[0].Count)
		}
		tw.AppendRow(table.Row{r.Year, r.Status, len(r.Entries), top, count})
	}
	tw.SetColumnConfigs([]table.ColumnConfig{
		{Number: 3, Align: text.AlignRight},
		{Number: 5, Align: text.AlignRight},
	})
	return tw.Render()
}

func newWriter() table.Writer {
	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)
	return tw
}

func title(r store.Ranking) string {
	t := strconv.Itoa(r.Year)
	if r.Status != "" {
		t += " (" + r.Status + ")"
	}
	return t
}

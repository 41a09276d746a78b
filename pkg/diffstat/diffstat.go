// Package diffstat summarizes a unified diff per file and renders it as a table.
package diffstat

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/renderer"
	"github.com/olekukonko/tablewriter/tw"
	"github.com/waigani/diffparser"
)

var errMalformed = errors.New("malformed diff")

// Change describes what happened to a file.
type Change string

// File changes.
const (
	Added    Change = "added"
	Modified Change = "modified"
	Deleted  Change = "deleted"
)

// FileStat holds the line counts of one file.
type FileStat struct {
	Path      string
	Change    Change
	Additions int
	Deletions int
}

// Summarize parses raw and counts added and removed lines per file.
// Hunk bodies are walked with the lengths of their @@ header, so a changed line
// whose content starts with -- or ++ is counted and never taken for a file header.
func Summarize(raw string) ([]FileStat, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, nil
	}

	diff, err := diffparser.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("failed to parse diff: %w", err)
	}

	stats := make([]FileStat, len(diff.Files))
	if err := countLines(raw, diff, stats); err != nil {
		return nil, err
	}
	return stats, nil
}

// countLines fills stats from the file headers and hunk bodies of raw.
// diff supplies the hunk lengths, in the order the hunks appear.
func countLines(raw string, diff *diffparser.Diff, stats []FileStat) error {
	type names struct{ orig, new string }
	headers := make([]names, len(stats))
	file, hunk := -1, 0
	var oldLeft, newLeft int

	for _, l := range strings.Split(raw, "\n") {
		if oldLeft > 0 || newLeft > 0 {
			switch {
			case strings.HasPrefix(l, "+"):
				stats[file].Additions++
				newLeft--
			case strings.HasPrefix(l, "-"):
				stats[file].Deletions++
				oldLeft--
			case strings.HasPrefix(l, `\`):
				// "\ No newline at end of file"
			default:
				oldLeft--
				newLeft--
			}
			continue
		}

		switch {
		case strings.HasPrefix(l, "diff "):
			file++
			hunk = 0
			if file >= len(stats) {
				return fmt.Errorf("%w: more file headers than parsed files", errMalformed)
			}
			stats[file] = FileStat{Change: Modified}
		case file < 0:
		case l == "--- /dev/null":
			stats[file].Change = Added
		case l == "+++ /dev/null":
			stats[file].Change = Deleted
		case strings.HasPrefix(l, "--- a/"):
			headers[file].orig = strings.TrimPrefix(l, "--- a/")
		case strings.HasPrefix(l, "+++ b/"):
			headers[file].new = strings.TrimPrefix(l, "+++ b/")
		case strings.HasPrefix(l, "@@ "):
			hunks := diff.Files[file].Hunks
			if hunk >= len(hunks) {
				return fmt.Errorf("%w: unexpected hunk %q", errMalformed, l)
			}
			oldLeft, newLeft = hunks[hunk].OrigRange.Length, hunks[hunk].NewRange.Length
			hunk++
		}
	}

	for i := range stats {
		stats[i].Path = headers[i].new
		if stats[i].Change == Deleted || stats[i].Path == "" {
			stats[i].Path = headers[i].orig
		}
	}
	return nil
}

// Totals returns the summed additions and deletions.
func Totals(stats []FileStat) (additions, deletions int) {
	for _, s := range stats {
		additions += s.Additions
		deletions += s.Deletions
	}
	return additions, deletions
}

// Render writes stats as a markdown table followed by a git-style summary line.
func Render(w io.Writer, stats []FileStat) error {
	if len(stats) == 0 {
		_, err := fmt.Fprintln(w, "No changes.")
		return err
	}

	table := newTable(w, []string{"File", "Change", "+", "-"})
	for _, s := range stats {
		row := []string{s.Path, string(s.Change), strconv.Itoa(s.Additions), strconv.Itoa(s.Deletions)}
		if err := table.Append(row); err != nil {
			return fmt.Errorf("failed to add table row: %w", err)
		}
	}
	if err := table.Render(); err != nil {
		return fmt.Errorf("failed to render table: %w", err)
	}

	additions, deletions := Totals(stats)
	_, err := fmt.Fprintf(w, "\n%d %s changed, %d insertions(+), %d deletions(-)\n",
		len(stats), plural(len(stats), "file", "files"), additions, deletions)
	return err
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}

func newTable(w io.Writer, headers []string) *tablewriter.Table {
	cfg := tablewriter.Config{
		Header: tw.CellConfig{
			Alignment:  tw.CellAlignment{Global: tw.AlignLeft},
			Formatting: tw.CellFormatting{AutoFormat: tw.Off},
		},
		Row: tw.CellConfig{
			Alignment: tw.CellAlignment{Global: tw.AlignLeft},
		},
		Behavior: tw.Behavior{TrimSpace: tw.Off},
	}
	return tablewriter.NewTable(w,
		tablewriter.WithConfig(cfg),
		tablewriter.WithHeader(headers),
		tablewriter.WithRenderer(renderer.NewBlueprint()),
		tablewriter.WithRendition(tw.Rendition{
			Symbols: tw.NewSymbols(tw.StyleMarkdown),
			Borders: tw.Border{
				Left:   tw.On,
				Top:    tw.Off,
				Right:  tw.On,
				Bottom: tw.Off,
			},
		}),
		tablewriter.WithRowAutoWrap(tw.WrapNone),
	)
}

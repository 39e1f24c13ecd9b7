package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/sergi/go-diff/diffmatchpatch"

	"github.com/nao1215/threadscrape/internal/model"
)

// Diff is the line difference between the JSONL output of two runs.
// Each record is one line, so a changed comment shows up as one removed
// and one added line.
type Diff struct {
	// Added counts records only present in the newer run.
	Added int

	// Removed counts records only present in the older run.
	Removed int

	// Unchanged counts records present in both.
	Unchanged int

	hunks []diffmatchpatch.Diff
}

// DiffRecords compares the records of two runs line by line.
func DiffRecords(older, newer []model.CommentNode) (Diff, error) {
	a, err := encodeLines(older)
	if err != nil {
		return Diff{}, fmt.Errorf("failed to encode older run: %w", err)
	}
	b, err := encodeLines(newer)
	if err != nil {
		return Diff{}, fmt.Errorf("failed to encode newer run: %w", err)
	}

	dmp := diffmatchpatch.New()
	ca, cb, lines := dmp.DiffLinesToChars(a, b)
	hunks := dmp.DiffCharsToLines(dmp.DiffMain(ca, cb, false), lines)

	d := Diff{hunks: hunks}
	for _, h := range hunks {
		n := strings.Count(h.Text, "\n")
		switch h.Type {
		case diffmatchpatch.DiffInsert:
			d.Added += n
		case diffmatchpatch.DiffDelete:
			d.Removed += n
		case diffmatchpatch.DiffEqual:
			d.Unchanged += n
		}
	}
	return d, nil
}

// Equal reports whether both runs produced the same records.
func (d Diff) Equal() bool {
	return d.Added == 0 && d.Removed == 0
}

// WriteDiff prints the changed lines of d prefixed with "+" or "-",
// followed by a one-line summary.
func WriteDiff(w io.Writer, d Diff) error {
	var sb strings.Builder
	for _, h := range d.hunks {
		var prefix string
		switch h.Type {
		case diffmatchpatch.DiffInsert:
			prefix = "+ "
		case diffmatchpatch.DiffDelete:
			prefix = "- "
		default:
			continue
		}
		for _, line := range strings.SplitAfter(h.Text, "\n") {
			if line == "" {
				continue
			}
			sb.WriteString(prefix + strings.TrimSuffix(line, "\n") + "\n")
		}
	}
	fmt.Fprintf(&sb, "%d added, %d removed, %d unchanged\n", d.Added, d.Removed, d.Unchanged)

	_, err := io.WriteString(w, sb.String())
	return err
}

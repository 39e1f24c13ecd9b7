package report

import (
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/nao1215/markdown"
	"github.com/nao1215/markdown/mermaid/piechart"

	"github.com/nao1215/threadscrape/internal/model"
)

// MarkdownWriter renders an archived run as a Markdown document.
type MarkdownWriter struct {
	baseWriter

	// maxCell bounds the length of table cells.
	maxCell int
}

// NewMarkdownWriter creates a MarkdownWriter that outputs to the given writer.
func NewMarkdownWriter(output io.Writer) *MarkdownWriter {
	return &MarkdownWriter{
		baseWriter: newBaseWriter(output),
		maxCell:    80,
	}
}

// Write outputs run and its records.
func (w *MarkdownWriter) Write(run model.CrawlRun, records []model.Record) (int, error) {
	md := markdown.NewMarkdown(w.output)

	w.writeHeader(md, run)
	w.writeStatus(md, run)
	w.writePageChart(md, records)
	w.writeThreads(md, records)
	w.writeFooter(md)

	return len(md.String()), md.Build()
}

func (w *MarkdownWriter) writeHeader(md *markdown.Markdown, run model.CrawlRun) {
	md.H1("Comment Export")
	md.PlainText("")

	finished := "-"
	if !run.FinishedAt.IsZero() {
		finished = run.FinishedAt.Format(time.DateTime + " MST")
	}

	md.Table(markdown.TableSet{
		Header: []string{"Property", "Value"},
		Rows: [][]string{
			{"Run", "`" + run.ID + "`"},
			{"URL", "`" + run.URL + "`"},
			{"Started", run.StartedAt.Format(time.DateTime + " MST")},
			{"Finished", finished},
			{"Status", run.Status.String()},
			{"Page Range", run.Range.String()},
			{"Pages Crawled", strconv.Itoa(run.Pages)},
			{"Threads", strconv.Itoa(run.Records)},
			{"Duplicates Skipped", strconv.Itoa(run.Duplicates)},
			{"Failed Comments", strconv.Itoa(run.Failures)},
		},
	})
	md.PlainText("")
}

func (w *MarkdownWriter) writeStatus(md *markdown.Markdown, run model.CrawlRun) {
	switch {
	case run.Status == model.RunStatusFailed:
		md.Cautionf("The crawl failed after %d page(s): %s", run.Pages, run.Error)
	case run.Status == model.RunStatusRunning:
		md.Warningf("The crawl did not finish. Records below cover the %d page(s) visited before it stopped.", run.Pages)
	case run.Failures > 0:
		md.Importantf("%d comment(s) could not be parsed and were left out.", run.Failures)
	default:
		md.Tip("Every page in the range was crawled.")
	}
	md.PlainText("")
}

// writePageChart draws how many threads each page contributed.
func (w *MarkdownWriter) writePageChart(md *markdown.Markdown, records []model.Record) {
	if len(records) == 0 {
		return
	}

	var pages []int
	counts := make(map[int]uint64)
	for _, r := range records {
		if _, ok := counts[r.Page]; !ok {
			pages = append(pages, r.Page)
		}
		counts[r.Page]++
	}

	chart := piechart.NewPieChart(
		io.Discard,
		piechart.WithTitle("Threads per Page"),
		piechart.WithShowData(true),
	)
	for _, p := range pages {
		chart.LabelAndIntValue("Page "+strconv.Itoa(p), counts[p])
	}

	md.CodeBlocks(markdown.SyntaxHighlightMermaid, chart.String())
	md.PlainText("")
}

func (w *MarkdownWriter) writeThreads(md *markdown.Markdown, records []model.Record) {
	md.H2("Threads")
	md.PlainText("")

	if len(records) == 0 {
		md.PlainText("No comments were collected.")
		md.PlainText("")
		return
	}

	for _, r := range records {
		n := r.Node
		md.H3(strconv.Itoa(r.Seq+1) + ". " + orDash(n.User) + " (page " + strconv.Itoa(r.Page) + ")")
		md.PlainText("")
		md.PlainText(n.Content)
		md.PlainText("")

		meta := []string{"Votes: " + orDash(n.Votes.String())}
		if n.Date != nil {
			meta = append(meta, "Date: "+*n.Date)
		}
		md.BulletList(meta...)
		md.PlainText("")

		if len(n.Responses) > 0 {
			w.writeReplies(md, n)
		}
	}
}

// writeReplies flattens the replies of n into one table with a depth column.
func (w *MarkdownWriter) writeReplies(md *markdown.Markdown, n model.CommentNode) {
	var rows [][]string
	for _, reply := range n.Responses {
		reply.Walk(func(c model.CommentNode, depth int) {
			date := "-"
			if c.Date != nil {
				date = *c.Date
			}
			rows = append(rows, []string{
				strconv.Itoa(depth + 1),
				cell(orDash(c.User), w.maxCell),
				orDash(c.Votes.String()),
				date,
				cell(c.Content, w.maxCell),
			})
		})
	}

	md.Table(markdown.TableSet{
		Header: []string{"Depth", "User", "Votes", "Date", "Content"},
		Rows:   rows,
	})
	md.PlainText("")
}

func (w *MarkdownWriter) writeFooter(md *markdown.Markdown) {
	md.HorizontalRule()
	md.PlainText("")
	md.PlainTextf("*Exported by [threadscrape](https://github.com/nao1215/threadscrape)*")
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

// cell makes s safe for a single table cell and truncates it to maxLen
// runes.
func cell(s string, maxLen int) string {
	s = strings.ReplaceAll(s, "|", `\|`)
	s = strings.Join(strings.Fields(s), " ")
	return truncateString(s, maxLen)
}

// truncateString truncates a string to maxLen runes with ellipsis.
func truncateString(s string, maxLen int) string {
	r := []rune(s)
	if len(r) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return string(r[:maxLen])
	}
	return string(r[:maxLen-3]) + "..."
}

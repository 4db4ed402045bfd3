package diagnostics

import (
	"context"
	"fmt"
	"strings"
	"time"

	"gocuts/domain/core"
	"gocuts/domain/cut"
	"gocuts/ports"

	"github.com/gomarkdown/markdown"
	"github.com/gomarkdown/markdown/html"
	"github.com/gomarkdown/markdown/parser"
)

// Report collects the diagnostics of one run.
type Report struct {
	ID            core.ReportID  `json:"id"`
	Run           core.RunID     `json:"run"`
	CreatedAt     time.Time      `json:"created_at"`
	TotalEvents   int            `json:"total_events"`
	Flow          []FlowStep     `json:"flow"`
	Contributions []Contribution `json:"contributions"`
	Cuts          []TableRow     `json:"cuts"`
}

// NewReport computes the cut flow, the short contributions and the cut table.
func NewReport(ctx context.Context, run core.RunID, data ports.DataAccessPort, registry *cut.Registry) (*Report, error) {
	flow, err := CutFlow(ctx, data, registry)
	if err != nil {
		return nil, err
	}
	contr, err := Contributions(ctx, data, registry, true)
	if err != nil {
		return nil, err
	}
	return &Report{
		ID:            core.NewReportID(),
		Run:           run,
		CreatedAt:     time.Now().UTC(),
		TotalEvents:   data.TotalRows(),
		Flow:          flow,
		Contributions: contr,
		Cuts:          Table(registry, false),
	}, nil
}

func writeTable(b *strings.Builder, header []string, rows [][]string) {
	b.WriteString("| " + strings.Join(header, " | ") + " |\n")
	b.WriteString("|" + strings.Repeat(" --- |", len(header)) + "\n")
	for _, r := range rows {
		b.WriteString("| " + strings.Join(r, " | ") + " |\n")
	}
	b.WriteString("\n")
}

func percent(n, total int) string {
	if total == 0 {
		return "0.0%"
	}
	return fmt.Sprintf("%.1f%%", 100*float64(n)/float64(total))
}

// Markdown renders the report as a markdown document.
func (r *Report) Markdown() string {
	var b strings.Builder
	fmt.Fprintf(&b, "# Cut report for run %s\n\n", r.Run)
	fmt.Fprintf(&b, "Report `%s`, generated %s, %d events.\n\n", r.ID, r.CreatedAt.Format(time.RFC3339), r.TotalEvents)

	b.WriteString("## Cuts\n\n")
	rows := make([][]string, len(r.Cuts))
	for i, c := range r.Cuts {
		rows[i] = c.cells()
	}
	writeTable(&b, []string{"Cut Name", "Level", "Description"}, rows)

	b.WriteString("## Cut flow\n\n")
	rows = make([][]string, len(r.Flow))
	for i, s := range r.Flow {
		rows[i] = []string{s.Name, fmt.Sprint(s.Events), percent(s.Events, r.TotalEvents)}
	}
	writeTable(&b, []string{"Step", "Events", "Passing"}, rows)

	b.WriteString("## Contributions\n\n")
	rows = make([][]string, len(r.Contributions))
	for i, c := range r.Contributions {
		rows[i] = []string{c.Name, fmt.Sprint(c.Events), percent(c.Events, r.TotalEvents)}
	}
	writeTable(&b, []string{"Contribution", "Events", "Share"}, rows)
	return b.String()
}

// HTML renders the markdown report as an HTML fragment.
func (r *Report) HTML() []byte {
	p := parser.NewWithExtensions(parser.CommonExtensions)
	renderer := html.NewRenderer(html.RendererOptions{Flags: html.CommonFlags})
	return markdown.ToHTML([]byte(r.Markdown()), p, renderer)
}

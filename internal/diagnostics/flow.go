// Package diagnostics reports how the cuts of a registry act on a run.
package diagnostics

import (
	"context"
	"sort"
	"strconv"
	"strings"

	"gocuts/domain/core"
	"gocuts/domain/cut"
	"gocuts/ports"
)

// ShortThreshold is the share of all events below which a contribution is
// folded into "Other" in short mode.
const ShortThreshold = 0.03

// FlowStep is the number of events passing a consecutive cut step.
type FlowStep struct {
	Name   string `json:"name"`
	Events int    `json:"events"`
}

// CutFlow counts the events passing each consecutive step of the registry.
// The counts never increase.
func CutFlow(ctx context.Context, data ports.DataAccessPort, registry *cut.Registry) ([]FlowStep, error) {
	steps := registry.Consecutive()
	flow := make([]FlowStep, 0, len(steps))
	for _, s := range steps {
		n, err := data.Count(ctx, s.Expr, nil)
		if err != nil {
			return nil, core.NewDataAccessError("cut flow of "+s.Name, err)
		}
		flow = append(flow, FlowStep{Name: s.Name, Events: n})
	}
	return flow, nil
}

// Contribution is the number of events removed by one cut on top of the
// cuts before it.
type Contribution struct {
	Name   string `json:"name"`
	Events int    `json:"events"`
}

// Label turns a cut name into a display label: beam_interruptions reads
// "Beam Interruptions".
func Label(name string) string {
	words := strings.Split(name, "_")
	for i, w := range words {
		if w != "" {
			words[i] = strings.ToUpper(w[:1]) + w[1:]
		}
	}
	return strings.Join(words, " ")
}

// Contributions splits all events into the share removed by each cut and
// the remaining "Good Events". In short mode entries below ShortThreshold
// of all events are folded into "Other". The result alternates between the
// largest and the smallest remaining entry.
func Contributions(ctx context.Context, data ports.DataAccessPort, registry *cut.Registry, short bool) ([]Contribution, error) {
	flow, err := CutFlow(ctx, data, registry)
	if err != nil {
		return nil, err
	}
	total := data.TotalRows()

	var contr []Contribution
	removed := 0
	for _, step := range flow {
		if step.Name == cut.RawStep {
			continue
		}
		cumulative := total - step.Events
		contr = append(contr, Contribution{Name: Label(step.Name), Events: cumulative - removed})
		removed = cumulative
	}
	contr = append(contr, Contribution{Name: "Good Events", Events: total - removed})

	if short {
		kept := contr[:0]
		sum := 0
		for _, c := range contr {
			if float64(c.Events) >= ShortThreshold*float64(total) {
				kept = append(kept, c)
				sum += c.Events
			}
		}
		contr = append(kept, Contribution{Name: "Other", Events: total - sum})
	}

	sort.SliceStable(contr, func(i, j int) bool { return contr[i].Events < contr[j].Events })
	return alternate(contr), nil
}

// alternate reorders an ascending list as largest, smallest, second
// largest, second smallest and so on.
func alternate(asc []Contribution) []Contribution {
	out := make([]Contribution, 0, len(asc))
	lo, hi := 0, len(asc)-1
	for i := 0; lo <= hi; i++ {
		if i%2 == 0 {
			out = append(out, asc[hi])
			hi--
		} else {
			out = append(out, asc[lo])
			lo++
		}
	}
	return out
}

// TableRow is one line of the cut table.
type TableRow struct {
	Name  string `json:"name"`
	Level int    `json:"level"`
	Text  string `json:"text"`
}

// Table lists the enabled cuts with their description, or their predicate
// when raw is set.
func Table(registry *cut.Registry, raw bool) []TableRow {
	var rows []TableRow
	for _, c := range registry.Enabled() {
		text := c.Description
		if raw {
			text = c.Value.String()
		}
		rows = append(rows, TableRow{Name: c.Name, Level: c.Level, Text: text})
	}
	return rows
}

func (r TableRow) cells() []string {
	return []string{r.Name, strconv.Itoa(r.Level), r.Text}
}

package cli

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/defeedco/prefetch/pkg/lib"
	"github.com/defeedco/prefetch/pkg/sources"
	"github.com/defeedco/prefetch/pkg/sources/types"
)

var (
	nameColumn   = lipgloss.NewStyle().Width(12)
	statusColumn = lipgloss.NewStyle().Width(9)
	slotColumn   = lipgloss.NewStyle().Width(16)

	outcomeStyles = map[types.Outcome]lipgloss.Style{
		types.OutcomeSuccess: lipgloss.NewStyle().Foreground(lipgloss.Color("2")),
		types.OutcomeFailed:  lipgloss.NewStyle().Foreground(lipgloss.Color("1")),
		types.OutcomeError:   lipgloss.NewStyle().Foreground(lipgloss.Color("1")).Bold(true),
	}
)

func renderOutcome(outcome types.Outcome) string {
	style, ok := outcomeStyles[outcome]
	if !ok {
		return string(outcome)
	}
	return style.Render(string(outcome))
}

// writeSummary prints one line per processed source followed by the totals.
func writeSummary(w io.Writer, summary *sources.Summary, registry *sources.Registry) error {
	var b strings.Builder

	for _, name := range summary.Order {
		slot := ""
		if d, ok := registry.Get(name); ok {
			slot = d.Snapshot + ".json"
		}
		b.WriteString(nameColumn.Render(name))
		b.WriteString(statusColumn.Render(renderOutcome(summary.Results[name])))
		b.WriteString(slot)
		b.WriteString("\n")
	}

	if summary.Total == 0 {
		b.WriteString("No sources selected\n")
	}

	fmt.Fprintf(&b, "Fetched %d/%d sources successfully, next fetch at %s\n",
		summary.SuccessCount, summary.Total, lib.FormatTime(summary.NextScheduledFetch))

	_, err := io.WriteString(w, b.String())
	return err
}

// sourceStatus describes a registered source for the list command.
type sourceStatus struct {
	descriptor sources.Descriptor
	fetchedAt  time.Time
}

func (s sourceStatus) freshness(now time.Time) string {
	if s.fetchedAt.IsZero() {
		return "never fetched"
	}
	age := now.Sub(s.fetchedAt).Truncate(time.Second)
	if age > s.descriptor.CacheLifetime {
		return fmt.Sprintf("stale, fetched %s ago", age)
	}
	return fmt.Sprintf("fresh, fetched %s ago", age)
}

func writeSources(w io.Writer, statuses []sourceStatus, now time.Time) error {
	var b strings.Builder

	b.WriteString(nameColumn.Render("NAME"))
	b.WriteString(statusColumn.Render("ENABLED"))
	b.WriteString(statusColumn.Render("LIFETIME"))
	b.WriteString(slotColumn.Render("SLOT"))
	b.WriteString("LAST FETCH\n")

	for _, s := range statuses {
		b.WriteString(nameColumn.Render(s.descriptor.Name))
		b.WriteString(statusColumn.Render(fmt.Sprint(s.descriptor.Enabled)))
		b.WriteString(statusColumn.Render(s.descriptor.CacheLifetime.String()))
		b.WriteString(slotColumn.Render(s.descriptor.Snapshot))
		b.WriteString(s.freshness(now))
		b.WriteString("\n")
	}

	_, err := io.WriteString(w, b.String())
	return err
}

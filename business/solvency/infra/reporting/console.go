// Package reporting implements the Reporter port: a styled console renderer
// and a machine-readable JSON writer.
package reporting

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/fd1az/vaultscope/business/solvency/app"
	"github.com/fd1az/vaultscope/business/solvency/domain"
)

// Colors
var (
	colorPrimary = lipgloss.Color("#7C3AED") // Purple
	colorHealthy = lipgloss.Color("#10B981") // Green
	colorDanger  = lipgloss.Color("#EF4444") // Red
	colorWarning = lipgloss.Color("#F59E0B") // Amber
	colorMuted   = lipgloss.Color("#6B7280") // Gray
)

// Styles
var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FFFFFF")).
			Background(colorPrimary).
			Padding(0, 2)

	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(colorPrimary)

	solventStyle = lipgloss.NewStyle().
			Foreground(colorHealthy).
			Bold(true)

	insolventStyle = lipgloss.NewStyle().
			Foreground(colorDanger).
			Bold(true)

	warnStyle = lipgloss.NewStyle().
			Foreground(colorWarning)

	mutedStyle = lipgloss.NewStyle().
			Foreground(colorMuted)
)

// Ensure ConsoleReporter implements the Reporter port.
var _ app.Reporter = (*ConsoleReporter)(nil)

// ConsoleReporter renders a report as styled text.
type ConsoleReporter struct {
	out     io.Writer
	verbose bool
}

// NewConsoleReporter creates a console reporter. With verbose enabled, every
// entity gets a detail block; otherwise only insolvent ones do.
func NewConsoleReporter(out io.Writer, verbose bool) *ConsoleReporter {
	return &ConsoleReporter{out: out, verbose: verbose}
}

// Report renders the report.
func (r *ConsoleReporter) Report(_ context.Context, report *domain.Report) error {
	var b strings.Builder

	b.WriteString(titleStyle.Render("SOLVENCY REPORT"))
	b.WriteString(mutedStyle.Render(fmt.Sprintf("  %s\n\n", report.Timestamp.Format("2006-01-02 15:04:05 UTC"))))

	if report.Solvent {
		b.WriteString(solventStyle.Render("✓ ALL ENTITIES SOLVENT"))
	} else {
		b.WriteString(insolventStyle.Render(fmt.Sprintf("✗ %d INSOLVENT ENTITIES", len(report.InsolventEntities))))
		b.WriteString(warnStyle.Render(fmt.Sprintf("   total shortfall $%s", report.TotalShortfallUSD.StringFixed(2))))
	}
	b.WriteString("\n\n")

	b.WriteString(headerStyle.Render(fmt.Sprintf("%-24s %-20s %14s %14s %12s  %s\n",
		"ENTITY", "TYPE", "ASSETS USD", "LIABS USD", "SHORT USD", "STATUS")))

	for _, d := range report.Details {
		status := solventStyle.Render("solvent")
		if d.Insolvent {
			status = insolventStyle.Render("INSOLVENT")
		}
		b.WriteString(fmt.Sprintf("%-24s %-20s %14s %14s %12s  %s\n",
			d.Entity.ID,
			d.Entity.Type,
			d.Assessment.TotalAssetsUSD.StringFixed(2),
			d.Assessment.TotalLiabilitiesUSD.StringFixed(2),
			d.Cascade.ShortfallUSD.StringFixed(2),
			status,
		))
	}

	for _, d := range report.Details {
		if !d.Insolvent && !r.verbose {
			continue
		}
		r.renderDetail(&b, d)
	}

	_, err := io.WriteString(r.out, b.String())
	return err
}

func (r *ConsoleReporter) renderDetail(b *strings.Builder, d *domain.EntityReport) {
	b.WriteString("\n")
	b.WriteString(headerStyle.Render(fmt.Sprintf("── %s (%s)\n", d.Entity.ID, d.Entity.Type)))

	for _, aid := range domain.SortedAssetIDs(d.Cascade.ShortfallByType) {
		s := d.Cascade.ShortfallByType[aid]
		b.WriteString(warnStyle.Render(fmt.Sprintf("  short %s %s ($%s)\n",
			s.Amount.String(), s.Asset.Symbol(), s.USD.StringFixed(2))))
	}
	for _, e := range d.Cascade.Received.Entries() {
		b.WriteString(fmt.Sprintf("  received from %-24s %s %s ($%s)\n",
			e.Counterparty, e.Amount.String(), e.Asset.Symbol(), e.USD.StringFixed(2)))
	}
	for _, e := range d.Cascade.Caused.Entries() {
		b.WriteString(fmt.Sprintf("  shorted     %-24s %s %s ($%s)\n",
			e.Counterparty, e.Amount.String(), e.Asset.Symbol(), e.USD.StringFixed(2)))
	}
	if d.Assessment.SwappedUSD.IsPositive() {
		b.WriteString(mutedStyle.Render(fmt.Sprintf("  swap coverage applied $%s\n",
			d.Assessment.SwappedUSD.StringFixed(2))))
	}
}

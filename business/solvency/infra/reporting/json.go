package reporting

import (
	"context"
	"encoding/json"
	"io"
	"time"

	"github.com/fd1az/vaultscope/business/solvency/app"
	"github.com/fd1az/vaultscope/business/solvency/domain"
)

// Ensure JSONReporter implements the Reporter port.
var _ app.Reporter = (*JSONReporter)(nil)

// JSONReporter writes the report as a single JSON document. Amounts and USD
// values are serialized as strings to keep full decimal precision.
type JSONReporter struct {
	out io.Writer
}

// NewJSONReporter creates a JSON reporter.
func NewJSONReporter(out io.Writer) *JSONReporter {
	return &JSONReporter{out: out}
}

type reportDTO struct {
	Timestamp         time.Time         `json:"timestamp"`
	Solvent           bool              `json:"solvent"`
	InsolventEntities []string          `json:"insolvent_entities"`
	TotalShortfallUSD string            `json:"total_shortfall_usd"`
	Entities          []entityReportDTO `json:"entities"`
}

type entityReportDTO struct {
	ID                  string            `json:"id"`
	Type                string            `json:"type"`
	Name                string            `json:"name,omitempty"`
	Insolvent           bool              `json:"insolvent"`
	TotalAssetsUSD      string            `json:"total_assets_usd"`
	TotalLiabilitiesUSD string            `json:"total_liabilities_usd"`
	SwappedUSD          string            `json:"swapped_usd"`
	ShortfallUSD        string            `json:"shortfall_usd"`
	Shortfalls          []exposureDTO     `json:"shortfalls,omitempty"`
	Received            []ledgerEntryDTO  `json:"received,omitempty"`
	Caused              []ledgerEntryDTO  `json:"caused,omitempty"`
}

type exposureDTO struct {
	Asset  string `json:"asset"`
	Amount string `json:"amount"`
	USD    string `json:"usd"`
}

type ledgerEntryDTO struct {
	Counterparty string `json:"counterparty"`
	Asset        string `json:"asset"`
	Amount       string `json:"amount"`
	USD          string `json:"usd"`
}

// Report writes the report as indented JSON.
func (r *JSONReporter) Report(_ context.Context, report *domain.Report) error {
	dto := reportDTO{
		Timestamp:         report.Timestamp,
		Solvent:           report.Solvent,
		InsolventEntities: make([]string, 0, len(report.InsolventEntities)),
		TotalShortfallUSD: report.TotalShortfallUSD.StringFixed(2),
	}
	for _, id := range report.InsolventEntities {
		dto.InsolventEntities = append(dto.InsolventEntities, string(id))
	}

	for _, d := range report.Details {
		e := entityReportDTO{
			ID:                  string(d.Entity.ID),
			Type:                string(d.Entity.Type),
			Name:                d.Entity.Name,
			Insolvent:           d.Insolvent,
			TotalAssetsUSD:      d.Assessment.TotalAssetsUSD.StringFixed(2),
			TotalLiabilitiesUSD: d.Assessment.TotalLiabilitiesUSD.StringFixed(2),
			SwappedUSD:          d.Assessment.SwappedUSD.StringFixed(2),
			ShortfallUSD:        d.Cascade.ShortfallUSD.StringFixed(2),
		}

		for _, aid := range domain.SortedAssetIDs(d.Cascade.ShortfallByType) {
			s := d.Cascade.ShortfallByType[aid]
			e.Shortfalls = append(e.Shortfalls, exposureDTO{
				Asset:  s.Asset.Symbol(),
				Amount: s.Amount.String(),
				USD:    s.USD.StringFixed(2),
			})
		}
		for _, entry := range d.Cascade.Received.Entries() {
			e.Received = append(e.Received, ledgerEntryDTO{
				Counterparty: string(entry.Counterparty),
				Asset:        entry.Asset.Symbol(),
				Amount:       entry.Amount.String(),
				USD:          entry.USD.StringFixed(2),
			})
		}
		for _, entry := range d.Cascade.Caused.Entries() {
			e.Caused = append(e.Caused, ledgerEntryDTO{
				Counterparty: string(entry.Counterparty),
				Asset:        entry.Asset.Symbol(),
				Amount:       entry.Amount.String(),
				USD:          entry.USD.StringFixed(2),
			})
		}

		dto.Entities = append(dto.Entities, e)
	}

	enc := json.NewEncoder(r.out)
	enc.SetIndent("", "  ")
	return enc.Encode(dto)
}

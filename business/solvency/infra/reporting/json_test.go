package reporting

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/fd1az/vaultscope/business/solvency/domain"
	"github.com/fd1az/vaultscope/internal/asset"
)

func sampleReport() *domain.Report {
	usdc := asset.NewAsset(asset.NewSyntheticAssetID("USDC"), "USDC", 6)

	vault := &domain.Entity{ID: "vault", Type: domain.EntityVault}
	strategy := &domain.Entity{ID: "strategy", Type: domain.EntityLendingStrategy}

	received := domain.NewShortfallLedger()
	received.Add("strategy", usdc, decimal.NewFromInt(200), decimal.NewFromInt(200))
	caused := domain.NewShortfallLedger()
	caused.Add("vault", usdc, decimal.NewFromInt(200), decimal.NewFromInt(200))

	return &domain.Report{
		Timestamp:         time.Date(2026, 8, 25, 12, 0, 0, 0, time.UTC),
		Solvent:           false,
		InsolventEntities: []domain.EntityID{"strategy"},
		TotalShortfallUSD: decimal.NewFromInt(200),
		Details: []*domain.EntityReport{
			{
				Entity: strategy,
				Assessment: &domain.Assessment{
					Entity:              strategy,
					TotalAssetsUSD:      decimal.NewFromInt(400),
					TotalLiabilitiesUSD: decimal.NewFromInt(600),
					SwappedUSD:          decimal.Zero,
					ShortfallUSD:        decimal.NewFromInt(200),
				},
				Cascade: &domain.Cascade{
					Entity:       strategy,
					Received:     domain.NewShortfallLedger(),
					Caused:       caused,
					ShortfallUSD: decimal.NewFromInt(200),
				},
				Insolvent: true,
			},
			{
				Entity: vault,
				Assessment: &domain.Assessment{
					Entity:         vault,
					TotalAssetsUSD: decimal.NewFromInt(600),
				},
				Cascade: &domain.Cascade{
					Entity:   vault,
					Received: received,
					Caused:   domain.NewShortfallLedger(),
				},
				Insolvent: false,
			},
		},
	}
}

func TestJSONReporterRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	if err := NewJSONReporter(&buf).Report(context.Background(), sampleReport()); err != nil {
		t.Fatalf("Report() error: %v", err)
	}

	var got reportDTO
	if err := json.Unmarshal(buf.Bytes(), &got); err != nil {
		t.Fatalf("output is not valid JSON: %v", err)
	}

	if got.Solvent {
		t.Error("solvent = true, want false")
	}
	if got.TotalShortfallUSD != "200.00" {
		t.Errorf("total_shortfall_usd = %q, want \"200.00\"", got.TotalShortfallUSD)
	}
	if len(got.Entities) != 2 {
		t.Fatalf("entities = %d, want 2", len(got.Entities))
	}
	if len(got.Entities[1].Received) != 1 || got.Entities[1].Received[0].Counterparty != "strategy" {
		t.Errorf("vault received = %+v, want one entry from strategy", got.Entities[1].Received)
	}
}

func TestConsoleReporterRendersVerdict(t *testing.T) {
	var buf bytes.Buffer
	if err := NewConsoleReporter(&buf, false).Report(context.Background(), sampleReport()); err != nil {
		t.Fatalf("Report() error: %v", err)
	}

	out := buf.String()
	for _, want := range []string{"INSOLVENT", "strategy", "vault", "200.00"} {
		if !bytes.Contains(buf.Bytes(), []byte(want)) {
			t.Errorf("console output missing %q:\n%s", want, out)
		}
	}
}

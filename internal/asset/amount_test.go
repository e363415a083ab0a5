package asset

import (
	"math/big"
	"testing"

	"github.com/shopspring/decimal"
)

var (
	testUSDC = NewAssetWithName(NewSyntheticAssetID("tUSDC"), "tUSDC", "Test USD Coin", 6)
	testWETH = NewAssetWithName(NewSyntheticAssetID("tWETH"), "tWETH", "Test Wrapped Ether", 18)
)

func TestParseString(t *testing.T) {
	tests := []struct {
		name    string
		asset   *Asset
		input   string
		wantRaw int64
		wantErr bool
	}{
		{name: "whole_units", asset: testUSDC, input: "1500", wantRaw: 1_500_000_000},
		{name: "fractional", asset: testUSDC, input: "0.5", wantRaw: 500_000},
		{name: "smallest_unit", asset: testUSDC, input: "0.000001", wantRaw: 1},
		{name: "zero", asset: testUSDC, input: "0", wantRaw: 0},
		{name: "too_many_decimals", asset: testUSDC, input: "0.0000001", wantErr: true},
		{name: "negative", asset: testUSDC, input: "-1", wantErr: true},
		{name: "garbage", asset: testUSDC, input: "abc", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseString(tt.asset, tt.input)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("ParseString(%q) expected error, got %s", tt.input, got)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseString(%q) unexpected error: %v", tt.input, err)
			}
			if got.Raw().Cmp(big.NewInt(tt.wantRaw)) != 0 {
				t.Errorf("ParseString(%q) raw = %s, want %d", tt.input, got.Raw(), tt.wantRaw)
			}
		})
	}
}

func TestToDecimalRoundTrip(t *testing.T) {
	for _, s := range []string{"0", "1", "0.000001", "123456.789012"} {
		want := decimal.RequireFromString(s)
		amt, err := ParseDecimal(testUSDC, want)
		if err != nil {
			t.Fatalf("ParseDecimal(%s): %v", s, err)
		}
		if !amt.ToDecimal().Equal(want) {
			t.Errorf("round trip %s: got %s", s, amt.ToDecimal())
		}
	}
}

func TestAddRejectsAssetMismatch(t *testing.T) {
	a := NewAmountFromInt64(testUSDC, 100)
	b := NewAmountFromInt64(testWETH, 100)

	if _, err := a.Add(b); err == nil {
		t.Fatal("expected asset mismatch error")
	}

	sum := a.MustAdd(NewAmountFromInt64(testUSDC, 23))
	if sum.Raw().Int64() != 123 {
		t.Errorf("Add raw = %d, want 123", sum.Raw().Int64())
	}
}

func TestNewAmountDefensiveCopy(t *testing.T) {
	raw := big.NewInt(42)
	amt := NewAmount(testUSDC, raw)
	raw.SetInt64(1000)

	if amt.Raw().Int64() != 42 {
		t.Errorf("amount mutated through caller's big.Int: %d", amt.Raw().Int64())
	}
}

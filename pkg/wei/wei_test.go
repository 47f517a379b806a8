package wei

import (
	"math/big"
	"testing"
)

func TestParseEther(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"1", "1000000000000000000"},
		{"0.01", "10000000000000000"},
		{"0.005", "5000000000000000"},
		{"0", "0"},
		{"100", "100000000000000000000"},
		{"0.000000000000000001", "1"},
	}
	for _, tt := range tests {
		got, err := ParseEther(tt.in)
		if err != nil {
			t.Fatalf("ParseEther(%q) error: %v", tt.in, err)
		}
		if got.String() != tt.want {
			t.Fatalf("ParseEther(%q) = %s, want %s", tt.in, got, tt.want)
		}
	}
}

func TestParseEtherRejectsBadInput(t *testing.T) {
	for _, in := range []string{"", "  ", "abc", "-1", "0.0000000000000000001"} {
		if _, err := ParseEther(in); err == nil {
			t.Fatalf("ParseEther(%q) should fail", in)
		}
	}
}

func TestFormatEther(t *testing.T) {
	tests := []struct {
		in   *big.Int
		want string
	}{
		{Ether(1), "1"},
		{big.NewInt(10000000000000000), "0.01"},
		{big.NewInt(925000000000000000), "0.925"},
		{big.NewInt(0), "0"},
		{nil, "0"},
	}
	for _, tt := range tests {
		if got := FormatEther(tt.in); got != tt.want {
			t.Fatalf("FormatEther(%v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestParseFormatRoundTrip(t *testing.T) {
	amount, err := ParseEther("0.925")
	if err != nil {
		t.Fatalf("ParseEther error: %v", err)
	}
	if FormatEther(amount) != "0.925" {
		t.Fatalf("round trip mismatch: %s", FormatEther(amount))
	}
}

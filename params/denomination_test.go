package params

import (
	"math/big"
	"testing"
)

func TestFormatTOS(t *testing.T) {
	tests := []struct {
		wei  string
		want string
	}{
		{"0", "0"},
		{"10000000000000000", "0.01"},
		{"2000000000000000", "0.002"},
		{"1000000000000000000", "1"},
		{"1500000000000000001", "1.500000000000000001"},
		{"-10000000000000000", "-0.01"},
	}
	for _, tt := range tests {
		wei, _ := new(big.Int).SetString(tt.wei, 10)
		if have := FormatTOS(wei); have != tt.want {
			t.Errorf("FormatTOS(%s): have %q want %q", tt.wei, have, tt.want)
		}
	}
}

func TestParseTOS(t *testing.T) {
	wei, err := ParseTOS("0.01")
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if wei.Cmp(DefaultTodoFee) != 0 {
		t.Fatalf("have %v want %v", wei, DefaultTodoFee)
	}
	if _, err := ParseTOS("0.0000000000000000001"); err == nil {
		t.Fatalf("expected error for sub-wei amount")
	}
	if _, err := ParseTOS("ten"); err == nil {
		t.Fatalf("expected error for garbage")
	}
}

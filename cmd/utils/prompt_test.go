package utils

import "testing"

func TestGetPassPhraseWithList(t *testing.T) {
	passwords := []string{"owner", "other", "faucet"}
	tests := []struct {
		name         string
		confirmation bool
		index        int
		want         string
	}{
		{"first account", false, 0, "owner"},
		{"middle account", true, 1, "other"},
		{"last line", false, 2, "faucet"},
		{"index past the list reuses the last line", false, 5, "faucet"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := GetPassPhraseWithList("unlock", tt.confirmation, tt.index, passwords); got != tt.want {
				t.Errorf("GetPassPhraseWithList() = %q, want %q", got, tt.want)
			}
		})
	}
}

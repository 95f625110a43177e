package accounts

import (
	"testing"
)

func TestURLParsing(t *testing.T) {
	url, err := parseURL("keystore:///tmp/keys/UTC--key")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if url.Scheme != "keystore" || url.Path != "/tmp/keys/UTC--key" {
		t.Fatalf("unexpected url: %+v", url)
	}
	for _, u := range []string{"/tmp/keys", "", "://path"} {
		if _, err = parseURL(u); err == nil {
			t.Errorf("input %q, expected err, got: nil", u)
		}
	}
}

func TestURLJSONRoundTrip(t *testing.T) {
	url := URL{Scheme: "keystore", Path: "/keys/a"}
	enc, err := url.MarshalJSON()
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}
	if string(enc) != `"keystore:///keys/a"` {
		t.Fatalf("unexpected encoding %s", enc)
	}
	var dec URL
	if err := dec.UnmarshalJSON(enc); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}
	if dec != url {
		t.Fatalf("round trip mismatch: %+v", dec)
	}
	if err := dec.UnmarshalJSON([]byte(`"no-scheme"`)); err == nil {
		t.Fatalf("expected error for url without scheme")
	}
}

func TestURLComparison(t *testing.T) {
	tests := []struct {
		urlA   URL
		urlB   URL
		expect int
	}{
		{URL{"keystore", "/a"}, URL{"keystore", "/a"}, 0},
		{URL{"keystore", "/a"}, URL{"keystore", "/b"}, -1},
		{URL{"plain", "/a"}, URL{"keystore", "/a"}, 1},
	}
	for i, tt := range tests {
		if result := tt.urlA.Cmp(tt.urlB); result != tt.expect {
			t.Errorf("test %d: cmp mismatch: expected: %d, got: %d", i, tt.expect, result)
		}
	}
	if s := (URL{Path: "/a"}).String(); s != "/a" {
		t.Errorf("scheme-less url rendered as %q", s)
	}
}

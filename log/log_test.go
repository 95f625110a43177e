package log

import (
	"bytes"
	"errors"
	"strings"
	"testing"
)

func TestLvlFilterDropsVerboseRecords(t *testing.T) {
	var buf bytes.Buffer
	l := New("module", "todolist")
	l.SetHandler(LvlFilterHandler(LvlInfo, StreamHandler(&buf, LogfmtFormat())))

	l.Debug("hidden", "k", 1)
	l.Info("created todo", "index", 3, "err", errors.New("boom"))

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Fatalf("debug record leaked through info filter: %q", out)
	}
	for _, want := range []string{"msg=\"created todo\"", "module=todolist", "index=3", "err=boom"} {
		if !strings.Contains(out, want) {
			t.Fatalf("missing %q in %q", want, out)
		}
	}
}

func TestOddContextIsNormalized(t *testing.T) {
	var buf bytes.Buffer
	l := New()
	l.SetHandler(StreamHandler(&buf, JSONFormat()))
	l.Warn("odd", "dangling")
	if !strings.Contains(buf.String(), errorKey) {
		t.Fatalf("expected normalization marker in %q", buf.String())
	}
}

func TestLvlFromString(t *testing.T) {
	for in, want := range map[string]Lvl{"trace": LvlTrace, "info": LvlInfo, "eror": LvlError, "crit": LvlCrit} {
		have, err := LvlFromString(in)
		if err != nil || have != want {
			t.Fatalf("LvlFromString(%q) = %v, %v; want %v", in, have, err, want)
		}
	}
	if _, err := LvlFromString("loud"); err == nil {
		t.Fatalf("expected error for unknown level")
	}
}

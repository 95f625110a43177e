package metrics

import (
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestRegisteredMeterIsShared(t *testing.T) {
	a := NewRegisteredMeter("test/meter/shared", nil)
	b := NewRegisteredMeter("test/meter/shared", nil)
	a.Mark(2)
	b.Mark(3)
	if a.Count() != 5 || b.Count() != 5 {
		t.Fatalf("meter count mismatch: have %d/%d want 5", a.Count(), b.Count())
	}
}

func TestHandlerExposesSeries(t *testing.T) {
	NewRegisteredTimer("test/timer/exposed", nil).Update(time.Millisecond)
	NewRegisteredGauge("test/gauge/exposed", nil).Update(7)

	rec := httptest.NewRecorder()
	Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	body, _ := io.ReadAll(rec.Result().Body)
	for _, want := range []string{"test_timer_exposed_seconds_count 1", "test_gauge_exposed 7"} {
		if !strings.Contains(string(body), want) {
			t.Fatalf("missing %q in exposition output", want)
		}
	}
}

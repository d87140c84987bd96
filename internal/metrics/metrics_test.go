package metrics

import (
	"io"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/RoanBrand/gomq"
	"github.com/RoanBrand/gomq/internal/model"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

var _ gomq.Observer = (*Metrics)(nil)

func TestObserver(t *testing.T) {
	t.Parallel()

	m := New("")
	m.StateChanged(gomq.Idle, gomq.ResolvingName)
	m.StateChanged(gomq.ResolvingName, gomq.Connecting)
	m.StateChanged(gomq.Connecting, gomq.Connected)
	m.PacketSent(model.CONNECT, 17)
	m.PacketSent(model.PUBLISH, 10)
	m.PacketReceived(model.CONNACK, 4)
	m.Dropped(gomq.DropInboxFull)
	m.Dropped(gomq.DropInboxFull)

	if v := testutil.ToFloat64(m.State); v != float64(gomq.Connected) {
		t.Fatal(v)
	}
	if v := testutil.ToFloat64(m.Transitions.WithLabelValues("connected")); v != 1 {
		t.Fatal(v)
	}
	if v := testutil.ToFloat64(m.PacketsSent.WithLabelValues("PUBLISH")); v != 1 {
		t.Fatal(v)
	}
	if v := testutil.ToFloat64(m.BytesSent); v != 27 {
		t.Fatal(v)
	}
	if v := testutil.ToFloat64(m.BytesReceived); v != 4 {
		t.Fatal(v)
	}
	if v := testutil.ToFloat64(m.Drops.WithLabelValues(gomq.DropInboxFull)); v != 2 {
		t.Fatal(v)
	}
}

func TestHandler(t *testing.T) {
	t.Parallel()

	m := New("test")
	m.PacketReceived(model.PINGRESP, 2)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	body, _ := io.ReadAll(rec.Body)
	if !strings.Contains(string(body), `test_packets_received_total{type="PINGRESP"} 1`) {
		t.Fatal(string(body))
	}
}

package metrics

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/sony/gobreaker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/podline/kiosk/log2"
)

func TestRecord(t *testing.T) {
	t.Parallel()

	m := New(Config{})
	m.RecordPoll(true)
	m.RecordPoll(true)
	m.RecordPoll(false)
	m.RecordPush("dispatch_event")
	m.RecordCommit("dispatch")
	m.RecordNotice("error")
	m.SetBreakerState("backend", gobreaker.StateOpen)
	m.SetChannelConnected(true)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.PollsTotal.WithLabelValues("ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.PollsTotal.WithLabelValues("fail")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.PushEventsTotal.WithLabelValues("dispatch_event")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.BreakerState.WithLabelValues("backend")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.BreakerTrips.WithLabelValues("backend")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ChannelConnected))

	var nilm *Metrics
	nilm.RecordPoll(true)
	nilm.SetBreakerState("backend", gobreaker.StateClosed)
}

func TestServer(t *testing.T) {
	t.Parallel()

	m := New(Config{Namespace: "test"})
	m.RecordCommit("dispatch")
	s := NewServer(m, Sources{
		View:   func() interface{} { return map[string]string{"screen": "dashboard"} },
		Health: func() map[string]interface{} { return map[string]interface{}{"channel": false} },
		QRText: func() string { return "http://127.0.0.1:5000/api/download_history" },
	}, log2.NewTest(t, log2.LDebug))

	cases := []struct {
		path        string
		contentType string
		check       func(t testing.TB, body string)
	}{
		{"/metrics", "text/plain", func(t testing.TB, body string) {
			assert.Contains(t, body, `test_gesture_commits_total{kind="dispatch"} 1`)
		}},
		{"/healthz", "application/json", func(t testing.TB, body string) {
			var v map[string]interface{}
			require.NoError(t, json.Unmarshal([]byte(body), &v))
			assert.Equal(t, true, v["ok"])
			assert.Equal(t, false, v["channel"])
		}},
		{"/view", "application/json", func(t testing.TB, body string) {
			assert.JSONEq(t, `{"screen":"dashboard"}`, body)
		}},
		{"/history/qr.png", "image/png", func(t testing.TB, body string) {
			assert.True(t, strings.HasPrefix(body, "\x89PNG"))
		}},
	}
	for _, c := range cases {
		c := c
		t.Run(c.path, func(t *testing.T) {
			w := httptest.NewRecorder()
			s.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, c.path, nil))
			require.Equal(t, http.StatusOK, w.Code)
			assert.Contains(t, w.Header().Get("Content-Type"), c.contentType)
			c.check(t, w.Body.String())
		})
	}
}

func TestServerNoSources(t *testing.T) {
	t.Parallel()

	s := NewServer(New(Config{}), Sources{}, log2.NewTest(t, log2.LDebug))
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/view", nil))
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	w = httptest.NewRecorder()
	s.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/history/qr.png", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
}

package backend_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/juju/errors"
	"github.com/sony/gobreaker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/podline/kiosk/helpers"
	"github.com/podline/kiosk/internal/backend"
	"github.com/podline/kiosk/internal/types"
	"github.com/podline/kiosk/log2"
)

type recorder struct {
	sync.Mutex
	calls []string
	body  map[string]string
}

func (r *recorder) add(req *http.Request) {
	b, _ := io.ReadAll(req.Body)
	req.Body = io.NopCloser(bytes.NewReader(b))
	r.Lock()
	r.calls = append(r.calls, req.Method+" "+req.URL.Path)
	if r.body == nil {
		r.body = make(map[string]string)
	}
	r.body[req.URL.Path] = string(b)
	r.Unlock()
}

func (r *recorder) bodyOf(path string) string {
	r.Lock()
	defer r.Unlock()
	return r.body[path]
}

func (r *recorder) list() []string {
	r.Lock()
	defer r.Unlock()
	return append([]string(nil), r.calls...)
}

func newServer(t testing.TB, routes map[string]http.HandlerFunc) (*backend.Client, *recorder) {
	rec := &recorder{}
	mux := http.NewServeMux()
	for pattern, h := range routes {
		h := h
		mux.HandleFunc(pattern, func(w http.ResponseWriter, r *http.Request) {
			rec.add(r)
			h(w, r)
		})
	}
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	var c backend.Config
	c.URL = srv.URL
	client, err := backend.New(c, log2.NewTest(t, log2.LDebug), nil, nil)
	require.NoError(t, err)
	return client, rec
}

func jsonBody(v interface{}) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(v)
	}
}

func TestLiveTracking(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name   string
		body   string
		expect types.Status
	}{
		{"active", `{"system_status":true,"sender":"passthrough-station-1","receiver":"passthrough-station-2","task_id":"T1"}`,
			types.Status{Active: true, Sender: "passthrough-station-1", Receiver: "passthrough-station-2", TaskID: "T1"}},
		{"active-numeric-task", `{"system_status":true,"sender":"a-1","receiver":null,"task_id":42}`,
			types.Status{Active: true, Sender: "a-1", TaskID: "42"}},
		{"standby-ignores-fields", `{"system_status":false,"sender":"a-1","receiver":"a-2","task_id":"T9"}`,
			types.Standby},
		{"nulls", `{"system_status":false,"sender":null,"receiver":null,"task_id":null}`, types.Standby},
	}
	for _, c := range cases {
		c := c
		t.Run(c.name, func(t *testing.T) {
			t.Parallel()
			client, _ := newServer(t, map[string]http.HandlerFunc{
				"/api/live_tracking": func(w http.ResponseWriter, r *http.Request) { _, _ = io.WriteString(w, c.body) },
			})
			st, err := client.LiveTracking(context.Background())
			require.NoError(t, err)
			assert.Equal(t, c.expect, st)
		})
	}
}

func TestLiveTrackingFailure(t *testing.T) {
	t.Parallel()

	client, _ := newServer(t, map[string]http.HandlerFunc{
		"/api/live_tracking": func(w http.ResponseWriter, r *http.Request) { http.Error(w, "boom", 500) },
	})
	st, err := client.LiveTracking(context.Background())
	require.Error(t, err)
	assert.Equal(t, types.Standby, st)
	assert.True(t, backend.IsStatus(err, 500))
}

func TestBreakerOpens(t *testing.T) {
	t.Parallel()

	mock := &helpers.MockHTTP{Err: errors.New("connection refused")}
	var c backend.Config
	c.Breaker.MaxFailures = 3
	var states []gobreaker.State
	client, err := backend.New(c, log2.NewTest(t, log2.LDebug), mock, func(_ string, s gobreaker.State) { states = append(states, s) })
	require.NoError(t, err)

	ctx := context.Background()
	for i := 0; i < 3; i++ {
		_, err = client.LiveTracking(ctx)
		require.Error(t, err)
	}
	assert.Equal(t, gobreaker.StateOpen, client.BreakerState())
	assert.Equal(t, []gobreaker.State{gobreaker.StateOpen}, states)

	_, err = client.LiveTracking(ctx)
	assert.Equal(t, backend.ErrUnavailable, errors.Cause(err))
	assert.Equal(t, 3, mock.Calls(), "open breaker must not reach transport")
}

func TestClientErrorsDoNotTrip(t *testing.T) {
	t.Parallel()

	client, _ := newServer(t, map[string]http.HandlerFunc{
		"/api/maintenance/": func(w http.ResponseWriter, r *http.Request) { http.Error(w, `{"error":"Invalid direction"}`, 400) },
	})
	for i := 0; i < 10; i++ {
		err := client.Maintenance(context.Background(), "inching", 1, map[string]string{"direction": "up"})
		require.Error(t, err)
		assert.True(t, backend.IsStatus(err, 400))
	}
	assert.Equal(t, gobreaker.StateClosed, client.BreakerState())
}

func TestDestinations(t *testing.T) {
	t.Parallel()

	client, _ := newServer(t, map[string]http.HandlerFunc{
		"/api/network_architecture": jsonBody(map[string]interface{}{"components": []map[string]string{
			{"id": "passthrough-station-1", "type": "passthrough-station"},
			{"id": "passthrough-station-2", "type": "passthrough-station"},
			{"id": "bottom-loading-station-3", "type": "bottom-loading-station"},
			{"id": "carrier-diverter-4", "type": "carrier-diverter"},
			{"id": "blower-1", "type": "blower"},
			{"id": "tubing", "type": "carrier-diverter-with-tubing"},
		}}),
	})
	ds, err := client.Destinations(context.Background(), "passthrough-station-1")
	require.NoError(t, err)
	assert.Equal(t, []types.Destination{
		{Name: "passthrough-station-2", Number: 2, Code: "P2", Kind: "passthrough-station"},
		{Name: "bottom-loading-station-3", Number: 3, Code: "B3", Kind: "bottom-loading-station"},
		{Name: "carrier-diverter-4", Number: 4, Code: "C4", Kind: "carrier-diverter"},
		{Name: "tubing", Number: 1, Code: "TG", Kind: "carrier-diverter-with-tubing"},
	}, ds)
}

func TestEndpoints(t *testing.T) {
	t.Parallel()

	ok := jsonBody(map[string]string{"status": "sent"})
	client, rec := newServer(t, map[string]http.HandlerFunc{
		"/api/check_dispatch_allowed":  jsonBody(map[string]interface{}{"allowed": false, "reason": "System is already dispatching"}),
		"/api/check_pod_available/2":   jsonBody(map[string]bool{"available": true}),
		"/api/get_client_ip":           jsonBody(map[string]string{"ip": "192.168.90.3"}),
		"/api/get_dispatch_history":    jsonBody([]map[string]interface{}{{"task_id": 7, "from": "passthrough-station-1", "to": "passthrough-station-3"}}),
		"/get_logs":                    jsonBody([]map[string]string{{"task_id": "1", "from": "a", "to": "b", "date": "01/02/24", "time": "10:00"}}),
		"/api/maintenance/airdivert/2": ok,
		"/api/clear_history_60":        ok,
		"/api/download_history":        func(w http.ResponseWriter, r *http.Request) { _, _ = io.WriteString(w, "task_id,from,to\n") },
	})
	ctx := context.Background()

	allowed, reason, err := client.DispatchAllowed(ctx)
	require.NoError(t, err)
	assert.False(t, allowed)
	assert.Equal(t, "System is already dispatching", reason)

	avail, err := client.PodAvailable(ctx, 2)
	require.NoError(t, err)
	assert.True(t, avail)

	ip, err := client.ClientIP(ctx)
	require.NoError(t, err)
	assert.Equal(t, "192.168.90.3", ip)

	latest, err := client.LatestDispatch(ctx)
	require.NoError(t, err)
	assert.Equal(t, types.HistoryEntry{TaskID: "7", From: "passthrough-station-1", To: "passthrough-station-3"}, latest)

	logs, err := client.Logs(ctx)
	require.NoError(t, err)
	require.Len(t, logs, 1)
	assert.Equal(t, "10:00", logs[0].Time)

	require.NoError(t, client.Maintenance(ctx, "airdivert", 2, map[string]interface{}{"action": "suck", "power": 40}))
	assert.JSONEq(t, `{"action":"suck","power":40}`, rec.bodyOf("/api/maintenance/airdivert/2"))
	assert.True(t, errors.IsNotValid(client.Maintenance(ctx, "explode", 2, nil)))

	require.NoError(t, client.ClearHistory(ctx, "60"))
	assert.True(t, errors.IsNotValid(client.ClearHistory(ctx, "7")))

	buf := bytes.NewBuffer(nil)
	n, err := client.DownloadHistory(ctx, buf)
	require.NoError(t, err)
	assert.Equal(t, int64(buf.Len()), n)
	assert.Equal(t, "task_id,from,to\n", buf.String())

	assert.Contains(t, rec.list(), "DELETE /api/clear_history_60")
	assert.Contains(t, rec.list(), "POST /api/maintenance/airdivert/2")
}

func TestSubmitPin(t *testing.T) {
	t.Parallel()

	client, rec := newServer(t, map[string]http.HandlerFunc{
		"/2": func(w http.ResponseWriter, r *http.Request) {
			_ = r.ParseForm()
			if r.PostForm.Get("pin") == "2222" {
				http.Redirect(w, r, "/station/2", http.StatusFound)
				return
			}
			_, _ = io.WriteString(w, "<p>Incorrect PIN</p>")
		},
		"/locked": func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusForbidden) },
	})
	ctx := context.Background()

	ok, err := client.SubmitPin(ctx, "/2", "2222")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = client.SubmitPin(ctx, "/2", "1111")
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = client.SubmitPin(ctx, "/locked", "1111")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, "pin=1111", rec.bodyOf("/locked"))
}

func TestNewInvalid(t *testing.T) {
	t.Parallel()

	var c backend.Config
	c.URL = "ftp://example"
	_, err := backend.New(c, nil, nil, nil)
	assert.True(t, errors.IsNotValid(err))
}

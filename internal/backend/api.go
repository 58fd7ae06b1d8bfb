package backend

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/juju/errors"

	"github.com/podline/kiosk/internal/display"
	"github.com/podline/kiosk/internal/types"
)

// component types valid as dispatch destination
var DestinationTypes = []string{
	"passthrough-station",
	"bottom-loading-station",
	"carrier-diverter-with-tubing",
	"carrier-diverter",
}

// MaintenanceActions accepted by POST /api/maintenance/{action}/{station}.
var MaintenanceActions = []string{"inching", "airdivert", "stop", "selftest", "indexing", "podsensing"}

// ClearScopes maps clear-data scope to endpoint suffix.
var ClearScopes = map[string]string{
	"all": "",
	"60":  "_60",
	"30":  "_30",
}

type liveTracking struct {
	SystemStatus bool    `json:"system_status"`
	Sender       *string `json:"sender"`
	Receiver     *string `json:"receiver"`
	TaskID       *idText `json:"task_id"`
}

// idText accepts JSON string or number.
type idText string

func (t *idText) UnmarshalJSON(b []byte) error {
	s := strings.TrimSpace(string(b))
	if s == "null" {
		*t = ""
		return nil
	}
	s = strings.Trim(s, `"`)
	*t = idText(s)
	return nil
}

func str(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}

// StatusFromLiveTracking converts live tracking payload (HTTP or pushed) into Status.
func StatusFromLiveTracking(b []byte) (types.Status, error) {
	var lt liveTracking
	if err := json.Unmarshal(b, &lt); err != nil {
		return types.Standby, err
	}
	if !lt.SystemStatus {
		return types.Standby, nil
	}
	st := types.Status{Active: true, Sender: str(lt.Sender), Receiver: str(lt.Receiver)}
	if lt.TaskID != nil {
		st.TaskID = string(*lt.TaskID)
	}
	return st, nil
}

func (self *Client) LiveTracking(ctx context.Context) (types.Status, error) {
	var raw json.RawMessage
	if err := self.getJSON(ctx, "/api/live_tracking", &raw); err != nil {
		return types.Standby, err
	}
	st, err := StatusFromLiveTracking(raw)
	return st, errors.Annotate(err, "live_tracking")
}

type historyRow struct {
	TaskID   idText `json:"task_id"`
	From     string `json:"from"`
	To       string `json:"to"`
	Priority string `json:"priority"`
	Date     string `json:"date"`
	Time     string `json:"time"`
}

func (r historyRow) entry() types.HistoryEntry {
	return types.HistoryEntry{TaskID: string(r.TaskID), From: r.From, To: r.To, Priority: r.Priority, Date: r.Date, Time: r.Time}
}

func (self *Client) history(ctx context.Context, path string) ([]types.HistoryEntry, error) {
	var rows []historyRow
	if err := self.getJSON(ctx, path, &rows); err != nil {
		return nil, err
	}
	out := make([]types.HistoryEntry, len(rows))
	for i, r := range rows {
		out[i] = r.entry()
	}
	return out, nil
}

// LatestDispatch is the most recent history entry.
func (self *Client) LatestDispatch(ctx context.Context) (types.HistoryEntry, error) {
	hs, err := self.history(ctx, "/api/get_dispatch_history")
	if err != nil {
		return types.HistoryEntry{}, err
	}
	if len(hs) == 0 {
		return types.HistoryEntry{}, errors.NotFoundf("dispatch history")
	}
	return hs[0], nil
}

func (self *Client) Logs(ctx context.Context) ([]types.HistoryEntry, error) {
	return self.history(ctx, "/get_logs")
}

// Destinations lists dispatch targets from network architecture, excluding own station.
func (self *Client) Destinations(ctx context.Context, own string) ([]types.Destination, error) {
	var arch struct {
		Components []types.Component `json:"components"`
	}
	if err := self.getJSON(ctx, "/api/network_architecture", &arch); err != nil {
		return nil, err
	}
	return FilterDestinations(arch.Components, own), nil
}

func FilterDestinations(cs []types.Component, own string) []types.Destination {
	out := make([]types.Destination, 0, len(cs))
	for _, c := range cs {
		if c.ID == "" || c.ID == own || !isDestinationType(c.Type) {
			continue
		}
		n := 1
		if strings.Contains(c.ID, "-") {
			n = display.Number(c.ID)
		}
		out = append(out, types.Destination{Name: c.ID, Number: n, Code: display.Code(c.ID), Kind: c.Type})
	}
	return out
}

func isDestinationType(t string) bool {
	for _, x := range DestinationTypes {
		if x == t {
			return true
		}
	}
	return false
}

// DispatchAllowed returns permission and server reason when denied.
func (self *Client) DispatchAllowed(ctx context.Context) (bool, string, error) {
	var r struct {
		Allowed bool    `json:"allowed"`
		Reason  *string `json:"reason"`
	}
	if err := self.getJSON(ctx, "/api/check_dispatch_allowed", &r); err != nil {
		return false, "", err
	}
	return r.Allowed, str(r.Reason), nil
}

func (self *Client) PodAvailable(ctx context.Context, station int) (bool, error) {
	var r struct {
		Available bool `json:"available"`
	}
	err := self.getJSON(ctx, fmt.Sprintf("/api/check_pod_available/%d", station), &r)
	return r.Available, err
}

func (self *Client) ClientIP(ctx context.Context) (string, error) {
	var r struct {
		IP string `json:"ip"`
	}
	err := self.getJSON(ctx, "/api/get_client_ip", &r)
	return r.IP, err
}

// Maintenance posts action for station. body may be nil.
func (self *Client) Maintenance(ctx context.Context, action string, station int, body interface{}) error {
	if !validMaintenance(action) {
		return errors.NotValidf("maintenance action=%s", action)
	}
	if body == nil {
		body = struct{}{}
	}
	return self.sendJSON(ctx, http.MethodPost, fmt.Sprintf("/api/maintenance/%s/%d", action, station), body)
}

func validMaintenance(action string) bool {
	for _, a := range MaintenanceActions {
		if a == action {
			return true
		}
	}
	return false
}

func (self *Client) ClearHistory(ctx context.Context, scope string) error {
	suffix, ok := ClearScopes[scope]
	if !ok {
		return errors.NotValidf("clear scope=%s", scope)
	}
	return self.sendJSON(ctx, http.MethodDelete, "/api/clear_history"+suffix, nil)
}

// DownloadHistory copies export body into w, returns bytes written.
func (self *Client) DownloadHistory(ctx context.Context, w io.Writer) (int64, error) {
	r, err := self.do(ctx, http.MethodGet, "/api/download_history", "", nil)
	if err != nil {
		return 0, err
	}
	if r.code < 200 || r.code >= 300 {
		return 0, errors.Trace(self.statusError(http.MethodGet, "/api/download_history", r))
	}
	n, err := w.Write(r.body)
	return int64(n), errors.Annotate(err, "download_history write")
}

// SubmitPin posts login form; 2xx and 3xx mean accepted, 401/403 rejected.
func (self *Client) SubmitPin(ctx context.Context, path, pin string) (bool, error) {
	form := url.Values{"pin": {pin}}
	r, err := self.do(ctx, http.MethodPost, path, "application/x-www-form-urlencoded", []byte(form.Encode()))
	if err != nil {
		if IsStatus(err, http.StatusUnauthorized) || IsStatus(err, http.StatusForbidden) {
			return false, nil
		}
		return false, err
	}
	if r.code >= 200 && r.code < 400 {
		// station login page re-renders with error and 200
		if r.code == http.StatusOK && strings.Contains(string(r.body), "Incorrect PIN") {
			return false, nil
		}
		return true, nil
	}
	return false, nil
}

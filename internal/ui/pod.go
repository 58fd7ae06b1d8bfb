package ui

import (
	"fmt"

	"github.com/podline/kiosk/helpers"
	"github.com/podline/kiosk/internal/display"
	"github.com/podline/kiosk/internal/tele"
	"github.com/podline/kiosk/internal/types"
)

type podAccepted struct {
	RequestID        string `json:"requestId"`
	RequesterStation string `json:"requesterStation"`
	AcceptorStation  string `json:"acceptorStation"`
}

func (self *UI) requestPod() {
	now := self.Sched.Now().UnixMilli()
	req := types.PodRequest{
		RequestID:        fmt.Sprintf("%s-%d", self.station.Name, now),
		RequesterStation: self.station.Name,
		Timestamp:        now,
	}
	if !self.emit(types.EmitRequestEmptyPod, req) {
		self.notify(display.NoticeError, MsgOffline)
		return
	}
	self.m.pod.sent = &req
	self.g.Tele.Event(tele.EventPodRequest, map[string]interface{}{"request_id": req.RequestID})
	self.notify(display.NoticeSuccess, MsgPodSent)
}

// onPodRequest shows incoming request card.
// Own requests and a second concurrent request are dropped.
func (self *UI) onPodRequest(req types.PodRequest) {
	if req.RequesterStation == self.station.Name {
		return
	}
	if cur := self.m.pod.incoming; cur != nil {
		self.log.Infof("ui pod request id=%s from=%s dropped, showing id=%s", req.RequestID, req.RequesterStation, cur.RequestID)
		return
	}
	self.m.pod.incoming = &req
	self.log.Infof("ui pod request id=%s from=%s", req.RequestID, req.RequesterStation)
}

// acceptPod answers displayed request, then primes dispatch with requester preselected.
func (self *UI) acceptPod() {
	req := self.m.pod.incoming
	if req == nil {
		self.notify(display.NoticeInfo, MsgPodNone)
		return
	}
	data := podAccepted{RequestID: req.RequestID, RequesterStation: req.RequesterStation, AcceptorStation: self.station.Name}
	if !self.emit(types.EmitEmptyPodRequestAccepted, data) {
		self.notify(display.NoticeError, MsgOffline)
		return
	}
	self.m.pod.incoming = nil
	self.g.Tele.Event(tele.EventPodAccept, map[string]interface{}{"request_id": data.RequestID, "requester": data.RequesterStation})
	self.notify(display.NoticeSuccess, MsgPodAccepted)
	if !self.m.present[types.ScreenDispatch] {
		return
	}
	self.activate(types.ScreenDispatch)
	requester := data.RequesterStation
	self.after(helpers.IntMillisecondDefault(self.config.Dispatch.PreselectMs, DefaultPreselect), func() {
		if self.m.screen != types.ScreenDispatch {
			return
		}
		self.m.dispatch.selected = requester
	})
}

func (self *UI) onPodAccepted(data podAccepted) {
	if cur := self.m.pod.incoming; cur != nil && (data.RequestID == "" || cur.RequestID == data.RequestID) {
		self.m.pod.incoming = nil
	}
	if data.RequesterStation == self.station.Name {
		self.m.pod.sent = nil
		self.notify(display.NoticeSuccess, fmt.Sprintf("Empty Pod Request Accepted by %s", data.AcceptorStation))
	}
}

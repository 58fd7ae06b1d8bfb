package ui

import (
	"context"

	"github.com/podline/kiosk/helpers"
	"github.com/podline/kiosk/internal/types"
)

// poll fetches live tracking unless previous fetch is still in flight.
func (self *UI) poll() {
	if self.m.polling {
		self.log.Debugf("ui poll skip in flight")
		return
	}
	self.m.polling = true
	self.async(func(ctx context.Context) func() {
		st, err := self.Backend.LiveTracking(ctx)
		return func() {
			self.m.polling = false
			self.g.Metrics.RecordPoll(err == nil)
			if err != nil {
				if !self.m.pollFailing {
					self.log.Errorf("ui poll live_tracking err=%v", err)
				}
				self.m.pollFailing = true
				st = types.Standby
			} else if self.m.pollFailing {
				self.log.Infof("ui poll live_tracking recovered")
				self.m.pollFailing = false
			}
			self.applyStatus(st)
			if self.m.pollAgain {
				self.m.pollAgain = false
				self.poll()
			}
		}
	})
}

// refetch is authoritative re-fetch requested by push event.
// When a poll is in flight, one more runs right after it.
func (self *UI) refetch() {
	if self.m.polling {
		self.m.pollAgain = true
		return
	}
	self.poll()
}

// applyStatus sets merged status; arrow animation follows active flag.
// Enrichment result of the same task fills blanks only.
func (self *UI) applyStatus(st types.Status) {
	prev := self.m.status
	if !st.Active {
		self.m.status = types.Standby
		self.m.enriched = types.HistoryEntry{}
		if self.enrichTimer != nil {
			self.enrichTimer.Stop()
			self.enrichTimer = nil
		}
		self.arrow.Stop()
		if prev.Active {
			self.log.Infof("status standby")
		}
		return
	}
	if st.TaskID != "" && st.TaskID != self.m.enriched.TaskID {
		self.m.enriched = types.HistoryEntry{}
	}
	if !st.Complete() {
		self.scheduleEnrich()
	}
	fillStatus(&st, self.m.enriched)
	self.m.status = st
	self.arrow.Start()
	if !prev.Active {
		self.log.Infof("status active sender=%s receiver=%s task=%s", st.Sender, st.Receiver, st.TaskID)
	}
}

func fillStatus(st *types.Status, h types.HistoryEntry) {
	if st.Sender == "" {
		st.Sender = h.From
	}
	if st.Receiver == "" {
		st.Receiver = h.To
	}
	if st.TaskID == "" {
		st.TaskID = h.TaskID
	}
}

// scheduleEnrich: best effort fill of missing sender/receiver from latest history entry.
// At most one pending at a time; result is cached until task id changes or standby.
func (self *UI) scheduleEnrich() {
	if self.enrichTimer != nil || self.m.enriched != (types.HistoryEntry{}) {
		return
	}
	self.enrichTimer = self.after(helpers.IntMillisecondDefault(self.config.EnrichMs, DefaultEnrich), func() {
		self.enrichTimer = nil
		if !self.m.status.Active || self.m.status.Complete() {
			return
		}
		self.async(func(ctx context.Context) func() {
			h, err := self.Backend.LatestDispatch(ctx)
			return func() {
				if err != nil {
					self.log.Errorf("ui enrich err=%v", err)
					return
				}
				if !self.m.status.Active {
					return
				}
				if cur := self.m.status.TaskID; cur != "" && h.TaskID != "" && h.TaskID != cur {
					self.log.Debugf("ui enrich skip history task=%s current=%s", h.TaskID, cur)
					return
				}
				self.m.enriched = h
				fillStatus(&self.m.status, h)
			}
		})
	})
}

package ui

import (
	"context"

	"github.com/podline/kiosk/helpers"
	"github.com/podline/kiosk/internal/keypad"
	"github.com/podline/kiosk/internal/tele"
	"github.com/podline/kiosk/internal/types"
)

func (self *UI) keyDigit(d byte) {
	if self.m.screen != types.ScreenKeypad || self.m.keypad.waiting {
		return
	}
	self.m.keypad.pad.Push(d)
}

func (self *UI) keyBack() {
	if self.m.screen != types.ScreenKeypad || self.m.keypad.waiting {
		return
	}
	self.m.keypad.pad.Back()
}

// keyEnter validates PIN; buffer is empty afterwards regardless of outcome.
func (self *UI) keyEnter() {
	if self.m.screen != types.ScreenKeypad || self.m.keypad.waiting {
		return
	}
	pad := self.m.keypad.pad
	n := pad.Len()
	pin := pad.Enter()
	if self.config.Keypad.Mode != KeypadRemote {
		if keypad.Match(pin, self.config.Keypad.Code) {
			self.unlock()
		} else {
			self.pinInvalid()
		}
		return
	}

	if n != pad.Max() {
		self.pinInvalid()
		return
	}
	self.m.keypad.waiting = true
	self.m.keypad.message = MsgCheckingPin
	path := self.config.Keypad.RemotePath
	self.async(func(ctx context.Context) func() {
		ok, err := self.Backend.SubmitPin(ctx, path, pin)
		return func() {
			self.m.keypad.waiting = false
			self.m.keypad.message = MsgEnterPin
			if self.m.screen != types.ScreenKeypad {
				return
			}
			if err != nil {
				self.log.Errorf("ui pin submit err=%v", err)
			}
			if ok {
				self.unlock()
			} else {
				self.pinInvalid()
			}
		}
	})
}

func (self *UI) unlock() {
	target := self.m.keypad.target
	if target == types.ScreenNone || target == types.ScreenKeypad {
		target = types.ScreenDashboard
	}
	self.log.Infof("ui login ok target=%s", target.String())
	self.g.Tele.Event(tele.EventLogin, map[string]interface{}{"target": target.String()})
	self.activate(target)
}

func (self *UI) pinInvalid() {
	k := &self.m.keypad
	k.shake = true
	k.invalid = true
	k.message = MsgInvalidPin
	self.after(helpers.IntMillisecondDefault(self.config.Keypad.ShakeMs, DefaultShake), func() { k.shake = false })
	self.after(helpers.IntMillisecondDefault(self.config.Keypad.ErrorMs, DefaultPinError), func() {
		k.invalid = false
		if !k.waiting {
			k.message = MsgEnterPin
		}
	})
}

// keyReveal shows digits for a short time.
func (self *UI) keyReveal() {
	if self.m.screen != types.ScreenKeypad {
		return
	}
	self.m.keypad.pad.SetRevealed(true)
	if self.revealTimer != nil {
		self.revealTimer.Stop()
	}
	self.revealTimer = self.after(helpers.IntMillisecondDefault(self.config.Keypad.RevealMs, DefaultReveal), func() {
		self.revealTimer = nil
		self.m.keypad.pad.SetRevealed(false)
	})
}

func (self *UI) resetKeypad() {
	k := &self.m.keypad
	k.pad.Reset()
	k.pad.SetRevealed(false)
	k.shake = false
	k.invalid = false
	k.waiting = false
	k.message = MsgEnterPin
	if self.revealTimer != nil {
		self.revealTimer.Stop()
		self.revealTimer = nil
	}
}

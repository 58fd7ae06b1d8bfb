// Package input turns hardware keypad presses from /dev/input/event* into controller actions.
package input

import (
	"context"
	"io"
	"os"

	"github.com/juju/errors"
	"github.com/temoto/inputevent-go"

	"github.com/podline/kiosk/internal/types"
	"github.com/podline/kiosk/log2"
)

const DevInputEventTag = "dev-input-event"

// EV_KEY from linux/input-event-codes.h
const evKey uint16 = 0x01

// Linux key scan codes used by kiosk keypad.
const (
	keyEsc       = 1
	key1         = 2
	key0         = 11
	keyBackspace = 14
	keyTab       = 15
	keyEnter     = 28
	keyF1        = 59
	keyF2        = 60
	keyF3        = 61
	keyF4        = 62
	keyKP7       = 71
	keyKP8       = 72
	keyKP9       = 73
	keyKP4       = 75
	keyKP5       = 76
	keyKP6       = 77
	keyKP1       = 79
	keyKP2       = 80
	keyKP3       = 81
	keyKP0       = 82
	keyKPDot     = 83
	keyKPEnter   = 96
)

var keypadDigits = map[uint16]byte{
	keyKP0: '0', keyKP1: '1', keyKP2: '2', keyKP3: '3', keyKP4: '4',
	keyKP5: '5', keyKP6: '6', keyKP7: '7', keyKP8: '8', keyKP9: '9',
}

// KeyAction maps key code to action, false for keys kiosk ignores.
func KeyAction(code uint16) (types.Action, bool) {
	switch {
	case code >= key1 && code < key0:
		return types.Action{Kind: types.ActionKeyDigit, Digit: byte('1' + code - key1)}, true
	case code == key0:
		return types.Action{Kind: types.ActionKeyDigit, Digit: '0'}, true
	}
	if d, ok := keypadDigits[code]; ok {
		return types.Action{Kind: types.ActionKeyDigit, Digit: d}, true
	}
	switch code {
	case keyBackspace:
		return types.Action{Kind: types.ActionKeyBack}, true
	case keyEnter, keyKPEnter:
		return types.Action{Kind: types.ActionKeyEnter}, true
	case keyTab, keyKPDot:
		return types.Action{Kind: types.ActionKeyReveal}, true
	case keyEsc:
		return types.Action{Kind: types.ActionDismissAlert}, true
	case keyF1:
		return types.Action{Kind: types.ActionNavigate, Screen: types.ScreenDashboard}, true
	case keyF2:
		return types.Action{Kind: types.ActionNavigate, Screen: types.ScreenDispatch}, true
	case keyF3:
		return types.Action{Kind: types.ActionNavigate, Screen: types.ScreenHistory}, true
	case keyF4:
		return types.Action{Kind: types.ActionNavigate, Screen: types.ScreenMaintenance}, true
	}
	return types.Action{}, false
}

type DevInputEventSource struct {
	f io.ReadCloser
}

func (self *DevInputEventSource) String() string { return DevInputEventTag }

func NewDevInputEventSource(device string) (*DevInputEventSource, error) {
	f, err := os.Open(device)
	if err != nil {
		return nil, errors.Annotatef(err, "%s open", DevInputEventTag)
	}
	return NewSource(f), nil
}

func NewSource(r io.ReadCloser) *DevInputEventSource { return &DevInputEventSource{f: r} }

// Read blocks until a mapped key is released.
func (self *DevInputEventSource) Read() (types.Action, error) {
	for {
		ie, err := inputevent.ReadOne(self.f)
		if err != nil {
			return types.Action{}, err
		}
		if ie.Type != evKey || ie.Value != int32(inputevent.KeyStateUp) {
			continue
		}
		if a, ok := KeyAction(ie.Code); ok {
			return a, nil
		}
	}
}

func (self *DevInputEventSource) Close() error { return self.f.Close() }

// Run feeds actions into post until ctx is done, post refuses or source fails.
func Run(ctx context.Context, log *log2.Log, src *DevInputEventSource, post func(types.Action) bool) error {
	go func() {
		<-ctx.Done()
		_ = src.Close() // to unblock Read
	}()
	for {
		a, err := src.Read()
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return errors.Annotatef(err, "input source=%s", src.String())
		}
		log.Debugf("%s action=%s", DevInputEventTag, a.String())
		if !post(a) {
			return nil
		}
	}
}

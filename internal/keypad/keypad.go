// Package keypad accumulates PIN digits for the login gate.
package keypad

import (
	"crypto/subtle"

	"github.com/podline/kiosk/internal/display"
)

const DefaultLength = 4

type Pad struct {
	max      int
	digits   []byte
	revealed bool
}

func New(max int) *Pad {
	if max <= 0 {
		max = DefaultLength
	}
	return &Pad{max: max, digits: make([]byte, 0, max)}
}

func (self *Pad) Max() int       { return self.max }
func (self *Pad) Len() int       { return len(self.digits) }
func (self *Pad) Full() bool     { return len(self.digits) == self.max }
func (self *Pad) Revealed() bool { return self.revealed }

// Push appends digit, false when full or not a digit.
func (self *Pad) Push(d byte) bool {
	if d < '0' || d > '9' || len(self.digits) >= self.max {
		return false
	}
	self.digits = append(self.digits, d)
	return true
}

func (self *Pad) Back() {
	if n := len(self.digits); n > 0 {
		self.digits = self.digits[:n-1]
	}
}

// Enter returns entered digits and always empties buffer.
func (self *Pad) Enter() string {
	s := string(self.digits)
	self.Reset()
	return s
}

func (self *Pad) Reset() { self.digits = self.digits[:0] }

func (self *Pad) SetRevealed(on bool) { self.revealed = on }

func (self *Pad) Dots() string {
	return display.PinDots(string(self.digits), self.max, self.revealed)
}

// Match compares entered PIN with expected code in constant time.
func Match(entered, code string) bool {
	if code == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(entered), []byte(code)) == 1
}

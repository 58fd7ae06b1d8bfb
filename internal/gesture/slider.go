// Package gesture implements press-drag-release commit control.
//
// Idle -> Dragging on Press when gate holds.
// Dragging -> Idle on Release; commit reported only when offset passed threshold
// and the check at release time succeeds.
package gesture

import (
	"github.com/juju/errors"
)

const (
	DefaultMax       = 190
	DefaultThreshold = 140
)

type Phase uint8

const (
	PhaseIdle Phase = iota
	PhaseDragging
)

func (p Phase) String() string {
	if p == PhaseDragging {
		return "dragging"
	}
	return "idle"
}

type Outcome uint8

const (
	// OutcomeNone: release without prior press.
	OutcomeNone Outcome = iota
	// OutcomeReset: below threshold, handle goes back to rest.
	OutcomeReset
	// OutcomeBlocked: past threshold but check failed, handle goes back, user told why.
	OutcomeBlocked
	OutcomeCommit
)

func (o Outcome) String() string {
	switch o {
	case OutcomeReset:
		return "reset"
	case OutcomeBlocked:
		return "blocked"
	case OutcomeCommit:
		return "commit"
	}
	return "none"
}

var ErrGateClosed = errors.New("gesture gate closed")

type Slider struct {
	Max       float64
	Threshold float64

	phase  Phase
	start  float64
	offset float64
}

func New(max, threshold float64) *Slider {
	if max <= 0 {
		max = DefaultMax
	}
	if threshold <= 0 || threshold > max {
		threshold = DefaultThreshold
	}
	return &Slider{Max: max, Threshold: threshold}
}

func (self *Slider) Phase() Phase      { return self.phase }
func (self *Slider) Dragging() bool    { return self.phase == PhaseDragging }
func (self *Slider) Offset() float64   { return self.offset }
func (self *Slider) Passed() bool      { return self.offset > self.Threshold }
func (self *Slider) Fraction() float64 { return self.offset / self.Max }

// Press starts drag at pointer position x. Rejected with ErrGateClosed when gate is false.
func (self *Slider) Press(x float64, gate bool) error {
	if !gate {
		self.Reset()
		return ErrGateClosed
	}
	self.phase = PhaseDragging
	self.start = x
	self.offset = 0
	return nil
}

// Move tracks pointer; offset is clamped to [0, Max]. Ignored when not dragging.
func (self *Slider) Move(x float64) {
	if self.phase != PhaseDragging {
		return
	}
	d := x - self.start
	if d < 0 {
		d = 0
	}
	if d > self.Max {
		d = self.Max
	}
	self.offset = d
}

// Release ends gesture. check runs only when threshold is passed;
// its error is returned with OutcomeBlocked.
// Offset is kept until Reset so renderer can animate return.
func (self *Slider) Release(check func() error) (Outcome, error) {
	if self.phase != PhaseDragging {
		return OutcomeNone, nil
	}
	self.phase = PhaseIdle
	if !self.Passed() {
		return OutcomeReset, nil
	}
	if check != nil {
		if err := check(); err != nil {
			return OutcomeBlocked, err
		}
	}
	return OutcomeCommit, nil
}

// Reset returns handle to rest position.
func (self *Slider) Reset() {
	self.phase = PhaseIdle
	self.start = 0
	self.offset = 0
}

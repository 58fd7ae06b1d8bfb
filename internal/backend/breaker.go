package backend

import (
	"time"

	"github.com/juju/errors"
	"github.com/sony/gobreaker"

	"github.com/podline/kiosk/helpers"
	"github.com/podline/kiosk/log2"
)

const (
	defaultMaxFailures  = 5
	defaultFailureRatio = 0.6
	defaultMinRequests  = 10
	defaultOpen         = 10 * time.Second
	defaultInterval     = 60 * time.Second
)

var ErrUnavailable = errors.New("backend unavailable")

// StateFunc observes breaker transitions, e.g. metrics gauge.
type StateFunc func(name string, state gobreaker.State)

func newBreaker(name string, c *Config, log *log2.Log, onState StateFunc) *gobreaker.CircuitBreaker {
	maxFailures := uint32(c.Breaker.MaxFailures)
	if maxFailures == 0 {
		maxFailures = defaultMaxFailures
	}
	ratio := c.Breaker.FailureRatio
	if ratio == 0 {
		ratio = defaultFailureRatio
	}
	minRequests := uint32(c.Breaker.MinRequests)
	if minRequests == 0 {
		minRequests = defaultMinRequests
	}
	return gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        name,
		MaxRequests: 1,
		Interval:    helpers.IntSecondDefault(c.Breaker.IntervalSec, defaultInterval),
		Timeout:     helpers.IntSecondDefault(c.Breaker.OpenSec, defaultOpen),
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.ConsecutiveFailures >= maxFailures {
				return true
			}
			if counts.Requests >= minRequests {
				return float64(counts.TotalFailures)/float64(counts.Requests) >= ratio
			}
			return false
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Infof("backend breaker=%s state %s -> %s", name, from.String(), to.String())
			if onState != nil {
				onState(name, to)
			}
		},
	})
}

func breakerError(err error) error {
	if err == gobreaker.ErrOpenState || err == gobreaker.ErrTooManyRequests {
		return errors.Wrap(err, ErrUnavailable)
	}
	return err
}

package tele

import (
	"context"

	"github.com/podline/kiosk/log2"
)

// Snapshot is kiosk state as seen by operators.
type Snapshot struct {
	Screen    string
	Active    bool
	Connected bool
	Sender    string
	Receiver  string
}

// Audit record kinds.
const (
	EventDispatch    = "dispatch"
	EventAbort       = "abort"
	EventPodRequest  = "pod_request"
	EventPodAccept   = "pod_accept"
	EventMaintenance = "maintenance"
	EventClearData   = "clear_data"
	EventLogin       = "login"
)

// CommandFunc receives remote operator commands, e.g. name="navigate" args={"screen":"lock"}.
type CommandFunc func(name string, args map[string]interface{})

// Teler is kiosk telemetry client.
type Teler interface {
	Init(ctx context.Context, log *log2.Log, c Config, station string, onCommand CommandFunc) error
	Close()
	State(Snapshot)
	Event(kind string, fields map[string]interface{})
	Error(error)
}

type stub struct{}

func (stub) Init(context.Context, *log2.Log, Config, string, CommandFunc) error { return nil }
func (stub) Close()                                                             {}
func (stub) State(Snapshot)                                                     {}
func (stub) Event(string, map[string]interface{})                               {}
func (stub) Error(error)                                                        {}

func NewStub() Teler { return stub{} }

package tele

import (
	"context"

	"github.com/podline/kiosk/log2"
)

// Tele transport contract:
// - Init fails only with invalid config, ignores network errors
// - Send* return true when message was accepted for delivery
// - application may start without network available
type Transporter interface {
	Init(ctx context.Context, log *log2.Log, c Config, topics Topics, onCommand func([]byte), willPayload []byte) error
	SendState(payload []byte) bool
	SendEvent(payload []byte) bool
	Close()
}

type Topics struct {
	Connect string
	State   string
	Event   string
	Command string
}

func NewTopics(prefix, station string) Topics {
	if prefix == "" {
		prefix = DefaultTopicPrefix
	}
	base := prefix + "/" + station
	return Topics{
		Connect: base + "/c",
		State:   base + "/state",
		Event:   base + "/event",
		Command: base + "/cmd",
	}
}

package channel

import (
	"bytes"
	"encoding/json"
	"strconv"

	"github.com/juju/errors"
)

// Engine.IO v4 packet types.
const (
	engineOpen    byte = '0'
	engineClose   byte = '1'
	enginePing    byte = '2'
	enginePong    byte = '3'
	engineMessage byte = '4'
	engineUpgrade byte = '5'
	engineNoop    byte = '6'
)

// Socket.IO v5 packet types, carried inside engine message.
const (
	socketConnect      byte = '0'
	socketDisconnect   byte = '1'
	socketEvent        byte = '2'
	socketAck          byte = '3'
	socketConnectError byte = '4'
)

// Packet is one decoded websocket text frame.
type Packet struct {
	Engine    byte
	Socket    byte // only for engineMessage
	Namespace string
	AckID     int // -1 when absent
	Payload   []byte
}

func Decode(b []byte) (Packet, error) {
	p := Packet{AckID: -1}
	if len(b) == 0 {
		return p, errors.NotValidf("packet empty")
	}
	p.Engine = b[0]
	switch p.Engine {
	case engineOpen, engineClose, enginePing, enginePong, engineUpgrade, engineNoop:
		p.Payload = b[1:]
		return p, nil
	case engineMessage:
	default:
		return p, errors.NotValidf("engine packet type=%q", p.Engine)
	}
	if len(b) < 2 {
		return p, errors.NotValidf("socket packet empty")
	}
	p.Socket = b[1]
	if p.Socket < socketConnect || p.Socket > '6' {
		return p, errors.NotValidf("socket packet type=%q", p.Socket)
	}
	rest := b[2:]
	if len(rest) > 0 && rest[0] == '/' {
		i := bytes.IndexByte(rest, ',')
		if i < 0 {
			p.Namespace = string(rest)
			return p, nil
		}
		p.Namespace = string(rest[:i])
		rest = rest[i+1:]
	}
	i := 0
	for i < len(rest) && rest[i] >= '0' && rest[i] <= '9' {
		i++
	}
	if i > 0 {
		id, err := strconv.Atoi(string(rest[:i]))
		if err != nil {
			return p, errors.Annotate(err, "ack id")
		}
		p.AckID = id
		rest = rest[i:]
	}
	p.Payload = rest
	return p, nil
}

// DecodeEvent splits event payload ["name", data] into parts. Missing data is JSON null.
func DecodeEvent(payload []byte) (string, json.RawMessage, error) {
	var arr []json.RawMessage
	if err := json.Unmarshal(payload, &arr); err != nil {
		return "", nil, errors.Annotate(err, "event payload")
	}
	if len(arr) == 0 {
		return "", nil, errors.NotValidf("event without name")
	}
	var name string
	if err := json.Unmarshal(arr[0], &name); err != nil {
		return "", nil, errors.Annotate(err, "event name")
	}
	data := json.RawMessage("null")
	if len(arr) > 1 {
		data = arr[1]
	}
	return name, data, nil
}

func EncodeEvent(name string, data interface{}) ([]byte, error) {
	payload, err := json.Marshal([]interface{}{name, data})
	if err != nil {
		return nil, errors.Annotatef(err, "encode event=%s", name)
	}
	b := make([]byte, 0, len(payload)+2)
	b = append(b, engineMessage, socketEvent)
	return append(b, payload...), nil
}

var (
	frameConnect = []byte{engineMessage, socketConnect}
	framePong    = []byte{enginePong}
)

type openPayload struct {
	SID          string `json:"sid"`
	PingInterval int    `json:"pingInterval"`
	PingTimeout  int    `json:"pingTimeout"`
}

package channel

import (
	"encoding/json"
	"testing"

	"github.com/juju/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecode(t *testing.T) {
	t.Parallel()

	cases := []struct {
		input   string
		expect  Packet
		invalid bool
	}{
		{`0{"sid":"a","pingInterval":25000,"pingTimeout":20000}`, Packet{Engine: engineOpen, AckID: -1, Payload: []byte(`{"sid":"a","pingInterval":25000,"pingTimeout":20000}`)}, false},
		{"2", Packet{Engine: enginePing, AckID: -1, Payload: []byte{}}, false},
		{`40{"sid":"b"}`, Packet{Engine: engineMessage, Socket: socketConnect, AckID: -1, Payload: []byte(`{"sid":"b"}`)}, false},
		{`42["status",{"status":true}]`, Packet{Engine: engineMessage, Socket: socketEvent, AckID: -1, Payload: []byte(`["status",{"status":true}]`)}, false},
		{`4213["x"]`, Packet{Engine: engineMessage, Socket: socketEvent, AckID: 13, Payload: []byte(`["x"]`)}, false},
		{`42/admin,["x"]`, Packet{Engine: engineMessage, Socket: socketEvent, Namespace: "/admin", AckID: -1, Payload: []byte(`["x"]`)}, false},
		{`44{"message":"unauthorized"}`, Packet{Engine: engineMessage, Socket: socketConnectError, AckID: -1, Payload: []byte(`{"message":"unauthorized"}`)}, false},
		{"", Packet{}, true},
		{"9", Packet{}, true},
		{"4", Packet{}, true},
		{"4x", Packet{}, true},
	}
	for _, c := range cases {
		c := c
		t.Run(c.input, func(t *testing.T) {
			p, err := Decode([]byte(c.input))
			if c.invalid {
				assert.True(t, errors.IsNotValid(err), "err=%v", err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, c.expect.Engine, p.Engine)
			assert.Equal(t, c.expect.Socket, p.Socket)
			assert.Equal(t, c.expect.Namespace, p.Namespace)
			assert.Equal(t, c.expect.AckID, p.AckID)
			assert.Equal(t, string(c.expect.Payload), string(p.Payload))
		})
	}
}

func TestEvent(t *testing.T) {
	t.Parallel()

	b, err := EncodeEvent("dispatch", map[string]string{"from": "passthrough-station-1", "to": "passthrough-station-2", "priority": "low"})
	require.NoError(t, err)
	assert.Equal(t, `42["dispatch",{"from":"passthrough-station-1","priority":"low","to":"passthrough-station-2"}]`, string(b))

	p, err := Decode(b)
	require.NoError(t, err)
	name, data, err := DecodeEvent(p.Payload)
	require.NoError(t, err)
	assert.Equal(t, "dispatch", name)
	var m map[string]string
	require.NoError(t, json.Unmarshal(data, &m))
	assert.Equal(t, "low", m["priority"])

	name, data, err = DecodeEvent([]byte(`["receiver_ack_completed"]`))
	require.NoError(t, err)
	assert.Equal(t, "receiver_ack_completed", name)
	assert.Equal(t, "null", string(data))

	_, _, err = DecodeEvent([]byte(`[]`))
	assert.True(t, errors.IsNotValid(err))
	_, _, err = DecodeEvent([]byte(`{}`))
	assert.Error(t, err)
}

func TestSocketURL(t *testing.T) {
	t.Parallel()

	u, err := socketURL("http://192.168.90.1:5000", "")
	require.NoError(t, err)
	assert.Equal(t, "ws://192.168.90.1:5000/socket.io/?EIO=4&transport=websocket", u)
	u, err = socketURL("https://kiosk.example/base/", "/io")
	require.NoError(t, err)
	assert.Equal(t, "wss://kiosk.example/base/io/?EIO=4&transport=websocket", u)
	_, err = socketURL("ftp://x", "")
	assert.True(t, errors.IsNotValid(err))
}

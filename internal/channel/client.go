// Package channel is push-event client speaking Socket.IO v4 text framing over websocket.
// Inbound events are delivered to Handler from connection goroutine;
// synthetic connect, connect_error and disconnect events report link state.
package channel

import (
	"context"
	"encoding/json"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/juju/errors"

	"github.com/podline/kiosk/helpers"
	"github.com/podline/kiosk/internal/types"
	"github.com/podline/kiosk/log2"
)

const (
	defaultReconnectDelay = time.Second
	defaultHandshake      = 10 * time.Second
	defaultPingInterval   = 25 * time.Second
	defaultPingTimeout    = 20 * time.Second
	writeTimeout          = 10 * time.Second
)

var ErrNotConnected = errors.New("channel not connected")
var ErrExhausted = errors.New("channel reconnect attempts exhausted")

type Handler func(types.PushEvent)

type Status struct {
	Connected bool   `json:"connected"`
	Attempts  int    `json:"attempts"`
	LastError string `json:"last_error,omitempty"`
}

type Client struct {
	log         *log2.Log
	url         string
	dialer      *websocket.Dialer
	handshake   time.Duration
	maxAttempts int
	backoff     helpers.Backoff

	mu        sync.Mutex
	handler   Handler
	conn      *websocket.Conn
	connected bool
	lastError error
	send      chan []byte
}

// New client; backendURL is used when c.URL is empty.
func New(c Config, backendURL string, log *log2.Log) (*Client, error) {
	raw := c.URL
	if raw == "" {
		raw = backendURL
	}
	wsURL, err := socketURL(raw, c.Path)
	if err != nil {
		return nil, err
	}
	delay := helpers.IntMillisecondDefault(c.ReconnectDelayMs, defaultReconnectDelay)
	factor := c.ReconnectFactor
	if factor == 0 {
		factor = 1
	}
	maxDelay := helpers.IntMillisecondDefault(c.ReconnectMaxMs, delay)
	attempts := c.ReconnectAttempts
	if attempts == 0 {
		attempts = DefaultReconnectAttempts
	}
	queue := c.SendQueue
	if queue == 0 {
		queue = 32
	}
	self := &Client{
		log:         log,
		url:         wsURL,
		dialer:      &websocket.Dialer{HandshakeTimeout: helpers.IntMillisecondDefault(c.HandshakeMs, defaultHandshake)},
		handshake:   helpers.IntMillisecondDefault(c.HandshakeMs, defaultHandshake),
		maxAttempts: attempts,
		backoff:     helpers.Backoff{Min: delay, Max: maxDelay, K: factor},
		send:        make(chan []byte, queue),
	}
	return self, nil
}

// socketURL converts http(s) base into ws(s) Engine.IO endpoint.
func socketURL(raw, path string) (string, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return "", errors.Annotatef(err, "channel url=%s", raw)
	}
	switch u.Scheme {
	case "http", "ws":
		u.Scheme = "ws"
	case "https", "wss":
		u.Scheme = "wss"
	default:
		return "", errors.NotValidf("channel url=%s scheme", raw)
	}
	if path == "" {
		path = DefaultPath
	}
	if !strings.HasSuffix(path, "/") {
		path += "/"
	}
	u.Path = strings.TrimRight(u.Path, "/") + path
	q := u.Query()
	q.Set("EIO", "4")
	q.Set("transport", "websocket")
	u.RawQuery = q.Encode()
	return u.String(), nil
}

func (self *Client) URL() string { return self.url }

func (self *Client) SetHandler(h Handler) {
	self.mu.Lock()
	self.handler = h
	self.mu.Unlock()
}

func (self *Client) Connected() bool {
	self.mu.Lock()
	defer self.mu.Unlock()
	return self.connected
}

func (self *Client) Status() Status {
	self.mu.Lock()
	defer self.mu.Unlock()
	s := Status{Connected: self.connected, Attempts: self.backoff.Attempts()}
	if self.lastError != nil {
		s.LastError = self.lastError.Error()
	}
	return s
}

// Emit queues named event. Fails fast when link is down or queue is full.
func (self *Client) Emit(name string, data interface{}) error {
	b, err := EncodeEvent(name, data)
	if err != nil {
		return err
	}
	if !self.Connected() {
		return errors.Annotatef(ErrNotConnected, "emit %s", name)
	}
	select {
	case self.send <- b:
		self.log.Debugf("channel emit %s", string(b))
		return nil
	default:
		return errors.Errorf("emit %s send queue full", name)
	}
}

// Run keeps connection alive until ctx is done or reconnect attempts run out.
func (self *Client) Run(ctx context.Context) error {
	for {
		wasConnected, err := self.session(ctx)
		if ctx.Err() != nil {
			return nil
		}
		if wasConnected {
			self.backoff.Reset()
		}
		if err != nil {
			self.setError(err)
			self.log.Errorf("channel url=%s err=%v", self.url, err)
			if !wasConnected {
				self.deliver(types.PushConnectError, errorData(err))
			}
		}
		if self.backoff.Attempts() >= self.maxAttempts {
			self.log.Errorf("channel giving up after attempts=%d", self.maxAttempts)
			return errors.Trace(ErrExhausted)
		}
		delay := self.backoff.Failure()
		self.log.Debugf("channel reconnect attempt=%d in %v", self.backoff.Attempts(), delay)
		select {
		case <-ctx.Done():
			return nil
		case <-time.After(delay):
		}
	}
}

func errorData(err error) json.RawMessage {
	b, _ := json.Marshal(map[string]string{"message": err.Error()})
	return b
}

func (self *Client) setError(err error) {
	self.mu.Lock()
	self.lastError = err
	self.mu.Unlock()
}

func (self *Client) deliver(name string, data json.RawMessage) {
	self.mu.Lock()
	h := self.handler
	self.mu.Unlock()
	if h != nil {
		h(types.PushEvent{Name: name, Data: data})
	}
}

// session runs one connection from dial to loss.
func (self *Client) session(ctx context.Context) (bool, error) {
	conn, _, err := self.dialer.DialContext(ctx, self.url, nil)
	if err != nil {
		return false, errors.Annotate(err, "dial")
	}
	defer conn.Close()

	stop := make(chan struct{})
	defer close(stop)
	go func() {
		select {
		case <-ctx.Done():
			conn.Close()
		case <-stop:
		}
	}()

	open, err := self.handshakeOpen(conn)
	if err != nil {
		return false, err
	}
	deadline := time.Duration(open.PingInterval+open.PingTimeout) * time.Millisecond
	if deadline <= 0 {
		deadline = defaultPingInterval + defaultPingTimeout
	}

	// drain stale messages queued before connect
	for len(self.send) > 0 {
		<-self.send
	}
	self.mu.Lock()
	self.conn = conn
	self.connected = true
	self.lastError = nil
	self.mu.Unlock()
	self.log.Infof("channel connected sid=%s", open.SID)
	self.deliver(types.PushConnect, json.RawMessage("null"))

	writeErr := make(chan error, 1)
	go func() { writeErr <- self.writeLoop(conn, stop) }()
	err = self.readLoop(conn, deadline)

	self.mu.Lock()
	self.conn = nil
	self.connected = false
	self.mu.Unlock()
	select {
	case werr := <-writeErr:
		if err == nil {
			err = werr
		}
	default:
	}
	reason, _ := json.Marshal(reasonOf(err))
	self.deliver(types.PushDisconnect, reason)
	return true, err
}

func reasonOf(err error) string {
	if err == nil {
		return "io server disconnect"
	}
	return "transport close"
}

// handshakeOpen reads engine open, requests namespace connect and waits for ack.
func (self *Client) handshakeOpen(conn *websocket.Conn) (openPayload, error) {
	var open openPayload
	_ = conn.SetReadDeadline(time.Now().Add(self.handshake))
	p, err := self.readPacket(conn)
	if err != nil {
		return open, errors.Annotate(err, "open")
	}
	if p.Engine != engineOpen {
		return open, errors.NotValidf("expected open, packet type=%q", p.Engine)
	}
	if err := json.Unmarshal(p.Payload, &open); err != nil {
		return open, errors.Annotate(err, "open payload")
	}
	_ = conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	if err := conn.WriteMessage(websocket.TextMessage, frameConnect); err != nil {
		return open, errors.Annotate(err, "namespace connect")
	}
	for {
		p, err := self.readPacket(conn)
		if err != nil {
			return open, errors.Annotate(err, "namespace connect ack")
		}
		switch {
		case p.Engine == enginePing:
			_ = conn.WriteMessage(websocket.TextMessage, framePong)
		case p.Engine == engineMessage && p.Socket == socketConnect:
			return open, nil
		case p.Engine == engineMessage && p.Socket == socketConnectError:
			self.deliver(types.PushConnectError, json.RawMessage(p.Payload))
			return open, errors.Errorf("connect_error %s", string(p.Payload))
		}
	}
}

func (self *Client) readPacket(conn *websocket.Conn) (Packet, error) {
	typ, b, err := conn.ReadMessage()
	if err != nil {
		return Packet{}, err
	}
	if typ != websocket.TextMessage {
		return Packet{Engine: engineNoop, AckID: -1}, nil
	}
	return Decode(b)
}

// readLoop returns nil on server disconnect, error on transport failure.
func (self *Client) readLoop(conn *websocket.Conn, deadline time.Duration) error {
	for {
		_ = conn.SetReadDeadline(time.Now().Add(deadline))
		p, err := self.readPacket(conn)
		if err != nil {
			if websocket.IsCloseError(err, websocket.CloseNormalClosure) {
				return nil
			}
			if errors.IsNotValid(err) {
				self.log.Errorf("channel skip packet: %v", err)
				continue
			}
			return errors.Annotate(err, "read")
		}
		switch p.Engine {
		case enginePing:
			self.enqueue(framePong)
		case engineClose:
			return nil
		case engineMessage:
			switch p.Socket {
			case socketEvent:
				name, data, err := DecodeEvent(p.Payload)
				if err != nil {
					self.log.Errorf("channel event decode: %v", err)
					continue
				}
				self.deliver(name, data)
			case socketDisconnect:
				return nil
			case socketConnectError:
				self.deliver(types.PushConnectError, json.RawMessage(p.Payload))
			}
		}
	}
}

func (self *Client) enqueue(b []byte) {
	select {
	case self.send <- b:
	default:
		self.log.Errorf("channel send queue full, dropped %q", string(b))
	}
}

func (self *Client) writeLoop(conn *websocket.Conn, stop <-chan struct{}) error {
	for {
		select {
		case <-stop:
			return nil
		case b := <-self.send:
			_ = conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := conn.WriteMessage(websocket.TextMessage, b); err != nil {
				conn.Close()
				return errors.Annotate(err, "write")
			}
		}
	}
}

package tele

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/golang/protobuf/proto"
	structpb "github.com/golang/protobuf/ptypes/struct"
	"github.com/google/uuid"
	"github.com/juju/errors"
	"github.com/temoto/spq"

	"github.com/podline/kiosk/log2"
)

const DefaultNetworkTimeout = 30 * time.Second

// Tele contract:
//   - Init() fails only with invalid config, network issues ignored
//   - Event/Error block at most for disk write,
//     network may be slow or absent, messages will be delivered in background
//   - Event and Error records delivered at least once
//   - State messages may be lost, last one is retained by broker
type tele struct {
	config    Config
	log       *log2.Log
	transport Transporter
	q         *spq.Queue
	onCommand CommandFunc
	session   string
	station   string

	mu      sync.Mutex
	current *Snapshot
	stopCh  chan struct{}
	doneCh  chan struct{}
}

func New() Teler {
	return &tele{}
}
func NewWithTransporter(trans Transporter) Teler {
	return &tele{transport: trans}
}

func (self *tele) Init(ctx context.Context, log *log2.Log, c Config, station string, onCommand CommandFunc) error {
	self.config = c
	self.log = log
	self.station = station
	self.onCommand = onCommand
	self.session = uuid.New().String()
	if self.config.LogDebug {
		self.log.SetLevel(log2.LDebug)
	}
	if !self.config.Enabled {
		self.log.Debugf(logMsgDisabled)
		return nil
	}
	if self.config.ClientID == "" {
		self.config.ClientID = "kiosk-" + station
	}
	if self.config.PersistPath == "" {
		return errors.NotValidf("tele enabled but persist_path empty")
	}

	// test code sets .transport
	if self.transport == nil {
		self.transport = &transportMqtt{}
	}
	topics := NewTopics(self.config.TopicPrefix, station)
	if err := self.transport.Init(ctx, log, self.config, topics, self.onCommandMessage, []byte{0x00}); err != nil {
		return errors.Annotate(err, "tele transport")
	}

	var err error
	self.q, err = spq.Open(self.config.PersistPath)
	if err != nil {
		return errors.Annotate(err, "tele queue")
	}
	self.stopCh = make(chan struct{})
	self.doneCh = make(chan struct{})
	go self.qworker()
	self.log.Debugf("tele session=%s station=%s", self.session, station)
	return nil
}

func (self *tele) Close() {
	if self.q == nil {
		return
	}
	close(self.stopCh)
	if err := self.q.Close(); err != nil {
		self.log.Errorf("tele queue close err=%v", err)
	}
	<-self.doneCh
	self.transport.Close()
}

const logMsgDisabled = "tele disabled"

// denote value type in persistent queue bytes form
const (
	qEvent byte = 1
	qError byte = 2
)

func (self *tele) qworker() {
	defer close(self.doneCh)
	for {
		box, err := self.q.Peek()
		switch err {
		case nil:
			b := box.Bytes()
			var del bool
			del, err = self.qhandle(b)
			if err != nil {
				self.log.Errorf("tele qhandle b=%x err=%v", b, err)
			}
			if del {
				err = self.q.Delete(box)
			} else {
				err = self.q.DeletePush(box)
				select {
				case <-self.stopCh:
				case <-time.After(time.Second):
				}
			}
			if err != nil && err != spq.ErrClosed {
				self.log.Errorf("tele queue del=%t b=%x err=%v", del, b, err)
			}

		case spq.ErrClosed:
			select {
			case <-self.stopCh: // success path
			default:
				self.log.Errorf("CRITICAL tele spq closed unexpectedly")
			}
			return

		default:
			self.log.Errorf("CRITICAL tele spq err=%v", err)
			select {
			case <-self.stopCh:
				return
			case <-time.After(time.Second):
			}
		}
	}
}

// qhandle returns true when record should be removed from queue.
func (self *tele) qhandle(b []byte) (bool, error) {
	if len(b) == 0 {
		return true, errors.Errorf("tele spq peek=empty")
	}
	switch b[0] {
	case qEvent, qError:
		return self.transport.SendEvent(b[1:]), nil
	default:
		return true, errors.Errorf("unknown kind=%d", b[0])
	}
}

func (self *tele) qpushTagProto(tag byte, pb proto.Message) error {
	buf := proto.NewBuffer(make([]byte, 0, 512))
	if err := buf.EncodeVarint(uint64(tag)); err != nil {
		return err
	}
	if err := buf.Marshal(pb); err != nil {
		return err
	}
	return self.q.Push(buf.Bytes())
}

func (self *tele) State(s Snapshot) {
	if !self.config.Enabled {
		return
	}
	self.mu.Lock()
	if self.current != nil && *self.current == s {
		self.mu.Unlock()
		return
	}
	self.current = &s
	self.mu.Unlock()

	payload, err := proto.Marshal(self.record("state", map[string]interface{}{
		"screen":    s.Screen,
		"active":    s.Active,
		"connected": s.Connected,
		"sender":    s.Sender,
		"receiver":  s.Receiver,
	}))
	if err != nil {
		self.log.Errorf("CRITICAL tele state marshal err=%v", err)
		return
	}
	self.transport.SendState(payload)
}

func (self *tele) Event(kind string, fields map[string]interface{}) {
	if !self.config.Enabled {
		self.log.Debugf(logMsgDisabled)
		return
	}
	if err := self.qpushTagProto(qEvent, self.record(kind, fields)); err != nil {
		self.log.Errorf("CRITICAL tele event=%s err=%v", kind, err)
	}
}

func (self *tele) Error(e error) {
	if !self.config.Enabled || e == nil {
		return
	}
	self.log.Debugf("tele.Error: " + errors.ErrorStack(e))
	if err := self.qpushTagProto(qError, self.record("error", map[string]interface{}{"message": e.Error()})); err != nil {
		// must not call log.Error here, it would loop back
		self.log.Infof("CRITICAL tele error=%v err=%v", e, err)
	}
}

func (self *tele) record(kind string, fields map[string]interface{}) *structpb.Struct {
	s := &structpb.Struct{Fields: make(map[string]*structpb.Value, len(fields)+4)}
	for k, v := range fields {
		s.Fields[k] = toValue(v)
	}
	s.Fields["kind"] = toValue(kind)
	s.Fields["station"] = toValue(self.station)
	s.Fields["session"] = toValue(self.session)
	s.Fields["time"] = toValue(time.Now().UnixNano() / int64(time.Millisecond))
	return s
}

func (self *tele) onCommandMessage(payload []byte) {
	var s structpb.Struct
	if err := proto.Unmarshal(payload, &s); err != nil {
		self.log.Errorf("tele command parse raw=%x err=%v", payload, err)
		return
	}
	args := s.AsMap()
	name, _ := args["command"].(string)
	if name == "" {
		self.log.Errorf("tele command without name raw=%x", payload)
		return
	}
	delete(args, "command")
	self.log.Debugf("tele command=%s args=%v", name, args)
	if name == "report" {
		self.mu.Lock()
		self.current = nil
		self.mu.Unlock()
	}
	if self.onCommand != nil {
		self.onCommand(name, args)
	}
}

func toValue(x interface{}) *structpb.Value {
	switch v := x.(type) {
	case nil:
		return &structpb.Value{Kind: &structpb.Value_NullValue{}}
	case string:
		return &structpb.Value{Kind: &structpb.Value_StringValue{StringValue: v}}
	case bool:
		return &structpb.Value{Kind: &structpb.Value_BoolValue{BoolValue: v}}
	case int:
		return &structpb.Value{Kind: &structpb.Value_NumberValue{NumberValue: float64(v)}}
	case int64:
		return &structpb.Value{Kind: &structpb.Value_NumberValue{NumberValue: float64(v)}}
	case float64:
		return &structpb.Value{Kind: &structpb.Value_NumberValue{NumberValue: v}}
	case map[string]interface{}:
		s := &structpb.Struct{Fields: make(map[string]*structpb.Value, len(v))}
		for k, inner := range v {
			s.Fields[k] = toValue(inner)
		}
		return &structpb.Value{Kind: &structpb.Value_StructValue{StructValue: s}}
	default:
		return &structpb.Value{Kind: &structpb.Value_StringValue{StringValue: fmt.Sprint(v)}}
	}
}

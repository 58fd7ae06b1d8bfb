package types

import (
	"encoding/json"
	"fmt"
)

type EventKind uint8

const (
	EventInvalid EventKind = iota
	EventPush
	EventAction
	EventFunc
	EventStop
)

func (k EventKind) String() string {
	switch k {
	case EventPush:
		return "Push"
	case EventAction:
		return "Action"
	case EventFunc:
		return "Func"
	case EventStop:
		return "Stop"
	}
	return "Invalid"
}

// Event is one unit of work for controller loop.
type Event struct {
	Push   PushEvent
	Action Action
	Func   func()
	Kind   EventKind
}

func (e *Event) String() string {
	inner := ""
	switch e.Kind {
	case EventPush:
		inner = fmt.Sprintf(" name=%s data=%s", e.Push.Name, string(e.Push.Data))
	case EventAction:
		inner = " " + e.Action.String()
	}
	return fmt.Sprintf("Event(%s%s)", e.Kind.String(), inner)
}

// PushEvent is named message received over push channel.
type PushEvent struct {
	Name string
	Data json.RawMessage
}

// Inbound push event names.
const (
	PushConnect                 = "connect"
	PushConnectError            = "connect_error"
	PushDisconnect              = "disconnect"
	PushSystemStatusChanged     = "system_status_changed"
	PushDispatchEvent           = "dispatch_event"
	PushDispatchQueued          = "dispatch_queued"
	PushDispatchRejected        = "dispatch_rejected"
	PushDispatchFailed          = "dispatch_failed"
	PushDispatchDone            = "dispatch_done"
	PushStatus                  = "status"
	PushEmptyPodRequest         = "empty_pod_request"
	PushEmptyPodRequestAccepted = "empty_pod_request_accepted"
	PushPodAvailabilityChanged  = "pod_availability_changed"
	PushMaintenanceEntered      = "notify_maintenance_entered"
	PushMaintenanceExited       = "notify_maintenance_exited"
	PushMqttMessage             = "mqtt_message"
	PushReceiverAckCompleted    = "receiver_ack_completed"
	PushStationDispatchStarted  = "station_dispatch_started"
)

// Outbound event names.
const (
	EmitJoin                    = "join"
	EmitDispatch                = "dispatch"
	EmitDispatchCompleted       = "dispatch_completed"
	EmitRequestEmptyPod         = "request_empty_pod"
	EmitEmptyPodRequestAccepted = "empty_pod_request_accepted"
	EmitMaintenanceEntered      = "maintenance_entered"
	EmitMaintenanceExited       = "maintenance_exited"
)

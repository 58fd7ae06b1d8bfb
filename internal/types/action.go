package types

import "fmt"

type ActionKind uint8

const (
	ActionInvalid ActionKind = iota
	ActionNavigate
	ActionSelectDestination
	ActionTogglePriority
	ActionSlidePress
	ActionSlideMove
	ActionSlideRelease
	ActionAbort
	ActionRequestPod
	ActionAcceptPod
	ActionInching
	ActionAirDivert
	ActionStop
	ActionSensorTap
	ActionKeyDigit
	ActionKeyBack
	ActionKeyEnter
	ActionKeyReveal
	ActionHistorySort
	ActionHistoryDownload
	ActionClearScope
	ActionDismissAlert
)

var actionNames = map[ActionKind]string{
	ActionNavigate:          "navigate",
	ActionSelectDestination: "select",
	ActionTogglePriority:    "priority",
	ActionSlidePress:        "press",
	ActionSlideMove:         "move",
	ActionSlideRelease:      "release",
	ActionAbort:             "abort",
	ActionRequestPod:        "request-pod",
	ActionAcceptPod:         "accept-pod",
	ActionInching:           "inching",
	ActionAirDivert:         "airdivert",
	ActionStop:              "stop",
	ActionSensorTap:         "sensor",
	ActionKeyDigit:          "digit",
	ActionKeyBack:           "back",
	ActionKeyEnter:          "enter",
	ActionKeyReveal:         "reveal",
	ActionHistorySort:       "sort",
	ActionHistoryDownload:   "download",
	ActionClearScope:        "scope",
	ActionDismissAlert:      "dismiss",
}

func (k ActionKind) String() string {
	if s, ok := actionNames[k]; ok {
		return s
	}
	return fmt.Sprintf("ActionKind(%d)", k)
}

func ParseActionKind(s string) (ActionKind, bool) {
	for k, name := range actionNames {
		if name == s {
			return k, true
		}
	}
	return ActionInvalid, false
}

// Action is user intent from touch surface, hardware keypad or console.
// Field meaning depends on Kind:
// Navigate: Screen; SelectDestination: Value (name) or Int (number);
// Slide*: X; Inching: Value (moveLeft|moveRight);
// AirDivert: Value (suck|blow), Int (power); SensorTap: Value (S1..P4);
// KeyDigit: Digit; HistorySort: Value (id-asc|id-desc|time-asc|time-desc);
// ClearScope: Value (all|60|30).
type Action struct {
	Value  string
	X      float64
	Int    int
	Kind   ActionKind
	Screen Screen
	Digit  byte
}

func (a Action) String() string {
	switch a.Kind {
	case ActionNavigate:
		return fmt.Sprintf("%s screen=%s", a.Kind, a.Screen)
	case ActionSlidePress, ActionSlideMove:
		return fmt.Sprintf("%s x=%.1f", a.Kind, a.X)
	case ActionKeyDigit:
		// digit value not logged
		return a.Kind.String()
	case ActionSelectDestination:
		return fmt.Sprintf("%s id=%d", a.Kind, a.Int)
	case ActionAirDivert:
		return fmt.Sprintf("%s value=%s power=%d", a.Kind, a.Value, a.Int)
	}
	if a.Value != "" {
		return fmt.Sprintf("%s value=%s", a.Kind, a.Value)
	}
	return a.Kind.String()
}

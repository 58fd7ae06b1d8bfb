package types

import (
	"fmt"
	"strings"
)

type Screen uint8

const (
	ScreenNone Screen = iota
	ScreenDashboard
	ScreenDispatch
	ScreenHistory
	ScreenMaintenance
	ScreenClearData
	ScreenKeypad
	ScreenLock
)

var AllScreens = []Screen{
	ScreenDashboard,
	ScreenDispatch,
	ScreenHistory,
	ScreenMaintenance,
	ScreenClearData,
	ScreenKeypad,
	ScreenLock,
}

var screenNames = [...]string{
	ScreenNone:        "none",
	ScreenDashboard:   "dashboard",
	ScreenDispatch:    "dispatch",
	ScreenHistory:     "history",
	ScreenMaintenance: "maintenance",
	ScreenClearData:   "cleardata",
	ScreenKeypad:      "keypad",
	ScreenLock:        "lock",
}

func (s Screen) String() string {
	if int(s) < len(screenNames) {
		return screenNames[s]
	}
	return fmt.Sprintf("Screen(%d)", s)
}

func (s Screen) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

// ParseScreen accepts screen name in any case, also "clear-data" and "screen-lock" spellings.
func ParseScreen(name string) (Screen, bool) {
	n := strings.ToLower(strings.TrimSpace(name))
	n = strings.NewReplacer("-", "", "_", "", " ", "").Replace(n)
	switch n {
	case "screenlock":
		return ScreenLock, true
	case "login":
		return ScreenKeypad, true
	}
	for i, sn := range screenNames {
		if i != int(ScreenNone) && sn == n {
			return Screen(i), true
		}
	}
	return ScreenNone, false
}

package ui

import (
	"github.com/podline/kiosk/internal/display"
	"github.com/podline/kiosk/internal/gesture"
	"github.com/podline/kiosk/internal/keypad"
	"github.com/podline/kiosk/internal/types"
)

// model is the single owned controller state.
// Mutated only on the loop goroutine.
type model struct {
	screen    types.Screen
	nav       types.Screen
	present   map[types.Screen]bool
	connected bool

	status      types.Status
	enriched    types.HistoryEntry
	polling     bool
	pollAgain   bool
	pollFailing bool

	dispatch dispatchModel
	pod      podModel
	maint    maintModel
	keypad   keypadModel
	history  historyModel
	clear    clearModel

	sliders map[types.Screen]*gesture.Slider

	noticeSeq int
	notices   []notice
	alert     string
}

type dispatchModel struct {
	allowed      bool
	reason       string
	pending      bool // committed, awaiting server confirmation
	podAvailable bool
	destinations []types.Destination
	selected     string
	priorityHigh bool
	msgWarning   string
	msgNoPod     string
}

// actionable: selected destination may be dispatched right now.
func (d *dispatchModel) actionable() bool {
	return d.allowed && d.podAvailable && d.selected != ""
}

func (d *dispatchModel) find(name string) (types.Destination, bool) {
	for _, x := range d.destinations {
		if x.Name == name {
			return x, true
		}
	}
	return types.Destination{}, false
}

type podModel struct {
	incoming *types.PodRequest
	sent     *types.PodRequest
}

type maintModel struct {
	order    []string
	sensors  map[string]bool
	busy     map[string]bool
	airPower int
	// other stations currently in maintenance
	others map[int]bool
}

type keypadModel struct {
	pad     *keypad.Pad
	target  types.Screen
	message string
	shake   bool
	invalid bool
	waiting bool
}

type historyModel struct {
	entries []types.HistoryEntry
	sort    string
	loading bool
	saved   string
}

type clearModel struct {
	scope string
}

type notice struct {
	id   int
	text string
	kind display.NoticeKind
}

func (m *model) dropNotice(id int) {
	for i, n := range m.notices {
		if n.id == id {
			m.notices = append(m.notices[:i], m.notices[i+1:]...)
			return
		}
	}
}

func (m *model) slider(s types.Screen) *gesture.Slider { return m.sliders[s] }

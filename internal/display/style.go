package display

import "strings"

const (
	ColorGreen = "#32B34B"
	ColorRed   = "#FF3B30"
	ColorBlue  = "#007AFF"
	ColorGrey  = "#8E8E93"
)

type NoticeKind uint8

const (
	NoticeInfo NoticeKind = iota
	NoticeSuccess
	NoticeError
)

func (k NoticeKind) String() string {
	switch k {
	case NoticeSuccess:
		return "success"
	case NoticeError:
		return "error"
	}
	return "info"
}

func (k NoticeKind) MarshalText() ([]byte, error) { return []byte(k.String()), nil }

func NoticeColor(k NoticeKind) string {
	switch k {
	case NoticeSuccess:
		return ColorGreen
	case NoticeError:
		return ColorRed
	}
	return ColorBlue
}

type ArrowStyle struct {
	Opacity float64 `json:"opacity"`
	Fill    string  `json:"fill"`
}

// ArrowFrame maps blink state to per-element style.
// Not running: all visible green.
// Running: elements with index parity matching toggle are visible, others hidden.
func ArrowFrame(n int, running, toggle bool) []ArrowStyle {
	frame := make([]ArrowStyle, n)
	parity := 1
	if toggle {
		parity = 0
	}
	for i := range frame {
		frame[i] = ArrowStyle{Opacity: 1, Fill: ColorGreen}
		if running && i%2 != parity {
			frame[i].Opacity = 0
		}
	}
	return frame
}

const (
	DotFilled = "●"
	DotEmpty  = "○"
)

// PinDots renders entered PIN as max dots, digits shown when revealed.
func PinDots(pin string, max int, revealed bool) string {
	var b strings.Builder
	for i := 0; i < max; i++ {
		switch {
		case i < len(pin) && revealed:
			b.WriteByte(pin[i])
		case i < len(pin):
			b.WriteString(DotFilled)
		default:
			b.WriteString(DotEmpty)
		}
	}
	return b.String()
}

func SensorColor(on bool) string {
	if on {
		return ColorGreen
	}
	return ColorRed
}

// SliderLeft is handle position for slider offset, rest is left padding at offset 0.
func SliderLeft(offset, rest, max float64) float64 {
	if offset < 0 {
		offset = 0
	}
	if offset > max {
		offset = max
	}
	return rest + offset
}

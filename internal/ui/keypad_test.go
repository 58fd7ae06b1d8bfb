package ui_test

import (
	"testing"

	"github.com/juju/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/podline/kiosk/internal/display"
	"github.com/podline/kiosk/internal/tele"
	"github.com/podline/kiosk/internal/types"
	"github.com/podline/kiosk/internal/ui"
)

var emptyDots = display.PinDots("", 4, false)

func TestKeypadLocal(t *testing.T) {
	t.Parallel()
	env := startEnv(t, testConfig)
	v := env.nav(types.ScreenClearData)
	require.Equal(t, types.ScreenKeypad, v.Screen)
	assert.Equal(t, ui.MsgEnterPin, v.Keypad.Message)
	assert.Equal(t, emptyDots, v.Keypad.Dots)

	env.act(types.Action{Kind: types.ActionKeyDigit, Digit: '9'})
	v = env.act(types.Action{Kind: types.ActionKeyDigit, Digit: '8'})
	assert.Equal(t, "●●○○", v.Keypad.Dots)
	v = env.act(types.Action{Kind: types.ActionKeyBack})
	assert.Equal(t, "●○○○", v.Keypad.Dots)

	v = env.act(types.Action{Kind: types.ActionKeyReveal})
	assert.Equal(t, "9○○○", v.Keypad.Dots)
	v = env.advance(ui.DefaultReveal)
	assert.Equal(t, "●○○○", v.Keypad.Dots)

	v = env.typePin("777")
	assert.Equal(t, types.ScreenKeypad, v.Screen)
	assert.Equal(t, emptyDots, v.Keypad.Dots)
	assert.True(t, v.Keypad.Invalid)
	assert.True(t, v.Keypad.Shake)
	assert.Equal(t, ui.MsgInvalidPin, v.Keypad.Message)

	v = env.advance(ui.DefaultShake)
	assert.False(t, v.Keypad.Shake)
	assert.True(t, v.Keypad.Invalid)
	v = env.advance(ui.DefaultPinError - ui.DefaultShake)
	assert.False(t, v.Keypad.Invalid)
	assert.Equal(t, ui.MsgEnterPin, v.Keypad.Message)

	v = env.typePin("1234")
	assert.Equal(t, types.ScreenClearData, v.Screen)
	assert.Equal(t, emptyDots, v.Keypad.Dots)
	assert.Contains(t, env.tele.kinds(), tele.EventLogin)
}

func TestKeypadDigitsIgnoredElsewhere(t *testing.T) {
	t.Parallel()
	env := startEnv(t, testConfig)
	env.act(types.Action{Kind: types.ActionKeyDigit, Digit: '1'})
	v := env.nav(types.ScreenMaintenance)
	assert.Equal(t, emptyDots, v.Keypad.Dots)

	// leaving keypad forgets digits
	env.act(types.Action{Kind: types.ActionKeyDigit, Digit: '1'})
	env.nav(types.ScreenHistory)
	v = env.nav(types.ScreenMaintenance)
	assert.Equal(t, emptyDots, v.Keypad.Dots)
}

func TestKeypadCustomCode(t *testing.T) {
	t.Parallel()
	env := startEnv(t, testConfig+`
ui {
  keypad {
    code = "246810"
    length = 6
    protect = ["history"]
  }
}
`)
	v := env.nav(types.ScreenMaintenance)
	assert.Equal(t, types.ScreenMaintenance, v.Screen)

	v = env.nav(types.ScreenHistory)
	require.Equal(t, types.ScreenKeypad, v.Screen)
	v = env.typePin("1234")
	assert.Equal(t, types.ScreenKeypad, v.Screen)
	v = env.typePin("246810")
	assert.Equal(t, types.ScreenHistory, v.Screen)
}

func TestKeypadRemote(t *testing.T) {
	t.Parallel()
	const conf = testConfig + `
ui {
  keypad {
    mode = "remote"
  }
}
`
	t.Run("accepted", func(t *testing.T) {
		t.Parallel()
		env := newEnv(t, conf, withQueue())
		env.backend.pinOK = true
		env.ui.Start()
		env.queue.flush()
		env.nav(types.ScreenMaintenance)
		v := env.typePin("4321")
		assert.True(t, v.Keypad.Waiting)
		assert.Equal(t, ui.MsgCheckingPin, v.Keypad.Message)
		// input locked while waiting
		v = env.act(types.Action{Kind: types.ActionKeyDigit, Digit: '5'})
		assert.Equal(t, emptyDots, v.Keypad.Dots)

		env.queue.flush()
		v = env.ui.View()
		assert.Equal(t, types.ScreenMaintenance, v.Screen)
		assert.Equal(t, []string{"4321"}, env.backend.pins)
		assert.Equal(t, 1, env.backend.count("submit_pin "+ui.DefaultPinPath))
	})

	t.Run("short pin not submitted", func(t *testing.T) {
		t.Parallel()
		env := startEnv(t, conf)
		env.nav(types.ScreenMaintenance)
		v := env.typePin("12")
		assert.True(t, v.Keypad.Invalid)
		assert.Empty(t, env.backend.pins)
	})

	t.Run("error", func(t *testing.T) {
		t.Parallel()
		env := startEnv(t, conf)
		env.backend.pinErr = errors.New("502")
		env.nav(types.ScreenMaintenance)
		v := env.typePin("1234")
		assert.Equal(t, types.ScreenKeypad, v.Screen)
		assert.True(t, v.Keypad.Invalid)
		assert.False(t, v.Keypad.Waiting)
	})
}

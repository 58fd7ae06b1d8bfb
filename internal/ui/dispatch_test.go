package ui_test

import (
	"testing"

	"github.com/juju/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/podline/kiosk/internal/tele"
	"github.com/podline/kiosk/internal/types"
	"github.com/podline/kiosk/internal/ui"
)

func selectDest(env *tenv, name string) *ui.View {
	return env.act(types.Action{Kind: types.ActionSelectDestination, Value: name})
}

func TestDispatchCommit(t *testing.T) {
	t.Parallel()
	env := startEnv(t, testConfig)
	v := env.nav(types.ScreenDispatch)
	require.Len(t, v.Dispatch.Destinations, 2)
	assert.True(t, v.Dispatch.Allowed)
	assert.True(t, v.Dispatch.PodAvailable)
	assert.False(t, v.Dispatch.Actionable)
	assert.Empty(t, v.Dispatch.Warning)

	v = selectDest(env, station2)
	assert.True(t, v.Dispatch.Actionable)
	assert.True(t, v.Dispatch.Destinations[0].Selected)

	v = env.slide(150)
	sent := env.emitter.find(types.EmitDispatch)
	require.Len(t, sent, 1)
	assert.JSONEq(t, `{"from":"passthrough-station-1","to":"passthrough-station-2","priority":"low"}`, sent[0].data)
	assert.False(t, v.Dispatch.Allowed)
	assert.Empty(t, v.Dispatch.Selected)
	assert.Contains(t, noticeTexts(v), "Dispatch from P1 to P2")
	assert.Contains(t, env.tele.kinds(), tele.EventDispatch)

	// further gestures are locked until server answers
	v = env.slide(180)
	assert.Len(t, env.emitter.find(types.EmitDispatch), 1)
	assert.Equal(t, ui.MsgBusy, v.Alert)

	v = env.advance(ui.DefaultRefreshDelay)
	assert.Equal(t, types.ScreenDashboard, v.Screen)
}

func TestDispatchThreshold(t *testing.T) {
	t.Parallel()
	env := startEnv(t, testConfig)
	env.nav(types.ScreenDispatch)
	selectDest(env, station3)

	env.act(types.Action{Kind: types.ActionSlidePress, X: 10})
	v := env.act(types.Action{Kind: types.ActionSlideMove, X: 150})
	assert.True(t, v.Dispatch.Slider.Dragging)
	assert.Equal(t, 145.0, v.Dispatch.Slider.Left)

	v = env.act(types.Action{Kind: types.ActionSlideRelease})
	assert.Empty(t, env.emitter.find(types.EmitDispatch))
	assert.False(t, v.Dispatch.Slider.Dragging)
	assert.Equal(t, 5.0, v.Dispatch.Slider.Left)
	assert.Equal(t, station3, v.Dispatch.Selected)
}

func TestDispatchRecheckedAtRelease(t *testing.T) {
	t.Parallel()

	t.Run("pod gone", func(t *testing.T) {
		t.Parallel()
		env := startEnv(t, testConfig)
		env.nav(types.ScreenDispatch)
		selectDest(env, station2)
		env.act(types.Action{Kind: types.ActionSlidePress, X: 0})
		env.act(types.Action{Kind: types.ActionSlideMove, X: 170})
		env.push(types.PushPodAvailabilityChanged, `{"station_id":"1","available":false}`)
		v := env.act(types.Action{Kind: types.ActionSlideRelease})
		assert.Empty(t, env.emitter.find(types.EmitDispatch))
		assert.Equal(t, ui.MsgNoPod, v.Alert)
		assert.Equal(t, 5.0, v.Dispatch.Slider.Left)
	})

	t.Run("dispatch started elsewhere", func(t *testing.T) {
		t.Parallel()
		env := startEnv(t, testConfig)
		env.nav(types.ScreenDispatch)
		selectDest(env, station2)
		env.act(types.Action{Kind: types.ActionSlidePress, X: 0})
		env.act(types.Action{Kind: types.ActionSlideMove, X: 170})
		env.push(types.PushSystemStatusChanged, `{"status":true}`)
		v := env.act(types.Action{Kind: types.ActionSlideRelease})
		assert.Empty(t, env.emitter.find(types.EmitDispatch))
		assert.Equal(t, types.ScreenDashboard, v.Screen)
		assert.False(t, v.Dispatch.Slider.Dragging)
	})

	t.Run("no destination", func(t *testing.T) {
		t.Parallel()
		env := startEnv(t, testConfig)
		env.nav(types.ScreenDispatch)
		v := env.slide(170)
		assert.Empty(t, env.emitter.find(types.EmitDispatch))
		assert.Contains(t, noticeTexts(v), ui.MsgNoDestination)
		assert.True(t, v.Dispatch.Allowed)
	})
}

func TestDispatchGateClosed(t *testing.T) {
	t.Parallel()
	env := newEnv(t, testConfig)
	env.backend.allowed = false
	env.ui.Start()
	v := env.nav(types.ScreenDispatch)
	assert.False(t, v.Dispatch.Allowed)
	assert.Equal(t, ui.MsgWarning, v.Dispatch.Warning)
	assert.True(t, v.Dispatch.Slider.Disabled)
	for _, d := range v.Dispatch.Destinations {
		assert.True(t, d.Disabled)
	}

	v = selectDest(env, station2)
	assert.Empty(t, v.Dispatch.Selected)

	v = env.act(types.Action{Kind: types.ActionSlidePress, X: 0})
	assert.Equal(t, ui.MsgBusy, v.Alert)
	assert.False(t, v.Dispatch.Slider.Dragging)

	v = env.act(types.Action{Kind: types.ActionDismissAlert})
	assert.Empty(t, v.Alert)
}

func TestDispatchWarningReason(t *testing.T) {
	t.Parallel()
	env := newEnv(t, testConfig)
	env.backend.allowed = false
	env.backend.reason = "Station 3 is busy"
	env.backend.pod = false
	env.ui.Start()
	v := env.nav(types.ScreenDispatch)
	assert.Equal(t, "Station 3 is busy", v.Dispatch.Warning)

	env.backend.allowed = true
	v = env.nav(types.ScreenDispatch)
	assert.Equal(t, ui.MsgNoPod, v.Dispatch.Warning)
	v = env.act(types.Action{Kind: types.ActionSlidePress, X: 0})
	assert.Equal(t, ui.MsgNoPod, v.Alert)
}

func TestDispatchNetworkFailure(t *testing.T) {
	t.Parallel()
	env := newEnv(t, testConfig)
	env.backend.destsErr = errors.New("timeout")
	env.backend.allowedErr = errors.New("timeout")
	env.backend.podErr = errors.New("timeout")
	env.ui.Start()
	v := env.nav(types.ScreenDispatch)
	assert.Empty(t, v.Dispatch.Destinations)
	assert.False(t, v.Dispatch.Allowed)
	assert.False(t, v.Dispatch.PodAvailable)
}

func TestDispatchSelectNumberPriority(t *testing.T) {
	t.Parallel()
	env := startEnv(t, testConfig)
	env.nav(types.ScreenDispatch)
	v := env.act(types.Action{Kind: types.ActionSelectDestination, Int: 3})
	assert.Equal(t, station3, v.Dispatch.Selected)
	v = env.act(types.Action{Kind: types.ActionTogglePriority})
	assert.Equal(t, ui.PriorityHigh, v.Dispatch.Priority)

	// unknown destination keeps previous selection
	v = env.act(types.Action{Kind: types.ActionSelectDestination, Int: 9})
	assert.Equal(t, station3, v.Dispatch.Selected)

	env.slide(190)
	sent := env.emitter.find(types.EmitDispatch)
	require.Len(t, sent, 1)
	assert.JSONEq(t, `{"from":"passthrough-station-1","to":"passthrough-station-3","priority":"high"}`, sent[0].data)
}

func TestDispatchEmitFailure(t *testing.T) {
	t.Parallel()
	env := startEnv(t, testConfig)
	env.nav(types.ScreenDispatch)
	selectDest(env, station2)
	env.emitter.err = errors.New("not connected")
	v := env.slide(150)
	assert.Contains(t, noticeTexts(v), ui.MsgSendError)
	assert.True(t, v.Dispatch.Allowed)
	assert.Equal(t, 5.0, v.Dispatch.Slider.Left)
}

func TestDispatchRejectedReleasesLater(t *testing.T) {
	t.Parallel()
	env := startEnv(t, testConfig)
	env.nav(types.ScreenDispatch)
	selectDest(env, station2)
	env.slide(150)
	require.False(t, env.ui.View().Dispatch.Allowed)

	v := env.push(types.PushDispatchRejected, `{"reason":"queue full"}`)
	assert.Equal(t, "Dispatch rejected: queue full", v.Alert)
	assert.False(t, v.Dispatch.Allowed)
	v = env.advance(ui.DefaultRejectWait)
	assert.True(t, v.Dispatch.Allowed)
}

func TestDispatchLockHoldsOverInflightCheck(t *testing.T) {
	t.Parallel()
	env := startEnv(t, testConfig, withQueue())
	env.queue.flush()
	env.nav(types.ScreenDispatch)
	env.queue.flush()
	selectDest(env, station2)

	// permission check started before commit answers after it
	env.push(types.PushConnect, "")
	require.NotEmpty(t, env.queue.pending)
	env.slide(180)
	require.Len(t, env.emitter.find(types.EmitDispatch), 1)
	env.queue.flush()
	v := env.ui.View()
	assert.False(t, v.Dispatch.Allowed)

	selectDest(env, station2)
	v = env.slide(180)
	assert.Len(t, env.emitter.find(types.EmitDispatch), 1)
	assert.Equal(t, ui.MsgBusy, v.Alert)

	// entering dispatch again does not unlock either
	env.nav(types.ScreenDashboard)
	env.nav(types.ScreenDispatch)
	env.queue.flush()
	assert.False(t, env.ui.View().Dispatch.Allowed)

	v = env.push(types.PushDispatchDone, `{"task_id":"7"}`)
	assert.True(t, v.Dispatch.Allowed)
	env.nav(types.ScreenDashboard)
	env.backend.allowed = false
	env.nav(types.ScreenDispatch)
	env.queue.flush()
	assert.False(t, env.ui.View().Dispatch.Allowed)
}

func TestDispatchRejectReleaseAllowsChecks(t *testing.T) {
	t.Parallel()
	env := startEnv(t, testConfig)
	env.nav(types.ScreenDispatch)
	selectDest(env, station2)
	env.slide(150)
	env.push(types.PushDispatchRejected, `{"reason":"queue full"}`)
	env.advance(ui.DefaultRejectWait)
	require.True(t, env.ui.View().Dispatch.Allowed)

	env.backend.allowed = false
	v := env.push(types.PushConnect, "")
	assert.False(t, v.Dispatch.Allowed)
}

func TestAbort(t *testing.T) {
	t.Parallel()
	env := newEnv(t, testConfig)
	env.backend.status = types.Status{Active: true, Sender: station1, Receiver: station2, TaskID: "44"}
	env.ui.Start()
	require.True(t, env.ui.View().Status.Active)

	v := env.act(types.Action{Kind: types.ActionAbort})
	sent := env.emitter.find(types.EmitDispatchCompleted)
	require.Len(t, sent, 1)
	assert.JSONEq(t, `{"type":"dispatch_completed","aborted":true}`, sent[0].data)
	assert.False(t, v.Status.Active)
	assert.False(t, v.Status.Blinking)
	assert.Contains(t, noticeTexts(v), ui.MsgAborted)
	assert.Contains(t, env.tele.kinds(), tele.EventAbort)
}

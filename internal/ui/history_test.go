package ui_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/juju/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/podline/kiosk/internal/tele"
	"github.com/podline/kiosk/internal/types"
	"github.com/podline/kiosk/internal/ui"
)

var testHistory = []types.HistoryEntry{
	{TaskID: "2", From: station1, To: station2, Date: "2024-01-02", Time: "10:00:00"},
	{TaskID: "10", From: station2, To: station3, Date: "2024-01-01", Time: "09:00:00"},
	{TaskID: "1", From: station3, To: station1, Date: "2024-01-03", Time: "08:00:00"},
}

func taskIDs(v *ui.View) []string {
	out := make([]string, 0, len(v.History.Entries))
	for _, e := range v.History.Entries {
		out = append(out, e.TaskID)
	}
	return out
}

func TestHistorySort(t *testing.T) {
	t.Parallel()
	env := newEnv(t, testConfig)
	env.backend.logs = testHistory
	env.ui.Start()
	v := env.nav(types.ScreenHistory)
	assert.False(t, v.History.Loading)
	assert.Equal(t, ui.SortIDDesc, v.History.Sort)
	assert.Equal(t, []string{"10", "2", "1"}, taskIDs(v))

	cases := []struct {
		mode   string
		expect []string
	}{
		{ui.SortIDAsc, []string{"1", "2", "10"}},
		{ui.SortTimeAsc, []string{"10", "2", "1"}},
		{ui.SortTimeDesc, []string{"1", "2", "10"}},
		{"bogus", []string{"1", "2", "10"}},
	}
	for _, c := range cases {
		v = env.act(types.Action{Kind: types.ActionHistorySort, Value: c.mode})
		assert.Equal(t, c.expect, taskIDs(v), c.mode)
	}
}

func TestHistoryLoadFailure(t *testing.T) {
	t.Parallel()
	env := newEnv(t, testConfig)
	env.backend.logsErr = errors.New("500")
	env.ui.Start()
	v := env.nav(types.ScreenHistory)
	assert.Empty(t, v.History.Entries)
	assert.False(t, v.History.Loading)
}

func TestHistoryDownload(t *testing.T) {
	t.Parallel()
	env := newEnv(t, testConfig)
	env.backend.download = "task_id,from,to\n1,P1,P2\n"
	env.ui.Start()
	env.nav(types.ScreenHistory)
	v := env.act(types.Action{Kind: types.ActionHistoryDownload})

	expect := filepath.Join(env.g.Config.Persist.Root, "downloads", "dispatch_history_20240102_030405.csv")
	assert.Equal(t, expect, v.History.Saved)
	b, err := os.ReadFile(expect)
	require.NoError(t, err)
	assert.Equal(t, env.backend.download, string(b))
}

func TestHistoryDownloadFailure(t *testing.T) {
	t.Parallel()
	env := newEnv(t, testConfig)
	env.backend.download = "partial"
	env.backend.downloadErr = errors.New("connection reset")
	env.ui.Start()
	v := env.act(types.Action{Kind: types.ActionHistoryDownload})
	assert.Empty(t, v.History.Saved)
	assert.Contains(t, noticeTexts(v), "History download failed")

	files, _ := filepath.Glob(filepath.Join(env.g.Config.Persist.Root, "downloads", "*.csv"))
	assert.Empty(t, files)
}

func TestClearData(t *testing.T) {
	t.Parallel()
	env := newEnv(t, testConfig)
	env.backend.logs = testHistory
	env.ui.Start()
	env.nav(types.ScreenHistory)
	v := env.unlock(t, types.ScreenClearData)
	assert.Equal(t, "all", v.ClearData.Scope)

	v = env.act(types.Action{Kind: types.ActionClearScope, Value: "60"})
	assert.Equal(t, "60", v.ClearData.Scope)
	v = env.act(types.Action{Kind: types.ActionClearScope, Value: "7"})
	assert.Equal(t, "60", v.ClearData.Scope)

	env.slide(120)
	assert.Empty(t, env.backend.clears)
	v = env.slide(150)
	assert.Equal(t, []string{"60"}, env.backend.clears)
	assert.Contains(t, noticeTexts(v), ui.MsgDataCleared)
	assert.Len(t, v.History.Entries, 3)

	env.act(types.Action{Kind: types.ActionClearScope, Value: "all"})
	v = env.slide(150)
	assert.Equal(t, []string{"60", "all"}, env.backend.clears)
	assert.Empty(t, v.History.Entries)
	assert.Contains(t, env.tele.kinds(), tele.EventClearData)
}

func TestClearDataFailure(t *testing.T) {
	t.Parallel()
	env := startEnv(t, testConfig)
	env.backend.clearErr = errors.New("500")
	env.unlock(t, types.ScreenClearData)
	v := env.slide(150)
	assert.Contains(t, noticeTexts(v), "Clear data failed")
	assert.NotContains(t, noticeTexts(v), ui.MsgDataCleared)
}

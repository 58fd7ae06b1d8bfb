package ui

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"

	"github.com/juju/errors"

	"github.com/podline/kiosk/internal/display"
	"github.com/podline/kiosk/internal/types"
)

const downloadDirName = "downloads"

func (self *UI) loadHistory() {
	self.m.history.loading = true
	self.async(func(ctx context.Context) func() {
		entries, err := self.Backend.Logs(ctx)
		return func() {
			self.m.history.loading = false
			if err != nil {
				self.log.Errorf("ui history err=%v", err)
				entries = nil
			}
			self.m.history.entries = entries
		}
	})
}

func (self *UI) historySort(mode string) {
	switch mode {
	case SortIDAsc, SortIDDesc, SortTimeAsc, SortTimeDesc:
		self.m.history.sort = mode
	default:
		self.log.Errorf("ui history sort=%s invalid", mode)
	}
}

// historyDownload saves export file into download dir.
func (self *UI) historyDownload() {
	dir := self.config.History.DownloadDir
	if dir == "" {
		dir = filepath.Join(self.g.Config.Persist.Root, downloadDirName)
	}
	name := fmt.Sprintf("dispatch_history_%s.csv", self.Sched.Now().UTC().Format("20060102_150405"))
	path := filepath.Join(dir, name)
	self.async(func(ctx context.Context) func() {
		n, err := self.saveHistory(ctx, path)
		return func() {
			if err != nil {
				self.log.Errorf("ui history download err=%v", errors.ErrorStack(err))
				self.notify(display.NoticeError, "History download failed")
				return
			}
			self.log.Infof("ui history saved path=%s bytes=%d", path, n)
			self.m.history.saved = path
			self.notify(display.NoticeSuccess, "History saved to "+path)
		}
	})
}

func (self *UI) saveHistory(ctx context.Context, path string) (int64, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return 0, errors.Annotate(err, "download dir")
	}
	f, err := os.Create(path)
	if err != nil {
		return 0, errors.Annotate(err, "download create")
	}
	n, err := self.Backend.DownloadHistory(ctx, f)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		_ = os.Remove(path)
		return 0, errors.Trace(err)
	}
	return n, nil
}

// sortHistory returns sorted copy. Numeric task ids compare as numbers.
func sortHistory(entries []types.HistoryEntry, mode string) []types.HistoryEntry {
	out := make([]types.HistoryEntry, len(entries))
	copy(out, entries)
	var less func(i, j int) bool
	switch mode {
	case SortIDAsc:
		less = func(i, j int) bool { return idLess(out[i].TaskID, out[j].TaskID) }
	case SortIDDesc:
		less = func(i, j int) bool { return idLess(out[j].TaskID, out[i].TaskID) }
	case SortTimeAsc:
		less = func(i, j int) bool { return stamp(out[i]) < stamp(out[j]) }
	case SortTimeDesc:
		less = func(i, j int) bool { return stamp(out[j]) < stamp(out[i]) }
	default:
		return out
	}
	sort.SliceStable(out, less)
	return out
}

func idLess(a, b string) bool {
	x, errx := strconv.ParseInt(a, 10, 64)
	y, erry := strconv.ParseInt(b, 10, 64)
	if errx == nil && erry == nil {
		return x < y
	}
	return a < b
}

func stamp(e types.HistoryEntry) string { return e.Date + " " + e.Time }

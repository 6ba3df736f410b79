package daemon

import (
	"context"
	"os"
	"time"

	"github.com/theirongolddev/kasboard/internal/log"
)

// watch polls the data files and reloads the controller when another
// process rewrites them.
func (s *Service) watch(ctx context.Context) error {
	ticker := time.NewTicker(s.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			s.pollOnce()
		}
	}
}

// pollOnce reports whether the files changed since the last poll.
func (s *Service) pollOnce() bool {
	current := s.statFiles()

	s.mu.Lock()
	changed := current != s.files
	s.files = current
	s.lastPollAt = time.Now()
	s.pollCount++
	s.mu.Unlock()

	if !changed {
		return false
	}

	watcherLog := s.logger.WithComponent(log.ComponentWatcher)
	for _, w := range s.ctrl.Reload() {
		watcherLog.Warn("reload warning", log.FieldError, w)
	}
	watcherLog.Info("data files changed, reloaded")
	s.refresh(EventDataChanged, "file_change", false)
	return true
}

// markWritten records the current file state after this process saved,
// so the next poll does not treat its own write as an external change.
func (s *Service) markWritten() {
	current := s.statFiles()
	s.mu.Lock()
	s.files = current
	s.mu.Unlock()
}

func (s *Service) statFiles() [2]fileState {
	var out [2]fileState
	for i, path := range s.dataFiles() {
		info, err := os.Stat(path)
		if err != nil {
			continue
		}
		out[i] = fileState{exists: true, size: info.Size(), modTime: info.ModTime().UnixNano()}
	}
	return out
}

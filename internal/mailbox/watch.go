package mailbox

import (
	"context"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// Watch signals on the returned channel whenever a file lands in new/.
// Bursts coalesce into a single pending signal. The channel is closed when
// ctx is done.
func (s *Spool) Watch(ctx context.Context) (<-chan struct{}, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := w.Add(filepath.Join(s.root, dirNew)); err != nil {
		_ = w.Close()
		return nil, err
	}

	notify := make(chan struct{}, 1)
	go func() {
		defer close(notify)
		defer func() {
			if err := w.Close(); err != nil {
				s.logger.Warn("closing spool watcher", zap.Error(err))
			}
		}()

		for {
			select {
			case <-ctx.Done():
				return
			case e, ok := <-w.Events:
				if !ok {
					return
				}
				if e.Op&(fsnotify.Create|fsnotify.Write) == 0 {
					continue
				}
				s.logger.Debug("spool event", zap.String("path", e.Name), zap.String("op", e.Op.String()))
				select {
				case notify <- struct{}{}:
				default:
				}
			case err, ok := <-w.Errors:
				if !ok {
					return
				}
				s.logger.Error("spool watcher error", zap.Error(err))
			}
		}
	}()

	return notify, nil
}

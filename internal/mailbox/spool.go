package mailbox

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"go.uber.org/zap"

	apperrors "potracker/internal/errors"
)

const (
	dirTmp = "tmp"
	dirNew = "new"
	dirCur = "cur"
	dirBad = "bad"
)

// Spool is a directory-backed mailbox. Producers write a message into tmp/
// and rename it into new/. ListUnseen reads new/; MarkConsumed moves the
// file into cur/. Files that cannot be parsed are moved into bad/.
// Messages rejected by the subject filter stay in new/ but are remembered
// by file name, so later listings with the same filter do not parse them again.
type Spool struct {
	root   string
	logger *zap.Logger
	mu     sync.Mutex

	ignoredFilter string
	ignored       map[string]struct{}
}

func NewSpool(root string, logger *zap.Logger) (*Spool, error) {
	for _, dir := range []string{dirTmp, dirNew, dirCur, dirBad} {
		if err := os.MkdirAll(filepath.Join(root, dir), 0o755); err != nil {
			return nil, fmt.Errorf("creating spool %s dir: %w", dir, err)
		}
	}
	return &Spool{root: root, logger: logger, ignored: make(map[string]struct{})}, nil
}

func (s *Spool) Root() string {
	return s.root
}

// ListUnseen implements Mailbox. Messages are returned in file-name order.
func (s *Spool) ListUnseen(ctx context.Context, filter SubjectFilter) ([]Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries, err := os.ReadDir(filepath.Join(s.root, dirNew))
	if err != nil {
		return nil, apperrors.NewTransientIOError("listing spool", err)
	}

	if key := strings.Join(filter.Keywords(), "\x00"); key != s.ignoredFilter {
		s.ignoredFilter = key
		s.ignored = make(map[string]struct{})
	}
	present := make(map[string]struct{}, len(entries))

	var messages []Message
	for _, entry := range entries {
		if err := ctx.Err(); err != nil {
			return nil, apperrors.NewTransientIOError("listing spool", err)
		}
		name := entry.Name()
		if entry.IsDir() || strings.HasPrefix(name, ".") {
			continue
		}
		present[name] = struct{}{}
		if _, ok := s.ignored[name]; ok {
			continue
		}

		msg, err := s.readMessage(name)
		if err != nil {
			s.logger.Warn("unreadable spool message quarantined", zap.String("id", name), zap.Error(err))
			if qerr := s.move(name, dirBad); qerr != nil {
				s.logger.Error("failed to quarantine spool message", zap.String("id", name), zap.Error(qerr))
			}
			continue
		}

		if !filter.Matches(msg.Subject) {
			s.ignored[name] = struct{}{}
			continue
		}
		messages = append(messages, msg)
	}

	for name := range s.ignored {
		if _, ok := present[name]; !ok {
			delete(s.ignored, name)
		}
	}
	return messages, nil
}

// MarkConsumed implements Mailbox.
func (s *Spool) MarkConsumed(ctx context.Context, msg Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.move(msg.ID, dirCur); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return apperrors.NewNotFoundError(fmt.Sprintf("message %q is not unseen", msg.ID))
		}
		return apperrors.NewTransientIOError("marking message consumed", err)
	}
	return nil
}

func (s *Spool) readMessage(name string) (Message, error) {
	f, err := os.Open(filepath.Join(s.root, dirNew, name))
	if err != nil {
		return Message{}, err
	}
	defer f.Close()
	return parseMessage(name, f)
}

func (s *Spool) move(name, dir string) error {
	if name == "" || name != filepath.Base(name) {
		return fmt.Errorf("invalid message id %q", name)
	}
	return os.Rename(filepath.Join(s.root, dirNew, name), filepath.Join(s.root, dir, name))
}

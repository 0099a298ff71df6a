package mailbox

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	apperrors "potracker/internal/errors"
)

func newTestSpool(t *testing.T) *Spool {
	t.Helper()
	s, err := NewSpool(t.TempDir(), zap.NewNop())
	require.NoError(t, err)
	return s
}

// deliver writes through tmp/ the way a producer is expected to.
func deliver(t *testing.T, s *Spool, name, content string) {
	t.Helper()
	tmp := filepath.Join(s.Root(), dirTmp, name)
	require.NoError(t, os.WriteFile(tmp, []byte(content), 0o644))
	require.NoError(t, os.Rename(tmp, filepath.Join(s.Root(), dirNew, name)))
}

func TestNewSpool_CreatesLayout(t *testing.T) {
	s := newTestSpool(t)

	for _, dir := range []string{dirTmp, dirNew, dirCur, dirBad} {
		info, err := os.Stat(filepath.Join(s.Root(), dir))
		require.NoError(t, err)
		assert.True(t, info.IsDir())
	}
}

func TestSpool_ListUnseen_FiltersBySubject(t *testing.T) {
	s := newTestSpool(t)
	deliver(t, s, "0001.eml", multipartEML("New PO 4471", []byte("%PDF-1")))
	deliver(t, s, "0002.eml", crlf("Subject: Lunch?\nContent-Type: text/plain\n\nhi\n"))
	deliver(t, s, "0003.eml", multipartEML("Shipping notice", []byte("%PDF-3")))

	msgs, err := s.ListUnseen(context.Background(), NewSubjectFilter("PO", "Shipping"))
	require.NoError(t, err)

	require.Len(t, msgs, 2)
	assert.Equal(t, "0001.eml", msgs[0].ID)
	assert.Equal(t, "0003.eml", msgs[1].ID)
	assert.Len(t, msgs[0].PDFAttachments(), 1)

	// non-matching messages stay unseen
	_, err = os.Stat(filepath.Join(s.Root(), dirNew, "0002.eml"))
	assert.NoError(t, err)
}

func TestSpool_ListUnseen_RemembersFilteredOutMessages(t *testing.T) {
	s := newTestSpool(t)
	ctx := context.Background()
	filter := NewSubjectFilter("PO")
	deliver(t, s, "0001.eml", crlf("Subject: Lunch?\nContent-Type: text/plain\n\nhi\n"))

	msgs, err := s.ListUnseen(ctx, filter)
	require.NoError(t, err)
	assert.Empty(t, msgs)
	assert.Contains(t, s.ignored, "0001.eml")

	// an unparseable body would be quarantined if the file were read again
	require.NoError(t, os.WriteFile(filepath.Join(s.Root(), dirNew, "0001.eml"), []byte("\x00not a message"), 0o644))

	msgs, err = s.ListUnseen(ctx, filter)
	require.NoError(t, err)
	assert.Empty(t, msgs)
	_, err = os.Stat(filepath.Join(s.Root(), dirNew, "0001.eml"))
	assert.NoError(t, err)

	// removed files are forgotten
	require.NoError(t, os.Remove(filepath.Join(s.Root(), dirNew, "0001.eml")))
	_, err = s.ListUnseen(ctx, filter)
	require.NoError(t, err)
	assert.Empty(t, s.ignored)
}

func TestSpool_ListUnseen_FilterChangeRereads(t *testing.T) {
	s := newTestSpool(t)
	ctx := context.Background()
	deliver(t, s, "0001.eml", crlf("Subject: Lunch?\nContent-Type: text/plain\n\nhi\n"))

	msgs, err := s.ListUnseen(ctx, NewSubjectFilter("PO"))
	require.NoError(t, err)
	assert.Empty(t, msgs)

	msgs, err = s.ListUnseen(ctx, NewSubjectFilter("Lunch"))
	require.NoError(t, err)
	require.Len(t, msgs, 1)
	assert.Equal(t, "0001.eml", msgs[0].ID)
}

func TestSpool_MarkConsumed(t *testing.T) {
	s := newTestSpool(t)
	ctx := context.Background()
	deliver(t, s, "0001.eml", multipartEML("PO 1", []byte("%PDF")))

	msgs, err := s.ListUnseen(ctx, NewSubjectFilter())
	require.NoError(t, err)
	require.Len(t, msgs, 1)

	require.NoError(t, s.MarkConsumed(ctx, msgs[0]))

	_, err = os.Stat(filepath.Join(s.Root(), dirCur, "0001.eml"))
	assert.NoError(t, err)

	msgs, err = s.ListUnseen(ctx, NewSubjectFilter())
	require.NoError(t, err)
	assert.Empty(t, msgs)

	err = s.MarkConsumed(ctx, Message{ID: "0001.eml"})
	_, ok := apperrors.IsNotFoundError(err)
	assert.True(t, ok)
}

func TestSpool_MarkConsumed_RejectsPaths(t *testing.T) {
	s := newTestSpool(t)

	err := s.MarkConsumed(context.Background(), Message{ID: "../escape.eml"})

	_, ok := apperrors.IsTransientIOError(err)
	assert.True(t, ok)
}

func TestSpool_ListUnseen_QuarantinesMalformed(t *testing.T) {
	s := newTestSpool(t)
	deliver(t, s, "0001.eml", "garbage without headers")
	deliver(t, s, "0002.eml", multipartEML("PO 2", []byte("%PDF")))

	msgs, err := s.ListUnseen(context.Background(), NewSubjectFilter())
	require.NoError(t, err)

	require.Len(t, msgs, 1)
	assert.Equal(t, "0002.eml", msgs[0].ID)

	_, err = os.Stat(filepath.Join(s.Root(), dirBad, "0001.eml"))
	assert.NoError(t, err)
}

func TestSpool_ListUnseen_SkipsHiddenAndDirs(t *testing.T) {
	s := newTestSpool(t)
	require.NoError(t, os.WriteFile(filepath.Join(s.Root(), dirNew, ".partial"), []byte("x"), 0o644))
	require.NoError(t, os.Mkdir(filepath.Join(s.Root(), dirNew, "sub"), 0o755))

	msgs, err := s.ListUnseen(context.Background(), NewSubjectFilter())
	require.NoError(t, err)
	assert.Empty(t, msgs)
}

func TestSpool_ListUnseen_MissingDirIsTransient(t *testing.T) {
	s := newTestSpool(t)
	require.NoError(t, os.RemoveAll(filepath.Join(s.Root(), dirNew)))

	_, err := s.ListUnseen(context.Background(), NewSubjectFilter())

	_, ok := apperrors.IsTransientIOError(err)
	assert.True(t, ok)
}

func TestSpool_Watch(t *testing.T) {
	s := newTestSpool(t)
	ctx, cancel := context.WithCancel(context.Background())

	notify, err := s.Watch(ctx)
	require.NoError(t, err)

	deliver(t, s, "0001.eml", multipartEML("PO 1", []byte("%PDF")))

	select {
	case <-notify:
	case <-time.After(5 * time.Second):
		t.Fatal("no notification for delivered message")
	}

	cancel()
	for range notify {
	}
}

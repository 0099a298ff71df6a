// Package mailbox defines the mailbox collaborator the poller reads from and
// a spool-directory implementation of it.
package mailbox

import (
	"context"
	"path/filepath"
	"strings"
	"time"

	"potracker/internal/classification"
)

type Attachment struct {
	Filename    string
	ContentType string
	Data        []byte
}

// IsPDF reports whether the attachment is a document the pipeline accepts.
func (a Attachment) IsPDF() bool {
	if strings.EqualFold(a.ContentType, classification.MIMETypePDF) {
		return true
	}
	return strings.EqualFold(filepath.Ext(a.Filename), ".pdf")
}

type Message struct {
	ID          string
	Subject     string
	From        string
	Date        time.Time
	Attachments []Attachment
}

// PDFAttachments returns the attachments the pipeline should classify.
func (m Message) PDFAttachments() []Attachment {
	var out []Attachment
	for _, a := range m.Attachments {
		if a.IsPDF() {
			out = append(out, a)
		}
	}
	return out
}

type Mailbox interface {
	ListUnseen(ctx context.Context, filter SubjectFilter) ([]Message, error)
	MarkConsumed(ctx context.Context, msg Message) error
}

// SubjectFilter matches a subject when any keyword occurs in it, ignoring
// case. A filter with no keywords matches everything.
type SubjectFilter struct {
	keywords []string
}

func NewSubjectFilter(keywords ...string) SubjectFilter {
	f := SubjectFilter{}
	for _, k := range keywords {
		if k = strings.TrimSpace(k); k != "" {
			f.keywords = append(f.keywords, strings.ToLower(k))
		}
	}
	return f
}

func (f SubjectFilter) Matches(subject string) bool {
	if len(f.keywords) == 0 {
		return true
	}
	s := strings.ToLower(subject)
	for _, k := range f.keywords {
		if strings.Contains(s, k) {
			return true
		}
	}
	return false
}

func (f SubjectFilter) Keywords() []string {
	return append([]string(nil), f.keywords...)
}

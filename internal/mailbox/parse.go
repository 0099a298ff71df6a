package mailbox

import (
	"encoding/base64"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"mime/quotedprintable"
	"net/mail"
	"net/textproto"
	"strings"
)

var wordDecoder = new(mime.WordDecoder)

// parseMessage reads one RFC 5322 message and collects every part that
// carries a filename, descending into nested multiparts.
func parseMessage(id string, r io.Reader) (Message, error) {
	msg, err := mail.ReadMessage(r)
	if err != nil {
		return Message{}, fmt.Errorf("reading message %s: %w", id, err)
	}

	out := Message{
		ID:      id,
		Subject: decodeWords(msg.Header.Get("Subject")),
		From:    decodeWords(msg.Header.Get("From")),
	}
	if date, err := msg.Header.Date(); err == nil {
		out.Date = date
	}

	attachments, err := collectAttachments(textproto.MIMEHeader(msg.Header), msg.Body)
	if err != nil {
		return Message{}, fmt.Errorf("reading attachments of %s: %w", id, err)
	}
	out.Attachments = attachments
	return out, nil
}

func collectAttachments(header textproto.MIMEHeader, body io.Reader) ([]Attachment, error) {
	mediaType, params, err := mime.ParseMediaType(header.Get("Content-Type"))
	if err != nil {
		mediaType, params = "text/plain", nil
	}

	if strings.HasPrefix(mediaType, "multipart/") {
		boundary := params["boundary"]
		if boundary == "" {
			return nil, fmt.Errorf("%s without boundary", mediaType)
		}

		var out []Attachment
		mr := multipart.NewReader(body, boundary)
		for {
			part, err := mr.NextRawPart()
			if err == io.EOF {
				return out, nil
			}
			if err != nil {
				return nil, err
			}
			nested, err := collectAttachments(part.Header, part)
			if err != nil {
				return nil, err
			}
			out = append(out, nested...)
		}
	}

	filename := attachmentFilename(header, params)
	if filename == "" {
		return nil, nil
	}

	data, err := io.ReadAll(decodeTransfer(header.Get("Content-Transfer-Encoding"), body))
	if err != nil {
		return nil, fmt.Errorf("decoding %s: %w", filename, err)
	}

	return []Attachment{{
		Filename:    filename,
		ContentType: mediaType,
		Data:        data,
	}}, nil
}

func attachmentFilename(header textproto.MIMEHeader, contentTypeParams map[string]string) string {
	if _, params, err := mime.ParseMediaType(header.Get("Content-Disposition")); err == nil {
		if name := params["filename"]; name != "" {
			return decodeWords(name)
		}
	}
	return decodeWords(contentTypeParams["name"])
}

func decodeTransfer(encoding string, body io.Reader) io.Reader {
	switch strings.ToLower(strings.TrimSpace(encoding)) {
	case "base64":
		return base64.NewDecoder(base64.StdEncoding, body)
	case "quoted-printable":
		return quotedprintable.NewReader(body)
	default:
		return body
	}
}

func decodeWords(s string) string {
	decoded, err := wordDecoder.DecodeHeader(s)
	if err != nil {
		return strings.TrimSpace(s)
	}
	return strings.TrimSpace(decoded)
}

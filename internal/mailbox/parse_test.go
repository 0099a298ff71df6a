package mailbox

import (
	"encoding/base64"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func crlf(s string) string {
	return strings.ReplaceAll(s, "\n", "\r\n")
}

func multipartEML(subject string, pdf []byte) string {
	return crlf(`From: "Buyer" <buyer@example.com>
To: orders@example.com
Subject: ` + subject + `
Date: Mon, 04 Mar 2024 10:00:00 +0000
MIME-Version: 1.0
Content-Type: multipart/mixed; boundary="outer"

--outer
Content-Type: multipart/alternative; boundary="inner"

--inner
Content-Type: text/plain; charset=utf-8

Please find our order attached.
--inner
Content-Type: text/html; charset=utf-8

<p>Please find our order attached.</p>
--inner--

--outer
Content-Type: application/pdf; name="po-4471.pdf"
Content-Disposition: attachment; filename="po-4471.pdf"
Content-Transfer-Encoding: base64

` + base64.StdEncoding.EncodeToString(pdf) + `
--outer
Content-Type: text/plain; name="notes.txt"
Content-Disposition: attachment; filename="notes.txt"
Content-Transfer-Encoding: quoted-printable

Deliver to dock =3D 4
--outer--
`)
}

func TestParseMessage_Multipart(t *testing.T) {
	pdf := []byte("%PDF-1.4 fake order")

	msg, err := parseMessage("0001.eml", strings.NewReader(multipartEML("New PO 4471", pdf)))
	require.NoError(t, err)

	assert.Equal(t, "0001.eml", msg.ID)
	assert.Equal(t, "New PO 4471", msg.Subject)
	assert.Equal(t, `"Buyer" <buyer@example.com>`, msg.From)
	assert.Equal(t, 2024, msg.Date.Year())

	require.Len(t, msg.Attachments, 2)
	assert.Equal(t, "po-4471.pdf", msg.Attachments[0].Filename)
	assert.Equal(t, "application/pdf", msg.Attachments[0].ContentType)
	assert.Equal(t, pdf, msg.Attachments[0].Data)
	assert.Equal(t, "notes.txt", msg.Attachments[1].Filename)
	assert.Equal(t, "Deliver to dock = 4", strings.TrimSpace(string(msg.Attachments[1].Data)))
}

func TestParseMessage_EncodedSubject(t *testing.T) {
	raw := crlf(`Subject: =?UTF-8?B?` + base64.StdEncoding.EncodeToString([]byte("Auftragsbestätigung PO-9")) + `?=
Content-Type: text/plain

body
`)

	msg, err := parseMessage("x", strings.NewReader(raw))
	require.NoError(t, err)

	assert.Equal(t, "Auftragsbestätigung PO-9", msg.Subject)
	assert.Empty(t, msg.Attachments)
}

func TestParseMessage_SinglePartAttachment(t *testing.T) {
	raw := crlf(`Subject: Shipping notice
Content-Type: application/pdf; name="asn.pdf"
Content-Transfer-Encoding: base64

` + base64.StdEncoding.EncodeToString([]byte("%PDF-asn")) + `
`)

	msg, err := parseMessage("x", strings.NewReader(raw))
	require.NoError(t, err)

	require.Len(t, msg.Attachments, 1)
	assert.Equal(t, "asn.pdf", msg.Attachments[0].Filename)
	assert.Equal(t, []byte("%PDF-asn"), msg.Attachments[0].Data)
}

func TestParseMessage_Malformed(t *testing.T) {
	_, err := parseMessage("x", strings.NewReader("not an email at all"))
	assert.Error(t, err)

	_, err = parseMessage("y", strings.NewReader(crlf("Subject: PO\nContent-Type: multipart/mixed\n\nbody\n")))
	assert.Error(t, err)
}

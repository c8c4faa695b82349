package mailbox

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseMessageHeaderOnly(t *testing.T) {
	raw := "From: Service <no-reply@service.example>\r\n" +
		"Subject: =?UTF-8?B?0JrQvtC0INCy0YXQvtC00LA6IDEyMzQ1Ng==?=\r\n" +
		"Date: Sat, 01 Mar 2025 15:00:00 +0300\r\n" +
		"\r\n"

	msg, err := parseMessage([]byte(raw))
	require.NoError(t, err)

	assert.Equal(t, "Код входа: 123456", msg.Subject)
	assert.Equal(t, "no-reply@service.example", msg.From)
	assert.True(t, msg.Date.Equal(time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)))
	assert.Empty(t, msg.Body)
}

func TestParseMessageKOI8Subject(t *testing.T) {
	// "Код 654321" в KOI8-R
	raw := "Subject: =?KOI8-R?B?68/EIDY1NDMyMQ==?=\r\n" +
		"Date: Sat, 01 Mar 2025 12:00:00 +0000\r\n" +
		"\r\n"

	msg, err := parseMessage([]byte(raw))
	require.NoError(t, err)
	assert.Equal(t, "Код 654321", msg.Subject)
}

func TestParseMessageMultipartBody(t *testing.T) {
	raw := "Subject: Sign in\r\n" +
		"Date: Sat, 01 Mar 2025 12:00:00 +0000\r\n" +
		"MIME-Version: 1.0\r\n" +
		"Content-Type: multipart/alternative; boundary=\"b1\"\r\n" +
		"\r\n" +
		"--b1\r\n" +
		"Content-Type: text/plain; charset=utf-8\r\n" +
		"\r\n" +
		"Your code: 778899\r\n" +
		"--b1\r\n" +
		"Content-Type: text/html; charset=utf-8\r\n" +
		"\r\n" +
		"<p>Your code: <b>778899</b></p>\r\n" +
		"--b1--\r\n"

	msg, err := parseMessage([]byte(raw))
	require.NoError(t, err)
	assert.Equal(t, "Sign in", msg.Subject)
	assert.Contains(t, msg.Body, "Your code: 778899")
	assert.NotContains(t, msg.Body, "<b>")
}

func TestParseMessageMissingDate(t *testing.T) {
	raw := "Subject: Code 123456\r\n\r\n"

	msg, err := parseMessage([]byte(raw))
	require.NoError(t, err)
	assert.True(t, msg.Date.IsZero())
}

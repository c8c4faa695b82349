package mailbox

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/emersion/go-message"
	_ "github.com/emersion/go-message/charset"
	"github.com/emersion/go-message/mail"
)

// maxBodyBytes ограничение на чтение одной текстовой части
const maxBodyBytes = 256 << 10

// Message письмо, существующее только в пределах одного цикла получения кода
type Message struct {
	UID     uint32
	Subject string
	From    string
	Date    time.Time
	Body    string
}

// parseMessage разбирает сырое письмо (или только его заголовок).
// Тема декодируется по RFC 2047 с учётом charset, дата берётся из заголовка Date.
func parseMessage(raw []byte) (Message, error) {
	var msg Message

	mr, err := mail.CreateReader(bytes.NewReader(raw))
	if err != nil && !message.IsUnknownCharset(err) {
		return msg, fmt.Errorf("read message header: %w", err)
	}
	defer mr.Close()

	msg.Subject, _ = mr.Header.Subject()

	if date, err := mr.Header.Date(); err == nil {
		msg.Date = date
	}

	if from, err := mr.Header.AddressList("From"); err == nil && len(from) > 0 {
		msg.From = from[0].Address
	}

	msg.Body = readTextBody(mr)
	return msg, nil
}

// readTextBody собирает text/plain части и очищенный text/html
func readTextBody(mr *mail.Reader) string {
	var plain, html []string

	for {
		part, err := mr.NextPart()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil && !message.IsUnknownCharset(err) {
			break
		}

		h, ok := part.Header.(*mail.InlineHeader)
		if !ok {
			continue
		}

		contentType, _, _ := h.ContentType()
		body, readErr := io.ReadAll(io.LimitReader(part.Body, maxBodyBytes))
		if readErr != nil {
			continue
		}

		switch {
		case strings.HasPrefix(contentType, "text/html"):
			html = append(html, stripHTML(string(body)))
		case strings.HasPrefix(contentType, "text/plain"), contentType == "":
			plain = append(plain, string(body))
		}
	}

	return strings.TrimSpace(strings.Join(append(plain, html...), "\n"))
}

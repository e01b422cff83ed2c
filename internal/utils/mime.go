package utils

import (
	"errors"
	"fmt"
	"io"
	"strings"

	_ "github.com/emersion/go-message/charset"
	"github.com/emersion/go-message/mail"
)

// Header values used when a message lacks them
const (
	DefaultSubject = "No Subject"
	DefaultSender  = "Unknown"
	DefaultDate    = "Unknown"
)

// ParsedMail is the header and body summary of an RFC 5322 message
type ParsedMail struct {
	Subject string
	From    string
	Date    string
	Body    string
	HTML    bool
}

// ParseMail reads a message and picks its body: the first text/plain part,
// else the first text/html part, else the body of a part without a content
// type. Nested multiparts are searched depth-first.
func ParseMail(r io.Reader) (*ParsedMail, error) {
	mr, err := mail.CreateReader(r)
	if err != nil && mr == nil {
		return nil, fmt.Errorf("failed to read message: %w", err)
	}
	defer mr.Close()

	parsed := &ParsedMail{
		Subject: headerOr(mr.Header, "Subject", DefaultSubject),
		From:    headerOr(mr.Header, "From", DefaultSender),
		Date:    headerOr(mr.Header, "Date", DefaultDate),
	}

	var plain, html, untyped *string
	for {
		part, err := mr.NextPart()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			// keep whatever was read before a malformed part
			break
		}

		h, ok := part.Header.(*mail.InlineHeader)
		if !ok {
			continue
		}
		body, err := io.ReadAll(part.Body)
		if err != nil {
			continue
		}
		text := string(body)

		ct, _, _ := h.ContentType()
		switch {
		case strings.EqualFold(ct, "text/plain") && plain == nil:
			plain = &text
		case strings.EqualFold(ct, "text/html") && html == nil:
			html = &text
		case ct == "" && untyped == nil:
			untyped = &text
		}
	}

	switch {
	case plain != nil:
		parsed.Body = *plain
	case html != nil:
		parsed.Body = *html
		parsed.HTML = true
	case untyped != nil:
		parsed.Body = *untyped
		parsed.HTML = LooksLikeHTML(*untyped)
	}
	return parsed, nil
}

// headerOr returns the decoded header value, or fallback when the field is absent
func headerOr(h mail.Header, key, fallback string) string {
	if !h.Has(key) {
		return fallback
	}
	if v, err := h.Text(key); err == nil {
		return v
	}
	return h.Get(key)
}

package mailfile

import (
	"io"
	"strings"

	"github.com/mikey/phishguard/internal/core"
	"github.com/mikey/phishguard/internal/utils"
)

// ReadMessage parses one RFC 5322 message into a raw mailbox record
func ReadMessage(id string, r io.Reader) (*core.RawMessage, error) {
	parsed, err := utils.ParseMail(r)
	if err != nil {
		return nil, err
	}

	body := strings.ToValidUTF8(parsed.Body, "�")
	return &core.RawMessage{
		ID:      id,
		Subject: parsed.Subject,
		Sender:  parsed.From,
		Date:    parsed.Date,
		Body:    body,
		Links:   utils.CollectLinks(body, parsed.HTML),
		Snippet: utils.Snippet(body, parsed.HTML, snippetLength),
	}, nil
}

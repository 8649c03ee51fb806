package smtpproxy

import (
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"mime/quotedprintable"
	"net/mail"
	"strings"
)

var errNoContent = errors.New("no usable text part")

// parsedMessage is what the proxy extracts from a submitted message:
// the decoded headers plus the single body the gateway will deliver.
type parsedMessage struct {
	FromName string
	Subject  string
	Content  string
	IsHTML   bool

	// toNames maps recipient addresses from the To header to their
	// display names, for resolving the envelope recipient's name.
	toNames map[string]string
}

// ToName returns the display name for an envelope recipient, or ""
// when the To header does not carry one.
func (m *parsedMessage) ToName(address string) string {
	return m.toNames[strings.ToLower(address)]
}

type bodyPart struct {
	mediaType string
	value     string
}

// parseMessage decodes a raw RFC 5322 message. Of all text/plain and
// text/html parts, the delivered body is the HTML one when present,
// longest first; a message with neither fails with errNoContent.
func parseMessage(r io.Reader) (*parsedMessage, error) {
	msg, err := mail.ReadMessage(r)
	if err != nil {
		return nil, fmt.Errorf("reading message: %w", err)
	}

	dec := new(mime.WordDecoder)
	parsed := &parsedMessage{toNames: make(map[string]string)}

	if subject, err := dec.DecodeHeader(msg.Header.Get("Subject")); err == nil {
		parsed.Subject = subject
	} else {
		parsed.Subject = msg.Header.Get("Subject")
	}

	if from, err := mail.ParseAddress(msg.Header.Get("From")); err == nil {
		parsed.FromName = decodeWord(dec, from.Name)
	}
	if tos, err := mail.ParseAddressList(msg.Header.Get("To")); err == nil {
		for _, to := range tos {
			parsed.toNames[strings.ToLower(to.Address)] = decodeWord(dec, to.Name)
		}
	}

	var parts []bodyPart
	if err := collectParts(headerGetter(msg.Header), msg.Body, &parts); err != nil {
		return nil, err
	}
	if len(parts) == 0 {
		return nil, errNoContent
	}

	best := parts[0]
	for _, p := range parts[1:] {
		if preferPart(p, best) {
			best = p
		}
	}
	parsed.Content = best.value
	parsed.IsHTML = best.mediaType == "text/html"
	return parsed, nil
}

// preferPart ranks candidate bodies: HTML beats plain text, and within
// the same type the longer part wins.
func preferPart(a, b bodyPart) bool {
	aHTML := a.mediaType == "text/html"
	bHTML := b.mediaType == "text/html"
	if aHTML != bHTML {
		return aHTML
	}
	return len(a.value) > len(b.value)
}

type headerGetter interface {
	Get(key string) string
}

// collectParts walks the MIME tree and gathers every non-empty
// text/plain and text/html leaf, decoding its transfer encoding.
// Other media types are skipped.
func collectParts(header headerGetter, body io.Reader, parts *[]bodyPart) error {
	mediaType, params, err := mime.ParseMediaType(header.Get("Content-Type"))
	if err != nil {
		// No or malformed Content-Type means an implicit text/plain.
		mediaType = "text/plain"
	}

	if strings.HasPrefix(mediaType, "multipart/") {
		boundary := params["boundary"]
		if boundary == "" {
			return fmt.Errorf("multipart message without boundary")
		}
		mr := multipart.NewReader(body, boundary)
		for {
			part, err := mr.NextPart()
			if err == io.EOF {
				return nil
			}
			if err != nil {
				return fmt.Errorf("reading multipart body: %w", err)
			}
			if err := collectParts(part.Header, part, parts); err != nil {
				return err
			}
		}
	}

	if mediaType != "text/plain" && mediaType != "text/html" {
		return nil
	}

	decoded, err := decodeBody(body, header.Get("Content-Transfer-Encoding"))
	if err != nil {
		return err
	}
	if len(decoded) == 0 {
		return nil
	}
	*parts = append(*parts, bodyPart{mediaType: mediaType, value: string(decoded)})
	return nil
}

func decodeBody(body io.Reader, encoding string) ([]byte, error) {
	switch strings.ToLower(strings.TrimSpace(encoding)) {
	case "base64":
		body = base64.NewDecoder(base64.StdEncoding, body)
	case "quoted-printable":
		body = quotedprintable.NewReader(body)
	}
	decoded, err := io.ReadAll(body)
	if err != nil {
		return nil, fmt.Errorf("decoding body: %w", err)
	}
	return decoded, nil
}

func decodeWord(dec *mime.WordDecoder, s string) string {
	if decoded, err := dec.DecodeHeader(s); err == nil {
		return decoded
	}
	return s
}

package filter

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"mime/quotedprintable"
	"net/mail"
	"net/textproto"
	"strings"

	"golang.org/x/text/encoding/ianaindex"
)

// maxMultipartDepth bounds recursion into nested multipart bodies
const maxMultipartDepth = 5

var wordDecoder = &mime.WordDecoder{CharsetReader: charsetReader}

// charsetReader converts encoded words in any IANA-registered charset to UTF-8
func charsetReader(charset string, input io.Reader) (io.Reader, error) {
	enc, err := ianaindex.MIME.Encoding(charset)
	if err != nil {
		return nil, fmt.Errorf("unsupported charset %q: %w", charset, err)
	}
	if enc == nil {
		return nil, fmt.Errorf("unsupported charset %q", charset)
	}
	return enc.NewDecoder().Reader(input), nil
}

// extractTextFromMessage extracts the text content from an email message.
// For multipart messages, text/plain parts are collected, descending into
// nested multiparts.
func extractTextFromMessage(msg *mail.Message) (string, error) {
	body, err := io.ReadAll(msg.Body)
	if err != nil {
		return "", err
	}

	text := extractText(textproto.MIMEHeader(msg.Header), body, 0)
	if text == "" && isMultipart(msg.Header.Get("Content-Type")) {
		return "[No text content found in multipart message]", nil
	}
	return text, nil
}

// extractText returns the plain text held by a MIME entity
func extractText(header textproto.MIMEHeader, body []byte, depth int) string {
	contentType := header.Get("Content-Type")
	if !isMultipart(contentType) {
		return string(decodeTransferEncoding(header.Get("Content-Transfer-Encoding"), body))
	}

	_, params, err := mime.ParseMediaType(contentType)
	boundary := params["boundary"]
	if err != nil || boundary == "" || depth >= maxMultipartDepth {
		// Can't split it, so hand back the body as is
		return string(body)
	}

	var textContent bytes.Buffer
	mr := multipart.NewReader(bytes.NewReader(body), boundary)
	for {
		part, err := mr.NextPart()
		if err != nil {
			// io.EOF or a malformed part; keep what we have
			break
		}

		partBytes, err := io.ReadAll(part)
		if err != nil {
			continue
		}

		partType := strings.ToLower(part.Header.Get("Content-Type"))
		switch {
		case isMultipart(partType):
			if nested := extractText(part.Header, partBytes, depth+1); nested != "" {
				textContent.WriteString(nested)
				textContent.WriteString("\n")
			}
		case partType == "" || strings.Contains(partType, "text/plain"):
			textContent.Write(decodeTransferEncoding(part.Header.Get("Content-Transfer-Encoding"), partBytes))
			textContent.WriteString("\n")
		}
		// Skip other parts (attachments, html alternatives, etc.)
	}

	return textContent.String()
}

// decodeTransferEncoding undoes base64 and quoted-printable encodings,
// returning the input unchanged when decoding fails
func decodeTransferEncoding(encoding string, body []byte) []byte {
	switch strings.ToLower(strings.TrimSpace(encoding)) {
	case "base64":
		cleaned := strings.Map(func(r rune) rune {
			if r == '\r' || r == '\n' || r == ' ' || r == '\t' {
				return -1
			}
			return r
		}, string(body))
		decoded, err := base64.StdEncoding.DecodeString(cleaned)
		if err != nil {
			return body
		}
		return decoded
	case "quoted-printable":
		decoded, err := io.ReadAll(quotedprintable.NewReader(bytes.NewReader(body)))
		if err != nil {
			return body
		}
		return decoded
	default:
		return body
	}
}

// decodeEncodedHeader decodes RFC 2047 encoded words in a header value
func decodeEncodedHeader(value string) (string, error) {
	return wordDecoder.DecodeHeader(value)
}

func isMultipart(contentType string) bool {
	return strings.HasPrefix(strings.ToLower(strings.TrimSpace(contentType)), "multipart/")
}

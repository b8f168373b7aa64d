package protocol

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/textproto"
	"strconv"
	"strings"
	"time"
)

const (
	// StatusLine is the only status a listener ever answers with
	StatusLine = "HTTP/1.1 200 OK"
	// ContentType of every response body
	ContentType = "application/json"
	// StatusOK is the value of the status field
	StatusOK = "ok"
	// LegacyContentLength is the literal length older listeners declared
	// regardless of the body they actually sent
	LegacyContentLength = 89
	// TimestampFormat renders the response instant
	TimestampFormat = time.RFC3339Nano
)

// Health is the JSON body of a response
type Health struct {
	Status    string `json:"status"`
	Message   string `json:"message"`
	Timestamp string `json:"timestamp"`
}

// NewHealth builds the body for serverName at instant now
func NewHealth(serverName string, now time.Time) Health {
	return Health{
		Status:    StatusOK,
		Message:   serverName + " is working!",
		Timestamp: now.UTC().Format(TimestampFormat),
	}
}

// Time parses the timestamp field
func (h Health) Time() (time.Time, error) {
	t, err := time.Parse(TimestampFormat, h.Timestamp)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid timestamp %q: %w", h.Timestamp, err)
	}
	return t, nil
}

// MarshalResponse renders the full HTTP-shaped response for h.
// With legacy set the declared Content-Length is the fixed literal and the
// body is followed by a bare newline, byte for byte what older listeners sent.
func MarshalResponse(h Health, legacy bool) ([]byte, error) {
	body, err := json.Marshal(h)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal body: %w", err)
	}

	length := len(body)
	if legacy {
		length = LegacyContentLength
	}

	var buf bytes.Buffer
	buf.Grow(len(body) + 96)
	buf.WriteString(StatusLine + "\r\n")
	buf.WriteString("Content-Type: " + ContentType + "\r\n")
	buf.WriteString("Content-Length: " + strconv.Itoa(length) + "\r\n")
	buf.WriteString("\r\n")
	buf.Write(body)
	if legacy {
		buf.WriteByte('\n')
	}
	return buf.Bytes(), nil
}

// NewProbeLine renders the single request line a client sends
func NewProbeLine(id string) string {
	return "GET /health?probe=" + id + " HTTP/1.1\r\n"
}

// Response is a response as seen by a client
type Response struct {
	StatusLine string
	Header     textproto.MIMEHeader
	Body       []byte
	Health     Health
}

// ReadResponse reads a response from r until EOF. Listeners close the
// connection after writing, so the body is everything after the headers.
func ReadResponse(r io.Reader) (*Response, error) {
	tp := textproto.NewReader(bufio.NewReader(r))

	statusLine, err := tp.ReadLine()
	if err != nil {
		return nil, fmt.Errorf("failed to read status line: %w", err)
	}
	if !strings.HasPrefix(statusLine, "HTTP/") {
		return nil, fmt.Errorf("malformed status line: %q", statusLine)
	}

	header, err := tp.ReadMIMEHeader()
	if err != nil {
		return nil, fmt.Errorf("failed to read headers: %w", err)
	}

	body, err := io.ReadAll(tp.R)
	if err != nil {
		return nil, fmt.Errorf("failed to read body: %w", err)
	}

	resp := &Response{
		StatusLine: statusLine,
		Header:     header,
		Body:       body,
	}
	if err := json.Unmarshal(body, &resp.Health); err != nil {
		return nil, fmt.Errorf("failed to parse body: %w", err)
	}
	return resp, nil
}

// DeclaredLength returns the Content-Length header, or -1 when it is absent
// or not a number
func (r *Response) DeclaredLength() int {
	v := r.Header.Get("Content-Length")
	n, err := strconv.Atoi(v)
	if err != nil {
		return -1
	}
	return n
}

// ContentLengthMatches reports whether the declared length is the body length
func (r *Response) ContentLengthMatches() bool {
	return r.DeclaredLength() == len(r.Body)
}

// OK reports whether the status line is a 200
func (r *Response) OK() bool {
	return strings.HasSuffix(r.StatusLine, " 200 OK")
}

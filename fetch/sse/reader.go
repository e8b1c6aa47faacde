// Package sse consumes a stream-mode fetch response as server-sent events.
//
// The reader owns the response it is built from: closing the reader closes
// the underlying stream. LastEventID and RetryInterval expose what a
// reconnecting consumer needs to resume a broken stream (send the id back
// as the Last-Event-ID header on the next request).
package sse

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/kbukum/fetchkit/fetch"
)

// Event is one dispatched server-sent event.
type Event struct {
	// Event is the event type from the "event" field. Empty for unnamed
	// events.
	Event string
	// Data is the payload; multi-line "data" fields are joined with
	// newlines.
	Data string
	// ID is the event id in effect when the event was dispatched.
	ID string
}

// Reader reads server-sent events from a stream-mode response.
type Reader interface {
	// Next returns the next event. io.EOF signals a cleanly ended stream;
	// a mid-stream failure surfaces as a typed fetch error.
	Next() (*Event, error)
	// LastEventID returns the most recent event id seen on the stream,
	// for use as the Last-Event-ID header when reconnecting.
	LastEventID() string
	// RetryInterval returns the server-requested reconnection delay, if
	// the stream carried a "retry" field.
	RetryInterval() (time.Duration, bool)
	// Close releases the response stream.
	Close() error
}

// NewReader wraps a stream-mode response. The response must carry a live
// stream payload (ModeStream or the Streaming flag) and, when the server
// declared one, a text/event-stream content type.
func NewReader(resp *fetch.Response) (Reader, error) {
	if resp == nil || resp.Stream == nil {
		return nil, fetch.NewValidationError("sse: response carries no stream payload; request with ModeStream")
	}
	if ct := resp.Header("content-type"); ct != "" && !strings.HasPrefix(ct, "text/event-stream") {
		_ = resp.Close()
		return nil, fetch.NewValidationError(fmt.Sprintf("sse: unexpected content type %q", ct))
	}
	return &reader{
		scanner: bufio.NewScanner(resp.Stream),
		resp:    resp,
	}, nil
}

type reader struct {
	scanner *bufio.Scanner
	resp    *fetch.Response

	lastID   string
	retry    time.Duration
	hasRetry bool
}

func (r *reader) Next() (*Event, error) {
	var name string
	var data []string

	for r.scanner.Scan() {
		line := r.scanner.Text()

		if line == "" {
			if len(data) > 0 {
				return r.dispatch(name, data), nil
			}
			name = ""
			continue
		}
		if strings.HasPrefix(line, ":") {
			continue
		}

		field, value := splitField(line)
		switch field {
		case "data":
			data = append(data, value)
		case "event":
			name = value
		case "id":
			// An id containing NUL must not replace the last event id.
			if !strings.ContainsRune(value, 0) {
				r.lastID = value
			}
		case "retry":
			if ms, err := strconv.Atoi(value); err == nil && ms >= 0 {
				r.retry = time.Duration(ms) * time.Millisecond
				r.hasRetry = true
			}
		}
	}

	if err := r.scanner.Err(); err != nil {
		return nil, streamError(err)
	}
	if len(data) > 0 {
		return r.dispatch(name, data), nil
	}
	return nil, io.EOF
}

func (r *reader) dispatch(name string, data []string) *Event {
	return &Event{
		Event: name,
		Data:  strings.Join(data, "\n"),
		ID:    r.lastID,
	}
}

func (r *reader) LastEventID() string {
	return r.lastID
}

func (r *reader) RetryInterval() (time.Duration, bool) {
	return r.retry, r.hasRetry
}

// Close releases the underlying response stream.
func (r *reader) Close() error {
	return r.resp.Close()
}

// streamError keeps already-classified failures (a body timeout surfacing
// through the scanner) and wraps anything else as a transport failure.
func streamError(err error) error {
	var e *fetch.Error
	if errors.As(err, &e) {
		return err
	}
	return fetch.NewTransportError(err)
}

// splitField splits an SSE line into field name and value, stripping the
// single optional space after the colon.
func splitField(line string) (field, value string) {
	idx := strings.IndexByte(line, ':')
	if idx < 0 {
		return line, ""
	}
	field, value = line[:idx], line[idx+1:]
	value = strings.TrimPrefix(value, " ")
	return field, value
}

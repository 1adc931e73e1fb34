package stream

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/dnguyen/perfhub/internal/model"
)

// maxEventSize bounds a single stream line. Notification payloads are
// small; anything past this is a protocol violation.
const maxEventSize = 1 << 20

// readLoop consumes the response body until the stream ends. Frames
// follow the text/event-stream format: field lines accumulate until a
// blank line dispatches the pending event.
func (h *Handle) readLoop() {
	defer close(h.events)
	defer close(h.errs)
	defer h.body.Close()

	scanner := bufio.NewScanner(h.body)
	scanner.Buffer(make([]byte, 0, 64*1024), maxEventSize)

	var data []string
	var eventType string

	for scanner.Scan() {
		line := scanner.Text()

		if line == "" {
			h.dispatch(eventType, strings.Join(data, "\n"))
			data = data[:0]
			eventType = ""
			continue
		}

		// Lines starting with a colon are comments; servers use them
		// as keepalive pings.
		if strings.HasPrefix(line, ":") {
			continue
		}

		field, value := splitField(line)
		switch field {
		case "data":
			data = append(data, value)
		case "event":
			eventType = value
		case "id":
			h.setLastEventID(value)
		case "retry":
			// Server reconnect hint. This layer never reconnects, so
			// the value is intentionally unused.
		}
	}

	if err := scanner.Err(); err != nil {
		if h.closed() {
			return
		}
		h.errs <- fmt.Errorf("reading notification stream: %w", err)
		return
	}

	// EOF without a scan error: the server ended the stream.
	if !h.closed() {
		h.errs <- errors.New("notification stream closed by server")
	}
}

// dispatch parses one complete frame and delivers it. Malformed
// payloads are logged and dropped; they never reach the consumer and
// never terminate the stream.
func (h *Handle) dispatch(eventType, payload string) {
	if payload == "" {
		return
	}

	switch eventType {
	case "", "message", "notification":
	default:
		// Unknown event kinds (e.g. server-side heartbeats with a
		// body) are not notification records.
		return
	}

	var rec model.NotificationRecord
	if err := json.Unmarshal([]byte(payload), &rec); err != nil {
		log.Printf("[stream] dropping malformed event: %v", err)
		return
	}
	if rec.ID == "" {
		log.Printf("[stream] dropping event without id")
		return
	}

	select {
	case h.events <- rec:
	case <-h.done:
	}
}

// splitField splits an SSE field line at the first colon. A single
// leading space in the value is part of the delimiter, not the value.
func splitField(line string) (field, value string) {
	idx := strings.IndexByte(line, ':')
	if idx < 0 {
		return line, ""
	}
	field = line[:idx]
	value = line[idx+1:]
	value = strings.TrimPrefix(value, " ")
	return field, value
}

package gemini

import (
	"bytes"
)

// sseSplitter reassembles server-sent event records from arbitrary frames.
// Frames may split a record anywhere, or carry several records at once.
// Only data fields are kept; multi-line data is joined with "\n".
type sseSplitter struct {
	buf []byte
}

// Feed appends frame and returns the data of every record it completed, in order.
func (s *sseSplitter) Feed(frame []byte) [][]byte {
	s.buf = append(s.buf, frame...)

	var records [][]byte
	for {
		end, next := eventBoundary(s.buf)
		if end < 0 {
			break
		}
		if data := eventData(s.buf[:end]); data != nil {
			records = append(records, data)
		}
		s.buf = s.buf[next:]
	}
	if len(s.buf) == 0 {
		s.buf = nil
	}
	return records
}

// Flush returns a final record left without a trailing blank line.
func (s *sseSplitter) Flush() []byte {
	rest := s.buf
	s.buf = nil
	return eventData(rest)
}

// Pending reports whether unterminated bytes are buffered.
func (s *sseSplitter) Pending() bool {
	return len(bytes.TrimSpace(s.buf)) > 0
}

// eventBoundary finds the first blank line. It returns the end of the
// event and the start of whatever follows, or -1.
func eventBoundary(b []byte) (end, next int) {
	for i := 0; i < len(b); i++ {
		if b[i] != '\n' {
			continue
		}
		// i ends a line; the next line is blank when it is "\n" or "\r\n".
		j := i + 1
		if j < len(b) && b[j] == '\r' {
			j++
		}
		if j < len(b) && b[j] == '\n' {
			return i, j + 1
		}
	}
	return -1, -1
}

func eventData(event []byte) []byte {
	var data []byte
	seen := false
	for _, line := range bytes.Split(event, []byte("\n")) {
		line = bytes.TrimSuffix(line, []byte("\r"))
		if len(line) == 0 || line[0] == ':' {
			continue
		}
		field, value, _ := bytes.Cut(line, []byte(":"))
		if string(field) != "data" {
			continue
		}
		value = bytes.TrimPrefix(value, []byte(" "))
		if seen {
			data = append(data, '\n')
		}
		data = append(data, value...)
		seen = true
	}
	if !seen || len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	return data
}

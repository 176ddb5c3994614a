package ai

import (
	"bufio"
	"bytes"
	"io"
)

// sseReader parses Server-Sent Events from a response body. Only the data
// field matters for the chat-completion endpoints we talk to; other fields
// (id:, retry:, comments) are ignored.
type sseReader struct {
	reader *bufio.Reader
}

func newSSEReader(r io.Reader) *sseReader {
	return &sseReader{reader: bufio.NewReader(r)}
}

// doneSignal terminates an OpenAI-compatible SSE stream.
var doneSignal = []byte("[DONE]")

// readEvent returns the data payload of the next event, io.EOF at end of
// stream.
func (s *sseReader) readEvent() ([]byte, error) {
	var dataLines [][]byte

	for {
		line, err := s.reader.ReadBytes('\n')
		if err != nil {
			if err == io.EOF && len(dataLines) > 0 {
				return bytes.Join(dataLines, []byte("\n")), nil
			}
			return nil, err
		}

		line = bytes.TrimRight(line, "\r\n")

		// Blank line ends the event.
		if len(line) == 0 {
			if len(dataLines) > 0 {
				return bytes.Join(dataLines, []byte("\n")), nil
			}
			continue
		}

		if rest, ok := bytes.CutPrefix(line, []byte("data:")); ok {
			dataLines = append(dataLines, bytes.TrimSpace(rest))
		}
	}
}

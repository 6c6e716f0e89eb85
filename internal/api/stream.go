// Copyright (c) 2025 Jagapathi Vallapuri
// SPDX-License-Identifier: AGPL-3.0-or-later

package api

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"io"
)

// dataPrefix marks an event line carrying a JSON payload. Lines without it
// (blank keep-alives, comments) are ignored without touching the parser.
var dataPrefix = []byte("data: ")

// FrameCallback is called for each decoded frame, in arrival order.
type FrameCallback func(frame Frame)

// =============================================================================
// STREAM READER
// =============================================================================

// StreamReader decodes a `data: <JSON>` framed event stream. It reassembles
// lines that span network reads, so any chunking of the same byte sequence
// produces the identical frame sequence.
type StreamReader struct {
	reader *bufio.Reader

	// logf receives one line per skipped/malformed frame; never nil.
	logf func(format string, args ...any)
}

// NewStreamReader creates a stream reader over an io.Reader.
func NewStreamReader(r io.Reader) *StreamReader {
	return &StreamReader{
		reader: bufio.NewReader(r),
		logf:   func(string, ...any) {},
	}
}

// SetLogf installs a destination for decode diagnostics (skipped lines,
// malformed payloads). Passing nil restores the no-op default.
func (s *StreamReader) SetLogf(logf func(format string, args ...any)) {
	if logf == nil {
		logf = func(string, ...any) {}
	}
	s.logf = logf
}

// Process reads the stream and calls the callback for each decoded frame.
// It returns when a terminal frame has been dispatched, the stream ends, or
// the context is cancelled. A malformed payload line is logged and skipped;
// it never aborts the stream.
func (s *StreamReader) Process(ctx context.Context, callback FrameCallback) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
			frame, err := s.readFrame()
			if err != nil {
				if err == io.EOF {
					return nil
				}
				return err
			}

			if frame != nil {
				callback(*frame)
				if frame.Terminal() {
					// Anything the transport still delivers belongs to a
					// malformed server; stop consuming.
					return nil
				}
			}
		}
	}
}

// readFrame reads one line and decodes it. Returns (nil, nil) for lines
// that carry no frame: blanks, non-data lines, malformed payloads.
func (s *StreamReader) readFrame() (*Frame, error) {
	line, err := s.reader.ReadBytes('\n')
	if err != nil {
		if err == io.EOF && len(bytes.TrimSpace(line)) == 0 {
			return nil, io.EOF
		}
		if len(line) == 0 {
			return nil, err
		}
		// A final line without a trailing newline is still decoded; the
		// next call reports the EOF.
	}

	line = bytes.TrimSpace(line)
	if len(line) == 0 {
		return nil, nil
	}

	if !bytes.HasPrefix(line, dataPrefix) {
		s.logf("stream: ignoring non-data line (%d bytes)", len(line))
		return nil, nil
	}

	payload := line[len(dataPrefix):]
	var w wireFrame
	if err := json.Unmarshal(payload, &w); err != nil {
		s.logf("stream: skipping malformed frame: %v", err)
		return nil, nil
	}

	frame := frameFromWire(w, payload)
	if frame.Type == FrameUnknown {
		s.logf("stream: unrecognized frame type %q", w.Type)
	}
	return &frame, nil
}

// Copyright (c) 2025 Jagapathi Vallapuri
// SPDX-License-Identifier: AGPL-3.0-or-later

package api

import (
	"context"
	"io"
	"strings"
	"testing"
	"testing/iotest"
)

const sampleStream = "data: {\"type\":\"debug\",\"message\":\"classified\",\"intent\":\"retrieval\"}\n\n" +
	"data: {\"type\":\"debug\",\"message\":\"selected doc1.pdf\",\"intent\":\"retrieval\"}\n\n" +
	"data: {\"type\":\"final_answer\",\"answer\":\"**250mg** twice daily\",\"selected_document\":\"doc1.pdf\",\"selection_score\":0.91,\"documents_considered\":3}\n\n"

// collect runs the decoder over r and returns the dispatched frames.
func collect(t *testing.T, r io.Reader) []Frame {
	t.Helper()
	var frames []Frame
	sr := NewStreamReader(r)
	if err := sr.Process(context.Background(), func(f Frame) {
		frames = append(frames, f)
	}); err != nil {
		t.Fatalf("Process returned error: %v", err)
	}
	return frames
}

func TestStreamReader_FrameSequence(t *testing.T) {
	frames := collect(t, strings.NewReader(sampleStream))

	if len(frames) != 3 {
		t.Fatalf("got %d frames, want 3", len(frames))
	}
	if frames[0].Type != FrameDebug || frames[0].Intent != "retrieval" {
		t.Errorf("frame 0 = %+v, want debug/retrieval", frames[0])
	}
	if frames[2].Type != FrameFinalAnswer {
		t.Errorf("frame 2 type = %q, want final_answer", frames[2].Type)
	}
	if frames[2].Answer != "**250mg** twice daily" {
		t.Errorf("answer = %q", frames[2].Answer)
	}
	if frames[2].SelectedDocument != "doc1.pdf" || frames[2].DocumentsConsidered != 3 {
		t.Errorf("metadata = %+v", frames[2])
	}
}

// The decoder must produce an identical frame sequence no matter how the
// transport chunks the bytes.
func TestStreamReader_ChunkingInvariance(t *testing.T) {
	whole := collect(t, strings.NewReader(sampleStream))
	byteAtATime := collect(t, iotest.OneByteReader(strings.NewReader(sampleStream)))
	halfReads := collect(t, iotest.HalfReader(strings.NewReader(sampleStream)))

	for name, frames := range map[string][]Frame{"one byte": byteAtATime, "half reads": halfReads} {
		if len(frames) != len(whole) {
			t.Fatalf("%s: got %d frames, want %d", name, len(frames), len(whole))
		}
		for i := range frames {
			if frames[i].Type != whole[i].Type || frames[i].Answer != whole[i].Answer ||
				frames[i].DebugMessage != whole[i].DebugMessage {
				t.Errorf("%s: frame %d = %+v, want %+v", name, i, frames[i], whole[i])
			}
		}
	}
}

func TestStreamReader_IgnoresNonDataLines(t *testing.T) {
	stream := ": keep-alive comment\n" +
		"event: message\n" +
		"data: {\"type\":\"final_answer\",\"answer\":\"ok\"}\n"

	frames := collect(t, strings.NewReader(stream))
	if len(frames) != 1 || frames[0].Type != FrameFinalAnswer {
		t.Fatalf("frames = %+v, want single final_answer", frames)
	}
}

func TestStreamReader_SkipsMalformedLine(t *testing.T) {
	stream := "data: {not json at all\n" +
		"data: {\"type\":\"debug\",\"message\":\"still here\"}\n" +
		"data: {\"type\":\"final_answer\",\"answer\":\"ok\"}\n"

	var skips int
	var frames []Frame
	sr := NewStreamReader(strings.NewReader(stream))
	sr.SetLogf(func(string, ...any) { skips++ })
	if err := sr.Process(context.Background(), func(f Frame) {
		frames = append(frames, f)
	}); err != nil {
		t.Fatalf("Process returned error: %v", err)
	}

	if len(frames) != 2 {
		t.Fatalf("got %d frames, want 2 (malformed line skipped, stream continued)", len(frames))
	}
	if frames[0].DebugMessage != "still here" {
		t.Errorf("first surviving frame = %+v", frames[0])
	}
	if skips == 0 {
		t.Error("malformed line was not logged")
	}
}

func TestStreamReader_StopsAfterTerminalFrame(t *testing.T) {
	stream := "data: {\"type\":\"final_answer\",\"answer\":\"first\"}\n" +
		"data: {\"type\":\"final_answer\",\"answer\":\"from a malformed server\"}\n" +
		"data: {\"type\":\"debug\",\"message\":\"late\"}\n"

	frames := collect(t, strings.NewReader(stream))
	if len(frames) != 1 {
		t.Fatalf("got %d frames, want 1: lines after the terminal frame are ignored", len(frames))
	}
	if frames[0].Answer != "first" {
		t.Errorf("answer = %q, want 'first'", frames[0].Answer)
	}
}

func TestStreamReader_ErrorFrameIsTerminal(t *testing.T) {
	stream := "data: {\"type\":\"error\",\"error\":\"no relevant documents\"}\n" +
		"data: {\"type\":\"debug\",\"message\":\"late\"}\n"

	frames := collect(t, strings.NewReader(stream))
	if len(frames) != 1 || frames[0].Type != FrameError {
		t.Fatalf("frames = %+v, want single error frame", frames)
	}
	if frames[0].ErrText != "no relevant documents" {
		t.Errorf("ErrText = %q", frames[0].ErrText)
	}
}

func TestStreamReader_LastLineWithoutNewline(t *testing.T) {
	stream := "data: {\"type\":\"final_answer\",\"answer\":\"ok\"}"

	frames := collect(t, strings.NewReader(stream))
	if len(frames) != 1 || frames[0].Answer != "ok" {
		t.Fatalf("frames = %+v, want final_answer decoded from an unterminated line", frames)
	}
}

func TestStreamReader_UnknownTypeDispatched(t *testing.T) {
	stream := "data: {\"type\":\"heartbeat\"}\n" +
		"data: {\"type\":\"final_answer\",\"answer\":\"ok\"}\n"

	frames := collect(t, strings.NewReader(stream))
	if len(frames) != 2 {
		t.Fatalf("got %d frames, want 2", len(frames))
	}
	if frames[0].Type != FrameUnknown {
		t.Errorf("frame 0 type = %q, want unknown", frames[0].Type)
	}
	if len(frames[0].Raw) == 0 {
		t.Error("unknown frame should retain its raw payload")
	}
}

func TestStreamReader_ContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	sr := NewStreamReader(strings.NewReader(sampleStream))
	err := sr.Process(ctx, func(Frame) { t.Error("no frame should be dispatched after cancel") })
	if err != context.Canceled {
		t.Errorf("err = %v, want context.Canceled", err)
	}
}

func TestFrame_Terminal(t *testing.T) {
	tests := []struct {
		typ  FrameType
		want bool
	}{
		{FrameFinalAnswer, true},
		{FrameError, true},
		{FrameDirectAnswer, true},
		{FrameDebug, false},
		{FrameUnknown, false},
	}
	for _, tc := range tests {
		f := Frame{Type: tc.typ}
		if got := f.Terminal(); got != tc.want {
			t.Errorf("Terminal(%s) = %v, want %v", tc.typ, got, tc.want)
		}
	}
}

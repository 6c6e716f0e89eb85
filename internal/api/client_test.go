// Copyright (c) 2025 Jagapathi Vallapuri
// SPDX-License-Identifier: AGPL-3.0-or-later

package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/Jagapathi-Vallapuri/Medical-Document-RAG-Retrieval-Augmented-Generation-System/internal/model"
)

func newTestClient(t *testing.T, handler http.Handler) (*Client, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClientWithConfig(&ClientConfig{BaseURL: srv.URL}), srv
}

func TestListChats_NormalizesIDField(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chats/" || r.Method != http.MethodGet {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		// One chat uses chat_id, the other a bare id.
		w.Write([]byte(`{"chats":[
			{"chat_id":"chat_1","title":"First","message_count":4,"updated_at":"2025-03-01T10:00:00","last_message":"..."},
			{"id":"chat_2","title":"Second","created_at":"2025-03-02T09:30:00Z"}
		]}`))
	}))

	chats, err := client.ListChats(context.Background())
	if err != nil {
		t.Fatalf("ListChats: %v", err)
	}
	if len(chats) != 2 {
		t.Fatalf("got %d chats, want 2", len(chats))
	}
	if chats[0].ID != "chat_1" || chats[1].ID != "chat_2" {
		t.Errorf("ids = %q, %q", chats[0].ID, chats[1].ID)
	}
	if chats[0].MessageCount != 4 {
		t.Errorf("MessageCount = %d", chats[0].MessageCount)
	}
	if chats[0].UpdatedAt.IsZero() {
		t.Error("zone-less timestamp should still parse")
	}
}

func TestGetChatMessages_MapsBotRole(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"chat_id":"abc","messages":[
			{"id":"m1","type":"user","content":"What is the dosage?","timestamp":"2025-03-01T10:00:00"},
			{"id":"m2","type":"bot","content":"250mg","timestamp":"2025-03-01T10:00:05","metadata":{"selected_document":"doc1.pdf"}}
		]}`))
	}))

	msgs, err := client.GetChatMessages(context.Background(), "abc")
	if err != nil {
		t.Fatalf("GetChatMessages: %v", err)
	}
	if len(msgs) != 2 {
		t.Fatalf("got %d messages, want 2", len(msgs))
	}
	if msgs[0].Role != model.RoleUser {
		t.Errorf("role 0 = %q", msgs[0].Role)
	}
	if msgs[1].Role != model.RoleAssistant {
		t.Errorf("bot role should normalize to assistant, got %q", msgs[1].Role)
	}
	if msgs[1].Metadata == nil || msgs[1].Metadata.SelectedDocument != "doc1.pdf" {
		t.Errorf("metadata = %+v", msgs[1].Metadata)
	}
}

func TestGetChatMessages_NotFound(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"chat not found"}`, http.StatusNotFound)
	}))

	_, err := client.GetChatMessages(context.Background(), "nope")
	if err != ErrChatNotFound {
		t.Errorf("err = %v, want ErrChatNotFound", err)
	}
}

func TestAsk_NormalizesAnswerKeys(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{"answer key", `{"answer":"A"}`, "A"},
		{"response key only", `{"response":"B"}`, "B"},
		{"message key only", `{"message":"C"}`, "C"},
		{"all keys prefer answer", `{"message":"C","response":"B","answer":"A"}`, "A"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				var req askRequest
				if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
					t.Errorf("bad request body: %v", err)
				}
				if req.Message != "q" {
					t.Errorf("message = %q", req.Message)
				}
				w.Write([]byte(tc.body))
			}))

			res, err := client.Ask(context.Background(), "q", "abc")
			if err != nil {
				t.Fatalf("Ask: %v", err)
			}
			if res.Answer != tc.want {
				t.Errorf("Answer = %q, want %q", res.Answer, tc.want)
			}
		})
	}
}

func TestAsk_OmitsEmptyChatID(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var raw map[string]any
		if err := json.NewDecoder(r.Body).Decode(&raw); err != nil {
			t.Fatalf("bad body: %v", err)
		}
		if _, present := raw["chat_id"]; present {
			t.Error("chat_id must be omitted when empty")
		}
		w.Write([]byte(`{"answer":"ok"}`))
	}))

	if _, err := client.Ask(context.Background(), "q", ""); err != nil {
		t.Fatalf("Ask: %v", err)
	}
}

func TestAskStream_TransportErrorBeforeFrames(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"pipeline exploded"}`, http.StatusInternalServerError)
	}))

	called := false
	err := client.AskStream(context.Background(), "q", "abc", func(Frame) { called = true })
	if err == nil {
		t.Fatal("want error on non-2xx status")
	}
	if called {
		t.Error("no frame may be dispatched on a failed request")
	}
	var ce *ClientError
	if !errors.As(err, &ce) || ce.Message != "pipeline exploded" {
		t.Errorf("err = %v, want backend message surfaced", err)
	}
}

func TestAskStream_DeliversFrames(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		w.Write([]byte(sampleStream))
	}))

	var types []FrameType
	err := client.AskStream(context.Background(), "q", "abc", func(f Frame) {
		types = append(types, f.Type)
	})
	if err != nil {
		t.Fatalf("AskStream: %v", err)
	}
	want := []FrameType{FrameDebug, FrameDebug, FrameFinalAnswer}
	if len(types) != len(want) {
		t.Fatalf("types = %v, want %v", types, want)
	}
	for i := range want {
		if types[i] != want[i] {
			t.Errorf("frame %d = %q, want %q", i, types[i], want[i])
		}
	}
}

func TestListDocuments_FallsBackToPDFs(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"pdfs":["a.pdf","b.pdf"]}`))
	}))

	docs, err := client.ListDocuments(context.Background())
	if err != nil {
		t.Fatalf("ListDocuments: %v", err)
	}
	if len(docs) != 2 || docs[0].ID != "a.pdf" || docs[0].Type != "pdf" {
		t.Errorf("docs = %+v", docs)
	}
}

func TestUploadDocument_LocalValidation(t *testing.T) {
	// Server must never be reached for invalid inputs.
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("server should not be called")
	}))

	if err := client.UploadDocument(context.Background(), "notes.txt", strings.NewReader("x"), 1); err != ErrUploadNotPDF {
		t.Errorf("non-pdf err = %v", err)
	}
	if err := client.UploadDocument(context.Background(), strings.Repeat("x", 300)+".pdf", strings.NewReader("x"), 1); err != ErrUploadLongName {
		t.Errorf("long name err = %v", err)
	}
	if err := client.UploadDocument(context.Background(), "big.pdf", strings.NewReader("x"), maxUploadSize+1); err != ErrUploadTooLarge {
		t.Errorf("oversize err = %v", err)
	}
}

func TestUploadDocument_SendsMultipart(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Fatalf("not multipart: %v", err)
		}
		f, hdr, err := r.FormFile("file")
		if err != nil {
			t.Fatalf("missing file field: %v", err)
		}
		defer f.Close()
		if hdr.Filename != "report.pdf" {
			t.Errorf("filename = %q", hdr.Filename)
		}
		w.Write([]byte(`{"message":"PDF uploaded successfully.","filename":"report.pdf"}`))
	}))

	err := client.UploadDocument(context.Background(), "report.pdf", strings.NewReader("%PDF-1.4 test"), 13)
	if err != nil {
		t.Fatalf("UploadDocument: %v", err)
	}
}

func TestHealth_Unreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	client := NewClientWithConfig(&ClientConfig{BaseURL: url})
	if err := client.Health(context.Background()); err == nil {
		t.Error("want error when backend is down")
	}
}

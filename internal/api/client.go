// Copyright (c) 2025 Jagapathi Vallapuri
// SPDX-License-Identifier: AGPL-3.0-or-later

package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"path"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/Jagapathi-Vallapuri/Medical-Document-RAG-Retrieval-Augmented-Generation-System/internal/model"
)

// =============================================================================
// ERROR TYPES
// =============================================================================

// ClientError represents an error from the backend client.
type ClientError struct {
	Type    ErrorType
	Message string
	Cause   error
}

func (e *ClientError) Error() string {
	if e.Cause != nil {
		return e.Message + ": " + e.Cause.Error()
	}
	return e.Message
}

func (e *ClientError) Unwrap() error {
	return e.Cause
}

// ErrorType categorizes client errors for handling.
type ErrorType int

const (
	ErrTypeUnknown ErrorType = iota
	ErrTypeUnreachable
	ErrTypeTimeout
	ErrTypeNotFound
	ErrTypeInvalidResponse
	ErrTypeBackend
	ErrTypeBadUpload
)

// Sentinel errors for easy checking.
var (
	ErrUnreachable    = &ClientError{Type: ErrTypeUnreachable, Message: "backend is not reachable"}
	ErrTimeout        = &ClientError{Type: ErrTypeTimeout, Message: "request timed out"}
	ErrChatNotFound   = &ClientError{Type: ErrTypeNotFound, Message: "chat session not found"}
	ErrUploadTooLarge = &ClientError{Type: ErrTypeBadUpload, Message: "file exceeds the 50MB upload limit"}
	ErrUploadNotPDF   = &ClientError{Type: ErrTypeBadUpload, Message: "only PDF files can be uploaded"}
	ErrUploadLongName = &ClientError{Type: ErrTypeBadUpload, Message: "filename is too long"}
)

// maxUploadSize mirrors the backend's limit so oversized files fail before
// any bytes leave the machine.
const maxUploadSize = 50 * 1024 * 1024

const maxFilenameLen = 255

// =============================================================================
// CLIENT CONFIGURATION
// =============================================================================

// ClientConfig holds configuration options for the backend client.
type ClientConfig struct {
	// BaseURL of the backend API (default: http://127.0.0.1:8000).
	BaseURL string

	// Timeout for non-streaming requests (default: 30s).
	Timeout time.Duration

	// RequestsPerSecond caps mutating calls client-side; bursts of one.
	// Zero disables limiting.
	RequestsPerSecond float64

	// Logf receives debug diagnostics; nil means silent.
	Logf func(format string, args ...any)
}

// DefaultConfig returns the default client configuration.
func DefaultConfig() *ClientConfig {
	return &ClientConfig{
		BaseURL: "http://127.0.0.1:8000",
		Timeout: 30 * time.Second,
	}
}

// =============================================================================
// CLIENT
// =============================================================================

// Client handles communication with the document-QA backend.
// It is safe for concurrent use.
type Client struct {
	config     *ClientConfig
	httpClient *http.Client
	limiter    *rate.Limiter
	logf       func(format string, args ...any)
}

// NewClient creates a client with default configuration.
func NewClient() *Client {
	return NewClientWithConfig(DefaultConfig())
}

// NewClientWithConfig creates a client, filling defaults for zero values.
func NewClientWithConfig(config *ClientConfig) *Client {
	if config == nil {
		config = DefaultConfig()
	}
	if config.BaseURL == "" {
		config.BaseURL = "http://127.0.0.1:8000"
	}
	config.BaseURL = strings.TrimRight(config.BaseURL, "/")
	if config.Timeout == 0 {
		config.Timeout = 30 * time.Second
	}

	var limiter *rate.Limiter
	if config.RequestsPerSecond > 0 {
		limiter = rate.NewLimiter(rate.Limit(config.RequestsPerSecond), 1)
	}

	logf := config.Logf
	if logf == nil {
		logf = func(string, ...any) {}
	}

	return &Client{
		config: config,
		httpClient: &http.Client{
			Timeout: config.Timeout,
		},
		limiter: limiter,
		logf:    logf,
	}
}

// BaseURL returns the configured backend base URL.
func (c *Client) BaseURL() string {
	return c.config.BaseURL
}

// =============================================================================
// HEALTH CHECK
// =============================================================================

// Health verifies that the backend is reachable.
func (c *Client) Health(ctx context.Context) error {
	resp, err := c.do(ctx, http.MethodGet, "/health/", nil)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	return c.checkStatus(resp, "health check failed")
}

// =============================================================================
// SESSION OPERATIONS
// =============================================================================

// CreateChat creates a new session and returns its server-assigned metadata.
func (c *Client) CreateChat(ctx context.Context, title string) (*model.ChatInfo, error) {
	if err := c.wait(ctx); err != nil {
		return nil, err
	}

	resp, err := c.do(ctx, http.MethodPost, "/chats/", createChatRequest{Title: title})
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if err := c.checkStatus(resp, "create chat failed"); err != nil {
		return nil, err
	}

	var w wireChat
	if err := json.NewDecoder(resp.Body).Decode(&w); err != nil {
		return nil, &ClientError{Type: ErrTypeInvalidResponse, Message: "failed to decode create response", Cause: err}
	}

	chat := chatFromWire(w)
	return &chat, nil
}

// ListChats retrieves all sessions, most recently updated first. The
// backend's ordering is trusted as-is.
func (c *Client) ListChats(ctx context.Context) ([]model.ChatInfo, error) {
	resp, err := c.do(ctx, http.MethodGet, "/chats/", nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if err := c.checkStatus(resp, "list chats failed"); err != nil {
		return nil, err
	}

	var w listChatsResponse
	if err := json.NewDecoder(resp.Body).Decode(&w); err != nil {
		return nil, &ClientError{Type: ErrTypeInvalidResponse, Message: "failed to decode chat list", Cause: err}
	}

	chats := make([]model.ChatInfo, 0, len(w.Chats))
	for _, wc := range w.Chats {
		chats = append(chats, chatFromWire(wc))
	}
	return chats, nil
}

// GetChatMessages fetches the full message list for a session. The result
// replaces local state; it is never merged.
func (c *Client) GetChatMessages(ctx context.Context, chatID string) ([]*model.Message, error) {
	resp, err := c.do(ctx, http.MethodGet, "/chats/"+chatID, nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, ErrChatNotFound
	}
	if err := c.checkStatus(resp, "fetch chat failed"); err != nil {
		return nil, err
	}

	var w wireChat
	if err := json.NewDecoder(resp.Body).Decode(&w); err != nil {
		return nil, &ClientError{Type: ErrTypeInvalidResponse, Message: "failed to decode chat detail", Cause: err}
	}

	msgs := make([]*model.Message, 0, len(w.Messages))
	for _, wm := range w.Messages {
		msgs = append(msgs, messageFromWire(wm))
	}
	return msgs, nil
}

// RenameChat updates a session title. Title validation (non-empty after
// trimming) happens in the session store before any call lands here.
func (c *Client) RenameChat(ctx context.Context, chatID, title string) error {
	if err := c.wait(ctx); err != nil {
		return err
	}

	resp, err := c.do(ctx, http.MethodPut, "/chats/"+chatID, renameChatRequest{Title: title})
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return ErrChatNotFound
	}
	return c.checkStatus(resp, "rename chat failed")
}

// DeleteChat removes a session server-side.
func (c *Client) DeleteChat(ctx context.Context, chatID string) error {
	if err := c.wait(ctx); err != nil {
		return err
	}

	resp, err := c.do(ctx, http.MethodDelete, "/chats/"+chatID, nil)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return ErrChatNotFound
	}
	return c.checkStatus(resp, "delete chat failed")
}

// =============================================================================
// ASK OPERATIONS
// =============================================================================

// Ask sends a question and waits for the complete answer (non-streaming).
// An empty chatID omits the session field, which the backend treats as a
// one-off question.
func (c *Client) Ask(ctx context.Context, message, chatID string) (*AskResult, error) {
	if err := c.wait(ctx); err != nil {
		return nil, err
	}

	resp, err := c.do(ctx, http.MethodPost, "/chat/", askRequest{Message: message, ChatID: chatID})
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if err := c.checkStatus(resp, "ask failed"); err != nil {
		return nil, err
	}

	var w askResponse
	if err := json.NewDecoder(resp.Body).Decode(&w); err != nil {
		return nil, &ClientError{Type: ErrTypeInvalidResponse, Message: "failed to decode answer", Cause: err}
	}
	return normalizeAsk(w), nil
}

// AskStream sends a question and decodes the streamed response, calling the
// callback for each frame in arrival order. It returns once a terminal
// frame has been dispatched or the stream ends. A non-2xx status fails
// before any frame is delivered.
func (c *Client) AskStream(ctx context.Context, message, chatID string, callback FrameCallback) error {
	if err := c.wait(ctx); err != nil {
		return err
	}

	body, err := json.Marshal(askRequest{Message: message, ChatID: chatID})
	if err != nil {
		return &ClientError{Type: ErrTypeInvalidResponse, Message: "failed to marshal request", Cause: err}
	}

	// No client timeout while streaming; lifetime is governed by ctx.
	streamClient := &http.Client{}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.config.BaseURL+"/chat/stream/", bytes.NewReader(body))
	if err != nil {
		return &ClientError{Type: ErrTypeUnreachable, Message: "failed to create request", Cause: err}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "text/event-stream")

	resp, err := streamClient.Do(req)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return context.Canceled
		}
		if errors.Is(err, context.DeadlineExceeded) {
			return ErrTimeout
		}
		return ErrUnreachable
	}
	defer resp.Body.Close()

	if err := c.checkStatus(resp, "stream request failed"); err != nil {
		return err
	}

	reader := NewStreamReader(resp.Body)
	reader.SetLogf(c.logf)
	return reader.Process(ctx, callback)
}

// =============================================================================
// DOCUMENT OPERATIONS
// =============================================================================

// ListDocuments retrieves the uploaded document list.
func (c *Client) ListDocuments(ctx context.Context) ([]DocumentInfo, error) {
	resp, err := c.do(ctx, http.MethodGet, "/list_pdfs/", nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if err := c.checkStatus(resp, "list documents failed"); err != nil {
		return nil, err
	}

	var w listDocumentsResponse
	if err := json.NewDecoder(resp.Body).Decode(&w); err != nil {
		return nil, &ClientError{Type: ErrTypeInvalidResponse, Message: "failed to decode document list", Cause: err}
	}
	return normalizeDocuments(w), nil
}

// UploadDocument uploads a PDF as a multipart "file" field. size may be -1
// when unknown; the backend still enforces its own limit.
func (c *Client) UploadDocument(ctx context.Context, filename string, r io.Reader, size int64) error {
	if !strings.EqualFold(path.Ext(filename), ".pdf") {
		return ErrUploadNotPDF
	}
	if len(filename) > maxFilenameLen {
		return ErrUploadLongName
	}
	if size > maxUploadSize {
		return ErrUploadTooLarge
	}
	if err := c.wait(ctx); err != nil {
		return err
	}

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", filename)
	if err != nil {
		return &ClientError{Type: ErrTypeUnknown, Message: "failed to build upload", Cause: err}
	}
	if _, err := io.Copy(part, io.LimitReader(r, maxUploadSize+1)); err != nil {
		return &ClientError{Type: ErrTypeUnknown, Message: "failed to read file", Cause: err}
	}
	if int64(buf.Len()) > maxUploadSize {
		return ErrUploadTooLarge
	}
	if err := mw.Close(); err != nil {
		return &ClientError{Type: ErrTypeUnknown, Message: "failed to finish upload", Cause: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.config.BaseURL+"/upload_pdf/", &buf)
	if err != nil {
		return &ClientError{Type: ErrTypeUnreachable, Message: "failed to create request", Cause: err}
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return ErrTimeout
		}
		return ErrUnreachable
	}
	defer resp.Body.Close()

	return c.checkStatus(resp, "upload failed")
}

// =============================================================================
// INTERNAL HELPERS
// =============================================================================

// do issues a JSON request against the base URL.
func (c *Client) do(ctx context.Context, method, p string, payload any) (*http.Response, error) {
	var body io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return nil, &ClientError{Type: ErrTypeInvalidResponse, Message: "failed to marshal request", Cause: err}
		}
		body = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.config.BaseURL+p, body)
	if err != nil {
		return nil, &ClientError{Type: ErrTypeUnreachable, Message: "failed to create request", Cause: err}
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, ErrTimeout
		}
		if errors.Is(err, context.Canceled) {
			return nil, context.Canceled
		}
		return nil, ErrUnreachable
	}
	return resp, nil
}

// checkStatus maps a non-2xx response to a ClientError, pulling the
// backend's structured message when one is present.
func (c *Client) checkStatus(resp *http.Response, fallback string) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}

	errType := ErrTypeBackend
	if resp.StatusCode == http.StatusNotFound {
		errType = ErrTypeNotFound
	}

	var be backendError
	if err := json.NewDecoder(resp.Body).Decode(&be); err == nil {
		if msg := firstNonEmpty(be.Error, be.Detail); msg != "" {
			return &ClientError{Type: errType, Message: msg}
		}
	}
	return &ClientError{Type: errType, Message: fallback + ": " + resp.Status}
}

// wait blocks on the client-side rate limiter, if one is configured.
func (c *Client) wait(ctx context.Context) error {
	if c.limiter == nil {
		return nil
	}
	if err := c.limiter.Wait(ctx); err != nil {
		return &ClientError{Type: ErrTypeTimeout, Message: "rate limit wait aborted", Cause: err}
	}
	return nil
}

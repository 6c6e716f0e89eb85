// Copyright (c) 2025 Jagapathi Vallapuri
// SPDX-License-Identifier: AGPL-3.0-or-later

package conversation

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/Jagapathi-Vallapuri/Medical-Document-RAG-Retrieval-Augmented-Generation-System/internal/api"
	"github.com/Jagapathi-Vallapuri/Medical-Document-RAG-Retrieval-Augmented-Generation-System/internal/model"
)

// =============================================================================
// STATE AND ERRORS
// =============================================================================

// State is the controller's lifecycle phase.
type State int

const (
	// StateIdle accepts new questions and reset requests.
	StateIdle State = iota

	// StateAwaiting has a question in flight.
	StateAwaiting

	// StateConfirmReset has a pending clear-history confirmation.
	StateConfirmReset
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateAwaiting:
		return "awaiting"
	case StateConfirmReset:
		return "confirm-reset"
	default:
		return "unknown"
	}
}

var (
	// ErrBusy is returned when a question is already in flight.
	ErrBusy = errors.New("a question is already in flight")

	// ErrEmptyQuestion is returned for input that is empty after trimming.
	ErrEmptyQuestion = errors.New("question is empty")
)

// genericErrorText is what the transcript shows when an answer fails; the
// backend's detail, when present, is appended below it.
const genericErrorText = "Sorry, I ran into a problem answering that. Please try again."

// offlineErrorText is shown when a question from the offline sentinel
// session cannot reach the backend.
const offlineErrorText = "The backend is not reachable, so questions cannot be answered right now."

// =============================================================================
// DEPENDENCIES
// =============================================================================

// Sessions is the slice of the session store the controller mutates.
type Sessions interface {
	ActiveID() string
	IsLocal() bool
	AppendMessage(msg *model.Message)
	ResetConversation()
}

// Asker is the slice of the API client the controller asks through.
type Asker interface {
	AskStream(ctx context.Context, message, chatID string, callback api.FrameCallback) error
}

// =============================================================================
// EVENTS
// =============================================================================

// EventKind classifies controller events.
type EventKind int

const (
	// EventMessage reports a message appended to the transcript.
	EventMessage EventKind = iota

	// EventDebug reports an ephemeral pipeline diagnostic. Debug frames are
	// surfaced here and never stored in the conversation.
	EventDebug

	// EventState reports a state transition.
	EventState
)

// Event is delivered through the notify callback.
type Event struct {
	Kind    EventKind
	Message *model.Message
	Debug   string
	Intent  string
	State   State
}

// =============================================================================
// CONTROLLER
// =============================================================================

// Controller owns the ask lifecycle for the active session.
// It is safe for concurrent use.
type Controller struct {
	mu sync.Mutex

	sessions Sessions
	asker    Asker
	notify   func(Event)

	state  State
	gen    uint64
	cancel context.CancelFunc
}

// NewController creates a controller in the Idle state. notify may be nil.
func NewController(sessions Sessions, asker Asker, notify func(Event)) *Controller {
	if notify == nil {
		notify = func(Event) {}
	}
	return &Controller{
		sessions: sessions,
		asker:    asker,
		notify:   notify,
	}
}

// State returns the current lifecycle phase.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// =============================================================================
// SENDING QUESTIONS
// =============================================================================

// Send asks a question against the active session and blocks until the
// answer (or failure) has been committed to the transcript. While a
// question is in flight further Sends fail with ErrBusy. Sending while a
// reset confirmation is pending cancels the confirmation first.
//
// An aborted Send returns context.Canceled; the user's question stays in
// the transcript but no answer or error message is added for it.
func (c *Controller) Send(ctx context.Context, text string) error {
	text = strings.TrimSpace(text)
	if text == "" {
		return ErrEmptyQuestion
	}

	c.mu.Lock()
	if c.state == StateAwaiting {
		c.mu.Unlock()
		return ErrBusy
	}
	if c.state == StateConfirmReset {
		c.setStateLocked(StateIdle)
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	c.cancel = cancel
	c.gen++
	gen := c.gen
	c.setStateLocked(StateAwaiting)
	c.mu.Unlock()

	userMsg := model.NewUserMessage(text)
	c.sessions.AppendMessage(userMsg)
	c.notify(Event{Kind: EventMessage, Message: userMsg})

	defer c.finish(gen)

	// The local sentinel session has no server id; the question still goes
	// out, with the session id omitted, in case the backend has recovered.
	chatID := c.sessions.ActiveID()
	if c.sessions.IsLocal() {
		chatID = ""
	}
	if c.asker == nil {
		c.commit(gen, model.NewErrorMessage(offlineErrorText))
		return nil
	}
	err := c.asker.AskStream(ctx, text, chatID, func(frame api.Frame) {
		c.handleFrame(gen, frame)
	})
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return context.Canceled
		}
		if chatID == "" {
			c.commit(gen, model.NewErrorMessage(offlineErrorText))
			return nil
		}
		c.commit(gen, errorMessage(err.Error()))
		return err
	}
	return nil
}

// Abort cancels the in-flight question, if any. Frames still buffered for
// the aborted request are dropped.
func (c *Controller) Abort() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != StateAwaiting || c.cancel == nil {
		return
	}
	c.cancel()
	c.gen++
	c.setStateLocked(StateIdle)
}

// handleFrame routes one decoded stream frame. Frames belonging to a
// superseded request are discarded.
func (c *Controller) handleFrame(gen uint64, frame api.Frame) {
	switch frame.Type {
	case api.FrameFinalAnswer:
		c.commit(gen, model.NewAssistantMessage(frame.Answer, frame.Metadata()))

	case api.FrameDirectAnswer:
		c.commit(gen, model.NewAssistantMessage(frame.Answer, nil))

	case api.FrameError:
		c.commit(gen, errorMessage(frame.ErrText))

	case api.FrameDebug:
		if !c.currentGen(gen) {
			return
		}
		c.notify(Event{Kind: EventDebug, Debug: frame.DebugMessage, Intent: frame.Intent})
	}
}

// commit appends an answer-side message, unless the request was superseded.
func (c *Controller) commit(gen uint64, msg *model.Message) {
	if !c.currentGen(gen) {
		return
	}
	c.sessions.AppendMessage(msg)
	c.notify(Event{Kind: EventMessage, Message: msg})
}

// finish returns to Idle if this request is still the current one.
func (c *Controller) finish(gen uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.gen != gen {
		return
	}
	c.cancel = nil
	c.setStateLocked(StateIdle)
}

func (c *Controller) currentGen(gen uint64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.gen == gen
}

// =============================================================================
// RESET CONFIRMATION
// =============================================================================

// RequestReset asks for confirmation before clearing the transcript.
// It fails with ErrBusy while a question is in flight.
func (c *Controller) RequestReset() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state == StateAwaiting {
		return ErrBusy
	}
	c.setStateLocked(StateConfirmReset)
	return nil
}

// ConfirmReset clears the transcript back to the welcome message. It is a
// no-op unless a confirmation is pending.
func (c *Controller) ConfirmReset() {
	c.mu.Lock()
	if c.state != StateConfirmReset {
		c.mu.Unlock()
		return
	}
	c.setStateLocked(StateIdle)
	c.mu.Unlock()

	c.sessions.ResetConversation()
}

// CancelReset dismisses a pending confirmation without clearing anything.
func (c *Controller) CancelReset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state == StateConfirmReset {
		c.setStateLocked(StateIdle)
	}
}

// =============================================================================
// INTERNAL HELPERS
// =============================================================================

// setStateLocked transitions state and emits the event. Caller holds mu.
func (c *Controller) setStateLocked(next State) {
	if c.state == next {
		return
	}
	c.state = next
	// Emitted under mu; notify callbacks must not call back into the
	// controller synchronously.
	c.notify(Event{Kind: EventState, State: next})
}

// OfflineReply is the transcript entry for a question asked while the
// backend is unreachable. Exposed for the non-streaming ask path, which
// bypasses the controller but keeps its wording.
func OfflineReply() *model.Message {
	return model.NewErrorMessage(offlineErrorText)
}

// FailureReply is the transcript entry for a failed answer.
func FailureReply(detail string) *model.Message {
	return errorMessage(detail)
}

// errorMessage builds the transcript entry for a failed answer: a stable
// generic line with the reported detail underneath.
func errorMessage(detail string) *model.Message {
	content := genericErrorText
	if detail = strings.TrimSpace(detail); detail != "" {
		content += "\n\n" + detail
	}
	return model.NewErrorMessage(content)
}

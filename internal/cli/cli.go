// Copyright (c) 2025 Jagapathi Vallapuri
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/peterh/liner"

	"github.com/Jagapathi-Vallapuri/Medical-Document-RAG-Retrieval-Augmented-Generation-System/internal/api"
	"github.com/Jagapathi-Vallapuri/Medical-Document-RAG-Retrieval-Augmented-Generation-System/internal/config"
	"github.com/Jagapathi-Vallapuri/Medical-Document-RAG-Retrieval-Augmented-Generation-System/internal/conversation"
	"github.com/Jagapathi-Vallapuri/Medical-Document-RAG-Retrieval-Augmented-Generation-System/internal/model"
	"github.com/Jagapathi-Vallapuri/Medical-Document-RAG-Retrieval-Augmented-Generation-System/internal/render"
	"github.com/Jagapathi-Vallapuri/Medical-Document-RAG-Retrieval-Augmented-Generation-System/internal/session"
	"github.com/Jagapathi-Vallapuri/Medical-Document-RAG-Retrieval-Augmented-Generation-System/internal/ui/styles"
)

// =============================================================================
// STYLES
// =============================================================================

var (
	promptStyle  = lipgloss.NewStyle().Bold(true).Foreground(styles.Blue)
	labelStyle   = lipgloss.NewStyle().Bold(true).Foreground(styles.Teal)
	infoStyle    = lipgloss.NewStyle().Foreground(styles.Slate)
	errorStyle   = lipgloss.NewStyle().Foreground(styles.Rose)
	warningStyle = lipgloss.NewStyle().Foreground(styles.Amber)
	debugStyle   = lipgloss.NewStyle().Faint(true)
)

// =============================================================================
// INPUT
// =============================================================================

// input wraps liner with persistent history in the config directory.
type input struct {
	line        *liner.State
	historyFile string
}

func newInput() *input {
	line := liner.NewLiner()
	line.SetCtrlCAborts(true)

	dir, err := config.Dir()
	if err != nil {
		dir = os.TempDir()
	}
	in := &input{
		line:        line,
		historyFile: filepath.Join(dir, "history"),
	}
	if f, err := os.Open(in.historyFile); err == nil {
		in.line.ReadHistory(f)
		f.Close()
	}
	return in
}

func (in *input) read(prompt string) (string, error) {
	text, err := in.line.Prompt(prompt)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(text) != "" {
		in.line.AppendHistory(text)
	}
	return text, nil
}

func (in *input) close() {
	if err := config.EnsureDir(); err == nil {
		if f, err := os.OpenFile(in.historyFile, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600); err == nil {
			in.line.WriteHistory(f)
			f.Close()
		}
	}
	in.line.Close()
}

// =============================================================================
// REPL
// =============================================================================

// REPL is the plain-terminal front end. All state lives in the session
// store and conversation controller; the REPL only reads input and prints
// controller events.
type REPL struct {
	cfg      *config.Config
	store    *session.Store
	ctrl     *conversation.Controller
	client   *api.Client
	renderer *render.TerminalRenderer
	in       *input

	// noStream switches asks to the single-shot endpoint.
	noStream bool
}

// New creates a REPL without a controller; call SetController before Run.
// The two-step construction lets the controller's notify callback close
// over the REPL.
func New(cfg *config.Config, store *session.Store, ctrl *conversation.Controller, client *api.Client) *REPL {
	return &REPL{
		cfg:      cfg,
		store:    store,
		ctrl:     ctrl,
		client:   client,
		renderer: render.NewTerminalRenderer(100, cfg.UI.Theme),
	}
}

// SetController attaches the conversation controller.
func (r *REPL) SetController(ctrl *conversation.Controller) {
	r.ctrl = ctrl
}

// SetNoStream switches asks to the non-streaming endpoint.
func (r *REPL) SetNoStream(v bool) {
	r.noStream = v
}

// NotifyFunc returns the controller event callback for plain mode: events
// are printed as they arrive, so answers show up while Send blocks.
func (r *REPL) NotifyFunc() func(conversation.Event) {
	return func(ev conversation.Event) {
		switch ev.Kind {
		case conversation.EventMessage:
			// The user's line is already on screen from the prompt.
			if ev.Message != nil && ev.Message.Role == model.RoleUser {
				return
			}
			r.printMessage(ev.Message)
		case conversation.EventDebug:
			if r.cfg.UI.ShowDebug {
				line := ev.Debug
				if ev.Intent != "" {
					line = ev.Intent + ": " + ev.Debug
				}
				fmt.Println(debugStyle.Render("  [" + line + "]"))
			}
		}
	}
}

// Run drives the read-eval loop until /quit or EOF.
func (r *REPL) Run(ctx context.Context) error {
	r.in = newInput()
	defer r.in.close()

	r.printBanner()

	for {
		text, err := r.in.read(promptStyle.Render("> "))
		switch {
		case errors.Is(err, liner.ErrPromptAborted):
			continue
		case errors.Is(err, io.EOF):
			fmt.Println()
			return nil
		case err != nil:
			return err
		}

		text = strings.TrimSpace(text)
		if text == "" {
			continue
		}

		if strings.HasPrefix(text, "/") {
			quit, err := r.dispatch(ctx, text)
			if err != nil {
				fmt.Println(errorStyle.Render("error: " + err.Error()))
			}
			if quit {
				return nil
			}
			continue
		}

		r.ask(ctx, text)
	}
}

// ask runs one question round-trip. The user and assistant messages are
// printed by the notify callback while Send blocks.
func (r *REPL) ask(ctx context.Context, text string) {
	if r.noStream {
		r.askOnce(ctx, text)
		return
	}
	err := r.ctrl.Send(ctx, text)
	switch {
	case err == nil, errors.Is(err, context.Canceled):
	case errors.Is(err, conversation.ErrBusy):
		fmt.Println(warningStyle.Render("still answering the previous question"))
	case errors.Is(err, conversation.ErrEmptyQuestion):
	default:
		// The transcript already carries the error message.
	}
}

// askOnce uses the single-shot ask endpoint instead of the stream. The
// transcript semantics match the controller's: optimistic user message,
// then one assistant or error reply.
func (r *REPL) askOnce(ctx context.Context, text string) {
	r.store.AppendMessage(model.NewUserMessage(text))

	// The sentinel session carries no server id; the request still goes
	// out with the id omitted in case the backend has recovered.
	chatID := r.store.ActiveID()
	if r.store.IsLocal() {
		chatID = ""
	}

	var reply *model.Message
	res, err := r.client.Ask(ctx, text, chatID)
	switch {
	case err == nil:
		reply = model.NewAssistantMessage(res.Answer, res.Metadata)
	case chatID == "":
		reply = conversation.OfflineReply()
	default:
		reply = conversation.FailureReply(err.Error())
	}
	r.store.AppendMessage(reply)
	r.printMessage(reply)
}

func (r *REPL) printBanner() {
	fmt.Println(labelStyle.Render("docchat") + infoStyle.Render("  "+r.client.BaseURL()))
	if r.store.IsLocal() {
		fmt.Println(warningStyle.Render("[offline] server unreachable; questions are retried against it as you ask"))
	}
	fmt.Println(infoStyle.Render("type a question, or /help for commands"))
	fmt.Println()

	for _, msg := range r.store.Messages() {
		r.printMessage(msg)
	}
}

func (r *REPL) printMessage(msg *model.Message) {
	if msg == nil {
		return
	}
	label := labelStyle.Render(msg.Role.DisplayName())
	if r.cfg.UI.ShowTimestamps {
		label += infoStyle.Render("  " + msg.Timestamp.Format("15:04"))
	}
	fmt.Println(label)
	if msg.IsError {
		fmt.Println(errorStyle.Render(msg.Content))
	} else {
		fmt.Println(r.renderer.Render(msg.Content))
	}
	if msg.Metadata != nil && msg.Metadata.SelectedDocument != "" {
		prov := fmt.Sprintf("source: %s (score %.2f)",
			msg.Metadata.SelectedDocument, msg.Metadata.SelectionScore)
		fmt.Println(infoStyle.Render(prov))
	}
	fmt.Println()
}

// Copyright (c) 2025 Jagapathi Vallapuri
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/Jagapathi-Vallapuri/Medical-Document-RAG-Retrieval-Augmented-Generation-System/internal/export"
)

// =============================================================================
// COMMAND DISPATCH
// =============================================================================

// dispatch handles one slash command. It returns true when the REPL should
// exit.
func (r *REPL) dispatch(ctx context.Context, text string) (bool, error) {
	fields := strings.Fields(text)
	cmd := strings.ToLower(fields[0])
	args := fields[1:]

	switch cmd {
	case "/help", "/h":
		r.printHelp()
		return false, nil

	case "/quit", "/q", "/exit":
		return true, nil

	case "/new", "/n":
		title := strings.Join(args, " ")
		chat, err := r.store.Create(ctx, title)
		if err != nil {
			return false, err
		}
		fmt.Println(infoStyle.Render("started " + chat.DisplayTitle()))
		return false, nil

	case "/list", "/l":
		r.printSessions()
		return false, nil

	case "/select":
		if len(args) != 1 {
			return false, fmt.Errorf("usage: /select <number>")
		}
		return false, r.selectByNumber(ctx, args[0])

	case "/rename":
		if len(args) == 0 {
			return false, fmt.Errorf("usage: /rename <new title>")
		}
		title := strings.Join(args, " ")
		if err := r.store.Rename(ctx, r.store.ActiveID(), title); err != nil {
			return false, err
		}
		fmt.Println(infoStyle.Render("renamed to " + title))
		return false, nil

	case "/delete":
		if err := r.store.Delete(ctx, r.store.ActiveID()); err != nil {
			return false, err
		}
		fmt.Println(infoStyle.Render("chat deleted"))
		return false, nil

	case "/reset", "/clear", "/c":
		return false, r.resetWithConfirm()

	case "/docs":
		return false, r.printDocuments(ctx)

	case "/upload":
		if len(args) != 1 {
			return false, fmt.Errorf("usage: /upload <path-to-pdf>")
		}
		return false, r.upload(ctx, args[0])

	case "/export":
		format := "markdown"
		if len(args) > 0 {
			format = args[0]
		}
		return false, r.exportConversation(format)

	default:
		return false, fmt.Errorf("unknown command %s (try /help)", cmd)
	}
}

func (r *REPL) printHelp() {
	fmt.Print(infoStyle.Render(`commands:
  /new [title]       start a new chat
  /list              list chats
  /select <number>   switch to a chat from /list
  /rename <title>    rename the current chat
  /delete            delete the current chat
  /reset             clear the current conversation
  /docs              list documents on the server
  /upload <path>     upload a PDF
  /export [format]   export the conversation (markdown, json, yaml, html)
  /quit              exit
`))
}

// =============================================================================
// SESSIONS
// =============================================================================

func (r *REPL) printSessions() {
	chats := r.store.Chats()
	if len(chats) == 0 {
		fmt.Println(infoStyle.Render("no chats yet; /new to start one"))
		return
	}
	activeID := r.store.ActiveID()
	for i, chat := range chats {
		marker := " "
		if chat.ID == activeID {
			marker = "*"
		}
		meta := ""
		if chat.MessageCount > 0 {
			meta = fmt.Sprintf("  (%d messages)", chat.MessageCount)
		}
		fmt.Printf("%s %2d. %s%s\n", marker, i+1, chat.DisplayTitle(), infoStyle.Render(meta))
	}
}

func (r *REPL) selectByNumber(ctx context.Context, arg string) error {
	n, err := strconv.Atoi(arg)
	if err != nil {
		return fmt.Errorf("not a number: %s", arg)
	}
	chats := r.store.Chats()
	if n < 1 || n > len(chats) {
		return fmt.Errorf("no chat numbered %d (see /list)", n)
	}
	chat := chats[n-1]
	if err := r.store.Select(ctx, chat.ID); err != nil {
		return err
	}
	fmt.Println(infoStyle.Render("switched to " + chat.DisplayTitle()))
	for _, msg := range r.store.Messages() {
		r.printMessage(msg)
	}
	return nil
}

// resetWithConfirm mirrors the two-step reset: the destructive clear only
// happens after an explicit yes.
func (r *REPL) resetWithConfirm() error {
	if err := r.ctrl.RequestReset(); err != nil {
		return err
	}
	answer, err := r.in.read(warningStyle.Render("clear this conversation? [y/N] "))
	if err != nil || !strings.EqualFold(strings.TrimSpace(answer), "y") {
		r.ctrl.CancelReset()
		fmt.Println(infoStyle.Render("kept"))
		return nil
	}
	r.ctrl.ConfirmReset()
	fmt.Println(infoStyle.Render("conversation cleared"))
	return nil
}

// =============================================================================
// DOCUMENTS
// =============================================================================

func (r *REPL) printDocuments(ctx context.Context) error {
	docs, err := r.client.ListDocuments(ctx)
	if err != nil {
		return err
	}
	if len(docs) == 0 {
		fmt.Println(infoStyle.Render("no documents uploaded yet"))
		return nil
	}
	for _, d := range docs {
		fmt.Printf("  %s  %s\n", d.Name, infoStyle.Render(d.Status))
	}
	return nil
}

func (r *REPL) upload(ctx context.Context, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return err
	}
	name := filepath.Base(path)
	if err := r.client.UploadDocument(ctx, name, f, info.Size()); err != nil {
		return err
	}
	fmt.Println(infoStyle.Render("uploaded " + name + "; processing starts on the server"))
	return nil
}

// =============================================================================
// EXPORT
// =============================================================================

func (r *REPL) exportConversation(format string) error {
	chat := r.store.Active()
	if chat == nil {
		return fmt.Errorf("no active chat")
	}
	opts := export.DefaultOptions()
	if r.cfg.Export.Dir != "" {
		opts.OutputDir = r.cfg.Export.Dir
	}
	opts.IncludeMetadata = r.cfg.Export.IncludeMetadata
	opts.IncludeTimestamps = r.cfg.UI.ShowTimestamps

	exp, err := export.ForFormat(format, opts)
	if err != nil {
		return err
	}
	path, err := export.ExportToFile(chat, r.store.Messages(), exp, opts)
	if err != nil {
		return err
	}
	fmt.Println(infoStyle.Render("exported to " + path))
	return nil
}

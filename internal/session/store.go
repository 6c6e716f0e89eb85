// Copyright (c) 2025 Jagapathi Vallapuri
// SPDX-License-Identifier: AGPL-3.0-or-later

package session

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/Jagapathi-Vallapuri/Medical-Document-RAG-Retrieval-Augmented-Generation-System/internal/model"
)

// =============================================================================
// ERRORS
// =============================================================================

var (
	// ErrEmptyTitle is returned by Rename before any network call when the
	// new title is empty after trimming.
	ErrEmptyTitle = errors.New("session title cannot be empty")

	// ErrLocalSession is returned when a server-backed operation targets the
	// offline sentinel session.
	ErrLocalSession = errors.New("operation not available for the offline session")
)

// =============================================================================
// BACKEND INTERFACE
// =============================================================================

// Backend is the slice of the API client the store depends on.
type Backend interface {
	CreateChat(ctx context.Context, title string) (*model.ChatInfo, error)
	ListChats(ctx context.Context) ([]model.ChatInfo, error)
	GetChatMessages(ctx context.Context, chatID string) ([]*model.Message, error)
	RenameChat(ctx context.Context, chatID, title string) error
	DeleteChat(ctx context.Context, chatID string) error
}

// Cache persists sessions locally so recent history survives restarts and
// backend outages. All methods are best-effort from the store's view: cache
// failures are reported to logf but never fail the operation.
type Cache interface {
	SaveChat(chat model.ChatInfo, msgs []*model.Message) error
	DeleteChat(chatID string) error
	ListChats() ([]model.ChatInfo, error)
	LoadMessages(chatID string) ([]*model.Message, error)
}

// =============================================================================
// STORE
// =============================================================================

// Store holds the session list and the active conversation.
// It is safe for concurrent use.
type Store struct {
	mu sync.Mutex

	backend Backend
	cache   Cache
	logf    func(format string, args ...any)

	chats    []model.ChatInfo
	activeID string
	conv     *model.Conversation
}

// Option configures a Store.
type Option func(*Store)

// WithCache attaches a local persistence layer.
func WithCache(c Cache) Option {
	return func(s *Store) { s.cache = c }
}

// WithLogf routes store diagnostics; nil means silent.
func WithLogf(logf func(format string, args ...any)) Option {
	return func(s *Store) {
		if logf != nil {
			s.logf = logf
		}
	}
}

// NewStore creates a store with no sessions loaded. Call Refresh or
// UseLocal before reading the active conversation.
func NewStore(backend Backend, opts ...Option) *Store {
	s := &Store{
		backend: backend,
		logf:    func(string, ...any) {},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// =============================================================================
// READ ACCESSORS
// =============================================================================

// Chats returns a copy of the session list in display order.
func (s *Store) Chats() []model.ChatInfo {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.ChatInfo, len(s.chats))
	copy(out, s.chats)
	return out
}

// ActiveID returns the active session id, or "" before the first load.
func (s *Store) ActiveID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.activeID
}

// Active returns the active session's metadata, or nil before the first load.
func (s *Store) Active() *model.ChatInfo {
	s.mu.Lock()
	defer s.mu.Unlock()
	if i := s.indexOf(s.activeID); i >= 0 {
		c := s.chats[i]
		return &c
	}
	return nil
}

// Conversation returns the active conversation. Callers append through the
// conversation controller; the store only swaps whole message lists.
func (s *Store) Conversation() *model.Conversation {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.conv
}

// Messages returns a snapshot of the active conversation's messages. The
// returned slice is safe to iterate while other goroutines append.
func (s *Store) Messages() []*model.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.conv == nil {
		return nil
	}
	out := make([]*model.Message, len(s.conv.Messages))
	copy(out, s.conv.Messages)
	return out
}

// IsLocal reports whether the store is in offline sentinel mode.
func (s *Store) IsLocal() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.activeID == model.LocalChatID
}

// =============================================================================
// SESSION LIFECYCLE
// =============================================================================

// Refresh reloads the session list from the backend. The active selection
// is kept when the session still exists; otherwise the first listed session
// becomes active. An empty backend list leaves the store without an active
// session, and the caller is expected to Create one.
func (s *Store) Refresh(ctx context.Context) error {
	chats, err := s.backend.ListChats(ctx)
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.chats = chats
	keep := s.indexOf(s.activeID) >= 0
	if !keep && len(chats) == 0 {
		s.activeID = ""
		s.conv = nil
	}
	s.mu.Unlock()

	if keep || len(chats) == 0 {
		return nil
	}
	return s.selectOrFallback(ctx, chats[0].ID)
}

// Create makes a new session, inserts it at the top of the list, and
// selects it. The fresh conversation starts with the welcome message.
func (s *Store) Create(ctx context.Context, title string) (*model.ChatInfo, error) {
	chat, err := s.backend.CreateChat(ctx, title)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.chats = append([]model.ChatInfo{*chat}, s.chats...)
	s.activeID = chat.ID
	s.conv = model.NewConversation(chat.ID)
	s.mu.Unlock()

	s.persist(*chat)
	return chat, nil
}

// Select makes the given session active, replacing the local conversation
// with the server's copy. When the fetch fails but the cache holds a
// transcript for the session, the cached copy is served instead. On a
// failure with no cached fallback the previous selection is untouched.
func (s *Store) Select(ctx context.Context, chatID string) error {
	if chatID == model.LocalChatID {
		s.mu.Lock()
		s.activeID = chatID
		if s.conv == nil || s.conv.ChatID != chatID {
			s.conv = model.NewConversation(chatID)
		}
		s.mu.Unlock()
		return nil
	}

	msgs, err := s.backend.GetChatMessages(ctx, chatID)
	if err != nil {
		cached := s.cachedMessages(chatID)
		if cached == nil {
			return err
		}
		s.logf("select %s: serving cached copy: %v", chatID, err)
		msgs = cached
	}
	if len(msgs) == 0 {
		msgs = []*model.Message{model.NewSystemMessage(model.WelcomeText)}
	}

	s.mu.Lock()
	s.activeID = chatID
	s.conv = &model.Conversation{ChatID: chatID, Messages: msgs}
	chat, found := s.chatByID(chatID)
	s.mu.Unlock()

	if found {
		s.persist(chat)
	}
	return nil
}

// Rename changes a session title optimistically. The list entry updates
// before the request is sent and reverts if the backend rejects it.
func (s *Store) Rename(ctx context.Context, chatID, title string) error {
	title = strings.TrimSpace(title)
	if title == "" {
		return ErrEmptyTitle
	}
	if chatID == model.LocalChatID {
		return ErrLocalSession
	}

	s.mu.Lock()
	i := s.indexOf(chatID)
	if i < 0 {
		s.mu.Unlock()
		return errors.New("unknown session: " + chatID)
	}
	previous := s.chats[i].Title
	s.chats[i].Title = title
	s.mu.Unlock()

	if err := s.backend.RenameChat(ctx, chatID, title); err != nil {
		s.mu.Lock()
		if j := s.indexOf(chatID); j >= 0 {
			s.chats[j].Title = previous
		}
		s.mu.Unlock()
		return err
	}

	if chat, found := s.chatSnapshot(chatID); found {
		s.persist(chat)
	}
	return nil
}

// Delete removes a session optimistically. The entry leaves the list
// immediately and is reinserted at its original position if the backend
// rejects the delete. Deleting the active session moves the selection to
// the first remaining session; deleting the last session creates a fresh
// one so the store is never without an active conversation.
func (s *Store) Delete(ctx context.Context, chatID string) error {
	if chatID == model.LocalChatID {
		return ErrLocalSession
	}

	s.mu.Lock()
	i := s.indexOf(chatID)
	if i < 0 {
		s.mu.Unlock()
		return errors.New("unknown session: " + chatID)
	}
	removed := s.chats[i]
	s.chats = append(s.chats[:i:i], s.chats[i+1:]...)
	wasActive := s.activeID == chatID
	s.mu.Unlock()

	if err := s.backend.DeleteChat(ctx, chatID); err != nil {
		s.mu.Lock()
		at := i
		if at > len(s.chats) {
			at = len(s.chats)
		}
		s.chats = append(s.chats[:at], append([]model.ChatInfo{removed}, s.chats[at:]...)...)
		s.mu.Unlock()
		return err
	}

	if s.cache != nil {
		if err := s.cache.DeleteChat(chatID); err != nil {
			s.logf("cache delete %s: %v", chatID, err)
		}
	}

	if !wasActive {
		return nil
	}

	s.mu.Lock()
	next := ""
	if len(s.chats) > 0 {
		next = s.chats[0].ID
	}
	s.mu.Unlock()

	if next != "" {
		return s.selectOrFallback(ctx, next)
	}
	_, err := s.Create(ctx, "")
	return err
}

// selectOrFallback selects chatID, and when the message fetch fails still
// moves the active pointer there with a welcome-seeded conversation so the
// store never references a session that has left the list. The fetch error
// is returned for the caller to surface.
func (s *Store) selectOrFallback(ctx context.Context, chatID string) error {
	err := s.Select(ctx, chatID)
	if err == nil {
		return nil
	}
	s.mu.Lock()
	s.activeID = chatID
	s.conv = model.NewConversation(chatID)
	s.mu.Unlock()
	return err
}

// Prime seeds the session list from the cache so the sidebar has content
// before the first backend round trip. Refresh replaces the primed list
// with the server's, which stays authoritative.
func (s *Store) Prime() {
	if s.cache == nil {
		return
	}
	chats, err := s.cache.ListChats()
	if err != nil {
		s.logf("cache list: %v", err)
		return
	}
	if len(chats) == 0 {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.chats) == 0 {
		s.chats = chats
	}
}

// cachedMessages returns the cached transcript for a session, or nil when
// no cache is attached or it holds nothing for the id.
func (s *Store) cachedMessages(chatID string) []*model.Message {
	if s.cache == nil {
		return nil
	}
	msgs, err := s.cache.LoadMessages(chatID)
	if err != nil {
		s.logf("cache load %s: %v", chatID, err)
		return nil
	}
	if len(msgs) == 0 {
		return nil
	}
	return msgs
}

// UseLocal switches the store into offline mode. The local sentinel session
// becomes active with any transcript cached from an earlier offline run,
// and cached server sessions stay listed so their transcripts can still be
// read through the cache fallback in Select.
func (s *Store) UseLocal() {
	local := model.NewLocalChat()
	conv := model.NewConversation(local.ID)
	if msgs := s.cachedMessages(local.ID); msgs != nil {
		conv.Replace(msgs)
	}
	chats := []model.ChatInfo{local}
	if s.cache != nil {
		cached, err := s.cache.ListChats()
		if err != nil {
			s.logf("cache list: %v", err)
		}
		for _, chat := range cached {
			if chat.ID != model.LocalChatID {
				chats = append(chats, chat)
			}
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.chats = chats
	s.activeID = local.ID
	s.conv = conv
}

// =============================================================================
// CONVERSATION UPDATES
// =============================================================================

// AppendMessage adds a message to the active conversation and refreshes the
// list entry's preview fields. An untitled session gets its title from the
// first user question.
func (s *Store) AppendMessage(msg *model.Message) {
	s.mu.Lock()
	if s.conv == nil {
		s.mu.Unlock()
		return
	}
	s.conv.Append(msg)
	var snapshot model.ChatInfo
	found := false
	if i := s.indexOf(s.activeID); i >= 0 {
		c := &s.chats[i]
		c.MessageCount = s.conv.Len()
		c.LastMessage = msg.Preview(50)
		c.UpdatedAt = msg.Timestamp
		if c.Title == "" {
			c.Title = s.conv.TitleFromFirstQuestion()
		}
		snapshot = *c
		found = true
	}
	s.mu.Unlock()

	if found {
		s.persist(snapshot)
	}
}

// ResetConversation clears the active conversation back to the welcome
// message. Server-side history is untouched; this is a local clear.
func (s *Store) ResetConversation() {
	s.mu.Lock()
	var snapshot model.ChatInfo
	found := false
	if s.conv != nil {
		s.conv.Reset()
		if i := s.indexOf(s.activeID); i >= 0 {
			s.chats[i].MessageCount = s.conv.Len()
			s.chats[i].LastMessage = ""
			snapshot = s.chats[i]
			found = true
		}
	}
	s.mu.Unlock()

	if found {
		s.persist(snapshot)
	}
}

// =============================================================================
// INTERNAL HELPERS
// =============================================================================

// indexOf returns the list position of a session id, or -1. Caller holds mu.
func (s *Store) indexOf(chatID string) int {
	if chatID == "" {
		return -1
	}
	for i := range s.chats {
		if s.chats[i].ID == chatID {
			return i
		}
	}
	return -1
}

// chatByID returns a copy of a list entry. Caller holds mu.
func (s *Store) chatByID(chatID string) (model.ChatInfo, bool) {
	if i := s.indexOf(chatID); i >= 0 {
		return s.chats[i], true
	}
	return model.ChatInfo{}, false
}

// chatSnapshot is chatByID with its own locking.
func (s *Store) chatSnapshot(chatID string) (model.ChatInfo, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.chatByID(chatID)
}

// persist writes a session and its messages to the cache, if configured.
// The offline sentinel is cached too so its history survives restarts.
func (s *Store) persist(chat model.ChatInfo) {
	if s.cache == nil {
		return
	}
	s.mu.Lock()
	var msgs []*model.Message
	if s.conv != nil && s.conv.ChatID == chat.ID {
		msgs = make([]*model.Message, len(s.conv.Messages))
		copy(msgs, s.conv.Messages)
	}
	s.mu.Unlock()

	if err := s.cache.SaveChat(chat, msgs); err != nil {
		s.logf("cache save %s: %v", chat.ID, err)
	}
}

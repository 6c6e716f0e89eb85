// Copyright (c) 2025 Jagapathi Vallapuri
// SPDX-License-Identifier: AGPL-3.0-or-later

package session

import (
	"context"
	"errors"
	"testing"

	"github.com/Jagapathi-Vallapuri/Medical-Document-RAG-Retrieval-Augmented-Generation-System/internal/model"
)

// fakeBackend is an in-memory Backend with togglable failures.
type fakeBackend struct {
	chats    []model.ChatInfo
	messages map[string][]*model.Message
	nextID   int

	failRename bool
	failDelete bool
	failFetch  bool
}

func newFakeBackend(ids ...string) *fakeBackend {
	fb := &fakeBackend{messages: map[string][]*model.Message{}}
	for _, id := range ids {
		fb.chats = append(fb.chats, model.ChatInfo{ID: id, Title: "Chat " + id})
		fb.messages[id] = []*model.Message{model.NewSystemMessage(model.WelcomeText)}
	}
	return fb
}

func (f *fakeBackend) CreateChat(_ context.Context, title string) (*model.ChatInfo, error) {
	f.nextID++
	chat := model.ChatInfo{ID: "new_" + string(rune('0'+f.nextID)), Title: title}
	f.chats = append([]model.ChatInfo{chat}, f.chats...)
	return &chat, nil
}

func (f *fakeBackend) ListChats(context.Context) ([]model.ChatInfo, error) {
	out := make([]model.ChatInfo, len(f.chats))
	copy(out, f.chats)
	return out, nil
}

func (f *fakeBackend) GetChatMessages(_ context.Context, chatID string) ([]*model.Message, error) {
	if f.failFetch {
		return nil, errors.New("fetch failed")
	}
	msgs, ok := f.messages[chatID]
	if !ok {
		return nil, errors.New("chat not found")
	}
	return msgs, nil
}

func (f *fakeBackend) RenameChat(_ context.Context, chatID, title string) error {
	if f.failRename {
		return errors.New("rename rejected")
	}
	for i := range f.chats {
		if f.chats[i].ID == chatID {
			f.chats[i].Title = title
			return nil
		}
	}
	return errors.New("chat not found")
}

func (f *fakeBackend) DeleteChat(_ context.Context, chatID string) error {
	if f.failDelete {
		return errors.New("delete rejected")
	}
	for i := range f.chats {
		if f.chats[i].ID == chatID {
			f.chats = append(f.chats[:i], f.chats[i+1:]...)
			delete(f.messages, chatID)
			return nil
		}
	}
	return errors.New("chat not found")
}

// fakeCache is an in-memory Cache.
type fakeCache struct {
	chats    []model.ChatInfo
	messages map[string][]*model.Message
}

func newFakeCache() *fakeCache {
	return &fakeCache{messages: map[string][]*model.Message{}}
}

func (f *fakeCache) SaveChat(chat model.ChatInfo, msgs []*model.Message) error {
	for i := range f.chats {
		if f.chats[i].ID == chat.ID {
			f.chats[i] = chat
			if msgs != nil {
				f.messages[chat.ID] = msgs
			}
			return nil
		}
	}
	f.chats = append(f.chats, chat)
	f.messages[chat.ID] = msgs
	return nil
}

func (f *fakeCache) DeleteChat(chatID string) error {
	for i := range f.chats {
		if f.chats[i].ID == chatID {
			f.chats = append(f.chats[:i], f.chats[i+1:]...)
			break
		}
	}
	delete(f.messages, chatID)
	return nil
}

func (f *fakeCache) ListChats() ([]model.ChatInfo, error) {
	out := make([]model.ChatInfo, len(f.chats))
	copy(out, f.chats)
	return out, nil
}

func (f *fakeCache) LoadMessages(chatID string) ([]*model.Message, error) {
	return f.messages[chatID], nil
}

func activeIDs(s *Store) []string {
	chats := s.Chats()
	ids := make([]string, len(chats))
	for i, c := range chats {
		ids[i] = c.ID
	}
	return ids
}

// =============================================================================
// TESTS
// =============================================================================

func TestRefresh_SelectsFirstWhenActiveGone(t *testing.T) {
	fb := newFakeBackend("a", "b")
	s := NewStore(fb)

	if err := s.Refresh(context.Background()); err != nil {
		t.Fatalf("Refresh: %v", err)
	}
	if got := s.ActiveID(); got != "a" {
		t.Errorf("active = %q, want a", got)
	}
	if s.Conversation() == nil || s.Conversation().ChatID != "a" {
		t.Error("conversation should follow the selection")
	}
}

func TestRefresh_KeepsExistingSelection(t *testing.T) {
	fb := newFakeBackend("a", "b")
	s := NewStore(fb)
	if err := s.Select(context.Background(), "b"); err != nil {
		t.Fatalf("Select: %v", err)
	}
	if err := s.Refresh(context.Background()); err != nil {
		t.Fatalf("Refresh: %v", err)
	}
	if got := s.ActiveID(); got != "b" {
		t.Errorf("active = %q, want b", got)
	}
}

func TestCreate_UnshiftsAndSelects(t *testing.T) {
	fb := newFakeBackend("a")
	s := NewStore(fb)
	if err := s.Refresh(context.Background()); err != nil {
		t.Fatalf("Refresh: %v", err)
	}

	chat, err := s.Create(context.Background(), "Fresh")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	ids := activeIDs(s)
	if ids[0] != chat.ID {
		t.Errorf("new chat must be first, got %v", ids)
	}
	if s.ActiveID() != chat.ID {
		t.Errorf("active = %q, want %q", s.ActiveID(), chat.ID)
	}

	conv := s.Conversation()
	if conv.Len() != 1 || conv.Messages[0].Role != model.RoleSystem {
		t.Error("fresh conversation must hold only the welcome message")
	}
}

func TestSelect_FailurePreservesPrevious(t *testing.T) {
	fb := newFakeBackend("a", "b")
	s := NewStore(fb)
	if err := s.Select(context.Background(), "a"); err != nil {
		t.Fatalf("Select a: %v", err)
	}

	fb.failFetch = true
	if err := s.Select(context.Background(), "b"); err == nil {
		t.Fatal("want error when fetch fails")
	}
	if got := s.ActiveID(); got != "a" {
		t.Errorf("failed select must not move the selection, active = %q", got)
	}
	if s.Conversation().ChatID != "a" {
		t.Error("conversation must be untouched after a failed select")
	}
}

func TestRename_EmptyTitleRejectedLocally(t *testing.T) {
	fb := newFakeBackend("a")
	s := NewStore(fb)
	if err := s.Refresh(context.Background()); err != nil {
		t.Fatalf("Refresh: %v", err)
	}

	for _, title := range []string{"", "   ", "\t\n"} {
		if err := s.Rename(context.Background(), "a", title); err != ErrEmptyTitle {
			t.Errorf("Rename(%q) = %v, want ErrEmptyTitle", title, err)
		}
	}
	if got := s.Chats()[0].Title; got != "Chat a" {
		t.Errorf("title mutated to %q on rejected rename", got)
	}
}

func TestRename_RollsBackOnBackendFailure(t *testing.T) {
	fb := newFakeBackend("a")
	fb.failRename = true
	s := NewStore(fb)
	if err := s.Refresh(context.Background()); err != nil {
		t.Fatalf("Refresh: %v", err)
	}

	if err := s.Rename(context.Background(), "a", "Better Title"); err == nil {
		t.Fatal("want rename error")
	}
	if got := s.Chats()[0].Title; got != "Chat a" {
		t.Errorf("title = %q after rollback, want original", got)
	}
}

func TestDelete_RollsBackAtOriginalPosition(t *testing.T) {
	fb := newFakeBackend("a", "b", "c")
	fb.failDelete = true
	s := NewStore(fb)
	if err := s.Refresh(context.Background()); err != nil {
		t.Fatalf("Refresh: %v", err)
	}

	if err := s.Delete(context.Background(), "b"); err == nil {
		t.Fatal("want delete error")
	}
	ids := activeIDs(s)
	want := []string{"a", "b", "c"}
	for i := range want {
		if ids[i] != want[i] {
			t.Fatalf("list = %v, want %v", ids, want)
		}
	}
}

func TestDelete_ActiveFallsBackToFirstRemaining(t *testing.T) {
	fb := newFakeBackend("a", "b")
	s := NewStore(fb)
	if err := s.Refresh(context.Background()); err != nil {
		t.Fatalf("Refresh: %v", err)
	}

	if err := s.Delete(context.Background(), "a"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if got := s.ActiveID(); got != "b" {
		t.Errorf("active = %q, want b", got)
	}
}

func TestDelete_ActiveFallbackSurvivesFetchFailure(t *testing.T) {
	fb := newFakeBackend("a", "b")
	s := NewStore(fb)
	if err := s.Refresh(context.Background()); err != nil {
		t.Fatalf("Refresh: %v", err)
	}

	// The delete itself succeeds; only the follow-up transcript fetch fails.
	fb.failFetch = true
	if err := s.Delete(context.Background(), "a"); err == nil {
		t.Fatal("want the fetch error surfaced")
	}

	// The active pointer must not keep referencing the deleted session.
	if got := s.ActiveID(); got != "b" {
		t.Errorf("active = %q, want b", got)
	}
	if ids := activeIDs(s); len(ids) != 1 || ids[0] != "b" {
		t.Errorf("list = %v, want [b]", ids)
	}
	conv := s.Conversation()
	if conv == nil || conv.ChatID != "b" {
		t.Fatal("conversation must follow the fallback selection")
	}
	if conv.Len() != 1 || conv.Messages[0].Role != model.RoleSystem {
		t.Error("fallback conversation should hold only the welcome message")
	}
}

func TestRefresh_FallbackSurvivesFetchFailure(t *testing.T) {
	fb := newFakeBackend("a", "b")
	s := NewStore(fb)
	if err := s.Refresh(context.Background()); err != nil {
		t.Fatalf("Refresh: %v", err)
	}

	// The active session disappears server-side and the replacement's
	// transcript cannot be fetched.
	fb.chats = fb.chats[1:]
	delete(fb.messages, "a")
	fb.failFetch = true

	if err := s.Refresh(context.Background()); err == nil {
		t.Fatal("want the fetch error surfaced")
	}
	if got := s.ActiveID(); got != "b" {
		t.Errorf("active = %q, want b", got)
	}
	if conv := s.Conversation(); conv == nil || conv.ChatID != "b" {
		t.Error("conversation must follow the fallback selection")
	}
}

func TestRefresh_EmptyListClearsVanishedActive(t *testing.T) {
	fb := newFakeBackend("a")
	s := NewStore(fb)
	if err := s.Refresh(context.Background()); err != nil {
		t.Fatalf("Refresh: %v", err)
	}

	fb.chats = nil
	if err := s.Refresh(context.Background()); err != nil {
		t.Fatalf("Refresh: %v", err)
	}
	if got := s.ActiveID(); got != "" {
		t.Errorf("active = %q, want empty after the session vanished", got)
	}
}

func TestDelete_LastSessionCreatesReplacement(t *testing.T) {
	fb := newFakeBackend("a")
	s := NewStore(fb)
	if err := s.Refresh(context.Background()); err != nil {
		t.Fatalf("Refresh: %v", err)
	}

	if err := s.Delete(context.Background(), "a"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if s.ActiveID() == "" {
		t.Fatal("store must never be without an active session")
	}
	if len(s.Chats()) != 1 {
		t.Errorf("chats = %v, want single replacement", activeIDs(s))
	}
}

func TestUseLocal_RestoresCachedTranscript(t *testing.T) {
	cache := newFakeCache()
	cache.SaveChat(model.NewLocalChat(), []*model.Message{
		model.NewSystemMessage(model.WelcomeText),
		model.NewUserMessage("What were we discussing?"),
		model.NewErrorMessage("offline"),
	})

	s := NewStore(newFakeBackend(), WithCache(cache))
	s.UseLocal()

	conv := s.Conversation()
	if conv.Len() != 3 {
		t.Fatalf("Len = %d, want the cached transcript restored", conv.Len())
	}
	if conv.Messages[1].Content != "What were we discussing?" {
		t.Errorf("restored content = %q", conv.Messages[1].Content)
	}
}

func TestUseLocal_ListsCachedSessions(t *testing.T) {
	cache := newFakeCache()
	cache.SaveChat(model.ChatInfo{ID: "srv1", Title: "Dosage questions"}, nil)
	cache.SaveChat(model.ChatInfo{ID: "srv2", Title: "Interactions"}, nil)

	s := NewStore(newFakeBackend(), WithCache(cache))
	s.UseLocal()

	ids := activeIDs(s)
	if len(ids) != 3 || ids[0] != model.LocalChatID {
		t.Fatalf("list = %v, want local sentinel first plus cached sessions", ids)
	}
	if s.ActiveID() != model.LocalChatID {
		t.Errorf("active = %q, want the local sentinel", s.ActiveID())
	}
}

func TestPrime_SeedsListUntilRefresh(t *testing.T) {
	cache := newFakeCache()
	cache.SaveChat(model.ChatInfo{ID: "old", Title: "From last run"}, nil)

	fb := newFakeBackend("a")
	s := NewStore(fb, WithCache(cache))

	s.Prime()
	if ids := activeIDs(s); len(ids) != 1 || ids[0] != "old" {
		t.Fatalf("primed list = %v, want the cached session", ids)
	}

	// The server list is authoritative once it arrives.
	if err := s.Refresh(context.Background()); err != nil {
		t.Fatalf("Refresh: %v", err)
	}
	if ids := activeIDs(s); len(ids) != 1 || ids[0] != "a" {
		t.Errorf("list after refresh = %v, want server copy", ids)
	}
}

func TestSelect_ServesCacheWhenFetchFails(t *testing.T) {
	cache := newFakeCache()
	cache.SaveChat(model.ChatInfo{ID: "b", Title: "Chat b"}, []*model.Message{
		model.NewSystemMessage(model.WelcomeText),
		model.NewAssistantMessage("cached answer", nil),
	})

	fb := newFakeBackend("a", "b")
	s := NewStore(fb, WithCache(cache))
	if err := s.Refresh(context.Background()); err != nil {
		t.Fatalf("Refresh: %v", err)
	}

	fb.failFetch = true
	if err := s.Select(context.Background(), "b"); err != nil {
		t.Fatalf("Select should fall back to the cache, got %v", err)
	}
	if got := s.ActiveID(); got != "b" {
		t.Errorf("active = %q, want b", got)
	}
	conv := s.Conversation()
	if conv.Len() != 2 || conv.Messages[1].Content != "cached answer" {
		t.Errorf("conversation did not come from the cache: %+v", conv.Messages)
	}
}

func TestLocalSession_RejectsServerOperations(t *testing.T) {
	s := NewStore(newFakeBackend())
	s.UseLocal()

	if !s.IsLocal() {
		t.Fatal("IsLocal after UseLocal")
	}
	if err := s.Rename(context.Background(), model.LocalChatID, "x"); err != ErrLocalSession {
		t.Errorf("Rename = %v, want ErrLocalSession", err)
	}
	if err := s.Delete(context.Background(), model.LocalChatID); err != ErrLocalSession {
		t.Errorf("Delete = %v, want ErrLocalSession", err)
	}
}

func TestAppendMessage_TitlesUntitledSession(t *testing.T) {
	fb := newFakeBackend()
	s := NewStore(fb)
	if _, err := s.Create(context.Background(), ""); err != nil {
		t.Fatalf("Create: %v", err)
	}

	s.AppendMessage(model.NewUserMessage("What is the maximum daily dosage of ibuprofen for adults?"))

	chat := s.Chats()[0]
	if chat.Title == "" {
		t.Fatal("first question should title the session")
	}
	if chat.MessageCount != 2 {
		t.Errorf("MessageCount = %d, want 2", chat.MessageCount)
	}
}

func TestResetConversation_LeavesOnlyWelcome(t *testing.T) {
	fb := newFakeBackend()
	s := NewStore(fb)
	if _, err := s.Create(context.Background(), ""); err != nil {
		t.Fatalf("Create: %v", err)
	}
	s.AppendMessage(model.NewUserMessage("q"))
	s.AppendMessage(model.NewAssistantMessage("a", nil))

	s.ResetConversation()

	conv := s.Conversation()
	if conv.Len() != 1 {
		t.Fatalf("Len = %d, want 1", conv.Len())
	}
	if conv.Messages[0].Role != model.RoleSystem || conv.Messages[0].Content != model.WelcomeText {
		t.Error("reset must leave a fresh welcome message")
	}
}

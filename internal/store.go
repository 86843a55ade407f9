package internal

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	// SessionsKey holds the JSON session registry
	SessionsKey = "voicechat-sessions"
	// CurrentSessionKey holds the id of the active session
	CurrentSessionKey = "voicechat-current-session"
	// LegacyConversationKey holds a flat message array written by older
	// releases. It is only read, as a migration source.
	LegacyConversationKey = "voicechat-conversation"

	// MaxSessions bounds the registry; older sessions are evicted first
	MaxSessions = 50

	storageQuota = 5 * 1024 * 1024
)

// StorageInfo describes how much of the nominal quota the registry uses
type StorageInfo struct {
	Used       int
	Total      int
	Percentage int
}

// Store persists chat sessions in a KeyValueStore. Every operation is
// synchronous and degrades to an empty result instead of failing the caller;
// failures are logged.
type Store struct {
	kv        KeyValueStore
	now       func() time.Time
	newSuffix func() string
}

// StoreOption configures a Store
type StoreOption func(*Store)

// WithClock overrides the time source used for timestamps and session ids
func WithClock(now func() time.Time) StoreOption {
	return func(s *Store) {
		s.now = now
	}
}

// WithIDSuffix overrides the random suffix appended to new session ids
func WithIDSuffix(fn func() string) StoreOption {
	return func(s *Store) {
		s.newSuffix = fn
	}
}

// NewStore creates a Store over kv
func NewStore(kv KeyValueStore, opts ...StoreOption) *Store {
	s := &Store{
		kv:        kv,
		now:       time.Now,
		newSuffix: randomSuffix,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func randomSuffix() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:9]
}

// GetAllSessions returns the registry, most recently created first.
// Missing or corrupt data yields an empty slice.
func (s *Store) GetAllSessions() []ChatSession {
	sessions, err := s.loadSessions()
	if err != nil {
		LogError("Error loading chat sessions: %v", err)
		return []ChatSession{}
	}
	return sessions
}

func (s *Store) loadSessions() ([]ChatSession, error) {
	stored, ok, err := s.kv.Get(SessionsKey)
	if err != nil {
		return nil, err
	}
	if !ok || stored == "" {
		return []ChatSession{}, nil
	}

	var sessions []ChatSession
	if err := json.Unmarshal([]byte(stored), &sessions); err != nil {
		return nil, &ParseError{Source: "registry", Key: SessionsKey, Err: err}
	}
	if sessions == nil {
		sessions = []ChatSession{}
	}
	return sessions, nil
}

func (s *Store) writeSessions(sessions []ChatSession) error {
	data, err := json.Marshal(sessions)
	if err != nil {
		return fmt.Errorf("failed to marshal sessions: %w", err)
	}
	return s.kv.Set(SessionsKey, string(data))
}

// GetCurrentSessionID returns the id of the active session, if any
func (s *Store) GetCurrentSessionID() (string, bool) {
	id, ok, err := s.kv.Get(CurrentSessionKey)
	if err != nil {
		LogError("Error loading current session id: %v", err)
		return "", false
	}
	if !ok || id == "" {
		return "", false
	}
	return id, true
}

// SetCurrentSessionID marks id as the active session
func (s *Store) SetCurrentSessionID(id string) {
	if err := s.kv.Set(CurrentSessionKey, id); err != nil {
		LogError("Error saving current session id: %v", err)
	}
}

// GetSession looks a session up by id
func (s *Store) GetSession(id string) (*ChatSession, bool) {
	for _, session := range s.GetAllSessions() {
		if session.ID == id {
			session := session
			return &session, true
		}
	}
	return nil, false
}

// CurrentMessages returns the messages of the active session. Without an
// active session it falls back to the legacy flat message array.
func (s *Store) CurrentMessages() []ChatMessage {
	if id, ok := s.GetCurrentSessionID(); ok {
		if session, found := s.GetSession(id); found {
			return session.Messages
		}
		return []ChatMessage{}
	}

	stored, ok, err := s.kv.Get(LegacyConversationKey)
	if err != nil || !ok || stored == "" {
		if err != nil {
			LogError("Error loading current messages: %v", err)
		}
		return []ChatMessage{}
	}

	var messages []ChatMessage
	if err := json.Unmarshal([]byte(stored), &messages); err != nil {
		LogError("Error loading current messages: %v", &ParseError{Source: "legacy", Key: LegacyConversationKey, Err: err})
		return []ChatMessage{}
	}
	return messages
}

// SaveSession upserts the session id with messages and makes it current.
// Saving an empty message list does nothing.
func (s *Store) SaveSession(id string, messages []ChatMessage) {
	if len(messages) == 0 {
		return
	}

	sessions, err := s.loadSessions()
	if err != nil {
		// A corrupt registry is replaced rather than blocking every save.
		LogWarn("Discarding unreadable session registry: %v", err)
		sessions = []ChatSession{}
	}

	now := s.now()
	session := ChatSession{
		ID:        id,
		Title:     GenerateSessionTitle(messages),
		Messages:  append([]ChatMessage(nil), messages...),
		CreatedAt: now,
		UpdatedAt: now,
	}

	existing := indexOfSession(sessions, id)
	if existing >= 0 {
		session.CreatedAt = sessions[existing].CreatedAt
		sessions[existing] = session
	} else {
		sessions = append([]ChatSession{session}, sessions...)
	}

	if len(sessions) > MaxSessions {
		sessions = sessions[:MaxSessions]
	}

	if err := s.writeSessions(sessions); err != nil {
		LogError("Error saving chat session: %v", err)
		return
	}
	s.SetCurrentSessionID(id)
}

func indexOfSession(sessions []ChatSession, id string) int {
	for i, session := range sessions {
		if session.ID == id {
			return i
		}
	}
	return -1
}

// CreateNewSession allocates a fresh session id and makes it current. The
// session is only stored once SaveSession is called for it.
func (s *Store) CreateNewSession() string {
	id := fmt.Sprintf("session_%d_%s", s.now().UnixMilli(), s.newSuffix())
	s.SetCurrentSessionID(id)
	return id
}

// DeleteSession removes a session; deleting the current session clears the
// current pointer.
func (s *Store) DeleteSession(id string) {
	sessions, err := s.loadSessions()
	if err != nil {
		LogError("Error deleting chat session: %v", err)
		return
	}

	filtered := make([]ChatSession, 0, len(sessions))
	for _, session := range sessions {
		if session.ID != id {
			filtered = append(filtered, session)
		}
	}

	if err := s.writeSessions(filtered); err != nil {
		LogError("Error deleting chat session: %v", err)
		return
	}

	if current, ok := s.GetCurrentSessionID(); ok && current == id {
		s.remove(CurrentSessionKey)
		s.remove(LegacyConversationKey)
	}
}

// ClearAllSessions wipes the registry and the current pointer
func (s *Store) ClearAllSessions() {
	s.remove(SessionsKey)
	s.remove(CurrentSessionKey)
	s.remove(LegacyConversationKey)
}

func (s *Store) remove(key string) {
	if err := s.kv.Remove(key); err != nil {
		LogError("Error removing %s: %v", key, err)
	}
}

// ExportChatHistory renders the registry as indented JSON
func (s *Store) ExportChatHistory() string {
	data, err := json.MarshalIndent(s.GetAllSessions(), "", "  ")
	if err != nil {
		LogError("Error exporting chat history: %v", err)
		return "[]"
	}
	return string(data)
}

// ImportChatHistory replaces the registry with the sessions in data. The
// payload must be a JSON array whose entries each carry an id and a messages
// array; otherwise an error is returned and the store is left untouched.
func (s *Store) ImportChatHistory(data string) error {
	sessions, err := parseImport([]byte(data))
	if err != nil {
		LogError("Error importing chat history: %v", err)
		return err
	}

	if len(sessions) > MaxSessions {
		LogWarn("Import holds %d sessions, keeping the first %d", len(sessions), MaxSessions)
		sessions = sessions[:MaxSessions]
	}

	if err := s.writeSessions(sessions); err != nil {
		LogError("Error importing chat history: %v", err)
		return err
	}
	return nil
}

func parseImport(data []byte) ([]ChatSession, error) {
	var entries []json.RawMessage
	// null decodes without error into a nil slice
	if err := json.Unmarshal(data, &entries); err != nil || entries == nil {
		return nil, &ParseError{Source: "import", Key: "payload", Err: errors.New("expected array of sessions")}
	}

	sessions := make([]ChatSession, 0, len(entries))
	for i, entry := range entries {
		var fields map[string]json.RawMessage
		if err := json.Unmarshal(entry, &fields); err != nil || fields == nil {
			return nil, &ImportError{Index: i, Err: errors.New("session is not an object")}
		}

		var id string
		if raw, ok := fields["id"]; !ok || json.Unmarshal(raw, &id) != nil || id == "" {
			return nil, &ImportError{Index: i, Err: errors.New("missing id")}
		}

		raw, ok := fields["messages"]
		if !ok || !bytes.HasPrefix(bytes.TrimSpace(raw), []byte("[")) {
			return nil, &ImportError{Index: i, Err: errors.New("missing messages array")}
		}

		var session ChatSession
		if err := json.Unmarshal(entry, &session); err != nil {
			return nil, &ImportError{Index: i, Err: err}
		}
		sessions = append(sessions, session)
	}
	return sessions, nil
}

// StorageInfo reports the size of the persisted registry against a 5 MiB quota
func (s *Store) StorageInfo() StorageInfo {
	stored, _, err := s.kv.Get(SessionsKey)
	if err != nil {
		return StorageInfo{}
	}
	used := len(stored)
	return StorageInfo{
		Used:       used,
		Total:      storageQuota,
		Percentage: int(float64(used)/float64(storageQuota)*100 + 0.5),
	}
}

package client

import (
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSessionManager_NewSessionOnFirstContact(t *testing.T) {
	m := NewSessionManager(NewMemoryStorage(), DefaultSessionDuration)

	s := m.InitSession()
	assert.True(t, s.IsNewVisitor)
	assert.Equal(t, 1, s.VisitCount)
	assert.NotEmpty(t, s.ID)
	assert.Contains(t, s.ID, "-", "session ID is timestamp-suffix shaped")
}

func TestSessionManager_ReusesYoungSession(t *testing.T) {
	storage := NewMemoryStorage()
	m := NewSessionManager(storage, DefaultSessionDuration)

	first := m.InitSession()
	second := m.InitSession()

	assert.Equal(t, first.ID, second.ID)
	assert.False(t, second.IsNewVisitor)
	assert.Equal(t, 2, second.VisitCount)
}

func TestSessionManager_ReissuesExpiredSession(t *testing.T) {
	storage := NewMemoryStorage()
	require.NoError(t, storage.Save(SessionRecord{
		ID:         "old-session",
		CreatedAt:  time.Now().Add(-time.Hour),
		VisitCount: 7,
	}))

	m := NewSessionManager(storage, 30*time.Minute)
	s := m.InitSession()

	assert.NotEqual(t, "old-session", s.ID)
	assert.True(t, s.IsNewVisitor)
	assert.Equal(t, 1, s.VisitCount)
}

func TestSessionManager_SlidingExpiry(t *testing.T) {
	storage := NewMemoryStorage()
	require.NoError(t, storage.Save(SessionRecord{
		ID:         "live-session",
		CreatedAt:  time.Now().Add(-20 * time.Minute),
		VisitCount: 3,
	}))

	m := NewSessionManager(storage, 30*time.Minute)
	s := m.InitSession()
	require.Equal(t, "live-session", s.ID)

	// The stored record's timestamp must have been refreshed.
	rec, err := storage.Load()
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now(), rec.CreatedAt, time.Minute)
	assert.Equal(t, 4, rec.VisitCount)
}

func TestSessionManager_FileStorageRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.json")
	m := NewSessionManager(NewFileStorage(path), DefaultSessionDuration)

	first := m.InitSession()

	// A second manager on the same file sees the same session.
	m2 := NewSessionManager(NewFileStorage(path), DefaultSessionDuration)
	second := m2.InitSession()

	assert.Equal(t, first.ID, second.ID)
	assert.False(t, second.IsNewVisitor)
}

func TestSessionManager_UnwritableStorageStillYieldsSession(t *testing.T) {
	// A directory that does not exist makes every write fail.
	m := NewSessionManager(NewFileStorage(filepath.Join(t.TempDir(), "missing", "session.json")), DefaultSessionDuration)

	s := m.InitSession()
	assert.NotEmpty(t, s.ID)
	assert.True(t, s.IsNewVisitor)
}

func TestNewSessionID_Format(t *testing.T) {
	id := newSessionID(time.Now())
	parts := strings.SplitN(id, "-", 2)
	require.Len(t, parts, 2)
	assert.NotEmpty(t, parts[0])
	assert.Len(t, parts[1], 9)

	other := newSessionID(time.Now())
	assert.NotEqual(t, id, other)
}

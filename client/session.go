// Package client is the Go counterpart of the site's tracking script: it
// manages the visitor session, builds visit events and reports them to the
// API with bounded retries and a local display fallback.
package client

import (
	"crypto/rand"
	"errors"
	"log"
	"math/big"
	"strconv"
	"time"
)

// DefaultSessionDuration is how long a stored session stays valid without a
// new visit. Each visit slides the window.
const DefaultSessionDuration = 30 * time.Minute

// SessionRecord is what gets persisted between visits.
type SessionRecord struct {
	ID         string    `json:"sessionId"`
	CreatedAt  time.Time `json:"createdAt"`
	VisitCount int       `json:"visitCount"`
}

// Session is the active state handed to the tracker.
type Session struct {
	ID           string
	IsNewVisitor bool
	VisitCount   int
}

// SessionManager creates and refreshes the per-client session.
type SessionManager struct {
	storage  SessionStorage
	duration time.Duration
	warned   bool
}

func NewSessionManager(storage SessionStorage, duration time.Duration) *SessionManager {
	if duration <= 0 {
		duration = DefaultSessionDuration
	}
	return &SessionManager{storage: storage, duration: duration}
}

// InitSession reuses a stored session younger than the session duration, or
// mints a fresh one. The record is always rewritten with an incremented visit
// count and a refreshed timestamp, so the expiry window slides. A storage
// write failure is logged once and the session continues in memory only.
func (m *SessionManager) InitSession() Session {
	now := time.Now()

	rec, err := m.storage.Load()
	if err != nil && !errors.Is(err, ErrNoSession) {
		log.Printf("Session storage read failed, starting fresh: %v", err)
	}

	var session Session
	if rec != nil && now.Sub(rec.CreatedAt) < m.duration {
		session = Session{
			ID:           rec.ID,
			IsNewVisitor: false,
			VisitCount:   rec.VisitCount + 1,
		}
	} else {
		session = Session{
			ID:           newSessionID(now),
			IsNewVisitor: true,
			VisitCount:   1,
		}
	}

	if err := m.storage.Save(SessionRecord{
		ID:         session.ID,
		CreatedAt:  now,
		VisitCount: session.VisitCount,
	}); err != nil && !m.warned {
		m.warned = true
		log.Printf("Session storage write failed, continuing in memory: %v", err)
	}

	return session
}

// newSessionID concatenates the current time with a random base-36 suffix.
// Not cryptographically unique; collisions are negligible at this scale.
func newSessionID(now time.Time) string {
	suffix := randomBase36(9)
	return strconv.FormatInt(now.UnixMilli(), 36) + "-" + suffix
}

func randomBase36(length int) string {
	max := new(big.Int).Exp(big.NewInt(36), big.NewInt(int64(length)), nil)
	n, err := rand.Int(rand.Reader, max)
	if err != nil {
		// Degrade to a time-derived suffix rather than fail.
		return strconv.FormatInt(time.Now().UnixNano(), 36)
	}
	s := n.Text(36)
	for len(s) < length {
		s = "0" + s
	}
	return s
}

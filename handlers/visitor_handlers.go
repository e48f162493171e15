// api/handlers/visitor_handlers.go
package handlers

import (
	"context"
	"log"
	"math"
	"net/http"
	"time"

	"portfolio/api/models"
	"portfolio/api/store"
	"portfolio/api/utils"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// clockSkewTolerance is how far into the future a client-reported timestamp
// may lie before the payload is rejected.
const clockSkewTolerance = 5000 * time.Millisecond

type VisitorHandlers struct {
	Store store.VisitorStore
}

func NewVisitorHandlers(s store.VisitorStore) *VisitorHandlers {
	return &VisitorHandlers{Store: s}
}

// GetVisitors returns the current aggregate counters, lazily initializing
// them with zero values on a fresh deployment.
func (h *VisitorHandlers) GetVisitors(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 10*time.Second)
	defer cancel()

	counters, err := h.Store.GetCounters(ctx)
	if err != nil {
		log.Printf("Error reading visitor counters: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve visitor counters"})
		return
	}

	c.JSON(http.StatusOK, models.VisitorsResponse{
		Success:   true,
		Counters:  counters,
		Timestamp: time.Now().UTC(),
	})
}

// TrackVisit ingests one page view: validate, fingerprint, classify against
// the 24-hour log, persist, aggregate, respond with the updated counters.
func (h *VisitorHandlers) TrackVisit(c *gin.Context) {
	var req models.TrackVisitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Printf("Error binding visit JSON: %v", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	if req.Action != "track_visit" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Unknown action"})
		return
	}

	now := time.Now()
	if !isValidVisitorData(req.Data, now) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid visitor data"})
		return
	}

	userAgent := req.Data.UserAgent
	if userAgent == "" {
		userAgent = c.Request.UserAgent()
	}
	clientIP := utils.ClientKey(c.Request)
	fingerprint := utils.Fingerprint(clientIP, userAgent)
	sessionID := *req.Data.SessionID

	ctx, cancel := context.WithTimeout(c.Request.Context(), 15*time.Second)
	defer cancel()

	// The server decides new-vs-returning; the client claim is only a hint.
	// On a failed lookback query we fail open and count the visitor as new
	// rather than turning away legitimate traffic.
	isNewVisitor := true
	since := now.Add(-store.NewVisitorLookback)
	seen, err := h.Store.SeenRecently(ctx, sessionID, fingerprint, since)
	if err != nil {
		log.Printf("Lookback query failed, treating visitor as new: %v", err)
	} else {
		isNewVisitor = !seen
	}

	event := models.VisitEvent{
		EntryID:      uuid.New().String(),
		SessionID:    sessionID,
		IsNewVisitor: isNewVisitor,
		Timestamp:    time.UnixMilli(int64(*req.Data.Timestamp)).UTC(),
		UserAgent:    userAgent,
		Referrer:     req.Data.Referrer,
		URL:          req.Data.URL,
		Viewport:     req.Data.Viewport,
		Timezone:     req.Data.Timezone,
		IPAddress:    clientIP,
		Fingerprint:  fingerprint,
	}

	if err := h.Store.AppendLogEntry(ctx, event); err != nil {
		log.Printf("Error appending visit to log (EntryID: %s): %v", event.EntryID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to record visit"})
		return
	}

	counters, err := h.Store.UpdateCounters(ctx, isNewVisitor)
	if err != nil {
		log.Printf("Error updating visitor counters: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update visitor counters"})
		return
	}

	c.JSON(http.StatusOK, models.VisitorsResponse{
		Success:   true,
		Counters:  counters,
		Timestamp: time.Now().UTC(),
	})
}

// isValidVisitorData checks the client payload: a non-empty session ID, an
// explicit boolean claim, and a finite numeric timestamp no further than the
// skew tolerance into the future. The comparison stays in float space; an
// int64 conversion of an out-of-range float is implementation-dependent and
// would let absurd timestamps through.
func isValidVisitorData(data models.TrackVisitPayload, now time.Time) bool {
	if data.SessionID == nil || *data.SessionID == "" {
		return false
	}
	if data.IsNewVisitor == nil {
		return false
	}
	if data.Timestamp == nil {
		return false
	}
	ts := *data.Timestamp
	if math.IsNaN(ts) || math.IsInf(ts, 0) {
		return false
	}
	if ts > float64(now.Add(clockSkewTolerance).UnixMilli()) {
		return false
	}
	return true
}

package handlers

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func newStatsRouter(s *fakeVisitorStore) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	h := NewStatsHandlers(s)
	r.GET("/api/stats/top-paths", h.GetTopPaths)
	r.GET("/api/stats/visitors-over-time", h.GetVisitorsOverTime)
	return r
}

func TestGetTopPaths_RejectsBadParams(t *testing.T) {
	r := newStatsRouter(&fakeVisitorStore{})

	cases := []string{
		"/api/stats/top-paths?start=yesterday",
		"/api/stats/top-paths?end=not-a-time",
		"/api/stats/top-paths?limit=0",
		"/api/stats/top-paths?limit=-3",
	}
	for _, url := range cases {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, url, nil))
		assert.Equal(t, http.StatusBadRequest, w.Code, url)
	}
}

func TestGetTopPaths_DefaultsAreAccepted(t *testing.T) {
	r := newStatsRouter(&fakeVisitorStore{})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/stats/top-paths", nil))
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestGetVisitorsOverTime_RequiresInterval(t *testing.T) {
	r := newStatsRouter(&fakeVisitorStore{})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/stats/visitors-over-time", nil))
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/stats/visitors-over-time?interval=Day", nil))
	assert.Equal(t, http.StatusOK, w.Code)
}

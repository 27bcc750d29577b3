package http

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"newsbrief/internal/domain/entity"
	"newsbrief/internal/handler/http/respond"
	"newsbrief/internal/usecase/digest"
)

// DigestReader is the read side of digest.Service.
type DigestReader interface {
	Today() time.Time
	RenderDay(ctx context.Context, day time.Time) (*digest.Digest, string, error)
	LatestInsight(ctx context.Context, day time.Time) (*entity.DailyInsight, error)
	CountSubscribers(ctx context.Context) (digest.SubscriberCounts, error)
}

// Pinger checks store connectivity; *sql.DB satisfies it.
type Pinger interface {
	PingContext(ctx context.Context) error
}

type Handler struct {
	digest  DigestReader
	db      Pinger
	version string
}

func NewHandler(d DigestReader, db Pinger, version string) *Handler {
	return &Handler{digest: d, db: db, version: version}
}

func (h *Handler) Root(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "ok",
		"message": "newsbrief API is running",
		"version": h.version,
	})
}

type checkStatus struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}

type healthResponse struct {
	Status    string                 `json:"status"`
	Timestamp string                 `json:"timestamp"`
	Checks    map[string]checkStatus `json:"checks"`
	Version   string                 `json:"version"`
}

// Health pings the database and reports 503 when it is unreachable.
func (h *Handler) Health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	resp := healthResponse{
		Status:    "healthy",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Checks:    map[string]checkStatus{},
		Version:   h.version,
	}
	code := http.StatusOK
	switch {
	case h.db == nil:
		resp.Checks["database"] = checkStatus{Status: "unhealthy", Message: "not configured"}
	default:
		if err := h.db.PingContext(ctx); err != nil {
			resp.Checks["database"] = checkStatus{Status: "unhealthy", Message: respond.SanitizeError(err)}
		} else {
			resp.Checks["database"] = checkStatus{Status: "healthy"}
		}
	}
	if resp.Checks["database"].Status != "healthy" {
		resp.Status, code = "unhealthy", http.StatusServiceUnavailable
	}
	c.Header("Cache-Control", "no-cache, no-store, must-revalidate")
	c.JSON(code, resp)
}

// SubscriberCount reports every subscriber row as count, unsubscribed ones
// included, and the digest recipients as active.
func (h *Handler) SubscriberCount(c *gin.Context) {
	n, err := h.digest.CountSubscribers(c.Request.Context())
	if err != nil {
		respond.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"count": n.Total, "active": n.Active})
}

// DigestToday renders today's digest as HTML, 404 when nothing was
// summarized today.
func (h *Handler) DigestToday(c *gin.Context) {
	_, html, err := h.digest.RenderDay(c.Request.Context(), h.digest.Today())
	if errors.Is(err, digest.ErrNothingToSend) {
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "no summarized articles today"})
		return
	}
	if err != nil {
		respond.Error(c, err)
		return
	}
	c.Header("Content-Security-Policy", DigestCSP)
	c.Data(http.StatusOK, "text/html; charset=utf-8", []byte(html))
}

type insightResponse struct {
	ID        int64     `json:"id"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

func (h *Handler) InsightToday(c *gin.Context) {
	in, err := h.digest.LatestInsight(c.Request.Context(), h.digest.Today())
	if err != nil {
		respond.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, insightResponse{ID: in.ID, Content: in.Content, CreatedAt: in.CreatedAt})
}

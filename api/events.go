package api

import (
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"confbid/bidding"
)

const keepAliveInterval = 15 * time.Second

type preferenceEvent struct {
	EventID   uuid.UUID `json:"eventId"`
	BidID     uint64    `json:"bidId"`
	Reviewer  uint64    `json:"reviewer"`
	Article   uint64    `json:"article"`
	Choice    string    `json:"choice"`
	Created   bool      `json:"created"`
	ChangedAt time.Time `json:"changedAt"`
}

func toPreferenceEvent(event bidding.BidChanged) preferenceEvent {
	return preferenceEvent{
		EventID:   event.EventID,
		BidID:     event.BidID,
		Reviewer:  event.Reviewer,
		Article:   event.Article,
		Choice:    event.Choice,
		Created:   event.Created,
		ChangedAt: event.ChangedAt,
	}
}

// Stream preference changes of a reviewer
// (GET /api/reviewers/{reviewerID}/preferences/events)
func (impl *ServerImpl) GetPreferenceEvents(c *gin.Context) {
	reviewer, ok := parseID(c.Param("reviewerID"))
	if !ok {
		c.JSON(http.StatusBadRequest, errorResponse{Message: "invalid reviewer id"})
		return
	}
	channelName := strconv.FormatUint(reviewer, 10)
	ch, err := impl.sseManager.Subscribe(channelName)
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, errorResponse{Message: http.StatusText(http.StatusServiceUnavailable)})
		return
	}
	defer impl.sseManager.Unsubscribe(channelName, ch)

	logger := impl.logger.With(slog.Uint64("reviewer", reviewer))
	logger.Debug("Subscribe preference events")
	defer logger.Debug("Unsubscribe preference events")

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")
	c.Status(http.StatusOK)
	c.Writer.Flush()

	ticker := time.NewTicker(keepAliveInterval)
	defer ticker.Stop()
	ctx := c.Request.Context()
	c.Stream(func(w io.Writer) bool {
		select {
		case <-ctx.Done():
			return false
		case event, ok := <-ch:
			if !ok {
				return false
			}
			c.SSEvent("preference", toPreferenceEvent(event))
			return true
		case <-ticker.C:
			c.SSEvent("ping", "")
			return true
		}
	})
}

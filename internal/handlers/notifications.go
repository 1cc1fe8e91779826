package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/ramonvasc/comunicahub/internal/feed"
	apperrors "github.com/ramonvasc/comunicahub/pkg/errors"
	"github.com/ramonvasc/comunicahub/pkg/response"
)

// NotificationHandler exposes the aggregated notification feed.
type NotificationHandler struct {
	aggregator *feed.Aggregator
	windowDays int
}

// NewNotificationHandler constructs a notification handler.
func NewNotificationHandler(aggregator *feed.Aggregator, windowDays int) (*NotificationHandler, error) {
	if aggregator == nil {
		return nil, errors.New("notification handler: aggregator is required")
	}
	return &NotificationHandler{aggregator: aggregator, windowDays: windowDays}, nil
}

// Feed returns the current notification feed, priority-ordered.
func (h *NotificationHandler) Feed(c *gin.Context) {
	windowDays := parseIntQuery(c, "window_days", h.windowDays)

	items, err := h.aggregator.Aggregate(c.Request.Context(), windowDays)
	if err != nil {
		if errors.Is(err, feed.ErrSuperseded) {
			response.Error(c, apperrors.New(
				"FEED_SUPERSEDED",
				"A newer feed request superseded this one",
				http.StatusConflict,
			))
			return
		}
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, items)
}

// MarkRead acknowledges one notification by composite id.
func (h *NotificationHandler) MarkRead(c *gin.Context) {
	id := strings.TrimSpace(c.Param("id"))

	if err := h.aggregator.MarkRead(c.Request.Context(), id); err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"read": true})
}

// MarkAllRead acknowledges every unread notification in the window.
func (h *NotificationHandler) MarkAllRead(c *gin.Context) {
	windowDays := parseIntQuery(c, "window_days", h.windowDays)

	marked, err := h.aggregator.MarkAllRead(c.Request.Context(), windowDays)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"marked": marked})
}

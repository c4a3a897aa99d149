// README: Notification inbox endpoints and device-token registration.
package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"uride/internal/identity"
	"uride/internal/modules/notify"
	"uride/internal/types"
)

type NotificationHandler struct {
	inbox  *notify.Inbox
	tokens *notify.DeviceTokens
}

func NewNotificationHandler(inbox *notify.Inbox, tokens *notify.DeviceTokens) *NotificationHandler {
	return &NotificationHandler{inbox: inbox, tokens: tokens}
}

func (h *NotificationHandler) List(c *gin.Context) {
	actor, err := identity.FromContext(c.Request.Context())
	if err != nil {
		writeError(c, http.StatusUnauthorized, err.Error())
		return
	}
	records, err := h.inbox.List(c.Request.Context(), actor.ID)
	if err != nil {
		writeError(c, http.StatusInternalServerError, "notification list failed")
		return
	}
	c.JSON(http.StatusOK, gin.H{"notifications": records})
}

func (h *NotificationHandler) UnreadCount(c *gin.Context) {
	actor, err := identity.FromContext(c.Request.Context())
	if err != nil {
		writeError(c, http.StatusUnauthorized, err.Error())
		return
	}
	count, err := h.inbox.UnreadCount(c.Request.Context(), actor.ID)
	if err != nil {
		writeError(c, http.StatusInternalServerError, "unread count failed")
		return
	}
	c.JSON(http.StatusOK, gin.H{"unread": count})
}

func (h *NotificationHandler) MarkRead(c *gin.Context) {
	actor, err := identity.FromContext(c.Request.Context())
	if err != nil {
		writeError(c, http.StatusUnauthorized, err.Error())
		return
	}
	id := types.ID(c.Param("id"))
	if err := h.inbox.MarkRead(c.Request.Context(), actor.ID, id); err != nil {
		if errors.Is(err, notify.ErrRecordNotFound) {
			writeError(c, http.StatusNotFound, err.Error())
			return
		}
		writeError(c, http.StatusInternalServerError, "mark read failed")
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *NotificationHandler) MarkAllRead(c *gin.Context) {
	actor, err := identity.FromContext(c.Request.Context())
	if err != nil {
		writeError(c, http.StatusUnauthorized, err.Error())
		return
	}
	if err := h.inbox.MarkAllRead(c.Request.Context(), actor.ID); err != nil {
		writeError(c, http.StatusInternalServerError, "mark all read failed")
		return
	}
	c.Status(http.StatusNoContent)
}

type deviceTokenPayload struct {
	Token string `json:"token" binding:"required"`
}

func (h *NotificationHandler) RegisterDevice(c *gin.Context) {
	actor, err := identity.FromContext(c.Request.Context())
	if err != nil {
		writeError(c, http.StatusUnauthorized, err.Error())
		return
	}
	if h.tokens == nil {
		writeError(c, http.StatusServiceUnavailable, "push delivery not configured")
		return
	}

	var req deviceTokenPayload
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, err.Error())
		return
	}
	if err := h.tokens.Save(c.Request.Context(), actor.ID, req.Token); err != nil {
		writeError(c, http.StatusInternalServerError, "device registration failed")
		return
	}
	c.Status(http.StatusNoContent)
}

package handler

import (
	"net/http"
	"time"

	"coaching-messenger/internal/services"
	"coaching-messenger/internal/transport/httpdto"

	"github.com/gin-gonic/gin"
)

type TypingHandler struct {
	service *services.TypingService
}

func NewTypingHandler(service *services.TypingService) *TypingHandler {
	return &TypingHandler{service: service}
}

func (h *TypingHandler) Start(c *gin.Context) {
	conversationID, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	ind, err := h.service.Start(c.Request.Context(), conversationID, userID)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, httpdto.NewSuccessResponse(httpdto.TypingStartedResponse{
		ExpiresAt: ind.ExpiresAt.UTC().Format(time.RFC3339Nano),
	}))
}

func (h *TypingHandler) Stop(c *gin.Context) {
	conversationID, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	if err := h.service.Stop(c.Request.Context(), conversationID, userID); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, httpdto.NewSuccessResponse[any](nil))
}

func (h *TypingHandler) List(c *gin.Context) {
	conversationID, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	users, err := h.service.ListActive(c.Request.Context(), conversationID, userID)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, httpdto.NewSuccessResponse(httpdto.TypingResponse{Users: httpdto.FromProfiles(users)}))
}

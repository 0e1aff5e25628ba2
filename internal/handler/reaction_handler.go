package handler

import (
	"net/http"

	"coaching-messenger/internal/services"
	"coaching-messenger/internal/transport/httpdto"

	"github.com/gin-gonic/gin"
)

type ReactionHandler struct {
	service *services.ReactionService
}

func NewReactionHandler(service *services.ReactionService) *ReactionHandler {
	return &ReactionHandler{service: service}
}

func (h *ReactionHandler) Add(c *gin.Context) {
	var req httpdto.ReactionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, bindError(err))
		return
	}
	messageID, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	r, err := h.service.Add(c.Request.Context(), messageID, userID, req.Emoji)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, httpdto.NewSuccessResponse(httpdto.FromReaction(r)))
}

// Remove takes the emoji from the body, or from the emoji query parameter for
// clients that cannot send a DELETE body.
func (h *ReactionHandler) Remove(c *gin.Context) {
	emoji := c.Query("emoji")
	if emoji == "" {
		var req httpdto.ReactionRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			fail(c, bindError(err))
			return
		}
		emoji = req.Emoji
	}
	messageID, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	if err := h.service.Remove(c.Request.Context(), messageID, userID, emoji); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, httpdto.NewSuccessResponse[any](nil))
}

func (h *ReactionHandler) List(c *gin.Context) {
	messageID, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	items, err := h.service.List(c.Request.Context(), messageID, userID)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, httpdto.NewSuccessResponse(gin.H{"reactions": httpdto.FromReactionSummaries(items)}))
}

package handler

import (
	"net/http"
	"strconv"

	"coaching-messenger/internal/commands"
	"coaching-messenger/internal/domain"
	"coaching-messenger/internal/domain/message"
	"coaching-messenger/internal/services"
	"coaching-messenger/internal/transport/httpdto"
	messenger_errors "coaching-messenger/pkg/errors"

	"github.com/gin-gonic/gin"
)

type MessageHandler struct {
	service     *services.MessageService
	attachments *services.AttachmentService
}

func NewMessageHandler(service *services.MessageService, attachments *services.AttachmentService) *MessageHandler {
	return &MessageHandler{service: service, attachments: attachments}
}

func (h *MessageHandler) Send(c *gin.Context) {
	var req httpdto.SendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, bindError(err))
		return
	}
	conversationID, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	replyTo, err := req.ParseReplyTo()
	if err != nil {
		fail(c, messenger_errors.Invalid("reply_to_id", "must be a uuid"))
		return
	}
	// system messages are server-authored
	if domain.MessageType(req.Type) == domain.MessageTypeSystem {
		fail(c, messenger_errors.Invalid("type", "system messages cannot be sent by clients"))
		return
	}

	msg, err := h.service.Send(c.Request.Context(), commands.SendMessageCommand{
		ConversationID:  conversationID,
		SenderID:        userID,
		Content:         req.Content,
		Type:            domain.MessageType(req.Type),
		ReplyToID:       replyTo,
		Attachments:     req.ToAttachmentInputs(),
		ClientMessageID: req.ClientMessageID,
	})
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, httpdto.NewSuccessResponse(httpdto.FromMessage(msg)))
}

func (h *MessageHandler) List(c *gin.Context) {
	var req httpdto.ListMessagesRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		fail(c, bindError(err))
		return
	}
	conversationID, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	before, err := req.ParseBefore()
	if err != nil {
		fail(c, messenger_errors.Invalid("before", "must be an RFC 3339 timestamp"))
		return
	}
	beforeID, err := req.ParseBeforeID()
	if err != nil {
		fail(c, messenger_errors.Invalid("before_id", "must be a uuid"))
		return
	}
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	items, err := h.service.Page(c.Request.Context(), conversationID, userID, message.PageOptions{
		Limit:    req.Limit,
		Before:   before,
		BeforeID: beforeID,
		Search:   req.Search,
	})
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, httpdto.NewSuccessResponse(httpdto.FromMessagePage(items, effectivePageLimit(req.Limit))))
}

func (h *MessageHandler) Count(c *gin.Context) {
	conversationID, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	n, err := h.service.CountMatching(c.Request.Context(), conversationID, userID, message.PageOptions{Search: c.Query("search")})
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, httpdto.NewSuccessResponse(httpdto.CountResponse{Count: n}))
}

func (h *MessageHandler) GetByID(c *gin.Context) {
	messageID, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	msg, err := h.service.Get(c.Request.Context(), messageID, userID)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, httpdto.NewSuccessResponse(httpdto.FromMessage(msg)))
}

// Attachments lists a message's attachments; verify=true also checks the
// object store for each stored file.
func (h *MessageHandler) Attachments(c *gin.Context) {
	messageID, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	verify := false
	if raw := c.Query("verify"); raw != "" {
		v, err := strconv.ParseBool(raw)
		if err != nil {
			fail(c, messenger_errors.Invalid("verify", "must be a boolean"))
			return
		}
		verify = v
	}
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	if verify {
		statuses, err := h.attachments.Verify(c.Request.Context(), messageID, userID)
		if err != nil {
			fail(c, err)
			return
		}
		c.JSON(http.StatusOK, httpdto.NewSuccessResponse(gin.H{"attachments": httpdto.FromAttachmentStatuses(statuses)}))
		return
	}

	items, err := h.attachments.List(c.Request.Context(), messageID, userID)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, httpdto.NewSuccessResponse(gin.H{"attachments": httpdto.FromAttachments(items)}))
}

func effectivePageLimit(limit int) int {
	switch {
	case limit == 0:
		return services.DefaultPageLimit
	case limit > services.MaxPageLimit:
		return services.MaxPageLimit
	}
	return limit
}

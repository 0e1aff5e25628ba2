package handler

import (
	"net/http"

	"coaching-messenger/internal/commands"
	"coaching-messenger/internal/domain/conversation"
	"coaching-messenger/internal/services"
	"coaching-messenger/internal/transport/httpdto"
	messenger_errors "coaching-messenger/pkg/errors"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type ConversationHandler struct {
	service *services.ConversationService
	reads   *services.ReadService
}

func NewConversationHandler(service *services.ConversationService, reads *services.ReadService) *ConversationHandler {
	return &ConversationHandler{service: service, reads: reads}
}

func (h *ConversationHandler) CreateDirect(c *gin.Context) {
	var req httpdto.CreateDirectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, bindError(err))
		return
	}
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	otherID, err := uuid.Parse(req.UserID)
	if err != nil {
		fail(c, messenger_errors.Invalid("user_id", "must be a uuid"))
		return
	}

	convID, err := h.service.GetOrCreateDirect(c.Request.Context(), userID, otherID)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, httpdto.NewSuccessResponse(httpdto.DirectConversationResponse{ConversationID: convID.String()}))
}

func (h *ConversationHandler) CreateGroup(c *gin.Context) {
	var req httpdto.CreateGroupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, bindError(err))
		return
	}
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	members, err := parseUUIDs("member_ids", req.MemberIDs)
	if err != nil {
		fail(c, err)
		return
	}

	conv, err := h.service.CreateGroup(c.Request.Context(), commands.CreateGroupCommand{
		CreatorID: userID,
		Title:     req.Title,
		MemberIDs: members,
	})
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, httpdto.NewSuccessResponse(httpdto.FromConversation(conv)))
}

func (h *ConversationHandler) List(c *gin.Context) {
	var req httpdto.ListConversationsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		fail(c, bindError(err))
		return
	}
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	items, err := h.service.ListForUser(c.Request.Context(), userID, conversation.ListOptions{
		Limit:           req.Limit,
		Offset:          req.Offset,
		Search:          req.Search,
		IncludeArchived: req.IncludeArchived,
	})
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, httpdto.NewSuccessResponse(httpdto.ListConversationsResponse{
		Conversations: httpdto.FromSummarySlice(items),
	}))
}

func (h *ConversationHandler) GetByID(c *gin.Context) {
	conversationID, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	item, err := h.service.Get(c.Request.Context(), conversationID, userID)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, httpdto.NewSuccessResponse(httpdto.FromSummary(item)))
}

func (h *ConversationHandler) Update(c *gin.Context) {
	var req httpdto.UpdateConversationRequest
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

	conv, err := h.service.UpdateConversationMetadata(c.Request.Context(), conversationID, userID, conversation.MetadataUpdate{Title: req.Title})
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, httpdto.NewSuccessResponse(httpdto.FromConversation(conv)))
}

func (h *ConversationHandler) UpdateSettings(c *gin.Context) {
	var req httpdto.UpdateSettingsRequest
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

	update := conversation.SettingsUpdate{Archived: req.Archived, Muted: req.Muted}
	if err := h.service.UpdateParticipantSettings(c.Request.Context(), conversationID, userID, update); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, httpdto.NewSuccessResponse[any](nil))
}

func (h *ConversationHandler) AddParticipant(c *gin.Context) {
	var req httpdto.AddParticipantRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, bindError(err))
		return
	}
	conversationID, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	actorID, ok := currentUser(c)
	if !ok {
		return
	}
	userID, err := uuid.Parse(req.UserID)
	if err != nil {
		fail(c, messenger_errors.Invalid("user_id", "must be a uuid"))
		return
	}

	p, err := h.service.AddParticipant(c.Request.Context(), conversationID, actorID, userID)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, httpdto.NewSuccessResponse(httpdto.FromParticipant(p)))
}

func (h *ConversationHandler) Leave(c *gin.Context) {
	conversationID, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	if err := h.service.Leave(c.Request.Context(), conversationID, userID); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, httpdto.NewSuccessResponse[any](nil))
}

func (h *ConversationHandler) MarkRead(c *gin.Context) {
	conversationID, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	if err := h.reads.MarkRead(c.Request.Context(), conversationID, userID); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, httpdto.NewSuccessResponse[any](nil))
}

func (h *ConversationHandler) Unread(c *gin.Context) {
	conversationID, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	n, err := h.reads.UnreadCount(c.Request.Context(), conversationID, userID)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, httpdto.NewSuccessResponse(httpdto.UnreadResponse{UnreadCount: n}))
}

func (h *ConversationHandler) TotalUnread(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	n, err := h.reads.TotalUnread(c.Request.Context(), userID)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, httpdto.NewSuccessResponse(httpdto.UnreadResponse{UnreadCount: n}))
}

package websocket

import (
	"net/http"
	"strings"

	"coaching-messenger/internal/events"
	"coaching-messenger/internal/transport/httpdto"
	"coaching-messenger/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// TokenVerifier is satisfied by services.AuthService.
type TokenVerifier interface {
	Authenticate(token string) (uuid.UUID, error)
}

type Handler struct {
	auth       TokenVerifier
	authorizer *ChannelAuthorizer
	hub        *Hub
	upgrader   websocket.Upgrader
	log        *logger.Logger
}

// NewHandler builds the stream endpoint. origins limits the Origin header; an
// empty list or "*" allows any origin.
func NewHandler(auth TokenVerifier, authorizer *ChannelAuthorizer, hub *Hub, origins []string, log *logger.Logger) *Handler {
	if log == nil {
		log = logger.NewNop()
	}
	return &Handler{
		auth:       auth,
		authorizer: authorizer,
		hub:        hub,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     originChecker(origins),
		},
		log: log,
	}
}

// Connect upgrades the request and streams the caller's user channel plus,
// when conversation_id is given, that conversation's channel. Browsers cannot
// set headers on a WebSocket handshake, so the token comes in the query.
func (h *Handler) Connect(c *gin.Context) {
	userID, err := h.auth.Authenticate(c.Query("token"))
	if err != nil {
		c.JSON(http.StatusUnauthorized, httpdto.NewErrorResponse("unauthorized", "UNAUTHORIZED"))
		return
	}

	channels := []string{events.UserChannel(userID.String())}
	if raw := c.Query("conversation_id"); raw != "" {
		convID, err := uuid.Parse(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, httpdto.NewErrorResponse("invalid conversation_id", "INVALID_REQUEST"))
			return
		}
		channel := events.ConversationChannel(convID.String())
		allowed, err := h.authorizer.CanSubscribe(c.Request.Context(), userID, channel)
		if err != nil {
			c.JSON(http.StatusServiceUnavailable, httpdto.NewErrorResponse("membership check failed", "UNAVAILABLE"))
			return
		}
		if !allowed {
			c.JSON(http.StatusForbidden, httpdto.NewErrorResponse("not a participant", "FORBIDDEN"))
			return
		}
		channels = append(channels, channel)
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		// Upgrade already wrote the HTTP error
		return
	}

	client := NewClient(conn, userID)
	h.hub.Register(client)
	for _, ch := range channels {
		h.hub.Subscribe(client, ch)
	}
	l := h.log.WithContext(c.Request.Context()).With(zap.String("client_id", client.ID))
	l.Debug("websocket connected", zap.Strings("channels", channels))

	go client.WriteLoop(c.Request.Context())
	client.ReadLoop()

	h.hub.Unregister(client)
	l.Debug("websocket disconnected")
}

func originChecker(origins []string) func(r *http.Request) bool {
	allowAll := len(origins) == 0
	allowed := make(map[string]bool, len(origins))
	for _, o := range origins {
		if o == "*" {
			allowAll = true
		}
		allowed[strings.TrimSuffix(o, "/")] = true
	}
	return func(r *http.Request) bool {
		if allowAll {
			return true
		}
		origin := r.Header.Get("Origin")
		return origin == "" || allowed[origin]
	}
}

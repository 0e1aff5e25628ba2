package handler

import (
	"strings"

	"coaching-messenger/internal/services"
	messenger_errors "coaching-messenger/pkg/errors"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// Handlers record failures with c.Error; middleware.ErrorHandler writes the
// response.

func fail(c *gin.Context, err error) {
	_ = c.Error(err)
	c.Abort()
}

func currentUser(c *gin.Context) (uuid.UUID, bool) {
	userID, ok := services.UserIDFromContext(c.Request.Context())
	if !ok {
		fail(c, messenger_errors.ErrUnauthorized)
		return uuid.Nil, false
	}
	return userID, true
}

func pathUUID(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		fail(c, messenger_errors.Invalid(name, "must be a uuid"))
		return uuid.Nil, false
	}
	return id, true
}

func parseUUIDs(field string, values []string) ([]uuid.UUID, error) {
	out := make([]uuid.UUID, 0, len(values))
	for _, v := range values {
		id, err := uuid.Parse(strings.TrimSpace(v))
		if err != nil {
			return nil, messenger_errors.Invalid(field, "contains an invalid id")
		}
		out = append(out, id)
	}
	return out, nil
}

func bindError(err error) error {
	return messenger_errors.Invalid("body", err.Error())
}

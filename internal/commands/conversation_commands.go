package commands

import (
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"

	messenger_errors "coaching-messenger/pkg/errors"
)

const (
	MaxTitleRunes   = 120
	MaxGroupMembers = 50
)

type CreateGroupCommand struct {
	CreatorID uuid.UUID
	Title     string
	MemberIDs []uuid.UUID
}

func (CreateGroupCommand) CommandType() string {
	return "conversation.create_group"
}

// Validate trims the title and drops duplicate members and the creator from
// MemberIDs.
func (c *CreateGroupCommand) Validate() error {
	if c.CreatorID == uuid.Nil {
		return messenger_errors.Invalid("creator_id", "is required")
	}
	title, err := NormalizeTitle(c.Title)
	if err != nil {
		return err
	}
	c.Title = title

	seen := map[uuid.UUID]bool{c.CreatorID: true}
	members := make([]uuid.UUID, 0, len(c.MemberIDs))
	for _, id := range c.MemberIDs {
		if id == uuid.Nil {
			return messenger_errors.Invalid("member_ids", "contains an invalid id")
		}
		if seen[id] {
			continue
		}
		seen[id] = true
		members = append(members, id)
	}
	if len(members) == 0 {
		return messenger_errors.Invalid("member_ids", "needs at least one other member")
	}
	if len(members) > MaxGroupMembers {
		return messenger_errors.Invalid("member_ids", "too many members")
	}
	c.MemberIDs = members
	return nil
}

func (c CreateGroupCommand) IdempotencyKey() string {
	return ""
}

// NormalizeTitle trims a conversation title and enforces its length.
func NormalizeTitle(title string) (string, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return "", messenger_errors.Invalid("title", "is required")
	}
	if utf8.RuneCountInString(title) > MaxTitleRunes {
		return "", messenger_errors.Invalid("title", "is too long")
	}
	return title, nil
}

package commands

import (
	"unicode"
	"unicode/utf8"

	messenger_errors "coaching-messenger/pkg/errors"
)

const MaxEmojiRunes = 16

// ValidateEmoji accepts a short token without whitespace or control runes.
// Multi-rune sequences such as skin tones and ZWJ families are allowed.
func ValidateEmoji(emoji string) error {
	if emoji == "" {
		return messenger_errors.Invalid("emoji", "is required")
	}
	if !utf8.ValidString(emoji) {
		return messenger_errors.Invalid("emoji", "is not valid utf-8")
	}
	if utf8.RuneCountInString(emoji) > MaxEmojiRunes {
		return messenger_errors.Invalid("emoji", "is too long")
	}
	for _, r := range emoji {
		if unicode.IsSpace(r) || unicode.IsControl(r) {
			return messenger_errors.Invalid("emoji", "contains whitespace or control characters")
		}
	}
	return nil
}

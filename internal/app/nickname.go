package app

import (
	_ "embed"
	"encoding/json"
	"strings"

	"iq-quiz-service/internal/domain"
)

//go:embed badwords.json
var badWordsJSON []byte

const maxNicknameLength = 20

// NicknameValidator rejects empty, oversized, or offensive nicknames.
// The word list is embedded at build time; matching is case-insensitive
// substring containment.
type NicknameValidator struct {
	badWords []string
}

func NewNicknameValidator() (*NicknameValidator, error) {
	var words []string
	if err := json.Unmarshal(badWordsJSON, &words); err != nil {
		return nil, err
	}
	for i, w := range words {
		words[i] = strings.ToLower(w)
	}
	return &NicknameValidator{badWords: words}, nil
}

// Validate returns a domain.ErrValidation-wrapped error describing the
// first problem found, or nil.
func (v *NicknameValidator) Validate(nickname string) error {
	trimmed := strings.TrimSpace(nickname)
	if trimmed == "" {
		return domain.Validationf("nickname is required")
	}
	if len([]rune(trimmed)) > maxNicknameLength {
		return domain.Validationf("nickname must be at most %d characters", maxNicknameLength)
	}
	lower := strings.ToLower(trimmed)
	for _, w := range v.badWords {
		if strings.Contains(lower, w) {
			return domain.Validationf("nickname contains a blocked word")
		}
	}
	return nil
}

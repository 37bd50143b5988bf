package ai

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/jingxin-guardian/internal/domain"
)

// DefaultValidator rejects empty or undecodable model text.
type DefaultValidator struct {
	maxLength int
}

// NewDefaultValidator creates a new response validator. maxLength <= 0
// disables the length check.
func NewDefaultValidator(maxLength int) *DefaultValidator {
	return &DefaultValidator{maxLength: maxLength}
}

// Validate checks that the model returned displayable text.
func (v *DefaultValidator) Validate(text string) error {
	if strings.TrimSpace(text) == "" {
		return fmt.Errorf("%w: empty content", domain.ErrMalformedResponse)
	}

	if !utf8.ValidString(text) {
		return fmt.Errorf("%w: content is not valid UTF-8", domain.ErrMalformedResponse)
	}

	if v.maxLength > 0 && len(text) > v.maxLength {
		return fmt.Errorf("%w: content exceeds %d bytes", domain.ErrMalformedResponse, v.maxLength)
	}

	return nil
}

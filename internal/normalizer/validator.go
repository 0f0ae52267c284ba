package normalizer

import (
	"errors"
	"strings"

	"nhkeasy/internal/models"
)

// Validation errors.
var (
	ErrMissingNewsID = errors.New("catalog entry missing news_id")
	ErrInvalidNewsID = errors.New("news_id contains characters not allowed in a URL path")
)

// Validator checks catalog entries before they are fetched.
type Validator struct{}

// NewValidator creates a new validator instance.
func NewValidator() *Validator {
	return &Validator{}
}

// Validate checks that meta carries an identifier usable in the article URL.
func (v *Validator) Validate(meta models.ArticleMeta) error {
	if meta.NewsID == "" {
		return ErrMissingNewsID
	}

	if strings.ContainsAny(meta.NewsID, "/?#%\\ \t\r\n") {
		return ErrInvalidNewsID
	}

	return nil
}

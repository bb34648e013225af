package features

import (
	"fmt"
	"strings"

	"github.com/preppal/backend/internal/contracts"
)

// Encoders holds the categorical vocabularies fixed at training time.
// Category and business codes are positions within the sorted vocabulary;
// the same encoders must be used verbatim at inference time.
type Encoders struct {
	Categories []contracts.Category     `json:"categories"`
	Businesses []contracts.BusinessType `json:"businesses"`
}

// NewEncoders builds encoders over the closed vocabularies.
func NewEncoders() Encoders {
	return Encoders{
		Categories: contracts.Categories(),
		Businesses: contracts.BusinessTypes(),
	}
}

// EncodeCategory returns the fixed integer code for a category.
func (e Encoders) EncodeCategory(c contracts.Category) (float64, error) {
	for i, v := range e.Categories {
		if v == c {
			return float64(i), nil
		}
	}
	return 0, fmt.Errorf("%w: unknown category %q", contracts.ErrSchemaMismatch, c)
}

// EncodeBusiness returns the fixed integer code for a business type.
func (e Encoders) EncodeBusiness(b contracts.BusinessType) (float64, error) {
	for i, v := range e.Businesses {
		if v == b {
			return float64(i), nil
		}
	}
	return 0, fmt.Errorf("%w: unknown business type %q", contracts.ErrSchemaMismatch, b)
}

// Fingerprint is a stable textual identity of the vocabularies, stored in
// model artifacts and compared on load.
func (e Encoders) Fingerprint() string {
	var sb strings.Builder
	for _, c := range e.Categories {
		sb.WriteString(string(c))
		sb.WriteByte('|')
	}
	sb.WriteByte(';')
	for _, b := range e.Businesses {
		sb.WriteString(string(b))
		sb.WriteByte('|')
	}
	return sb.String()
}

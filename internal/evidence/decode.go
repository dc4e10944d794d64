package evidence

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/mikey/spam-evidence-engine/internal/core"
)

// ErrMalformedRecord is returned for payloads that are not a canonical email record
var ErrMalformedRecord = errors.New("malformed email record")

// Decoder parses and validates queue payloads
type Decoder struct {
	validate *validator.Validate
}

// NewDecoder creates a new record decoder
func NewDecoder(validate *validator.Validate) *Decoder {
	if validate == nil {
		validate = validator.New()
	}
	return &Decoder{validate: validate}
}

// Decode parses a JSON payload into a record
func (d *Decoder) Decode(payload []byte) (*core.EmailRecord, error) {
	var record core.EmailRecord
	if err := json.Unmarshal(payload, &record); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedRecord, err)
	}
	if err := d.Validate(&record); err != nil {
		return nil, err
	}
	return &record, nil
}

// Validate checks the required structure of a record
func (d *Decoder) Validate(record *core.EmailRecord) error {
	if err := d.validate.Struct(record); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedRecord, err)
	}
	return nil
}

package schema

import (
	"errors"
	"fmt"
)

// ErrSchemaViolation is the kind of every *Violation.
var ErrSchemaViolation = errors.New("schema violation")

// Violation describes a rejected write.
type Violation struct {
	Field  string
	Reason string
}

func (v *Violation) Error() string {
	return fmt.Sprintf("schema violation: %s: %s", v.Field, v.Reason)
}

// Is lets errors.Is match ErrSchemaViolation.
func (v *Violation) Is(target error) bool { return target == ErrSchemaViolation }

func violation(field, reason string) error {
	return &Violation{Field: field, Reason: reason}
}

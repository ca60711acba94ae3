package world

import (
	"errors"
	"fmt"

	"gopkg.in/yaml.v3"
)

// Sentinel errors for the load pass fault taxonomy. Every fault below the
// root directory is recovered locally; these exist so diagnostics and tests
// can classify what was skipped.
var (
	// ErrMissingManifest marks an area directory with no manifest file.
	ErrMissingManifest = errors.New("area manifest not found")
	// ErrMissingField marks a room record missing a required field.
	ErrMissingField = errors.New("missing required field")
	// ErrMissingTitle marks an area record without a title.
	ErrMissingTitle = errors.New("area record has no title")
)

// requiredRoomFields are the keys a room record must carry to be loadable.
var requiredRoomFields = []string{"title", "description", "location"}

// FieldError reports the first required field missing from a room record.
type FieldError struct {
	Field string
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("missing required field %q", e.Field)
}

func (e *FieldError) Unwrap() error { return ErrMissingField }

// ValidateRoomRecord checks a parsed room record against the minimal
// required-field contract: title, description, and location must be present.
// Field values are not type-checked here; a malformed value surfaces when the
// field is read. Validation stops at the first missing field.
//
// Postcondition: Returns nil if all required keys are present, or a
// *FieldError naming the first missing one.
func ValidateRoomRecord(rec *yaml.Node) error {
	for _, field := range requiredRoomFields {
		if !hasMappingKey(rec, field) {
			return &FieldError{Field: field}
		}
	}
	return nil
}

// hasMappingKey reports whether node is a mapping containing key.
func hasMappingKey(node *yaml.Node, key string) bool {
	if node == nil || node.Kind != yaml.MappingNode {
		return false
	}
	for i := 0; i+1 < len(node.Content); i += 2 {
		if node.Content[i].Value == key {
			return true
		}
	}
	return false
}

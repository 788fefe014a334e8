package enums

import (
	"fmt"
	"strings"
)

// DesignValidationState is derived from the validation columns on a design.
type DesignValidationState string

const (
	DesignStatePending   DesignValidationState = "pending"
	DesignStateValidated DesignValidationState = "validated"
	DesignStateRejected  DesignValidationState = "rejected"
	DesignStateInvalid   DesignValidationState = "invalid"
)

func (s DesignValidationState) String() string {
	return string(s)
}

// ValidationAction is the admin decision on a pending design.
type ValidationAction string

const (
	ValidationActionValidate ValidationAction = "VALIDATE"
	ValidationActionReject   ValidationAction = "REJECT"
)

var validValidationActions = []ValidationAction{
	ValidationActionValidate,
	ValidationActionReject,
}

func (a ValidationAction) String() string {
	return string(a)
}

// IsValid reports whether the value matches a known action.
func (a ValidationAction) IsValid() bool {
	for _, candidate := range validValidationActions {
		if candidate == a {
			return true
		}
	}
	return false
}

// ParseValidationAction accepts the action in any case.
func ParseValidationAction(value string) (ValidationAction, error) {
	normalized := ValidationAction(strings.ToUpper(strings.TrimSpace(value)))
	if normalized.IsValid() {
		return normalized, nil
	}
	return "", fmt.Errorf("invalid validation action %q", value)
}

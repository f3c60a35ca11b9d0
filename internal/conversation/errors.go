package conversation

import (
	"errors"
	"fmt"

	"github.com/m3rciful/shopbot/internal/i18n"
)

var (
	// ErrInvalidInput marks user input that failed validation.
	ErrInvalidInput = errors.New("conversation: invalid input")
	// ErrUnauthorized marks an admin-only action attempted by another user.
	ErrUnauthorized = errors.New("conversation: unauthorized")
)

// InputError is an ErrInvalidInput carrying the message to show the user.
type InputError struct {
	Key i18n.Key
}

func (e *InputError) Error() string {
	return fmt.Sprintf("%v: %s", ErrInvalidInput, e.Key)
}

func (e *InputError) Unwrap() error {
	return ErrInvalidInput
}

func invalid(key i18n.Key) error {
	return &InputError{Key: key}
}

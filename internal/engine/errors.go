// Error taxonomy for the round engine. Validation errors are recoverable and
// surfaced to the submitting player; the remaining sentinels are caller errors
// that leave game state untouched.
package engine

import (
	"errors"
	"fmt"
)

// ValidationCode identifies why a decision was rejected.
type ValidationCode string

const (
	CodeOutOfRange       ValidationCode = "out_of_range"
	CodePriceOutOfBand   ValidationCode = "price_out_of_band"
	CodeRepayExceedsDebt ValidationCode = "repay_exceeds_debt"
	CodeNegativeValue    ValidationCode = "negative_value"
	CodeUnknownCity      ValidationCode = "unknown_city"
)

// ValidationError rejects a submitted decision. Game state is unchanged.
type ValidationError struct {
	Code  ValidationCode
	Field string
	Msg   string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid decision: %s (%s): %s", e.Field, e.Code, e.Msg)
}

// AsValidation unwraps err into a *ValidationError if it is one.
func AsValidation(err error) (*ValidationError, bool) {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve, true
	}
	return nil, false
}

var (
	// ErrAuth is returned on a failed credential check.
	ErrAuth = errors.New("invalid player id or password")

	// ErrInsufficientData is returned when advance is called with no players
	// or no markets configured.
	ErrInsufficientData = errors.New("no players or markets configured")

	// ErrGameOver is returned once the final round has been resolved.
	ErrGameOver = errors.New("game is over")

	// ErrUnknownPlayer is returned for a player id outside the roster.
	ErrUnknownPlayer = errors.New("unknown player")
)

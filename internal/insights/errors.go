package insights

import (
	"errors"
	"fmt"
)

// ErrIncomeNotSet is returned by recommendation flows when the profile has
// no monthly income to plan against.
var ErrIncomeNotSet = errors.New("monthly income is not set")

// ErrUnparsed is returned by Reply.Decode when the reply carried no JSON object.
var ErrUnparsed = errors.New("no JSON object in model reply")

// GenerationParseError reports a model reply that a recommendation-class
// flow could not turn into its result type.
type GenerationParseError struct {
	Flow    string
	Message string
	Raw     string
	Err     error
}

func (e *GenerationParseError) Error() string {
	return fmt.Sprintf("%s: %s: %v", e.Flow, e.Message, e.Err)
}

func (e *GenerationParseError) Unwrap() error {
	return e.Err
}

// ErrGenerationDisabled is returned by DisabledGenerator.
var ErrGenerationDisabled = errors.New("text generation is not configured")

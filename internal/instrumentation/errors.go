package instrumentation

import "fmt"

// RedefinitionReason discriminates why a Port.Redefine call failed.
type RedefinitionReason string

const (
	UnsupportedChange  RedefinitionReason = "UnsupportedChange"
	VerificationFailed RedefinitionReason = "VerificationFailed"
	ClassNotFound      RedefinitionReason = "ClassNotFound"
	PlatformError      RedefinitionReason = "PlatformError"
)

// RedefinitionError is the error type every Port implementation returns
// from Redefine. Detail carries the platform's verbatim message for
// PlatformError; it is empty for the other reasons, which are self-
// describing.
type RedefinitionError struct {
	Reason RedefinitionReason
	Detail string
}

func (e *RedefinitionError) Error() string {
	if e.Detail == "" {
		return string(e.Reason)
	}
	return fmt.Sprintf("%s: %s", e.Reason, e.Detail)
}

// NewPlatformError builds a RedefinitionError with reason PlatformError and
// the platform's verbatim detail message, e.g. "timeout" when the
// redefinition deadline expired.
func NewPlatformError(detail string) *RedefinitionError {
	return &RedefinitionError{Reason: PlatformError, Detail: detail}
}

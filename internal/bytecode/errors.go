package bytecode

import "fmt"

// ParseError reports a failure to decode a class artifact's bytes into
// ClassMetadata. It carries the byte offset where decoding failed so a
// caller building a bug-report snapshot can point at the exact byte.
type ParseError struct {
	Offset int
	Reason string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("bytecode: parse error at offset %d: %s", e.Offset, e.Reason)
}

func parseErrorf(offset int, format string, args ...any) *ParseError {
	return &ParseError{Offset: offset, Reason: fmt.Sprintf(format, args...)}
}

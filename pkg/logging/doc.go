// Package logging is ByteHot's thin structured-logging wrapper over
// log/slog, used by every other package instead of calling slog directly.
package logging

package eventlog

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"os"

	"github.com/rydnr/bytehot/internal/events"
)

// Writer appends length-prefixed event records to an underlying io.Writer.
// Each record is a 4-byte big-endian length followed by the payload from
// EncodeRecord. A Writer is safe for use by a single Log; it does not
// serialize concurrent callers itself.
type Writer struct {
	w io.Writer
	f *os.File // non-nil when the Writer owns the file, for Close/Sync
}

// OpenFile opens (creating if necessary) an append-only event-log file at
// path and returns a Writer over it. The caller must Close it on shutdown.
func OpenFile(path string) (*Writer, error) {
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("eventlog: open %s: %w", path, err)
	}
	return &Writer{w: bufio.NewWriter(f), f: f}, nil
}

// NewWriter wraps an arbitrary io.Writer, useful for tests and for writing
// to something other than a plain file (e.g. an in-memory buffer).
func NewWriter(w io.Writer) *Writer {
	return &Writer{w: w}
}

// Write encodes e and appends it as one length-prefixed record.
func (wr *Writer) Write(e events.Event) error {
	payload, err := EncodeRecord(e)
	if err != nil {
		return err
	}
	var lenPrefix [4]byte
	binary.BigEndian.PutUint32(lenPrefix[:], uint32(len(payload)))
	if _, err := wr.w.Write(lenPrefix[:]); err != nil {
		return fmt.Errorf("eventlog: write length prefix: %w", err)
	}
	if _, err := wr.w.Write(payload); err != nil {
		return fmt.Errorf("eventlog: write payload: %w", err)
	}
	if bw, ok := wr.w.(*bufio.Writer); ok {
		if err := bw.Flush(); err != nil {
			return fmt.Errorf("eventlog: flush: %w", err)
		}
	}
	return nil
}

// Close flushes and closes the underlying file, if the Writer owns one.
func (wr *Writer) Close() error {
	if wr.f == nil {
		return nil
	}
	return wr.f.Close()
}

// Reader sequentially decodes length-prefixed event records written by a
// Writer. It is used by `bytehot replay` to reconstruct an Event Log from
// disk and by tests that round-trip a Log through persistence.
type Reader struct {
	r io.Reader
}

// OpenReadFile opens path for replay. The caller must Close the returned
// Reader's underlying file via the *os.File it gets back, or use
// ReadAllFromFile which closes it automatically.
func OpenReadFile(path string) (*Reader, *os.File, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("eventlog: open %s: %w", path, err)
	}
	return &Reader{r: bufio.NewReader(f)}, f, nil
}

// NewReader wraps an arbitrary io.Reader of length-prefixed records.
func NewReader(r io.Reader) *Reader {
	return &Reader{r: r}
}

// Next decodes the next record, or returns io.EOF when the stream is
// exhausted cleanly between records.
func (rd *Reader) Next() (events.Event, error) {
	var lenPrefix [4]byte
	if _, err := io.ReadFull(rd.r, lenPrefix[:]); err != nil {
		if err == io.ErrUnexpectedEOF {
			return nil, fmt.Errorf("eventlog: truncated length prefix: %w", err)
		}
		return nil, err
	}
	n := binary.BigEndian.Uint32(lenPrefix[:])
	payload := make([]byte, n)
	if _, err := io.ReadFull(rd.r, payload); err != nil {
		return nil, fmt.Errorf("eventlog: truncated record body: %w", err)
	}
	return DecodeRecord(payload)
}

// ReadAllFromFile opens path, decodes every record in order, and closes the
// file before returning. A truncated final record (a partially-written
// trailing record from a crash mid-append) is reported via err rather than
// silently dropped, so callers can decide whether to tolerate it.
func ReadAllFromFile(path string) ([]events.Event, error) {
	rd, f, err := OpenReadFile(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var out []events.Event
	for {
		e, err := rd.Next()
		if err == io.EOF {
			return out, nil
		}
		if err != nil {
			return out, err
		}
		out = append(out, e)
	}
}

package eventlog

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"time"

	"github.com/rydnr/bytehot/internal/events"
)

// tag identifies which Event variant a persisted record holds. Values are
// stable across minor versions: appending a new variant only ever adds a
// new tag, never renumbers an existing one.
type tag byte

const (
	tagClassFileChanged           tag = 1
	tagClassMetadataExtracted     tag = 2
	tagBytecodeValidated          tag = 3
	tagBytecodeRejected           tag = 4
	tagHotSwapRequested           tag = 5
	tagClassRedefinitionSucceeded tag = 6
	tagClassRedefinitionFailed    tag = 7
	tagInstancesUpdated           tag = 8
	tagWatchOverflow              tag = 9
)

// EncodeRecord serializes an Event into a self-describing payload: a type
// tag followed by its fields in declared order.
// It does not include the outer 4-byte length prefix; that is added by
// Writer when framing records on disk.
func EncodeRecord(e events.Event) ([]byte, error) {
	var buf bytes.Buffer
	env := e.Env()

	var t tag
	switch ev := e.(type) {
	case events.ClassFileChanged:
		t = tagClassFileChanged
		writeEnvelope(&buf, env)
		writeString(&buf, ev.Path)
		writeString(&buf, ev.ClassName)
		writeInt64(&buf, ev.Size)
	case events.ClassMetadataExtracted:
		t = tagClassMetadataExtracted
		writeEnvelope(&buf, env)
		writeString(&buf, ev.Path)
		writeString(&buf, ev.Name)
		writeString(&buf, ev.Super)
		writeStringSlice(&buf, ev.Interfaces)
		writeUint32(&buf, uint32(len(ev.Fields)))
		for _, f := range ev.Fields {
			writeString(&buf, f.Name)
			writeString(&buf, f.Descriptor)
		}
		writeUint32(&buf, uint32(len(ev.Methods)))
		for _, m := range ev.Methods {
			writeString(&buf, m.Name)
			writeString(&buf, m.Descriptor)
		}
	case events.BytecodeValidated:
		t = tagBytecodeValidated
		writeEnvelope(&buf, env)
		writeString(&buf, ev.Path)
		writeString(&buf, ev.Name)
		writeBool(&buf, ev.Safe)
		writeString(&buf, ev.Detail)
	case events.BytecodeRejected:
		t = tagBytecodeRejected
		writeEnvelope(&buf, env)
		writeString(&buf, ev.Path)
		writeString(&buf, ev.Name)
		writeString(&buf, ev.Detail)
	case events.HotSwapRequested:
		t = tagHotSwapRequested
		writeEnvelope(&buf, env)
		writeString(&buf, ev.Path)
		writeString(&buf, ev.Name)
		writeBytes(&buf, ev.Original)
		writeBytes(&buf, ev.New)
		writeString(&buf, ev.Reason)
	case events.ClassRedefinitionSucceeded:
		t = tagClassRedefinitionSucceeded
		writeEnvelope(&buf, env)
		writeString(&buf, ev.Name)
		writeString(&buf, ev.Path)
		writeUint32(&buf, uint32(ev.AffectedInstances))
		writeString(&buf, ev.Detail)
		writeInt64(&buf, int64(ev.Duration))
	case events.ClassRedefinitionFailed:
		t = tagClassRedefinitionFailed
		writeEnvelope(&buf, env)
		writeString(&buf, ev.Name)
		writeString(&buf, ev.Path)
		writeString(&buf, ev.Reason)
		writeString(&buf, ev.PlatformError)
		writeString(&buf, ev.RecoveryHint)
	case events.InstancesUpdated:
		t = tagInstancesUpdated
		writeEnvelope(&buf, env)
		writeString(&buf, ev.ClassName)
		writeString(&buf, ev.Method)
		writeUint32(&buf, uint32(ev.Updated))
		writeUint32(&buf, uint32(ev.Total))
		writeUint32(&buf, uint32(ev.Failed))
		writeInt64(&buf, int64(ev.Duration))
		writeString(&buf, ev.Detail)
	case events.WatchOverflow:
		t = tagWatchOverflow
		writeEnvelope(&buf, env)
		writeString(&buf, ev.Path)
	default:
		return nil, fmt.Errorf("eventlog: unknown event variant %T", e)
	}

	out := make([]byte, 0, buf.Len()+1)
	out = append(out, byte(t))
	out = append(out, buf.Bytes()...)
	return out, nil
}

// DecodeRecord deserializes a payload produced by EncodeRecord. Decoding
// the result of encoding any DomainEvent yields a value equal to the
// original.
func DecodeRecord(data []byte) (events.Event, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("eventlog: empty record")
	}
	r := bytes.NewReader(data[1:])
	t := tag(data[0])

	env, err := readEnvelope(r)
	if err != nil {
		return nil, err
	}

	switch t {
	case tagClassFileChanged:
		path, err1 := readString(r)
		name, err2 := readString(r)
		size, err3 := readInt64(r)
		if err := firstErr(err1, err2, err3); err != nil {
			return nil, err
		}
		return events.ClassFileChanged{Envelope: env, Path: path, ClassName: name, Size: size}, nil

	case tagClassMetadataExtracted:
		path, _ := readString(r)
		name, _ := readString(r)
		super, _ := readString(r)
		interfaces, err := readStringSlice(r)
		if err != nil {
			return nil, err
		}
		fieldCount, err := readUint32(r)
		if err != nil {
			return nil, err
		}
		fields := make([]events.FieldDescriptor, fieldCount)
		for i := range fields {
			fields[i].Name, _ = readString(r)
			fields[i].Descriptor, _ = readString(r)
		}
		methodCount, err := readUint32(r)
		if err != nil {
			return nil, err
		}
		methods := make([]events.MethodDescriptor, methodCount)
		for i := range methods {
			methods[i].Name, _ = readString(r)
			methods[i].Descriptor, _ = readString(r)
		}
		return events.ClassMetadataExtracted{
			Envelope: env, Path: path, Name: name, Super: super,
			Interfaces: interfaces, Fields: fields, Methods: methods,
		}, nil

	case tagBytecodeValidated:
		path, _ := readString(r)
		name, _ := readString(r)
		safe, err := readBool(r)
		if err != nil {
			return nil, err
		}
		detail, _ := readString(r)
		return events.BytecodeValidated{Envelope: env, Path: path, Name: name, Safe: safe, Detail: detail}, nil

	case tagBytecodeRejected:
		path, _ := readString(r)
		name, _ := readString(r)
		detail, _ := readString(r)
		return events.BytecodeRejected{Envelope: env, Path: path, Name: name, Detail: detail}, nil

	case tagHotSwapRequested:
		path, _ := readString(r)
		name, _ := readString(r)
		original, err1 := readBytes(r)
		newBytes, err2 := readBytes(r)
		reason, err3 := readString(r)
		if err := firstErr(err1, err2, err3); err != nil {
			return nil, err
		}
		return events.HotSwapRequested{Envelope: env, Path: path, Name: name, Original: original, New: newBytes, Reason: reason}, nil

	case tagClassRedefinitionSucceeded:
		name, _ := readString(r)
		path, _ := readString(r)
		affected, err1 := readUint32(r)
		detail, _ := readString(r)
		dur, err2 := readInt64(r)
		if err := firstErr(err1, err2); err != nil {
			return nil, err
		}
		return events.ClassRedefinitionSucceeded{
			Envelope: env, Name: name, Path: path, AffectedInstances: int(affected),
			Detail: detail, Duration: time.Duration(dur),
		}, nil

	case tagClassRedefinitionFailed:
		name, _ := readString(r)
		path, _ := readString(r)
		reason, _ := readString(r)
		platformErr, _ := readString(r)
		hint, _ := readString(r)
		return events.ClassRedefinitionFailed{
			Envelope: env, Name: name, Path: path, Reason: reason,
			PlatformError: platformErr, RecoveryHint: hint,
		}, nil

	case tagInstancesUpdated:
		className, _ := readString(r)
		method, _ := readString(r)
		updated, err1 := readUint32(r)
		total, err2 := readUint32(r)
		failed, err3 := readUint32(r)
		dur, err4 := readInt64(r)
		detail, _ := readString(r)
		if err := firstErr(err1, err2, err3, err4); err != nil {
			return nil, err
		}
		return events.InstancesUpdated{
			Envelope: env, ClassName: className, Method: method,
			Updated: int(updated), Total: int(total), Failed: int(failed),
			Duration: time.Duration(dur), Detail: detail,
		}, nil

	case tagWatchOverflow:
		path, _ := readString(r)
		return events.WatchOverflow{Envelope: env, Path: path}, nil

	default:
		return nil, fmt.Errorf("eventlog: unknown record tag %d", t)
	}
}

func firstErr(errs ...error) error {
	for _, e := range errs {
		if e != nil {
			return e
		}
	}
	return nil
}

func writeEnvelope(buf *bytes.Buffer, env events.Envelope) {
	writeString(buf, env.ID)
	writeString(buf, env.CorrelationID)
	writeString(buf, env.PrecedingID)
	writeString(buf, env.AggregateType)
	writeString(buf, env.AggregateID)
	writeInt64(buf, env.Timestamp.UnixNano())
}

func readEnvelope(r *bytes.Reader) (events.Envelope, error) {
	id, err1 := readString(r)
	corr, err2 := readString(r)
	preceding, err3 := readString(r)
	aggType, err4 := readString(r)
	aggID, err5 := readString(r)
	ts, err6 := readInt64(r)
	if err := firstErr(err1, err2, err3, err4, err5, err6); err != nil {
		return events.Envelope{}, err
	}
	return events.Envelope{
		ID:            id,
		CorrelationID: corr,
		PrecedingID:   preceding,
		AggregateType: aggType,
		AggregateID:   aggID,
		Timestamp:     time.Unix(0, ts),
	}, nil
}

func writeString(buf *bytes.Buffer, s string) {
	writeBytes(buf, []byte(s))
}

func readString(r *bytes.Reader) (string, error) {
	b, err := readBytes(r)
	return string(b), err
}

func writeBytes(buf *bytes.Buffer, b []byte) {
	writeUint32(buf, uint32(len(b)))
	buf.Write(b)
}

func readBytes(r *bytes.Reader) ([]byte, error) {
	n, err := readUint32(r)
	if err != nil {
		return nil, err
	}
	b := make([]byte, n)
	if n > 0 {
		if _, err := r.Read(b); err != nil {
			return nil, err
		}
	}
	return b, nil
}

func writeStringSlice(buf *bytes.Buffer, s []string) {
	writeUint32(buf, uint32(len(s)))
	for _, v := range s {
		writeString(buf, v)
	}
}

func readStringSlice(r *bytes.Reader) ([]string, error) {
	n, err := readUint32(r)
	if err != nil {
		return nil, err
	}
	out := make([]string, n)
	for i := range out {
		v, err := readString(r)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

func writeUint32(buf *bytes.Buffer, v uint32) {
	var b [4]byte
	binary.BigEndian.PutUint32(b[:], v)
	buf.Write(b[:])
}

func readUint32(r *bytes.Reader) (uint32, error) {
	var b [4]byte
	if _, err := r.Read(b[:]); err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint32(b[:]), nil
}

func writeInt64(buf *bytes.Buffer, v int64) {
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], uint64(v))
	buf.Write(b[:])
}

func readInt64(r *bytes.Reader) (int64, error) {
	var b [8]byte
	if _, err := r.Read(b[:]); err != nil {
		return 0, err
	}
	return int64(binary.BigEndian.Uint64(b[:])), nil
}

func writeBool(buf *bytes.Buffer, v bool) {
	if v {
		buf.WriteByte(1)
	} else {
		buf.WriteByte(0)
	}
}

func readBool(r *bytes.Reader) (bool, error) {
	b, err := r.ReadByte()
	if err != nil {
		return false, err
	}
	return b != 0, nil
}

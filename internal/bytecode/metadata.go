package bytecode

import "github.com/rydnr/bytehot/internal/events"

// FieldDescriptor and MethodDescriptor mirror the event package's shapes so
// a Metadata value can be attached to a ClassMetadataExtracted event
// without field-by-field translation at the call site.
type FieldDescriptor = events.FieldDescriptor
type MethodDescriptor = events.MethodDescriptor

// Metadata is the result of analyzing one class artifact: its identity,
// supertype, interfaces, and ordered field/method descriptors. It is
// derived data with a lifetime of one validation cycle — never persisted
// on its own, only as the payload of a ClassMetadataExtracted event.
type Metadata struct {
	Name       string
	Super      string
	Interfaces []string
	Fields     []FieldDescriptor
	Methods    []MethodDescriptor
}

func containsString(ss []string, s string) bool {
	for _, v := range ss {
		if v == s {
			return true
		}
	}
	return false
}

// sameInterfaceSet reports whether a and b name the same interfaces,
// ignoring order; a class's interface set is unordered.
func sameInterfaceSet(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for _, v := range a {
		if !containsString(b, v) {
			return false
		}
	}
	return true
}

func fieldKey(f FieldDescriptor) string {
	return f.Name + " " + f.Descriptor
}

func methodKey(m MethodDescriptor) string {
	return m.Name + " " + m.Descriptor
}

func fieldSet(fs []FieldDescriptor) map[string]bool {
	out := make(map[string]bool, len(fs))
	for _, f := range fs {
		out[fieldKey(f)] = true
	}
	return out
}

func methodSet(ms []MethodDescriptor) map[string]bool {
	out := make(map[string]bool, len(ms))
	for _, m := range ms {
		out[methodKey(m)] = true
	}
	return out
}

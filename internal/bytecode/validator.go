package bytecode

import "bytes"

// Classification tags how a proposed bytecode change relates to the class
// definition the platform has loaded. Only MethodBodyOnly and SafeAdditive
// are eligible for redefinition; the Hot-Swap Manager treats the other two
// as a hard rejection.
type Classification string

const (
	MethodBodyOnly     Classification = "MethodBodyOnly"
	SafeAdditive       Classification = "SafeAdditive"
	SchemaIncompatible Classification = "SchemaIncompatible"
	Unknown            Classification = "Unknown"
)

// restrictiveness ranks classifications from least to most restrictive, so
// Classify's tie-break ("the more restrictive classification wins") is a
// simple max over the candidates it finds evidence for.
func (c Classification) restrictiveness() int {
	switch c {
	case MethodBodyOnly:
		return 0
	case SafeAdditive:
		return 1
	case Unknown:
		return 2
	case SchemaIncompatible:
		return 3
	default:
		return 3
	}
}

func moreRestrictive(a, b Classification) Classification {
	if a.restrictiveness() >= b.restrictiveness() {
		return a
	}
	return b
}

// Classify implements the Bytecode Validator's decision policy: compare the
// metadata extracted from the original and new bytecode to decide whether a
// change is safe for redefinition. haveOriginal is false when no prior
// artifact is on record (e.g. first observation of a file), in which case
// there is nothing to compare against and the classification is Unknown.
func Classify(haveOriginal bool, original, newMeta Metadata, originalBytes, newBytes []byte) (Classification, string) {
	if !haveOriginal {
		return Unknown, "no prior class metadata on record to compare against"
	}

	sameSuper := original.Super == newMeta.Super
	sameInterfaces := sameInterfaceSet(original.Interfaces, newMeta.Interfaces)
	oldFields, newFields := fieldSet(original.Fields), fieldSet(newMeta.Fields)
	oldMethods, newMethods := methodSet(original.Methods), methodSet(newMeta.Methods)

	sameFields := setsEqual(oldFields, newFields)
	sameMethods := setsEqual(oldMethods, newMethods)

	if sameSuper && sameInterfaces && sameFields && sameMethods {
		if bytes.Equal(originalBytes, newBytes) {
			return MethodBodyOnly, "no change detected"
		}
		return MethodBodyOnly, "method bodies changed, schema unchanged"
	}

	if !sameSuper || !sameInterfaces {
		return SchemaIncompatible, "supertype or interface set changed"
	}

	removedFields := setDifference(oldFields, newFields)
	removedMethods := setDifference(oldMethods, newMethods)
	if len(removedFields) > 0 {
		return SchemaIncompatible, "one or more fields were removed or renamed"
	}
	if len(removedMethods) > 0 {
		return SchemaIncompatible, "one or more methods were removed or renamed"
	}

	// Only additions remain: new entries in newFields/newMethods not present
	// in the old set, with nothing removed and the supertype/interfaces
	// unchanged.
	best := MethodBodyOnly
	if !sameFields {
		best = moreRestrictive(best, SafeAdditive)
	}
	if !sameMethods {
		best = moreRestrictive(best, SafeAdditive)
	}
	if best == SafeAdditive {
		return SafeAdditive, "only additive field/method changes detected"
	}
	return best, "method bodies changed, schema unchanged"
}

func setsEqual(a, b map[string]bool) bool {
	if len(a) != len(b) {
		return false
	}
	for k := range a {
		if !b[k] {
			return false
		}
	}
	return true
}

// Eligible reports whether a Classification is eligible for redefinition:
// MethodBodyOnly always, SafeAdditive only when the platform permits
// additive changes. platformAllowsAdditive lets the caller supply that fact
// without this package needing to know anything about the Instrumentation
// Port.
func Eligible(c Classification, platformAllowsAdditive bool) bool {
	switch c {
	case MethodBodyOnly:
		return true
	case SafeAdditive:
		return platformAllowsAdditive
	default:
		return false
	}
}

func setDifference(a, b map[string]bool) []string {
	var out []string
	for k := range a {
		if !b[k] {
			out = append(out, k)
		}
	}
	return out
}

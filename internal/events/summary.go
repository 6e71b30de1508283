package events

import (
	"fmt"
)

// Summarize renders a short, human-readable one-line description of any
// Event variant. It is used by the Snapshot Engine's "Event Context"
// section and by the `bytehot events` CLI table, so the formatting lives
// once here rather than being duplicated at each call site.
func Summarize(e Event) string {
	switch ev := e.(type) {
	case ClassFileChanged:
		return fmt.Sprintf("%s changed (%d bytes)", ev.ClassName, ev.Size)
	case ClassMetadataExtracted:
		return fmt.Sprintf("%s metadata extracted (%d fields, %d methods)", ev.Name, len(ev.Fields), len(ev.Methods))
	case BytecodeValidated:
		return fmt.Sprintf("%s validated safe: %s", ev.Name, ev.Detail)
	case BytecodeRejected:
		return fmt.Sprintf("%s rejected: %s", ev.Name, ev.Detail)
	case HotSwapRequested:
		return fmt.Sprintf("%s hot-swap requested: %s", ev.Name, ev.Reason)
	case ClassRedefinitionSucceeded:
		return fmt.Sprintf("%s redefined in %s (%d instances affected)", ev.Name, ev.Duration, ev.AffectedInstances)
	case ClassRedefinitionFailed:
		return fmt.Sprintf("%s redefinition failed: %s (%s)", ev.Name, ev.Reason, ev.PlatformError)
	case InstancesUpdated:
		return fmt.Sprintf("%s instances updated via %s: %d/%d ok, %d failed", ev.ClassName, ev.Method, ev.Updated, ev.Total, ev.Failed)
	case WatchOverflow:
		return fmt.Sprintf("watch overflow recovered for %s", ev.Path)
	default:
		return fmt.Sprintf("%s", e.Kind())
	}
}

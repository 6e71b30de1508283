package hotswap

import "errors"

// ErrClassNotFound is the terminal error when the instrumentation port
// reports no loaded class matching the target name.
var ErrClassNotFound = errors.New("hotswap: class not loaded by the platform")

// Package stacktrace reduces a goroutine stack to the frames that belong to
// this module, for compact panic logs.
package stacktrace

import (
	"runtime"
	"strconv"
	"strings"
)

const maxFrames = 64

// Internal returns "internal/<pkg>/<file>.go:<line>" for every frame of the
// calling goroutine located under an internal/ directory, innermost first.
// skip drops that many frames above the caller of Internal.
func Internal(skip int) []string {
	pcs := make([]uintptr, maxFrames)
	n := runtime.Callers(skip+2, pcs)
	frames := runtime.CallersFrames(pcs[:n])

	var paths []string
	for {
		f, more := frames.Next()
		if i := strings.Index(f.File, "/internal/"); i >= 0 {
			paths = append(paths, f.File[i+1:]+":"+strconv.Itoa(f.Line))
		}
		if !more {
			break
		}
	}

	return paths
}

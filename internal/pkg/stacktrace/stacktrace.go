// Package stacktrace condenses panic stacks to the frames that belong to this
// module, which is what an on-call reader needs first.
package stacktrace

import (
	"runtime"
	"strconv"
	"strings"
)

const maxFrames = 64

// InternalPaths returns "internal/<pkg>/<file>.go:<line>" for every frame of
// the calling goroutine that lives under an internal/ directory, innermost
// first. skip counts frames above the caller to leave out.
func InternalPaths(skip int) []string {
	pcs := make([]uintptr, maxFrames)
	n := runtime.Callers(skip+2, pcs)
	frames := runtime.CallersFrames(pcs[:n])

	var paths []string
	for {
		f, more := frames.Next()
		if i := strings.Index(f.File, "/internal/"); i != -1 {
			paths = append(paths, f.File[i+1:]+":"+strconv.Itoa(f.Line))
		}
		if !more {
			break
		}
	}
	return paths
}

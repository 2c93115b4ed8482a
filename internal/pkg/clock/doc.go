// Package clock provides a tiny time abstraction.
//
// Production code depends on the Clocker interface instead of calling
// time.Now() directly. Tests swap in Frozen to drive expiry windows
// deterministically.
package clock

// Package sentries provides a concurrent membership registry for named
// fault-tolerance guards ("sentries") that wrap calls to external resources.
//
// The central type is [Registry], which guarantees exactly one live sentry
// per [Identity] under concurrent creation, notifies ordered listeners of
// membership changes synchronously on the mutating goroutine, and — through
// [Reporter] — mirrors membership into an external management registry for
// observability tooling.
package sentries

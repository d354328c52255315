// Package profile provides optional runtime profiling for linegen.
//
// Profiling is backed by [github.com/pkg/profile] and compiled in only with
// the "pprof" build tag:
//
//	go build -tags pprof -o linegen .
//
// Without the tag, [Modes] is empty and [Profiler.Start] returns a no-op.
//
// # Modes
//
//   - allocs:    memory allocation profiling (all allocations)
//   - block:     block (synchronization) profiling
//   - clock:     wall-clock profiling
//   - cpu:       CPU profiling
//   - goroutine: goroutine profiling
//   - heap:      heap profiling (live allocations)
//   - mem:       general memory profiling
//   - mutex:     mutex contention profiling
//   - thread:    thread creation profiling
//   - trace:     execution trace
//
// # Usage
//
//	p := profile.Profiler{Mode: "cpu", Path: "/tmp/profiles", Quiet: true}
//	defer p.Start().Stop()
//
// Profiles are written to Path with names matching the mode (cpu.pprof,
// mem.pprof, ...). The linegen CLI exposes this as --pprof-mode and
// --pprof-dir, defaulting to the "pprof" directory under the user cache
// directory:
//
//	linegen --pprof-mode=cpu gen ./templates
//	go tool pprof -http=: ~/.cache/linegen/pprof/cpu.pprof
//
// The tagged build also imports [net/http/pprof], registering its handlers on
// [net/http.DefaultServeMux].
package profile

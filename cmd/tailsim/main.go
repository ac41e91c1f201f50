// tailsim replays recorded traces through tail-sampling policies and shows
// which traces would be kept, which would be dropped, and why.
//
// Traces are read as OTLP JSON, one trace per file. Policies use the
// collector's tail sampling configuration shape.
//
// Usage:
//
//	# Check a policy file
//	tailsim validate policies.yaml
//
//	# Simulate a directory of traces
//	tailsim simulate --policies policies.yaml traces/
//
//	# Re-run whenever the policy file changes, serving /metrics and /readyz
//	tailsim simulate --watch --listen :9090 traces/
//
//	# Inspect recorded decisions
//	tailsim audit list --decision dropped --since 24h
//
//	# Show version information
//	tailsim version
package main

func main() {
	Execute()
}

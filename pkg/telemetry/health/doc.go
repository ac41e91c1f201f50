// Package health provides liveness and readiness endpoints for the
// long-running watch mode of the simulator.
//
// Readiness aggregates registered checks:
//
//	checker := health.New(2 * time.Second)
//	checker.RegisterCheck("policies", health.PoliciesLoaded(func() int {
//	    return len(eng.Policies())
//	}))
//	checker.RegisterCheck("audit", health.Reachable(store))
//
//	mux := health.NewMux(checker, info, "/metrics", collector.Handler())
//
// Endpoints:
//
//	/healthz  always 200 while the process runs
//	/readyz   200 when every check passes, 503 otherwise
//	/version  build information
package health

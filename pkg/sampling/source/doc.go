// Package source provides policy sources for the decision engine.
//
// A policy source loads policy configurations and reports changes to them.
// The engine builds the configurations it receives; sources only decode.
//
// # File Source
//
// The file source loads policies from a YAML or JSON file, or from every
// .yaml, .yml and .json file in a directory, and watches them with fsnotify:
//
//	src := source.NewFileSource("policies.yaml", logger)
//	cfgs, err := src.LoadPolicies(ctx)
//
// A policy file holds a top-level "policies" list:
//
//	policies:
//	  - name: errors
//	    type: status_code
//	    status_code:
//	      status_codes: [ERROR]
//	  - name: slow
//	    type: latency
//	    latency:
//	      threshold_ms: 5000
//
// A bare list of policies is accepted as well.
//
// # In-Memory Source
//
// The in-memory source is useful for testing:
//
//	src := source.NewMemorySource(cfgs...)
package source

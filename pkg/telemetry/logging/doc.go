// Package logging provides structured logging for tailsim.
//
// # Overview
//
// The logging package wraps Go's standard log/slog package to provide:
//   - Structured logging with JSON, text, and console formats
//   - Context-aware logging with run IDs, trace IDs and policy names
//   - Configurable log levels (debug, info, warn, error)
//
// # Usage
//
//	logger, err := logging.New(logging.Config{
//	    Level:  "info",
//	    Format: "json",
//	})
//
//	logger.Info("simulation finished",
//	    "trace_id", "5b8efff798038103d269b633813fc60c",
//	    "final_decision", "sampled",
//	)
//
// Components take a *slog.Logger. Pass logger.Slog() to them; the handler
// behind it adds run_id, trace_id and policy from the context of every
// *Context logging call:
//
//	ctx = logging.WithRunID(ctx, runID)
//	logger.Slog().WarnContext(ctx, "policy evaluation failed")
package logging

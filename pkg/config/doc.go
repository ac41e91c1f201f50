// Package config provides configuration management for tailsim.
//
// This package handles loading, validating, and managing configuration from
// YAML files with environment variable overrides. Sampling policies are not
// part of this configuration; they live in their own files read by the
// policy source.
//
// # Configuration Loading
//
// Configuration can be loaded in three ways:
//
//  1. From a YAML file only:
//     cfg, err := config.LoadConfig("tailsim.yaml")
//
//  2. From a YAML file with environment variable overrides:
//     cfg, err := config.LoadConfigWithEnvOverrides("tailsim.yaml")
//
//  3. Without a file, from defaults and the environment:
//     cfg, err := config.LoadFromEnv()
//
// # Environment Variable Overrides
//
// Environment variables follow the naming convention TAILSIM_SECTION_FIELD.
// For example:
//
//   - TAILSIM_ENGINE_CONDITION_TIMEOUT overrides engine.condition_timeout
//   - TAILSIM_AUDIT_PATH overrides audit.path
//   - TAILSIM_LOG_LEVEL overrides telemetry.logging.level
//
// Environment variables always take precedence over file-based configuration.
//
// # Validation
//
// Validate collects every problem into a ValidationError instead of stopping
// at the first one:
//
//	if err := config.Validate(cfg); err != nil {
//	    var verr config.ValidationError
//	    if errors.As(err, &verr) {
//	        for _, fe := range verr.Errors {
//	            fmt.Println(fe.Field, fe.Message)
//	        }
//	    }
//	}
package config

package sampling

import (
	"context"
	"log/slog"
	"sync"

	"mercator-hq/tailsim/pkg/tracemodel"
)

// StringAttributeOptions configures a string attribute evaluator.
type StringAttributeOptions struct {
	Key                  string
	Values               []string
	EnabledRegexMatching bool
	CacheMaxSize         int
	InvertMatch          bool
}

type stringAttributeFilter struct {
	key         string
	values      map[string]struct{}
	patterns    []string
	regex       bool
	invertMatch bool
	cache       *regexCache
	logger      *slog.Logger

	warnedMu sync.Mutex
	warned   map[string]struct{}
}

// NewStringAttributeFilter creates an evaluator that checks each resource's
// attribute opts.Key against opts.Values, either by exact membership or, with
// regex matching enabled, by treating each value as a pattern.
//
// The first resource that defines the key decides. A value that is not a
// string counts as defined but not matching. With InvertMatch, a match yields
// InvertNotSampled and anything else InvertSampled.
func NewStringAttributeFilter(opts StringAttributeOptions, logger *slog.Logger) (PolicyEvaluator, error) {
	if opts.Key == "" {
		return nil, invalidf("string_attribute requires a key")
	}
	if logger == nil {
		logger = slog.Default()
	}

	f := &stringAttributeFilter{
		key:         opts.Key,
		regex:       opts.EnabledRegexMatching,
		invertMatch: opts.InvertMatch,
		logger:      logger,
	}

	if f.regex {
		f.patterns = append([]string(nil), opts.Values...)
		f.cache = newRegexCache(opts.CacheMaxSize)
		f.warned = make(map[string]struct{})
	} else {
		f.values = make(map[string]struct{}, len(opts.Values))
		for _, v := range opts.Values {
			f.values[v] = struct{}{}
		}
	}
	return f, nil
}

func (f *stringAttributeFilter) Evaluate(_ context.Context, trace *tracemodel.Trace) (Decision, error) {
	if trace != nil {
		for i := range trace.ResourceSpans {
			raw, ok := trace.ResourceSpans[i].Resource.Attributes.Get(f.key)
			if !ok {
				continue
			}
			matched := false
			if s, isString := tracemodel.StringValue(raw); isString {
				matched = f.matches(s)
			}
			return f.decide(matched), nil
		}
	}

	if f.invertMatch {
		return InvertSampled, nil
	}
	return NotSampled, nil
}

func (f *stringAttributeFilter) decide(matched bool) Decision {
	switch {
	case f.invertMatch && matched:
		return InvertNotSampled
	case f.invertMatch:
		return InvertSampled
	case matched:
		return Sampled
	default:
		return NotSampled
	}
}

func (f *stringAttributeFilter) matches(value string) bool {
	if !f.regex {
		_, ok := f.values[value]
		return ok
	}

	for _, pattern := range f.patterns {
		entry, _ := f.cache.get(pattern)
		if entry.err != nil {
			f.warnMalformed(pattern, entry.err)
			continue
		}
		if entry.re.MatchString(value) {
			return true
		}
	}
	return false
}

func (f *stringAttributeFilter) warnMalformed(pattern string, err error) {
	f.warnedMu.Lock()
	_, seen := f.warned[pattern]
	if !seen {
		f.warned[pattern] = struct{}{}
	}
	f.warnedMu.Unlock()

	if !seen {
		f.logger.Warn("skipping malformed attribute pattern",
			"key", f.key,
			"pattern", pattern,
			"error", err,
		)
	}
}

package sampling

import (
	"context"
	"errors"
	"testing"
	"time"

	"mercator-hq/tailsim/pkg/sampling/condition"
	"mercator-hq/tailsim/pkg/tracemodel"
)

func TestOTTLConditionFilter(t *testing.T) {
	trace := newTrace(resource(tracemodel.Attributes{"env": "prod"}, span(nil)))

	tests := []struct {
		name       string
		mode       condition.ErrorMode
		result     *condition.Result
		err        error
		want       Decision
		wantErr    error
		wantAnyErr bool
	}{
		{name: "sampled", result: &condition.Result{Sampled: true}, want: Sampled},
		{name: "not sampled", result: &condition.Result{}, want: NotSampled},
		{
			name:       "engine error propagated",
			mode:       condition.ErrorModePropagate,
			result:     &condition.Result{Error: "bad expression"},
			want:       Error,
			wantAnyErr: true,
		},
		{
			name:   "engine error ignored",
			mode:   condition.ErrorModeIgnore,
			result: &condition.Result{Error: "bad expression"},
			want:   NotSampled,
		},
		{
			name:    "unreachable propagated",
			mode:    condition.ErrorModePropagate,
			err:     errors.New("connection refused"),
			want:    Error,
			wantErr: ErrConditionUnavailable,
		},
		{
			name: "unreachable ignored",
			mode: condition.ErrorModeIgnore,
			err:  errors.New("connection refused"),
			want: NotSampled,
		},
		{
			name:    "empty response",
			result:  nil,
			want:    Error,
			wantErr: ErrConditionUnavailable,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			eval := condition.Func(func(context.Context, condition.Request) (*condition.Result, error) {
				return tt.result, tt.err
			})
			filter, err := NewOTTLConditionFilter(eval, []string{`attributes["x"] == 1`}, nil, tt.mode, time.Second, nil)
			if err != nil {
				t.Fatal(err)
			}

			got, err := filter.Evaluate(context.Background(), trace)
			if got != tt.want {
				t.Errorf("Evaluate() = %v, want %v", got, tt.want)
			}
			switch {
			case tt.wantErr != nil:
				if !errors.Is(err, tt.wantErr) {
					t.Errorf("error = %v, want %v", err, tt.wantErr)
				}
			case tt.wantAnyErr:
				if err == nil {
					t.Error("expected an error")
				}
			case err != nil:
				t.Errorf("unexpected error: %v", err)
			}
			if want := got == Error && tt.mode != condition.ErrorModeIgnore; IsPropagated(err) != want {
				t.Errorf("IsPropagated(%v) = %v, want %v", err, !want, want)
			}
		})
	}
}

func TestOTTLConditionFilter_Request(t *testing.T) {
	trace := newTrace(resource(tracemodel.Attributes{"env": "prod"}, span(nil)))

	var got condition.Request
	eval := condition.Func(func(_ context.Context, req condition.Request) (*condition.Result, error) {
		got = req
		return &condition.Result{Sampled: true}, nil
	})
	filter, err := NewOTTLConditionFilter(eval, []string{"a"}, []string{"b"}, condition.ErrorModeIgnore, 0, nil)
	if err != nil {
		t.Fatal(err)
	}
	mustEvaluate(t, filter, trace)

	if got.ErrorMode != condition.ErrorModeIgnore {
		t.Errorf("ErrorMode = %q", got.ErrorMode)
	}
	if len(got.SpanConditions) != 1 || len(got.SpanEventConditions) != 1 {
		t.Errorf("conditions = %v / %v", got.SpanConditions, got.SpanEventConditions)
	}
	decoded, err := tracemodel.UnmarshalJSON(got.TraceJSON)
	if err != nil {
		t.Fatalf("trace payload is not OTLP JSON: %v", err)
	}
	if decoded.SpanCount() != 1 || decoded.TraceID() != testTraceID {
		t.Errorf("decoded trace = %+v", decoded)
	}
}

func TestOTTLConditionFilter_Timeout(t *testing.T) {
	block := condition.Func(func(ctx context.Context, _ condition.Request) (*condition.Result, error) {
		<-ctx.Done()
		return nil, ctx.Err()
	})

	for _, mode := range []condition.ErrorMode{condition.ErrorModePropagate, condition.ErrorModeIgnore} {
		t.Run(string(mode), func(t *testing.T) {
			filter, err := NewOTTLConditionFilter(block, []string{"a"}, nil, mode, 20*time.Millisecond, nil)
			if err != nil {
				t.Fatal(err)
			}
			got, err := filter.Evaluate(context.Background(), newTrace())
			if got != Error {
				t.Errorf("Evaluate() = %v, want Error", got)
			}
			if !errors.Is(err, ErrConditionTimeout) {
				t.Errorf("error = %v, want ErrConditionTimeout", err)
			}
			if want := mode == condition.ErrorModePropagate; IsPropagated(err) != want {
				t.Errorf("IsPropagated() = %v, want %v", !want, want)
			}
		})
	}
}

func TestNewOTTLConditionFilter_Validation(t *testing.T) {
	eval := condition.Func(func(context.Context, condition.Request) (*condition.Result, error) {
		return &condition.Result{}, nil
	})

	if _, err := NewOTTLConditionFilter(nil, []string{"a"}, nil, "", 0, nil); !errors.Is(err, ErrConditionUnavailable) {
		t.Errorf("nil evaluator error = %v, want ErrConditionUnavailable", err)
	}
	if _, err := NewOTTLConditionFilter(eval, nil, nil, "", 0, nil); !errors.Is(err, ErrInvalidPolicy) {
		t.Errorf("no conditions error = %v, want ErrInvalidPolicy", err)
	}
	if _, err := NewOTTLConditionFilter(eval, []string{"a"}, nil, "loud", 0, nil); !errors.Is(err, ErrInvalidPolicy) {
		t.Errorf("bad error mode error = %v, want ErrInvalidPolicy", err)
	}
}

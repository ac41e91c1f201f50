package health

import (
	"context"
	"errors"
)

// ErrNoPolicies is reported by PoliciesLoaded when the engine holds no
// policies.
var ErrNoPolicies = errors.New("no sampling policies loaded")

// PolicyCounter reports how many policies are currently loaded.
type PolicyCounter func() int

// PoliciesLoaded fails while count reports zero policies.
func PoliciesLoaded(count PolicyCounter) CheckFunc {
	return func(ctx context.Context) error {
		if count() == 0 {
			return ErrNoPolicies
		}
		return nil
	}
}

// Pinger is implemented by stores that can check their connection.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Reachable fails when p cannot be pinged.
func Reachable(p Pinger) CheckFunc {
	return func(ctx context.Context) error {
		return p.Ping(ctx)
	}
}

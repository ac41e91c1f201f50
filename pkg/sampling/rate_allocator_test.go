package sampling

import (
	"reflect"
	"testing"
)

func TestAllocateRates(t *testing.T) {
	tests := []struct {
		name        string
		max         int64
		subs        []string
		allocations []RateAllocationCfg
		want        map[string]int64
	}{
		{
			name: "even split",
			max:  1000,
			subs: []string{"a", "b", "c"},
			want: map[string]int64{"a": 333, "b": 333, "c": 333},
		},
		{
			name:        "explicit percent, rest split on total count",
			max:         1000,
			subs:        []string{"a", "b", "c"},
			allocations: []RateAllocationCfg{{Policy: "a", Percent: 50}},
			want:        map[string]int64{"a": 500, "b": 333, "c": 333},
		},
		{
			name:        "zero percent falls back to even split",
			max:         100,
			subs:        []string{"a", "b"},
			allocations: []RateAllocationCfg{{Policy: "a", Percent: 0}, {Policy: "b", Percent: 25}},
			want:        map[string]int64{"a": 50, "b": 25},
		},
		{
			name:        "allocation for unknown policy ignored",
			max:         90,
			subs:        []string{"a"},
			allocations: []RateAllocationCfg{{Policy: "z", Percent: 10}},
			want:        map[string]int64{"a": 90},
		},
		{
			name: "no sub-policies",
			max:  100,
			want: map[string]int64{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := AllocateRates(tt.max, tt.subs, tt.allocations)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("AllocateRates() = %v, want %v", got, tt.want)
			}
		})
	}
}

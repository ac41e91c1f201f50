package sampling

// AllocateRates splits maxTotalSPS across the named sub-policies of a
// composite policy. A sub-policy with a positive percent in allocations gets
// that percentage of the total. Every other sub-policy gets the total divided
// by the number of sub-policies, regardless of how much of the total the
// explicit allocations already claim.
func AllocateRates(maxTotalSPS int64, subPolicyNames []string, allocations []RateAllocationCfg) map[string]int64 {
	out := make(map[string]int64, len(subPolicyNames))
	if len(subPolicyNames) == 0 {
		return out
	}

	percents := make(map[string]float64, len(allocations))
	for _, a := range allocations {
		percents[a.Policy] = a.Percent
	}

	even := maxTotalSPS / int64(len(subPolicyNames))
	for _, name := range subPolicyNames {
		if p := percents[name]; p > 0 {
			out[name] = int64(p / 100 * float64(maxTotalSPS))
			continue
		}
		out[name] = even
	}
	return out
}

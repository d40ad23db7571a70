package pricing

// ResolveTier returns the active tier matching quantity with the highest
// MinQuantity. Tiers sharing that MinQuantity resolve to the earliest one in
// the slice.
func ResolveTier(tiers []TierRule, quantity int) (*TierRule, bool) {
	var best *TierRule
	for i := range tiers {
		tier := &tiers[i]
		if !tier.Matches(quantity) {
			continue
		}
		if best == nil || tier.MinQuantity > best.MinQuantity {
			best = tier
		}
	}
	if best == nil {
		return nil, false
	}
	resolved := *best
	return &resolved, true
}

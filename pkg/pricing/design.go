package pricing

import "github.com/samber/lo"

// ResolveDesignCost sums the per-unit surcharge of every selection. Selections
// without an active price entry add nothing. When several active entries share
// an (area, position) key the last one wins.
func ResolveDesignCost(designPrices []DesignAreaPrice, selections []DesignSelection) Money {
	if len(selections) == 0 {
		return 0
	}

	active := make(map[designKey]Money, len(designPrices))
	for _, entry := range designPrices {
		if !entry.Active {
			continue
		}
		active[designKey{area: entry.AreaName, position: entry.Position}] = entry.Price
	}

	return lo.SumBy(selections, func(sel DesignSelection) Money {
		return active[designKey{area: sel.AreaName, position: sel.Position}]
	})
}

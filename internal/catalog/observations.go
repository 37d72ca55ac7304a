package catalog

import "sort"

type observationKey struct {
	itemID int64
	listID int64
	tier   int64
}

// LatestObservations keeps one authoritative observation per (item, list, tier):
// the one with the latest effective date, ties broken by the highest observation id.
// The result is ordered by item, list and tier.
func LatestObservations(observations []PriceObservation) []PriceObservation {
	latest := make(map[observationKey]PriceObservation, len(observations))
	for _, o := range observations {
		key := observationKey{itemID: o.ItemID, listID: o.PriceListID, tier: o.Tier}
		current, ok := latest[key]
		if !ok || newerObservation(o, current) {
			latest[key] = o
		}
	}

	out := make([]PriceObservation, 0, len(latest))
	for _, o := range latest {
		out = append(out, o)
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.ItemID != b.ItemID {
			return a.ItemID < b.ItemID
		}
		if a.PriceListID != b.PriceListID {
			return a.PriceListID < b.PriceListID
		}
		return a.Tier < b.Tier
	})
	return out
}

func newerObservation(candidate, current PriceObservation) bool {
	if !candidate.EffectiveDate.Equal(current.EffectiveDate) {
		return candidate.EffectiveDate.After(current.EffectiveDate)
	}
	return candidate.ID > current.ID
}

// restrictToItems drops observations for items outside the loaded item set.
// Excluded items never reach the grid even if the store returned rows for them.
func restrictToItems(observations []PriceObservation, items []Item) []PriceObservation {
	allowed := make(map[int64]struct{}, len(items))
	for _, it := range items {
		allowed[it.ID] = struct{}{}
	}
	out := make([]PriceObservation, 0, len(observations))
	for _, o := range observations {
		if _, ok := allowed[o.ItemID]; ok {
			out = append(out, o)
		}
	}
	return out
}

package catalog

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/shopspring/decimal"
)

// memorySources is an in-memory implementation of every catalog source.
type memorySources struct {
	mu            sync.Mutex
	items         []Item
	excluded      map[int64]bool
	lists         []PriceList
	observations  []PriceObservation
	differentials map[int64]decimal.Decimal

	itemsErr        error
	observationsErr error
	diffErr         error

	resolveCalls atomic.Int32
	diffCalls    atomic.Int32
	nextObsID    int64
}

func newMemorySources() *memorySources {
	return &memorySources{
		excluded:      make(map[int64]bool),
		differentials: make(map[int64]decimal.Decimal),
	}
}

func (m *memorySources) sources() Sources {
	return Sources{Items: m, Lists: m, Observations: m, Differentials: m}
}

func (m *memorySources) addItem(id int64, code string, caseSize string) {
	item := Item{ID: id, Code: code, Description: "Item " + code, CategoryID: 1, Active: true}
	if caseSize != "" {
		d := decimal.RequireFromString(caseSize)
		item.CaseSize = &d
	}
	m.items = append(m.items, item)
}

func (m *memorySources) addList(id int64, code string) {
	m.lists = append(m.lists, PriceList{ID: id, Code: code, ScopeID: 1, Active: true})
}

func (m *memorySources) observe(itemID, listID, tier int64, price, discount string, date time.Time) {
	m.nextObsID++
	m.observations = append(m.observations, PriceObservation{
		ID:            m.nextObsID,
		ItemID:        itemID,
		PriceListID:   listID,
		Tier:          tier,
		Price:         decimal.RequireFromString(price),
		Discount:      decimal.RequireFromString(discount),
		EffectiveDate: date,
	})
}

func (m *memorySources) FindItems(ctx context.Context, filter ItemFilter) ([]Item, error) {
	if m.itemsErr != nil {
		return nil, m.itemsErr
	}
	ids := make(map[int64]bool, len(filter.ItemIDs))
	for _, id := range filter.ItemIDs {
		ids[id] = true
	}
	types := make(map[int64]bool, len(filter.TypeIDs))
	for _, id := range filter.TypeIDs {
		types[id] = true
	}

	var out []Item
	for _, it := range m.items {
		if !it.Active || m.excluded[it.ID] {
			continue
		}
		if len(ids) > 0 {
			if !ids[it.ID] {
				continue
			}
		} else if filter.CategoryID != nil {
			if it.CategoryID != *filter.CategoryID {
				continue
			}
			if len(types) > 0 && (it.TypeID == nil || !types[*it.TypeID]) {
				continue
			}
		}
		out = append(out, it)
	}
	return out, nil
}

func (m *memorySources) ResolveList(ctx context.Context, id int64) (PriceList, error) {
	m.resolveCalls.Add(1)
	for _, l := range m.lists {
		if l.ID == id {
			return l, nil
		}
	}
	return PriceList{}, ErrPriceListNotFound
}

func (m *memorySources) ListsByScope(ctx context.Context, scopeID int64, codes []string) ([]PriceList, error) {
	wanted := make(map[string]bool, len(codes))
	for _, c := range codes {
		wanted[c] = true
	}
	var out []PriceList
	for _, l := range m.lists {
		if l.ScopeID == scopeID && l.Active && wanted[l.Code] {
			out = append(out, l)
		}
	}
	return out, nil
}

// LoadObservations ignores the item filter so the engine's own restriction is exercised.
func (m *memorySources) LoadObservations(ctx context.Context, listIDs []int64, filter ItemFilter) ([]PriceObservation, error) {
	if m.observationsErr != nil {
		return nil, m.observationsErr
	}
	wanted := make(map[int64]bool, len(listIDs))
	for _, id := range listIDs {
		wanted[id] = true
	}
	var out []PriceObservation
	for _, o := range m.observations {
		if wanted[o.PriceListID] {
			out = append(out, o)
		}
	}
	return out, nil
}

func (m *memorySources) Differentials(ctx context.Context, itemIDs []int64) (map[int64]decimal.Decimal, error) {
	m.diffCalls.Add(1)
	if m.diffErr != nil {
		return nil, m.diffErr
	}
	out := make(map[int64]decimal.Decimal)
	for _, id := range itemIDs {
		if d, ok := m.differentials[id]; ok {
			out[id] = d
		}
	}
	return out, nil
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func day(n int) time.Time {
	return time.Date(2024, time.January, n, 0, 0, 0, 0, time.UTC)
}

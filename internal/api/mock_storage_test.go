package api

import (
	"sort"
	"time"

	"github.com/martinsuchenak/netgen/internal/model"
	"github.com/martinsuchenak/netgen/internal/storage"
)

// mockStorage is a simple in-memory plan store for testing
type mockStorage struct {
	plans map[string]*model.Plan
}

func newMockStorage() *mockStorage {
	return &mockStorage{plans: make(map[string]*model.Plan)}
}

func (m *mockStorage) SavePlan(plan *model.Plan) error {
	if plan.ID == "" {
		return storage.ErrInvalidID
	}
	clone := *plan
	m.plans[plan.ID] = &clone
	return nil
}

func (m *mockStorage) GetPlan(id string) (*model.Plan, error) {
	if p, ok := m.plans[id]; ok {
		clone := *p
		return &clone, nil
	}
	return nil, storage.ErrPlanNotFound
}

func (m *mockStorage) FindPlanByDigest(digest string) (*model.Plan, error) {
	var newest *model.Plan
	for _, p := range m.plans {
		if p.Digest != digest {
			continue
		}
		if newest == nil || p.CreatedAt.After(newest.CreatedAt) {
			newest = p
		}
	}
	if newest == nil {
		return nil, storage.ErrPlanNotFound
	}
	clone := *newest
	return &clone, nil
}

func (m *mockStorage) ListPlans(filter *model.PlanFilter) ([]model.Plan, error) {
	result := make([]model.Plan, 0, len(m.plans))
	for _, p := range m.plans {
		if filter != nil && filter.Source != "" && p.Source != filter.Source {
			continue
		}
		summary := *p
		summary.Manifest = ""
		summary.Output = ""
		result = append(result, summary)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})
	if filter != nil && filter.Limit > 0 && len(result) > filter.Limit {
		result = result[:filter.Limit]
	}
	return result, nil
}

func (m *mockStorage) DeletePlan(id string) error {
	if _, ok := m.plans[id]; !ok {
		return storage.ErrPlanNotFound
	}
	delete(m.plans, id)
	return nil
}

func (m *mockStorage) PrunePlans(olderThan time.Time) (int, error) {
	removed := 0
	for id, p := range m.plans {
		if p.CreatedAt.Before(olderThan) {
			delete(m.plans, id)
			removed++
		}
	}
	return removed, nil
}

func (m *mockStorage) CountPlans() (int, error) {
	return len(m.plans), nil
}

func (m *mockStorage) Close() error {
	return nil
}

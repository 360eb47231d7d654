package storage

import (
	"fmt"
	"time"

	"kantong/internal/core"
)

// SystemCategories mirrors the rows seeded by 0002_system_categories. Backends
// without migrations seed from here.
func SystemCategories() []core.Category {
	seed := []struct {
		name, icon string
		typ        core.BucketType
	}{
		{"Groceries", "🛒", core.Needs},
		{"Rent", "🏠", core.Needs},
		{"Utilities", "💡", core.Needs},
		{"Transport", "🚗", core.Needs},
		{"Healthcare", "🏥", core.Needs},
		{"Education", "📚", core.Needs},
		{"Dining Out", "🍽️", core.Wants},
		{"Shopping", "🛍️", core.Wants},
		{"Entertainment", "🎮", core.Wants},
		{"Hobbies", "🎨", core.Wants},
		{"Subscription", "📱", core.Wants},
		{"Travel", "✈️", core.Wants},
		{"Emergency Fund", "🆘", core.Savings},
		{"Investment", "📈", core.Savings},
		{"Goal Savings", "🎯", core.Savings},
	}
	colors := map[core.BucketType]string{
		core.Needs:   "#10b981",
		core.Wants:   "#f59e0b",
		core.Savings: "#3b82f6",
	}
	seededAt := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

	out := make([]core.Category, 0, len(seed))
	for i, s := range seed {
		out = append(out, core.Category{
			ID:        fmt.Sprintf("5f0c7a52-1b0e-4c1e-9a01-%012x", i+1),
			Name:      s.name,
			Type:      s.typ,
			Icon:      s.icon,
			Color:     colors[s.typ],
			IsSystem:  true,
			CreatedAt: seededAt,
			UpdatedAt: seededAt,
		})
	}
	return out
}

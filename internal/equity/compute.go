package equity

import (
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/mwhitfield/wishlist-backend/pkg/db/models"
	"github.com/mwhitfield/wishlist-backend/pkg/enums"
)

// balanceThreshold is the fraction of the average reserved value that the
// max-min spread may reach before the distribution counts as unbalanced.
var balanceThreshold = decimal.NewFromFloat(0.3)

// ChildStats is the per-child slice of an equity snapshot.
type ChildStats struct {
	ChildID        uuid.UUID        `json:"child_id"`
	ChildName      string           `json:"child_name"`
	TotalItems     int              `json:"total_items"`
	ApprovedItems  int              `json:"approved_items"`
	ReservedItems  int              `json:"reserved_items"`
	PurchasedItems int              `json:"purchased_items"`
	ReservedValue  decimal.Decimal  `json:"reserved_value"`
	PurchasedValue decimal.Decimal  `json:"purchased_value"`
	ReserverNames  []string         `json:"reserver_names"`
	TargetBudget   *decimal.Decimal `json:"target_budget,omitempty"`
	BudgetPercent  *decimal.Decimal `json:"budget_percent,omitempty"`
}

// Snapshot is the full equity picture across all children. It is derived on
// every read and never persisted, so it cannot drift from the source rows.
type Snapshot struct {
	Children             []ChildStats    `json:"children"`
	TotalReservedValue   decimal.Decimal `json:"total_reserved_value"`
	AverageReservedValue decimal.Decimal `json:"average_reserved_value"`
	MaxReservedValue     decimal.Decimal `json:"max_reserved_value"`
	MinReservedValue     decimal.Decimal `json:"min_reserved_value"`
	IsBalanced           bool            `json:"is_balanced"`
	GeneratedAt          time.Time       `json:"generated_at"`
}

// Compute aggregates the snapshots into per-child statistics plus cross-child
// balance figures. Pure function, no I/O.
func Compute(children []models.Child, items []models.Item, reservations []models.Reservation) Snapshot {
	byItem := make(map[uuid.UUID]*models.Reservation, len(reservations))
	for i := range reservations {
		byItem[reservations[i].ItemID] = &reservations[i]
	}

	snapshot := Snapshot{
		Children:             make([]ChildStats, 0, len(children)),
		TotalReservedValue:   decimal.Zero,
		AverageReservedValue: decimal.Zero,
		MaxReservedValue:     decimal.Zero,
		MinReservedValue:     decimal.Zero,
		GeneratedAt:          time.Now().UTC(),
	}

	for c := range children {
		child := children[c]
		stats := ChildStats{
			ChildID:        child.ID,
			ChildName:      child.Name,
			ReservedValue:  decimal.Zero,
			PurchasedValue: decimal.Zero,
			ReserverNames:  []string{},
			TargetBudget:   child.TargetBudget,
		}

		seenReservers := map[string]struct{}{}
		for i := range items {
			item := items[i]
			if item.ChildID == nil || *item.ChildID != child.ID {
				continue
			}
			stats.TotalItems++
			if item.Status != enums.ItemStatusApproved {
				continue
			}
			stats.ApprovedItems++

			reservation := byItem[item.ID]
			if reservation == nil {
				continue
			}
			stats.ReservedItems++
			stats.ReservedValue = stats.ReservedValue.Add(item.Price)
			if reservation.Purchased {
				stats.PurchasedItems++
				stats.PurchasedValue = stats.PurchasedValue.Add(item.Price)
			}
			if reservation.Reserver != nil {
				seenReservers[reservation.Reserver.Name] = struct{}{}
			}
		}

		for name := range seenReservers {
			stats.ReserverNames = append(stats.ReserverNames, name)
		}
		sort.Strings(stats.ReserverNames)

		if child.TargetBudget != nil && child.TargetBudget.IsPositive() {
			percent := stats.ReservedValue.
				Div(*child.TargetBudget).
				Mul(decimal.NewFromInt(100)).
				Round(1)
			stats.BudgetPercent = &percent
		}

		snapshot.Children = append(snapshot.Children, stats)
	}

	for i := range snapshot.Children {
		value := snapshot.Children[i].ReservedValue
		snapshot.TotalReservedValue = snapshot.TotalReservedValue.Add(value)
		if i == 0 {
			snapshot.MaxReservedValue = value
			snapshot.MinReservedValue = value
			continue
		}
		if value.GreaterThan(snapshot.MaxReservedValue) {
			snapshot.MaxReservedValue = value
		}
		if value.LessThan(snapshot.MinReservedValue) {
			snapshot.MinReservedValue = value
		}
	}

	count := len(snapshot.Children)
	if count > 0 {
		snapshot.AverageReservedValue = snapshot.TotalReservedValue.
			Div(decimal.NewFromInt(int64(count)))
	}

	// A single child (or none) is vacuously balanced; comparing a list
	// against itself says nothing about fairness.
	if count <= 1 {
		snapshot.IsBalanced = true
		return snapshot
	}
	spread := snapshot.MaxReservedValue.Sub(snapshot.MinReservedValue)
	snapshot.IsBalanced = spread.LessThan(snapshot.AverageReservedValue.Mul(balanceThreshold))
	return snapshot
}

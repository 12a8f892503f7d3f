package api

import (
	"sort"
	"time"
)

// LowStockThreshold is the quantity below which a product needs restocking.
const LowStockThreshold = 10

type DashboardStats struct {
	TotalRevenue     float64
	TotalOrders      int
	TotalProducts    int
	PendingOrders    int
	CompletedOrders  int
	LowStockProducts int
}

// Stats summarizes orders and products for the overview screen.
func Stats(orders []Order, products []Product) DashboardStats {
	s := DashboardStats{
		TotalOrders:   len(orders),
		TotalProducts: len(products),
	}
	for _, o := range orders {
		s.TotalRevenue += o.Total
		if o.Confirmed {
			s.CompletedOrders++
		} else {
			s.PendingOrders++
		}
	}
	for _, p := range products {
		if p.Quantity < LowStockThreshold {
			s.LowStockProducts++
		}
	}
	return s
}

// LowStock returns up to limit products under LowStockThreshold in list
// order. limit <= 0 returns all of them.
func LowStock(products []Product, limit int) []Product {
	var out []Product
	for _, p := range products {
		if p.Quantity >= LowStockThreshold {
			continue
		}
		out = append(out, p)
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out
}

// RecentOrders returns the n newest orders by created_at. Orders without a
// parseable timestamp sort last.
func RecentOrders(orders []Order, n int) []Order {
	sorted := make([]Order, len(orders))
	copy(sorted, orders)
	sort.SliceStable(sorted, func(i, j int) bool {
		return orderTime(sorted[i]).After(orderTime(sorted[j]))
	})
	if n > 0 && len(sorted) > n {
		sorted = sorted[:n]
	}
	return sorted
}

func orderTime(o Order) time.Time {
	if o.CreatedAt == "" {
		return time.Time{}
	}
	for _, layout := range []string{time.RFC3339Nano, "2006-01-02T15:04:05", "2006-01-02 15:04:05", time.DateOnly} {
		if t, err := time.Parse(layout, o.CreatedAt); err == nil {
			return t
		}
	}
	return time.Time{}
}

package services

import (
	"iter"

	"divar-tracker/models"
)

// BoundingBox is a map rectangle given by two opposite corners.
type BoundingBox struct {
	Lon1, Lat1, Lon2, Lat2 float64
}

// Grid declares the values of every sweep dimension. The sweep covers their
// full Cartesian product.
type Grid struct {
	BoundingBoxes []BoundingBox
	Categories    []string
	PriceCeilings []int64
	// Recencies may contain "" to sweep without a recency filter.
	Recencies []string
}

// DefaultGrid is the production sweep: Tehran and Isfahan, two categories,
// three price ceilings plus unrestricted, last day / last week / any time.
func DefaultGrid() Grid {
	return Grid{
		BoundingBoxes: []BoundingBox{
			{Lon1: 51.12108541489556, Lat1: 35.53440416028046, Lon2: 51.624314585103065, Lat2: 35.88361336225029},
			{Lon1: 51.48855091343077, Lat1: 32.519298780640995, Lon2: 51.80264908656426, Lat2: 32.745358440861224},
		},
		Categories:    []string{"apartment-sell", "plot-old"},
		PriceCeilings: []int64{12000000000, 8000000000, 4000000000, models.NoPriceCeiling},
		Recencies:     []string{"1d", "7d", ""},
	}
}

// Size is the number of queries All yields.
func (g Grid) Size() int {
	return len(g.BoundingBoxes) * len(g.Categories) * len(g.PriceCeilings) * len(g.Recencies)
}

// All yields one ListingQuery per grid cell, ordered bounding box, category,
// price, recency (recency varies fastest). Each call starts a fresh pass.
func (g Grid) All() iter.Seq[models.ListingQuery] {
	return func(yield func(models.ListingQuery) bool) {
		dims := []int{len(g.BoundingBoxes), len(g.Categories), len(g.PriceCeilings), len(g.Recencies)}
		for idx := range product(dims...) {
			box := g.BoundingBoxes[idx[0]]
			q := models.ListingQuery{
				Lon1:         box.Lon1,
				Lat1:         box.Lat1,
				Lon2:         box.Lon2,
				Lat2:         box.Lat2,
				Category:     g.Categories[idx[1]],
				PriceCeiling: g.PriceCeilings[idx[2]],
				Recency:      g.Recencies[idx[3]],
			}
			if !yield(q) {
				return
			}
		}
	}
}

// product yields every index tuple for the given dimension sizes in
// row-major order. The yielded slice is reused between iterations.
func product(sizes ...int) iter.Seq[[]int] {
	return func(yield func([]int) bool) {
		for _, n := range sizes {
			if n == 0 {
				return
			}
		}

		idx := make([]int, len(sizes))
		for {
			if !yield(idx) {
				return
			}
			d := len(sizes) - 1
			for ; d >= 0; d-- {
				idx[d]++
				if idx[d] < sizes[d] {
					break
				}
				idx[d] = 0
			}
			if d < 0 {
				return
			}
		}
	}
}

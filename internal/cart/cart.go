// Package cart places shopping list items into a retailer's online cart.
package cart

import (
	"context"
	"errors"
	"time"

	"mealcart/internal/shopping"
)

// ErrProductNotFound is reported for an item whose search returned no product.
var ErrProductNotFound = errors.New("no product found")

// Filler places aggregated shopping items into a retailer cart.
//
// Fill attempts every item even when some fail; a per-item failure is
// recorded in the report and never returned as the error. The error is only
// non-nil when the run as a whole could not proceed, e.g. ctx was cancelled,
// in which case the report covers the items attempted so far.
type Filler interface {
	Fill(ctx context.Context, items []shopping.AggregatedIngredient) (Report, error)
}

// Product is a retailer listing matched to a shopping item.
type Product struct {
	ID    string `json:"id"`
	Title string `json:"title"`
	Price string `json:"price,omitempty"`
	URL   string `json:"url,omitempty"`
}

// ItemResult is the outcome of placing a single item.
type ItemResult struct {
	Name    string   `json:"name"`
	Amount  float64  `json:"amount"`
	Unit    string   `json:"unit"`
	Product *Product `json:"product,omitempty"`
	Added   bool     `json:"added"`
	Error   string   `json:"error,omitempty"`
}

// Report summarizes one cart run.
type Report struct {
	RunID      string       `json:"run_id"`
	Results    []ItemResult `json:"results"`
	Added      int          `json:"added"`
	Failed     int          `json:"failed"`
	StartedAt  time.Time    `json:"started_at"`
	FinishedAt time.Time    `json:"finished_at"`
}

func (r *Report) record(res ItemResult) {
	r.Results = append(r.Results, res)
	if res.Added {
		r.Added++
	} else {
		r.Failed++
	}
}

// Quantity is the number of retail units ordered for an item. Amounts are in
// recipe units (cups, grams) that do not map onto package sizes, so one
// package is ordered per shopping line.
func Quantity(shopping.AggregatedIngredient) int {
	return 1
}

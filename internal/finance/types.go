// Package finance keeps per-club bookkeeping ledgers and budgets in a flat
// JSON file and exposes the AI-assisted financial endpoints built on them.
package finance

// DefaultCategory is assigned to entries recorded without a category.
const DefaultCategory = "uncategorized"

// LedgerEntry is one recorded spending item. Entries are immutable once
// appended. ID and RecordedAt are assigned by the store, never by callers.
type LedgerEntry struct {
	ID         string  `json:"id"`
	Item       string  `json:"item"`
	Amount     float64 `json:"amount"`
	Category   string  `json:"category"`
	Payer      string  `json:"payer,omitempty"`
	Date       string  `json:"date,omitempty"`
	Remark     string  `json:"remark,omitempty"`
	RecordedAt string  `json:"recorded_at"`
}

// Budget is a club's spending plan. Absent until set explicitly.
type Budget struct {
	Limit       float64 `json:"limit"`
	Description string  `json:"description,omitempty"`
	UpdatedAt   string  `json:"updated_at,omitempty"`
}

// TenantLedger is everything stored for one club.
type TenantLedger struct {
	Entries []LedgerEntry `json:"entries"`
	Budget  *Budget       `json:"budget,omitempty"`
}

// Spent sums the amounts of all entries.
func (l *TenantLedger) Spent() float64 {
	var total float64
	for _, e := range l.Entries {
		total += e.Amount
	}
	return total
}

// ByCategory sums entry amounts per category.
func (l *TenantLedger) ByCategory() map[string]float64 {
	sums := make(map[string]float64)
	for _, e := range l.Entries {
		cat := e.Category
		if cat == "" {
			cat = DefaultCategory
		}
		sums[cat] += e.Amount
	}
	return sums
}

package repository

import "time"

// --- Parameter Structs ---

// ListRefundsParams filters and pages the ledger listing.
type ListRefundsParams struct {
	Status string
	Search string
	Limit  int
	Offset int
}

// MonthRange returns the [start, end) interval of a calendar month in the local time zone.
func MonthRange(year, month int) (time.Time, time.Time) {
	start := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.Local)
	return start, start.AddDate(0, 1, 0)
}

package core

// CategoryTotal is one category's share of a month: the spent amount in major
// units and its percentage of the month's grand total.
type CategoryTotal struct {
	Amount     float64 `json:"amount"`
	Percentage float64 `json:"percentage"`
}

// CategoryAverage is one category's average expense in major units and its
// percentage of the highest category average for the month.
type CategoryAverage struct {
	Average    float64 `json:"average"`
	Percentage float64 `json:"percentage"`
}

// Pagination describes one page of an ordered result set. Pages are 1-based.
type Pagination struct {
	CurrentPage     int  `json:"current_page"`
	TotalPages      int  `json:"total_pages"`
	HasNextPage     bool `json:"has_next_page"`
	HasPreviousPage bool `json:"has_previous_page"`
	TotalCount      int  `json:"total_count"`
	PageSize        int  `json:"page_size"`
}

// ExpensePage is one page of a user's expenses for a month, newest first.
type ExpensePage struct {
	Items      []Expense
	Pagination Pagination
}

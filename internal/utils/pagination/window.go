package pagination

// Window is a skip/limit slice over an ordered result set. Limit 0 means
// "everything after Skip".
type Window struct {
	Skip  int
	Limit int
}

// Unbounded reports whether the window keeps every row after Skip.
func (w Window) Unbounded() bool {
	return w.Limit <= 0
}

// Page returns the ledger window for a 1-based page of perPage rows.
// perPage <= 0 disables paging and page < 1 is treated as the first page.
func Page(page, perPage int) Window {
	if perPage <= 0 {
		return Window{}
	}
	if page < 1 {
		page = 1
	}
	return Window{Skip: (page - 1) * perPage, Limit: perPage}
}

// From returns the balance window: the newest (page-1)*perPage rows are
// skipped and everything older is kept, which reconstructs the running total
// as it stood before those rows.
func From(page, perPage int) Window {
	w := Page(page, perPage)
	w.Limit = 0
	return w
}

// Apply slices n ordered rows and returns the [start, end) bounds of the window.
func (w Window) Apply(n int) (start, end int) {
	start = w.Skip
	if start < 0 {
		start = 0
	}
	if start > n {
		start = n
	}
	end = n
	if !w.Unbounded() && start+w.Limit < n {
		end = start + w.Limit
	}
	return start, end
}

package ranking

import "github.com/fieldops/techrank/internal/domain/filter"

// Query is one ranking request: which technicians, which of their jobs,
// and how to order them.
type Query struct {
	Technicians filter.TechnicianFilter
	Jobs        filter.JobFilter
	SortBy      SortKey
	Order       Order
}

// ParseQuery builds a Query from wire values, rejecting unknown sort keys
// and orders.
func ParseQuery(tf filter.TechnicianFilter, jf filter.JobFilter, sortBy, order string) (Query, error) {
	key, err := ParseSortKey(sortBy)
	if err != nil {
		return Query{}, err
	}
	o, err := ParseOrder(order)
	if err != nil {
		return Query{}, err
	}
	return Query{Technicians: tf, Jobs: jf, SortBy: key, Order: o}, nil
}

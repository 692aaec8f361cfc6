package models

type SortOrder string

const (
	SortPriceLow  SortOrder = "price_low"
	SortPriceHigh SortOrder = "price_high"
	SortNewest    SortOrder = "newest"
)

// ParseSortOrder maps the sort query parameter; anything unrecognized sorts newest first.
func ParseSortOrder(s string) SortOrder {
	switch SortOrder(s) {
	case SortPriceLow:
		return SortPriceLow
	case SortPriceHigh:
		return SortPriceHigh
	default:
		return SortNewest
	}
}

// ItemQuery is a list request. Empty Search and Category mean no constraint.
type ItemQuery struct {
	Search   string
	Category string
	Sort     SortOrder
}

func NewItemQuery(search, category, sort string) ItemQuery {
	return ItemQuery{
		Search:   search,
		Category: category,
		Sort:     ParseSortOrder(sort),
	}
}

package enums

import "fmt"

// ProductSort selects the catalog ordering.
type ProductSort string

const (
	ProductSortName      ProductSort = "nombre"
	ProductSortPriceAsc  ProductSort = "precio-asc"
	ProductSortPriceDesc ProductSort = "precio-desc"
	ProductSortStock     ProductSort = "stock"
)

var validProductSorts = []ProductSort{
	ProductSortName,
	ProductSortPriceAsc,
	ProductSortPriceDesc,
	ProductSortStock,
}

// String implements fmt.Stringer.
func (s ProductSort) String() string {
	return string(s)
}

// IsValid reports whether the value is a known ProductSort.
func (s ProductSort) IsValid() bool {
	for _, candidate := range validProductSorts {
		if candidate == s {
			return true
		}
	}
	return false
}

// ParseProductSort converts raw input into a ProductSort, defaulting to name order.
func ParseProductSort(value string) (ProductSort, error) {
	if value == "" {
		return ProductSortName, nil
	}
	for _, candidate := range validProductSorts {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid product sort %q", value)
}

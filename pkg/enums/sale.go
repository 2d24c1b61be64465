package enums

import "fmt"

// SaleType maps to the sale_type enum in Postgres.
type SaleType string

const (
	SaleBuyNow  SaleType = "buy_now"
	SaleAuction SaleType = "auction"
)

var validSaleTypes = []SaleType{
	SaleBuyNow,
	SaleAuction,
}

// IsValid reports whether the value matches the canonical sale_type enum.
func (s SaleType) IsValid() bool {
	for _, candidate := range validSaleTypes {
		if candidate == s {
			return true
		}
	}
	return false
}

// ParseSaleType converts raw input into SaleType.
func ParseSaleType(value string) (SaleType, error) {
	for _, candidate := range validSaleTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid sale type %q", value)
}

package delivery

import (
	"strings"

	"github.com/atlas-express/service-delivery/internal/apperr"
)

// ProductType classifies the cargo being delivered. The values are the
// French labels the booking frontend submits.
type ProductType string

const (
	ProductTypeFroid      ProductType = "froid"
	ProductTypeFragile    ProductType = "fragile"
	ProductTypeNourriture ProductType = "nourriture"
	ProductTypeColis      ProductType = "colis"
	ProductTypeDocuments  ProductType = "documents"
)

var productMultipliers = map[ProductType]float64{
	ProductTypeFroid:      1.5,
	ProductTypeFragile:    1.3,
	ProductTypeNourriture: 1.2,
	ProductTypeColis:      1.0,
	ProductTypeDocuments:  0.9,
}

// IsValid returns true if the product type is recognized.
func (p ProductType) IsValid() bool {
	_, ok := productMultipliers[p]
	return ok
}

// Multiplier returns the price multiplier for this product type.
// Unknown types get the neutral multiplier 1.0, which keeps quoting
// possible for entry points that accept arbitrary product strings.
func (p ProductType) Multiplier() float64 {
	if m, ok := productMultipliers[p]; ok {
		return m
	}
	return 1.0
}

// String returns the string representation of the product type.
func (p ProductType) String() string {
	return string(p)
}

// ParseProductType normalizes and validates a product type string.
// An empty value defaults to colis; an unknown value is rejected.
func ParseProductType(s string) (ProductType, error) {
	normalized := strings.ToLower(strings.TrimSpace(s))
	if normalized == "" {
		return ProductTypeColis, nil
	}
	product := ProductType(normalized)
	if !product.IsValid() {
		return "", apperr.Validationf("invalid product type: %s", s)
	}
	return product, nil
}

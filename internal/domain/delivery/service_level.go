package delivery

import (
	"strings"

	"github.com/atlas-express/service-delivery/internal/apperr"
)

// ServiceLevel represents the delivery service tier chosen by the customer.
type ServiceLevel string

const (
	ServiceLevelExpress  ServiceLevel = "express"
	ServiceLevelStandard ServiceLevel = "standard"
	ServiceLevelEconomy  ServiceLevel = "economy"
)

// Tariff is the fixed rate tuple bound to a service level.
type Tariff struct {
	Base       float64
	PerKm      float64
	PerMin     float64
	Multiplier float64
}

var tariffs = map[ServiceLevel]Tariff{
	ServiceLevelExpress:  {Base: 15, PerKm: 2.5, PerMin: 0.5, Multiplier: 1.5},
	ServiceLevelStandard: {Base: 10, PerKm: 1.5, PerMin: 0.3, Multiplier: 1.0},
	ServiceLevelEconomy:  {Base: 5, PerKm: 1.0, PerMin: 0.2, Multiplier: 0.8},
}

// IsValid returns true if the service level is recognized.
func (s ServiceLevel) IsValid() bool {
	_, ok := tariffs[s]
	return ok
}

// Tariff returns the rate tuple for this service level. Callers must validate
// the level first; an unknown level gets the standard tariff.
func (s ServiceLevel) Tariff() Tariff {
	if t, ok := tariffs[s]; ok {
		return t
	}
	return tariffs[ServiceLevelStandard]
}

// String returns the string representation of the service level.
func (s ServiceLevel) String() string {
	return string(s)
}

// ParseServiceLevel normalizes and validates a service level string.
// An empty value defaults to standard; an unknown value is rejected.
func ParseServiceLevel(s string) (ServiceLevel, error) {
	normalized := strings.ToLower(strings.TrimSpace(s))
	if normalized == "" {
		return ServiceLevelStandard, nil
	}
	level := ServiceLevel(normalized)
	if !level.IsValid() {
		return "", apperr.Validationf("invalid service level: %s", s)
	}
	return level, nil
}

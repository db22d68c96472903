package delivery

import (
	"testing"

	"github.com/atlas-express/service-delivery/internal/apperr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseServiceLevel(t *testing.T) {
	t.Run("empty defaults to standard", func(t *testing.T) {
		level, err := ParseServiceLevel("")
		require.NoError(t, err)
		assert.Equal(t, ServiceLevelStandard, level)
	})

	t.Run("case and whitespace insensitive", func(t *testing.T) {
		level, err := ParseServiceLevel("  EXPRESS ")
		require.NoError(t, err)
		assert.Equal(t, ServiceLevelExpress, level)
	})

	t.Run("unknown rejected", func(t *testing.T) {
		_, err := ParseServiceLevel("premium")
		require.Error(t, err)
		assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))
	})
}

func TestServiceLevelTariffs(t *testing.T) {
	express := ServiceLevelExpress.Tariff()
	assert.Equal(t, Tariff{Base: 15, PerKm: 2.5, PerMin: 0.5, Multiplier: 1.5}, express)

	standard := ServiceLevelStandard.Tariff()
	assert.Equal(t, Tariff{Base: 10, PerKm: 1.5, PerMin: 0.3, Multiplier: 1.0}, standard)

	economy := ServiceLevelEconomy.Tariff()
	assert.Equal(t, Tariff{Base: 5, PerKm: 1.0, PerMin: 0.2, Multiplier: 0.8}, economy)

	// Unknown levels fall back to the standard tariff.
	assert.Equal(t, standard, ServiceLevel("bogus").Tariff())
}

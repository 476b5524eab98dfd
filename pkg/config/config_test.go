package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestConfigsArePositive(t *testing.T) {
	all := append(DefaultConfigs(), HighConcurrencyConfigs()...)
	for _, cfg := range all {
		assert.Positive(t, cfg.NumProducers, "%+v", cfg)
		assert.Positive(t, cfg.NumConsumers, "%+v", cfg)
	}
}

package config

import "github.com/i5heu/GoMoreCollections/internal/testbench"

// Config is an alias for testbench.Config. This allows other programs to import
// the workload configuration without pulling in the entire testbench package.
type Config = testbench.Config

// DefaultConfigs are the producer/consumer mixes cmd/bench always runs.
func DefaultConfigs() []Config {
	return []Config{
		{NumProducers: 1, NumConsumers: 1},
		{NumProducers: 2, NumConsumers: 2},
		{NumProducers: 8, NumConsumers: 2},
		{NumProducers: 10, NumConsumers: 10},
	}
}

// HighConcurrencyConfigs are added by cmd/bench -high-concurrency.
func HighConcurrencyConfigs() []Config {
	return []Config{
		{NumProducers: 50, NumConsumers: 50},
		{NumProducers: 100, NumConsumers: 100},
		{NumProducers: 200, NumConsumers: 20},
	}
}

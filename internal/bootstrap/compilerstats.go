package bootstrap

import (
	"github.com/canonica-labs/dagplan/internal/adapters"
	"github.com/canonica-labs/dagplan/internal/joincompiler"
	"github.com/canonica-labs/dagplan/internal/splitindex"
)

// TableEngines maps a schema-qualified table name ("schema.table") to the
// name of the adapter registered in an AdapterRegistry that owns it,
// mirroring how a VirtualTable's PhysicalSource.Engine names its preferred
// engine.
type TableEngines map[string]string

// TableEnginesFromConfig derives a TableEngines map from a declarative
// Config's Tables section, taking the first source's engine as each
// table's preferred one (the compiler's stats lookup cares about engine
// identity only, not multi-source fan-out).
func TableEnginesFromConfig(cfg *Config) TableEngines {
	out := make(TableEngines, len(cfg.Tables))
	for name, tc := range cfg.Tables {
		if len(tc.Sources) == 0 || tc.Sources[0].Engine == "" {
			continue
		}
		out[name] = tc.Sources[0].Engine
	}
	return out
}

// NewCompilerStatsLookup wires an AdapterRegistry into a
// joincompiler.StatsLookup: on each call it resolves the table's engine
// from engines, looks that adapter up in registry, and wraps it in a
// splitindex.EngineStatsProvider. A table with no configured engine, or
// whose engine isn't registered, resolves to nil — the split index factory
// then falls back to its configured default split size instead of failing
// the compile.
func NewCompilerStatsLookup(engines TableEngines, registry *adapters.AdapterRegistry, rowsPerSplit int64, fallbackSplitSize int) joincompiler.StatsLookup {
	return func(schema, table string) splitindex.StatsProvider {
		name, ok := engines[schema+"."+table]
		if !ok {
			return nil
		}
		engine, ok := registry.Get(name)
		if !ok {
			return nil
		}
		return splitindex.NewEngineStatsProvider(engine, rowsPerSplit, fallbackSplitSize)
	}
}

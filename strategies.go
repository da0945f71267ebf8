package access

import (
	"context"
)

// writeStrategy is one path for applying a privileged write. Strategies run
// in order; the first one that applies wins. A strategy that reports
// "unavailable" (undeployed procedure, unmigrated column) yields to the next
// one, while an unexpected failure stops the chain with no retry.
type writeStrategy struct {
	name  string
	apply func(ctx context.Context) error
}

type strategyOutcome int

const (
	strategyApplied strategyOutcome = iota
	strategyUnavailable
	strategyFailed
)

func classifyStrategyError(err error) strategyOutcome {
	switch {
	case err == nil:
		return strategyApplied
	case IsProcedureMissing(err), IsSchemaNotMigrated(err):
		return strategyUnavailable
	default:
		return strategyFailed
	}
}

func runWriteStrategies(ctx context.Context, logger Logger, strategies []writeStrategy) bool {
	for _, s := range strategies {
		err := s.apply(ctx)
		switch classifyStrategyError(err) {
		case strategyApplied:
			return true
		case strategyUnavailable:
			logger.Debug("write strategy %s unavailable, trying next", s.name)
		case strategyFailed:
			logger.Error("write strategy %s failed: %v", s.name, err)
			return false
		}
	}
	return false
}

package cli

import (
	"context"
	"fmt"

	coreapp "crossref/internal/core/app"
	"crossref/internal/core/ports"
)

// analysis is the service surface the commands drive.
type analysis interface {
	ports.AnalysisService
	Close(ctx context.Context) error
	Health() *coreapp.HealthService
}

type analysisFactory interface {
	New(s *session) (analysis, error)
}

type coreAnalysisFactory struct{}

func (coreAnalysisFactory) New(s *session) (analysis, error) {
	a, err := coreapp.New(s.cfg, s.root)
	if err != nil {
		return nil, err
	}
	a.ConfigPath = s.configPath
	a.OnReload = applyReload
	return a, nil
}

// factory is replaced in tests.
var factory analysisFactory = coreAnalysisFactory{}

func initializeAnalysis(s *session) (analysis, error) {
	if factory == nil {
		return nil, fmt.Errorf("analysis factory is required")
	}
	return factory.New(s)
}

var _ analysis = (*coreapp.App)(nil)

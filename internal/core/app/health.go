package app

import (
	"context"
	"fmt"
	"time"
)

type HealthStatus struct {
	Status     string            `json:"status"`
	Timestamp  time.Time         `json:"timestamp"`
	Components map[string]string `json:"components"`
}

type HealthService struct {
	app *App
}

func NewHealthService(app *App) *HealthService {
	return &HealthService{app: app}
}

// Health returns a health service reporting on a.
func (a *App) Health() *HealthService {
	return NewHealthService(a)
}

// Check reports "up" while the index processor runs and "degraded" otherwise.
func (s *HealthService) Check(ctx context.Context) HealthStatus {
	status := HealthStatus{
		Status:     "up",
		Timestamp:  time.Now().UTC(),
		Components: make(map[string]string),
	}

	s.app.mu.Lock()
	running := s.app.running
	s.app.mu.Unlock()

	stats := s.app.index.Statistics()
	if running {
		status.Components["index"] = fmt.Sprintf("ok (%d elements, %d relationships, %d pending)",
			stats.Elements, stats.Relationships, s.app.index.Pending())
	} else {
		status.Status = "degraded"
		status.Components["index"] = "stopped"
	}

	status.Components["frontend"] = fmt.Sprintf("ok (%d java files, %d html files)",
		len(s.app.analyzer.Paths()), len(s.app.trackedHTML()))

	return status
}

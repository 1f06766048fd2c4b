package chi

import (
	"context"

	"github.com/kailas-cloud/roomfinder/internal/domain/search/request"
	"github.com/kailas-cloud/roomfinder/internal/usecase/detection"
	healthuc "github.com/kailas-cloud/roomfinder/internal/usecase/health"
	searchuc "github.com/kailas-cloud/roomfinder/internal/usecase/search"
)

// Searcher is the search use case as seen by the HTTP layer.
type Searcher interface {
	Search(ctx context.Context, req *request.Request) (searchuc.Outcome, error)
	DetectRoomType(ctx context.Context, query string) (detection.Result, error)
	AvailableRoomTypes(ctx context.Context) ([]string, error)
	Suggestions(ctx context.Context, partial string) (searchuc.Suggestions, error)
	Insights() (detection.Insights, error)
	ResetLearning() error
	SetLearning(on bool) (bool, error)
}

// HealthChecker aggregates component probes.
type HealthChecker interface {
	Check(ctx context.Context) healthuc.Report
}

package health

import "context"

// DBPinger checks vector store availability.
type DBPinger interface {
	Ping(ctx context.Context) error
}

// EmbeddingChecker checks embedding provider availability.
type EmbeddingChecker interface {
	HealthCheck(ctx context.Context) error
}

// Vocabulary reports the room types the tag corpus currently knows.
type Vocabulary interface {
	RoomTypes(ctx context.Context) ([]string, error)
}

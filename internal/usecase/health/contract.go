package health

import "context"

// Checker is any component that can report its own availability.
type Checker interface {
	HealthCheck(ctx context.Context) error
}

// DBPinger checks key-value store availability.
type DBPinger interface {
	Ping(ctx context.Context) error
}

package state

import (
	"context"
	"errors"

	domain "github.com/oshokin/alarm-clock/internal/domain/alarm"
)

// Repository defines persistence operations for the alarm record.
type Repository interface {
	Load(ctx context.Context) (*domain.Record, error)
	Save(ctx context.Context, record *domain.Record) error
}

// ErrNotFound is returned when nothing was saved yet.
var ErrNotFound = errors.New("state not found")

// Package store provides data persistence interfaces and implementations.
package store

import (
	"context"

	"github.com/ashureev/mischief-wheel/internal/domain"
)

// Repository defines the interface for the challenge catalog.
type Repository interface {
	// SeedChallenges replaces the catalog with challenges, in order.
	SeedChallenges(ctx context.Context, challenges []domain.Challenge) error

	// ListChallenges returns the catalog in wheel order.
	ListChallenges(ctx context.Context) ([]domain.Challenge, error)

	// CountChallenges returns the catalog size.
	CountChallenges(ctx context.Context) (int, error)

	// Ping verifies database connectivity and returns an error if the database is unreachable.
	Ping(ctx context.Context) error

	// Close closes the database connection.
	Close() error
}

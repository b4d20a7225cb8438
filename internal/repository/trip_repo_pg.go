package repository

import (
	"context"

	"github.com/Domenick1991/ridepay/internal/domain"
)

type TripRepository interface {
	GetByID(ctx context.Context, id string) (*domain.Trip, error)
}

type PGTripRepository struct {
	db DB
}

func NewTripRepository(db DB) TripRepository {
	return &PGTripRepository{db: db}
}

func (r *PGTripRepository) GetByID(ctx context.Context, id string) (*domain.Trip, error) {
	var t domain.Trip
	if err := r.db.QueryRow(ctx, `SELECT id, departure_time FROM trips WHERE id=$1`, id).Scan(&t.ID, &t.DepartureTime); err != nil {
		return nil, wrapNotFound(err)
	}
	return &t, nil
}

var _ TripRepository = (*PGTripRepository)(nil)

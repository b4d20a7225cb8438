package repository

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
)

func TestNewRepositories(t *testing.T) {
	pool := &pgxpool.Pool{}
	assert.NotNil(t, NewBookingRepository(pool))
	assert.NotNil(t, NewTripRepository(pool))
	assert.NotNil(t, NewWebhookEventRepository(pool))
}

func TestWrapNotFound(t *testing.T) {
	assert.ErrorIs(t, wrapNotFound(pgx.ErrNoRows), ErrNotFound)
	assert.ErrorIs(t, wrapNotFound(fmt.Errorf("scan: %w", pgx.ErrNoRows)), ErrNotFound)

	other := errors.New("connection reset")
	assert.Equal(t, other, wrapNotFound(other))
}

package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Domenick1991/ridepay/internal/domain"
	"github.com/jackc/pgx/v5"
)

type BookingRepository interface {
	GetByID(ctx context.Context, id string) (*domain.Booking, error)
	// AttachPayment records the provider payment a client just created. It never
	// touches the status.
	AttachPayment(ctx context.Context, id, paymentID, method, payerEmail string) error
	// ConfirmPayment moves an unpaid booking to confirmed and stores the fee
	// split. applied is false when the booking was already past that point.
	ConfirmPayment(ctx context.Context, id, paymentID string, split domain.FeeSplit) (booking *domain.Booking, applied bool, err error)
	// MarkFailed moves a pending booking to failed.
	MarkFailed(ctx context.Context, id, paymentID string) (booking *domain.Booking, applied bool, err error)
	// Cancel moves the booking to cancelled only if it still has the expected
	// status, and remembers that status in cancelled_from.
	Cancel(ctx context.Context, id string, expected domain.BookingStatus) (*domain.Booking, error)
	ListPendingWithPayment(ctx context.Context, updatedBefore time.Time) ([]domain.Booking, error)
}

type PGBookingRepository struct {
	db DB
}

func NewBookingRepository(db DB) BookingRepository {
	return &PGBookingRepository{db: db}
}

const bookingColumns = `id, trip_id, total_price, status, payment_id, payment_method, payer_email, origin_name, destination_name, app_fee, driver_amount, cancelled_from, created_at, updated_at`

func (r *PGBookingRepository) GetByID(ctx context.Context, id string) (*domain.Booking, error) {
	row := r.db.QueryRow(ctx, `SELECT `+bookingColumns+` FROM bookings WHERE id=$1`, id)
	b, err := scanBooking(row)
	if err != nil {
		return nil, wrapNotFound(err)
	}
	return b, nil
}

func (r *PGBookingRepository) AttachPayment(ctx context.Context, id, paymentID, method, payerEmail string) error {
	cmd, err := r.db.Exec(ctx, `UPDATE bookings SET payment_id=$2, payment_method=$3, payer_email=NULLIF($4, ''), updated_at=now()
		WHERE id=$1 AND status NOT IN ('paid', 'confirmed', 'cancelled')`, id, paymentID, method, payerEmail)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return fmt.Errorf("attach payment to booking %s: %w", id, ErrNotFound)
	}
	return nil
}

func (r *PGBookingRepository) ConfirmPayment(ctx context.Context, id, paymentID string, split domain.FeeSplit) (*domain.Booking, bool, error) {
	row := r.db.QueryRow(ctx, `UPDATE bookings
		SET status=$2, payment_id=$3, app_fee=$4, driver_amount=$5, updated_at=now()
		WHERE id=$1 AND status IN ('pending', 'failed', 'rejected')
		RETURNING `+bookingColumns,
		id, domain.BookingStatusConfirmed, paymentID, split.AppFee, split.DriverAmount)
	return r.guardedResult(ctx, id, row)
}

func (r *PGBookingRepository) MarkFailed(ctx context.Context, id, paymentID string) (*domain.Booking, bool, error) {
	row := r.db.QueryRow(ctx, `UPDATE bookings
		SET status=$2, payment_id=$3, updated_at=now()
		WHERE id=$1 AND status='pending'
		RETURNING `+bookingColumns,
		id, domain.BookingStatusFailed, paymentID)
	return r.guardedResult(ctx, id, row)
}

func (r *PGBookingRepository) Cancel(ctx context.Context, id string, expected domain.BookingStatus) (*domain.Booking, error) {
	row := r.db.QueryRow(ctx, `UPDATE bookings
		SET status=$3, cancelled_from=status, updated_at=now()
		WHERE id=$1 AND status=$2
		RETURNING `+bookingColumns,
		id, expected, domain.BookingStatusCancelled)
	b, applied, err := r.guardedResult(ctx, id, row)
	if err != nil {
		return nil, err
	}
	if !applied {
		return b, fmt.Errorf("cancel booking %s: expected %s, found %s: %w", id, expected, b.Status, ErrStatusConflict)
	}
	return b, nil
}

func (r *PGBookingRepository) ListPendingWithPayment(ctx context.Context, updatedBefore time.Time) ([]domain.Booking, error) {
	rows, err := r.db.Query(ctx, `SELECT `+bookingColumns+` FROM bookings
		WHERE status=$1 AND payment_id IS NOT NULL AND updated_at <= $2
		ORDER BY updated_at`, domain.BookingStatusPending, updatedBefore)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var pending []domain.Booking
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, err
		}
		pending = append(pending, *b)
	}
	return pending, rows.Err()
}

// guardedResult turns a conditional UPDATE ... RETURNING into (booking, applied).
// No row back means either an unknown id or a booking the guard excluded.
func (r *PGBookingRepository) guardedResult(ctx context.Context, id string, row pgx.Row) (*domain.Booking, bool, error) {
	b, err := scanBooking(row)
	if err == nil {
		return b, true, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, false, err
	}

	current, err := r.GetByID(ctx, id)
	if err != nil {
		return nil, false, err
	}
	return current, false, nil
}

func scanBooking(row pgx.Row) (*domain.Booking, error) {
	var b domain.Booking
	if err := row.Scan(&b.ID, &b.TripID, &b.TotalPrice, &b.Status, &b.PaymentID, &b.PaymentMethod, &b.PayerEmail,
		&b.OriginName, &b.DestinationName, &b.AppFee, &b.DriverAmount, &b.CancelledFrom, &b.CreatedAt, &b.UpdatedAt); err != nil {
		return nil, err
	}
	return &b, nil
}

func wrapNotFound(err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	return err
}

var _ BookingRepository = (*PGBookingRepository)(nil)

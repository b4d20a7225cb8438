package api

import (
	"context"
	"time"

	"github.com/Domenick1991/ridepay/internal/domain"
	"github.com/Domenick1991/ridepay/internal/mercadopago"
	"github.com/Domenick1991/ridepay/internal/service/booking"
	"github.com/Domenick1991/ridepay/internal/service/payment"
	"github.com/Domenick1991/ridepay/internal/service/webhook"
	"github.com/stretchr/testify/mock"
)

type MockPaymentUseCase struct {
	mock.Mock
}

func (m *MockPaymentUseCase) CreatePayment(ctx context.Context, input payment.CreatePaymentInput) (*mercadopago.Payment, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*mercadopago.Payment), args.Error(1)
}

func (m *MockPaymentUseCase) ProcessPayment(ctx context.Context, input payment.ProcessPaymentInput) (*mercadopago.Payment, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*mercadopago.Payment), args.Error(1)
}

type MockWebhookUseCase struct {
	mock.Mock
}

func (m *MockWebhookUseCase) HandleNotification(ctx context.Context, n webhook.Notification) (webhook.Result, error) {
	args := m.Called(ctx, n)
	return args.Get(0).(webhook.Result), args.Error(1)
}

func (m *MockWebhookUseCase) Reconcile(ctx context.Context, paymentID string) (webhook.Result, error) {
	args := m.Called(ctx, paymentID)
	return args.Get(0).(webhook.Result), args.Error(1)
}

func (m *MockWebhookUseCase) ReconcilePending(ctx context.Context, updatedBefore time.Time) (int, error) {
	args := m.Called(ctx, updatedBefore)
	return args.Int(0), args.Error(1)
}

type MockBookingUseCase struct {
	mock.Mock
}

func (m *MockBookingUseCase) CancelBooking(ctx context.Context, id string) (*booking.CancelResult, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*booking.CancelResult), args.Error(1)
}

func (m *MockBookingUseCase) GetStatus(ctx context.Context, id string) (*domain.Booking, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Booking), args.Error(1)
}

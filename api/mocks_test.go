package api

import (
	"context"
	"time"

	"github.com/Domenick1991/airbooking-core/internal/domain"
	"github.com/Domenick1991/airbooking-core/internal/kafka"
	"github.com/Domenick1991/airbooking-core/internal/service/booking"
	"github.com/Domenick1991/airbooking-core/internal/service/flights"
	"github.com/Domenick1991/airbooking-core/internal/service/hold"
	"github.com/Domenick1991/airbooking-core/internal/service/payment"
	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

type MockFlightUseCase struct {
	mock.Mock
}

func (m *MockFlightUseCase) List(ctx context.Context) ([]domain.Flight, error) {
	args := m.Called(ctx)
	return args.Get(0).([]domain.Flight), args.Error(1)
}

func (m *MockFlightUseCase) GetByID(ctx context.Context, id int64) (*domain.Flight, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Flight), args.Error(1)
}

func (m *MockFlightUseCase) Schedule(ctx context.Context, in flights.ScheduleInput) (*domain.Flight, []domain.FlightInventory, error) {
	args := m.Called(ctx, in)
	if args.Get(0) == nil {
		return nil, nil, args.Error(2)
	}
	return args.Get(0).(*domain.Flight), args.Get(1).([]domain.FlightInventory), args.Error(2)
}

func (m *MockFlightUseCase) Archive(ctx context.Context, id int64) (*domain.Flight, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Flight), args.Error(1)
}

func (m *MockFlightUseCase) Availability(ctx context.Context, id int64) ([]domain.FlightInventory, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.FlightInventory), args.Error(1)
}

type MockHoldManager struct {
	mock.Mock
}

func (m *MockHoldManager) CreateHold(ctx context.Context, input hold.CreateHoldInput) (*domain.Hold, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Hold), args.Error(1)
}

func (m *MockHoldManager) Get(ctx context.Context, id uuid.UUID) (*domain.Hold, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Hold), args.Error(1)
}

func (m *MockHoldManager) Consume(ctx context.Context, id uuid.UUID) (*domain.Hold, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Hold), args.Error(1)
}

func (m *MockHoldManager) Release(ctx context.Context, id uuid.UUID) (*domain.Hold, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Hold), args.Error(1)
}

func (m *MockHoldManager) Expire(ctx context.Context, id uuid.UUID, now time.Time) (*domain.Hold, bool, error) {
	args := m.Called(ctx, id, now)
	if args.Get(0) == nil {
		return nil, args.Bool(1), args.Error(2)
	}
	return args.Get(0).(*domain.Hold), args.Bool(1), args.Error(2)
}

func (m *MockHoldManager) SweepExpired(ctx context.Context, now time.Time, onExpired hold.ExpiredHook) (hold.SweepResult, error) {
	args := m.Called(ctx, now, onExpired)
	return args.Get(0).(hold.SweepResult), args.Error(1)
}

type MockBookingUseCase struct {
	mock.Mock
}

func (m *MockBookingUseCase) booking(args mock.Arguments) (*domain.Booking, error) {
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Booking), args.Error(1)
}

func (m *MockBookingUseCase) CreateBooking(ctx context.Context, input booking.CreateBookingInput) (*domain.Booking, error) {
	return m.booking(m.Called(ctx, input))
}

func (m *MockBookingUseCase) ConfirmBooking(ctx context.Context, id uuid.UUID, paymentRef string) (*domain.Booking, error) {
	return m.booking(m.Called(ctx, id, paymentRef))
}

func (m *MockBookingUseCase) CancelBooking(ctx context.Context, id uuid.UUID, reason string) (*domain.Booking, error) {
	return m.booking(m.Called(ctx, id, reason))
}

func (m *MockBookingUseCase) ExpireBooking(ctx context.Context, id uuid.UUID) (*domain.Booking, error) {
	return m.booking(m.Called(ctx, id))
}

func (m *MockBookingUseCase) CompleteRefund(ctx context.Context, id uuid.UUID) (*domain.Booking, error) {
	return m.booking(m.Called(ctx, id))
}

func (m *MockBookingUseCase) Get(ctx context.Context, id uuid.UUID) (*domain.Booking, error) {
	return m.booking(m.Called(ctx, id))
}

func (m *MockBookingUseCase) GetByReference(ctx context.Context, reference string) (*domain.Booking, error) {
	return m.booking(m.Called(ctx, reference))
}

func (m *MockBookingUseCase) ListByUser(ctx context.Context, userID string) ([]domain.Booking, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).([]domain.Booking), args.Error(1)
}

func (m *MockBookingUseCase) SweepExpired(ctx context.Context, now time.Time) (hold.SweepResult, error) {
	args := m.Called(ctx, now)
	return args.Get(0).(hold.SweepResult), args.Error(1)
}

type MockReconciler struct {
	mock.Mock
}

func (m *MockReconciler) attempt(args mock.Arguments) (*domain.PaymentAttempt, error) {
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.PaymentAttempt), args.Error(1)
}

func (m *MockReconciler) outcome(args mock.Arguments) (*payment.Outcome, error) {
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*payment.Outcome), args.Error(1)
}

func (m *MockReconciler) RecordAttempt(ctx context.Context, bookingID uuid.UUID, gatewayRef string, amount int64, currency string) (*domain.PaymentAttempt, error) {
	return m.attempt(m.Called(ctx, bookingID, gatewayRef, amount, currency))
}

func (m *MockReconciler) ApplyResult(ctx context.Context, gatewayRef string, result domain.PaymentResult, paidAmount int64, currency string) (*payment.Outcome, error) {
	return m.outcome(m.Called(ctx, gatewayRef, result, paidAmount, currency))
}

func (m *MockReconciler) Initiate(ctx context.Context, bookingID uuid.UUID, email string) (*domain.PaymentAttempt, error) {
	return m.attempt(m.Called(ctx, bookingID, email))
}

func (m *MockReconciler) Verify(ctx context.Context, gatewayRef string) (*payment.Outcome, error) {
	return m.outcome(m.Called(ctx, gatewayRef))
}

func (m *MockReconciler) HandleWebhook(ctx context.Context, body []byte, signature string) (*payment.Outcome, error) {
	return m.outcome(m.Called(ctx, body, signature))
}

func (m *MockReconciler) ProcessRefund(ctx context.Context, req kafka.RefundRequest) error {
	return m.Called(ctx, req).Error(0)
}

func (m *MockReconciler) ListByBooking(ctx context.Context, bookingID uuid.UUID) ([]domain.PaymentAttempt, error) {
	args := m.Called(ctx, bookingID)
	return args.Get(0).([]domain.PaymentAttempt), args.Error(1)
}

var (
	_ flights.FlightUseCase     = (*MockFlightUseCase)(nil)
	_ hold.ManagerUseCase       = (*MockHoldManager)(nil)
	_ booking.BookingUseCase    = (*MockBookingUseCase)(nil)
	_ payment.ReconcilerUseCase = (*MockReconciler)(nil)
)

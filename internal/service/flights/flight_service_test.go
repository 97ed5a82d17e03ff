package flights

import (
	"context"
	"testing"
	"time"

	"github.com/Domenick1991/airbooking-core/internal/domain"
	"github.com/Domenick1991/airbooking-core/internal/repository/memory"
	"github.com/Domenick1991/airbooking-core/internal/service/inventory"
	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockFlightRepository struct {
	mock.Mock
}

func (m *MockFlightRepository) List(ctx context.Context) ([]domain.Flight, error) {
	args := m.Called(ctx)
	return args.Get(0).([]domain.Flight), args.Error(1)
}

func (m *MockFlightRepository) GetByID(ctx context.Context, id int64) (*domain.Flight, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Flight), args.Error(1)
}

func (m *MockFlightRepository) Create(ctx context.Context, flight *domain.Flight) error {
	return m.Called(ctx, flight).Error(0)
}

func (m *MockFlightRepository) UpdateStatus(ctx context.Context, id int64, status domain.FlightStatus) (*domain.Flight, error) {
	args := m.Called(ctx, id, status)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Flight), args.Error(1)
}

type MockCache struct {
	mock.Mock
}

func (m *MockCache) GetFlights(ctx context.Context) ([]domain.Flight, error) {
	args := m.Called(ctx)
	return args.Get(0).([]domain.Flight), args.Error(1)
}

func (m *MockCache) SetFlights(ctx context.Context, flights []domain.Flight) error {
	return m.Called(ctx, flights).Error(0)
}

func (m *MockCache) InvalidateFlights(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

func (m *MockCache) GetAvailability(ctx context.Context, flightID int64) ([]domain.FlightInventory, error) {
	args := m.Called(ctx, flightID)
	return args.Get(0).([]domain.FlightInventory), args.Error(1)
}

func (m *MockCache) SetAvailability(ctx context.Context, flightID int64, inv []domain.FlightInventory) error {
	return m.Called(ctx, flightID, inv).Error(0)
}

func sampleFlights() []domain.Flight {
	dep := time.Date(2026, 3, 5, 8, 0, 0, 0, time.UTC)
	return []domain.Flight{{
		ID:            4,
		FlightNumber:  "NA101",
		FromAirport:   "LOS",
		ToAirport:     "ABV",
		DepartureTime: dep,
		ArrivalTime:   dep.Add(time.Hour),
		Currency:      "NGN",
		Status:        domain.FlightStatusScheduled,
	}}
}

func TestFlightService_List_CacheMiss(t *testing.T) {
	mockRepo := &MockFlightRepository{}
	mockCache := &MockCache{}
	service := NewFlightService(memory.NewStore(), mockRepo, nil, WithCache(mockCache))
	ctx := context.Background()
	flights := sampleFlights()

	mockCache.On("GetFlights", ctx).Return(([]domain.Flight)(nil), nil).Once()
	mockRepo.On("List", ctx).Return(flights, nil).Once()
	mockCache.On("SetFlights", ctx, flights).Return(nil).Once()

	result, err := service.List(ctx)

	assert.NoError(t, err)
	assert.Equal(t, flights, result)
	mockCache.AssertExpectations(t)
	mockRepo.AssertExpectations(t)
}

func TestFlightService_List_CacheHit(t *testing.T) {
	mockRepo := &MockFlightRepository{}
	mockCache := &MockCache{}
	service := NewFlightService(memory.NewStore(), mockRepo, nil, WithCache(mockCache))
	ctx := context.Background()
	flights := sampleFlights()

	mockCache.On("GetFlights", ctx).Return(flights, nil).Once()

	result, err := service.List(ctx)

	assert.NoError(t, err)
	assert.Equal(t, flights, result)
	mockRepo.AssertNotCalled(t, "List")
	mockCache.AssertNotCalled(t, "SetFlights")
}

func TestFlightService_List_CacheError(t *testing.T) {
	mockRepo := &MockFlightRepository{}
	mockCache := &MockCache{}
	service := NewFlightService(memory.NewStore(), mockRepo, nil, WithCache(mockCache))
	ctx := context.Background()
	flights := sampleFlights()

	mockCache.On("GetFlights", ctx).Return(([]domain.Flight)(nil), errors.New("cache error")).Once()
	mockRepo.On("List", ctx).Return(flights, nil).Once()
	mockCache.On("SetFlights", ctx, flights).Return(errors.New("cache error")).Once()

	result, err := service.List(ctx)

	assert.NoError(t, err)
	assert.Equal(t, flights, result)
	mockRepo.AssertExpectations(t)
}

func TestFlightService_List_RepositoryError(t *testing.T) {
	mockRepo := &MockFlightRepository{}
	mockCache := &MockCache{}
	service := NewFlightService(memory.NewStore(), mockRepo, nil, WithCache(mockCache))
	ctx := context.Background()

	expectedErr := errors.New("database error")
	mockCache.On("GetFlights", ctx).Return(([]domain.Flight)(nil), nil).Once()
	mockRepo.On("List", ctx).Return([]domain.Flight{}, expectedErr).Once()

	result, err := service.List(ctx)

	assert.ErrorIs(t, err, expectedErr)
	assert.Nil(t, result)
	mockCache.AssertNotCalled(t, "SetFlights")
}

func TestFlightService_GetByID_NotFound(t *testing.T) {
	mockRepo := &MockFlightRepository{}
	service := NewFlightService(memory.NewStore(), mockRepo, nil)
	ctx := context.Background()

	mockRepo.On("GetByID", ctx, int64(999)).Return(nil, domain.ErrFlightNotFound).Once()

	result, err := service.GetByID(ctx, 999)

	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.Nil(t, result)
}

type fixture struct {
	store   *memory.Store
	ledger  *inventory.Ledger
	service *FlightService
}

func newFixture() fixture {
	store := memory.NewStore()
	ledger := inventory.NewLedger(store.Inventory())
	return fixture{
		store:   store,
		ledger:  ledger,
		service: NewFlightService(store, store.Flights(), ledger),
	}
}

func scheduleInput() ScheduleInput {
	f := sampleFlights()[0]
	f.ID = 0
	f.Currency = "ngn"
	return ScheduleInput{
		Flight: f,
		Classes: []ClassInventory{
			{Class: domain.SeatClassEconomy, Total: 120, Fare: 3500000},
			{Class: domain.SeatClassBusiness, Total: 12, Fare: 9000000},
		},
	}
}

func TestFlightService_Schedule(t *testing.T) {
	fx := newFixture()
	ctx := context.Background()

	flight, inv, err := fx.service.Schedule(ctx, scheduleInput())
	require.NoError(t, err)

	assert.NotZero(t, flight.ID)
	assert.Equal(t, "NGN", flight.Currency)
	assert.Equal(t, domain.FlightStatusScheduled, flight.Status)
	require.Len(t, inv, 2)

	avail, err := fx.service.Availability(ctx, flight.ID)
	require.NoError(t, err)
	require.Len(t, avail, 2)
	for _, i := range avail {
		assert.Equal(t, i.Total, i.Available())
	}

	listed, err := fx.service.List(ctx)
	require.NoError(t, err)
	assert.Len(t, listed, 1)
}

func TestFlightService_Schedule_Invalid(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*ScheduleInput)
	}{
		{"no flight number", func(in *ScheduleInput) { in.Flight.FlightNumber = " " }},
		{"same airports", func(in *ScheduleInput) { in.Flight.ToAirport = "los" }},
		{"arrival before departure", func(in *ScheduleInput) { in.Flight.ArrivalTime = in.Flight.DepartureTime }},
		{"bad currency", func(in *ScheduleInput) { in.Flight.Currency = "NAIRA" }},
		{"no classes", func(in *ScheduleInput) { in.Classes = nil }},
		{"unknown class", func(in *ScheduleInput) { in.Classes[0].Class = "PREMIUM" }},
		{"duplicate class", func(in *ScheduleInput) { in.Classes[1].Class = domain.SeatClassEconomy }},
		{"zero capacity", func(in *ScheduleInput) { in.Classes[0].Total = 0 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fx := newFixture()
			in := scheduleInput()
			tt.mutate(&in)

			_, _, err := fx.service.Schedule(context.Background(), in)
			assert.ErrorIs(t, err, domain.ErrInvalidInput)

			listed, err := fx.service.List(context.Background())
			require.NoError(t, err)
			assert.Empty(t, listed)
		})
	}
}

func TestFlightService_Schedule_InvalidatesCache(t *testing.T) {
	store := memory.NewStore()
	mockCache := &MockCache{}
	service := NewFlightService(store, store.Flights(), inventory.NewLedger(store.Inventory()), WithCache(mockCache))
	mockCache.On("InvalidateFlights", mock.Anything).Return(nil).Once()

	_, _, err := service.Schedule(context.Background(), scheduleInput())
	require.NoError(t, err)

	mockCache.AssertExpectations(t)
}

func TestFlightService_Archive(t *testing.T) {
	fx := newFixture()
	ctx := context.Background()
	flight, _, err := fx.service.Schedule(ctx, scheduleInput())
	require.NoError(t, err)

	archived, err := fx.service.Archive(ctx, flight.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.FlightStatusArchived, archived.Status)

	listed, err := fx.service.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, listed)

	avail, err := fx.service.Availability(ctx, flight.ID)
	require.NoError(t, err)
	assert.Empty(t, avail)
}

func TestFlightService_Archive_SeatsHeld(t *testing.T) {
	fx := newFixture()
	ctx := context.Background()
	flight, _, err := fx.service.Schedule(ctx, scheduleInput())
	require.NoError(t, err)
	_, err = fx.ledger.Reserve(ctx, flight.ID, domain.SeatClassEconomy, 2)
	require.NoError(t, err)

	_, err = fx.service.Archive(ctx, flight.ID)
	assert.ErrorIs(t, err, domain.ErrConflict)

	got, err := fx.service.GetByID(ctx, flight.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.FlightStatusScheduled, got.Status)
}

func TestFlightService_Availability_Cached(t *testing.T) {
	mockRepo := &MockFlightRepository{}
	mockCache := &MockCache{}
	service := NewFlightService(memory.NewStore(), mockRepo, nil, WithCache(mockCache))
	ctx := context.Background()
	inv := []domain.FlightInventory{{FlightID: 4, Class: domain.SeatClassEconomy, Total: 10, Held: 3}}

	mockCache.On("GetAvailability", ctx, int64(4)).Return(inv, nil).Once()

	got, err := service.Availability(ctx, 4)
	require.NoError(t, err)
	assert.Equal(t, 7, got[0].Available())
	mockRepo.AssertNotCalled(t, "GetByID", mock.Anything, mock.Anything)
}

func TestFlightService_Availability_UnknownFlight(t *testing.T) {
	fx := newFixture()

	_, err := fx.service.Availability(context.Background(), 42)
	assert.ErrorIs(t, err, domain.ErrFlightNotFound)
}

package flights

import (
	"context"
	"strings"

	"github.com/Domenick1991/airbooking-core/internal/domain"
	"github.com/Domenick1991/airbooking-core/internal/observability"
	"github.com/Domenick1991/airbooking-core/internal/repository"
	"github.com/cockroachdb/errors"
)

type FlightUseCase interface {
	List(ctx context.Context) ([]domain.Flight, error)
	GetByID(ctx context.Context, id int64) (*domain.Flight, error)
	Schedule(ctx context.Context, in ScheduleInput) (*domain.Flight, []domain.FlightInventory, error)
	Archive(ctx context.Context, id int64) (*domain.Flight, error)
	Availability(ctx context.Context, id int64) ([]domain.FlightInventory, error)
}

type FlightCache interface {
	GetFlights(ctx context.Context) ([]domain.Flight, error)
	SetFlights(ctx context.Context, flights []domain.Flight) error
	InvalidateFlights(ctx context.Context) error
	GetAvailability(ctx context.Context, flightID int64) ([]domain.FlightInventory, error)
	SetAvailability(ctx context.Context, flightID int64, inv []domain.FlightInventory) error
}

type Inventory interface {
	Create(ctx context.Context, inv domain.FlightInventory) (*domain.FlightInventory, error)
	ListByFlight(ctx context.Context, flightID int64) ([]domain.FlightInventory, error)
	Remove(ctx context.Context, flightID int64) error
}

type ClassInventory struct {
	Class domain.SeatClass `json:"class"`
	Total int              `json:"total"`
	Fare  int64            `json:"fare"`
}

type ScheduleInput struct {
	Flight  domain.Flight
	Classes []ClassInventory
}

type FlightService struct {
	tx        repository.Transactor
	repo      repository.FlightRepository
	inventory Inventory
	cache     FlightCache
	logger    observability.Logger
}

type Option func(*FlightService)

func WithCache(cache FlightCache) Option {
	return func(s *FlightService) {
		s.cache = cache
	}
}

func WithLogger(logger observability.Logger) Option {
	return func(s *FlightService) {
		s.logger = logger
	}
}

func NewFlightService(tx repository.Transactor, repo repository.FlightRepository, inventory Inventory, opts ...Option) *FlightService {
	s := &FlightService{tx: tx, repo: repo, inventory: inventory, logger: observability.NewNop()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// List returns scheduled flights, served from cache when possible.
func (s *FlightService) List(ctx context.Context) ([]domain.Flight, error) {
	if s.cache != nil {
		if cached, err := s.cache.GetFlights(ctx); err == nil && cached != nil {
			return cached, nil
		} else if err != nil {
			s.logger.Warn("flights cache read failed", "error", err)
		}
	}

	flights, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	if s.cache != nil {
		if err := s.cache.SetFlights(ctx, flights); err != nil {
			s.logger.Warn("flights cache write failed", "error", err)
		}
	}
	return flights, nil
}

func (s *FlightService) GetByID(ctx context.Context, id int64) (*domain.Flight, error) {
	return s.repo.GetByID(ctx, id)
}

// Schedule creates the flight together with its per-class seat inventory.
func (s *FlightService) Schedule(ctx context.Context, in ScheduleInput) (*domain.Flight, []domain.FlightInventory, error) {
	if err := validateSchedule(in); err != nil {
		return nil, nil, err
	}

	flight := in.Flight
	flight.Status = domain.FlightStatusScheduled
	flight.Currency = strings.ToUpper(flight.Currency)
	inventories := make([]domain.FlightInventory, 0, len(in.Classes))

	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		if err := s.repo.Create(ctx, &flight); err != nil {
			return errors.Wrap(err, "create flight")
		}
		for _, c := range in.Classes {
			inv, err := s.inventory.Create(ctx, domain.FlightInventory{
				FlightID: flight.ID,
				Class:    c.Class,
				Total:    c.Total,
				Fare:     c.Fare,
			})
			if err != nil {
				return errors.Wrapf(err, "create %s inventory", c.Class)
			}
			inventories = append(inventories, *inv)
		}
		return nil
	})
	if err != nil {
		return nil, nil, err
	}

	s.invalidate(ctx)
	s.logger.Info("flight scheduled", "flight_id", flight.ID, "flight_number", flight.FlightNumber, "classes", len(inventories))
	return &flight, inventories, nil
}

// Archive hides the flight from listings and drops its inventory.
func (s *FlightService) Archive(ctx context.Context, id int64) (*domain.Flight, error) {
	var flight *domain.Flight
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		var err error
		flight, err = s.repo.UpdateStatus(ctx, id, domain.FlightStatusArchived)
		if err != nil {
			return err
		}
		return s.inventory.Remove(ctx, id)
	})
	if err != nil {
		return nil, err
	}

	s.invalidate(ctx)
	s.logger.Info("flight archived", "flight_id", id)
	return flight, nil
}

// Availability returns the seat counters for every class of the flight.
func (s *FlightService) Availability(ctx context.Context, id int64) ([]domain.FlightInventory, error) {
	if s.cache != nil {
		if cached, err := s.cache.GetAvailability(ctx, id); err == nil && cached != nil {
			return cached, nil
		}
	}

	if _, err := s.repo.GetByID(ctx, id); err != nil {
		return nil, err
	}
	inv, err := s.inventory.ListByFlight(ctx, id)
	if err != nil {
		return nil, err
	}
	if s.cache != nil {
		if err := s.cache.SetAvailability(ctx, id, inv); err != nil {
			s.logger.Warn("availability cache write failed", "flight_id", id, "error", err)
		}
	}
	return inv, nil
}

func (s *FlightService) invalidate(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.InvalidateFlights(ctx); err != nil {
		s.logger.Warn("flights cache invalidation failed", "error", err)
	}
}

func validateSchedule(in ScheduleInput) error {
	f := in.Flight
	if strings.TrimSpace(f.FlightNumber) == "" {
		return errors.Wrap(domain.ErrInvalidInput, "flight number is required")
	}
	if len(f.FromAirport) != 3 || len(f.ToAirport) != 3 || strings.EqualFold(f.FromAirport, f.ToAirport) {
		return errors.Wrap(domain.ErrInvalidInput, "airports must be distinct IATA codes")
	}
	if f.DepartureTime.IsZero() || !f.ArrivalTime.After(f.DepartureTime) {
		return errors.Wrap(domain.ErrInvalidInput, "arrival must be after departure")
	}
	if len(f.Currency) != 3 {
		return errors.Wrap(domain.ErrInvalidInput, "currency must be an ISO code")
	}
	if len(in.Classes) == 0 {
		return errors.Wrap(domain.ErrInvalidInput, "at least one seat class is required")
	}

	seen := make(map[domain.SeatClass]bool, len(in.Classes))
	for _, c := range in.Classes {
		if !c.Class.Valid() {
			return errors.Wrapf(domain.ErrInvalidInput, "unknown seat class %q", c.Class)
		}
		if seen[c.Class] {
			return errors.Wrapf(domain.ErrInvalidInput, "duplicate seat class %s", c.Class)
		}
		if c.Total <= 0 || c.Fare < 0 {
			return errors.Wrapf(domain.ErrInvalidInput, "invalid capacity or fare for %s", c.Class)
		}
		seen[c.Class] = true
	}
	return nil
}

var _ FlightUseCase = (*FlightService)(nil)

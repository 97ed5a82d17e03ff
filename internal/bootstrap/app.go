package bootstrap

import (
	"context"
	"time"

	"github.com/Domenick1991/airbooking-core/api"
	"github.com/Domenick1991/airbooking-core/config"
	"github.com/Domenick1991/airbooking-core/internal/audit"
	"github.com/Domenick1991/airbooking-core/internal/cache"
	"github.com/Domenick1991/airbooking-core/internal/kafka"
	"github.com/Domenick1991/airbooking-core/internal/migrations"
	"github.com/Domenick1991/airbooking-core/internal/notify"
	"github.com/Domenick1991/airbooking-core/internal/observability"
	"github.com/Domenick1991/airbooking-core/internal/paystack"
	"github.com/Domenick1991/airbooking-core/internal/repository"
	"github.com/Domenick1991/airbooking-core/internal/repository/memory"
	"github.com/Domenick1991/airbooking-core/internal/service/booking"
	"github.com/Domenick1991/airbooking-core/internal/service/flights"
	"github.com/Domenick1991/airbooking-core/internal/service/hold"
	"github.com/Domenick1991/airbooking-core/internal/service/inventory"
	"github.com/Domenick1991/airbooking-core/internal/service/payment"
	"github.com/Domenick1991/airbooking-core/internal/worker"
	"github.com/cockroachdb/errors"
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	amqp "github.com/rabbitmq/amqp091-go"
	"go.mongodb.org/mongo-driver/mongo"
	"golang.org/x/sync/errgroup"
)

type stores struct {
	tx        repository.Transactor
	flights   repository.FlightRepository
	inventory repository.InventoryRepository
	holds     repository.HoldRepository
	bookings  repository.BookingRepository
	payments  repository.PaymentRepository
}

// App holds the wired services shared by the API and worker processes.
// Optional adapters stay nil when their connection settings are empty.
type App struct {
	Config *config.Config
	Logger observability.Logger

	Pool     *pgxpool.Pool
	Cache    *cache.RedisCache
	Producer *kafka.Producer
	AMQP     *amqp.Connection
	Notifier *notify.RabbitNotifier
	Mongo    *mongo.Client

	Ledger     *inventory.Ledger
	Holds      *hold.Manager
	Bookings   *booking.BookingService
	Reconciler *payment.Reconciler
	Flights    *flights.FlightService

	closers []func(ctx context.Context) error
}

func NewApp(ctx context.Context, cfg *config.Config, logger observability.Logger) (_ *App, err error) {
	app := &App{Config: cfg, Logger: logger}
	defer func() {
		if err != nil {
			app.Close(context.WithoutCancel(ctx))
		}
	}()

	st, err := app.openStores(ctx)
	if err != nil {
		return nil, err
	}
	if err := app.openAdapters(ctx); err != nil {
		return nil, err
	}

	ledgerOpts := []inventory.LedgerOption{inventory.WithLogger(logger)}
	flightOpts := []flights.Option{flights.WithLogger(logger)}
	if app.Cache != nil {
		ledgerOpts = append(ledgerOpts, inventory.WithCache(app.Cache))
		flightOpts = append(flightOpts, flights.WithCache(app.Cache))
	}
	app.Ledger = inventory.NewLedger(st.inventory, ledgerOpts...)
	app.Flights = flights.NewFlightService(st.tx, st.flights, app.Ledger, flightOpts...)

	app.Holds = hold.NewManager(st.tx, st.holds, app.Ledger,
		hold.WithTTL(cfg.Booking.HoldTTL),
		hold.WithBatchSize(cfg.Worker.SweepBatchSize),
		hold.WithLogger(logger),
	)

	bookingOpts := []booking.BookingServiceOption{
		booking.WithRefundPolicy(refundPolicy(cfg.Booking)),
		booking.WithLogger(logger),
	}
	if app.Producer != nil {
		bookingOpts = append(bookingOpts, booking.WithProducer(app.Producer, cfg.Kafka.BookingTopic, cfg.Kafka.RefundTopic))
	}
	if app.Notifier != nil {
		bookingOpts = append(bookingOpts, booking.WithNotifier(app.Notifier))
	}
	app.Bookings = booking.NewBookingService(st.tx, st.bookings, st.payments, st.flights, app.Holds, app.Ledger, bookingOpts...)

	gatewayOpts := []paystack.Option{paystack.WithLogger(logger)}
	if cfg.Paystack.BaseURL != "" {
		gatewayOpts = append(gatewayOpts, paystack.WithBaseURL(cfg.Paystack.BaseURL))
	}
	gateway := paystack.NewClient(cfg.Paystack.SecretKey, gatewayOpts...)
	reconcilerOpts := []payment.Option{
		payment.WithWebhookSecret(cfg.Paystack.SecretKey),
		payment.WithCallbackURL(cfg.Paystack.CallbackURL),
		payment.WithGatewayTimeout(cfg.Paystack.Timeout),
		payment.WithLogger(logger),
	}
	if app.Mongo != nil {
		reconcilerOpts = append(reconcilerOpts, payment.WithAuditLog(audit.NewPaymentLogger(app.Mongo.Database(cfg.Mongo.Database), logger)))
	}
	if app.Notifier != nil {
		reconcilerOpts = append(reconcilerOpts, payment.WithNotifier(app.Notifier))
	}
	app.Reconciler = payment.NewReconciler(st.tx, st.payments, app.Bookings, app.Holds, gateway, reconcilerOpts...)

	return app, nil
}

func (a *App) openStores(ctx context.Context) (stores, error) {
	if a.Config.Storage == config.StorageMemory {
		a.Logger.Warn("using in-memory storage, data is lost on restart")
		s := memory.NewStore()
		return stores{s, s.Flights(), s.Inventory(), s.Holds(), s.Bookings(), s.Payments()}, nil
	}

	pool, err := pgxpool.New(ctx, a.Config.Database.DSN())
	if err != nil {
		return stores{}, errors.Wrap(err, "connect postgres")
	}
	a.Pool = pool
	a.onClose(func(context.Context) error { pool.Close(); return nil })

	if err := pool.Ping(ctx); err != nil {
		return stores{}, errors.Wrap(err, "ping postgres")
	}
	if err := migrations.Up(ctx, pool); err != nil {
		return stores{}, err
	}
	return stores{
		tx:        repository.NewTransactor(pool),
		flights:   repository.NewFlightRepository(pool),
		inventory: repository.NewInventoryRepository(pool),
		holds:     repository.NewHoldRepository(pool),
		bookings:  repository.NewBookingRepository(pool),
		payments:  repository.NewPaymentRepository(pool),
	}, nil
}

func (a *App) openAdapters(ctx context.Context) error {
	cfg := a.Config

	if cfg.Redis.Addr != "" {
		a.Cache = cache.NewRedisCache(cfg.Redis, cfg.Booking.FlightsCacheTTL)
		a.onClose(func(context.Context) error { return a.Cache.Close() })
		if err := a.Cache.Ping(ctx); err != nil {
			return errors.Wrap(err, "ping redis")
		}
	}

	if len(cfg.Kafka.Brokers) > 0 {
		a.Producer = kafka.NewProducer(cfg.Kafka.Brokers, a.Logger)
		a.onClose(func(context.Context) error { return a.Producer.Close() })
	}

	if cfg.RabbitMQ.URL != "" {
		conn, err := amqp.Dial(cfg.RabbitMQ.URL)
		if err != nil {
			return errors.Wrap(err, "connect rabbitmq")
		}
		a.AMQP = conn
		a.onClose(func(context.Context) error { return conn.Close() })

		a.Notifier, err = notify.NewRabbitNotifier(conn, cfg.RabbitMQ.Queue, a.Logger)
		if err != nil {
			return err
		}
	}

	if cfg.Mongo.URI != "" {
		client, err := audit.NewMongoClient(ctx, cfg.Mongo.URI)
		if err != nil {
			return err
		}
		a.Mongo = client
		a.onClose(client.Disconnect)

		if err := audit.EnsureIndexes(ctx, client.Database(cfg.Mongo.Database)); err != nil {
			a.Logger.Warn("payment log indexes", "error", err)
		}
	}
	return nil
}

// Router builds the HTTP API over the wired services.
func (a *App) Router() *gin.Engine {
	return api.NewRouter(api.Handlers{
		Flights:  api.NewFlightHandler(a.Flights),
		Holds:    api.NewHoldHandler(a.Holds),
		Bookings: api.NewBookingHandler(a.Bookings, a.Reconciler),
		Payments: api.NewPaymentHandler(a.Reconciler),
	}, api.RouterConfig{
		JWTSecret:    a.Config.Auth.JWTSecret,
		Logger:       a.Logger,
		HealthChecks: a.HealthChecks(),
	})
}

func (a *App) HealthChecks() map[string]api.HealthCheck {
	checks := map[string]api.HealthCheck{}
	if a.Pool != nil {
		checks["postgres"] = a.Pool.Ping
	}
	if a.Cache != nil {
		checks["redis"] = a.Cache.Ping
	}
	if a.Producer != nil {
		checks["kafka"] = a.Producer.CheckConnection
	}
	if a.AMQP != nil {
		checks["rabbitmq"] = func(context.Context) error {
			if a.AMQP.IsClosed() {
				return errors.New("connection closed")
			}
			return nil
		}
	}
	if a.Mongo != nil {
		checks["mongo"] = func(ctx context.Context) error { return a.Mongo.Ping(ctx, nil) }
	}
	return checks
}

// Serve runs the HTTP API until ctx is done. In-memory state is private to
// this process, so with memory storage the hold sweeper runs here as well.
func (a *App) Serve(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)
	if a.Config.Storage == config.StorageMemory {
		sweeper := a.NewSweeper()
		g.Go(func() error { return sweeper.Run(gctx) })
	}
	g.Go(func() error { return Run(gctx, a.Config.HTTP, a.Router(), a.Logger) })
	return g.Wait()
}

// NewSweeper builds the expiry sweeper over the booking service, leased
// through Redis when it is configured.
func (a *App) NewSweeper() *worker.Sweeper {
	opts := []worker.SweeperOption{worker.WithLogger(a.Logger.With("component", "sweeper"))}
	if locker := a.SweepLocker(); locker != nil {
		opts = append(opts, worker.WithLocker(locker, a.Config.Worker.LockTTL))
	}
	return worker.NewSweeper(a.Bookings, a.Config.Worker.SweepInterval, opts...)
}

// SweepLocker returns the Redis lease used to keep a single sweeper active,
// or nil when Redis is not configured.
func (a *App) SweepLocker() worker.Locker {
	if a.Cache == nil {
		return nil
	}
	return worker.LockerFunc(func(ctx context.Context, name string, ttl time.Duration) (worker.Lease, error) {
		lock, err := a.Cache.TryLock(ctx, name, ttl)
		if err != nil || lock == nil {
			return nil, err
		}
		return lock, nil
	})
}

// Close releases adapters in reverse order of opening.
func (a *App) Close(ctx context.Context) {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](ctx); err != nil {
			a.Logger.Warn("close dependency", "error", err)
		}
	}
	a.closers = nil
}

func (a *App) onClose(fn func(ctx context.Context) error) {
	a.closers = append(a.closers, fn)
}

func refundPolicy(cfg config.BookingConfig) booking.RefundPolicy {
	if len(cfg.RefundTiers) == 0 {
		return booking.DefaultRefundPolicy()
	}
	policy := booking.RefundPolicy{Fallback: cfg.RefundFallback}
	for _, t := range cfg.RefundTiers {
		policy.Tiers = append(policy.Tiers, booking.RefundTier{Before: t.Before, Percent: t.Percent})
	}
	return policy
}

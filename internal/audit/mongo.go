package audit

import (
	"context"
	"time"

	"github.com/Domenick1991/airbooking-core/internal/domain"
	"github.com/Domenick1991/airbooking-core/internal/observability"
	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const collectionName = "payment_logs"

type inserter interface {
	InsertOne(ctx context.Context, document interface{}, opts ...*options.InsertOneOptions) (*mongo.InsertOneResult, error)
}

// PaymentLogger appends payment audit records to MongoDB.
type PaymentLogger struct {
	coll   inserter
	logger observability.Logger
}

type paymentLogDocument struct {
	ID         string    `bson:"_id"`
	BookingID  string    `bson:"booking_id"`
	GatewayRef string    `bson:"gateway_ref"`
	Event      string    `bson:"event"`
	Amount     int64     `bson:"amount"`
	Currency   string    `bson:"currency"`
	Message    string    `bson:"message,omitempty"`
	Data       bson.M    `bson:"data,omitempty"`
	CreatedAt  time.Time `bson:"created_at"`
}

func NewPaymentLogger(db *mongo.Database, logger observability.Logger) *PaymentLogger {
	return &PaymentLogger{
		coll:   db.Collection(collectionName),
		logger: logger,
	}
}

func (l *PaymentLogger) Record(ctx context.Context, entry domain.PaymentLog) error {
	doc := paymentLogDocument{
		ID:         uuid.NewString(),
		BookingID:  entry.BookingID.String(),
		GatewayRef: entry.GatewayRef,
		Event:      string(entry.Event),
		Amount:     entry.Amount,
		Currency:   entry.Currency,
		Message:    entry.Message,
		CreatedAt:  entry.CreatedAt,
	}
	if len(entry.Payload) > 0 {
		doc.Data = bson.M(entry.Payload)
	}
	if doc.CreatedAt.IsZero() {
		doc.CreatedAt = time.Now().UTC()
	}

	if _, err := l.coll.InsertOne(ctx, doc); err != nil {
		l.logger.Error("failed to insert payment log", "gateway_ref", entry.GatewayRef, "event", entry.Event, "error", err)
		return errors.Wrap(err, "insert payment log")
	}
	return nil
}

// EnsureIndexes creates the lookup index by gateway reference.
func EnsureIndexes(ctx context.Context, db *mongo.Database) error {
	_, err := db.Collection(collectionName).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "gateway_ref", Value: 1}, {Key: "created_at", Value: 1}},
	})
	return errors.Wrap(err, "create payment_logs index")
}

// NewMongoClient connects and pings MongoDB.
func NewMongoClient(ctx context.Context, uri string) (*mongo.Client, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, errors.Wrap(err, "connect mongo")
	}
	if err := client.Ping(ctx, nil); err != nil {
		return nil, errors.Wrap(err, "ping mongo")
	}
	return client, nil
}

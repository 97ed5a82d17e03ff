package kafka

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/Domenick1991/airbooking-core/internal/observability"
	"github.com/cockroachdb/errors"
	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockWriter struct {
	mock.Mock
}

func (m *MockWriter) WriteMessages(ctx context.Context, msgs ...kafka.Message) error {
	args := m.Called(ctx, msgs)
	return args.Error(0)
}

func (m *MockWriter) Close() error {
	return m.Called().Error(0)
}

type sliceReader struct {
	msgs      []kafka.Message
	committed []int64
	cancel    context.CancelFunc
}

func (r *sliceReader) FetchMessage(ctx context.Context) (kafka.Message, error) {
	if len(r.msgs) == 0 {
		r.cancel()
		<-ctx.Done()
		return kafka.Message{}, ctx.Err()
	}
	msg := r.msgs[0]
	r.msgs = r.msgs[1:]
	return msg, nil
}

func (r *sliceReader) CommitMessages(ctx context.Context, msgs ...kafka.Message) error {
	for _, m := range msgs {
		r.committed = append(r.committed, m.Offset)
	}
	return nil
}

func (r *sliceReader) Close() error { return nil }

func TestProducer_Publish(t *testing.T) {
	writer := &MockWriter{}
	p := &Producer{writer: writer, logger: observability.NewNop()}

	writer.On("WriteMessages", mock.Anything, mock.MatchedBy(func(msgs []kafka.Message) bool {
		if len(msgs) != 1 || msgs[0].Topic != "booking_events" || string(msgs[0].Key) != "ABC234" {
			return false
		}
		var e BookingEvent
		return json.Unmarshal(msgs[0].Value, &e) == nil && e.Type == "booking_created"
	})).Return(nil).Once()

	err := p.Publish(context.Background(), "booking_events", "ABC234", BookingEvent{Type: "booking_created", Reference: "ABC234"})
	require.NoError(t, err)
	writer.AssertExpectations(t)
}

func TestProducer_PublishWithRetry(t *testing.T) {
	writer := &MockWriter{}
	p := &Producer{writer: writer, logger: observability.NewNop()}

	writer.On("WriteMessages", mock.Anything, mock.Anything).Return(errors.New("leader not available")).Once()
	writer.On("WriteMessages", mock.Anything, mock.Anything).Return(nil).Once()

	err := p.PublishWithRetry(context.Background(), "t", "k", map[string]string{"a": "b"}, 3)
	require.NoError(t, err)
	writer.AssertNumberOfCalls(t, "WriteMessages", 2)
}

func TestConsumer_ConsumeRefunds_CommitsBadMessages(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	good, err := json.Marshal(RefundRequest{Reference: "ABC234", Amount: 3800000})
	require.NoError(t, err)
	reader := &sliceReader{
		msgs: []kafka.Message{
			{Offset: 1, Value: []byte("{not json")},
			{Offset: 2, Value: good},
		},
		cancel: cancel,
	}
	c := &Consumer{reader: reader, logger: observability.NewNop()}

	var got []RefundRequest
	err = c.ConsumeRefunds(ctx, func(ctx context.Context, req RefundRequest) error {
		got = append(got, req)
		return nil
	})
	require.NoError(t, err)

	require.Len(t, got, 1)
	assert.Equal(t, int64(3800000), got[0].Amount)
	assert.Equal(t, []int64{1, 2}, reader.committed)
}

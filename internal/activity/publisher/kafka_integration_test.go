//go:build integration

package publisher

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/twmb/franz-go/pkg/kgo"

	"keystone/internal/activity/models"
	"keystone/pkg/domain"
	"keystone/pkg/testutil/containers"
)

func TestKafkaPublisherRoundTrip(t *testing.T) {
	ctx := context.Background()
	broker := containers.NewRedpandaContainer(t)
	const topic = "keystone.activity.test"

	pub, err := NewKafkaPublisher(ctx, broker.Brokers, topic, "keystone-test", WithTopicLayout(1, 1))
	require.NoError(t, err)
	t.Cleanup(func() { _ = pub.Close(context.Background()) })

	// A second publisher sees the existing topic and still starts.
	again, err := NewKafkaPublisher(ctx, broker.Brokers, topic, "keystone-test-2", WithTopicLayout(1, 1))
	require.NoError(t, err)
	require.NoError(t, again.Close(ctx))

	sent := models.Activity{
		ID:               uuid.New(),
		WalletAddress:    domain.MustWalletAddress("0x00000000000000000000000000000000000000aa"),
		Kind:             models.KindVerificationAdded,
		Timestamp:        time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC),
		Description:      "Added student verification",
		VerificationType: domain.VerificationStudent,
		Status:           "completed",
	}
	require.NoError(t, pub.Publish(ctx, sent))

	consumer, err := kgo.NewClient(
		kgo.SeedBrokers(broker.Brokers...),
		kgo.ConsumeTopics(topic),
		kgo.ConsumeResetOffset(kgo.NewOffset().AtStart()),
	)
	require.NoError(t, err)
	t.Cleanup(consumer.Close)

	pollCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	var records []*kgo.Record
	for len(records) == 0 {
		fetches := consumer.PollFetches(pollCtx)
		require.NoError(t, pollCtx.Err(), "timed out waiting for activity record")
		fetches.EachRecord(func(r *kgo.Record) { records = append(records, r) })
	}

	rec := records[0]
	assert.Equal(t, sent.WalletAddress.String(), string(rec.Key))
	require.Len(t, rec.Headers, 1)
	assert.Equal(t, "verification_added", string(rec.Headers[0].Value))

	var got models.Activity
	require.NoError(t, json.Unmarshal(rec.Value, &got))
	assert.Equal(t, sent, got)
}

func TestNewKafkaPublisherValidation(t *testing.T) {
	_, err := NewKafkaPublisher(context.Background(), nil, "topic", "id")
	require.Error(t, err)
	_, err = NewKafkaPublisher(context.Background(), []string{"localhost:9092"}, "", "id")
	require.Error(t, err)
}

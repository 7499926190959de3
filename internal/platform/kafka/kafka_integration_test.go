//go:build integration

package kafka

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/twmb/franz-go/pkg/kgo"

	"steward/internal/platform/config"
	"steward/pkg/platform/audit"
	"steward/pkg/platform/audit/relay"
	auditmemory "steward/pkg/platform/audit/store/memory"
	"steward/pkg/testutil/containers"
)

func TestRelayPublishesOutboxToBroker(t *testing.T) {
	rp := containers.GetManager().GetRedpanda(t)
	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	topic := "steward.test." + uuid.NewString()
	producer, err := NewProducer(config.KafkaConfig{Brokers: rp.Brokers})
	require.NoError(t, err)
	defer producer.Close()
	require.NoError(t, producer.Ping(ctx))
	require.NoError(t, producer.EnsureTopics(ctx, 1, 1, topic))
	require.NoError(t, producer.EnsureTopics(ctx, 1, 1, topic), "provisioning is idempotent")

	store := auditmemory.NewInMemoryStore()
	studyID := uuid.NewString()
	for _, action := range []audit.AuditEvent{audit.EventStudyReadyForReview, audit.EventStudyApproved} {
		require.NoError(t, store.Append(ctx, audit.Event{
			ID:          uuid.New(),
			Action:      action,
			Timestamp:   time.Now(),
			SubjectType: "study",
			SubjectID:   studyID,
		}))
	}

	n, err := relay.New(store, producer, topic).Flush(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	pending, err := store.Pending(ctx, 10)
	require.NoError(t, err)
	assert.Empty(t, pending)

	consumer, err := kgo.NewClient(
		kgo.SeedBrokers(rp.Brokers...),
		kgo.ConsumeTopics(topic),
		kgo.ConsumeResetOffset(kgo.NewOffset().AtStart()),
	)
	require.NoError(t, err)
	defer consumer.Close()

	var keys []string
	for len(keys) < 2 {
		fetches := consumer.PollFetches(ctx)
		require.NoError(t, ctx.Err())
		fetches.EachRecord(func(r *kgo.Record) {
			keys = append(keys, string(r.Key))
		})
	}
	assert.Equal(t, []string{studyID, studyID}, keys)
}

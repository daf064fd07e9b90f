package kafka

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testPayload struct {
	ReviewID string `json:"review_id"`
	Category string `json:"category"`
}

func TestNewEvent(t *testing.T) {
	payload := testPayload{ReviewID: "rev-1", Category: "bug"}

	evt, err := NewEvent("review.categorized", "rev-1", "review", "review-service", payload)

	require.NoError(t, err)
	assert.NotEmpty(t, evt.EventID)
	assert.Equal(t, "review.categorized", evt.EventType)
	assert.Equal(t, "rev-1", evt.AggregateID)
	assert.Equal(t, "review", evt.AggregateType)
	assert.Equal(t, 1, evt.Version)
	assert.Equal(t, "review-service", evt.Source)
	assert.False(t, evt.Timestamp.IsZero())
	assert.Empty(t, evt.CorrelationID)
}

func TestEvent_RoundTripData(t *testing.T) {
	evt, err := NewEvent("review.ingested", "rev-2", "review", "review-service",
		testPayload{ReviewID: "rev-2", Category: "other"})
	require.NoError(t, err)

	evt.WithCorrelationID("corr-123")

	raw, err := evt.Marshal()
	require.NoError(t, err)
	assert.Contains(t, string(raw), "corr-123")

	var got testPayload
	require.NoError(t, evt.UnmarshalData(&got))
	assert.Equal(t, "rev-2", got.ReviewID)
	assert.Equal(t, "other", got.Category)
}

func TestNewEvent_UnmarshalableData(t *testing.T) {
	_, err := NewEvent("review.ingested", "rev-3", "review", "review-service", make(chan int))

	assert.Error(t, err)
}

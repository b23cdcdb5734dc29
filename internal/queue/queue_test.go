package queue

import (
	"encoding/json"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"photomark/internal/models"
)

func TestRetryableBounds(t *testing.T) {
	assert.True(t, retryable(1, 3))
	assert.True(t, retryable(2, 3))
	assert.False(t, retryable(3, 3))
	assert.False(t, retryable(4, 3))
	assert.False(t, retryable(1, 1))
}

func TestJobPayloadRoundTrip(t *testing.T) {
	job := models.Job{
		ID:          uuid.New(),
		ImageID:     uuid.New(),
		OriginalKey: "original/abc.jpg",
		HumanLabel:  "Garden Hose",
		Attempt:     2,
	}

	data, err := json.Marshal(job)
	require.NoError(t, err)

	var got models.Job
	require.NoError(t, json.Unmarshal(data, &got))
	assert.Equal(t, job, got)

	// The wire names are part of the queue contract; a renamed field would
	// strand in-flight jobs across a deploy.
	var fields map[string]any
	require.NoError(t, json.Unmarshal(data, &fields))
	for _, name := range []string{"job_id", "image_id", "original_key", "human_label", "attempt"} {
		assert.Contains(t, fields, name)
	}
}

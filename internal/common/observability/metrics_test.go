package observability

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObservability_RecordWorkflow(t *testing.T) {
	obs, err := New("onboarding-test")
	require.NoError(t, err)

	obs.RecordWorkflow(context.Background(), "update_status", "success", 120*time.Millisecond)
	assert.NoError(t, obs.Shutdown(context.Background()))
}

func TestObservability_NilSafe(t *testing.T) {
	var obs *Observability
	obs.RecordWorkflow(context.Background(), "delete_application", "error", time.Second)
	assert.NoError(t, obs.Shutdown(context.Background()))
}

package tasks

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRoomSweepTask(t *testing.T) {
	task, err := NewRoomSweepTask(90 * time.Minute)
	require.NoError(t, err)

	assert.Equal(t, TypeRoomSweep, task.Type())
	var payload RoomSweepPayload
	require.NoError(t, json.Unmarshal(task.Payload(), &payload))
	assert.Equal(t, 90*time.Minute, payload.IdleAfter())
}

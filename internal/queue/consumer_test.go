package queue_test

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"workforce/internal/model"
	"workforce/internal/queue"
	"workforce/internal/testutil"
)

func TestAuditRecorder_Record(t *testing.T) {
	db := testutil.NewDB(t)
	recorder := queue.NewAuditRecorder(db)
	ctx := context.Background()

	event := queue.NewEvent(queue.EventTaskCreated, 7, time.Date(2024, 1, 10, 9, 0, 0, 0, time.UTC), map[string]interface{}{
		"task_id": 42,
	})
	body, err := json.Marshal(event)
	require.NoError(t, err)

	require.NoError(t, recorder.Record(ctx, body))
	// redelivery
	require.NoError(t, recorder.Record(ctx, body))

	var logs []model.EventLog
	require.NoError(t, db.Find(&logs).Error)
	require.Len(t, logs, 1)
	assert.Equal(t, event.ID, logs[0].EventID)
	assert.Equal(t, queue.EventTaskCreated, logs[0].Type)
	assert.Equal(t, int64(7), logs[0].EmployeeID)
	assert.JSONEq(t, `{"task_id":42}`, logs[0].Payload)
	assert.True(t, logs[0].OccurredAt.Equal(event.OccurredAt))
}

func TestAuditRecorder_RejectsMalformed(t *testing.T) {
	recorder := queue.NewAuditRecorder(testutil.NewDB(t))

	assert.Error(t, recorder.Record(context.Background(), []byte("not json")))
	assert.Error(t, recorder.Record(context.Background(), []byte(`{"event_type":"task.created"}`)))
}

func TestNewEvent(t *testing.T) {
	at := time.Date(2024, 1, 10, 14, 30, 0, 0, time.FixedZone("IST", 5*3600+1800))

	a := queue.NewEvent(queue.EventCheckedIn, 1, at, nil)
	b := queue.NewEvent(queue.EventCheckedIn, 1, at, nil)

	assert.NotEqual(t, a.ID, b.ID)
	assert.Equal(t, time.UTC, a.OccurredAt.Location())
	assert.True(t, a.OccurredAt.Equal(at))
}

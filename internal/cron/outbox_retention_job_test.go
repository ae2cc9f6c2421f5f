package cron

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/wholesalehub-backend/pkg/db"
	"github.com/angelmondragon/wholesalehub-backend/pkg/db/dbtest"
	"github.com/angelmondragon/wholesalehub-backend/pkg/db/models"
	"github.com/angelmondragon/wholesalehub-backend/pkg/enums"
	"github.com/angelmondragon/wholesalehub-backend/pkg/outbox"
)

func TestOutboxRetentionPurgesSettledRows(t *testing.T) {
	conn := dbtest.Open(t)
	now := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	old := now.AddDate(0, 0, -40)
	recent := now.AddDate(0, 0, -1)

	event := func(label string, created time.Time, published *time.Time, attempts int) models.OutboxEvent {
		return models.OutboxEvent{
			ID:            uuid.New(),
			EventType:     enums.EventOrderCreated,
			AggregateType: enums.AggregateOrder,
			AggregateID:   uuid.New(),
			Payload:       json.RawMessage(`{"label":"` + label + `"}`),
			CreatedAt:     created,
			PublishedAt:   published,
			AttemptCount:  attempts,
		}
	}
	rows := []models.OutboxEvent{
		event("published-old", old, &old, 0),
		event("published-recent", recent, &recent, 0),
		event("pending-old", old, nil, 2),
		event("dead-old", old, nil, 10),
	}
	for _, row := range rows {
		require.NoError(t, conn.Create(&row).Error)
	}

	job, err := NewOutboxRetentionJob(OutboxRetentionJobParams{
		Logger:           testLogger(),
		DB:               db.Wrap(conn),
		Outbox:           outbox.NewRepository(conn),
		TerminalAttempts: 10,
	})
	require.NoError(t, err)
	job.(*outboxRetentionJob).now = func() time.Time { return now }

	require.NoError(t, job.Run(context.Background()))

	var remaining []models.OutboxEvent
	require.NoError(t, conn.Find(&remaining).Error)
	kept := map[uuid.UUID]bool{}
	for _, row := range remaining {
		kept[row.ID] = true
	}
	assert.Len(t, remaining, 2)
	assert.True(t, kept[rows[1].ID])
	assert.True(t, kept[rows[2].ID])
}

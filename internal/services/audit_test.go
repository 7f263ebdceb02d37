package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"

	"lead-workflow/internal/models"
)

func TestAggregateLogs(t *testing.T) {
	t0 := time.Date(2024, 2, 1, 9, 0, 0, 0, time.UTC)
	at := func(h int) time.Time { return t0.Add(time.Duration(h) * time.Hour) }

	lead := &models.Lead{
		Logs: []models.LogEntry{
			{Comment: "Lead created", Timestamp: at(0)},
			{Comment: "Forwarded to SO-MGR-1 (Sourcing)", Timestamp: at(2)},
			{Comment: "legacy entry"},
		},
		CustomerService: &models.CustomerServiceDetails{DepartmentEnvelope: models.DepartmentEnvelope{
			Logs: []models.LogEntry{{Comment: "Customer Service details updated", Timestamp: at(1)}},
		}},
		Sourcing: &models.SourcingDetails{DepartmentEnvelope: models.DepartmentEnvelope{
			Logs: []models.LogEntry{
				{Comment: "Sourcing details updated", Timestamp: at(3)},
				{Comment: "Sourcing details updated", Timestamp: at(3)},
			},
		}},
	}

	entries := AggregateLogs(lead)
	require.Len(t, entries, 6)

	var departments []string
	for i, e := range entries {
		departments = append(departments, e.Department)
		if i > 0 && !e.Timestamp.IsZero() {
			assert.False(t, e.Timestamp.After(entries[i-1].Timestamp), "entry %d out of order", i)
		}
	}
	assert.Equal(t, []string{"Sourcing", "Sourcing", models.GeneralLogLabel, "Customer Service", models.GeneralLogLabel, models.GeneralLogLabel}, departments)
	assert.Equal(t, "legacy entry", entries[5].Comment)
	assert.True(t, entries[5].Timestamp.IsZero())
}

func TestAggregateLogs_StoredTimestamps(t *testing.T) {
	data, err := bson.Marshal(bson.M{
		"leadId": "LEAD-1",
		"logs": bson.A{
			bson.M{"comment": "garbage", "timestamp": "not-a-date"},
			bson.M{"comment": "created", "timestamp": time.Date(2024, 2, 1, 9, 0, 0, 0, time.UTC)},
			bson.M{"comment": "string", "timestamp": "2024-02-01T11:00:00Z"},
		},
		"sales": bson.M{
			"logs": bson.A{bson.M{"comment": "millis", "timestamp": int64(1706781600000)}},
		},
	})
	require.NoError(t, err)

	var lead models.Lead
	require.NoError(t, bson.Unmarshal(data, &lead))

	entries := AggregateLogs(&lead)
	require.Len(t, entries, 4)
	var comments []string
	for _, e := range entries {
		comments = append(comments, e.Comment)
	}
	assert.Equal(t, []string{"string", "millis", "created", "garbage"}, comments)
	assert.True(t, entries[3].Timestamp.IsZero())
}

func TestAggregateLogs_Empty(t *testing.T) {
	entries := AggregateLogs(&models.Lead{})
	assert.NotNil(t, entries)
	assert.Empty(t, entries)
}

package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/danarifka/studyplan-api/internal/dto"
	"github.com/danarifka/studyplan-api/internal/models"
	"github.com/danarifka/studyplan-api/pkg/config"
)

func videoFixture() *VideoScheduleService {
	return NewVideoScheduleService(config.OptimizerConfig{
		SessionMinutes: 90,
		BreakMinutes:   30,
		MaxDailyHours:  3.5,
		MinChunkHours:  0.5,
		DayCyclePasses: 2,
	}, nil, nil)
}

func TestChunkDuration(t *testing.T) {
	svc := videoFixture()

	chunks := svc.chunkDuration(4)
	require.Len(t, chunks, 3)
	assert.Equal(t, 1.5, chunks[0].DurationHours)
	assert.Equal(t, 1.5, chunks[1].DurationHours)
	assert.Equal(t, 1.0, chunks[2].DurationHours)
	assert.Equal(t, "1/3", chunks[0].SessionNumber)
	assert.Equal(t, "3/3", chunks[2].SessionNumber)
	assert.Equal(t, 3.0, chunks[2].OffsetHours)

	chunks = svc.chunkDuration(1)
	require.Len(t, chunks, 1)
	assert.Equal(t, 1.0, chunks[0].DurationHours)
}

func TestVideoScheduleGenerate(t *testing.T) {
	svc := videoFixture()

	resp, err := svc.Generate(context.Background(), dto.VideoScheduleRequest{
		VideoURL:      "https://example.com/course",
		DurationHours: 3,
		Title:         "Distributed Systems",
	}, []models.TimeAvailability{
		{DayOfWeek: "monday", StartTime: "09:00", EndTime: "13:00", IsAvailable: true},
		{DayOfWeek: "saturday", StartTime: "09:00", EndTime: "13:00", IsAvailable: true},
	})
	require.NoError(t, err)

	assert.Equal(t, "Distributed Systems", resp.Title)
	assert.Equal(t, 2, resp.SessionsCount)
	assert.Zero(t, resp.DroppedChunks)
	assert.InDelta(t, 3.0, resp.TotalHours, 0.01)
	require.Len(t, resp.Items, 2)

	// Both chunks land on the weekday: the window holds the first session, a
	// break, and the second session before the daily cap bites.
	first, second := resp.Items[0], resp.Items[1]
	assert.Equal(t, "monday", first.DayOfWeek)
	assert.Equal(t, "monday", second.DayOfWeek)
	assert.Equal(t, "09:00", first.StartTime)
	assert.Equal(t, "10:30", first.EndTime)
	assert.Equal(t, "11:00", second.StartTime, "break should separate back-to-back sessions")
	assert.Equal(t, "12:30", second.EndTime)
	assert.Equal(t, 30, first.BreakAfterMin)
	assert.Equal(t, 0, second.BreakAfterMin, "no break after the final session")
}

func TestVideoScheduleDailyCap(t *testing.T) {
	svc := videoFixture()

	resp, err := svc.Generate(context.Background(), dto.VideoScheduleRequest{
		VideoURL:      "https://example.com/course",
		DurationHours: 6,
	}, []models.TimeAvailability{
		{DayOfWeek: "monday", StartTime: "08:00", EndTime: "20:00", IsAvailable: true},
		{DayOfWeek: "tuesday", StartTime: "08:00", EndTime: "20:00", IsAvailable: true},
	})
	require.NoError(t, err)

	perDay := map[string]float64{}
	for _, item := range resp.Items {
		perDay[item.DayOfWeek] += item.EstimatedHours
	}
	for day, hours := range perDay {
		assert.LessOrEqual(t, hours, 3.5, "daily cap exceeded on %s", day)
	}
	assert.Equal(t, 2, resp.DaysUsed)
	assert.Zero(t, resp.DroppedChunks)
}

func TestVideoScheduleDropsUnplaceableChunks(t *testing.T) {
	svc := videoFixture()

	resp, err := svc.Generate(context.Background(), dto.VideoScheduleRequest{
		VideoURL:      "https://example.com/course",
		DurationHours: 10,
	}, []models.TimeAvailability{
		{DayOfWeek: "sunday", StartTime: "10:00", EndTime: "12:00", IsAvailable: true},
	})
	require.NoError(t, err)

	assert.Greater(t, resp.DroppedChunks, 0)
	assert.Less(t, len(resp.Items), resp.SessionsCount)
}

func TestVideoScheduleNoAvailability(t *testing.T) {
	svc := videoFixture()

	_, err := svc.Generate(context.Background(), dto.VideoScheduleRequest{
		VideoURL:      "https://example.com/course",
		DurationHours: 2,
	}, nil)
	require.Error(t, err)
}

func TestVideoScheduleRejectsInvalidRequest(t *testing.T) {
	svc := videoFixture()

	_, err := svc.Generate(context.Background(), dto.VideoScheduleRequest{
		VideoURL:      "not-a-url",
		DurationHours: 2,
	}, weekAvailability())
	require.Error(t, err)

	_, err = svc.Generate(context.Background(), dto.VideoScheduleRequest{
		VideoURL: "https://example.com/course",
	}, weekAvailability())
	require.Error(t, err)
}

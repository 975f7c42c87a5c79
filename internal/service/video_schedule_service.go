package service

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/danarifka/studyplan-api/internal/dto"
	"github.com/danarifka/studyplan-api/internal/models"
	"github.com/danarifka/studyplan-api/pkg/config"
	appErrors "github.com/danarifka/studyplan-api/pkg/errors"
)

// VideoScheduleService splits one long external duration (typically a video
// course) into bounded study sessions and distributes them across the week
// under a daily hour cap.
type VideoScheduleService struct {
	cfg       config.OptimizerConfig
	validator *validator.Validate
	logger    *zap.Logger
}

// NewVideoScheduleService constructs the chunked-schedule generator.
func NewVideoScheduleService(cfg config.OptimizerConfig, validate *validator.Validate, logger *zap.Logger) *VideoScheduleService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.SessionMinutes <= 0 {
		cfg.SessionMinutes = 90
	}
	if cfg.BreakMinutes <= 0 {
		cfg.BreakMinutes = 30
	}
	if cfg.MaxDailyHours <= 0 {
		cfg.MaxDailyHours = 3.5
	}
	if cfg.MinChunkHours <= 0 {
		cfg.MinChunkHours = 0.5
	}
	if cfg.DayCyclePasses <= 0 {
		cfg.DayCyclePasses = 2
	}
	return &VideoScheduleService{cfg: cfg, validator: validate, logger: logger}
}

// Generate builds the weekly plan for the requested video duration using the
// caller's availability records.
func (s *VideoScheduleService) Generate(ctx context.Context, req dto.VideoScheduleRequest, availability []models.TimeAvailability) (*dto.VideoScheduleResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid video schedule payload")
	}

	windows := newWindowPool(s.logger, availability)
	if len(windows) == 0 {
		return nil, appErrors.Clone(appErrors.ErrPreconditionFailed, "no available time windows")
	}

	available := availableHours(windows)

	chunks := s.chunkDuration(req.DurationHours)
	items, dropped := s.distributeWeekly(chunks, windows, req.Title)

	totalHours := 0.0
	daysUsed := map[string]struct{}{}
	for _, item := range items {
		totalHours += item.EstimatedHours
		daysUsed[item.DayOfWeek] = struct{}{}
	}

	var efficiency float64
	if available > 0 {
		efficiency = totalHours / available * 100
	}

	title := req.Title
	if title == "" {
		title = "Video Learning Schedule"
	}

	s.logger.Info("video schedule generated",
		zap.Int("sessions", len(items)),
		zap.Int("dropped", dropped),
		zap.Float64("total_hours", totalHours),
	)

	return &dto.VideoScheduleResponse{
		Title:          title,
		VideoURL:       req.VideoURL,
		TotalHours:     totalHours,
		AvailableHours: available,
		Efficiency:     round1(efficiency),
		Items:          items,
		SessionsCount:  len(chunks),
		DroppedChunks:  dropped,
		DaysUsed:       len(daysUsed),
	}, nil
}

// chunkDuration carves the total duration into sub-sessions no larger than
// the optimal session length, tagging each with its sequence number and
// cumulative offset.
func (s *VideoScheduleService) chunkDuration(totalHours float64) []dto.VideoSessionChunk {
	maxChunk := float64(s.cfg.SessionMinutes) / 60.0
	var sizes []float64
	for remaining := totalHours; remaining > 0; {
		size := math.Min(remaining, maxChunk)
		remaining -= size
		// A trailing sliver under the minimum viable session folds into the
		// previous chunk rather than becoming its own sitting.
		if size < s.cfg.MinChunkHours && len(sizes) > 0 {
			sizes[len(sizes)-1] += size
			continue
		}
		sizes = append(sizes, size)
	}

	chunks := make([]dto.VideoSessionChunk, 0, len(sizes))
	offset := 0.0
	for i, size := range sizes {
		chunks = append(chunks, dto.VideoSessionChunk{
			SessionNumber: fmt.Sprintf("%d/%d", i+1, len(sizes)),
			DurationHours: size,
			OffsetHours:   offset,
		})
		offset += size
	}
	return chunks
}

// distributeWeekly places chunks across days, weekdays before weekends, under
// the daily cap. A fixed break advances the window start after each placement.
// The day cursor cycling is bounded; chunks that never fit are dropped and
// counted.
func (s *VideoScheduleService) distributeWeekly(chunks []dto.VideoSessionChunk, windows []timeWindow, title string) ([]dto.VideoScheduleItem, int) {
	daily := make(map[string][]*timeWindow)
	for i := range windows {
		daily[windows[i].day] = append(daily[windows[i].day], &windows[i])
	}

	var sortedDays []string
	for _, day := range models.Weekdays {
		if _, ok := daily[day]; ok {
			sortedDays = append(sortedDays, day)
		}
	}
	if len(sortedDays) == 0 {
		return nil, len(chunks)
	}

	dailyStudyHours := make(map[string]float64, len(sortedDays))

	var items []dto.VideoScheduleItem
	chunkIndex := 0
	dayCursor := 0
	maxCursor := len(sortedDays) * s.cfg.DayCyclePasses

	for chunkIndex < len(chunks) && dayCursor < maxCursor {
		day := sortedDays[dayCursor%len(sortedDays)]

		if dailyStudyHours[day] >= s.cfg.MaxDailyHours {
			dayCursor++
			continue
		}

		placed := false
		for _, window := range daily[day] {
			if dailyStudyHours[day] >= s.cfg.MaxDailyHours {
				break
			}

			// A chunk is placed whole or not at all; partial placement would
			// silently truncate course content.
			chunkHours := chunks[chunkIndex].DurationHours
			windowHours := float64(window.remainingMinutes()) / 60.0
			remainingDaily := s.cfg.MaxDailyHours - dailyStudyHours[day]
			if chunkHours > windowHours || chunkHours > remainingDaily {
				continue
			}

			sessionMinutes := int(chunkHours * 60)
			endMin := window.startMin + sessionMinutes

			breakAfter := 0
			if chunkIndex < len(chunks)-1 {
				breakAfter = s.cfg.BreakMinutes
			}

			items = append(items, dto.VideoScheduleItem{
				SessionNumber:  chunks[chunkIndex].SessionNumber,
				Title:          sessionTitle(title, chunks[chunkIndex].SessionNumber),
				DayOfWeek:      day,
				StartTime:      formatClock(window.startMin),
				EndTime:        formatClock(endMin),
				EstimatedHours: chunkHours,
				BreakAfterMin:  breakAfter,
				OrderIndex:     chunkIndex,
			})

			dailyStudyHours[day] += chunkHours
			window.startMin = endMin + s.cfg.BreakMinutes
			if window.startMin > window.endMin {
				window.startMin = window.endMin
			}

			chunkIndex++
			placed = true
			break
		}

		if !placed {
			dayCursor++
		}
	}

	sort.SliceStable(items, func(i, j int) bool {
		di, dj := models.DayIndex(items[i].DayOfWeek), models.DayIndex(items[j].DayOfWeek)
		if di != dj {
			return di < dj
		}
		return items[i].StartTime < items[j].StartTime
	})

	return items, len(chunks) - chunkIndex
}

// newWindowPool normalizes availability for the chunker without requiring the
// caller to construct an optimizer service.
func newWindowPool(logger *zap.Logger, availability []models.TimeAvailability) []timeWindow {
	windows := make([]timeWindow, 0, len(availability))
	for _, record := range availability {
		if !record.IsAvailable {
			continue
		}
		start, err := parseClock(record.StartTime)
		if err != nil {
			logger.Warn("dropping availability record", zap.Error(err))
			continue
		}
		end, err := parseClock(record.EndTime)
		if err != nil {
			logger.Warn("dropping availability record", zap.Error(err))
			continue
		}
		day := strings.ToLower(strings.TrimSpace(record.DayOfWeek))
		if models.DayIndex(day) < 0 || end-start <= 0 {
			logger.Warn("dropping availability record",
				zap.String("day_of_week", record.DayOfWeek),
				zap.String("start_time", record.StartTime),
			)
			continue
		}
		windows = append(windows, timeWindow{day: day, startMin: start, endMin: end})
	}
	return windows
}

func sessionTitle(base, number string) string {
	if base == "" {
		base = "Learning Session"
	}
	return fmt.Sprintf("%s - Part %s", base, number)
}

package services

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	planningDomain "github.com/waypointhq/waypoint/internal/planning/domain"
)

func mustTask(t *testing.T, planID uuid.UUID, idx int, name string, duration, priority int) planningDomain.PlanTask {
	t.Helper()
	task, err := planningDomain.NewPlanTask(planID, idx, name, duration, priority, 0)
	require.NoError(t, err)
	return task
}

// monday returns a fixed Monday so weekday-dependent tests are stable.
func monday() time.Time {
	return time.Date(2026, time.March, 2, 0, 0, 0, 0, time.UTC)
}

func saturday() time.Time {
	return time.Date(2026, time.March, 7, 0, 0, 0, 0, time.UTC)
}

func at(date time.Time, hour, minute int) time.Time {
	return time.Date(date.Year(), date.Month(), date.Day(), hour, minute, 0, 0, date.Location())
}

func slotSpan(p planningDomain.Placement) string {
	return p.StartTime + "-" + p.EndTime
}

func TestTimeBlockScheduler_Schedule(t *testing.T) {
	planID := uuid.New()
	userID := uuid.New()
	scheduler := NewTimeBlockScheduler()

	baseRequest := func() ScheduleRequest {
		return ScheduleRequest{
			PlanID:    planID,
			UserID:    userID,
			StartDate: monday(),
			EndDate:   monday(),
			Workday:   planningDomain.DefaultWorkdayConfig(),
			Now:       at(monday(), 8, 0),
		}
	}

	t.Run("places tasks sequentially from workday start", func(t *testing.T) {
		req := baseRequest()
		req.Tasks = []planningDomain.PlanTask{
			mustTask(t, planID, 0, "draft outline", 60, 1),
			mustTask(t, planID, 1, "write intro", 60, 2),
			mustTask(t, planID, 2, "collect sources", 60, 3),
		}

		result, err := scheduler.Schedule(req)
		require.NoError(t, err)

		require.Len(t, result.Placements, 3)
		assert.Empty(t, result.UnscheduledTasks)
		assert.Equal(t, "09:00-10:00", slotSpan(result.Placements[0]))
		assert.Equal(t, "10:00-11:00", slotSpan(result.Placements[1]))
		assert.Equal(t, "11:00-12:00", slotSpan(result.Placements[2]))
		assert.InDelta(t, 3.0, result.TotalScheduledHours, 1e-9)
	})

	t.Run("first placement starts no earlier than now", func(t *testing.T) {
		req := baseRequest()
		req.Now = at(monday(), 10, 30)
		req.Tasks = []planningDomain.PlanTask{
			mustTask(t, planID, 0, "draft outline", 60, 1),
		}

		result, err := scheduler.Schedule(req)
		require.NoError(t, err)

		require.Len(t, result.Placements, 1)
		assert.Equal(t, "10:30-11:30", slotSpan(result.Placements[0]))
	})

	t.Run("subtracts pre-now time when dates and now carry different zones", func(t *testing.T) {
		req := baseRequest()
		// Window dates round-trip through the database as UTC midnights
		// while Now comes from the host clock.
		zone := time.FixedZone("UTC+2", 2*60*60)
		req.Now = time.Date(2026, time.March, 2, 14, 0, 0, 0, zone)
		req.Tasks = []planningDomain.PlanTask{
			mustTask(t, planID, 0, "draft outline", 60, 1),
		}

		result, err := scheduler.Schedule(req)
		require.NoError(t, err)

		require.Len(t, result.Placements, 1)
		assert.Equal(t, "14:00-15:00", slotSpan(result.Placements[0]))
	})

	t.Run("skips days already past in the caller's zone", func(t *testing.T) {
		req := baseRequest()
		req.EndDate = monday().AddDate(0, 0, 1)
		zone := time.FixedZone("UTC+2", 2*60*60)
		req.Now = time.Date(2026, time.March, 3, 8, 0, 0, 0, zone)
		req.Tasks = []planningDomain.PlanTask{
			mustTask(t, planID, 0, "draft outline", 60, 1),
		}

		result, err := scheduler.Schedule(req)
		require.NoError(t, err)

		require.Len(t, result.Placements, 1)
		assert.True(t, planningDomain.SameDate(result.Placements[0].Date, monday().AddDate(0, 0, 1)))
		assert.Equal(t, "09:00-10:00", slotSpan(result.Placements[0]))
	})

	t.Run("rounds the first start up to the next quarter hour", func(t *testing.T) {
		req := baseRequest()
		req.Now = at(monday(), 10, 37)
		req.Tasks = []planningDomain.PlanTask{
			mustTask(t, planID, 0, "draft outline", 30, 1),
		}

		result, err := scheduler.Schedule(req)
		require.NoError(t, err)

		require.Len(t, result.Placements, 1)
		assert.Equal(t, "10:45", result.Placements[0].StartTime)
	})

	t.Run("skips busy slots", func(t *testing.T) {
		req := baseRequest()
		busy, err := planningDomain.NewBusySlot(monday(), 9*60, 10*60)
		require.NoError(t, err)
		req.BusySlots = []planningDomain.BusySlot{busy}
		req.Tasks = []planningDomain.PlanTask{
			mustTask(t, planID, 0, "draft outline", 60, 1),
		}

		result, err := scheduler.Schedule(req)
		require.NoError(t, err)

		require.Len(t, result.Placements, 1)
		assert.Equal(t, "10:00-11:00", slotSpan(result.Placements[0]))
	})

	t.Run("never places over lunch", func(t *testing.T) {
		req := baseRequest()
		req.Tasks = []planningDomain.PlanTask{
			mustTask(t, planID, 0, "deep work", 180, 1),
			mustTask(t, planID, 1, "follow up", 120, 2),
		}

		result, err := scheduler.Schedule(req)
		require.NoError(t, err)

		require.Len(t, result.Placements, 2)
		assert.Equal(t, "09:00-12:00", slotSpan(result.Placements[0]))
		assert.Equal(t, "13:00-15:00", slotSpan(result.Placements[1]))
	})

	t.Run("orders by priority then complexity then idx", func(t *testing.T) {
		req := baseRequest()
		highPriority, err := planningDomain.NewPlanTask(planID, 2, "urgent", 30, 1, 3)
		require.NoError(t, err)
		hard, err := planningDomain.NewPlanTask(planID, 1, "hard", 30, 2, 9)
		require.NoError(t, err)
		easy, err := planningDomain.NewPlanTask(planID, 0, "easy", 30, 2, 2)
		require.NoError(t, err)
		req.Tasks = []planningDomain.PlanTask{easy, hard, highPriority}

		result, err := scheduler.Schedule(req)
		require.NoError(t, err)

		require.Len(t, result.Placements, 3)
		assert.Equal(t, highPriority.ID, result.Placements[0].TaskID)
		assert.Equal(t, hard.ID, result.Placements[1].TaskID)
		assert.Equal(t, easy.ID, result.Placements[2].TaskID)
	})

	t.Run("oversized task stays pending while smaller tasks fill the interval", func(t *testing.T) {
		req := baseRequest()
		busy, err := planningDomain.NewBusySlot(monday(), 10*60, 17*60)
		require.NoError(t, err)
		req.BusySlots = []planningDomain.BusySlot{busy}
		big := mustTask(t, planID, 0, "big", 120, 1)
		small := mustTask(t, planID, 1, "small", 45, 2)
		req.Tasks = []planningDomain.PlanTask{big, small}

		result, err := scheduler.Schedule(req)
		require.NoError(t, err)

		require.Len(t, result.Placements, 1)
		assert.Equal(t, small.ID, result.Placements[0].TaskID)
		assert.Equal(t, "09:00-09:45", slotSpan(result.Placements[0]))
		require.Len(t, result.UnscheduledTasks, 1)
		assert.Equal(t, big.ID, result.UnscheduledTasks[0].ID)
	})

	t.Run("task too long for the morning lands in the afternoon", func(t *testing.T) {
		req := baseRequest()
		req.EndDate = monday().AddDate(0, 0, 1)
		req.Tasks = []planningDomain.PlanTask{
			mustTask(t, planID, 0, "one", 240, 1),
		}

		// 240 minutes exceeds the 3h morning but exactly fills 13:00-17:00.
		result, err := scheduler.Schedule(req)
		require.NoError(t, err)
		require.Len(t, result.Placements, 1)
		assert.Equal(t, "13:00-17:00", slotSpan(result.Placements[0]))
		assert.Equal(t, 0, result.Placements[0].DayIndex)
	})

	t.Run("skips weekends unless allowed", func(t *testing.T) {
		req := baseRequest()
		req.StartDate = time.Date(2026, time.March, 6, 0, 0, 0, 0, time.UTC) // Friday
		req.EndDate = req.StartDate.AddDate(0, 0, 3)                         // through Monday
		req.Now = at(req.StartDate, 16, 30)
		req.Tasks = []planningDomain.PlanTask{
			mustTask(t, planID, 0, "long task", 120, 1),
		}

		result, err := scheduler.Schedule(req)
		require.NoError(t, err)

		require.Len(t, result.Placements, 1)
		// Friday has only 30 minutes left, so the task lands on Monday.
		assert.Equal(t, time.Monday, result.Placements[0].Date.Weekday())
		assert.Equal(t, 3, result.Placements[0].DayIndex)
	})

	t.Run("single-day weekend window is still schedulable", func(t *testing.T) {
		req := baseRequest()
		req.StartDate = saturday()
		req.EndDate = saturday()
		req.Now = at(saturday(), 8, 0)
		req.Tasks = []planningDomain.PlanTask{
			mustTask(t, planID, 0, "weekend errand", 60, 1),
		}

		result, err := scheduler.Schedule(req)
		require.NoError(t, err)

		require.Len(t, result.Placements, 1)
		assert.Equal(t, "09:00-10:00", slotSpan(result.Placements[0]))
	})

	t.Run("weekend start unlocks every weekend in the window", func(t *testing.T) {
		req := baseRequest()
		req.StartDate = saturday()
		req.EndDate = saturday().AddDate(0, 0, 1) // Sunday
		req.Now = at(saturday(), 16, 45)
		req.Tasks = []planningDomain.PlanTask{
			mustTask(t, planID, 0, "spillover", 120, 1),
		}

		result, err := scheduler.Schedule(req)
		require.NoError(t, err)

		require.Len(t, result.Placements, 1)
		assert.Equal(t, time.Sunday, result.Placements[0].Date.Weekday())
	})

	t.Run("days before today contribute no capacity", func(t *testing.T) {
		req := baseRequest()
		req.StartDate = monday()
		req.EndDate = monday().AddDate(0, 0, 2)
		req.Now = at(monday().AddDate(0, 0, 2), 9, 0)
		req.Tasks = []planningDomain.PlanTask{
			mustTask(t, planID, 0, "late start", 60, 1),
		}

		result, err := scheduler.Schedule(req)
		require.NoError(t, err)

		require.Len(t, result.Placements, 1)
		assert.Equal(t, 2, result.Placements[0].DayIndex)
	})

	t.Run("reports unscheduled overflow without error", func(t *testing.T) {
		req := baseRequest()
		tasks := make([]planningDomain.PlanTask, 0, 10)
		for i := 0; i < 10; i++ {
			tasks = append(tasks, mustTask(t, planID, i, "chunk", 60, 1))
		}
		req.Tasks = tasks

		result, err := scheduler.Schedule(req)
		require.NoError(t, err)

		// One workday holds 7 hours (8 minus lunch).
		assert.Len(t, result.Placements, 7)
		assert.Len(t, result.UnscheduledTasks, 3)
		assert.InDelta(t, 7.0, result.TotalScheduledHours, 1e-9)
	})

	t.Run("rejects inverted date range", func(t *testing.T) {
		req := baseRequest()
		req.EndDate = monday().AddDate(0, 0, -1)

		_, err := scheduler.Schedule(req)
		assert.ErrorIs(t, err, planningDomain.ErrInvalidDateRange)
	})

	t.Run("rejects non-positive task duration", func(t *testing.T) {
		req := baseRequest()
		req.Tasks = []planningDomain.PlanTask{{
			ID:              uuid.New(),
			PlanID:          planID,
			Name:            "broken",
			DurationMinutes: -30,
			Priority:        1,
			ComplexityScore: 5,
		}}

		_, err := scheduler.Schedule(req)
		assert.ErrorIs(t, err, planningDomain.ErrNonPositiveDuration)
	})

	t.Run("rejects malformed workday config", func(t *testing.T) {
		req := baseRequest()
		req.Workday.WorkdayEndHour = 8

		_, err := scheduler.Schedule(req)
		assert.ErrorIs(t, err, planningDomain.ErrInvalidWorkday)
	})
}

func TestTimeBlockScheduler_Properties(t *testing.T) {
	planID := uuid.New()
	userID := uuid.New()
	scheduler := NewTimeBlockScheduler()

	buildRequest := func(t *testing.T) ScheduleRequest {
		t.Helper()
		busy1, err := planningDomain.NewBusySlot(monday(), 9*60+30, 10*60+15)
		require.NoError(t, err)
		busy2, err := planningDomain.NewBusySlot(monday().AddDate(0, 0, 1), 14*60, 15*60)
		require.NoError(t, err)

		durations := []int{30, 45, 60, 90, 120, 25, 50, 75, 15, 240}
		tasks := make([]planningDomain.PlanTask, 0, len(durations))
		for i, d := range durations {
			tasks = append(tasks, mustTask(t, planID, i, "task", d, 1+i%4))
		}
		return ScheduleRequest{
			PlanID:    planID,
			UserID:    userID,
			Tasks:     tasks,
			StartDate: monday(),
			EndDate:   monday().AddDate(0, 0, 2),
			Workday:   planningDomain.DefaultWorkdayConfig(),
			Now:       at(monday(), 8, 45),
			BusySlots: []planningDomain.BusySlot{busy1, busy2},
		}
	}

	t.Run("no two placements on a day overlap", func(t *testing.T) {
		result, err := scheduler.Schedule(buildRequest(t))
		require.NoError(t, err)

		for i, a := range result.Placements {
			ivA, err := a.Interval()
			require.NoError(t, err)
			for _, b := range result.Placements[i+1:] {
				if !planningDomain.SameDate(a.Date, b.Date) {
					continue
				}
				ivB, err := b.Interval()
				require.NoError(t, err)
				assert.False(t, ivA.Overlaps(ivB), "placements %s and %s overlap", slotSpan(a), slotSpan(b))
			}
		}
	})

	t.Run("placements stay inside the workday and avoid busy time", func(t *testing.T) {
		req := buildRequest(t)
		result, err := scheduler.Schedule(req)
		require.NoError(t, err)

		window := req.Workday.DayWindow()
		lunch := req.Workday.LunchInterval()
		for _, p := range result.Placements {
			iv, err := p.Interval()
			require.NoError(t, err)
			assert.GreaterOrEqual(t, iv.Start, window.Start)
			assert.LessOrEqual(t, iv.End, window.End)
			assert.False(t, iv.Overlaps(lunch), "placement %s overlaps lunch", slotSpan(p))
			for _, busy := range req.BusySlots {
				if !planningDomain.SameDate(busy.Date, p.Date) {
					continue
				}
				busyIv, err := busy.Interval()
				require.NoError(t, err)
				assert.False(t, iv.Overlaps(busyIv), "placement %s overlaps busy slot", slotSpan(p))
			}
		}
	})

	t.Run("every task is placed or unscheduled, never both", func(t *testing.T) {
		req := buildRequest(t)
		result, err := scheduler.Schedule(req)
		require.NoError(t, err)

		seen := make(map[uuid.UUID]int, len(req.Tasks))
		for _, p := range result.Placements {
			seen[p.TaskID]++
		}
		for _, task := range result.UnscheduledTasks {
			seen[task.ID]++
		}
		require.Len(t, seen, len(req.Tasks))
		for id, count := range seen {
			assert.Equal(t, 1, count, "task %s appears %d times", id, count)
		}
	})

	t.Run("total hours match the sum of placed durations", func(t *testing.T) {
		result, err := scheduler.Schedule(buildRequest(t))
		require.NoError(t, err)

		sum := 0
		for _, p := range result.Placements {
			sum += p.DurationMinutes
		}
		assert.InDelta(t, float64(sum)/60, result.TotalScheduledHours, 1e-9)
	})

	t.Run("identical inputs produce identical placements", func(t *testing.T) {
		req := buildRequest(t)
		first, err := scheduler.Schedule(req)
		require.NoError(t, err)
		second, err := scheduler.Schedule(req)
		require.NoError(t, err)

		require.Len(t, second.Placements, len(first.Placements))
		for i := range first.Placements {
			assert.Equal(t, first.Placements[i].TaskID, second.Placements[i].TaskID)
			assert.Equal(t, first.Placements[i].Date, second.Placements[i].Date)
			assert.Equal(t, slotSpan(first.Placements[i]), slotSpan(second.Placements[i]))
		}
		assert.Equal(t, first.UnscheduledTasks, second.UnscheduledTasks)
	})
}

package services

import (
    "time"

    "github.com/HamedShams/board-pulse/internal/domain"
)

// SynthesizeHistory reconstructs a synthetic day-by-day statistics series
// from current task timestamps, oldest day first, covering windowDays days
// ago through now's calendar day inclusive.
//
// The closed-at-time figure is an approximation: a task whose current state
// is terminal counts as closed on day d only when its last update is on or
// before d, so a task closed after d is treated as still open on d even if
// it had been briefly closed and reopened in reality.
func SynthesizeHistory(tasks []domain.Task, windowDays int, now time.Time) []domain.DailyStatistic {
    if windowDays < 0 { windowDays = 0 }
    start := dateOnly(now).AddDate(0, 0, -windowDays)
    out := make([]domain.DailyStatistic, 0, windowDays+1)
    for i := 0; i <= windowDays; i++ {
        day := start.AddDate(0, 0, i)
        out = append(out, statsAt(tasks, day))
    }
    return out
}

func statsAt(tasks []domain.Task, day time.Time) domain.DailyStatistic {
    endOfDay := day.AddDate(0, 0, 1)
    st := domain.DailyStatistic{Day: day}
    for _, t := range tasks {
        // a task with no creation timestamp is counted as always existing
        if t.CreatedAtSrc != nil && !t.CreatedAtSrc.Before(endOfDay) { continue }
        st.Total++
        closedAt := t.Closed() && t.UpdatedAtSrc != nil && t.UpdatedAtSrc.Before(endOfDay)
        if closedAt {
            st.Closed++
        } else if t.DueAt != nil && dateOnly(*t.DueAt).Before(day) {
            st.Overdue++
        }
    }
    st.Open = st.Total - st.Closed
    return st
}

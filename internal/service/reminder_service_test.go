package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/vitaldash/vitaldash/internal/model"
	appErr "github.com/vitaldash/vitaldash/internal/pkg/errors"
)

func TestCreateRejectsBadInput(t *testing.T) {
	svc := NewReminderService(nil)

	_, err := svc.Create(context.Background(), "u1", "medicine", "   ", "09:00", "Daily")
	require.ErrorIs(t, err, appErr.ErrInvalid)

	_, err = svc.Create(context.Background(), "u1", "medicine", "Pills", "9 o'clock", "Daily")
	require.ErrorIs(t, err, appErr.ErrInvalid)

	_, err = svc.Create(context.Background(), "u1", "medicine", "Pills", "09:00", "Yearly")
	require.ErrorIs(t, err, appErr.ErrInvalid)
}

func TestIsDueMinuteMustMatch(t *testing.T) {
	reminder := model.Reminder{RemindAt: "09:00", RepeatPattern: "Daily"}
	require.True(t, isDue(reminder, time.Date(2026, 3, 2, 9, 0, 30, 0, time.Local)))
	require.False(t, isDue(reminder, time.Date(2026, 3, 2, 9, 1, 0, 0, time.Local)))
}

func TestIsDueWeekdaysSkipsWeekend(t *testing.T) {
	reminder := model.Reminder{RemindAt: "09:00", RepeatPattern: "Weekdays"}
	monday := time.Date(2026, 3, 2, 9, 0, 0, 0, time.Local)
	saturday := time.Date(2026, 3, 7, 9, 0, 0, 0, time.Local)
	sunday := time.Date(2026, 3, 8, 9, 0, 0, 0, time.Local)
	require.True(t, isDue(reminder, monday))
	require.False(t, isDue(reminder, saturday))
	require.False(t, isDue(reminder, sunday))
}

func TestIsDueWeeklyFiresOnCreationWeekday(t *testing.T) {
	created := time.Date(2026, 3, 2, 8, 30, 0, 0, time.Local) // a Monday
	reminder := model.Reminder{RemindAt: "09:00", RepeatPattern: "Weekly", Ctime: created.Unix()}

	sameMonday := time.Date(2026, 3, 9, 9, 0, 0, 0, time.Local)
	tuesday := time.Date(2026, 3, 10, 9, 0, 0, 0, time.Local)
	require.True(t, isDue(reminder, sameMonday))
	require.False(t, isDue(reminder, tuesday))
}

func TestIsDueMonthlyFiresOnCreationDay(t *testing.T) {
	created := time.Date(2026, 3, 15, 8, 30, 0, 0, time.Local)
	reminder := model.Reminder{RemindAt: "09:00", RepeatPattern: "Monthly", Ctime: created.Unix()}

	require.True(t, isDue(reminder, time.Date(2026, 4, 15, 9, 0, 0, 0, time.Local)))
	require.False(t, isDue(reminder, time.Date(2026, 4, 16, 9, 0, 0, 0, time.Local)))
}

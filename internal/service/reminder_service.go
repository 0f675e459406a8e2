package service

import (
	"context"
	"strings"
	"time"

	"github.com/vitaldash/vitaldash/internal/model"
	appErr "github.com/vitaldash/vitaldash/internal/pkg/errors"
	"github.com/vitaldash/vitaldash/internal/pkg/timeutil"
	"github.com/vitaldash/vitaldash/internal/repo"
)

// repeatPatterns is the full set the due scan knows how to fire.
var repeatPatterns = map[string]struct{}{
	"Daily":    {},
	"Weekdays": {},
	"Weekly":   {},
	"Monthly":  {},
}

type ReminderService struct {
	reminders *repo.ReminderRepo
}

func NewReminderService(reminders *repo.ReminderRepo) *ReminderService {
	return &ReminderService{reminders: reminders}
}

func (s *ReminderService) Create(ctx context.Context, userID, rtype, title, remindAt, repeatPattern string) (*model.Reminder, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, appErr.ErrInvalid
	}
	if _, err := time.Parse("15:04", remindAt); err != nil {
		return nil, appErr.ErrInvalid
	}
	if repeatPattern == "" {
		repeatPattern = "Daily"
	}
	if _, ok := repeatPatterns[repeatPattern]; !ok {
		return nil, appErr.ErrInvalid
	}
	reminder := &model.Reminder{
		ID:            newID(),
		UserID:        userID,
		Type:          rtype,
		Title:         title,
		RemindAt:      remindAt,
		RepeatPattern: repeatPattern,
		Active:        1,
		Ctime:         timeutil.NowUnix(),
	}
	if err := s.reminders.Create(ctx, reminder); err != nil {
		return nil, err
	}
	return reminder, nil
}

func (s *ReminderService) List(ctx context.Context, userID string) ([]model.Reminder, error) {
	return s.reminders.ListByUser(ctx, userID)
}

func (s *ReminderService) Toggle(ctx context.Context, userID, reminderID string, active bool) error {
	value := 0
	if active {
		value = 1
	}
	return s.reminders.SetActive(ctx, userID, reminderID, value)
}

func (s *ReminderService) Delete(ctx context.Context, userID, reminderID string) error {
	return s.reminders.Delete(ctx, userID, reminderID)
}

// DueAt returns the active reminders firing in the minute of now.
func (s *ReminderService) DueAt(ctx context.Context, now time.Time) ([]model.Reminder, error) {
	reminders, err := s.reminders.ListActive(ctx)
	if err != nil {
		return nil, err
	}
	var due []model.Reminder
	for _, reminder := range reminders {
		if isDue(reminder, now) {
			due = append(due, reminder)
		}
	}
	return due, nil
}

// isDue reports whether the reminder fires in the minute of now. The
// creation time anchors Weekly and Monthly repeats.
func isDue(reminder model.Reminder, now time.Time) bool {
	if reminder.RemindAt != now.Format("15:04") {
		return false
	}
	switch reminder.RepeatPattern {
	case "Weekdays":
		weekday := now.Weekday()
		return weekday != time.Saturday && weekday != time.Sunday
	case "Weekly":
		return now.Weekday() == time.Unix(reminder.Ctime, 0).Weekday()
	case "Monthly":
		return now.Day() == time.Unix(reminder.Ctime, 0).Day()
	default:
		return true
	}
}

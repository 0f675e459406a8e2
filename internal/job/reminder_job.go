package job

import (
	"context"
	"time"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/vitaldash/vitaldash/internal/service"
)

// ReminderJob scans for reminders due in the current minute. Delivery
// is a log line for now; push channels can hang off the same scan.
type ReminderJob struct {
	reminders *service.ReminderService
}

func NewReminderJob(reminders *service.ReminderService) *ReminderJob {
	return &ReminderJob{reminders: reminders}
}

func (j *ReminderJob) Name() string {
	return "reminder_scan"
}

func (j *ReminderJob) Run(ctx context.Context) error {
	now := time.Now()
	due, err := j.reminders.DueAt(ctx, now)
	if err != nil {
		return err
	}
	logger := logutil.GetLogger(ctx)
	for _, reminder := range due {
		logger.Info("reminder due",
			zap.String("reminder_id", reminder.ID),
			zap.String("user_id", reminder.UserID),
			zap.String("type", reminder.Type),
			zap.String("title", reminder.Title),
			zap.String("remind_at", reminder.RemindAt),
		)
	}
	return nil
}

package repo

import (
	"context"
	"database/sql"

	"github.com/didi/gendry/builder"

	"github.com/vitaldash/vitaldash/internal/model"
	"github.com/vitaldash/vitaldash/internal/pkg/dbutil"
	appErr "github.com/vitaldash/vitaldash/internal/pkg/errors"
)

var reminderColumns = []string{"id", "user_id", "rtype", "title", "remind_at", "repeat_pattern", "active", "ctime"}

type ReminderRepo struct {
	db *sql.DB
}

func NewReminderRepo(db *sql.DB) *ReminderRepo {
	return &ReminderRepo{db: db}
}

func (r *ReminderRepo) Create(ctx context.Context, reminder *model.Reminder) error {
	data := map[string]interface{}{
		"id":             reminder.ID,
		"user_id":        reminder.UserID,
		"rtype":          reminder.Type,
		"title":          reminder.Title,
		"remind_at":      reminder.RemindAt,
		"repeat_pattern": reminder.RepeatPattern,
		"active":         reminder.Active,
		"ctime":          reminder.Ctime,
	}
	sqlStr, args, err := builder.BuildInsert("reminders", []map[string]interface{}{data})
	if err != nil {
		return err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	_, err = r.db.ExecContext(ctx, sqlStr, args...)
	return err
}

func (r *ReminderRepo) ListByUser(ctx context.Context, userID string) ([]model.Reminder, error) {
	where := map[string]interface{}{
		"user_id":  userID,
		"_orderby": "ctime desc",
	}
	return r.list(ctx, where)
}

// ListActive returns every active reminder across users, for the due scan.
func (r *ReminderRepo) ListActive(ctx context.Context) ([]model.Reminder, error) {
	return r.list(ctx, map[string]interface{}{"active": 1})
}

func (r *ReminderRepo) list(ctx context.Context, where map[string]interface{}) ([]model.Reminder, error) {
	sqlStr, args, err := builder.BuildSelect("reminders", where, reminderColumns)
	if err != nil {
		return nil, err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	rows, err := r.db.QueryContext(ctx, sqlStr, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	var reminders []model.Reminder
	for rows.Next() {
		var item model.Reminder
		if err := rows.Scan(&item.ID, &item.UserID, &item.Type, &item.Title, &item.RemindAt,
			&item.RepeatPattern, &item.Active, &item.Ctime); err != nil {
			return nil, err
		}
		reminders = append(reminders, item)
	}
	return reminders, rows.Err()
}

func (r *ReminderRepo) SetActive(ctx context.Context, userID, reminderID string, active int) error {
	where := map[string]interface{}{"id": reminderID, "user_id": userID}
	update := map[string]interface{}{"active": active}
	sqlStr, args, err := builder.BuildUpdate("reminders", where, update)
	if err != nil {
		return err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	result, err := r.db.ExecContext(ctx, sqlStr, args...)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return appErr.ErrNotFound
	}
	return nil
}

func (r *ReminderRepo) Delete(ctx context.Context, userID, reminderID string) error {
	where := map[string]interface{}{"id": reminderID, "user_id": userID}
	sqlStr, args, err := builder.BuildDelete("reminders", where)
	if err != nil {
		return err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	result, err := r.db.ExecContext(ctx, sqlStr, args...)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return appErr.ErrNotFound
	}
	return nil
}

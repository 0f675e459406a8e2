package repo

import (
	"context"
	"database/sql"

	"github.com/didi/gendry/builder"

	"github.com/vitaldash/vitaldash/internal/model"
	"github.com/vitaldash/vitaldash/internal/pkg/dbutil"
	appErr "github.com/vitaldash/vitaldash/internal/pkg/errors"
)

var profileColumns = []string{
	"user_id", "weight", "height", "heart_rate", "water_intake", "sleep_hours",
	"blood_group", "blood_pressure", "chronic_diseases", "family_history",
	"allergies", "medications", "diet", "smoking", "alcohol", "mtime",
}

type ProfileRepo struct {
	db *sql.DB
}

func NewProfileRepo(db *sql.DB) *ProfileRepo {
	return &ProfileRepo{db: db}
}

func (r *ProfileRepo) GetByUser(ctx context.Context, userID string) (*model.HealthProfile, error) {
	where := map[string]interface{}{"user_id": userID}
	sqlStr, args, err := builder.BuildSelect("health_profiles", where, profileColumns)
	if err != nil {
		return nil, err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	rows, err := r.db.QueryContext(ctx, sqlStr, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	if !rows.Next() {
		return nil, appErr.ErrNotFound
	}
	var p model.HealthProfile
	if err := rows.Scan(&p.UserID, &p.Weight, &p.Height, &p.HeartRate, &p.WaterIntake, &p.SleepHours,
		&p.BloodGroup, &p.BloodPressure, &p.ChronicDiseases, &p.FamilyHistory,
		&p.Allergies, &p.Medications, &p.Diet, &p.Smoking, &p.Alcohol, &p.Mtime); err != nil {
		return nil, err
	}
	return &p, nil
}

// Upsert updates the user's profile row if present, inserts otherwise.
func (r *ProfileRepo) Upsert(ctx context.Context, p *model.HealthProfile) error {
	update := map[string]interface{}{
		"weight":           p.Weight,
		"height":           p.Height,
		"heart_rate":       p.HeartRate,
		"water_intake":     p.WaterIntake,
		"sleep_hours":      p.SleepHours,
		"blood_group":      p.BloodGroup,
		"blood_pressure":   p.BloodPressure,
		"chronic_diseases": p.ChronicDiseases,
		"family_history":   p.FamilyHistory,
		"allergies":        p.Allergies,
		"medications":      p.Medications,
		"diet":             p.Diet,
		"smoking":          p.Smoking,
		"alcohol":          p.Alcohol,
		"mtime":            p.Mtime,
	}
	where := map[string]interface{}{"user_id": p.UserID}
	sqlStr, args, err := builder.BuildUpdate("health_profiles", where, update)
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
	if affected > 0 {
		return nil
	}

	insert := map[string]interface{}{"user_id": p.UserID}
	for k, v := range update {
		insert[k] = v
	}
	sqlStr, args, err = builder.BuildInsert("health_profiles", []map[string]interface{}{insert})
	if err != nil {
		return err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	_, err = r.db.ExecContext(ctx, sqlStr, args...)
	if err != nil && dbutil.IsConflict(err) {
		return appErr.ErrConflict
	}
	return err
}

package model

// HealthProfile is one row per user with upsert semantics: updated in
// place, never deleted. Zero-valued fields mean "not provided".
type HealthProfile struct {
	UserID          string  `json:"user_id"`
	Weight          float64 `json:"weight"`
	Height          float64 `json:"height"`
	HeartRate       int64   `json:"heart_rate"`
	WaterIntake     float64 `json:"water_intake"`
	SleepHours      float64 `json:"sleep_hours"`
	BloodGroup      string  `json:"blood_group"`
	BloodPressure   string  `json:"blood_pressure"`
	ChronicDiseases string  `json:"chronic_diseases"`
	FamilyHistory   string  `json:"family_history"`
	Allergies       string  `json:"allergies"`
	Medications     string  `json:"medications"`
	Diet            string  `json:"diet"`
	Smoking         string  `json:"smoking"`
	Alcohol         string  `json:"alcohol"`
	Mtime           int64   `json:"mtime"`
}

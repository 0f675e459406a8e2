package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/vitaldash/vitaldash/internal/model"
	"github.com/vitaldash/vitaldash/internal/pkg/errcode"
	"github.com/vitaldash/vitaldash/internal/pkg/response"
	"github.com/vitaldash/vitaldash/internal/service"
)

type ProfileHandler struct {
	profiles *service.ProfileService
}

func NewProfileHandler(profiles *service.ProfileService) *ProfileHandler {
	return &ProfileHandler{profiles: profiles}
}

type profileRequest struct {
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
}

func (h *ProfileHandler) Get(c *gin.Context) {
	profile, err := h.profiles.Get(c.Request.Context(), getUserID(c))
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, profile)
}

func (h *ProfileHandler) Upsert(c *gin.Context) {
	var req profileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, errcode.ErrInvalid, "invalid request")
		return
	}
	profile := &model.HealthProfile{
		UserID:          getUserID(c),
		Weight:          req.Weight,
		Height:          req.Height,
		HeartRate:       req.HeartRate,
		WaterIntake:     req.WaterIntake,
		SleepHours:      req.SleepHours,
		BloodGroup:      req.BloodGroup,
		BloodPressure:   req.BloodPressure,
		ChronicDiseases: req.ChronicDiseases,
		FamilyHistory:   req.FamilyHistory,
		Allergies:       req.Allergies,
		Medications:     req.Medications,
		Diet:            req.Diet,
		Smoking:         req.Smoking,
		Alcohol:         req.Alcohol,
	}
	if err := h.profiles.Upsert(c.Request.Context(), profile); err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, profile)
}

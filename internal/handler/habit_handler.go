package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/atomichabits/internal/db"
	"github.com/atomichabits/internal/logger"
	"github.com/atomichabits/internal/service"
	"github.com/gin-gonic/gin"
)

const (
	dateFormat = "2006-01-02"
	timeFormat = "15:04:05"
)

// 类型错误提示，与字段一一对应
const (
	msgIntType    = "A valid integer is required."
	msgBoolType   = "Must be a valid boolean."
	msgStringType = "Not a valid string."
	msgPKType     = "Incorrect type. Expected pk value."
	msgTimeFormat = "Time has wrong format. Use one of these formats instead: hh:mm[:ss]."
	msgDateFormat = "Date has wrong format. Use one of these formats instead: YYYY-MM-DD."
)

var timeLayouts = []string{timeFormat, "15:04"}

// habitLimits 仅用于长度与取值范围校验
type habitLimits struct {
	Place           *string `json:"place" binding:"omitnil,max=150"`
	Action          *string `json:"action" binding:"omitnil,max=150"`
	PeriodicityDays *int    `json:"periodicity_days" binding:"omitnil,min=1"`
	LeadTimeSeconds *int    `json:"lead_time_seconds" binding:"omitnil,min=0"`
}

// CreateHabit 创建习惯，所有者为当前登录用户
func (a *API) CreateHabit(c *gin.Context) {
	input, ok := parseHabitInput(c)
	if !ok {
		return
	}

	habit, err := a.habits.Create(currentUserID(c), input)
	if err != nil {
		handleHabitError(c, err)
		return
	}

	c.JSON(http.StatusCreated, habitToPayload(*habit))
}

// UpdateHabit 部分更新习惯（PATCH）
func (a *API) UpdateHabit(c *gin.Context) {
	a.updateHabit(c, a.habits.Update)
}

// ReplaceHabit 整体更新习惯（PUT）
func (a *API) ReplaceHabit(c *gin.Context) {
	a.updateHabit(c, a.habits.Replace)
}

func (a *API) updateHabit(c *gin.Context, apply func(id, userID uint, input service.HabitInput) (*db.Habit, error)) {
	id, err := parseUintParam(c, "id")
	if err != nil {
		respondError(c, http.StatusNotFound, msgNotFound)
		return
	}

	input, ok := parseHabitInput(c)
	if !ok {
		return
	}

	habit, err := apply(id, currentUserID(c), input)
	if err != nil {
		handleHabitError(c, err)
		return
	}

	c.JSON(http.StatusOK, habitToPayload(*habit))
}

// DeleteHabit 删除习惯
func (a *API) DeleteHabit(c *gin.Context) {
	id, err := parseUintParam(c, "id")
	if err != nil {
		respondError(c, http.StatusNotFound, msgNotFound)
		return
	}

	if err := a.habits.Delete(id, currentUserID(c)); err != nil {
		handleHabitError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// GetHabit 返回单个习惯详情，公开习惯对所有登录用户可见
func (a *API) GetHabit(c *gin.Context) {
	id, err := parseUintParam(c, "id")
	if err != nil {
		respondError(c, http.StatusNotFound, msgNotFound)
		return
	}

	habit, err := a.habits.GetVisible(id, currentUserID(c))
	if err != nil {
		handleHabitError(c, err)
		return
	}

	c.JSON(http.StatusOK, habitToPayload(*habit))
}

// ListHabits 返回当前用户的习惯
func (a *API) ListHabits(c *gin.Context) {
	page, err := a.pageFromQuery(c)
	if err != nil {
		handleHabitError(c, err)
		return
	}

	result, err := a.habits.ListByOwner(currentUserID(c), page)
	if err != nil {
		handleHabitError(c, err)
		return
	}

	items := make([]gin.H, 0, len(result.Habits))
	for _, habit := range result.Habits {
		items = append(items, habitToPayload(habit))
	}

	c.JSON(http.StatusOK, paginatedResponse(c, result.Total, result.Page, items))
}

// ListPublicHabits 返回所有公开习惯，不暴露所有者等字段
func (a *API) ListPublicHabits(c *gin.Context) {
	page, err := a.pageFromQuery(c)
	if err != nil {
		handleHabitError(c, err)
		return
	}

	result, err := a.habits.ListPublic(page)
	if err != nil {
		handleHabitError(c, err)
		return
	}

	items := make([]gin.H, 0, len(result.Habits))
	for _, habit := range result.Habits {
		items = append(items, publicHabitToPayload(habit))
	}

	c.JSON(http.StatusOK, paginatedResponse(c, result.Total, result.Page, items))
}

// parseHabitInput decodes a habit body field by field so that absent fields,
// explicit nulls and type errors are all reported per field.
func parseHabitInput(c *gin.Context) (service.HabitInput, bool) {
	raw, ok := readJSONObject(c)
	if !ok {
		return service.HabitInput{}, false
	}

	errs := service.FieldErrors{}
	input := service.HabitInput{
		Place:             decodeField[string](raw, "place", errs, msgStringType),
		PeriodicityDays:   decodeField[int](raw, "periodicity_days", errs, msgIntType),
		Action:            decodeField[string](raw, "action", errs, msgStringType),
		IsPleasurable:     decodeField[bool](raw, "is_pleasurable", errs, msgBoolType),
		AssociatedHabitID: decodeField[uint](raw, "associated_habit", errs, msgPKType),
		Reward:            decodeField[string](raw, "reward", errs, msgStringType),
		LeadTimeSeconds:   decodeField[int](raw, "lead_time_seconds", errs, msgIntType),
		IsPublic:          decodeField[bool](raw, "is_public", errs, msgBoolType),
		Time:              parseTimeField(raw, errs),
		NextReminderDate:  parseDateField(raw, errs),
	}

	validateStruct(&habitLimits{
		Place:           input.Place.Value,
		Action:          input.Action.Value,
		PeriodicityDays: input.PeriodicityDays.Value,
		LeadTimeSeconds: input.LeadTimeSeconds.Value,
	}, errs)

	if err := errs.Err(); err != nil {
		respondFieldErrors(c, errs)
		return service.HabitInput{}, false
	}
	return input, true
}

// parseTimeField accepts HH:MM:SS or HH:MM and normalizes to HH:MM:SS.
func parseTimeField(raw map[string]json.RawMessage, errs service.FieldErrors) service.Optional[string] {
	value := decodeField[string](raw, "time", errs, msgTimeFormat)
	if !value.Set || value.IsNull() {
		return value
	}

	trimmed := strings.TrimSpace(*value.Value)
	for _, layout := range timeLayouts {
		if parsed, err := time.Parse(layout, trimmed); err == nil {
			return service.Some(parsed.Format(timeFormat))
		}
	}

	errs.Add("time", msgTimeFormat)
	return service.Optional[string]{}
}

func parseDateField(raw map[string]json.RawMessage, errs service.FieldErrors) service.Optional[time.Time] {
	value := decodeField[string](raw, "next_reminder_date", errs, msgDateFormat)
	if !value.Set {
		return service.Optional[time.Time]{}
	}
	if value.IsNull() {
		return service.Null[time.Time]()
	}

	parsed, err := time.ParseInLocation(dateFormat, strings.TrimSpace(*value.Value), time.UTC)
	if err != nil {
		errs.Add("next_reminder_date", msgDateFormat)
		return service.Optional[time.Time]{}
	}
	return service.Some(parsed)
}

func habitToPayload(habit db.Habit) gin.H {
	return gin.H{
		"id":                 habit.ID,
		"owner":              habit.OwnerID,
		"place":              habit.Place,
		"time":               habit.Time,
		"periodicity_days":   habit.PeriodicityDays,
		"action":             habit.Action,
		"is_pleasurable":     habit.IsPleasurable,
		"associated_habit":   habit.AssociatedHabitID,
		"reward":             habit.Reward,
		"lead_time_seconds":  habit.LeadTimeSeconds,
		"is_public":          habit.IsPublic,
		"next_reminder_date": formatOptionalDate(habit.NextReminderDate),
	}
}

func publicHabitToPayload(habit db.Habit) gin.H {
	return gin.H{
		"place":             habit.Place,
		"time":              habit.Time,
		"periodicity_days":  habit.PeriodicityDays,
		"action":            habit.Action,
		"is_pleasurable":    habit.IsPleasurable,
		"associated_habit":  habit.AssociatedHabitID,
		"reward":            habit.Reward,
		"lead_time_seconds": habit.LeadTimeSeconds,
	}
}

func formatOptionalDate(value *time.Time) interface{} {
	if value == nil {
		return nil
	}
	return value.Format(dateFormat)
}

func handleHabitError(c *gin.Context, err error) {
	if respondInputError(c, err) {
		return
	}

	switch {
	case errors.Is(err, service.ErrHabitNotFound):
		respondError(c, http.StatusNotFound, msgNotFound)
	case errors.Is(err, service.ErrHabitForbidden):
		respondError(c, http.StatusForbidden, msgForbidden)
	case errors.Is(err, service.ErrInvalidPage):
		respondError(c, http.StatusNotFound, msgInvalidPage)
	default:
		logger.Error("habit request failed", "path", c.Request.URL.Path, "err", err)
		respondError(c, http.StatusInternalServerError, msgInternal)
	}
}

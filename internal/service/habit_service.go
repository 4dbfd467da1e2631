package service

import (
	"errors"
	"fmt"
	"time"

	"github.com/atomichabits/internal/db"
	"github.com/atomichabits/internal/logger"
	"github.com/atomichabits/internal/metrics"
	"github.com/atomichabits/internal/validation"
	"gorm.io/gorm"
)

var (
	// ErrHabitNotFound 在指定习惯不存在时返回
	ErrHabitNotFound = errors.New("habit not found")
	// ErrHabitForbidden 当前用户不是习惯的所有者
	ErrHabitForbidden = errors.New("habit belongs to another user")
)

// HabitService 负责 Habit 的增删改查，并在写入前执行规则校验
type HabitService struct {
	db *gorm.DB
}

// HabitInput carries the fields supplied by a create or update request.
// Time must already be normalized to HH:MM:SS.
type HabitInput struct {
	Place             Optional[string]
	Time              Optional[string]
	PeriodicityDays   Optional[int]
	Action            Optional[string]
	IsPleasurable     Optional[bool]
	AssociatedHabitID Optional[uint]
	Reward            Optional[string]
	LeadTimeSeconds   Optional[int]
	IsPublic          Optional[bool]
	NextReminderDate  Optional[time.Time]
}

// HabitPage is one page of a habit listing.
type HabitPage struct {
	Habits []db.Habit
	Total  int64
	Page   Page
}

// NewHabitService 构造 HabitService
func NewHabitService(gdb *gorm.DB) *HabitService {
	return &HabitService{db: gdb}
}

// LookupHabit resolves a stored habit for the associated-habit rule.
func (s *HabitService) LookupHabit(id uint) (validation.HabitFields, error) {
	habit, err := s.Get(id)
	if err != nil {
		if errors.Is(err, ErrHabitNotFound) {
			return validation.HabitFields{}, validation.ErrHabitNotFound
		}
		return validation.HabitFields{}, err
	}
	return habitFields(*habit), nil
}

// Get 根据 ID 获取习惯
func (s *HabitService) Get(id uint) (*db.Habit, error) {
	var habit db.Habit
	if err := s.db.First(&habit, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrHabitNotFound
		}
		return nil, fmt.Errorf("get habit: %w", err)
	}
	return &habit, nil
}

// GetVisible returns a habit the user owns or one that is public.
func (s *HabitService) GetVisible(id, userID uint) (*db.Habit, error) {
	habit, err := s.Get(id)
	if err != nil {
		return nil, err
	}
	if habit.IsPublic {
		return habit, nil
	}
	if err := authorize(habit, userID); err != nil {
		return nil, err
	}
	return habit, nil
}

// ListByOwner 返回用户自己的习惯
func (s *HabitService) ListByOwner(ownerID uint, page Page) (*HabitPage, error) {
	return s.list(s.db.Model(&db.Habit{}).Where("owner_id = ?", ownerID), page)
}

// ListPublic 返回所有公开习惯
func (s *HabitService) ListPublic(page Page) (*HabitPage, error) {
	return s.list(s.db.Model(&db.Habit{}).Where("is_public = ?", true), page)
}

func (s *HabitService) list(query *gorm.DB, page Page) (*HabitPage, error) {
	paged, page, total, err := paginate(query, page)
	if err != nil {
		if errors.Is(err, ErrInvalidPage) {
			return nil, err
		}
		return nil, fmt.Errorf("count habits: %w", err)
	}

	var habits []db.Habit
	if err := paged.Order("time DESC").Order("id ASC").Find(&habits).Error; err != nil {
		return nil, fmt.Errorf("list habits: %w", err)
	}

	return &HabitPage{Habits: habits, Total: total, Page: page}, nil
}

// Create 新建习惯，ownerID 为 0 表示无所有者
func (s *HabitService) Create(ownerID uint, input HabitInput) (*db.Habit, error) {
	if err := checkHabitInput(input, true); err != nil {
		return nil, err
	}

	habit := db.Habit{PeriodicityDays: 1}
	if ownerID != 0 {
		habit.OwnerID = &ownerID
	}

	if err := s.applyAndValidate(&habit, input); err != nil {
		return nil, err
	}

	if err := s.db.Create(&habit).Error; err != nil {
		return nil, fmt.Errorf("create habit: %w", err)
	}

	metrics.RecordHabitWrite("create")
	logger.Debug("habit created", "id", habit.ID, "owner", ownerID)
	return &habit, nil
}

// Update applies a partial update and validates the merged record.
func (s *HabitService) Update(id, userID uint, input HabitInput) (*db.Habit, error) {
	return s.update(id, userID, input, false)
}

// Replace applies a full update; required fields must be supplied.
func (s *HabitService) Replace(id, userID uint, input HabitInput) (*db.Habit, error) {
	return s.update(id, userID, input, true)
}

func (s *HabitService) update(id, userID uint, input HabitInput, full bool) (*db.Habit, error) {
	existing, err := s.Get(id)
	if err != nil {
		return nil, err
	}
	if err := authorize(existing, userID); err != nil {
		return nil, err
	}

	if err := checkHabitInput(input, full); err != nil {
		return nil, err
	}

	if err := s.applyAndValidate(existing, input); err != nil {
		return nil, err
	}

	if err := s.db.Save(existing).Error; err != nil {
		return nil, fmt.Errorf("update habit: %w", err)
	}

	metrics.RecordHabitWrite("update")
	logger.Debug("habit updated", "id", existing.ID)
	return existing, nil
}

// Delete 删除习惯，并将指向它的 associated_habit 置空
func (s *HabitService) Delete(id, userID uint) error {
	existing, err := s.Get(id)
	if err != nil {
		return err
	}
	if err := authorize(existing, userID); err != nil {
		return err
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&db.Habit{}).
			Where("associated_habit_id = ?", id).
			Update("associated_habit_id", nil).Error; err != nil {
			return fmt.Errorf("clear habit references: %w", err)
		}

		result := tx.Delete(&db.Habit{}, id)
		if result.Error != nil {
			return fmt.Errorf("delete habit: %w", result.Error)
		}
		if result.RowsAffected == 0 {
			return ErrHabitNotFound
		}
		return nil
	})
	if err != nil {
		return err
	}

	metrics.RecordHabitWrite("delete")
	logger.Debug("habit deleted", "id", id)
	return nil
}

// applyAndValidate merges input into habit and runs the habit rules on the result.
func (s *HabitService) applyAndValidate(habit *db.Habit, input HabitInput) error {
	applyHabitInput(habit, input)

	result, err := validation.Validate(habitFields(*habit), s)
	if err != nil {
		return fmt.Errorf("validate habit: %w", err)
	}
	for _, failure := range result.Failures {
		metrics.RecordValidationFailure(string(failure.Rule))
	}
	return result.Err()
}

// userID 为 0 时跳过所有权检查（命令行与内部调用）
func authorize(habit *db.Habit, userID uint) error {
	if userID == 0 {
		return nil
	}
	if habit.OwnerID == nil || *habit.OwnerID != userID {
		return ErrHabitForbidden
	}
	return nil
}

func checkHabitInput(input HabitInput, requireAll bool) error {
	errs := FieldErrors{}

	if requireAll && !input.Action.Set {
		errs.Add("action", MsgFieldRequired)
	} else if input.Action.IsNull() {
		errs.Add("action", MsgFieldNull)
	} else if input.Action.Set && sanitizeText(*input.Action.Value) == "" {
		errs.Add("action", MsgFieldBlank)
	}

	if requireAll && !input.LeadTimeSeconds.Set {
		errs.Add("lead_time_seconds", MsgFieldRequired)
	} else if input.LeadTimeSeconds.IsNull() {
		errs.Add("lead_time_seconds", MsgFieldNull)
	}

	if input.PeriodicityDays.IsNull() {
		errs.Add("periodicity_days", MsgFieldNull)
	}
	if input.IsPleasurable.IsNull() {
		errs.Add("is_pleasurable", MsgFieldNull)
	}
	if input.IsPublic.IsNull() {
		errs.Add("is_public", MsgFieldNull)
	}

	return errs.Err()
}

func applyHabitInput(habit *db.Habit, input HabitInput) {
	if input.Place.Set {
		habit.Place = sanitizeOptional(input.Place.Value)
	}
	if input.Time.Set {
		habit.Time = input.Time.Value
	}
	if input.PeriodicityDays.Set {
		habit.PeriodicityDays = *input.PeriodicityDays.Value
	}
	if input.Action.Set {
		habit.Action = sanitizeText(*input.Action.Value)
	}
	if input.IsPleasurable.Set {
		habit.IsPleasurable = *input.IsPleasurable.Value
	}
	if input.AssociatedHabitID.Set {
		habit.AssociatedHabitID = input.AssociatedHabitID.Value
	}
	if input.Reward.Set {
		habit.Reward = sanitizeOptional(input.Reward.Value)
	}
	if input.LeadTimeSeconds.Set {
		habit.LeadTimeSeconds = *input.LeadTimeSeconds.Value
	}
	if input.IsPublic.Set {
		habit.IsPublic = *input.IsPublic.Value
	}
	if input.NextReminderDate.Set {
		habit.NextReminderDate = input.NextReminderDate.Value
	}
}

func habitFields(habit db.Habit) validation.HabitFields {
	return validation.HabitFields{
		ID:                habit.ID,
		Place:             habit.Place,
		Time:              habit.Time,
		PeriodicityDays:   habit.PeriodicityDays,
		Action:            habit.Action,
		IsPleasurable:     habit.IsPleasurable,
		AssociatedHabitID: habit.AssociatedHabitID,
		Reward:            habit.Reward,
		LeadTimeSeconds:   habit.LeadTimeSeconds,
		IsPublic:          habit.IsPublic,
	}
}

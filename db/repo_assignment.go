package db

import (
	"context"
	"time"

	"toolhub/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type CreateAssignmentInput struct {
	ToolID     string
	PersonID   *string
	LocationID *string
	UserID     *string
	Note       string
}

// validTarget 保管目标三选一：个人；地点；用户+地点。
func validTarget(in CreateAssignmentInput) bool {
	switch {
	case in.PersonID != nil && in.LocationID == nil && in.UserID == nil:
		return true
	case in.LocationID != nil && in.PersonID == nil && in.UserID == nil:
		return true
	case in.UserID != nil && in.LocationID != nil && in.PersonID == nil:
		return true
	}
	return false
}

// CreateAssignment 发放：原子操作 = 锁住 tool → 建 Assignment → 置 in_use
// → 落位到目标 → 记 assigned 事件。
func (r *Repo) CreateAssignment(ctx context.Context, in CreateAssignmentInput, actor Actor) (*models.Assignment, error) {
	if !validTarget(in) {
		return nil, ErrInvalidTarget
	}
	var a *models.Assignment
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var t models.Tool
		if err := lockForUpdate(tx).First(&t, "id = ?", in.ToolID).Error; err != nil {
			return err
		}
		if t.Status != models.ToolAvailable {
			return ErrToolUnavailable
		}
		// 防并发：唯一部分索引兜底，这里先挡一道
		open, err := r.openAssignmentCount(tx, t.ID)
		if err != nil {
			return err
		}
		if open > 0 {
			return ErrToolUnavailable
		}

		now := time.Now().UTC()
		a = &models.Assignment{
			ID:           uuid.NewString(),
			ToolID:       t.ID,
			PersonID:     in.PersonID,
			LocationID:   in.LocationID,
			UserID:       in.UserID,
			AssignedAt:   now,
			AssignedBy:   actor.UserID,
			Note:         in.Note,
			ReturnStatus: models.ReturnActive,
		}
		if err := tx.Create(a).Error; err != nil {
			return err
		}

		fromLoc, fromPer, oldStatus := t.LocationID, t.PersonID, t.Status
		inUse := models.ToolInUse
		if err := tx.Model(&models.Tool{}).
			Where("id = ?", t.ID).
			Updates(map[string]any{
				"status":      inUse,
				"location_id": in.LocationID,
				"person_id":   in.PersonID,
			}).Error; err != nil {
			return err
		}

		return appendEvent(tx, &models.Event{
			ToolID:         t.ID,
			Type:           models.EventAssigned,
			FromLocationID: fromLoc,
			ToLocationID:   in.LocationID,
			FromPersonID:   fromPer,
			ToPersonID:     in.PersonID,
			OldStatus:      &oldStatus,
			NewStatus:      &inUse,
			Note:           in.Note,
			UserID:         actor.UserID,
		})
	})
	if err != nil {
		return nil, err
	}
	return a, nil
}

func (r *Repo) FindAssignmentByID(ctx context.Context, id string) (*models.Assignment, error) {
	var a models.Assignment
	if err := r.DB.WithContext(ctx).First(&a, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &a, nil
}

// AssignmentFilter 的归属范围由调用边界决定：非管理员 controller
// 会强制塞进自己的 UserID / 已授权地点，引擎只按参数过滤。
type AssignmentFilter struct {
	ToolID      string
	UserID      string
	PersonID    string
	LocationIDs []string
	Status      models.ReturnStatus // "" = all
	OnlyOpen    bool
	Page        int
	Size        int
}

type PagedAssignments struct {
	Total       int64               `json:"total"`
	Assignments []models.Assignment `json:"assignments"`
}

func (r *Repo) ListAssignments(ctx context.Context, f AssignmentFilter) (*PagedAssignments, error) {
	if f.Page <= 0 {
		f.Page = 1
	}
	if f.Size <= 0 || f.Size > 200 {
		f.Size = 20
	}

	tx := r.DB.WithContext(ctx).Model(&models.Assignment{})
	if f.ToolID != "" {
		tx = tx.Where("tool_id = ?", f.ToolID)
	}
	if f.UserID != "" && len(f.LocationIDs) > 0 {
		tx = tx.Where("user_id = ? OR location_id IN ?", f.UserID, f.LocationIDs)
	} else if f.UserID != "" {
		tx = tx.Where("user_id = ?", f.UserID)
	} else if len(f.LocationIDs) > 0 {
		tx = tx.Where("location_id IN ?", f.LocationIDs)
	}
	if f.PersonID != "" {
		tx = tx.Where("person_id = ?", f.PersonID)
	}
	if f.Status != "" {
		tx = tx.Where("return_status = ?", f.Status)
	}
	if f.OnlyOpen {
		tx = tx.Where("returned_at IS NULL")
	}

	var total int64
	if err := tx.Count(&total).Error; err != nil {
		return nil, err
	}

	var as []models.Assignment
	if err := tx.
		Order("assigned_at DESC").
		Offset((f.Page - 1) * f.Size).
		Limit(f.Size).
		Find(&as).Error; err != nil {
		return nil, err
	}
	return &PagedAssignments{Total: total, Assignments: as}, nil
}

// SelfReturn Dashboard 的“还我手上的工具”。不走审批流：
// 直接按 good 关单，工具回到 available 并清掉个人占用。
func (r *Repo) SelfReturn(ctx context.Context, assignmentID string, actor Actor) (*models.Assignment, error) {
	var a models.Assignment
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := lockForUpdate(tx).First(&a, "id = ?", assignmentID).Error; err != nil {
			return err
		}
		if a.ReturnStatus != models.ReturnActive {
			return ErrInvalidState
		}

		var t models.Tool
		if err := lockForUpdate(tx).First(&t, "id = ?", a.ToolID).Error; err != nil {
			return err
		}

		now := time.Now().UTC()
		cond := models.ConditionGood
		res := tx.Model(&models.Assignment{}).
			Where("id = ? AND return_status = ?", a.ID, models.ReturnActive).
			Updates(map[string]any{
				"return_status":    models.ReturnDone,
				"return_condition": cond,
				"returned_at":      now,
				"approved_by":      actor.UserID,
				"approved_at":      now,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrInvalidState
		}
		a.ReturnStatus = models.ReturnDone
		a.ReturnCondition = &cond
		a.ReturnedAt = &now
		a.ApprovedBy = &actor.UserID
		a.ApprovedAt = &now

		oldStatus := t.Status
		available := models.ToolAvailable
		if err := tx.Model(&models.Tool{}).
			Where("id = ?", t.ID).
			Updates(map[string]any{"status": available, "person_id": nil}).Error; err != nil {
			return err
		}

		fromLoc := a.LocationID
		if fromLoc == nil {
			fromLoc = t.LocationID
		}
		return appendEvent(tx, &models.Event{
			ToolID:         t.ID,
			Type:           models.EventReturned,
			FromPersonID:   a.PersonID,
			FromLocationID: fromLoc,
			OldStatus:      &oldStatus,
			NewStatus:      &available,
			UserID:         actor.UserID,
		})
	})
	if err != nil {
		return nil, err
	}
	return &a, nil
}

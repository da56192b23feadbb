package db

import (
	"context"
	"strings"
	"time"

	"toolhub/models"

	"gorm.io/gorm"
)

type ReturnRequestInput struct {
	Condition        models.ReturnCondition
	ReturnLocationID *string
	Notes            string
}

// RequestReturn 归还申请入口。
// 管理员直接完成归还；普通用户转入 pending_return 等审批，
// 工具状态与位置在审批通过前保持不变。
// condition=lost 的归还地点一律归一化为 nil（丢了的东西没有去处）。
func (r *Repo) RequestReturn(ctx context.Context, assignmentID string, in ReturnRequestInput, actor Actor) (*models.Assignment, error) {
	if !in.Condition.Valid() {
		return nil, ErrInvalidState
	}
	if in.Condition != models.ConditionGood && strings.TrimSpace(in.Notes) == "" {
		return nil, ErrNotesRequired
	}
	if in.Condition == models.ConditionLost {
		in.ReturnLocationID = nil
	}

	var a models.Assignment
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := lockForUpdate(tx).First(&a, "id = ?", assignmentID).Error; err != nil {
			return err
		}
		if a.ReturnStatus != models.ReturnActive {
			return ErrInvalidState
		}

		now := time.Now().UTC()
		res := tx.Model(&models.Assignment{}).
			Where("id = ? AND return_status = ?", a.ID, models.ReturnActive).
			Updates(map[string]any{
				"return_status":       models.ReturnPending,
				"return_requested_at": now,
				"return_condition":    in.Condition,
				"return_location_id":  in.ReturnLocationID,
				"return_notes":        in.Notes,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrInvalidState
		}
		a.ReturnStatus = models.ReturnPending
		a.ReturnRequestedAt = &now
		a.ReturnCondition = &in.Condition
		a.ReturnLocationID = in.ReturnLocationID
		a.ReturnNotes = in.Notes

		if actor.IsAdmin {
			// 管理员执行即审批：当场走完归还效果
			return r.executeReturn(tx, &a, actor.UserID, now)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &a, nil
}

// ApproveReturn 仅 pending_return 可审批。靠 CAS 把并发的第二次
// 审批挡成 ErrInvalidState，而不是悄悄成功两次。
func (r *Repo) ApproveReturn(ctx context.Context, assignmentID string, approver Actor) (*models.Assignment, error) {
	var a models.Assignment
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := lockForUpdate(tx).First(&a, "id = ?", assignmentID).Error; err != nil {
			return err
		}
		if a.ReturnStatus != models.ReturnPending {
			return ErrInvalidState
		}
		return r.executeReturn(tx, &a, approver.UserID, time.Now().UTC())
	})
	if err != nil {
		return nil, err
	}
	return &a, nil
}

// RejectReturn 驳回：回到 active 并清空全部申请字段，
// 工具留在申请人手里，不残留归还元数据。
func (r *Repo) RejectReturn(ctx context.Context, assignmentID string, approver Actor) (*models.Assignment, error) {
	var a models.Assignment
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := lockForUpdate(tx).First(&a, "id = ?", assignmentID).Error; err != nil {
			return err
		}
		if a.ReturnStatus != models.ReturnPending {
			return ErrInvalidState
		}
		res := tx.Model(&models.Assignment{}).
			Where("id = ? AND return_status = ?", a.ID, models.ReturnPending).
			Updates(map[string]any{
				"return_status":       models.ReturnActive,
				"return_requested_at": nil,
				"return_condition":    nil,
				"return_location_id":  nil,
				"return_notes":        "",
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrInvalidState
		}
		a.ReturnStatus = models.ReturnActive
		a.ReturnRequestedAt = nil
		a.ReturnCondition = nil
		a.ReturnLocationID = nil
		a.ReturnNotes = ""
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &a, nil
}

// executeReturn 归还生效：关单、按条件映射工具终态、落位、记 returned 事件。
// 只在已持有事务里调用，a 必须已锁定且带着申请字段。
func (r *Repo) executeReturn(tx *gorm.DB, a *models.Assignment, approverID string, now time.Time) error {
	var t models.Tool
	if err := lockForUpdate(tx).First(&t, "id = ?", a.ToolID).Error; err != nil {
		return err
	}

	cond := models.ConditionGood
	if a.ReturnCondition != nil {
		cond = *a.ReturnCondition
	}
	newStatus := cond.ToolStatusAfter()

	res := tx.Model(&models.Assignment{}).
		Where("id = ? AND return_status = ?", a.ID, models.ReturnPending).
		Updates(map[string]any{
			"return_status": models.ReturnDone,
			"returned_at":   now,
			"approved_by":   approverID,
			"approved_at":   now,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrInvalidState
	}
	a.ReturnStatus = models.ReturnDone
	a.ReturnedAt = &now
	a.ApprovedBy = &approverID
	a.ApprovedAt = &now

	// lost 清空位置；其余落到申请时指定的归还地点
	var toLoc *string
	if cond != models.ConditionLost {
		toLoc = a.ReturnLocationID
	}
	oldStatus := t.Status
	if err := tx.Model(&models.Tool{}).
		Where("id = ?", t.ID).
		Updates(map[string]any{
			"status":      newStatus,
			"location_id": toLoc,
			"person_id":   nil,
		}).Error; err != nil {
		return err
	}

	return appendEvent(tx, &models.Event{
		ToolID:         t.ID,
		Type:           models.EventReturned,
		FromLocationID: a.LocationID,
		ToLocationID:   toLoc,
		FromPersonID:   a.PersonID,
		OldStatus:      &oldStatus,
		NewStatus:      &newStatus,
		Note:           a.ReturnNotes,
		UserID:         approverID,
	})
}

// CanReturnTool 谁能对这条保管记录发起归还申请：
// 管理员总是可以；地点保管的工具要求操作人对该地点有授权；
// 个人保管的工具在这个工作流里没有非管理员入口（走 SelfReturn）。
func (r *Repo) CanReturnTool(ctx context.Context, a *models.Assignment, actor Actor) (bool, error) {
	if actor.IsAdmin {
		return true, nil
	}
	if a.LocationID == nil {
		return false, nil
	}
	return r.IsAuthorizedForLocation(ctx, actor.UserID, *a.LocationID)
}

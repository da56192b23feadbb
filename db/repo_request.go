package db

import (
	"context"
	"strings"
	"time"

	"toolhub/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type CreateRequestInput struct {
	Type       models.RequestType
	ToolID     *string
	ToolName   string
	LocationID string
	Notes      string
}

// CreateRequest 申请“把工具送到某地点”。目的地在提交前就该由前端
// 按授权地点下拉选好，这里只兜底校验非空与引用完整性。
func (r *Repo) CreateRequest(ctx context.Context, in CreateRequestInput, actor Actor) (*models.ToolRequest, error) {
	if strings.TrimSpace(in.LocationID) == "" {
		return nil, ErrNoDestination
	}
	switch in.Type {
	case models.RequestExisting:
		if in.ToolID == nil {
			return nil, ErrInvalidTarget
		}
	case models.RequestNew:
		if strings.TrimSpace(in.ToolName) == "" {
			return nil, ErrInvalidTarget
		}
	default:
		return nil, ErrInvalidTarget
	}

	req := &models.ToolRequest{
		ID:          uuid.NewString(),
		RequesterID: actor.UserID,
		Type:        in.Type,
		ToolID:      in.ToolID,
		ToolName:    in.ToolName,
		LocationID:  in.LocationID,
		Notes:       in.Notes,
		Status:      models.RequestPending,
	}
	if err := r.DB.WithContext(ctx).Create(req).Error; err != nil {
		return nil, err
	}
	return req, nil
}

func (r *Repo) FindRequestByID(ctx context.Context, id string) (*models.ToolRequest, error) {
	var req models.ToolRequest
	if err := r.DB.WithContext(ctx).First(&req, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &req, nil
}

type RequestFilter struct {
	RequesterID string
	Status      models.RequestStatus
	Page        int
	Size        int
}

type PagedRequests struct {
	Total    int64                `json:"total"`
	Requests []models.ToolRequest `json:"requests"`
}

func (r *Repo) ListRequests(ctx context.Context, f RequestFilter) (*PagedRequests, error) {
	if f.Page <= 0 {
		f.Page = 1
	}
	if f.Size <= 0 || f.Size > 200 {
		f.Size = 20
	}

	tx := r.DB.WithContext(ctx).Model(&models.ToolRequest{})
	if f.RequesterID != "" {
		tx = tx.Where("requester_id = ?", f.RequesterID)
	}
	if f.Status != "" {
		tx = tx.Where("status = ?", f.Status)
	}

	var total int64
	if err := tx.Count(&total).Error; err != nil {
		return nil, err
	}

	var reqs []models.ToolRequest
	if err := tx.
		Order("created_at DESC").
		Offset((f.Page - 1) * f.Size).
		Limit(f.Size).
		Find(&reqs).Error; err != nil {
		return nil, err
	}
	return &PagedRequests{Total: total, Requests: reqs}, nil
}

// CancelRequest 申请人撤回。状态集合里没有 cancelled，
// pending 期间撤回即删除这一行（已裁决的请求保留历史）。
func (r *Repo) CancelRequest(ctx context.Context, requestID string) error {
	res := r.DB.WithContext(ctx).
		Where("id = ? AND status = ?", requestID, models.RequestPending).
		Delete(&models.ToolRequest{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrInvalidState
	}
	return nil
}

func (r *Repo) decideRequest(ctx context.Context, requestID string, to models.RequestStatus, decider Actor) (*models.ToolRequest, error) {
	var req models.ToolRequest
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := lockForUpdate(tx).First(&req, "id = ?", requestID).Error; err != nil {
			return err
		}
		now := time.Now().UTC()
		res := tx.Model(&models.ToolRequest{}).
			Where("id = ? AND status = ?", req.ID, models.RequestPending).
			Updates(map[string]any{
				"status":     to,
				"decided_by": decider.UserID,
				"decided_at": now,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrInvalidState
		}
		req.Status = to
		req.DecidedBy = &decider.UserID
		req.DecidedAt = &now
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &req, nil
}

func (r *Repo) ApproveRequest(ctx context.Context, requestID string, decider Actor) (*models.ToolRequest, error) {
	return r.decideRequest(ctx, requestID, models.RequestApproved, decider)
}

func (r *Repo) RejectRequest(ctx context.Context, requestID string, decider Actor) (*models.ToolRequest, error) {
	return r.decideRequest(ctx, requestID, models.RequestRejected, decider)
}

// FulfillRequest 履约 = 纯位置调度。existing 请求把工具搬到目的地点
// 并记 moved 事件；new 请求只改状态，建新工具仍是管理员手工操作。
func (r *Repo) FulfillRequest(ctx context.Context, requestID string, actor Actor) (*models.ToolRequest, error) {
	var req models.ToolRequest
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := lockForUpdate(tx).First(&req, "id = ?", requestID).Error; err != nil {
			return err
		}
		if req.Status != models.RequestApproved {
			return ErrInvalidState
		}

		if req.Type == models.RequestExisting && req.ToolID != nil {
			var t models.Tool
			if err := lockForUpdate(tx).First(&t, "id = ?", *req.ToolID).Error; err != nil {
				return err
			}
			fromLoc, fromPer := t.LocationID, t.PersonID
			if err := tx.Model(&models.Tool{}).
				Where("id = ?", t.ID).
				Updates(map[string]any{
					"location_id": req.LocationID,
					"person_id":   nil,
				}).Error; err != nil {
				return err
			}
			if err := appendEvent(tx, &models.Event{
				ToolID:         t.ID,
				Type:           models.EventMoved,
				FromLocationID: fromLoc,
				ToLocationID:   &req.LocationID,
				FromPersonID:   fromPer,
				Note:           "request fulfilled",
				UserID:         actor.UserID,
			}); err != nil {
				return err
			}
		}

		res := tx.Model(&models.ToolRequest{}).
			Where("id = ? AND status = ?", req.ID, models.RequestApproved).
			Update("status", models.RequestFulfilled)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrInvalidState
		}
		req.Status = models.RequestFulfilled
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &req, nil
}

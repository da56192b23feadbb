package db

import (
	"context"
	"testing"

	"toolhub/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestCreateRequest_Validation(t *testing.T) {
	r := newTestRepo(t)
	ctx := context.Background()
	worker := seedUser(t, r, "worker", false)
	loc := seedLocation(t, r, "site A")
	act := Actor{UserID: worker.ID}

	_, err := r.CreateRequest(ctx, CreateRequestInput{Type: models.RequestNew, ToolName: "drill"}, act)
	assert.ErrorIs(t, err, ErrNoDestination)

	_, err = r.CreateRequest(ctx, CreateRequestInput{Type: models.RequestExisting, LocationID: loc.ID}, act)
	assert.ErrorIs(t, err, ErrInvalidTarget)

	_, err = r.CreateRequest(ctx, CreateRequestInput{Type: models.RequestNew, LocationID: loc.ID}, act)
	assert.ErrorIs(t, err, ErrInvalidTarget)

	req, err := r.CreateRequest(ctx, CreateRequestInput{Type: models.RequestNew, ToolName: "drill", LocationID: loc.ID}, act)
	require.NoError(t, err)
	assert.Equal(t, models.RequestPending, req.Status)
	assert.Equal(t, worker.ID, req.RequesterID)
}

func TestRequestLifecycle_FulfillRelocatesExistingTool(t *testing.T) {
	r := newTestRepo(t)
	ctx := context.Background()
	admin := seedUser(t, r, "admin", true)
	worker := seedUser(t, r, "worker", false)
	from := seedLocation(t, r, "base")
	to := seedLocation(t, r, "site A")
	adminAct := Actor{UserID: admin.ID, IsAdmin: true}

	tool := seedTool(t, r, "compressor", admin.ID)
	_, err := r.Relocate(ctx, tool.ID, &from.ID, nil, adminAct, "")
	require.NoError(t, err)

	req, err := r.CreateRequest(ctx, CreateRequestInput{
		Type: models.RequestExisting, ToolID: &tool.ID, LocationID: to.ID,
	}, Actor{UserID: worker.ID})
	require.NoError(t, err)

	// 审批前不能履约
	_, err = r.FulfillRequest(ctx, req.ID, adminAct)
	assert.ErrorIs(t, err, ErrInvalidState)

	req, err = r.ApproveRequest(ctx, req.ID, adminAct)
	require.NoError(t, err)
	assert.Equal(t, models.RequestApproved, req.Status)
	require.NotNil(t, req.DecidedBy)
	assert.Equal(t, admin.ID, *req.DecidedBy)

	// 不能重复裁决
	_, err = r.ApproveRequest(ctx, req.ID, adminAct)
	assert.ErrorIs(t, err, ErrInvalidState)
	_, err = r.RejectRequest(ctx, req.ID, adminAct)
	assert.ErrorIs(t, err, ErrInvalidState)

	movedBefore := countEvents(t, r, tool.ID, models.EventMoved)
	req, err = r.FulfillRequest(ctx, req.ID, adminAct)
	require.NoError(t, err)
	assert.Equal(t, models.RequestFulfilled, req.Status)

	// 履约是纯位置调度：搬到目的地点，不产生保管记录
	tl, err := r.FindToolByID(ctx, tool.ID)
	require.NoError(t, err)
	require.NotNil(t, tl.LocationID)
	assert.Equal(t, to.ID, *tl.LocationID)
	assert.Equal(t, models.ToolAvailable, tl.Status)
	assert.EqualValues(t, movedBefore+1, countEvents(t, r, tool.ID, models.EventMoved))
	ev := lastEvent(t, r, tool.ID)
	require.NotNil(t, ev.FromLocationID)
	assert.Equal(t, from.ID, *ev.FromLocationID)
	assert.Equal(t, to.ID, *ev.ToLocationID)

	var open int64
	require.NoError(t, r.DB.Model(&models.Assignment{}).
		Where("tool_id = ? AND returned_at IS NULL", tool.ID).
		Count(&open).Error)
	assert.Zero(t, open)
}

func TestFulfillNewRequest_NoToolEffect(t *testing.T) {
	r := newTestRepo(t)
	ctx := context.Background()
	admin := seedUser(t, r, "admin", true)
	loc := seedLocation(t, r, "site A")
	adminAct := Actor{UserID: admin.ID, IsAdmin: true}

	req, err := r.CreateRequest(ctx, CreateRequestInput{
		Type: models.RequestNew, ToolName: "laser level", LocationID: loc.ID,
	}, adminAct)
	require.NoError(t, err)
	_, err = r.ApproveRequest(ctx, req.ID, adminAct)
	require.NoError(t, err)
	req, err = r.FulfillRequest(ctx, req.ID, adminAct)
	require.NoError(t, err)
	assert.Equal(t, models.RequestFulfilled, req.Status)

	// 不会偷偷建工具
	var n int64
	require.NoError(t, r.DB.Model(&models.Tool{}).Count(&n).Error)
	assert.Zero(t, n)
}

func TestCancelRequest_OnlyWhilePending(t *testing.T) {
	r := newTestRepo(t)
	ctx := context.Background()
	admin := seedUser(t, r, "admin", true)
	loc := seedLocation(t, r, "site A")
	adminAct := Actor{UserID: admin.ID, IsAdmin: true}

	req, err := r.CreateRequest(ctx, CreateRequestInput{Type: models.RequestNew, ToolName: "drill", LocationID: loc.ID}, adminAct)
	require.NoError(t, err)
	require.NoError(t, r.CancelRequest(ctx, req.ID))
	_, err = r.FindRequestByID(ctx, req.ID)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)

	req, err = r.CreateRequest(ctx, CreateRequestInput{Type: models.RequestNew, ToolName: "saw", LocationID: loc.ID}, adminAct)
	require.NoError(t, err)
	_, err = r.RejectRequest(ctx, req.ID, adminAct)
	require.NoError(t, err)
	assert.ErrorIs(t, r.CancelRequest(ctx, req.ID), ErrInvalidState)
}

func TestListRequests_ByRequesterAndStatus(t *testing.T) {
	r := newTestRepo(t)
	ctx := context.Background()
	admin := seedUser(t, r, "admin", true)
	worker := seedUser(t, r, "worker", false)
	loc := seedLocation(t, r, "site A")

	_, err := r.CreateRequest(ctx, CreateRequestInput{Type: models.RequestNew, ToolName: "a", LocationID: loc.ID}, Actor{UserID: worker.ID})
	require.NoError(t, err)
	req2, err := r.CreateRequest(ctx, CreateRequestInput{Type: models.RequestNew, ToolName: "b", LocationID: loc.ID}, Actor{UserID: admin.ID, IsAdmin: true})
	require.NoError(t, err)
	_, err = r.ApproveRequest(ctx, req2.ID, Actor{UserID: admin.ID, IsAdmin: true})
	require.NoError(t, err)

	res, err := r.ListRequests(ctx, RequestFilter{RequesterID: worker.ID})
	require.NoError(t, err)
	assert.EqualValues(t, 1, res.Total)

	res, err = r.ListRequests(ctx, RequestFilter{Status: models.RequestApproved})
	require.NoError(t, err)
	assert.EqualValues(t, 1, res.Total)
	assert.Equal(t, req2.ID, res.Requests[0].ID)
}

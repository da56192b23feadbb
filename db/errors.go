package db

import "errors"

// 引擎错误种类，controller 用 errors.Is 映射 HTTP 状态码。
// 不在内部重试，直接同步返回给调用方。
var (
	// ErrInvalidTransition 状态变更与当前保管状态冲突
	ErrInvalidTransition = errors.New("status change conflicts with assignment state")
	// ErrToolUnavailable 对非 available 工具发起分配
	ErrToolUnavailable = errors.New("tool is not available")
	// ErrInvalidTarget 保管目标不合法（为空或者同时给了多个）
	ErrInvalidTarget = errors.New("invalid custody target")
	// ErrNotesRequired 非 good 归还条件必须填备注
	ErrNotesRequired = errors.New("notes required for this return condition")
	// ErrInvalidState 操作对象不在要求的状态（含并发丢失更新）
	ErrInvalidState = errors.New("operation not valid in current state")
	// ErrNoDestination 没有可用的目的地点
	ErrNoDestination = errors.New("no destination location")
)

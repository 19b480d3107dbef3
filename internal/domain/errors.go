package domain

import "errors"

var (
	ErrNotFound                = errors.New("记录不存在")
	ErrInvalidStatusTransition = errors.New("不允许的状态变更")
	ErrUnsupportedExportFormat = errors.New("不支持的导出格式")
	ErrInvalidTimeRange        = errors.New("结束时间不能早于开始时间")
	ErrActorRequired           = errors.New("缺少操作人")
	ErrInvalidRecurrence       = errors.New("无效的重复规则")
	ErrInvalidViewType         = errors.New("无效的视图类型")
)

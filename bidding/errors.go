package bidding

import "errors"

var (
	// ErrRemoteUnavailable 表示無法連線到儲存端
	ErrRemoteUnavailable = errors.New("preference store unavailable")
	// ErrInvalidChoice 表示寫入的選項不在允許的範圍內
	ErrInvalidChoice = errors.New("invalid choice")
	// ErrInvalidPair 表示審稿人或文章 ID 缺漏
	ErrInvalidPair = errors.New("reviewer and article are required")
	// ErrBidNotFound 表示要更新的紀錄不存在
	ErrBidNotFound = errors.New("bid not found")
)

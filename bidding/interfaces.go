//go:generate mockgen -package=bidding -destination=mock.go -source=interfaces.go

package bidding

import "context"

// IStore 定義了偏好儲存端需要提供的操作
type IStore interface {
	// ListBids 列出審稿人的所有原始紀錄(可能包含重複)
	ListBids(ctx context.Context, reviewer uint64) ([]BidRecord, error)
	// CreateBid 新增一筆紀錄，回傳帶有儲存端 ID 的紀錄
	CreateBid(ctx context.Context, record BidRecord) (BidRecord, error)
	// UpdateBid 依 ID 更新紀錄的 choice
	UpdateBid(ctx context.Context, id uint64, choice Choice) (BidRecord, error)
}

// IUpsertStore 是支援以 (reviewer, article) 原子性寫入的儲存端
type IUpsertStore interface {
	IStore
	UpsertBid(ctx context.Context, reviewer, article uint64, choice Choice) (BidRecord, bool, error)
}

// ILocker 提供以 key 為單位的分散式鎖
type ILocker interface {
	Lock(ctx context.Context, key string) (context.Context, func(), error)
}

// IPublisher 發布寫入成功的事件
type IPublisher interface {
	Publish(event BidChanged) error
}

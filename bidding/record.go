package bidding

import (
	"time"

	"github.com/google/uuid"
)

// BidRecord 代表審稿人對單篇文章的一筆出價(意願)紀錄
// 同一組 (Reviewer, Article) 在儲存端可能有多筆，ID 最大者為準
type BidRecord struct {
	ID       uint64 `json:"id"`
	Reviewer uint64 `json:"reviewer"`
	Article  uint64 `json:"article"`
	Choice   Choice `json:"choice"`
}

// BidChanged 是成功寫入後發布的事件
type BidChanged struct {
	EventID   uuid.UUID
	BidID     uint64
	Reviewer  uint64
	Article   uint64
	Choice    string
	Created   bool
	ChangedAt time.Time
}

// DedupeByPair 將單一審稿人的原始紀錄收斂成每篇文章一筆：
// 以 ID 最大者為準(與輸入順序無關)；ID 相同時保留最先出現的那筆。
// 保留下來的紀錄都會經過 Normalize。
func DedupeByPair(records []BidRecord) map[uint64]BidRecord {
	canonical := make(map[uint64]BidRecord, len(records))
	for _, record := range records {
		current, ok := canonical[record.Article]
		if ok && record.ID <= current.ID {
			continue
		}
		canonical[record.Article] = record
	}
	for article, record := range canonical {
		record.Choice = Normalize(string(record.Choice))
		canonical[article] = record
	}
	return canonical
}

package models

import (
	"time"
)

// Bid 代表審稿人對文章的出價(審稿意願)紀錄
// 同一組 (ReviewerID, ArticleID) 可能因為重送而有多筆，以 ID 最大者為準，
// 因此這裡只建立一般索引，不加唯一限制
type Bid struct {
	ID         uint64 `gorm:"primaryKey;autoIncrement"`
	ReviewerID uint64 `gorm:"not null;index:idx_bid_reviewer_article,priority:1;<-:create"`
	ArticleID  uint64 `gorm:"not null;index:idx_bid_reviewer_article,priority:2;<-:create"`
	Choice     string `gorm:"type:text;not null;default:''"`

	CreatedAt time.Time
	UpdatedAt time.Time
}

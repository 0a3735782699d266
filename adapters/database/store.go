package database

import (
	"context"
	"errors"
	"fmt"
	"hash/fnv"
	"log/slog"

	"gorm.io/gorm"

	"confbid/bidding"
	"confbid/metrics"
	"confbid/models"
)

const backendName = "database"

// Store 以 gorm 實作偏好儲存端，同時支援原子性的 UpsertBid
type Store struct {
	db     *gorm.DB
	logger *slog.Logger
}

type StoreOption func(*Store)

// WithStoreLogger 設置日誌記錄器
func WithStoreLogger(logger *slog.Logger) StoreOption {
	return func(s *Store) {
		s.logger = logger
	}
}

func NewStore(db *gorm.DB, opts ...StoreOption) (*Store, error) {
	if db == nil {
		return nil, errors.New("db cannot be nil")
	}
	store := &Store{db: db, logger: slog.Default()}
	for _, opt := range opts {
		opt(store)
	}
	store.logger = store.logger.With(slog.String("caller", "DatabaseStore"))
	return store, nil
}

// AutoMigrate 建立或更新 bids 資料表
func (s *Store) AutoMigrate() error {
	const op = "database.Store.AutoMigrate"
	if err := s.db.AutoMigrate(&models.Bid{}); err != nil {
		return fmt.Errorf("[%s] Fail to migrate bids, err=%w", op, err)
	}
	return nil
}

// ListBids 列出審稿人的所有原始紀錄，依 ID 排序
func (s *Store) ListBids(ctx context.Context, reviewer uint64) ([]bidding.BidRecord, error) {
	const op = "database.Store.ListBids"
	var bids []models.Bid
	err := s.db.WithContext(ctx).
		Where("reviewer_id = ?", reviewer).
		Order("id").
		Find(&bids).Error
	metrics.ObserveStore(backendName, "list", err)
	if err != nil {
		return nil, fmt.Errorf("[%s] Fail to list bids, err=%w", op, translateError(err))
	}
	records := make([]bidding.BidRecord, len(bids))
	for i, bid := range bids {
		records[i] = toRecord(bid)
	}
	return records, nil
}

// CreateBid 新增一筆紀錄
func (s *Store) CreateBid(ctx context.Context, record bidding.BidRecord) (bidding.BidRecord, error) {
	const op = "database.Store.CreateBid"
	bid := models.Bid{
		ReviewerID: record.Reviewer,
		ArticleID:  record.Article,
		Choice:     string(record.Choice),
	}
	err := s.db.WithContext(ctx).Create(&bid).Error
	metrics.ObserveStore(backendName, "create", err)
	if err != nil {
		return bidding.BidRecord{}, fmt.Errorf("[%s] Fail to create bid, err=%w", op, translateError(err))
	}
	return toRecord(bid), nil
}

// UpdateBid 依 ID 更新 choice，紀錄不存在時回傳 bidding.ErrBidNotFound
func (s *Store) UpdateBid(ctx context.Context, id uint64, choice bidding.Choice) (bidding.BidRecord, error) {
	const op = "database.Store.UpdateBid"
	var bid models.Bid
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&bid, id).Error; err != nil {
			return err
		}
		bid.Choice = string(choice)
		return tx.Model(&bid).Update("choice", bid.Choice).Error
	})
	metrics.ObserveStore(backendName, "update", err)
	if err != nil {
		return bidding.BidRecord{}, fmt.Errorf("[%s] Fail to update bid %d, err=%w", op, id, translateError(err))
	}
	return toRecord(bid), nil
}

// UpsertBid 在同一個交易內找出 (reviewer, article) 目前有效的紀錄並更新，
// 找不到時才新增。PostgreSQL 上會先取得該組合的 advisory lock，
// 讓並行的寫入依序執行，不會產生重複的紀錄。
func (s *Store) UpsertBid(ctx context.Context, reviewer, article uint64, choice bidding.Choice) (bidding.BidRecord, bool, error) {
	const op = "database.Store.UpsertBid"
	var (
		bid     models.Bid
		created bool
	)
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if tx.Dialector.Name() == "postgres" {
			if err := tx.Exec("SELECT pg_advisory_xact_lock(?)", advisoryKey(reviewer, article)).Error; err != nil {
				return err
			}
		}
		result := tx.
			Where("reviewer_id = ? AND article_id = ?", reviewer, article).
			Order("id DESC").
			Limit(1).
			Find(&bid)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			created = true
			bid = models.Bid{ReviewerID: reviewer, ArticleID: article, Choice: string(choice)}
			return tx.Create(&bid).Error
		}
		bid.Choice = string(choice)
		return tx.Model(&bid).Update("choice", bid.Choice).Error
	})
	metrics.ObserveStore(backendName, "upsert", err)
	if err != nil {
		return bidding.BidRecord{}, false, fmt.Errorf("[%s] Fail to upsert bid, err=%w", op, translateError(err))
	}
	s.logger.Debug("Upsert bid", slog.Uint64("id", bid.ID), slog.Bool("created", created))
	return toRecord(bid), created, nil
}

func toRecord(bid models.Bid) bidding.BidRecord {
	return bidding.BidRecord{
		ID:       bid.ID,
		Reviewer: bid.ReviewerID,
		Article:  bid.ArticleID,
		Choice:   bidding.Choice(bid.Choice),
	}
}

// advisoryKey 將 (reviewer, article) 映射成 pg_advisory_xact_lock 需要的 bigint
func advisoryKey(reviewer, article uint64) int64 {
	h := fnv.New64a()
	h.Write([]byte(bidding.PairKey(reviewer, article)))
	return int64(h.Sum64())
}

// translateError 將 gorm 的錯誤轉換為 bidding 定義的錯誤
func translateError(err error) error {
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return bidding.ErrBidNotFound
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return err
	case errors.Is(err, gorm.ErrDuplicatedKey), errors.Is(err, gorm.ErrForeignKeyViolated):
		return err
	default:
		return fmt.Errorf("%w: %w", bidding.ErrRemoteUnavailable, err)
	}
}

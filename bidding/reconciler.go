package bidding

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/samber/lo"

	"confbid/metrics"
)

type reconcilerOptions struct {
	logger    *slog.Logger
	locker    ILocker
	publisher IPublisher
	now       func() time.Time
}

type ReconcilerOption func(*reconcilerOptions)

// WithReconcilerLogger 設置日誌記錄器
func WithReconcilerLogger(logger *slog.Logger) ReconcilerOption {
	return func(o *reconcilerOptions) {
		o.logger = logger
	}
}

// WithReconcilerLocker 設置 (reviewer, article) 的分散式鎖，
// 讓舊式儲存端的「先讀後寫」在多個實例間也不會重複新增
func WithReconcilerLocker(locker ILocker) ReconcilerOption {
	return func(o *reconcilerOptions) {
		o.locker = locker
	}
}

// WithReconcilerPublisher 設置寫入成功後的事件發布者
func WithReconcilerPublisher(publisher IPublisher) ReconcilerOption {
	return func(o *reconcilerOptions) {
		o.publisher = publisher
	}
}

// Reconciler 負責把儲存端的原始紀錄收斂成每篇文章一筆，並提供冪等的寫入。
// 本身不保存任何狀態，可以同時被多個 goroutine 使用。
type Reconciler struct {
	store   IStore
	logger  *slog.Logger
	options reconcilerOptions
}

func NewReconciler(store IStore, opts ...ReconcilerOption) (*Reconciler, error) {
	if store == nil {
		return nil, fmt.Errorf("store cannot be nil")
	}

	// 默認選項
	options := reconcilerOptions{
		logger: slog.Default(),
		now:    time.Now,
	}

	// 應用自定義選項
	for _, opt := range opts {
		opt(&options)
	}
	if options.logger == nil {
		options.logger = slog.Default()
	}

	return &Reconciler{
		store:   store,
		logger:  options.logger.With(slog.String("caller", "Reconciler")),
		options: options,
	}, nil
}

// ListCanonical 取得審稿人每篇文章目前有效的紀錄，依文章 ID 排序
func (r *Reconciler) ListCanonical(ctx context.Context, reviewer uint64) ([]BidRecord, error) {
	const op = "Reconciler.ListCanonical"
	raw, err := r.store.ListBids(ctx, reviewer)
	if err != nil {
		return nil, fmt.Errorf("[%s] Fail to list bids, reviewer=%d, err=%w", op, reviewer, err)
	}
	// 儲存端回傳的列可能不屬於這位審稿人，不能參與收斂，否則 Save 會改到別人的紀錄
	owned := lo.Filter(raw, func(b BidRecord, _ int) bool { return b.Reviewer == reviewer })
	if foreign := len(raw) - len(owned); foreign > 0 {
		r.logger.Warn("Discard bids of other reviewers", slog.Uint64("reviewer", reviewer), slog.Int("discarded", foreign))
		metrics.BidRecordsDiscarded.WithLabelValues(metrics.ReasonForeignReviewer).Add(float64(foreign))
	}
	canonical := DedupeByPair(owned)
	if collapsed := len(owned) - len(canonical); collapsed > 0 {
		r.logger.Debug("Collapse duplicated bids", slog.Uint64("reviewer", reviewer), slog.Int("collapsed", collapsed))
		metrics.BidDuplicatesCollapsed.Add(float64(collapsed))
	}
	records := lo.Values(canonical)
	sort.Slice(records, func(i, j int) bool {
		return records[i].Article < records[j].Article
	})
	return records, nil
}

// Save 將審稿人對文章的選項寫入儲存端。
// 相同的 (reviewer, article, value) 重複呼叫只會在第一次新增紀錄，之後都是更新。
func (r *Reconciler) Save(ctx context.Context, reviewer, article uint64, value Choice) (BidRecord, error) {
	const op = "Reconciler.Save"
	// 在任何網路請求之前檢查參數
	if !value.Valid() {
		return BidRecord{}, fmt.Errorf("[%s] %w: %q", op, ErrInvalidChoice, string(value))
	}
	if reviewer == 0 || article == 0 {
		return BidRecord{}, fmt.Errorf("[%s] %w", op, ErrInvalidPair)
	}

	record, created, err := r.save(ctx, reviewer, article, value)
	if err != nil {
		metrics.BidSavesTotal.WithLabelValues(metrics.OutcomeError).Inc()
		return BidRecord{}, fmt.Errorf("[%s] Fail to save bid, reviewer=%d, article=%d, err=%w", op, reviewer, article, err)
	}
	record.Choice = Normalize(string(record.Choice))
	if created {
		metrics.BidSavesTotal.WithLabelValues(metrics.OutcomeCreated).Inc()
	} else {
		metrics.BidSavesTotal.WithLabelValues(metrics.OutcomeUpdated).Inc()
	}
	r.publish(record, created)
	return record, nil
}

func (r *Reconciler) save(ctx context.Context, reviewer, article uint64, value Choice) (BidRecord, bool, error) {
	// 儲存端支援原子性 upsert 時直接使用，不需要先讀後寫
	if upserter, ok := r.store.(IUpsertStore); ok {
		return upserter.UpsertBid(ctx, reviewer, article, value)
	}

	if r.options.locker != nil {
		lockCtx, unlock, err := r.options.locker.Lock(ctx, PairKey(reviewer, article))
		if err != nil {
			return BidRecord{}, false, fmt.Errorf("fail to acquire pair lock, err=%w", err)
		}
		defer unlock()
		ctx = lockCtx
	}

	canonical, err := r.ListCanonical(ctx, reviewer)
	if err != nil {
		return BidRecord{}, false, err
	}
	if existing, ok := lo.Find(canonical, func(b BidRecord) bool { return b.Article == article }); ok {
		updated, err := r.store.UpdateBid(ctx, existing.ID, value)
		if err != nil {
			return BidRecord{}, false, err
		}
		return updated, false, nil
	}
	created, err := r.store.CreateBid(ctx, BidRecord{
		Reviewer: reviewer,
		Article:  article,
		Choice:   value,
	})
	if err != nil {
		return BidRecord{}, false, err
	}
	return created, true, nil
}

// publish 發布失敗不影響寫入結果
func (r *Reconciler) publish(record BidRecord, created bool) {
	if r.options.publisher == nil {
		return
	}
	event := BidChanged{
		EventID:   uuid.New(),
		BidID:     record.ID,
		Reviewer:  record.Reviewer,
		Article:   record.Article,
		Choice:    string(record.Choice),
		Created:   created,
		ChangedAt: r.options.now(),
	}
	if err := r.options.publisher.Publish(event); err != nil {
		r.logger.Warn("Fail to publish bid change", slog.Uint64("bid", record.ID), slog.Any("error", err))
	}
}

// PairKey 產生 (reviewer, article) 對應的鎖名稱
func PairKey(reviewer, article uint64) string {
	return fmt.Sprintf("bid:%d:%d", reviewer, article)
}

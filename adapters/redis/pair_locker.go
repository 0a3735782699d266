package redis

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"
)

// PairLocker 以 AutoRenewMutex 實作 bidding.ILocker，
// 每個 key 在 Redis 上對應 "<prefix><key>:lock"
type PairLocker struct {
	client *redis.Client
	prefix string
	logger *slog.Logger
	opts   []AutoRenewMutexOption
}

type PairLockerOption func(*PairLocker)

// WithPairLockerPrefix 設定鎖名稱的前綴
func WithPairLockerPrefix(prefix string) PairLockerOption {
	return func(l *PairLocker) {
		l.prefix = prefix
	}
}

// WithPairLockerLogger 設置日誌記錄器
func WithPairLockerLogger(logger *slog.Logger) PairLockerOption {
	return func(l *PairLocker) {
		l.logger = logger
	}
}

// WithPairLockerMutexOptions 設定每個鎖使用的 AutoRenewMutex 選項
func WithPairLockerMutexOptions(opts ...AutoRenewMutexOption) PairLockerOption {
	return func(l *PairLocker) {
		l.opts = append(l.opts, opts...)
	}
}

func NewPairLocker(client *redis.Client, opts ...PairLockerOption) (*PairLocker, error) {
	if client == nil {
		return nil, errors.New("redis client cannot be nil")
	}
	locker := &PairLocker{client: client, logger: slog.Default()}
	for _, opt := range opts {
		opt(locker)
	}
	locker.logger = locker.logger.With(slog.String("caller", "PairLocker"))
	return locker, nil
}

// Lock 取得 key 的鎖，回傳持鎖期間有效的 context 與解鎖函數
func (l *PairLocker) Lock(ctx context.Context, key string) (context.Context, func(), error) {
	const op = "PairLocker.Lock"
	name := l.prefix + key + ":lock"
	mutex := NewAutoRenewMutex(l.client, name, l.opts...)
	lockCtx, err := mutex.Lock(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("[%s] Fail to acquire lock %s, err=%w", op, name, err)
	}
	unlock := func() {
		if _, err := mutex.Unlock(); err != nil {
			l.logger.Warn("Fail to release lock", slog.String("lock", name), slog.Any("error", err))
		}
	}
	return lockCtx, unlock, nil
}

package redis

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/go-redsync/redsync/v4"
	"github.com/go-redsync/redsync/v4/redis/goredis/v9"
	"github.com/redis/go-redis/v9"
)

type autoRenewMutexOptions struct {
	expiry        time.Duration
	retryDelay    time.Duration
	renewInterval time.Duration
	skipLockError bool
}

type AutoRenewMutexOption func(*autoRenewMutexOptions)

// WithAutoRenewMutexExpiry 設置鎖的存活時間
func WithAutoRenewMutexExpiry(d time.Duration) AutoRenewMutexOption {
	return func(o *autoRenewMutexOptions) {
		o.expiry = d
	}
}

// WithAutoRenewMutexRetryDelay 設置鎖被占用時的重試間隔
func WithAutoRenewMutexRetryDelay(d time.Duration) AutoRenewMutexOption {
	return func(o *autoRenewMutexOptions) {
		o.retryDelay = d
	}
}

// WithAutoRenewMutexRenewInterval 設置續期間隔，未設置時為 expiry 的 1/3
func WithAutoRenewMutexRenewInterval(d time.Duration) AutoRenewMutexOption {
	return func(o *autoRenewMutexOptions) {
		o.renewInterval = d
	}
}

// WithAutoRenewMutexSkipLockError 設置 Redis 連線錯誤時是否繼續重試
func WithAutoRenewMutexSkipLockError(skip bool) AutoRenewMutexOption {
	return func(o *autoRenewMutexOptions) {
		o.skipLockError = skip
	}
}

// AutoRenewMutex 是持有期間會自動續期的 redsync 鎖，
// Lock 回傳的 context 會在解鎖或續期失敗時被取消
type AutoRenewMutex struct {
	mutex   *redsync.Mutex
	options autoRenewMutexOptions

	mu       sync.Mutex
	wg       sync.WaitGroup
	cancel   context.CancelFunc
	renewing bool
}

// NewAutoRenewMutex 建立以 key 為名稱的鎖
func NewAutoRenewMutex(client *redis.Client, key string, opts ...AutoRenewMutexOption) IAutoRenewMutex {
	options := autoRenewMutexOptions{
		expiry:     8 * time.Second,
		retryDelay: 500 * time.Millisecond,
	}
	for _, opt := range opts {
		opt(&options)
	}
	if options.renewInterval <= 0 {
		options.renewInterval = options.expiry / 3
	}

	// 重試由 Lock 自行處理，redsync 只嘗試一次
	mutex := redsync.New(goredis.NewPool(client)).NewMutex(
		key,
		redsync.WithExpiry(options.expiry),
		redsync.WithTries(1),
		redsync.WithRetryDelay(options.retryDelay),
	)
	return &AutoRenewMutex{mutex: mutex, options: options}
}

// Lock 持續嘗試取得鎖直到成功或 ctx 結束
func (m *AutoRenewMutex) Lock(ctx context.Context) (context.Context, error) {
	timer := time.NewTimer(0)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-timer.C:
		}

		err := m.mutex.LockContext(ctx)
		if err == nil {
			lockCtx, cancel := context.WithCancel(ctx)
			m.startAutoRenew(lockCtx, cancel)
			return lockCtx, nil
		}
		// 鎖被占用時重試；Redis 本身出錯時除非設置 skipLockError 否則直接返回
		var redisErr *redsync.RedisError
		if errors.As(err, &redisErr) && !m.options.skipLockError {
			return nil, fmt.Errorf("failed to acquire lock: %w", err)
		}
		timer.Reset(m.options.retryDelay)
	}
}

// Unlock 停止續期並釋放鎖
func (m *AutoRenewMutex) Unlock() (bool, error) {
	m.stopAutoRenew()
	m.wg.Wait()
	return m.mutex.Unlock()
}

// Valid 鎖尚未過期且仍在續期中
func (m *AutoRenewMutex) Valid() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.renewing && time.Now().Before(m.mutex.Until())
}

func (m *AutoRenewMutex) startAutoRenew(ctx context.Context, cancel context.CancelFunc) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.renewing {
		cancel()
		return
	}
	m.renewing = true
	m.cancel = cancel

	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		ticker := time.NewTicker(m.options.renewInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if ok, err := m.mutex.ExtendContext(ctx); err != nil || !ok {
					m.stopAutoRenew()
					return
				}
			}
		}
	}()
}

func (m *AutoRenewMutex) stopAutoRenew() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.renewing {
		return
	}
	m.renewing = false
	if m.cancel != nil {
		m.cancel()
	}
}

package redis

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"confbid/bidding"
)

func TestNewPairLocker(t *testing.T) {
	locker, err := NewPairLocker(nil)
	assert.Error(t, err)
	assert.Nil(t, locker)

	client := redis.NewClient(&redis.Options{})
	defer client.Close()
	locker, err = NewPairLocker(client, WithPairLockerPrefix("confbid:"))
	require.NoError(t, err)
	assert.Equal(t, "confbid:", locker.prefix)
}

func TestPairLocker_Lock(t *testing.T) {
	t.Run("key uses prefix", func(t *testing.T) {
		defer goleak.VerifyNone(t)
		client, mr, cleanup := setupMiniredis(t)
		defer cleanup()

		locker, err := NewPairLocker(client, WithPairLockerPrefix("confbid:"))
		require.NoError(t, err)

		lockCtx, unlock, err := locker.Lock(context.Background(), bidding.PairKey(1, 5))
		require.NoError(t, err)
		assert.True(t, mr.Exists("confbid:bid:1:5:lock"))

		unlock()
		assert.False(t, mr.Exists("confbid:bid:1:5:lock"))
		waitDone(t, lockCtx)
	})

	t.Run("serializes same pair", func(t *testing.T) {
		defer goleak.VerifyNone(t)
		client, _, cleanup := setupMiniredis(t)
		defer cleanup()

		locker, err := NewPairLocker(client,
			WithPairLockerMutexOptions(WithAutoRenewMutexRetryDelay(10*time.Millisecond)))
		require.NoError(t, err)

		var inside, maxInside atomic.Int32
		var wg sync.WaitGroup
		for i := 0; i < 4; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_, unlock, err := locker.Lock(context.Background(), bidding.PairKey(1, 5))
				if !assert.NoError(t, err) {
					return
				}
				n := inside.Add(1)
				if n > maxInside.Load() {
					maxInside.Store(n)
				}
				time.Sleep(20 * time.Millisecond)
				inside.Add(-1)
				unlock()
			}()
		}
		wg.Wait()
		assert.Equal(t, int32(1), maxInside.Load())
	})

	t.Run("different pairs do not block", func(t *testing.T) {
		defer goleak.VerifyNone(t)
		client, _, cleanup := setupMiniredis(t)
		defer cleanup()

		locker, err := NewPairLocker(client)
		require.NoError(t, err)

		_, unlockA, err := locker.Lock(context.Background(), bidding.PairKey(1, 5))
		require.NoError(t, err)
		defer unlockA()

		ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
		defer cancel()
		_, unlockB, err := locker.Lock(ctx, bidding.PairKey(1, 6))
		require.NoError(t, err)
		unlockB()
	})

	t.Run("timeout while held", func(t *testing.T) {
		defer goleak.VerifyNone(t)
		client, _, cleanup := setupMiniredis(t)
		defer cleanup()

		locker, err := NewPairLocker(client,
			WithPairLockerMutexOptions(WithAutoRenewMutexRetryDelay(10*time.Millisecond)))
		require.NoError(t, err)

		_, unlock, err := locker.Lock(context.Background(), bidding.PairKey(1, 5))
		require.NoError(t, err)
		defer unlock()

		ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
		defer cancel()
		_, _, err = locker.Lock(ctx, bidding.PairKey(1, 5))
		assert.ErrorIs(t, err, context.DeadlineExceeded)
	})
}

// 以 PairLocker 保護舊式儲存端時，同時寫入同一組只會新增一筆
func TestPairLocker_ReconcilerConverges(t *testing.T) {
	defer goleak.VerifyNone(t)
	client, _, cleanup := setupMiniredis(t)
	defer cleanup()

	locker, err := NewPairLocker(client,
		WithPairLockerMutexOptions(WithAutoRenewMutexRetryDelay(10*time.Millisecond)))
	require.NoError(t, err)

	store := &sliceStore{}
	r, err := bidding.NewReconciler(store, bidding.WithReconcilerLocker(locker))
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := r.Save(context.Background(), 1, 5, bidding.ChoiceInterested)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.Len(t, store.records, 1)
}

// sliceStore 是沒有 upsert 的簡易儲存端
type sliceStore struct {
	mu      sync.Mutex
	records []bidding.BidRecord
}

func (s *sliceStore) ListBids(_ context.Context, reviewer uint64) ([]bidding.BidRecord, error) {
	s.mu.Lock()
	var out []bidding.BidRecord
	for _, r := range s.records {
		if r.Reviewer == reviewer {
			out = append(out, r)
		}
	}
	s.mu.Unlock()
	// 讓沒有鎖的情況下比較容易交錯
	time.Sleep(5 * time.Millisecond)
	return out, nil
}

func (s *sliceStore) CreateBid(_ context.Context, record bidding.BidRecord) (bidding.BidRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	record.ID = uint64(len(s.records) + 1)
	s.records = append(s.records, record)
	return record, nil
}

func (s *sliceStore) UpdateBid(_ context.Context, id uint64, choice bidding.Choice) (bidding.BidRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.records {
		if s.records[i].ID == id {
			s.records[i].Choice = choice
			return s.records[i], nil
		}
	}
	return bidding.BidRecord{}, bidding.ErrBidNotFound
}

package redis

import (
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redismock/v9"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	// 將日誌輸出重定向到io.Discard
	slog.SetDefault(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func setupTest(t *testing.T) (*redis.Client, redismock.ClientMock, func()) {
	db, mock := redismock.NewClientMock()
	return db, mock, func() {
		assert.NoError(t, mock.ExpectationsWereMet())
		db.Close()
	}
}

// setupMiniredis 需要自行呼叫 cleanup，讓 goleak 檢查前伺服器已經關閉
func setupMiniredis(t *testing.T) (*redis.Client, *miniredis.Miniredis, func()) {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	return client, mr, func() {
		client.Close()
		mr.Close()
	}
}

// TestEvent 模擬寫入事件
type TestEvent struct {
	BidID     uint64    `msgpack:"bid_id"`
	Reviewer  uint64    `msgpack:"reviewer"`
	Article   uint64    `msgpack:"article"`
	Choice    string    `msgpack:"choice"`
	Created   bool      `msgpack:"created"`
	ChangedAt time.Time `msgpack:"changed_at"`
}

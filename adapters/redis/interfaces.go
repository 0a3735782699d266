//go:generate mockgen -package=redis -destination=mock.go -source=interfaces.go

package redis

import (
	"context"

	"confbid/bidding"
)

// IProducer 在背景把事件寫入 stream
type IProducer[T any] interface {
	Start()
	Publish(data T) error
	Close()
}

// IConsumer 讀取 stream 並轉成 channel，Close 後 channel 會被關閉
type IConsumer[T any] interface {
	Start()
	Subscribe() <-chan T
	Close()
}

// IAutoRenewMutex 持有期間自動續期的分散式鎖
type IAutoRenewMutex interface {
	Lock(ctx context.Context) (context.Context, error)
	Unlock() (bool, error)
	Valid() bool
}

var (
	_ bidding.IPublisher = (*Producer[bidding.BidChanged])(nil)
	_ bidding.ILocker    = (*PairLocker)(nil)
)

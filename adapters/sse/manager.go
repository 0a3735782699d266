package sse

import (
	"context"
	"log/slog"
	"sync"
)

type managerOptions[T any] struct {
	logger     *slog.Logger
	subscriber ISubscriber[PublishRequest[T]]
	bufferSize int
}

type Option[T any] func(*managerOptions[T])

// WithLogger 設置日誌記錄器
func WithLogger[T any](logger *slog.Logger) Option[T] {
	return func(o *managerOptions[T]) {
		o.logger = logger
	}
}

// WithSubscriber 設置跨實例的訊息來源，收到的訊息會轉送給本實例的訂閱者
func WithSubscriber[T any](subscriber ISubscriber[PublishRequest[T]]) Option[T] {
	return func(o *managerOptions[T]) {
		o.subscriber = subscriber
	}
}

// WithBufferSize 設置每個訂閱者的緩衝大小
func WithBufferSize[T any](size int) Option[T] {
	return func(o *managerOptions[T]) {
		o.bufferSize = size
	}
}

// connectionManager 管理多個 SSE 頻道的訂閱與發布。
type connectionManager[T any] struct {
	logger *slog.Logger

	mu     sync.RWMutex   // 保護 active 和 channels 的讀寫
	wg     sync.WaitGroup // 用於等待轉送的 goroutine 完成
	active bool

	subscriber ISubscriber[PublishRequest[T]]
	bufferSize int
	channels   map[string]IChannel[T]
}

// NewConnectionManager 建立一個新的連線管理器。
func NewConnectionManager[T any](opts ...Option[T]) (IConnectionManager[T], error) {
	options := managerOptions[T]{
		logger:     slog.Default(),
		bufferSize: 16,
	}
	for _, opt := range opts {
		opt(&options)
	}

	return &connectionManager[T]{
		logger:     options.logger.With(slog.String("caller", "ConnectionManager")),
		subscriber: options.subscriber,
		bufferSize: options.bufferSize,
		channels:   make(map[string]IChannel[T]),
	}, nil
}

func (cm *connectionManager[T]) Start() {
	cm.mu.Lock()
	defer cm.mu.Unlock()
	if cm.active {
		return
	}
	cm.active = true
	if cm.subscriber == nil {
		return
	}

	cm.subscriber.Start()
	cm.wg.Add(1)
	go func() {
		defer cm.wg.Done()
		for msg := range cm.subscriber.Subscribe() {
			cm.broadcast(msg.Channel, msg.Message)
		}
	}()
}

// Done 停止連線管理器的運作並關閉所有訂閱者的通道。
func (cm *connectionManager[T]) Done() {
	cm.mu.Lock()
	if !cm.active {
		cm.mu.Unlock()
		return
	}
	cm.active = false
	cm.mu.Unlock()

	// 轉送的 goroutine 需要讀鎖，必須在不持鎖的情況下等待
	if cm.subscriber != nil {
		cm.subscriber.Close()
		cm.wg.Wait()
	}

	cm.mu.Lock()
	defer cm.mu.Unlock()
	for _, channel := range cm.channels {
		channel.UnsubscribeAll()
	}
	clear(cm.channels)
}

func (cm *connectionManager[T]) Subscribe(channelName string) (<-chan T, error) {
	cm.mu.Lock()
	defer cm.mu.Unlock()

	if !cm.active {
		return nil, context.Canceled
	}

	c, ok := cm.channels[channelName]
	if !ok {
		c = NewChannel[T](cm.bufferSize)
		cm.channels[channelName] = c
	}
	return c.Subscribe(), nil
}

func (cm *connectionManager[T]) Publish(channelName string, data T) error {
	cm.mu.RLock()
	active := cm.active
	cm.mu.RUnlock()
	if !active {
		return context.Canceled
	}
	cm.broadcast(channelName, data)
	return nil
}

func (cm *connectionManager[T]) broadcast(channelName string, data T) {
	cm.mu.RLock()
	defer cm.mu.RUnlock()
	channel, ok := cm.channels[channelName]
	if !ok {
		return
	}
	if dropped := channel.Broadcast(data); dropped > 0 {
		cm.logger.Warn("Drop message for slow subscribers", slog.String("channel", channelName), slog.Int("dropped", dropped))
	}
}

func (cm *connectionManager[T]) Unsubscribe(channelName string, ch <-chan T) {
	cm.mu.Lock()
	defer cm.mu.Unlock()

	c, ok := cm.channels[channelName]
	if !ok {
		return
	}

	c.Unsubscribe(ch)
	if c.IsIdle() {
		delete(cm.channels, channelName)
	}
}

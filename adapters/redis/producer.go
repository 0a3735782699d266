package redis

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/redis/go-redis/v9"
	"github.com/smallnest/chanx"

	"confbid/metrics"
)

var (
	ErrProducerClosed = errors.New("producer is closed")
)

type producerOptions[T any] struct {
	logger     *slog.Logger
	bufferSize int
	maxLen     int64
	parseFunc  func(T) (map[string]any, error)
}

type ProducerOption[T any] func(*producerOptions[T])

// WithProducerLogger 設置日誌記錄器
func WithProducerLogger[T any](logger *slog.Logger) ProducerOption[T] {
	return func(o *producerOptions[T]) {
		o.logger = logger
	}
}

// WithProducerBufferSize 設置初始緩衝大小，超過時緩衝會自動擴張
func WithProducerBufferSize[T any](size int) ProducerOption[T] {
	return func(o *producerOptions[T]) {
		o.bufferSize = size
	}
}

// WithProducerMaxLen 以 MAXLEN ~ 修剪 stream，0 表示不修剪
func WithProducerMaxLen[T any](maxLen int64) ProducerOption[T] {
	return func(o *producerOptions[T]) {
		o.maxLen = maxLen
	}
}

// WithProducerParseFunc 設置事件編碼函數
func WithProducerParseFunc[T any](fn func(T) (map[string]any, error)) ProducerOption[T] {
	return func(o *producerOptions[T]) {
		o.parseFunc = fn
	}
}

// Producer 把異動事件寫入 Redis stream。
// Publish 只負責編碼與排入緩衝，XADD 在背景執行，因此寫入 API 不會被 Redis 拖慢。
// Close 之後可以再次 Start。
type Producer[T any] struct {
	client  *redis.Client
	stream  string
	logger  *slog.Logger
	options producerOptions[T]

	mu       sync.RWMutex
	wg       sync.WaitGroup
	running  bool
	pending  *chanx.UnboundedChan[map[string]any]
	stopFunc context.CancelFunc
}

func NewProducer[T any](client *redis.Client, stream string, opts ...ProducerOption[T]) (*Producer[T], error) {
	if client == nil {
		return nil, errors.New("redis client cannot be nil")
	}
	if stream == "" {
		return nil, errors.New("stream cannot be empty")
	}

	// 默認選項
	options := producerOptions[T]{
		logger:     slog.Default(),
		bufferSize: 100,
		parseFunc:  DefaultParseToMessage[T],
	}

	// 應用自定義選項
	for _, opt := range opts {
		opt(&options)
	}

	return &Producer[T]{
		client:  client,
		stream:  stream,
		logger:  options.logger.With(slog.String("caller", "Producer"), slog.String("stream", stream)),
		options: options,
	}, nil
}

func (p *Producer[T]) Start() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.running {
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	p.pending = chanx.NewUnboundedChan[map[string]any](ctx, p.options.bufferSize)
	p.stopFunc = cancel
	p.running = true
	p.logger.Info("Start bid event producer")

	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		p.drain(ctx, p.pending.Out)
	}()
}

func (p *Producer[T]) drain(ctx context.Context, pending <-chan map[string]any) {
	for {
		select {
		case <-ctx.Done():
			return
		case message, ok := <-pending:
			if !ok {
				return
			}
			if err := p.send(ctx, message); err != nil {
				if errors.Is(err, context.Canceled) {
					return
				}
				p.logger.Error("Fail to append bid event", slog.Any("error", err))
			}
		}
	}
}

func (p *Producer[T]) send(ctx context.Context, message map[string]any) error {
	args := &redis.XAddArgs{
		Stream: p.stream,
		Values: message,
	}
	if p.options.maxLen > 0 {
		args.MaxLen = p.options.maxLen
		args.Approx = true
	}
	id, err := p.client.XAdd(ctx, args).Result()
	if err != nil {
		metrics.StreamMessagesTotal.WithLabelValues(p.stream, metrics.StagePublishError).Inc()
		return err
	}
	metrics.StreamMessagesTotal.WithLabelValues(p.stream, metrics.StagePublished).Inc()
	p.logger.Debug("Bid event appended", slog.String("messageId", id))
	return nil
}

// Publish 編碼事件並排入緩衝，未 Start 或已 Close 時回傳 ErrProducerClosed
func (p *Producer[T]) Publish(data T) error {
	const op = "Producer.Publish"
	p.mu.RLock()
	defer p.mu.RUnlock()
	if !p.running {
		return ErrProducerClosed
	}

	message, err := p.options.parseFunc(data)
	if err != nil {
		return fmt.Errorf("[%s] Fail to parse message, err=%w", op, err)
	}
	p.pending.In <- message
	return nil
}

// Close 停止背景寫入，尚未送出的事件會被捨棄
func (p *Producer[T]) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.running {
		return
	}
	p.running = false
	p.stopFunc()
	p.wg.Wait()
	p.logger.Info("Bid event producer closed")
}

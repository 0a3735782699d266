package redis

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"confbid/metrics"
)

type consumerOptions[T any] struct {
	logger       *slog.Logger
	bufferSize   int
	blockTimeout time.Duration
	retryDelay   time.Duration
	startID      string
	parseFunc    func(map[string]any) (T, error)
}

type ConsumerOption[T any] func(*consumerOptions[T])

// WithConsumerLogger 設置日誌記錄器
func WithConsumerLogger[T any](logger *slog.Logger) ConsumerOption[T] {
	return func(o *consumerOptions[T]) {
		o.logger = logger
	}
}

// WithConsumerBufferSize 設置 Subscribe channel 的緩衝大小
func WithConsumerBufferSize[T any](size int) ConsumerOption[T] {
	return func(o *consumerOptions[T]) {
		o.bufferSize = size
	}
}

// WithConsumerBlockTimeout 設置 XREAD BLOCK 的時間
func WithConsumerBlockTimeout[T any](d time.Duration) ConsumerOption[T] {
	return func(o *consumerOptions[T]) {
		o.blockTimeout = d
	}
}

// WithConsumerStartID 設置開始讀取的位置，預設 "$" 只讀取啟動後的新事件，
// 啟動時會換成當下最後一筆的 ID
func WithConsumerStartID[T any](id string) ConsumerOption[T] {
	return func(o *consumerOptions[T]) {
		o.startID = id
	}
}

// WithConsumerParseFunc 設置事件解碼函數
func WithConsumerParseFunc[T any](fn func(map[string]any) (T, error)) ConsumerOption[T] {
	return func(o *consumerOptions[T]) {
		o.parseFunc = fn
	}
}

// Consumer 以 XREAD 追蹤 stream。
// 不使用 consumer group，每個實例都會收到全部事件，讓各自的 SSE 連線都能推送。
type Consumer[T any] struct {
	client  *redis.Client
	stream  string
	logger  *slog.Logger
	options consumerOptions[T]

	lastID     string
	downStream chan T

	mu         sync.Mutex
	wg         sync.WaitGroup
	closed     bool
	cancelFunc context.CancelFunc
}

func NewConsumer[T any](client *redis.Client, stream string, opts ...ConsumerOption[T]) (*Consumer[T], error) {
	if client == nil {
		return nil, errors.New("redis client cannot be nil")
	}
	if stream == "" {
		return nil, errors.New("stream cannot be empty")
	}

	// 默認選項
	options := consumerOptions[T]{
		logger:       slog.Default(),
		bufferSize:   100,
		blockTimeout: time.Second,
		retryDelay:   100 * time.Millisecond,
		startID:      "$",
		parseFunc:    DefaultParseFromMessage[T],
	}

	// 應用自定義選項
	for _, opt := range opts {
		opt(&options)
	}

	return &Consumer[T]{
		client:     client,
		stream:     stream,
		logger:     options.logger.With(slog.String("caller", "Consumer"), slog.String("stream", stream)),
		options:    options,
		lastID:     options.startID,
		downStream: make(chan T, options.bufferSize),
		closed:     true,
	}, nil
}

// Start 只會生效一次，Close 之後 Subscribe 的 channel 會被關閉
func (s *Consumer[T]) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.closed || s.cancelFunc != nil {
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	s.closed = false
	s.cancelFunc = cancel
	if err := s.resolveStart(ctx); err != nil {
		s.logger.Warn("Fail to resolve stream position, retry in background", slog.Any("error", err))
	}
	s.logger.Info("Start bid event consumer", slog.String("from", s.lastID))

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer close(s.downStream)
		s.run(ctx)
	}()
}

// resolveStart 把 "$" 換成 stream 目前最後一筆的 ID。
// 直接拿 "$" 重複 XREAD 時，兩次讀取之間寫入的事件會被跳過。
func (s *Consumer[T]) resolveStart(ctx context.Context) error {
	if s.lastID != "$" {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, s.options.blockTimeout)
	defer cancel()
	latest, err := s.client.XRevRangeN(ctx, s.stream, "+", "-", 1).Result()
	if err != nil {
		return err
	}
	if len(latest) == 0 {
		s.lastID = "0-0"
	} else {
		s.lastID = latest[0].ID
	}
	return nil
}

func (s *Consumer[T]) run(ctx context.Context) {
	for ctx.Err() == nil {
		if err := s.resolveStart(ctx); err != nil {
			s.logger.Error("Fail to resolve stream position", slog.Any("error", err))
			select {
			case <-ctx.Done():
				return
			case <-time.After(s.options.retryDelay):
			}
			continue
		}
		message, err := s.next(ctx)
		switch {
		case ctx.Err() != nil:
			return
		case errors.Is(err, redis.Nil):
			// BLOCK 逾時，沒有新事件
			continue
		case err != nil:
			s.logger.Error("Fail to read bid events", slog.Any("error", err))
			select {
			case <-ctx.Done():
				return
			case <-time.After(s.options.retryDelay):
			}
			continue
		}

		event, err := s.options.parseFunc(message.Values)
		if err != nil {
			metrics.StreamMessagesTotal.WithLabelValues(s.stream, metrics.StageParseError).Inc()
			s.logger.Warn("Skip malformed bid event", slog.String("messageId", message.ID), slog.Any("error", err))
			continue
		}
		metrics.StreamMessagesTotal.WithLabelValues(s.stream, metrics.StageConsumed).Inc()

		select {
		case <-ctx.Done():
			return
		case s.downStream <- event:
		}
	}
}

// next 讀取 lastID 之後的下一筆事件，沒有事件時回傳 redis.Nil
func (s *Consumer[T]) next(ctx context.Context) (redis.XMessage, error) {
	streams, err := s.client.XRead(ctx, &redis.XReadArgs{
		Streams: []string{s.stream, s.lastID},
		Count:   1,
		Block:   s.options.blockTimeout,
	}).Result()
	if err != nil {
		return redis.XMessage{}, err
	}
	if len(streams) == 0 || len(streams[0].Messages) == 0 {
		return redis.XMessage{}, redis.Nil
	}
	message := streams[0].Messages[0]
	s.lastID = message.ID
	return message, nil
}

func (s *Consumer[T]) Subscribe() <-chan T {
	return s.downStream
}

func (s *Consumer[T]) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	s.cancelFunc()
	s.wg.Wait()
	s.logger.Info("Bid event consumer closed")
}

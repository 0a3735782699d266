package sse_test

import (
	"io"
	"log/slog"
	"sync"

	"confbid/adapters/sse"
)

func init() {
	// 將日誌輸出重定向到io.Discard
	slog.SetDefault(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

// Message 表示一個 SSE 訊息，包含資料字段。
type Message struct {
	Data string `json:"data"`
}

// fakeSubscriber 模擬跨實例的訊息來源
type fakeSubscriber struct {
	ch      chan sse.PublishRequest[Message]
	once    sync.Once
	started bool
}

func newFakeSubscriber() *fakeSubscriber {
	return &fakeSubscriber{ch: make(chan sse.PublishRequest[Message])}
}

func (f *fakeSubscriber) Start() { f.started = true }

func (f *fakeSubscriber) Subscribe() <-chan sse.PublishRequest[Message] { return f.ch }

func (f *fakeSubscriber) Close() { f.once.Do(func() { close(f.ch) }) }

package sse

import (
	"sync"
)

// Channel 是單一審稿人的推送頻道。
// 每個連線有自己的緩衝，寫不進去的連線只會漏掉這一則，不會擋住同頻道的其他連線。
type Channel[T any] struct {
	mu         sync.RWMutex
	bufferSize int
	// key 是交給呼叫端的唯讀端，value 是同一個 channel 的寫入端
	conns map[<-chan T]chan T
}

func NewChannel[T any](bufferSize int) IChannel[T] {
	return &Channel[T]{
		bufferSize: max(bufferSize, 0),
		conns:      make(map[<-chan T]chan T),
	}
}

func (c *Channel[T]) Subscribe() <-chan T {
	conn := make(chan T, c.bufferSize)

	c.mu.Lock()
	c.conns[conn] = conn
	c.mu.Unlock()
	return conn
}

// Unsubscribe 移除並關閉連線，重複呼叫不會 panic
func (c *Channel[T]) Unsubscribe(ch <-chan T) {
	c.mu.Lock()
	defer c.mu.Unlock()
	conn, ok := c.conns[ch]
	if !ok {
		return
	}
	delete(c.conns, ch)
	close(conn)
}

func (c *Channel[T]) UnsubscribeAll() {
	c.mu.Lock()
	defer c.mu.Unlock()
	for key, conn := range c.conns {
		delete(c.conns, key)
		close(conn)
	}
}

func (c *Channel[T]) Broadcast(message T) (dropped int) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, conn := range c.conns {
		select {
		case conn <- message:
		default:
			dropped++
		}
	}
	return dropped
}

func (c *Channel[T]) IsIdle() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.conns) == 0
}

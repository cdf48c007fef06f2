package redis

import (
	"context"
	"sync"
	"time"

	goredis "github.com/go-redis/redis/v8"
)

// fakeRedis is an in-memory RedisClient for unit tests.
type fakeRedis struct {
	mu sync.Mutex

	kv       map[string]string
	lists    map[string][][]byte
	expiries map[string]time.Duration

	subscribers  int64   // returned by Publish
	publishQueue []int64 // overrides subscribers per call when non-empty
	published    []fakeMessage

	publishErr error
	rpushErr   error
	setErr     error
}

type fakeMessage struct {
	Channel string
	Payload []byte
}

func newFakeRedis() *fakeRedis {
	return &fakeRedis{
		kv:       make(map[string]string),
		lists:    make(map[string][][]byte),
		expiries: make(map[string]time.Duration),
	}
}

func (f *fakeRedis) Ping(context.Context) error { return nil }

func (f *fakeRedis) Set(_ context.Context, key string, value interface{}, expiration time.Duration) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.setErr != nil {
		return f.setErr
	}
	f.kv[key] = string(value.([]byte))
	f.expiries[key] = expiration
	return nil
}

func (f *fakeRedis) Get(_ context.Context, key string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	v, ok := f.kv[key]
	if !ok {
		return "", goredis.Nil
	}
	return v, nil
}

func (f *fakeRedis) Del(_ context.Context, keys ...string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, k := range keys {
		delete(f.kv, k)
		delete(f.lists, k)
	}
	return nil
}

func (f *fakeRedis) Publish(_ context.Context, channel string, payload interface{}) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.publishErr != nil {
		return 0, f.publishErr
	}
	n := f.subscribers
	if len(f.publishQueue) > 0 {
		n = f.publishQueue[0]
		f.publishQueue = f.publishQueue[1:]
	}
	if n > 0 {
		f.published = append(f.published, fakeMessage{Channel: channel, Payload: payload.([]byte)})
	}
	return n, nil
}

func (f *fakeRedis) RPush(_ context.Context, key string, value interface{}) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.rpushErr != nil {
		return f.rpushErr
	}
	f.lists[key] = append(f.lists[key], value.([]byte))
	return nil
}

func (f *fakeRedis) Expire(_ context.Context, key string, expiration time.Duration) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.expiries[key] = expiration
	return nil
}

func (f *fakeRedis) Close() error { return nil }

func (f *fakeRedis) backlogLen(key string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.lists[key])
}

func (f *fakeRedis) publishedCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.published)
}

package kafka

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memReader struct {
	msgs chan kafka.Message

	mu        sync.Mutex
	committed []kafka.Message
	commitCh  chan struct{}
	closed    bool
}

func newMemReader(msgs ...kafka.Message) *memReader {
	r := &memReader{msgs: make(chan kafka.Message, len(msgs)), commitCh: make(chan struct{}, 16)}
	for _, m := range msgs {
		r.msgs <- m
	}
	return r
}

func (r *memReader) FetchMessage(ctx context.Context) (kafka.Message, error) {
	select {
	case m := <-r.msgs:
		return m, nil
	case <-ctx.Done():
		return kafka.Message{}, ctx.Err()
	}
}

func (r *memReader) CommitMessages(_ context.Context, msgs ...kafka.Message) error {
	r.mu.Lock()
	r.committed = append(r.committed, msgs...)
	r.mu.Unlock()
	r.commitCh <- struct{}{}
	return nil
}

func (r *memReader) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.closed = true
	return nil
}

func (r *memReader) offsets() []int64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []int64
	for _, m := range r.committed {
		out = append(out, m.Offset)
	}
	return out
}

func testConsumer(r reader, workers int) *Consumer {
	return &Consumer{r: r, workers: workers, backoff: time.Millisecond, maxBackoff: 4 * time.Millisecond}
}

func run(t *testing.T, c *Consumer, h Handler) (context.CancelFunc, <-chan error) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- c.Start(ctx, h) }()
	return cancel, done
}

func waitCommits(t *testing.T, r *memReader, n int) {
	t.Helper()
	for i := 0; i < n; i++ {
		select {
		case <-r.commitCh:
		case <-time.After(2 * time.Second):
			t.Fatalf("timed out waiting for commit %d, got %v", i+1, r.offsets())
		}
	}
}

func TestConsumer_RetriesFailedMessageBeforeCommittingNext(t *testing.T) {
	r := newMemReader(
		kafka.Message{Partition: 0, Offset: 9},
		kafka.Message{Partition: 0, Offset: 10},
	)

	var mu sync.Mutex
	var seen []int64
	failures := 2
	h := func(_ context.Context, m kafka.Message) error {
		mu.Lock()
		defer mu.Unlock()
		seen = append(seen, m.Offset)
		if m.Offset == 9 && failures > 0 {
			failures--
			return errors.New("db down")
		}
		return nil
	}

	cancel, done := run(t, testConsumer(r, 4), h)
	waitCommits(t, r, 2)
	cancel()
	require.NoError(t, <-done)

	assert.Equal(t, []int64{9, 10}, r.offsets())
	mu.Lock()
	assert.Equal(t, []int64{9, 9, 9, 10}, seen)
	mu.Unlock()
	assert.True(t, r.closed)
}

func TestConsumer_PartitionsCommitInOrder(t *testing.T) {
	var msgs []kafka.Message
	for p := 0; p < 3; p++ {
		for o := int64(0); o < 5; o++ {
			msgs = append(msgs, kafka.Message{Partition: p, Offset: o})
		}
	}
	r := newMemReader(msgs...)

	cancel, done := run(t, testConsumer(r, 2), func(context.Context, kafka.Message) error { return nil })
	waitCommits(t, r, len(msgs))
	cancel()
	require.NoError(t, <-done)

	r.mu.Lock()
	defer r.mu.Unlock()
	last := map[int]int64{0: -1, 1: -1, 2: -1}
	for _, m := range r.committed {
		assert.Greater(t, m.Offset, last[m.Partition], "partition %d", m.Partition)
		last[m.Partition] = m.Offset
	}
}

func TestConsumer_ShutdownLeavesFailingMessageUncommitted(t *testing.T) {
	r := newMemReader(kafka.Message{Partition: 0, Offset: 3})
	called := make(chan struct{}, 1)
	h := func(context.Context, kafka.Message) error {
		select {
		case called <- struct{}{}:
		default:
		}
		return errors.New("still failing")
	}

	cancel, done := run(t, testConsumer(r, 1), h)
	<-called
	cancel()
	require.NoError(t, <-done)
	assert.Empty(t, r.offsets())
}

package worker

import (
	"context"
	"errors"
	"fmt"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/rlmtrace/pkg/logger"
	"github.com/papercomputeco/rlmtrace/pkg/rlm"
	"github.com/papercomputeco/rlmtrace/pkg/storage"
	"github.com/papercomputeco/rlmtrace/pkg/storage/inmemory"
	testutils "github.com/papercomputeco/rlmtrace/pkg/utils/test"
)

// failingStore rejects every Put.
type failingStore struct {
	*inmemory.Store
}

func (failingStore) Put(context.Context, *rlm.Trace) error {
	return errors.New("disk full")
}

// newTestPool creates a worker pool backed by an in-memory store.
// Callers should "wp.Close()" to drain enqueued jobs before asserting storage state.
func newTestPool(store storage.TraceStore, pub *testutils.RecordingPublisher) *Pool {
	cfg := &Config{
		Store:  store,
		Logger: logger.Nop(),
		Now:    func() time.Time { return testutils.Epoch },
	}
	if pub != nil {
		cfg.Publisher = pub
	}

	wp, err := NewPool(cfg)
	Expect(err).NotTo(HaveOccurred())
	return wp
}

var _ = Describe("Worker Pool", func() {
	var (
		store *inmemory.Store
		pub   *testutils.RecordingPublisher
		ctx   context.Context
	)

	BeforeEach(func() {
		store = inmemory.NewStore()
		pub = &testutils.RecordingPublisher{}
		ctx = context.Background()
	})

	Describe("NewPool", func() {
		It("requires a store", func() {
			_, err := NewPool(&Config{})
			Expect(err).To(MatchError("trace store is required"))
		})

		It("applies defaults", func() {
			cfg := &Config{Store: store}
			wp, err := NewPool(cfg)
			Expect(err).NotTo(HaveOccurred())
			defer wp.Close()

			Expect(cfg.NumWorkers).To(Equal(defaultNumWorkers))
			Expect(cfg.QueueSize).To(Equal(defaultJobQueueSize))
			Expect(cfg.Now).NotTo(BeNil())
		})
	})

	Describe("Enqueue", func() {
		It("returns true when the queue has capacity", func() {
			wp := newTestPool(store, pub)
			ok := wp.Enqueue(Job{Trace: *testutils.NewTestTrace("t1", "doc.txt", testutils.Epoch, 1)})
			Expect(ok).To(BeTrue())
			wp.Close()
		})

		It("drops jobs when the queue is full", func() {
			// No workers are reading this queue.
			wp := &Pool{
				config: &Config{Store: store},
				queue:  make(chan Job, 1),
				logger: logger.Nop(),
			}
			Expect(wp.Enqueue(Job{})).To(BeTrue())
			Expect(wp.Enqueue(Job{})).To(BeFalse())
		})
	})

	Describe("processing", func() {
		It("stores and publishes every enqueued trace", func() {
			wp := newTestPool(store, pub)
			for i := range 5 {
				wp.EnqueueTrace(*testutils.NewTestTrace(fmt.Sprintf("t%d", i), "doc.txt", testutils.Epoch, 2))
			}
			wp.Close()

			traces, err := store.List(ctx, storage.TraceQuery{})
			Expect(err).NotTo(HaveOccurred())
			Expect(traces).To(HaveLen(5))

			events := pub.Events()
			Expect(events).To(HaveLen(5))
			for _, e := range events {
				Expect(e.EmittedAt).To(Equal(testutils.Epoch))
				Expect(e.Summary.TotalIterations).To(Equal(2))
			}
		})

		It("works without a publisher", func() {
			wp := newTestPool(store, nil)
			wp.EnqueueTrace(*testutils.NewTestTrace("t1", "doc.txt", testutils.Epoch, 1))
			wp.Close()

			_, err := store.Get(ctx, "t1")
			Expect(err).NotTo(HaveOccurred())
		})

		It("does not publish a trace that failed to store", func() {
			wp := newTestPool(failingStore{Store: store}, pub)
			wp.EnqueueTrace(*testutils.NewTestTrace("t1", "doc.txt", testutils.Epoch, 1))
			wp.Close()

			Expect(pub.Events()).To(BeEmpty())
		})

		It("keeps the stored trace when publishing fails", func() {
			pub.Err = errors.New("broker down")
			wp := newTestPool(store, pub)
			wp.EnqueueTrace(*testutils.NewTestTrace("t1", "doc.txt", testutils.Epoch, 1))
			wp.Close()

			_, err := store.Get(ctx, "t1")
			Expect(err).NotTo(HaveOccurred())
		})
	})

	Describe("Close", func() {
		It("can be called more than once", func() {
			wp := newTestPool(store, pub)
			wp.Close()
			Expect(wp.Close).NotTo(Panic())
		})
	})
})

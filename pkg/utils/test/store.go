package testutils

import (
	"context"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/rlmtrace/pkg/storage"
)

// DescribeTraceStore registers the behaviors every storage.TraceStore must
// have. newStore is called before each spec and must return an empty store.
func DescribeTraceStore(newStore func() storage.TraceStore) {
	var (
		store storage.TraceStore
		ctx   context.Context
		base  time.Time
	)

	BeforeEach(func() {
		ctx = context.Background()
		base = Epoch
		store = newStore()
	})

	AfterEach(func() {
		if store != nil {
			Expect(store.Close()).To(Succeed())
		}
	})

	Describe("Put and Get", func() {
		It("round-trips a trace", func() {
			trace := NewTestTrace("t1", "doc.txt", base, 3)
			Expect(store.Put(ctx, trace)).To(Succeed())

			got, err := store.Get(ctx, "t1")
			Expect(err).NotTo(HaveOccurred())
			Expect(got.ID).To(Equal("t1"))
			Expect(got.FileName).To(Equal("doc.txt"))
			Expect(got.Question).To(Equal(trace.Question))
			Expect(got.CreatedAt.Equal(trace.CreatedAt)).To(BeTrue())
			Expect(got.Iterations).To(HaveLen(3))
			Expect(got.Metadata).To(Equal(trace.Metadata))
			Expect(got.Iterations[2].FinalAnswer.Tuple).To(BeTrue())
			Expect(*got.Metadata.FinalAnswer).To(Equal("42"))
		})

		It("replaces a trace stored under the same ID", func() {
			Expect(store.Put(ctx, NewTestTrace("t1", "a.txt", base, 1))).To(Succeed())
			Expect(store.Put(ctx, NewTestTrace("t1", "b.txt", base, 2))).To(Succeed())

			got, err := store.Get(ctx, "t1")
			Expect(err).NotTo(HaveOccurred())
			Expect(got.FileName).To(Equal("b.txt"))
			Expect(got.Iterations).To(HaveLen(2))
		})

		It("rejects a nil trace", func() {
			Expect(store.Put(ctx, nil)).To(MatchError(storage.ErrNilTrace))
		})

		It("returns NotFoundError for a missing trace", func() {
			_, err := store.Get(ctx, "missing")
			var notFound storage.NotFoundError
			Expect(err).To(BeAssignableToTypeOf(notFound))
			Expect(err.Error()).To(ContainSubstring("missing"))
		})
	})

	Describe("List", func() {
		BeforeEach(func() {
			for i, name := range []string{"a.txt", "b.txt", "a.txt", "c.txt"} {
				trace := NewTestTrace(string(rune('w'+i)), name, base.Add(time.Duration(i)*time.Minute), 1)
				Expect(store.Put(ctx, trace)).To(Succeed())
			}
		})

		ids := func(q storage.TraceQuery) []string {
			traces, err := store.List(ctx, q)
			ExpectWithOffset(1, err).NotTo(HaveOccurred())
			out := make([]string, len(traces))
			for i, t := range traces {
				out[i] = t.ID
			}
			return out
		}

		It("returns traces newest first", func() {
			Expect(ids(storage.TraceQuery{})).To(Equal([]string{"z", "y", "x", "w"}))
		})

		It("filters by file name", func() {
			Expect(ids(storage.TraceQuery{FileName: "a.txt"})).To(Equal([]string{"y", "w"}))
		})

		It("pages with offset and limit", func() {
			Expect(ids(storage.TraceQuery{Limit: 2})).To(Equal([]string{"z", "y"}))
			Expect(ids(storage.TraceQuery{Offset: 1, Limit: 2})).To(Equal([]string{"y", "x"}))
			Expect(ids(storage.TraceQuery{Offset: 3})).To(Equal([]string{"w"}))
			Expect(ids(storage.TraceQuery{Offset: 10})).To(BeEmpty())
		})
	})

	Describe("Delete", func() {
		It("removes a trace", func() {
			Expect(store.Put(ctx, NewTestTrace("t1", "doc.txt", base, 1))).To(Succeed())
			Expect(store.Delete(ctx, "t1")).To(Succeed())

			_, err := store.Get(ctx, "t1")
			Expect(err).To(HaveOccurred())

			var notFound storage.NotFoundError
			Expect(store.Delete(ctx, "t1")).To(BeAssignableToTypeOf(notFound))
		})
	})
}

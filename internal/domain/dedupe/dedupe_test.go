package dedupe_test

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"

	dedupe "github.com/sahajlabs/mudra/internal/domain/dedupe"
)

func TestInMemoryDeduper(t *testing.T) {
	Convey("Given a new InMemoryDeduper", t, func() {
		ctx := context.Background()

		Convey("When recording request ids", func() {
			d := dedupe.NewInMemoryDeduper()

			Convey("A new id is recorded and reported unseen", func() {
				So(d.SeenAndRecord(ctx, "req-1"), ShouldBeFalse)
				So(d.Size(), ShouldEqual, 1)
			})

			Convey("A repeated id is reported seen", func() {
				d.SeenAndRecord(ctx, "req-1")
				So(d.SeenAndRecord(ctx, "req-1"), ShouldBeTrue)
				So(d.Size(), ShouldEqual, 1)
			})
		})

		Convey("When unrecording an id", func() {
			d := dedupe.NewInMemoryDeduper()
			d.SeenAndRecord(ctx, "req-1")
			d.Unrecord(ctx, "req-1")

			Convey("Then it can be applied again", func() {
				So(d.Size(), ShouldEqual, 0)
				So(d.SeenAndRecord(ctx, "req-1"), ShouldBeFalse)
			})
		})

		Convey("When the size bound is reached", func() {
			d := dedupe.NewInMemoryDeduper(dedupe.WithMaxSize(3))
			d.SeenAndRecord(ctx, "req-1")
			d.SeenAndRecord(ctx, "req-2")
			d.SeenAndRecord(ctx, "req-3")
			d.SeenAndRecord(ctx, "req-4")

			Convey("Then the oldest entry is evicted first", func() {
				So(d.Size(), ShouldEqual, 3)
				So(d.SeenAndRecord(ctx, "req-1"), ShouldBeFalse) // evicted, so unseen again
				So(d.SeenAndRecord(ctx, "req-4"), ShouldBeTrue)
			})
		})

		Convey("When entries age past the window", func() {
			now := time.Unix(1_700_000_000, 0)
			var mu sync.Mutex
			clock := func() time.Time {
				mu.Lock()
				defer mu.Unlock()
				return now
			}
			d := dedupe.NewInMemoryDeduper(
				dedupe.WithWindow(10*time.Minute),
				dedupe.WithClock(clock),
			)

			d.SeenAndRecord(ctx, "req-1")

			mu.Lock()
			now = now.Add(11 * time.Minute)
			mu.Unlock()

			Convey("Then the expired id is treated as unseen", func() {
				So(d.SeenAndRecord(ctx, "req-1"), ShouldBeFalse)
				So(d.Size(), ShouldEqual, 1)
			})
		})

		Convey("When accessed concurrently", func() {
			d := dedupe.NewInMemoryDeduper()
			const goroutines = 16
			var seenCount int64
			var mu sync.Mutex
			var wg sync.WaitGroup
			for g := 0; g < goroutines; g++ {
				wg.Add(1)
				go func() {
					defer wg.Done()
					for i := 0; i < 100; i++ {
						if d.SeenAndRecord(ctx, fmt.Sprintf("req-%d", i)) {
							mu.Lock()
							seenCount++
							mu.Unlock()
						}
					}
				}()
			}
			wg.Wait()

			Convey("Then each id is recorded exactly once", func() {
				So(d.Size(), ShouldEqual, 100)
				So(seenCount, ShouldEqual, int64((goroutines-1)*100))
			})
		})
	})
}

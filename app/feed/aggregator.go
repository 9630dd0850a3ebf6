package feed

import (
	"context"
	"log/slog"
	"math/rand"
	"sync"

	"github.com/toutvamal/newsroom/app/database"
)

// Aggregator merges items from every active source into one pool. Sources
// are fetched concurrently; a failing source only loses its own slice of
// the pool, never anyone else's.
type Aggregator struct {
	fetcher *Fetcher
}

func NewAggregator(fetcher *Fetcher) *Aggregator {
	return &Aggregator{fetcher: fetcher}
}

// FetchAll fetches all sources and returns the merged items in random
// order, to avoid source-ordering bias in downstream selection. Per-source
// failures are logged and isolated.
func (a *Aggregator) FetchAll(ctx context.Context, sources []database.RssSource) []Item {
	var mu sync.Mutex
	var all []Item
	var wg sync.WaitGroup

	for _, source := range sources {
		wg.Add(1)
		go func(source database.RssSource) {
			defer wg.Done()

			items, err := a.fetcher.Fetch(ctx, source.URL, source.Name)
			if err != nil {
				slog.Warn("Feed fetch failed", "source", source.Name, "url", source.URL, "error", err)
				return
			}

			mu.Lock()
			all = append(all, items...)
			mu.Unlock()
		}(source)
	}

	wg.Wait()

	rand.Shuffle(len(all), func(i, j int) {
		all[i], all[j] = all[j], all[i]
	})

	return all
}

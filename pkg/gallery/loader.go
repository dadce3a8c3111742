// Package gallery pages through the Geoplets gallery of the backend.
package gallery

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/geoplet/backend/internal/model"
	"github.com/geoplet/backend/pkg/api"
	"github.com/geoplet/backend/pkg/xcontext"
	"github.com/puzpuzpuz/xsync/v2"
)

const DefaultCacheTTL = 5 * time.Minute

type cachedPage struct {
	page      model.GetGalleryResponse
	expiredAt time.Time
}

type Loader struct {
	generator api.Generator
	pageSize  int
	ttl       time.Duration
	now       func() time.Time
	cache     *xsync.MapOf[string, cachedPage]

	inFlight atomic.Bool

	mutex        sync.Mutex
	items        []model.NFT
	seen         map[string]struct{}
	continuation string
	done         bool

	// generation is bumped by Reset, pages of an older one are discarded.
	generation uint64
}

func NewLoader(serverURL string, pageSize int) *Loader {
	return &Loader{
		generator: api.NewGenerator(serverURL),
		pageSize:  pageSize,
		ttl:       DefaultCacheTTL,
		now:       time.Now,
		cache:     xsync.NewMapOf[cachedPage](),
		seen:      make(map[string]struct{}),
	}
}

func (l *Loader) WithClock(now func() time.Time) *Loader {
	l.now = now
	return l
}

func (l *Loader) WithCacheTTL(ttl time.Duration) *Loader {
	l.ttl = ttl
	return l
}

// LoadMore fetches the next page and appends its new items. It returns the
// number of appended items, and does nothing while another call is in flight
// or once the last page was loaded.
func (l *Loader) LoadMore(ctx context.Context) (int, error) {
	if !l.inFlight.CompareAndSwap(false, true) {
		return 0, nil
	}
	defer l.inFlight.Store(false)

	l.mutex.Lock()
	done, continuation, generation := l.done, l.continuation, l.generation
	l.mutex.Unlock()

	if done {
		return 0, nil
	}

	page, err := l.fetch(ctx, continuation)
	if err != nil {
		return 0, err
	}

	l.mutex.Lock()
	defer l.mutex.Unlock()

	if l.generation != generation {
		return 0, nil
	}

	added := 0
	for _, item := range page.Items {
		if _, ok := l.seen[item.TokenID]; ok {
			continue
		}

		l.seen[item.TokenID] = struct{}{}
		l.items = append(l.items, item)
		added++
	}

	l.continuation = page.Continuation
	l.done = page.Continuation == ""
	return added, nil
}

func (l *Loader) Items() []model.NFT {
	l.mutex.Lock()
	defer l.mutex.Unlock()

	items := make([]model.NFT, len(l.items))
	copy(items, l.items)
	return items
}

func (l *Loader) HasMore() bool {
	l.mutex.Lock()
	defer l.mutex.Unlock()
	return !l.done
}

// Reset starts again from the first page. Cached pages are kept, a page
// still in flight is dropped.
func (l *Loader) Reset() {
	l.mutex.Lock()
	defer l.mutex.Unlock()

	l.generation++
	l.items = nil
	l.seen = make(map[string]struct{})
	l.continuation = ""
	l.done = false
}

func (l *Loader) fetch(ctx context.Context, continuation string) (*model.GetGalleryResponse, error) {
	query := api.Parameter{"size": strconv.Itoa(l.pageSize)}
	if continuation != "" {
		query["continuation"] = continuation
	}

	key := "/getGallery?" + query.Encode()
	if cached, ok := l.cache.Load(key); ok && l.now().Before(cached.expiredAt) {
		return &cached.page, nil
	}

	resp, err := l.generator.New("/getGallery").Query(query).GET(ctx)
	if err != nil {
		return nil, err
	}

	var env struct {
		Code  int64                    `json:"code"`
		Error string                   `json:"error"`
		Data  model.GetGalleryResponse `json:"data"`
	}
	if err := json.Unmarshal(resp.RawBody, &env); err != nil {
		return nil, fmt.Errorf("invalid gallery response (status %d): %w", resp.Code, err)
	}

	if !resp.IsSuccess() || env.Code != 0 {
		xcontext.Logger(ctx).Warnf("Gallery page %s failed: %d %s", key, env.Code, env.Error)
		return nil, fmt.Errorf("gallery responded %d: %s", resp.Code, env.Error)
	}

	l.cache.Store(key, cachedPage{page: env.Data, expiredAt: l.now().Add(l.ttl)})
	return &env.Data, nil
}

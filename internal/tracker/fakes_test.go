package tracker

import (
	"context"
	"sync"

	"fetcharr/internal/media"
	"fetcharr/internal/services"
)

// fakeCatalog is an in-memory CatalogClient recording every call.
type fakeCatalog struct {
	mu sync.Mutex

	searchResults []media.CatalogItem
	searchErr     error
	searchCalls   []string

	byID     map[int64]media.CatalogItem
	getErr   error
	getCalls []int64

	addErr    error
	addResult *media.CatalogItem
	addCalls  []addCall

	freeTB  float64
	freeErr error
}

type addCall struct {
	item        media.CatalogItem
	downloadNow bool
}

func newFakeCatalog() *fakeCatalog {
	return &fakeCatalog{freeTB: 5.0, byID: make(map[int64]media.CatalogItem)}
}

func (f *fakeCatalog) Search(_ context.Context, query string, _ bool) ([]media.CatalogItem, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.searchCalls = append(f.searchCalls, query)
	if f.searchErr != nil {
		return nil, f.searchErr
	}
	return f.searchResults, nil
}

func (f *fakeCatalog) GetByID(_ context.Context, id int64) (media.CatalogItem, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.getCalls = append(f.getCalls, id)
	if f.getErr != nil {
		return media.CatalogItem{}, f.getErr
	}
	item, ok := f.byID[id]
	if !ok {
		return media.CatalogItem{}, &services.StatusError{Service: "fake", Code: 404}
	}
	return item, nil
}

func (f *fakeCatalog) Add(_ context.Context, item media.CatalogItem, downloadNow bool) (media.CatalogItem, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.addCalls = append(f.addCalls, addCall{item: item, downloadNow: downloadNow})
	if f.addErr != nil {
		return media.CatalogItem{}, f.addErr
	}
	if f.addResult != nil {
		return *f.addResult, nil
	}
	added := item
	added.ServiceID = int64(100 + len(f.addCalls))
	added.Monitored = true
	return added, nil
}

func (f *fakeCatalog) FreeSpace(_ context.Context) (float64, error) {
	if f.freeErr != nil {
		return 0, f.freeErr
	}
	return f.freeTB, nil
}

// fakeNotifier records delivered messages.
type fakeNotifier struct {
	mu       sync.Mutex
	err      error
	messages []notification
}

type notification struct {
	userID int64
	text   string
}

func (f *fakeNotifier) Notify(_ context.Context, userID int64, text string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.messages = append(f.messages, notification{userID: userID, text: text})
	return nil
}

func (f *fakeNotifier) sent() []notification {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]notification, len(f.messages))
	copy(out, f.messages)
	return out
}

func movieCandidate(title string, year int, tmdbID int64) media.CatalogItem {
	return media.CatalogItem{Title: title, Year: year, TMDBID: tmdbID}
}

func showCandidate(title string, year int, tvdbID int64) media.CatalogItem {
	return media.CatalogItem{Title: title, Year: year, TVDBID: tvdbID}
}

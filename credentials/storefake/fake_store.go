package storefake

import (
	"context"
	"sync"

	"github.com/jrsteele09/go-pricetracker-client/credentials"
)

var _ credentials.Store = (*FakeStore)(nil)

// FakeStore is an in-memory store that counts calls and can be told to fail
type FakeStore struct {
	lock sync.Mutex
	pair *credentials.Pair

	LoadErr  error
	SaveErr  error
	ClearErr error

	Saves  int
	Clears int
}

func NewFakeStore() *FakeStore {
	return &FakeStore{}
}

// NewFakeStoreWith returns a store already holding pair
func NewFakeStoreWith(pair credentials.Pair) *FakeStore {
	return &FakeStore{pair: &pair}
}

func (fs *FakeStore) Load(_ context.Context) (*credentials.Pair, error) {
	fs.lock.Lock()
	defer fs.lock.Unlock()
	if fs.LoadErr != nil {
		return nil, fs.LoadErr
	}
	if fs.pair == nil {
		return nil, nil
	}
	p := *fs.pair
	return &p, nil
}

func (fs *FakeStore) Save(_ context.Context, pair credentials.Pair) error {
	fs.lock.Lock()
	defer fs.lock.Unlock()
	fs.Saves++
	if fs.SaveErr != nil {
		return fs.SaveErr
	}
	fs.pair = &pair
	return nil
}

func (fs *FakeStore) Clear(_ context.Context) error {
	fs.lock.Lock()
	defer fs.lock.Unlock()
	fs.Clears++
	if fs.ClearErr != nil {
		return fs.ClearErr
	}
	fs.pair = nil
	return nil
}

// Stored returns what a fresh Load would see, ignoring LoadErr
func (fs *FakeStore) Stored() (credentials.Pair, bool) {
	fs.lock.Lock()
	defer fs.lock.Unlock()
	if fs.pair == nil {
		return credentials.Pair{}, false
	}
	return *fs.pair, true
}

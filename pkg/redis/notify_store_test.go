package redis

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
)

func setupMiniredis(t *testing.T) *miniredis.Miniredis {
	t.Helper()
	mr := miniredis.RunT(t)
	SetClient(goredis.NewClient(&goredis.Options{Addr: mr.Addr()}))
	return mr
}

func TestNotifyStoreSaveLoadDelete(t *testing.T) {
	setupMiniredis(t)
	store := NewNotifyStore(time.Hour)
	ctx := context.Background()

	urls := &NotifyURLs{
		NotifyURL: "https://merchant.example/notify",
		ReturnURL: "https://merchant.example/return",
	}
	assert.NoError(t, store.Save(ctx, 101, urls))

	loaded, err := store.Load(ctx, 101)
	assert.NoError(t, err)
	assert.Equal(t, urls.NotifyURL, loaded.NotifyURL)
	assert.Equal(t, urls.ReturnURL, loaded.ReturnURL)

	assert.NoError(t, store.Delete(ctx, 101))
	loaded, err = store.Load(ctx, 101)
	assert.NoError(t, err)
	assert.Nil(t, loaded)
}

func TestNotifyStoreLoadMissingOrder(t *testing.T) {
	setupMiniredis(t)
	store := NewNotifyStore(time.Hour)

	loaded, err := store.Load(context.Background(), 999)
	assert.NoError(t, err)
	assert.Nil(t, loaded)
}

func TestNotifyStoreEntriesExpire(t *testing.T) {
	mr := setupMiniredis(t)
	store := NewNotifyStore(time.Minute)
	ctx := context.Background()

	assert.NoError(t, store.Save(ctx, 101, &NotifyURLs{NotifyURL: "https://merchant.example/notify"}))
	mr.FastForward(2 * time.Minute)

	loaded, err := store.Load(ctx, 101)
	assert.NoError(t, err)
	assert.Nil(t, loaded)
}

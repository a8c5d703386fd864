package history

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRedisStore(t *testing.T) (*RedisStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewRedisStore(client), mr
}

func stores(t *testing.T) map[string]Store {
	rs, _ := newRedisStore(t)
	return map[string]Store{
		"memory": NewMemoryStore(),
		"redis":  rs,
	}
}

func TestStoreAppendReadAll(t *testing.T) {
	ts := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	first := Entry{Timestamp: ts, Ailment: "headache", Remedy: "Peppermint Tea", Category: "tea", SustainabilityScore: 4.5}
	second := Entry{Timestamp: ts.Add(time.Hour), Ailment: "stress", Remedy: "Chamomile Tea", Category: "tea", WeatherAdjusted: true}

	for name, s := range stores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			entries, err := s.ReadAll(ctx, "alice")
			require.NoError(t, err)
			assert.Empty(t, entries)

			require.NoError(t, s.Append(ctx, "alice", first))
			require.NoError(t, s.Append(ctx, "alice", second))
			require.NoError(t, s.Append(ctx, "bob", first))

			entries, err = s.ReadAll(ctx, "alice")
			require.NoError(t, err)
			require.Len(t, entries, 2)
			assert.True(t, first.Timestamp.Equal(entries[0].Timestamp))
			assert.Equal(t, first.Ailment, entries[0].Ailment)
			assert.Equal(t, second.Remedy, entries[1].Remedy)
			assert.True(t, entries[1].WeatherAdjusted)

			entries, err = s.ReadAll(ctx, "bob")
			require.NoError(t, err)
			assert.Len(t, entries, 1)
		})
	}
}

func TestStorePreferences(t *testing.T) {
	for name, s := range stores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			prefs, err := s.LoadPreferences(ctx, "alice")
			require.NoError(t, err)
			assert.Equal(t, DefaultPreferences(), prefs)

			want := Preferences{
				Language:            "fr",
				PreferredCategory:   "tea",
				DietaryRestrictions: []string{"vegan"},
				SustainabilityFocus: true,
			}
			require.NoError(t, s.SavePreferences(ctx, "alice", want))

			got, err := s.LoadPreferences(ctx, "alice")
			require.NoError(t, err)
			assert.Equal(t, want, got)
		})
	}
}

func TestStoreConcurrentAppend(t *testing.T) {
	for name, s := range stores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			var wg sync.WaitGroup
			for i := 0; i < 20; i++ {
				wg.Add(1)
				go func() {
					defer wg.Done()
					assert.NoError(t, s.Append(ctx, "carol", Entry{Ailment: "tired"}))
				}()
			}
			wg.Wait()

			entries, err := s.ReadAll(ctx, "carol")
			require.NoError(t, err)
			assert.Len(t, entries, 20)
		})
	}
}

func TestRedisStoreSkipsCorruptEntries(t *testing.T) {
	s, mr := newRedisStore(t)
	ctx := context.Background()

	require.NoError(t, s.Append(ctx, "dave", Entry{Ailment: "cough"}))
	_, err := mr.Push(historyKey("dave"), "{broken")
	require.NoError(t, err)

	entries, err := s.ReadAll(ctx, "dave")
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "cough", entries[0].Ailment)
}

func TestRedisStoreUnavailable(t *testing.T) {
	client := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 100 * time.Millisecond,
		MaxRetries:  -1,
	})
	t.Cleanup(func() { _ = client.Close() })
	s := NewRedisStore(client)

	err := s.Append(context.Background(), "erin", Entry{Ailment: "cold"})
	assert.Error(t, err)

	_, err = s.ReadAll(context.Background(), "erin")
	assert.Error(t, err)
}

package ratelimit

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
	_ "modernc.org/sqlite"
)

func setupGormStore(t *testing.T) Store {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	dsn := fmt.Sprintf("file:ratelimit_%s?mode=memory&cache=shared", name)
	db, err := gorm.Open(sqlite.New(sqlite.Config{DriverName: "sqlite", DSN: dsn}), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&Entry{}))
	return NewGormStore(db)
}

func setupRedisStore(t *testing.T) Store {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewRedisStore(client)
}

func TestStores(t *testing.T) {
	stores := map[string]func(t *testing.T) Store{
		"gorm":  setupGormStore,
		"redis": setupRedisStore,
	}

	for name, setup := range stores {
		t.Run(name, func(t *testing.T) {
			store := setup(t)
			ctx := context.Background()
			now := time.Date(2026, 10, 14, 12, 0, 0, 0, time.UTC)

			require.NoError(t, store.Record(ctx, "1.2.3.4", "leads-submit", now.Add(-2*time.Hour)))
			require.NoError(t, store.Record(ctx, "1.2.3.4", "leads-submit", now.Add(-20*time.Minute)))
			require.NoError(t, store.Record(ctx, "1.2.3.4", "leads-submit", now.Add(-5*time.Minute)))
			require.NoError(t, store.Record(ctx, "1.2.3.4", "leads-submit", now))
			require.NoError(t, store.Record(ctx, "1.2.3.4", "upload-lead-photo", now))
			require.NoError(t, store.Record(ctx, "5.6.7.8", "leads-submit", now))

			n, err := store.Count(ctx, "1.2.3.4", "leads-submit", now.Add(-Window))
			require.NoError(t, err)
			assert.Equal(t, 2, n)

			n, err = store.Count(ctx, "9.9.9.9", "leads-submit", now.Add(-Window))
			require.NoError(t, err)
			assert.Zero(t, n)

			removed, err := store.Cleanup(ctx, now.Add(-Retention))
			require.NoError(t, err)
			assert.EqualValues(t, 1, removed)

			n, err = store.Count(ctx, "1.2.3.4", "leads-submit", time.Time{})
			require.NoError(t, err)
			assert.Equal(t, 3, n)
		})
	}
}

package database

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"topglass/internal/domain/lead"
)

func TestIsPostgres(t *testing.T) {
	assert.True(t, IsPostgres("postgres://u:p@localhost:5432/topglass"))
	assert.True(t, IsPostgres("postgresql://localhost/topglass"))
	assert.False(t, IsPostgres("topglass.db"))
}

func TestConnectAndMigrate(t *testing.T) {
	db, err := Connect(filepath.Join(t.TempDir(), "topglass.db"), nil)
	require.NoError(t, err)
	require.NoError(t, Migrate(db))

	for _, table := range []string{"leads", "rate_limits", "uploads", "notification_deliveries", "admin_users"} {
		assert.True(t, db.Migrator().HasTable(table), table)
	}
	assert.True(t, db.Migrator().HasColumn(&lead.Lead{}, "attachments"))
}

package backend

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/albapepper/petcare-telemetry/internal/config"
	"github.com/albapepper/petcare-telemetry/internal/sqlitedb"
)

func TestOpen_SQLite(t *testing.T) {
	cfg := &config.Config{
		StoreDriver: config.DriverSQLite,
		SQLitePath:  filepath.Join(t.TempDir(), "nested", "pet.db"),
	}

	st, err := Open(context.Background(), cfg)
	require.NoError(t, err)
	defer st.Close()

	assert.IsType(t, &sqlitedb.Service{}, st)
	assert.NoError(t, st.Ping(context.Background()))
}

func TestOpen_UnknownDriver(t *testing.T) {
	_, err := Open(context.Background(), &config.Config{StoreDriver: "mongo"})
	assert.ErrorContains(t, err, `unknown store driver "mongo"`)
}

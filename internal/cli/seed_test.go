package cli

import (
	"path/filepath"
	"testing"

	"github.com/atomichabits/internal/db"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSeedCmdCreatesValidHabits(t *testing.T) {
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "habits.db")
	t.Setenv("DATABASE_PATH", dbPath)
	t.Setenv("LOG_DIR", filepath.Join(dir, "logs"))
	t.Setenv("UPLOAD_DIR", filepath.Join(dir, "media"))

	require.NoError(t, (&SeedCmd{Users: 2}).Run(&Context{}))
	// 再次执行应直接跳过
	require.NoError(t, (&SeedCmd{Users: 2}).Run(&Context{}))

	require.NoError(t, db.Init(dbPath))
	defer db.Close()

	var users, habits, linked int64
	db.DB.Model(&db.User{}).Count(&users)
	db.DB.Model(&db.Habit{}).Count(&habits)
	db.DB.Model(&db.Habit{}).Where("associated_habit_id IS NOT NULL").Count(&linked)

	assert.Equal(t, int64(2), users)
	assert.Equal(t, int64(2*len(demoHabits)), habits)
	assert.Equal(t, int64(4), linked)
}

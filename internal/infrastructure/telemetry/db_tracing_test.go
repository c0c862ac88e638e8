package telemetry

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

type tracedCourse struct {
	ID   uint   `gorm:"primaryKey"`
	Code string `gorm:"size:50"`
	Name string `gorm:"size:200"`
}

func newTracedDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&tracedCourse{}))
	return db
}

func TestDBTracingPlugin_Disabled(t *testing.T) {
	db := newTracedDB(t)
	plugin := NewDBTracingPlugin(DBTracingConfig{Enabled: false}, zap.NewNop())

	require.NoError(t, plugin.RegisterOtelGorm(db))

	// Queries keep working with nothing registered
	assert.NoError(t, db.Create(&tracedCourse{Code: "WLD-01", Name: "Welding"}).Error)
}

func TestDBTracingPlugin_Register(t *testing.T) {
	db := newTracedDB(t)
	plugin := NewDBTracingPlugin(DBTracingConfig{
		Enabled:          true,
		SlowQueryThresh:  200 * time.Millisecond,
		DBSystem:         "sqlite",
		WithoutVariables: true,
	}, zap.NewNop())

	require.NoError(t, plugin.RegisterOtelGorm(db))

	t.Run("registering twice fails on duplicate callbacks", func(t *testing.T) {
		assert.Error(t, plugin.RegisterOtelGorm(db))
	})

	t.Run("queries run with the callbacks attached", func(t *testing.T) {
		require.NoError(t, db.Create(&tracedCourse{Code: "ELE-02", Name: "Electrics"}).Error)

		var got tracedCourse
		require.NoError(t, db.Where("code = ?", "ELE-02").First(&got).Error)
		assert.Equal(t, "Electrics", got.Name)
	})
}

func TestNewDBTracingPlugin_DefaultsThreshold(t *testing.T) {
	plugin := NewDBTracingPlugin(DBTracingConfig{Enabled: true}, zap.NewNop())
	assert.Equal(t, 200*time.Millisecond, plugin.config.SlowQueryThresh)
}

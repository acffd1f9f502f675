package repository

import (
	"path/filepath"
	"testing"

	"github.com/user/filmbox/internal/model"
	"github.com/user/filmbox/internal/utils"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// setupTestDB 为每个测试创建独立的 sqlite 数据库
func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dbPath := filepath.Join(t.TempDir(), "test.db")
	db, err := gorm.Open(sqlite.Open(dbPath), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("打开测试数据库失败: %v", err)
	}

	if err := db.AutoMigrate(
		&model.User{},
		&model.SavedMovie{},
		&model.SearchMetric{},
		&model.SearchLog{},
	); err != nil {
		t.Fatalf("迁移测试数据库失败: %v", err)
	}

	utils.InitCache()

	return db
}

func snapshot(id int, title string) *model.MovieSnapshot {
	return &model.MovieSnapshot{
		ID:          id,
		Title:       title,
		PosterPath:  "/poster.jpg",
		Overview:    "overview",
		ReleaseDate: "2024-01-01",
		VoteAverage: 7.5,
		VoteCount:   100,
	}
}

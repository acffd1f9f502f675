package repository

import (
	"fmt"

	"github.com/user/filmbox/internal/model"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// InitDB 初始化数据库连接
func InitDB(databaseURL string) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(databaseURL), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("无法连接数据库: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}

	// 测试连接
	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("数据库 ping 失败: %w", err)
	}

	// 设置连接池
	sqlDB.SetMaxOpenConns(25)
	sqlDB.SetMaxIdleConns(5)

	// 自动迁移
	if err := db.AutoMigrate(
		&model.User{},
		&model.SavedMovie{},
		&model.SearchMetric{},
		&model.SearchLog{},
	); err != nil {
		return nil, fmt.Errorf("数据库迁移失败: %w", err)
	}

	return db, nil
}

// Repositories 仓库集合
type Repositories struct {
	DB           *gorm.DB
	User         *UserRepository
	SavedMovie   *SavedMovieRepository
	SearchMetric *SearchMetricRepository
}

// NewRepositories 创建仓库集合
func NewRepositories(db *gorm.DB, savedSkipCorrupt bool) *Repositories {
	return &Repositories{
		DB:           db,
		User:         NewUserRepository(db),
		SavedMovie:   NewSavedMovieRepository(db, savedSkipCorrupt),
		SearchMetric: NewSearchMetricRepository(db),
	}
}

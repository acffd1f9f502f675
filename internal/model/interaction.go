package model

import (
	"time"
)

// SavedMovie 收藏记录
// (user_id, movie_id) 组合索引不加唯一约束，去重靠仓库层先查后建，
// 并发下可能出现重复记录（调用方需在界面层对同一影片串行化操作）
type SavedMovie struct {
	ID        int       `json:"saved_id" db:"id"`
	UserID    int       `json:"user_id" db:"user_id" gorm:"index:idx_saved_user_movie"`
	MovieID   int       `json:"movie_id" db:"movie_id" gorm:"index:idx_saved_user_movie"`
	MovieData string    `json:"-" db:"movie_data"`
	CreatedAt time.Time `json:"saved_at" db:"created_at" gorm:"index"`

	// 反序列化后的快照，查询时由仓库层填充
	Movie *MovieSnapshot `json:"movie,omitempty" gorm:"-"`
}

// SearchMetric 搜索热度统计，每个搜索词一条
// movie_id/title/poster_url 始终反映最近一次搜索的第一个结果，count 只增不减
type SearchMetric struct {
	SearchTerm     string    `json:"search_term" db:"search_term" gorm:"primaryKey"`
	MovieID        int       `json:"movie_id" db:"movie_id"`
	Title          string    `json:"title" db:"title"`
	PosterURL      string    `json:"poster_url" db:"poster_url"`
	Count          int       `json:"count" db:"count"`
	LastSearchedAt time.Time `json:"last_searched_at" db:"last_searched_at"`
}

// SearchLog 原始搜索日志
type SearchLog struct {
	ID        int       `json:"id" db:"id"`
	Keyword   string    `json:"keyword" db:"keyword"`
	UserID    *int      `json:"user_id" db:"user_id"`
	IPHash    string    `json:"ip_hash" db:"ip_hash"`
	CreatedAt time.Time `json:"created_at" db:"created_at" gorm:"index"`
}

package repository

import (
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/user/filmbox/internal/model"
	"github.com/user/filmbox/internal/utils"
	"gorm.io/gorm"
)

const posterBaseURL = "https://image.tmdb.org/t/p/w500"

type SearchMetricRepository struct {
	db *gorm.DB
}

func NewSearchMetricRepository(db *gorm.DB) *SearchMetricRepository {
	return &SearchMetricRepository{db: db}
}

// Record 记录一次有结果的搜索
// 已有统计则 count+1 并用本次第一个结果覆盖快照字段，否则新建 count=1
// 搜索词精确匹配、区分大小写；同词并发调用存在丢失更新的可能（无事务锁，已接受）
func (r *SearchMetricRepository) Record(term string, topResult *model.Movie) error {
	if term == "" || topResult == nil {
		return fmt.Errorf("%w: 搜索词和首个结果不能为空", ErrInvalidArgument)
	}

	var metric model.SearchMetric
	err := r.db.Where("search_term = ?", term).First(&metric).Error
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("查询搜索统计失败: %w", err)
	}

	now := time.Now()
	if errors.Is(err, gorm.ErrRecordNotFound) {
		metric = model.SearchMetric{
			SearchTerm:     term,
			MovieID:        topResult.ID,
			Title:          topResult.Title,
			PosterURL:      posterBaseURL + topResult.PosterPath,
			Count:          1,
			LastSearchedAt: now,
		}
		if err := r.db.Create(&metric).Error; err != nil {
			return fmt.Errorf("创建搜索统计失败: %w", err)
		}
		return nil
	}

	updates := map[string]interface{}{
		"count":            metric.Count + 1,
		"movie_id":         topResult.ID,
		"title":            topResult.Title,
		"poster_url":       posterBaseURL + topResult.PosterPath,
		"last_searched_at": now,
	}
	if err := r.db.Model(&model.SearchMetric{}).
		Where("search_term = ?", term).
		Updates(updates).Error; err != nil {
		return fmt.Errorf("更新搜索统计失败: %w", err)
	}

	return nil
}

// Log 记录原始搜索日志
func (r *SearchMetricRepository) Log(keyword string, userID *int, ipHash string) error {
	entry := &model.SearchLog{
		Keyword:   keyword,
		UserID:    userID,
		IPHash:    ipHash,
		CreatedAt: time.Now(),
	}
	return r.db.Create(entry).Error
}

// Trending 获取热搜榜，按 count 倒序
// 正常返回非 nil 切片（可能为空）；存储层出错时降级返回 nil 哨兵值而不是错误，
// 调用方据此区分「没有热搜」和「热搜不可用」。count 相同时顺序由数据库决定
func (r *SearchMetricRepository) Trending(limit int) []*model.SearchMetric {
	if limit <= 0 {
		limit = 5
	}

	// 1. 检查缓存
	cacheKey := fmt.Sprintf("trending:%d", limit)
	if cached, found := utils.CacheGet(cacheKey); found {
		if metrics, ok := cached.([]*model.SearchMetric); ok {
			return metrics
		}
	}

	// 2. 从数据库获取
	metrics := make([]*model.SearchMetric, 0, limit)
	err := r.db.Model(&model.SearchMetric{}).
		Order("count DESC").
		Limit(limit).
		Find(&metrics).Error
	if err != nil {
		log.Printf("[SearchMetric] 热搜查询失败: %v", err)
		return nil
	}

	// 3. 设置缓存
	utils.CacheSet(cacheKey, metrics, 30*time.Minute)

	return metrics
}

// DeleteOldLogs 清理超过指定天数的原始搜索日志（统计表不清理）
func (r *SearchMetricRepository) DeleteOldLogs(days int) (int64, error) {
	result := r.db.Where("created_at < ?", time.Now().AddDate(0, 0, -days)).
		Delete(&model.SearchLog{})
	return result.RowsAffected, result.Error
}

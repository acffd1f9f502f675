package repository

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/user/filmbox/internal/model"
	"gorm.io/gorm"
)

// ErrInvalidArgument 调用方传入了空的必填参数，未发起任何数据库操作
var ErrInvalidArgument = errors.New("缺少必需参数")

// Result 收藏操作结果
// Success=false 且 err=nil 表示业务层面的否定结果（已收藏/未找到），不是错误
type Result struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	SavedID int    `json:"saved_id,omitempty"`
}

type SavedMovieRepository struct {
	db *gorm.DB
	// 列表中遇到无法解析的快照时：true 跳过该条并记日志，false 整个调用失败
	skipCorrupt bool
}

func NewSavedMovieRepository(db *gorm.DB, skipCorrupt bool) *SavedMovieRepository {
	return &SavedMovieRepository{db: db, skipCorrupt: skipCorrupt}
}

// Save 收藏电影
// 先查后建，(user_id, movie_id) 的唯一性不靠存储层约束，
// 并发调用同一组合可能都通过检查并各建一条，属已接受的弱保证
func (r *SavedMovieRepository) Save(userID, movieID int, snapshot *model.MovieSnapshot) (*Result, error) {
	if userID <= 0 || movieID <= 0 || snapshot == nil {
		return nil, fmt.Errorf("%w: userID、movieID、快照均不能为空", ErrInvalidArgument)
	}

	// 1. 查询是否已存在
	var count int64
	if err := r.db.Model(&model.SavedMovie{}).
		Where("user_id = ? AND movie_id = ?", userID, movieID).
		Count(&count).Error; err != nil {
		return nil, fmt.Errorf("查询收藏记录失败: %w", err)
	}

	if count > 0 {
		return &Result{Success: false, Message: "该电影已在收藏列表中"}, nil
	}

	// 2. 序列化快照并创建记录
	data, err := json.Marshal(snapshot)
	if err != nil {
		return nil, fmt.Errorf("序列化电影快照失败: %w", err)
	}

	saved := &model.SavedMovie{
		UserID:    userID,
		MovieID:   movieID,
		MovieData: string(data),
		CreatedAt: time.Now(),
	}
	if err := r.db.Create(saved).Error; err != nil {
		return nil, fmt.Errorf("创建收藏记录失败: %w", err)
	}

	return &Result{Success: true, SavedID: saved.ID}, nil
}

// Unsave 取消收藏
func (r *SavedMovieRepository) Unsave(userID, movieID int) (*Result, error) {
	if userID <= 0 || movieID <= 0 {
		return nil, fmt.Errorf("%w: userID、movieID 均不能为空", ErrInvalidArgument)
	}

	var saved model.SavedMovie
	err := r.db.Where("user_id = ? AND movie_id = ?", userID, movieID).
		Limit(1).First(&saved).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return &Result{Success: false, Message: "收藏列表中没有这部电影"}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("查询收藏记录失败: %w", err)
	}

	if err := r.db.Delete(&model.SavedMovie{}, saved.ID).Error; err != nil {
		return nil, fmt.Errorf("删除收藏记录失败: %w", err)
	}

	return &Result{Success: true}, nil
}

// ListByUser 获取用户收藏列表，按收藏时间倒序
func (r *SavedMovieRepository) ListByUser(userID int) ([]*model.SavedMovie, error) {
	var records []*model.SavedMovie
	err := r.db.Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&records).Error
	if err != nil {
		return nil, fmt.Errorf("获取收藏列表失败: %w", err)
	}

	result := make([]*model.SavedMovie, 0, len(records))
	for _, rec := range records {
		if err := decodeSnapshot(rec); err != nil {
			if r.skipCorrupt {
				log.Printf("[SavedMovie] 跳过损坏的快照 (id=%d): %v", rec.ID, err)
				continue
			}
			return nil, fmt.Errorf("解析收藏快照失败 (id=%d): %w", rec.ID, err)
		}
		result = append(result, rec)
	}

	return result, nil
}

// IsSaved 检查是否已收藏
// 存储层出错时一律按未收藏处理，永远返回布尔值（刻意的降级行为）
func (r *SavedMovieRepository) IsSaved(userID, movieID int) bool {
	var count int64
	err := r.db.Model(&model.SavedMovie{}).
		Where("user_id = ? AND movie_id = ?", userID, movieID).
		Count(&count).Error
	if err != nil {
		log.Printf("[SavedMovie] 收藏状态查询失败 (user=%d movie=%d): %v", userID, movieID, err)
		return false
	}
	return count > 0
}

// Get 获取单条收藏记录，不存在时返回 nil
func (r *SavedMovieRepository) Get(userID, movieID int) (*model.SavedMovie, error) {
	var saved model.SavedMovie
	err := r.db.Where("user_id = ? AND movie_id = ?", userID, movieID).
		Limit(1).First(&saved).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("获取收藏记录失败: %w", err)
	}

	if err := decodeSnapshot(&saved); err != nil {
		return nil, fmt.Errorf("解析收藏快照失败 (id=%d): %w", saved.ID, err)
	}

	return &saved, nil
}

// CountByUser 统计用户收藏数量
func (r *SavedMovieRepository) CountByUser(userID int) (int, error) {
	var count int64
	err := r.db.Model(&model.SavedMovie{}).Where("user_id = ?", userID).Count(&count).Error
	return int(count), err
}

func decodeSnapshot(rec *model.SavedMovie) error {
	var snap model.MovieSnapshot
	if err := json.Unmarshal([]byte(rec.MovieData), &snap); err != nil {
		return err
	}
	rec.Movie = &snap
	return nil
}

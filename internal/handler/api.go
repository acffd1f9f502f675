package handler

import (
	"errors"
	"log"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/user/filmbox/internal/middleware"
	"github.com/user/filmbox/internal/model"
	"github.com/user/filmbox/internal/repository"
	"github.com/user/filmbox/internal/service"
	"github.com/user/filmbox/internal/utils"
)

// ==================== 目录 ====================

// ListMovies 电影列表/搜索
// q 为空时返回热门列表；搜索有结果时顺带更新热搜统计，统计失败只记日志
func (h *Handler) ListMovies(c *gin.Context) {
	query := c.Query("q")
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))

	movies, err := h.Catalog.FetchMovies(query, page)
	if err != nil {
		h.catalogError(c, err)
		return
	}

	if query != "" && len(movies) > 0 {
		if err := h.Repos.SearchMetric.Record(query, movies[0]); err != nil {
			log.Printf("[Search] 热搜统计更新失败 (keyword=%q): %v", query, err)
		}
		if err := h.Repos.SearchMetric.Log(query, middleware.GetUserIDPtr(c), utils.HashIP(c.ClientIP())); err != nil {
			log.Printf("[Search] 搜索日志写入失败: %v", err)
		}
	}

	utils.Success(c, movies)
}

// MovieDetails 电影详情
func (h *Handler) MovieDetails(c *gin.Context) {
	details, err := h.Catalog.FetchMovieDetails(c.Param("id"))
	if err != nil {
		h.catalogError(c, err)
		return
	}
	utils.Success(c, details)
}

// SimilarMovies 相似电影
func (h *Handler) SimilarMovies(c *gin.Context) {
	movies, err := h.Catalog.FetchSimilarMovies(c.Param("id"))
	if err != nil {
		h.catalogError(c, err)
		return
	}
	utils.Success(c, movies)
}

func (h *Handler) catalogError(c *gin.Context, err error) {
	var ce *service.CatalogError
	if errors.As(err, &ce) {
		utils.ServiceUnavailable(c, ce.Message)
		return
	}
	utils.ServiceUnavailable(c, "")
}

// ==================== 热搜 ====================

// Trending 热搜榜
func (h *Handler) Trending(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "5"))

	metrics := h.Repos.SearchMetric.Trending(limit)
	if metrics == nil {
		utils.ServiceUnavailable(c, "热搜暂时不可用，请稍后重试")
		return
	}

	utils.Success(c, metrics)
}

// ==================== 收藏 ====================

type saveMovieRequest struct {
	MovieID int                  `json:"movie_id" binding:"required"`
	Movie   *model.MovieSnapshot `json:"movie" binding:"required"`
}

// SaveMovie 收藏电影
func (h *Handler) SaveMovie(c *gin.Context) {
	var req saveMovieRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequest(c, "缺少 movie_id 或电影快照")
		return
	}

	result, err := h.Repos.SavedMovie.Save(middleware.GetUserID(c), req.MovieID, req.Movie)
	if err != nil {
		h.savedError(c, err)
		return
	}

	if !result.Success {
		utils.BusinessFail(c, result.Message, result)
		return
	}
	utils.SuccessWithMessage(c, "已加入收藏", result)
}

// UnsaveMovie 取消收藏
func (h *Handler) UnsaveMovie(c *gin.Context) {
	movieID, err := strconv.Atoi(c.Param("movieId"))
	if err != nil {
		utils.BadRequest(c, "无效的电影 ID")
		return
	}

	result, err := h.Repos.SavedMovie.Unsave(middleware.GetUserID(c), movieID)
	if err != nil {
		h.savedError(c, err)
		return
	}

	if !result.Success {
		utils.BusinessFail(c, result.Message, result)
		return
	}
	utils.SuccessWithMessage(c, "已取消收藏", result)
}

// ListSaved 收藏列表，按收藏时间倒序
func (h *Handler) ListSaved(c *gin.Context) {
	saved, err := h.Repos.SavedMovie.ListByUser(middleware.GetUserID(c))
	if err != nil {
		log.Printf("[SavedMovie] 获取收藏列表失败: %v", err)
		utils.InternalServerError(c, "获取收藏列表失败")
		return
	}
	utils.Success(c, saved)
}

// GetSaved 获取单条收藏
func (h *Handler) GetSaved(c *gin.Context) {
	movieID, err := strconv.Atoi(c.Param("movieId"))
	if err != nil {
		utils.BadRequest(c, "无效的电影 ID")
		return
	}

	saved, err := h.Repos.SavedMovie.Get(middleware.GetUserID(c), movieID)
	if err != nil {
		log.Printf("[SavedMovie] 获取收藏记录失败: %v", err)
		utils.InternalServerError(c, "获取收藏记录失败")
		return
	}
	if saved == nil {
		utils.NotFound(c, "收藏列表中没有这部电影")
		return
	}
	utils.Success(c, saved)
}

// SavedStatus 收藏状态检查，任何情况下都返回布尔值
func (h *Handler) SavedStatus(c *gin.Context) {
	movieID, err := strconv.Atoi(c.Param("movieId"))
	if err != nil {
		utils.BadRequest(c, "无效的电影 ID")
		return
	}

	utils.Success(c, gin.H{
		"saved": h.Repos.SavedMovie.IsSaved(middleware.GetUserID(c), movieID),
	})
}

func (h *Handler) savedError(c *gin.Context, err error) {
	if errors.Is(err, repository.ErrInvalidArgument) {
		utils.BadRequest(c, err.Error())
		return
	}
	log.Printf("[SavedMovie] 操作失败: %v", err)
	utils.InternalServerError(c, "操作失败，请重试")
}

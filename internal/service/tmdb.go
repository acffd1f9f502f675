package service

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/user/filmbox/internal/config"
	"github.com/user/filmbox/internal/model"
	"github.com/user/filmbox/internal/utils"
	"golang.org/x/sync/singleflight"
)

// CatalogError 目录服务返回非成功状态或传输失败
type CatalogError struct {
	StatusCode int
	Message    string
}

func (e *CatalogError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("目录服务请求失败 (状态码 %d): %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("目录服务请求失败: %s", e.Message)
}

// TMDBService TMDB 目录客户端，无本地状态，只读
type TMDBService struct {
	config      *config.Config
	httpClient  *http.Client
	group       singleflight.Group
	detailCache *utils.DetailCache[*model.MovieDetails]
}

func NewTMDBService(cfg *config.Config) *TMDBService {
	return &TMDBService{
		config: cfg,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		detailCache: utils.NewDetailCache[*model.MovieDetails](1000, time.Hour),
	}
}

type tmdbListResponse struct {
	Page    int `json:"page"`
	Results []struct {
		ID          int     `json:"id"`
		Title       string  `json:"title"`
		PosterPath  string  `json:"poster_path"`
		Overview    string  `json:"overview"`
		ReleaseDate string  `json:"release_date"`
		VoteAverage float64 `json:"vote_average"`
		VoteCount   int     `json:"vote_count"`
	} `json:"results"`
}

// FetchMovies 获取电影列表
// query 为空时按热门度返回列表页，否则按标题/简介搜索，分页行为一致
func (s *TMDBService) FetchMovies(query string, page int) ([]*model.Movie, error) {
	if page < 1 {
		page = 1
	}

	var endpoint string
	if query == "" {
		endpoint = fmt.Sprintf("%s/movie/popular?page=%d&language=%s",
			s.config.TMDBBaseURL, page, s.config.TMDBLanguage)
	} else {
		endpoint = fmt.Sprintf("%s/search/movie?query=%s&page=%d&language=%s",
			s.config.TMDBBaseURL, url.QueryEscape(query), page, s.config.TMDBLanguage)
	}

	var result tmdbListResponse
	if err := s.getJSON(endpoint, &result); err != nil {
		return nil, err
	}

	movies := make([]*model.Movie, 0, len(result.Results))
	for _, m := range result.Results {
		movies = append(movies, &model.Movie{
			ID:          m.ID,
			Title:       m.Title,
			PosterPath:  m.PosterPath,
			Overview:    m.Overview,
			ReleaseDate: m.ReleaseDate,
			VoteAverage: m.VoteAverage,
			VoteCount:   m.VoteCount,
		})
	}

	return movies, nil
}

type tmdbDetailsResponse struct {
	ID                  int                       `json:"id"`
	Title               string                    `json:"title"`
	OriginalTitle       string                    `json:"original_title"`
	Tagline             string                    `json:"tagline"`
	PosterPath          string                    `json:"poster_path"`
	Overview            string                    `json:"overview"`
	ReleaseDate         string                    `json:"release_date"`
	VoteAverage         float64                   `json:"vote_average"`
	VoteCount           int                       `json:"vote_count"`
	Runtime             int                       `json:"runtime"`
	Genres              []model.Genre             `json:"genres"`
	Budget              int64                     `json:"budget"`
	Revenue             int64                     `json:"revenue"`
	ProductionCompanies []model.ProductionCompany `json:"production_companies"`
	Videos              struct {
		Results []model.Video `json:"results"`
	} `json:"videos"`
	Credits struct {
		Cast []model.CastMember `json:"cast"`
	} `json:"credits"`
}

// FetchMovieDetails 获取电影详情，一次请求附带 videos 和 credits
// 缺失的可选字段补默认值（空串/空数组/零），调用方永远拿到完整结构。
// 使用 singleflight 合并并发的同片请求，结果进 LRU 缓存
func (s *TMDBService) FetchMovieDetails(movieID string) (*model.MovieDetails, error) {
	if cached, found := s.detailCache.Get(movieID); found {
		return cached, nil
	}

	val, err, _ := s.group.Do(movieID, func() (interface{}, error) {
		return s.fetchMovieDetailsInternal(movieID)
	})
	if err != nil {
		return nil, err
	}
	return val.(*model.MovieDetails), nil
}

func (s *TMDBService) fetchMovieDetailsInternal(movieID string) (*model.MovieDetails, error) {
	endpoint := fmt.Sprintf("%s/movie/%s?language=%s&append_to_response=videos,credits",
		s.config.TMDBBaseURL, url.PathEscape(movieID), s.config.TMDBLanguage)

	var data tmdbDetailsResponse
	if err := s.getJSON(endpoint, &data); err != nil {
		// 不向调用方泄漏传输细节，统一为可重试的提示
		var ce *CatalogError
		if errors.As(err, &ce) && ce.StatusCode > 0 {
			return nil, &CatalogError{StatusCode: ce.StatusCode, Message: "电影详情获取失败，请稍后重试"}
		}
		return nil, &CatalogError{Message: "电影详情获取失败，请稍后重试"}
	}

	details := &model.MovieDetails{
		Movie: model.Movie{
			ID:          data.ID,
			Title:       data.Title,
			PosterPath:  data.PosterPath,
			Overview:    data.Overview,
			ReleaseDate: data.ReleaseDate,
			VoteAverage: data.VoteAverage,
			VoteCount:   data.VoteCount,
		},
		OriginalTitle:       data.OriginalTitle,
		Tagline:             data.Tagline,
		Runtime:             data.Runtime,
		Genres:              data.Genres,
		Budget:              data.Budget,
		Revenue:             data.Revenue,
		ProductionCompanies: data.ProductionCompanies,
		Videos:              data.Videos.Results,
		Credits:             model.Credits{Cast: data.Credits.Cast},
	}

	// 缺失的数组字段补成空切片而不是 nil
	if details.Genres == nil {
		details.Genres = []model.Genre{}
	}
	if details.ProductionCompanies == nil {
		details.ProductionCompanies = []model.ProductionCompany{}
	}
	if details.Videos == nil {
		details.Videos = []model.Video{}
	}
	if details.Credits.Cast == nil {
		details.Credits.Cast = []model.CastMember{}
	}

	s.detailCache.Set(movieID, details)
	return details, nil
}

// FetchSimilarMovies 获取相似电影，直接透传目录服务的结果，不做字段补全
func (s *TMDBService) FetchSimilarMovies(movieID string) ([]*model.Movie, error) {
	endpoint := fmt.Sprintf("%s/movie/%s/similar?language=%s",
		s.config.TMDBBaseURL, url.PathEscape(movieID), s.config.TMDBLanguage)

	var result struct {
		Results []*model.Movie `json:"results"`
	}
	if err := s.getJSON(endpoint, &result); err != nil {
		return nil, err
	}

	return result.Results, nil
}

func (s *TMDBService) getJSON(endpoint string, target interface{}) error {
	req, err := http.NewRequest("GET", endpoint, nil)
	if err != nil {
		return &CatalogError{Message: err.Error()}
	}
	req.Header.Set("Authorization", "Bearer "+s.config.TMDBToken)
	req.Header.Set("Accept", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return &CatalogError{Message: err.Error()}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return &CatalogError{StatusCode: resp.StatusCode, Message: resp.Status}
	}

	if err := json.NewDecoder(resp.Body).Decode(target); err != nil {
		return &CatalogError{Message: fmt.Sprintf("解析响应失败: %v", err)}
	}

	return nil
}

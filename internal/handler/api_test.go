package handler_test

import (
	"bytes"
	"encoding/gob"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/user/filmbox/internal/config"
	"github.com/user/filmbox/internal/handler"
	"github.com/user/filmbox/internal/model"
	"github.com/user/filmbox/internal/repository"
	"github.com/user/filmbox/internal/router"
	"github.com/user/filmbox/internal/utils"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func init() {
	gin.SetMode(gin.TestMode)
	gob.Register(model.SessionUser{})
}

// envelope 统一响应结构
type envelope struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
}

// setupAPI 组装带 sqlite 仓库和目录桩的完整路由
func setupAPI(t *testing.T, catalogURL string) *gin.Engine {
	t.Helper()

	dbPath := filepath.Join(t.TempDir(), "test.db")
	db, err := gorm.Open(sqlite.Open(dbPath), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("打开测试数据库失败: %v", err)
	}
	if err := db.AutoMigrate(
		&model.User{}, &model.SavedMovie{}, &model.SearchMetric{}, &model.SearchLog{},
	); err != nil {
		t.Fatalf("迁移测试数据库失败: %v", err)
	}

	utils.InitCache()

	cfg := &config.Config{
		Env:              "development",
		AppSecret:        "test-secret",
		JWTExpiry:        time.Hour,
		TMDBToken:        "test-token",
		TMDBBaseURL:      catalogURL,
		TMDBLanguage:     "zh-CN",
		SavedSkipCorrupt: true,
	}

	repos := repository.NewRepositories(db, cfg.SavedSkipCorrupt)
	h := handler.NewHandler(repos, cfg)

	r := gin.New()
	r.Use(sessions.Sessions("filmbox_session", cookie.NewStore([]byte(cfg.AppSecret))))
	router.RegisterRoutes(r, h)
	return r
}

// catalogStub 模拟 TMDB 目录服务
func catalogStub(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/movie/popular", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"results":[{"id":42,"title":"Dune","poster_path":"/d.jpg","vote_average":7.8,"vote_count":9000}]}`))
	})
	mux.HandleFunc("/search/movie", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"results":[{"id":42,"title":"Dune","poster_path":"/d.jpg"}]}`))
	})
	mux.HandleFunc("/movie/42", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"id":42,"title":"Dune","runtime":155}`))
	})
	mux.HandleFunc("/movie/42/similar", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"results":[{"id":7,"title":"Arrival"}]}`))
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func doJSON(t *testing.T, r *gin.Engine, method, path, token string, body interface{}) (*httptest.ResponseRecorder, *envelope) {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("序列化请求体失败: %v", err)
		}
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	var env envelope
	if err := json.Unmarshal(w.Body.Bytes(), &env); err != nil {
		t.Fatalf("解析响应失败 (%d): %s", w.Code, w.Body.String())
	}
	return w, &env
}

func registerUser(t *testing.T, r *gin.Engine) string {
	t.Helper()

	w, env := doJSON(t, r, http.MethodPost, "/auth/register", "", gin.H{
		"email":    "ana@example.com",
		"password": "secret123",
		"name":     "Ana",
	})
	if w.Code != http.StatusOK || !env.Success {
		t.Fatalf("注册失败 (%d): %s", w.Code, env.Message)
	}

	var data struct {
		Token string `json:"token"`
	}
	if err := json.Unmarshal(env.Data, &data); err != nil || data.Token == "" {
		t.Fatalf("注册应返回 token: %v", err)
	}
	return data.Token
}

func TestSavedRequiresAuth(t *testing.T) {
	r := setupAPI(t, catalogStub(t).URL)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/saved", nil))
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("未登录访问收藏应返回 401，得到 %d", w.Code)
	}
}

func TestSaveUnsaveFlow(t *testing.T) {
	r := setupAPI(t, catalogStub(t).URL)
	token := registerUser(t, r)

	saveBody := gin.H{
		"movie_id": 42,
		"movie":    gin.H{"id": 42, "title": "Dune", "poster_path": "/d.jpg"},
	}

	// 首次收藏成功
	w, env := doJSON(t, r, http.MethodPost, "/api/saved", token, saveBody)
	if w.Code != http.StatusOK || !env.Success {
		t.Fatalf("收藏失败 (%d): %s", w.Code, env.Message)
	}

	// 收藏状态为 true
	_, env = doJSON(t, r, http.MethodGet, "/api/saved/42/status", token, nil)
	var status struct {
		Saved bool `json:"saved"`
	}
	if err := json.Unmarshal(env.Data, &status); err != nil || !status.Saved {
		t.Fatalf("收藏后状态应为 true: %s", env.Data)
	}

	// 重复收藏是业务失败：HTTP 200 + success=false
	w, env = doJSON(t, r, http.MethodPost, "/api/saved", token, saveBody)
	if w.Code != http.StatusOK {
		t.Fatalf("重复收藏应返回 200，得到 %d", w.Code)
	}
	if env.Success {
		t.Fatal("重复收藏 success 应为 false")
	}

	// 列表包含且带快照
	_, env = doJSON(t, r, http.MethodGet, "/api/saved", token, nil)
	var list []struct {
		MovieID int `json:"movie_id"`
		Movie   *struct {
			Title string `json:"title"`
		} `json:"movie"`
	}
	if err := json.Unmarshal(env.Data, &list); err != nil {
		t.Fatalf("解析收藏列表失败: %v", err)
	}
	if len(list) != 1 || list[0].MovieID != 42 || list[0].Movie == nil || list[0].Movie.Title != "Dune" {
		t.Fatalf("收藏列表不符: %s", env.Data)
	}

	// 取消收藏
	w, env = doJSON(t, r, http.MethodDelete, "/api/saved/42", token, nil)
	if w.Code != http.StatusOK || !env.Success {
		t.Fatalf("取消收藏失败 (%d): %s", w.Code, env.Message)
	}

	// 再次取消是业务失败
	w, env = doJSON(t, r, http.MethodDelete, "/api/saved/42", token, nil)
	if w.Code != http.StatusOK || env.Success {
		t.Fatalf("重复取消应为业务失败 (%d success=%v)", w.Code, env.Success)
	}

	// 单条查询返回 404
	w, _ = doJSON(t, r, http.MethodGet, "/api/saved/42", token, nil)
	if w.Code != http.StatusNotFound {
		t.Fatalf("取消后单条查询应返回 404，得到 %d", w.Code)
	}
}

func TestSearchRecordsTrending(t *testing.T) {
	r := setupAPI(t, catalogStub(t).URL)

	w, env := doJSON(t, r, http.MethodGet, "/api/movies?q=dune", "", nil)
	if w.Code != http.StatusOK || !env.Success {
		t.Fatalf("搜索失败 (%d): %s", w.Code, env.Message)
	}

	_, env = doJSON(t, r, http.MethodGet, "/api/trending", "", nil)
	var metrics []struct {
		SearchTerm string `json:"search_term"`
		Count      int    `json:"count"`
	}
	if err := json.Unmarshal(env.Data, &metrics); err != nil {
		t.Fatalf("解析热搜失败: %v", err)
	}
	if len(metrics) != 1 || metrics[0].SearchTerm != "dune" || metrics[0].Count != 1 {
		t.Fatalf("搜索后热搜应包含该词: %s", env.Data)
	}
}

func TestBrowseDoesNotRecordTrending(t *testing.T) {
	r := setupAPI(t, catalogStub(t).URL)

	// 浏览热门列表不算搜索
	if w, _ := doJSON(t, r, http.MethodGet, "/api/movies", "", nil); w.Code != http.StatusOK {
		t.Fatalf("列表请求失败: %d", w.Code)
	}

	_, env := doJSON(t, r, http.MethodGet, "/api/trending", "", nil)
	var metrics []json.RawMessage
	if err := json.Unmarshal(env.Data, &metrics); err != nil {
		t.Fatalf("解析热搜失败: %v", err)
	}
	if len(metrics) != 0 {
		t.Fatalf("浏览不应产生热搜统计: %s", env.Data)
	}
}

func TestCatalogUnavailable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "upstream down", http.StatusInternalServerError)
	}))
	t.Cleanup(srv.Close)

	r := setupAPI(t, srv.URL)

	w, env := doJSON(t, r, http.MethodGet, "/api/movies", "", nil)
	if w.Code != http.StatusBadGateway {
		t.Fatalf("目录不可用应返回 502，得到 %d", w.Code)
	}
	if env.Success {
		t.Fatal("目录不可用响应 success 应为 false")
	}
}

func TestMovieDetailsEndpoint(t *testing.T) {
	r := setupAPI(t, catalogStub(t).URL)

	_, env := doJSON(t, r, http.MethodGet, "/api/movies/42", "", nil)
	var details struct {
		Title  string `json:"title"`
		Budget int64  `json:"budget"`
		Genres []any  `json:"genres"`
	}
	if err := json.Unmarshal(env.Data, &details); err != nil {
		t.Fatalf("解析详情失败: %v", err)
	}
	if details.Title != "Dune" {
		t.Fatalf("详情标题不符: %s", env.Data)
	}
	if details.Genres == nil {
		t.Fatal("缺失的 genres 应序列化为空数组")
	}
}

func TestMeAnonymous(t *testing.T) {
	r := setupAPI(t, catalogStub(t).URL)

	w, env := doJSON(t, r, http.MethodGet, "/auth/me", "", nil)
	if w.Code != http.StatusOK || !env.Success {
		t.Fatalf("匿名访问 /auth/me 应返回成功 (%d)", w.Code)
	}
	if string(env.Data) != "null" {
		t.Fatalf("匿名身份应为 null，得到 %s", env.Data)
	}
}

func TestLoginWrongPassword(t *testing.T) {
	r := setupAPI(t, catalogStub(t).URL)
	registerUser(t, r)

	w, _ := doJSON(t, r, http.MethodPost, "/auth/login", "", gin.H{
		"email":    "ana@example.com",
		"password": "wrong-pass",
	})
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("密码错误应返回 401，得到 %d", w.Code)
	}
}

func TestMeAfterLogin(t *testing.T) {
	r := setupAPI(t, catalogStub(t).URL)
	token := registerUser(t, r)

	_, env := doJSON(t, r, http.MethodGet, "/auth/me", token, nil)
	var user struct {
		Email string `json:"email"`
	}
	if err := json.Unmarshal(env.Data, &user); err != nil {
		t.Fatalf("解析身份失败: %v", err)
	}
	if user.Email != "ana@example.com" {
		t.Fatalf("应返回当前用户身份，得到 %s", env.Data)
	}

	// 中间件鉴权的 token 不应把密码散列带出去
	if bytes.Contains(env.Data, []byte("password_hash")) {
		t.Fatal("身份响应不应包含密码散列")
	}
}

func TestSimilarMoviesEndpoint(t *testing.T) {
	r := setupAPI(t, catalogStub(t).URL)

	_, env := doJSON(t, r, http.MethodGet, "/api/movies/42/similar", "", nil)
	var movies []struct {
		ID int `json:"id"`
	}
	if err := json.Unmarshal(env.Data, &movies); err != nil {
		t.Fatalf("解析相似电影失败: %v", err)
	}
	if len(movies) != 1 || movies[0].ID != 7 {
		t.Fatalf("相似电影应透传: %s", env.Data)
	}
}

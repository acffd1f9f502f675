package handler

import (
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	nonstd "github.com/go-playground/validator/v10/non-standard/validators"
	"github.com/user/filmbox/internal/config"
	"github.com/user/filmbox/internal/repository"
	"github.com/user/filmbox/internal/service"
)

func init() {
	// 注册 notblank 校验：min=2 拦不住纯空格的用户名
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		v.RegisterValidation("notblank", nonstd.NotBlank)
	}
}

// Handler HTTP 处理器
type Handler struct {
	Repos    *repository.Repositories
	Config   *config.Config
	Catalog  *service.TMDBService
	Accounts *service.AccountService
}

// NewHandler 创建处理器
func NewHandler(repos *repository.Repositories, cfg *config.Config) *Handler {
	return &Handler{
		Repos:    repos,
		Config:   cfg,
		Catalog:  service.NewTMDBService(cfg),
		Accounts: service.NewAccountService(repos.User),
	}
}

package handler

import (
	"errors"
	"log"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"github.com/user/filmbox/internal/middleware"
	"github.com/user/filmbox/internal/model"
	"github.com/user/filmbox/internal/repository"
	"github.com/user/filmbox/internal/service"
	"github.com/user/filmbox/internal/utils"
)

type registerRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=6"`
	Name     string `json:"name"`
}

type loginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// Register 注册
func (h *Handler) Register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequest(c, "请填写有效的邮箱和至少 6 位的密码")
		return
	}

	user, err := h.Accounts.SignUp(req.Email, req.Password, req.Name)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrEmailTaken):
			utils.BadRequest(c, err.Error())
		case errors.Is(err, repository.ErrInvalidArgument):
			utils.BadRequest(c, err.Error())
		default:
			log.Printf("[Auth] 注册失败: %v", err)
			utils.InternalServerError(c, "注册失败，请重试")
		}
		return
	}

	h.establishSession(c, user)
}

// Login 登录
func (h *Handler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequest(c, "请填写邮箱和密码")
		return
	}

	user, err := h.Accounts.SignIn(req.Email, req.Password)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			utils.Unauthorized(c, err.Error())
			return
		}
		log.Printf("[Auth] 登录失败: %v", err)
		utils.InternalServerError(c, "登录失败，请重试")
		return
	}

	h.establishSession(c, user)
}

// establishSession 签发 JWT 并写入 Cookie 与 Session
func (h *Handler) establishSession(c *gin.Context, user *model.User) {
	token, err := middleware.GenerateToken(user.ID, user.Email, h.Config.AppSecret, h.Config.JWTExpiry)
	if err != nil {
		log.Printf("[Auth] 签发 Token 失败: %v", err)
		utils.InternalServerError(c, "登录失败，请重试")
		return
	}

	// 设置 Cookie (JWT)
	c.SetCookie("token", token, int(h.Config.JWTExpiry.Seconds()), "/", "", false, true)

	// 保存 UserInfo 到 Session
	session := sessions.Default(c)
	session.Set("userinfo", model.SessionUser{
		ID:       user.ID,
		Email:    user.Email,
		Username: user.Username,
	})
	session.Save()

	utils.Success(c, gin.H{
		"user":  user,
		"token": token,
	})
}

// Logout 登出
func (h *Handler) Logout(c *gin.Context) {
	c.SetCookie("token", "", -1, "/", "", false, true)

	// 清理 Session
	session := sessions.Default(c)
	session.Clear()
	session.Save()

	utils.SuccessWithMessage(c, "已退出登录", nil)
}

// Me 获取当前身份
// 未登录返回 data=null 的成功响应，存储层故障返回 500，两种情况必须可区分
func (h *Handler) Me(c *gin.Context) {
	user, err := h.Accounts.Current(middleware.GetUserID(c))
	if err != nil {
		log.Printf("[Auth] 会话检查失败: %v", err)
		utils.InternalServerError(c, "会话检查失败，请重试")
		return
	}
	utils.Success(c, user)
}

type updateProfileRequest struct {
	Username string `json:"username" binding:"required,notblank,min=2,max=20"`
}

// UpdateProfile 修改用户名
func (h *Handler) UpdateProfile(c *gin.Context) {
	var req updateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequest(c, "用户名应在 2-20 个字符之间")
		return
	}

	userID := middleware.GetUserID(c)
	if err := h.Repos.User.UpdateUsername(userID, req.Username); err != nil {
		utils.InternalServerError(c, "用户名更新失败")
		return
	}

	// 更新 Session 中的用户名
	session := sessions.Default(c)
	if userinfo := session.Get("userinfo"); userinfo != nil {
		if su, ok := userinfo.(model.SessionUser); ok {
			su.Username = req.Username
			session.Set("userinfo", su)
			session.Save()
		}
	}

	utils.SuccessWithMessage(c, "用户名已更新", nil)
}

type updatePasswordRequest struct {
	CurrentPassword string `json:"current_password" binding:"required"`
	NewPassword     string `json:"new_password" binding:"required,min=6"`
}

// UpdatePassword 修改密码
func (h *Handler) UpdatePassword(c *gin.Context) {
	var req updatePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequest(c, "新密码至少需要 6 个字符")
		return
	}

	userID := middleware.GetUserID(c)
	user, err := h.Repos.User.FindByID(userID)
	if err != nil || user == nil {
		utils.Unauthorized(c, "")
		return
	}

	// 验证当前密码
	if !h.Repos.User.CheckPassword(user, req.CurrentPassword) {
		utils.BadRequest(c, "当前密码错误")
		return
	}

	if err := h.Repos.User.UpdatePassword(userID, req.NewPassword); err != nil {
		utils.InternalServerError(c, "密码更新失败")
		return
	}

	utils.SuccessWithMessage(c, "密码已更新", nil)
}

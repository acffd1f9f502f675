package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
)

func init() {
	gin.SetMode(gin.TestMode)
}

const testSecret = "test-secret"

func protectedRouter() *gin.Engine {
	r := gin.New()
	r.GET("/protected", RequireAuth(testSecret), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"user_id": GetUserID(c)})
	})
	r.GET("/open", OptionalAuth(testSecret), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"user_id": GetUserID(c)})
	})
	return r
}

func TestRequireAuthRejectsMissingToken(t *testing.T) {
	r := protectedRouter()

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/protected", nil))
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("无 Token 应返回 401，得到 %d", w.Code)
	}
}

func TestRequireAuthRejectsBadToken(t *testing.T) {
	r := protectedRouter()

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer not-a-token")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("伪造 Token 应返回 401，得到 %d", w.Code)
	}
}

func TestRequireAuthAcceptsBearerToken(t *testing.T) {
	r := protectedRouter()

	token, err := GenerateToken(7, "ana@example.com", testSecret, time.Hour)
	if err != nil {
		t.Fatalf("生成 Token 失败: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("有效 Token 应放行，得到 %d: %s", w.Code, w.Body.String())
	}
	if !strings.Contains(w.Body.String(), `"user_id":7`) {
		t.Fatalf("上下文中应有用户 ID: %s", w.Body.String())
	}
}

func TestRequireAuthAcceptsCookie(t *testing.T) {
	r := protectedRouter()

	token, err := GenerateToken(7, "ana@example.com", testSecret, time.Hour)
	if err != nil {
		t.Fatalf("生成 Token 失败: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.AddCookie(&http.Cookie{Name: "token", Value: token})
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("Cookie Token 应放行，得到 %d", w.Code)
	}
}

func TestRequireAuthRejectsWrongSecret(t *testing.T) {
	r := protectedRouter()

	token, err := GenerateToken(7, "ana@example.com", "other-secret", time.Hour)
	if err != nil {
		t.Fatalf("生成 Token 失败: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("错误密钥签名的 Token 应返回 401，得到 %d", w.Code)
	}
}

func TestOptionalAuthAnonymous(t *testing.T) {
	r := protectedRouter()

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/open", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("匿名访问可选鉴权路由应放行，得到 %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), `"user_id":0`) {
		t.Fatalf("匿名用户 ID 应为 0: %s", w.Body.String())
	}
}

func TestSlidingRefresh(t *testing.T) {
	r := protectedRouter()

	// 签发一个已消耗过半有效期的 Token：有效期 1 秒，等待后再请求
	token, err := GenerateToken(7, "ana@example.com", testSecret, time.Second)
	if err != nil {
		t.Fatalf("生成 Token 失败: %v", err)
	}
	time.Sleep(600 * time.Millisecond)

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("Token 尚未过期应放行，得到 %d", w.Code)
	}

	refreshed := false
	for _, c := range w.Result().Cookies() {
		if c.Name == "token" && c.Value != "" {
			refreshed = true
		}
	}
	if !refreshed {
		t.Fatal("消耗过半有效期后应下发新 Token Cookie")
	}
}

func TestGetUserIDPtr(t *testing.T) {
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	if GetUserIDPtr(c) != nil {
		t.Fatal("未登录时应返回 nil")
	}

	c.Set("user_id", 42)
	ptr := GetUserIDPtr(c)
	if ptr == nil || *ptr != 42 {
		t.Fatalf("应返回指向用户 ID 的指针，得到 %v", ptr)
	}
}

package handler

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/d60-Lab/yatube/internal/middleware"
	"github.com/d60-Lab/yatube/internal/service"
	"github.com/d60-Lab/yatube/pkg/response"
)

type signupRequest struct {
	Username string `form:"username" json:"username" binding:"required"`
	Email    string `form:"email" json:"email"`
	Password string `form:"password" json:"password" binding:"required"`
}

type loginRequest struct {
	Username string `form:"username" json:"username" binding:"required"`
	Password string `form:"password" json:"password" binding:"required"`
	Next     string `form:"next" json:"next"`
}

// Signup 注册
// @Summary 用户注册
// @Tags 认证
// @Accept x-www-form-urlencoded,json
// @Produce json
// @Param request body signupRequest true "注册信息"
// @Success 201 {object} response.Response{data=model.User}
// @Failure 400 {object} response.Response
// @Failure 409 {object} response.Response
// @Router /auth/signup/ [post]
func (h *Handler) Signup(c *gin.Context) {
	var req signupRequest
	if err := c.ShouldBind(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	user, err := h.authSvc.Signup(c.Request.Context(), req.Username, req.Email, req.Password)
	if err != nil {
		if ve, ok := service.AsValidation(err); ok {
			response.Invalid(c, ve.Fields)
			return
		}
		fail(c, err)
		return
	}
	response.Created(c, user)
}

// LoginPage 登录提示，回传 next
// @Summary 登录提示
// @Tags 认证
// @Produce json
// @Param next query string false "登录后返回的路径"
// @Success 200 {object} response.Response{data=map[string]interface{}}
// @Router /auth/login/ [get]
func (h *Handler) LoginPage(c *gin.Context) {
	response.Success(c, gin.H{"next": safeNext(c.Query("next"))})
}

// Login 登录，写入 token cookie；带 next 时跳转
// @Summary 用户登录
// @Tags 认证
// @Accept x-www-form-urlencoded,json
// @Produce json
// @Param request body loginRequest true "登录凭据"
// @Success 200 {object} response.Response{data=map[string]interface{}}
// @Success 302 "跳转到 next"
// @Failure 401 {object} response.Response
// @Router /auth/login/ [post]
func (h *Handler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBind(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	token, user, err := h.authSvc.Login(c.Request.Context(), req.Username, req.Password)
	if errors.Is(err, service.ErrInvalidCredentials) {
		response.Unauthorized(c, err.Error())
		return
	}
	if err != nil {
		fail(c, err)
		return
	}

	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(middleware.TokenCookie, token, int(h.tokenTTL.Seconds()), "/", "", false, true)

	next := req.Next
	if next == "" {
		next = c.Query("next")
	}
	if next = safeNext(next); next != "" {
		c.Redirect(http.StatusFound, next)
		return
	}
	response.Success(c, gin.H{"token": token, "user": user})
}

// Logout 清除 cookie
// @Summary 退出登录
// @Tags 认证
// @Success 302 "跳转到首页"
// @Router /auth/logout/ [post]
func (h *Handler) Logout(c *gin.Context) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(middleware.TokenCookie, "", -1, "/", "", false, true)
	c.Redirect(http.StatusFound, "/")
}

// safeNext 只接受站内绝对路径，登录后不会跳到站外
func safeNext(next string) string {
	if !strings.HasPrefix(next, "/") || strings.HasPrefix(next, "//") || strings.HasPrefix(next, "/\\") {
		return ""
	}
	return next
}

package handler

import (
	"errors"
	"net/url"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/d60-Lab/yatube/internal/service"
	"github.com/d60-Lab/yatube/pkg/response"
)

// Handler HTTP 路由到 service 的适配层
type Handler struct {
	db        *gorm.DB
	listing   service.ListingService
	authoring service.AuthoringService
	authSvc   service.AuthService
	tokenTTL  time.Duration
}

func NewHandler(db *gorm.DB, listing service.ListingService, authoring service.AuthoringService, authSvc service.AuthService, tokenTTL time.Duration) *Handler {
	return &Handler{db: db, listing: listing, authoring: authoring, authSvc: authSvc, tokenTTL: tokenTTL}
}

func profilePath(username string) string { return "/profile/" + url.PathEscape(username) + "/" }

func detailPath(postID uint) string { return "/posts/" + strconv.FormatUint(uint64(postID), 10) + "/" }

func parsePostID(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("post_id"), 10, 0)
	if err != nil || id == 0 {
		return 0, false
	}
	return uint(id), true
}

// fail 统一处理各视图共有的 service 错误
func fail(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrNotFound):
		response.NotFound(c, "not found")
	case errors.Is(err, service.ErrConflict):
		response.Conflict(c, err.Error())
	default:
		response.InternalError(c, err)
	}
}

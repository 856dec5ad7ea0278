package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/d60-Lab/yatube/pkg/response"
)

// Healthz 存活检查，附带数据库 ping
// @Summary 健康检查
// @Tags 运维
// @Produce json
// @Success 200 {object} response.Response
// @Failure 503 {object} response.Response
// @Router /healthz [get]
func (h *Handler) Healthz(c *gin.Context) {
	sqlDB, err := h.db.DB()
	if err == nil {
		err = sqlDB.PingContext(c.Request.Context())
	}
	if err != nil {
		response.JSON(c, http.StatusServiceUnavailable, "database unavailable", nil)
		return
	}
	response.Success(c, gin.H{"status": "ok"})
}

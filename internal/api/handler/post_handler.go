package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/d60-Lab/yatube/internal/middleware"
	"github.com/d60-Lab/yatube/internal/service"
	"github.com/d60-Lab/yatube/pkg/paginator"
	"github.com/d60-Lab/yatube/pkg/response"
)

// Index 首页：全部帖子，按发布时间倒序分页
// @Summary 首页帖子列表
// @Tags 帖子
// @Produce json
// @Param page query int false "页码" default(1)
// @Success 200 {object} response.Response{data=map[string]interface{}}
// @Router / [get]
func (h *Handler) Index(c *gin.Context) {
	feed, err := h.listing.ListAll(c.Request.Context(), paginator.ParseNumber(c.Query("page")))
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, gin.H{"page_obj": feed.Page})
}

// GroupPosts 分组帖子
// @Summary 分组帖子列表
// @Tags 帖子
// @Produce json
// @Param slug path string true "分组 slug"
// @Param page query int false "页码" default(1)
// @Success 200 {object} response.Response{data=map[string]interface{}}
// @Failure 404 {object} response.Response
// @Router /group/{slug}/ [get]
func (h *Handler) GroupPosts(c *gin.Context) {
	feed, err := h.listing.ListByGroup(c.Request.Context(), c.Param("slug"), paginator.ParseNumber(c.Query("page")))
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, gin.H{"group": feed.Group, "page_obj": feed.Page})
}

// Profile 作者主页
// @Summary 作者帖子列表
// @Tags 帖子
// @Produce json
// @Param username path string true "作者用户名"
// @Param page query int false "页码" default(1)
// @Success 200 {object} response.Response{data=map[string]interface{}}
// @Failure 404 {object} response.Response
// @Router /profile/{username}/ [get]
func (h *Handler) Profile(c *gin.Context) {
	feed, err := h.listing.ListByAuthor(c.Request.Context(), c.Param("username"), paginator.ParseNumber(c.Query("page")))
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, gin.H{"author": feed.Author, "page_obj": feed.Page})
}

// PostDetail 帖子详情
// @Summary 帖子详情
// @Tags 帖子
// @Produce json
// @Param post_id path int true "帖子 id"
// @Success 200 {object} response.Response{data=map[string]interface{}}
// @Failure 404 {object} response.Response
// @Router /posts/{post_id}/ [get]
func (h *Handler) PostDetail(c *gin.Context) {
	id, ok := parsePostID(c)
	if !ok {
		response.NotFound(c, "not found")
		return
	}
	post, err := h.listing.GetDetail(c.Request.Context(), id)
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, gin.H{"post": post})
}

// PostCreate 发帖：GET 返回空表单，POST 校验并保存
// @Summary 发帖
// @Tags 帖子
// @Accept x-www-form-urlencoded,json
// @Produce json
// @Param text formData string true "帖子正文"
// @Param group formData string false "分组 id"
// @Success 200 {object} response.Response{data=map[string]interface{}} "表单，或带错误信息的表单"
// @Success 302 "跳转到作者主页"
// @Router /create/ [get]
// @Router /create/ [post]
func (h *Handler) PostCreate(c *gin.Context) {
	ctx := c.Request.Context()
	callerID, _ := middleware.CallerID(c)

	if c.Request.Method != http.MethodPost {
		h.renderForm(c, service.PostForm{}, nil, false)
		return
	}

	var form service.PostForm
	if err := c.ShouldBind(&form); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	if _, err := h.authoring.CreatePost(ctx, callerID, form); err != nil {
		if ve, ok := service.AsValidation(err); ok {
			h.renderForm(c, form, ve.Fields, false)
			return
		}
		fail(c, err)
		return
	}
	c.Redirect(http.StatusFound, profilePath(middleware.CallerUsername(c)))
}

// PostEdit 编辑帖子：仅作者可编辑，其他人跳转到详情页
// @Summary 编辑帖子
// @Tags 帖子
// @Accept x-www-form-urlencoded,json
// @Produce json
// @Param post_id path int true "帖子 id"
// @Param text formData string true "帖子正文"
// @Param group formData string false "分组 id"
// @Success 200 {object} response.Response{data=map[string]interface{}} "带 is_edit 的表单"
// @Success 302 "跳转到帖子详情"
// @Failure 404 {object} response.Response
// @Router /posts/{post_id}/edit/ [get]
// @Router /posts/{post_id}/edit/ [post]
func (h *Handler) PostEdit(c *gin.Context) {
	ctx := c.Request.Context()
	callerID, _ := middleware.CallerID(c)
	id, ok := parsePostID(c)
	if !ok {
		response.NotFound(c, "not found")
		return
	}

	post, err := h.authoring.PostForEdit(ctx, callerID, id)
	if errors.Is(err, service.ErrForbidden) {
		c.Redirect(http.StatusFound, detailPath(id))
		return
	}
	if err != nil {
		fail(c, err)
		return
	}

	if c.Request.Method != http.MethodPost {
		h.renderForm(c, service.FormFromPost(post), nil, true)
		return
	}

	var form service.PostForm
	if err := c.ShouldBind(&form); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	if _, err := h.authoring.EditPost(ctx, callerID, id, form); err != nil {
		if ve, ok := service.AsValidation(err); ok {
			h.renderForm(c, form, ve.Fields, true)
			return
		}
		if errors.Is(err, service.ErrForbidden) {
			c.Redirect(http.StatusFound, detailPath(id))
			return
		}
		fail(c, err)
		return
	}
	c.Redirect(http.StatusFound, detailPath(id))
}

func (h *Handler) renderForm(c *gin.Context, bound service.PostForm, errs map[string][]string, isEdit bool) {
	view, err := h.authoring.Form(c.Request.Context(), bound)
	if err != nil {
		fail(c, err)
		return
	}
	data := gin.H{"form": view}
	if errs != nil {
		data["errors"] = errs
	}
	if isEdit {
		data["is_edit"] = true
	}
	response.Success(c, data)
}

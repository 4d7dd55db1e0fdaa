package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/latifiss/oak/internal/content"
	"github.com/latifiss/oak/internal/models"
)

type articleHandler struct {
	router *Router
	svc    *content.ArticleService
}

func (h *articleHandler) create(c *gin.Context) {
	var req models.ArticleCreateRequest
	if err := c.ShouldBind(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}

	image, err := readImage(c)
	if err != nil {
		h.router.respondError(c, err)
		return
	}

	a, err := h.svc.Create(c.Request.Context(), &req, image)
	if err != nil {
		h.router.respondError(c, err)
		return
	}
	respondData(c, http.StatusCreated, a, false)
}

func (h *articleHandler) getByID(c *gin.Context) {
	a, cached, err := h.svc.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.router.respondError(c, err)
		return
	}
	respondData(c, http.StatusOK, a, cached)
}

func (h *articleHandler) getBySlug(c *gin.Context) {
	a, cached, err := h.svc.GetBySlug(c.Request.Context(), c.Param("slug"))
	if err != nil {
		h.router.respondError(c, err)
		return
	}
	respondData(c, http.StatusOK, a, cached)
}

func (h *articleHandler) list(c *gin.Context) {
	filter := models.ArticleFilter{
		Category:    c.Query("category"),
		SectionSlug: c.Query("section"),
		Tag:         c.Query("tag"),
	}
	page, limit := pageParams(c)

	p, cached, err := h.svc.List(c.Request.Context(), filter, page, limit)
	if err != nil {
		h.router.respondError(c, err)
		return
	}
	respondList(c, p.Results, p.Total, p.TotalPages, p.Page, cached)
}

func (h *articleHandler) byFlag(status string) gin.HandlerFunc {
	return func(c *gin.Context) {
		page, limit := pageParams(c)
		p, cached, err := h.svc.ByStatus(c.Request.Context(), status, page, limit)
		if err != nil {
			h.router.respondError(c, err)
			return
		}
		respondList(c, p.Results, p.Total, p.TotalPages, p.Page, cached)
	}
}

func (h *articleHandler) byStatus(c *gin.Context) {
	page, limit := pageParams(c)
	p, cached, err := h.svc.ByStatus(c.Request.Context(), c.Param("status"), page, limit)
	if err != nil {
		h.router.respondError(c, err)
		return
	}
	respondList(c, p.Results, p.Total, p.TotalPages, p.Page, cached)
}

func (h *articleHandler) headline(c *gin.Context) {
	a, cached, err := h.svc.Headline(c.Request.Context())
	if err != nil {
		h.router.respondError(c, err)
		return
	}
	respondData(c, http.StatusOK, a, cached)
}

func (h *articleHandler) search(c *gin.Context) {
	results, cached, err := h.svc.Search(c.Request.Context(), c.Query("q"))
	if err != nil {
		h.router.respondError(c, err)
		return
	}
	respondList(c, results, int64(len(results)), 1, 1, cached)
}

func (h *articleHandler) similar(c *gin.Context) {
	results, cached, err := h.svc.Similar(c.Request.Context(), c.Param("slug"))
	if err != nil {
		h.router.respondError(c, err)
		return
	}
	respondList(c, results, int64(len(results)), 1, 1, cached)
}

func (h *articleHandler) update(c *gin.Context) {
	var req models.ArticleUpdateRequest
	if err := c.ShouldBind(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}

	image, err := readImage(c)
	if err != nil {
		h.router.respondError(c, err)
		return
	}

	a, err := h.svc.Update(c.Request.Context(), c.Param("id"), &req, image)
	if err != nil {
		h.router.respondError(c, err)
		return
	}
	respondData(c, http.StatusOK, a, false)
}

func (h *articleHandler) delete(c *gin.Context) {
	if err := h.svc.Delete(c.Request.Context(), c.Param("id")); err != nil {
		h.router.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "success"})
}

func (h *articleHandler) appendLiveBlock(c *gin.Context) {
	var req models.LiveBlockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}

	a, err := h.svc.AppendLiveBlock(c.Request.Context(), c.Param("slug"), &req)
	if err != nil {
		h.router.respondError(c, err)
		return
	}
	respondData(c, http.StatusCreated, a, false)
}

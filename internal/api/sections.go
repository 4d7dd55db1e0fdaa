package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/latifiss/oak/internal/content"
	"github.com/latifiss/oak/internal/models"
)

type sectionHandler struct {
	router *Router
	svc    *content.SectionService
}

func (h *sectionHandler) create(c *gin.Context) {
	var req models.SectionCreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}

	sec, err := h.svc.Create(c.Request.Context(), &req)
	if err != nil {
		h.router.respondError(c, err)
		return
	}
	respondData(c, http.StatusCreated, sec, false)
}

func (h *sectionHandler) getByID(c *gin.Context) {
	sec, cached, err := h.svc.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.router.respondError(c, err)
		return
	}
	respondData(c, http.StatusOK, sec, cached)
}

func (h *sectionHandler) getBySlug(c *gin.Context) {
	sec, cached, err := h.svc.GetBySlug(c.Request.Context(), c.Param("slug"))
	if err != nil {
		h.router.respondError(c, err)
		return
	}
	respondData(c, http.StatusOK, sec, cached)
}

func (h *sectionHandler) list(c *gin.Context) {
	activeOnly := c.Query("active") == "true"
	sections, cached, err := h.svc.List(c.Request.Context(), activeOnly)
	if err != nil {
		h.router.respondError(c, err)
		return
	}
	respondList(c, sections, int64(len(sections)), 1, 1, cached)
}

func (h *sectionHandler) update(c *gin.Context) {
	var req models.SectionUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}

	sec, err := h.svc.Update(c.Request.Context(), c.Param("id"), &req)
	if err != nil {
		h.router.respondError(c, err)
		return
	}
	respondData(c, http.StatusOK, sec, false)
}

func (h *sectionHandler) delete(c *gin.Context) {
	if err := h.svc.Delete(c.Request.Context(), c.Param("id")); err != nil {
		h.router.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "success"})
}

func (h *sectionHandler) syncCounts(c *gin.Context) {
	if err := h.svc.RecountAll(c.Request.Context()); err != nil {
		h.router.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "success"})
}

func (h *sectionHandler) feature(c *gin.Context) {
	sec, err := h.svc.Feature(c.Request.Context(), c.Param("id"), c.Param("articleId"))
	if err != nil {
		h.router.respondError(c, err)
		return
	}
	respondData(c, http.StatusOK, sec, false)
}

func (h *sectionHandler) unfeature(c *gin.Context) {
	sec, err := h.svc.Unfeature(c.Request.Context(), c.Param("id"), c.Param("articleId"))
	if err != nil {
		h.router.respondError(c, err)
		return
	}
	respondData(c, http.StatusOK, sec, false)
}

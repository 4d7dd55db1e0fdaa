package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/latifiss/oak/internal/content"
	"github.com/latifiss/oak/internal/models"
)

type documentHandler struct {
	router *Router
	svc    *content.DocumentService
}

func (h *documentHandler) create(c *gin.Context) {
	var req models.DocumentCreateRequest
	if err := c.ShouldBind(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}

	image, err := readImage(c)
	if err != nil {
		h.router.respondError(c, err)
		return
	}

	d, err := h.svc.Create(c.Request.Context(), &req, image)
	if err != nil {
		h.router.respondError(c, err)
		return
	}
	respondData(c, http.StatusCreated, d, false)
}

func (h *documentHandler) getByID(c *gin.Context) {
	d, cached, err := h.svc.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.router.respondError(c, err)
		return
	}
	respondData(c, http.StatusOK, d, cached)
}

func (h *documentHandler) getBySlug(c *gin.Context) {
	d, cached, err := h.svc.GetBySlug(c.Request.Context(), c.Param("slug"))
	if err != nil {
		h.router.respondError(c, err)
		return
	}
	respondData(c, http.StatusOK, d, cached)
}

func (h *documentHandler) list(c *gin.Context) {
	page, limit := pageParams(c)
	p, cached, err := h.svc.List(c.Request.Context(), c.Query("category"), page, limit)
	if err != nil {
		h.router.respondError(c, err)
		return
	}
	respondList(c, p.Results, p.Total, p.TotalPages, p.Page, cached)
}

func (h *documentHandler) update(c *gin.Context) {
	var req models.DocumentUpdateRequest
	if err := c.ShouldBind(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}

	image, err := readImage(c)
	if err != nil {
		h.router.respondError(c, err)
		return
	}

	d, err := h.svc.Update(c.Request.Context(), c.Param("id"), &req, image)
	if err != nil {
		h.router.respondError(c, err)
		return
	}
	respondData(c, http.StatusOK, d, false)
}

func (h *documentHandler) delete(c *gin.Context) {
	if err := h.svc.Delete(c.Request.Context(), c.Param("id")); err != nil {
		h.router.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "success"})
}

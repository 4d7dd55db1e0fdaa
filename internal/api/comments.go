package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/latifiss/oak/internal/content"
	"github.com/latifiss/oak/internal/models"
)

type commentHandler struct {
	router *Router
	svc    *content.ArticleService
}

func (h *commentHandler) add(c *gin.Context) {
	var req models.CommentCreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}

	a, err := h.svc.AddComment(c.Request.Context(), c.Param("slug"), &req)
	if err != nil {
		h.router.respondError(c, err)
		return
	}
	respondData(c, http.StatusCreated, a, false)
}

func (h *commentHandler) edit(c *gin.Context) {
	var req models.CommentEditRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}

	a, err := h.svc.EditComment(c.Request.Context(), c.Param("slug"), c.Param("commentId"), &req)
	if err != nil {
		h.router.respondError(c, err)
		return
	}
	respondData(c, http.StatusOK, a, false)
}

func (h *commentHandler) delete(c *gin.Context) {
	a, err := h.svc.DeleteComment(c.Request.Context(), c.Param("slug"), c.Param("commentId"))
	if err != nil {
		h.router.respondError(c, err)
		return
	}
	respondData(c, http.StatusOK, a, false)
}

func (h *commentHandler) addReply(c *gin.Context) {
	var req models.CommentCreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}

	a, err := h.svc.AddReply(c.Request.Context(), c.Param("slug"), c.Param("commentId"), &req)
	if err != nil {
		h.router.respondError(c, err)
		return
	}
	respondData(c, http.StatusCreated, a, false)
}

func (h *commentHandler) vote(c *gin.Context) {
	var req models.VoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}

	a, err := h.svc.VoteComment(c.Request.Context(), c.Param("slug"), c.Param("commentId"), &req)
	if err != nil {
		h.router.respondError(c, err)
		return
	}
	respondData(c, http.StatusOK, a, false)
}

func (h *commentHandler) voteReply(c *gin.Context) {
	var req models.VoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}

	a, err := h.svc.VoteReply(c.Request.Context(), c.Param("slug"), c.Param("commentId"), c.Param("replyId"), &req)
	if err != nil {
		h.router.respondError(c, err)
		return
	}
	respondData(c, http.StatusOK, a, false)
}

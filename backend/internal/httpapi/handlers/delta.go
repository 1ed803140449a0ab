package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"deltaServer/backend/internal/collab"
	"deltaServer/backend/internal/ot/delta"
	"deltaServer/backend/internal/ot/textdiff"
)

// 请求体里缺省的 delta 一律当作空 delta
type composeRequest struct {
	A *delta.Delta `json:"a"`
	B *delta.Delta `json:"b"`
}

type transformRequest struct {
	A        *delta.Delta `json:"a"`
	B        *delta.Delta `json:"b"`
	Priority bool         `json:"priority"`
}

type transformPositionRequest struct {
	Delta    *delta.Delta `json:"delta"`
	Index    int          `json:"index"`
	Priority bool         `json:"priority"`
}

type invertRequest struct {
	Delta *delta.Delta `json:"delta"`
	Base  *delta.Delta `json:"base"`
}

type diffRequest struct {
	A      *delta.Delta     `json:"a"`
	B      *delta.Delta     `json:"b"`
	Cursor *textdiff.Cursor `json:"cursor"`
}

type sliceRequest struct {
	Delta *delta.Delta `json:"delta"`
	Start int          `json:"start"`
	End   *int         `json:"end"` // 不传表示到末尾
}

type DeltaHandler struct {
	svc collab.Service
}

func NewDeltaHandler(svc collab.Service) *DeltaHandler {
	return &DeltaHandler{svc: svc}
}

func (h *DeltaHandler) RegisterRoutes(r gin.IRouter) {
	g := r.Group("/delta")
	g.POST("/compose", h.Compose)
	g.POST("/transform", h.Transform)
	g.POST("/transform-position", h.TransformPosition)
	g.POST("/invert", h.Invert)
	g.POST("/diff", h.Diff)
	g.POST("/slice", h.Slice)
}

func orEmpty(d *delta.Delta) *delta.Delta {
	if d == nil {
		return delta.New()
	}
	return d
}

func (h *DeltaHandler) Compose(c *gin.Context) {
	var req composeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, h.svc.Compose(orEmpty(req.A), orEmpty(req.B)))
}

func (h *DeltaHandler) Transform(c *gin.Context) {
	var req transformRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, h.svc.Transform(orEmpty(req.A), orEmpty(req.B), req.Priority))
}

func (h *DeltaHandler) TransformPosition(c *gin.Context) {
	var req transformPositionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"index": h.svc.TransformPosition(orEmpty(req.Delta), req.Index, req.Priority)})
}

func (h *DeltaHandler) Invert(c *gin.Context) {
	var req invertRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, h.svc.Invert(orEmpty(req.Delta), orEmpty(req.Base)))
}

func (h *DeltaHandler) Diff(c *gin.Context) {
	var req diffRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	d, err := h.svc.Diff(c.Request.Context(), orEmpty(req.A), orEmpty(req.B), req.Cursor)
	switch {
	case errors.Is(err, delta.ErrNonDocument):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	case errors.Is(err, collab.ErrBusy):
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
		return
	case err != nil:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, d)
}

func (h *DeltaHandler) Slice(c *gin.Context) {
	var req sliceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	end := delta.Infinity
	if req.End != nil {
		end = *req.End
	}
	c.JSON(http.StatusOK, h.svc.Slice(orEmpty(req.Delta), req.Start, end))
}

package controllers

import (
	"net/http"

	"lablend/app"
	"lablend/lend"

	"github.com/gin-gonic/gin"
)

type MaterialController struct{ *Srv }

func NewMaterialController(s *Srv) *MaterialController { return &MaterialController{Srv: s} }

type materialBody struct {
	Name        string `json:"name" binding:"required"`
	Category    string `json:"category"`
	Description string `json:"description"`
	Quantity    int    `json:"quantity"`
	Available   int    `json:"available"`
	Location    string `json:"location"`
	ImageURL    string `json:"imageUrl"`
}

func (b materialBody) input() lend.MaterialInput {
	return lend.MaterialInput{
		Name:        b.Name,
		Category:    b.Category,
		Description: b.Description,
		Quantity:    b.Quantity,
		Available:   b.Available,
		Location:    b.Location,
		ImageURL:    b.ImageURL,
	}
}

// GET /api/materials
func (mc *MaterialController) List(c *gin.Context) {
	ms, err := mc.Engine.ListMaterials(c.Request.Context())
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, app.H{"materials": ms})
}

// GET /api/materials/:id. An absent material yields a null body, not
// an error.
func (mc *MaterialController) Get(c *gin.Context) {
	m, err := mc.Engine.GetMaterial(c.Request.Context(), c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, app.H{"material": m})
}

// POST /api/materials
func (mc *MaterialController) Create(c *gin.Context) {
	var in materialBody
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, app.H{"error": err.Error()})
		return
	}
	id, err := mc.Engine.UpsertMaterial(c.Request.Context(), "", in.input())
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, app.H{"id": id})
}

// PUT /api/materials/:id
func (mc *MaterialController) Update(c *gin.Context) {
	var in materialBody
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, app.H{"error": err.Error()})
		return
	}
	id, err := mc.Engine.UpsertMaterial(c.Request.Context(), c.Param("id"), in.input())
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, app.H{"id": id})
}

// DELETE /api/materials/:id
func (mc *MaterialController) Delete(c *gin.Context) {
	if err := mc.Engine.DeleteMaterial(c.Request.Context(), c.Param("id")); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, app.H{"ok": true})
}

// POST /api/materials/:id/image takes a multipart upload, stores the
// file under materials/<id>/ and saves the returned URL on the material.
func (mc *MaterialController) UploadImage(c *gin.Context) {
	if mc.Store == nil {
		c.JSON(http.StatusServiceUnavailable, app.H{"error": "image storage not configured"})
		return
	}
	id := c.Param("id")
	ctx := c.Request.Context()

	m, err := mc.Engine.GetMaterial(ctx, id)
	if err != nil {
		fail(c, err)
		return
	}
	if m == nil {
		c.JSON(http.StatusNotFound, app.H{"error": "material not found"})
		return
	}

	fh, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, app.H{"error": "missing file"})
		return
	}
	f, err := fh.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, app.H{"error": err.Error()})
		return
	}
	defer f.Close()

	url, err := mc.Store.UploadMaterialImage(ctx, id, fh.Filename, f, fh.Size, fh.Header.Get("Content-Type"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, app.H{"error": err.Error()})
		return
	}
	if err := mc.Repo.SetMaterialImage(ctx, id, url); err != nil {
		c.JSON(http.StatusInternalServerError, app.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, app.H{"imageUrl": url})
}

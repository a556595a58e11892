package controllers

import (
	"net/http"
	"strings"
	"time"

	"lablend/app"
	"lablend/lend"
	"lablend/models"

	"github.com/gin-gonic/gin"
)

type RequestController struct{ *Srv }

func NewRequestController(s *Srv) *RequestController { return &RequestController{Srv: s} }

// POST /api/requests submits a loan request. The requester identity
// always comes from the session, never from the body.
func (rc *RequestController) Create(c *gin.Context) {
	var in struct {
		MaterialID string    `json:"materialId" binding:"required"`
		StartDate  time.Time `json:"startDate" binding:"required"`
		EndDate    time.Time `json:"endDate" binding:"required"`
		Purpose    string    `json:"purpose"`
		Quantity   int       `json:"quantity"`
	}
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, app.H{"error": err.Error()})
		return
	}

	name, _ := c.Get("userName")
	email, _ := c.Get("userEmail")
	req, err := rc.Engine.CreateRequest(c.Request.Context(), lend.CreateRequestInput{
		UserID:       currentUserID(c),
		StudentName:  name.(string),
		StudentEmail: email.(string),
		MaterialID:   in.MaterialID,
		StartDate:    in.StartDate,
		EndDate:      in.EndDate,
		Purpose:      strings.TrimSpace(in.Purpose),
		Quantity:     in.Quantity,
	})
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, req)
}

// GET /api/requests/mine
func (rc *RequestController) ListMine(c *gin.Context) {
	reqs, err := rc.Engine.ListRequests(c.Request.Context(), models.RequestFilter{
		UserID: currentUserID(c),
	})
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, app.H{"requests": reqs})
}

// GET /api/requests?status=&userId=   (admin)
func (rc *RequestController) List(c *gin.Context) {
	f := models.RequestFilter{
		UserID: c.Query("userId"),
		Status: models.Status(c.Query("status")),
	}
	if f.Status != "" && !f.Status.Valid() {
		c.JSON(http.StatusBadRequest, app.H{"error": "unknown status"})
		return
	}
	reqs, err := rc.Engine.ListRequests(c.Request.Context(), f)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, app.H{"requests": reqs})
}

// GET /api/requests/:id. Owner or admin only.
func (rc *RequestController) Get(c *gin.Context) {
	req, err := rc.Engine.GetRequest(c.Request.Context(), c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}
	if req == nil {
		c.JSON(http.StatusOK, app.H{"request": nil})
		return
	}
	if isAdmin, _ := c.Get("isAdmin"); isAdmin != true && req.UserID != currentUserID(c) {
		c.JSON(http.StatusForbidden, app.H{"error": "forbidden"})
		return
	}
	c.JSON(http.StatusOK, app.H{"request": req})
}

// PATCH /api/requests/:id/status   (admin)
func (rc *RequestController) SetStatus(c *gin.Context) {
	var in struct {
		Status models.Status `json:"status" binding:"required"`
		Notes  string        `json:"notes"`
	}
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, app.H{"error": err.Error()})
		return
	}
	// A rejection must say why.
	if in.Status == models.StatusRejected && strings.TrimSpace(in.Notes) == "" {
		c.JSON(http.StatusBadRequest, app.H{"error": "rejection requires a reason"})
		return
	}

	req, err := rc.Engine.SetStatus(c.Request.Context(), c.Param("id"), in.Status, strings.TrimSpace(in.Notes))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, req)
}

// DELETE /api/requests/:id   (admin, hard delete)
func (rc *RequestController) Delete(c *gin.Context) {
	if err := rc.Engine.DeleteRequest(c.Request.Context(), c.Param("id")); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, app.H{"ok": true})
}

package controllers

import (
	"net/http"
	"strconv"

	"lablend/app"
	"lablend/models"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type UserController struct{ *Srv }

func NewUserController(s *Srv) *UserController { return &UserController{Srv: s} }

// GET /api/users?q=&page=&size=
func (uc *UserController) ListUsers(c *gin.Context) {
	q := c.Query("q")
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	size, _ := strconv.Atoi(c.DefaultQuery("size", "20"))

	res, err := uc.Repo.ListUsers(c.Request.Context(), q, page, size)
	if err != nil {
		c.JSON(http.StatusInternalServerError, app.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, app.H{
		"total": res.Total,
		"users": res.Users,
	})
}

// GET /api/users/:id
func (uc *UserController) GetUser(c *gin.Context) {
	id := c.Param("id")
	if _, err := uuid.Parse(id); err != nil {
		c.JSON(http.StatusBadRequest, app.H{"error": "invalid uuid"})
		return
	}
	user, err := uc.Repo.FindUserByID(c.Request.Context(), id)
	if err != nil {
		c.JSON(http.StatusNotFound, app.H{"error": "user not found"})
		return
	}
	c.JSON(http.StatusOK, app.H{"user": user})
}

// PUT /api/users/:id/role promotes or demotes. Besides registering
// with an invite, this is the only way an account becomes admin.
func (uc *UserController) SetRole(c *gin.Context) {
	var in struct {
		Role string `json:"role" binding:"required,oneof=student admin"`
	}
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, app.H{"error": err.Error()})
		return
	}
	id := c.Param("id")

	// Demoting yourself could lock the deployment out of admin.
	if id == currentUserID(c) && in.Role != models.RoleAdmin {
		c.JSON(http.StatusBadRequest, app.H{"error": "cannot demote yourself"})
		return
	}
	if _, err := uc.Repo.FindUserByID(c.Request.Context(), id); err != nil {
		c.JSON(http.StatusNotFound, app.H{"error": "user not found"})
		return
	}
	if err := uc.Repo.SetUserRole(c.Request.Context(), id, in.Role); err != nil {
		c.JSON(http.StatusInternalServerError, app.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, app.H{"ok": true})
}

// DELETE /api/users/:id
func (uc *UserController) DeleteUser(c *gin.Context) {
	id := c.Param("id")
	if id == currentUserID(c) {
		c.JSON(http.StatusBadRequest, app.H{"error": "cannot delete yourself"})
		return
	}

	target, err := uc.Repo.FindUserByID(c.Request.Context(), id)
	if err != nil {
		c.JSON(http.StatusNotFound, app.H{"error": "user not found"})
		return
	}
	if target.IsAdmin() {
		c.JSON(http.StatusForbidden, app.H{"error": "cannot delete an admin"})
		return
	}

	if err := uc.Repo.DeleteUserByID(c.Request.Context(), id); err != nil {
		c.JSON(http.StatusInternalServerError, app.H{"error": err.Error()})
		return
	}
	// Any live sessions of the deleted user become invalid now.
	_ = uc.AppSess.RevokeAllForUser(c.Request.Context(), id)
	c.JSON(http.StatusOK, app.H{"ok": true})
}

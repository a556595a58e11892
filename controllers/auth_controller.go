package controllers

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"lablend/app"
	"lablend/models"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

type AuthController struct{ *Srv }

func NewAuthController(s *Srv) *AuthController { return &AuthController{Srv: s} }

// POST /api/auth/register
// An invite token turns the new account into an admin; otherwise the
// role is student. Roles are never derived from the email address.
func (ac *AuthController) Register(c *gin.Context) {
	var in struct {
		Email       string `json:"email" binding:"required,email"`
		Password    string `json:"password" binding:"required,min=8"`
		Name        string `json:"name" binding:"required"`
		Phone       string `json:"phone"`
		InviteToken string `json:"inviteToken"`
	}
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, app.H{"error": err.Error()})
		return
	}
	ctx := c.Request.Context()
	email := strings.ToLower(strings.TrimSpace(in.Email))

	if _, err := ac.Repo.FindUserByEmail(ctx, email); err == nil {
		c.JSON(http.StatusConflict, app.H{"error": "email already registered"})
		return
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		c.JSON(http.StatusInternalServerError, app.H{"error": err.Error()})
		return
	}

	role := models.RoleStudent
	if in.InviteToken != "" {
		inv, err := ac.Repo.GetInviteByToken(ctx, in.InviteToken)
		if err != nil || inv.UsedAt != nil || time.Now().After(inv.ExpiresAt) {
			c.JSON(http.StatusForbidden, app.H{"error": "invalid or expired invite"})
			return
		}
		if !strings.EqualFold(inv.Email, email) {
			c.JSON(http.StatusForbidden, app.H{"error": "invite was issued for a different email"})
			return
		}
		role = models.RoleAdmin
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), 12)
	if err != nil {
		c.JSON(http.StatusInternalServerError, app.H{"error": "hash password failed"})
		return
	}

	u := &models.User{
		ID:           uuid.NewString(),
		Email:        email,
		DisplayName:  in.Name,
		Phone:        in.Phone,
		Role:         role,
		PasswordHash: string(hash),
	}
	if err := ac.Repo.CreateUser(ctx, u); err != nil {
		c.JSON(http.StatusInternalServerError, app.H{"error": err.Error()})
		return
	}
	if in.InviteToken != "" {
		_ = ac.Repo.MarkInviteUsed(ctx, in.InviteToken)
	}

	if err := ac.issueSession(ctx, c.Writer, u.ID, c.ClientIP(), c.Request.UserAgent()); err != nil {
		c.JSON(http.StatusInternalServerError, app.H{"error": "create session failed"})
		return
	}
	c.JSON(http.StatusCreated, app.H{"user": u})
}

// POST /api/auth/login
func (ac *AuthController) Login(c *gin.Context) {
	var in struct {
		Email    string `json:"email" binding:"required,email"`
		Password string `json:"password" binding:"required"`
		Name     string `json:"name"`
		Phone    string `json:"phone"`
	}
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, app.H{"error": err.Error()})
		return
	}
	ctx := c.Request.Context()

	u, err := ac.Repo.FindUserByEmail(ctx, strings.ToLower(in.Email))
	if err != nil {
		c.JSON(http.StatusUnauthorized, app.H{"error": "invalid credentials"})
		return
	}
	if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(in.Password)) != nil {
		c.JSON(http.StatusUnauthorized, app.H{"error": "invalid credentials"})
		return
	}

	// Keep profile fields in sync when the client sends them.
	_ = ac.Repo.UpdateUserProfile(ctx, u.ID, in.Name, in.Phone)

	if err := ac.issueSession(ctx, c.Writer, u.ID, c.ClientIP(), c.Request.UserAgent()); err != nil {
		c.JSON(http.StatusInternalServerError, app.H{"error": "create session failed"})
		return
	}
	c.JSON(http.StatusOK, app.H{"user": u})
}

// POST /api/auth/logout
func (ac *AuthController) Logout(c *gin.Context) {
	if ck, err := c.Request.Cookie(app.AppSessionCookie); err == nil && ck.Value != "" {
		_ = ac.AppSess.Delete(c.Request.Context(), ck.Value)
	}
	secure := strings.HasPrefix(ac.WebOrigin, "https://")
	http.SetCookie(c.Writer, &http.Cookie{
		Name:     app.AppSessionCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		Secure:   secure,
	})
	c.JSON(http.StatusOK, app.H{"ok": true})
}

// GET /api/auth/me
func (ac *AuthController) Me(c *gin.Context) {
	uid := currentUserID(c)
	u, err := ac.Repo.FindUserByID(c.Request.Context(), uid)
	if err != nil {
		c.JSON(http.StatusUnauthorized, app.H{"error": "unauthorized"})
		return
	}
	c.JSON(http.StatusOK, app.H{"user": u})
}

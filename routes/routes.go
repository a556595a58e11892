package routes

import (
	"time"

	"lablend/app"
	"lablend/controllers"

	"github.com/gin-gonic/gin"
)

func RegisterRoutes(r *gin.Engine, a *app.App) {
	s := controllers.GetSrv(a)
	ac := controllers.NewAuthController(s)
	mc := controllers.NewMaterialController(s)
	rc := controllers.NewRequestController(s)
	uc := controllers.NewUserController(s)
	ic := controllers.GetInviteController(s)

	authMW := app.AuthRequired(s.AppSess, s.Repo)
	adminMW := app.AdminOnly()
	seenMW := app.TouchLastSeen(s.Repo, a.RDB, 5*time.Minute)

	// ------------------------------
	// Auth (public + protected)
	// ------------------------------
	auth := r.Group("/api/auth")
	{
		auth.POST("/register", ac.Register)
		auth.POST("/login", ac.Login)
	}
	authed := r.Group("/api/auth", authMW, seenMW)
	{
		authed.POST("/logout", ac.Logout)
		authed.GET("/me", ac.Me)
	}

	// Optional passkey login
	pk := r.Group("/api/passkeys")
	{
		pk.POST("/login/begin", s.BeginPasskeyLogin)
		pk.POST("/login/finish", s.FinishPasskeyLogin)
	}
	pkAuth := r.Group("/api/passkeys", authMW, seenMW)
	{
		pkAuth.POST("/add/begin", s.BeginAddPasskey)
		pkAuth.POST("/add/finish", s.FinishAddPasskey)
	}

	// ------------------------------
	// Catalog (any signed-in user)
	// ------------------------------
	materials := r.Group("/api/materials", authMW, seenMW)
	{
		materials.GET("", mc.List)
		materials.GET("/:id", mc.Get)
	}

	// Inventory management (admin)
	materialsAdmin := r.Group("/api/materials", authMW, adminMW)
	{
		materialsAdmin.POST("", mc.Create)
		materialsAdmin.PUT("/:id", mc.Update)
		materialsAdmin.DELETE("/:id", mc.Delete)
		materialsAdmin.POST("/:id/image", mc.UploadImage)
	}

	// ------------------------------
	// Loan requests
	// ------------------------------
	requests := r.Group("/api/requests", authMW, seenMW)
	{
		requests.POST("", rc.Create)
		requests.GET("/mine", rc.ListMine)
		requests.GET("/:id", rc.Get)
	}
	requestsAdmin := r.Group("/api/requests", authMW, adminMW)
	{
		requestsAdmin.GET("", rc.List)
		requestsAdmin.PATCH("/:id/status", rc.SetStatus)
		requestsAdmin.DELETE("/:id", rc.Delete)
	}

	// ------------------------------
	// Users + invites (admin)
	// ------------------------------
	admin := r.Group("/admin", authMW, adminMW)
	{
		admin.POST("/invites", ic.CreateInvite)
	}
	users := r.Group("/api/users", authMW, adminMW)
	{
		users.GET("", uc.ListUsers)
		users.GET("/:id", uc.GetUser)
		users.PUT("/:id/role", uc.SetRole)
		users.DELETE("/:id", uc.DeleteUser)
	}
}

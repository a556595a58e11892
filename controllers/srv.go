package controllers

import (
	"context"
	"net/http"
	"strings"
	"time"

	"lablend/app"
	"lablend/db"
	"lablend/lend"
	"lablend/models"
	"lablend/session"
	"lablend/storage"

	"github.com/gin-gonic/gin"
	"github.com/go-webauthn/webauthn/webauthn"
	"github.com/google/uuid"
)

// Srv bundles what every controller needs.
type Srv struct {
	Repo      *db.Repo
	Engine    *lend.Engine
	WA        *webauthn.WebAuthn
	Sess      *session.CeremonyStore
	AppSess   *session.AppSessionStore
	Store     *storage.Client
	WebOrigin string
	Cfg       app.Config
}

func GetSrv(a *app.App) *Srv {
	repo := db.NewRepo(a.DB)
	return &Srv{
		Repo:      repo,
		Engine:    lend.NewEngine(repo, repo),
		WA:        a.WA,
		Sess:      session.NewCeremonyStore(a.RDB, a.Config.SessionTTL),
		AppSess:   a.AppSessions(),
		Store:     a.Store,
		WebOrigin: a.Config.WebOrigin,
		Cfg:       a.Config,
	}
}

// fail writes the engine error with its mapped status code.
func fail(c *gin.Context, err error) {
	c.JSON(lend.StatusFor(err), app.H{"error": err.Error()})
}

func currentUserID(c *gin.Context) string {
	v, _ := c.Get("userID")
	uid, _ := v.(string)
	return uid
}

func (s *Srv) setAppCookie(w http.ResponseWriter, sessionID string, maxAge time.Duration) {
	secure := strings.HasPrefix(s.WebOrigin, "https://")
	http.SetCookie(w, &http.Cookie{
		Name:     app.AppSessionCookie,
		Value:    sessionID,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		Secure:   secure,
		MaxAge:   int(maxAge / time.Second),
	})
}

func (s *Srv) issueSession(ctx context.Context, w http.ResponseWriter, userID, ip, ua string) error {
	_ = s.Repo.TouchUserLogin(ctx, userID, ip, ua)
	id := uuid.NewString()
	if err := s.AppSess.Create(ctx, id, userID); err != nil {
		return err
	}
	s.setAppCookie(w, id, 24*time.Hour)
	return nil
}

// waUser adapts a DB user (and its stored passkeys) to the webauthn API.
type waUser struct {
	user  models.User
	creds []webauthn.Credential
}

func (u *waUser) WebAuthnID() []byte          { id, _ := uuid.Parse(u.user.ID); return id[:] }
func (u *waUser) WebAuthnName() string        { return u.user.Email }
func (u *waUser) WebAuthnDisplayName() string { return u.user.DisplayName }
func (u *waUser) WebAuthnIcon() string        { return "" }
func (u *waUser) WebAuthnCredentials() []webauthn.Credential { return u.creds }

func toWaCred(c models.Credential) webauthn.Credential {
	return webauthn.Credential{
		ID:              c.CredentialID,
		PublicKey:       c.PublicKey,
		AttestationType: c.AttestationType,
		Authenticator: webauthn.Authenticator{
			AAGUID:       c.AAGUID,
			SignCount:    c.SignCount,
			CloneWarning: c.CloneWarning,
		},
		Flags: webauthn.CredentialFlags{
			BackupEligible: c.BackupEligible,
			BackupState:    c.BackupState,
		},
	}
}

func (s *Srv) loadWAUserByID(ctx context.Context, id string) (*waUser, error) {
	u, err := s.Repo.FindUserByID(ctx, id)
	if err != nil {
		return nil, err
	}
	cs, _ := s.Repo.LoadUserCredentials(ctx, u.ID)
	ws := make([]webauthn.Credential, 0, len(cs))
	for _, c := range cs {
		ws = append(ws, toWaCred(c))
	}
	return &waUser{user: *u, creds: ws}, nil
}

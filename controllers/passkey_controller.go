package controllers

import (
	"context"
	"time"

	"lablend/app"
	"lablend/models"

	"github.com/gin-gonic/gin"
	"github.com/go-webauthn/webauthn/protocol"
	"github.com/go-webauthn/webauthn/webauthn"
	"github.com/google/uuid"
)

// Passkeys are an optional second login path: a logged-in user adds a
// credential, then signs in with a discoverable login later.

// POST /api/passkeys/add/begin
func (s *Srv) BeginAddPasskey(c *gin.Context) {
	uid := currentUserID(c)
	ctx, cancel := context.WithTimeout(c, 3*time.Second)
	defer cancel()

	wUser, err := s.loadWAUserByID(ctx, uid)
	if err != nil {
		c.JSON(401, app.H{"error": "unauthorized"})
		return
	}

	opts, sd, err := s.WA.BeginRegistration(
		wUser,
		webauthn.WithResidentKeyRequirement(protocol.ResidentKeyRequirementRequired),
		webauthn.WithAuthenticatorSelection(protocol.AuthenticatorSelection{
			UserVerification: protocol.VerificationRequired,
		}),
	)
	if err != nil {
		c.JSON(500, app.H{"error": err.Error()})
		return
	}
	if err := s.Sess.SaveReg(ctx, uid, sd); err != nil {
		c.JSON(500, app.H{"error": err.Error()})
		return
	}
	c.JSON(200, app.H{"opts": opts})
}

// POST /api/passkeys/add/finish
func (s *Srv) FinishAddPasskey(c *gin.Context) {
	uid := currentUserID(c)
	ctx, cancel := context.WithTimeout(c, 3*time.Second)
	defer cancel()

	wUser, err := s.loadWAUserByID(ctx, uid)
	if err != nil {
		c.JSON(401, app.H{"error": "unauthorized"})
		return
	}
	sd, err := s.Sess.LoadReg(ctx, uid)
	if err != nil {
		c.JSON(400, app.H{"error": "session expired or invalid"})
		return
	}

	cred, err := s.WA.FinishRegistration(wUser, *sd, c.Request)
	if err != nil {
		c.JSON(400, app.H{"error": err.Error()})
		return
	}

	if err := s.Repo.AddCredential(ctx, &models.Credential{
		UserID:          wUser.user.ID,
		CredentialID:    cred.ID,
		PublicKey:       cred.PublicKey,
		AttestationType: cred.AttestationType,
		AAGUID:          cred.Authenticator.AAGUID,
		SignCount:       cred.Authenticator.SignCount,
		CloneWarning:    cred.Authenticator.CloneWarning,
		BackupEligible:  cred.Flags.BackupEligible,
		BackupState:     cred.Flags.BackupState,
	}); err != nil {
		c.JSON(500, app.H{"error": err.Error()})
		return
	}
	s.Sess.DelReg(ctx, uid)
	c.JSON(200, app.H{"ok": true})
}

// POST /api/passkeys/login/begin
func (s *Srv) BeginPasskeyLogin(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c, 3*time.Second)
	defer cancel()

	opts, sd, err := s.WA.BeginDiscoverableLogin(webauthn.WithUserVerification(protocol.VerificationRequired))
	if err != nil {
		c.JSON(500, app.H{"error": err.Error()})
		return
	}

	sid := uuid.NewString()
	if err := s.Sess.SaveAuth(ctx, sid, sd); err != nil {
		c.JSON(500, app.H{"error": err.Error()})
		return
	}
	c.JSON(200, app.H{"options": opts, "sessionId": sid})
}

// POST /api/passkeys/login/finish?sessionId=
func (s *Srv) FinishPasskeyLogin(c *gin.Context) {
	sid := c.Query("sessionId")
	if sid == "" {
		c.JSON(400, app.H{"error": "missing sessionId"})
		return
	}
	ip, ua := c.ClientIP(), c.Request.UserAgent()

	ctx, cancel := context.WithTimeout(c, 3*time.Second)
	defer cancel()
	sd, err := s.Sess.LoadAuth(ctx, sid)
	if err != nil {
		c.JSON(400, app.H{"error": "session expired or invalid"})
		return
	}

	handler := func(rawID, _ []byte) (webauthn.User, error) {
		u, _, err := s.Repo.FindUserByCredentialID(ctx, rawID)
		if err != nil {
			return nil, protocol.ErrBadRequest.WithDetails("credential not found")
		}
		return s.loadWAUserByID(ctx, u.ID)
	}
	user, cred, err := s.WA.FinishPasskeyLogin(handler, *sd, c.Request)
	if err != nil {
		c.JSON(401, app.H{"error": err.Error()})
		return
	}
	userID := user.(*waUser).user.ID
	_ = s.Repo.UpdateCredentialCounter(ctx, cred.ID, cred.Authenticator.SignCount, cred.Authenticator.CloneWarning)
	_ = s.Repo.TouchCredentialUsed(ctx, cred.ID)
	s.Sess.DelAuth(ctx, sid)

	if err := s.issueSession(ctx, c.Writer, userID, ip, ua); err != nil {
		c.JSON(500, app.H{"error": "create session failed"})
		return
	}
	c.JSON(200, app.H{"ok": true})
}

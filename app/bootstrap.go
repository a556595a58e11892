package app

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"log"
	"time"

	"lablend/db"
)

// BootstrapFirstAdmin creates a one-time admin invite when the
// deployment has no admin account yet. The link is logged; registering
// with the token yields the first admin.
func BootstrapFirstAdmin(ctx context.Context, cfg Config, repo *db.Repo) {
	if cfg.BootstrapEmail == "" {
		return
	}
	n, err := repo.CountAdmins(ctx)
	if err != nil {
		log.Printf("bootstrap admin check failed: %v", err)
		return
	}
	if n > 0 {
		return
	}

	buf := make([]byte, 16)
	rand.Read(buf)
	token := hex.EncodeToString(buf)

	if _, err := repo.CreateInvite(ctx, cfg.BootstrapEmail, token, time.Now().Add(24*time.Hour), "bootstrap"); err != nil {
		log.Printf("bootstrap invite failed: %v", err)
		return
	}

	link := fmt.Sprintf("%s/register?inviteToken=%s", cfg.WebOrigin, token)
	log.Printf("[BOOTSTRAP] no admin found, created an admin invite for %s", cfg.BootstrapEmail)
	log.Printf("[BOOTSTRAP] open this URL to register the first admin: %s", link)
}

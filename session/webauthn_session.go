package session

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-webauthn/webauthn/webauthn"
	"github.com/redis/go-redis/v9"
)

// CeremonyStore parks in-flight WebAuthn ceremony data between the
// begin and finish calls.
type CeremonyStore struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewCeremonyStore(rdb *redis.Client, ttl time.Duration) *CeremonyStore {
	return &CeremonyStore{rdb: rdb, ttl: ttl}
}

func regKey(userID string) string { return fmt.Sprintf("lab:webauthn:reg:%s", userID) }
func authKey(sid string) string   { return fmt.Sprintf("lab:webauthn:auth:%s", sid) }

func (s *CeremonyStore) save(ctx context.Context, key string, sd *webauthn.SessionData) error {
	b, _ := json.Marshal(sd)
	return s.rdb.Set(ctx, key, b, s.ttl).Err()
}

func (s *CeremonyStore) load(ctx context.Context, key string) (*webauthn.SessionData, error) {
	b, err := s.rdb.Get(ctx, key).Bytes()
	if err != nil {
		return nil, err
	}
	var sd webauthn.SessionData
	if err := json.Unmarshal(b, &sd); err != nil {
		return nil, err
	}
	return &sd, nil
}

func (s *CeremonyStore) SaveReg(ctx context.Context, userID string, sd *webauthn.SessionData) error {
	return s.save(ctx, regKey(userID), sd)
}

func (s *CeremonyStore) LoadReg(ctx context.Context, userID string) (*webauthn.SessionData, error) {
	return s.load(ctx, regKey(userID))
}

func (s *CeremonyStore) DelReg(ctx context.Context, userID string) {
	_ = s.rdb.Del(ctx, regKey(userID)).Err()
}

func (s *CeremonyStore) SaveAuth(ctx context.Context, sid string, sd *webauthn.SessionData) error {
	return s.save(ctx, authKey(sid), sd)
}

func (s *CeremonyStore) LoadAuth(ctx context.Context, sid string) (*webauthn.SessionData, error) {
	return s.load(ctx, authKey(sid))
}

func (s *CeremonyStore) DelAuth(ctx context.Context, sid string) {
	_ = s.rdb.Del(ctx, authKey(sid)).Err()
}

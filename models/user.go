package models

import (
	"time"
)

const (
	RoleStudent = "student"
	RoleAdmin   = "admin"
)

// User is an account profile. Role lives here, never derived from the
// email address; admin accounts come from invites or promotion.
type User struct {
	ID           string `gorm:"primaryKey;type:uuid" json:"id"`
	Email        string `gorm:"uniqueIndex;size:255;not null" json:"email"`
	DisplayName  string `gorm:"size:255;not null" json:"displayName"`
	Phone        string `gorm:"size:40" json:"phone,omitempty"`
	Role         string `gorm:"size:20;not null;default:'student'" json:"role"`
	PasswordHash string `gorm:"size:100;not null" json:"-"`

	LastLoginAt *time.Time `gorm:"index" json:"lastLoginAt,omitempty"`
	LastSeenAt  *time.Time `gorm:"index" json:"lastSeenAt,omitempty"`
	LoginCount  int64      `gorm:"not null;default:0" json:"loginCount"`
	LastLoginIP string     `gorm:"size:45" json:"-"`
	LastLoginUA string     `gorm:"size:255" json:"-"`

	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
	Credentials []Credential
}

func (User) TableName() string { return "lab_users" }

func (u *User) IsAdmin() bool { return u.Role == RoleAdmin }

// Credential stores one registered passkey. CredentialID / PublicKey /
// AAGUID are binary, bytea under Postgres.
type Credential struct {
	ID              uint      `gorm:"primaryKey" json:"id"`
	UserID          string    `gorm:"type:uuid;index" json:"userId"`
	CredentialID    []byte    `gorm:"uniqueIndex" json:"credentialId"`
	PublicKey       []byte    `json:"publicKey"`
	AttestationType string    `gorm:"size:64" json:"attestationType"`
	AAGUID          []byte    `gorm:"type:bytea" json:"aaguid"`
	SignCount       uint32    `json:"signCount"`
	CloneWarning    bool      `json:"cloneWarning"`
	BackupEligible  bool      `json:"backupEligible"`
	BackupState     bool      `json:"backupState"`
	CreatedAt       time.Time `json:"createdAt"`
	UpdatedAt       time.Time `json:"updatedAt"`

	LastUsedAt *time.Time `gorm:"index" json:"lastUsedAt,omitempty"`
}

func (Credential) TableName() string { return "lab_credentials" }

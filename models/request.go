package models

import "time"

const RequestTable = "lab_requests"

// Status is a loan request's position in its lifecycle.
type Status string

const (
	StatusPending   Status = "pending"
	StatusApproved  Status = "approved"
	StatusRejected  Status = "rechazado"
	StatusDelivered Status = "entregado"
	StatusReturned  Status = "devuelto"
)

// transitions is the full state machine. Rechazado and devuelto are
// terminal. Return is an ordinary edge here, not a special case.
var transitions = map[Status][]Status{
	StatusPending:   {StatusApproved, StatusRejected},
	StatusApproved:  {StatusDelivered},
	StatusDelivered: {StatusReturned},
}

// Valid reports whether s is one of the five known statuses.
func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusApproved, StatusRejected, StatusDelivered, StatusReturned:
		return true
	}
	return false
}

// CanTransitionTo reports whether s -> next is a legal move.
func (s Status) CanTransitionTo(next Status) bool {
	for _, t := range transitions[s] {
		if t == next {
			return true
		}
	}
	return false
}

// Request is one loan request by a user for one material. Material
// name and image are denormalized at creation and never re-synced.
type Request struct {
	ID            string `gorm:"type:uuid;primaryKey" json:"id"`
	UserID        string `gorm:"type:uuid;index;not null" json:"userId"`
	StudentName   string `gorm:"size:255" json:"studentName,omitempty"`
	StudentEmail  string `gorm:"size:255" json:"studentEmail,omitempty"`
	MaterialID    string `gorm:"type:uuid;index;not null" json:"materialId"`
	MaterialName  string `gorm:"size:200" json:"materialName"`
	MaterialImage string `gorm:"size:500" json:"materialImage,omitempty"`

	StartDate time.Time `gorm:"not null" json:"startDate"`
	EndDate   time.Time `gorm:"not null" json:"endDate"`
	Purpose   string    `gorm:"size:500" json:"purpose"`
	Quantity  int       `gorm:"not null;default:1" json:"quantity"`

	Status     Status `gorm:"size:20;index;not null;default:'pending'" json:"status"`
	AdminNotes string `gorm:"size:500" json:"adminNotes,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (Request) TableName() string { return RequestTable }

// RequestFilter narrows a listing. Zero values mean "all".
type RequestFilter struct {
	UserID string
	Status Status
}

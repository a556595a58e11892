// Package lend holds the request lifecycle rules: what a valid new
// loan request looks like, which status moves are legal, and how a
// return feeds a unit back into the material's available count.
package lend

import (
	"context"
	"errors"
	"time"

	"lablend/models"

	"github.com/google/uuid"
)

// MaxLoanDays bounds the requested date range.
const MaxLoanDays = 14

// DefaultPurpose fills an empty purpose field.
const DefaultPurpose = "Uso académico"

type MaterialStore interface {
	FindMaterialByID(ctx context.Context, id string) (*models.Material, error)
	ListMaterials(ctx context.Context) ([]models.Material, error)
	CreateMaterial(ctx context.Context, m *models.Material) error
	UpdateMaterial(ctx context.Context, m *models.Material) error
	DeleteMaterial(ctx context.Context, id string) error
}

type RequestStore interface {
	CreateRequest(ctx context.Context, req *models.Request) error
	FindRequestByID(ctx context.Context, id string) (*models.Request, error)
	UpdateRequestStatus(ctx context.Context, id string, status models.Status, notes string) (*models.Request, error)
	ReturnRequest(ctx context.Context, id string, notes string) (*models.Request, error)
	ListRequests(ctx context.Context, f models.RequestFilter) ([]models.Request, error)
	DeleteRequest(ctx context.Context, id string) error
}

// Engine validates and executes every inventory and request mutation.
type Engine struct {
	materials MaterialStore
	requests  RequestStore
	now       func() time.Time
}

func NewEngine(materials MaterialStore, requests RequestStore) *Engine {
	return &Engine{materials: materials, requests: requests, now: time.Now}
}

// CreateRequestInput carries a student's loan request.
type CreateRequestInput struct {
	UserID       string
	StudentName  string
	StudentEmail string
	MaterialID   string
	StartDate    time.Time
	EndDate      time.Time
	Purpose      string
	Quantity     int
}

// CreateRequest validates the input, re-checks availability against a
// fresh read, and stores the request as pending. The available count
// is not decremented here; the lifecycle only ever gives units back
// on return.
func (e *Engine) CreateRequest(ctx context.Context, in CreateRequestInput) (*models.Request, error) {
	if in.UserID == "" || in.MaterialID == "" {
		return nil, validationf("userId and materialId are required")
	}
	if in.StartDate.IsZero() || in.EndDate.IsZero() {
		return nil, validationf("start and end dates are required")
	}
	if !in.EndDate.After(in.StartDate) {
		return nil, validationf("end date must be after start date")
	}
	if in.StartDate.Before(e.now()) {
		return nil, validationf("start date cannot be in the past")
	}
	if in.EndDate.Sub(in.StartDate) > MaxLoanDays*24*time.Hour {
		return nil, validationf("loan duration cannot exceed %d days", MaxLoanDays)
	}

	m, err := e.materials.FindMaterialByID(ctx, in.MaterialID)
	if err != nil {
		return nil, storeErr("read material", err)
	}
	if m == nil {
		return nil, ErrMaterialNotFound
	}
	if m.Available <= 0 {
		return nil, ErrMaterialUnavailable
	}

	purpose := in.Purpose
	if purpose == "" {
		purpose = DefaultPurpose
	}
	qty := in.Quantity
	if qty <= 0 {
		qty = 1
	}

	req := &models.Request{
		ID:            uuid.NewString(),
		UserID:        in.UserID,
		StudentName:   in.StudentName,
		StudentEmail:  in.StudentEmail,
		MaterialID:    m.ID,
		MaterialName:  m.Name,
		MaterialImage: m.ImageURL,
		StartDate:     in.StartDate,
		EndDate:       in.EndDate,
		Purpose:       purpose,
		Quantity:      qty,
		Status:        models.StatusPending,
	}
	if err := e.requests.CreateRequest(ctx, req); err != nil {
		return nil, storeErr("create request", err)
	}
	return req, nil
}

// SetStatus moves a request along the lifecycle. Only moves in the
// transition table are honored; pending is the initial state and is
// never reachable again. Moving to devuelto also restocks the material
// (clamped, inside one store transaction).
func (e *Engine) SetStatus(ctx context.Context, id string, status models.Status, notes string) (*models.Request, error) {
	if !status.Valid() {
		return nil, validationf("unknown status %q", status)
	}
	if status == models.StatusPending {
		return nil, validationf("a request cannot be moved back to pending")
	}

	req, err := e.requests.FindRequestByID(ctx, id)
	if err != nil {
		return nil, storeErr("read request", err)
	}
	if req == nil {
		return nil, ErrRequestNotFound
	}
	if !req.Status.CanTransitionTo(status) {
		return nil, validationf("cannot move request from %s to %s", req.Status, status)
	}

	var updated *models.Request
	if status == models.StatusReturned {
		updated, err = e.requests.ReturnRequest(ctx, id, notes)
	} else {
		updated, err = e.requests.UpdateRequestStatus(ctx, id, status, notes)
	}
	if err != nil {
		// Deleted between our read and the store's write.
		if errors.Is(err, ErrRequestNotFound) {
			return nil, ErrRequestNotFound
		}
		return nil, storeErr("update request status", err)
	}
	return updated, nil
}

func (e *Engine) GetRequest(ctx context.Context, id string) (*models.Request, error) {
	req, err := e.requests.FindRequestByID(ctx, id)
	if err != nil {
		return nil, storeErr("read request", err)
	}
	return req, nil
}

func (e *Engine) ListRequests(ctx context.Context, f models.RequestFilter) ([]models.Request, error) {
	reqs, err := e.requests.ListRequests(ctx, f)
	if err != nil {
		return nil, storeErr("list requests", err)
	}
	return reqs, nil
}

// DeleteRequest hard-deletes; no history is retained.
func (e *Engine) DeleteRequest(ctx context.Context, id string) error {
	if err := e.requests.DeleteRequest(ctx, id); err != nil {
		return storeErr("delete request", err)
	}
	return nil
}

// MaterialInput carries the admin-editable material fields.
type MaterialInput struct {
	Name        string
	Category    string
	Description string
	Quantity    int
	Available   int
	Location    string
	ImageURL    string
}

// UpsertMaterial creates when id is empty, updates otherwise. The
// counters must satisfy 0 <= available <= quantity or nothing is
// written.
func (e *Engine) UpsertMaterial(ctx context.Context, id string, in MaterialInput) (string, error) {
	if in.Name == "" {
		return "", validationf("material name is required")
	}
	if in.Quantity < 0 || in.Available < 0 {
		return "", validationf("quantity and available must be non-negative")
	}
	if in.Available > in.Quantity {
		return "", validationf("available cannot exceed quantity")
	}

	m := &models.Material{
		ID:          id,
		Name:        in.Name,
		Category:    in.Category,
		Description: in.Description,
		Quantity:    in.Quantity,
		Available:   in.Available,
		Location:    in.Location,
		ImageURL:    in.ImageURL,
	}

	if id == "" {
		m.ID = uuid.NewString()
		if err := e.materials.CreateMaterial(ctx, m); err != nil {
			return "", storeErr("create material", err)
		}
		return m.ID, nil
	}

	existing, err := e.materials.FindMaterialByID(ctx, id)
	if err != nil {
		return "", storeErr("read material", err)
	}
	if existing == nil {
		return "", ErrMaterialNotFound
	}
	if err := e.materials.UpdateMaterial(ctx, m); err != nil {
		return "", storeErr("update material", err)
	}
	return id, nil
}

func (e *Engine) GetMaterial(ctx context.Context, id string) (*models.Material, error) {
	m, err := e.materials.FindMaterialByID(ctx, id)
	if err != nil {
		return nil, storeErr("read material", err)
	}
	return m, nil
}

func (e *Engine) ListMaterials(ctx context.Context) ([]models.Material, error) {
	ms, err := e.materials.ListMaterials(ctx)
	if err != nil {
		return nil, storeErr("list materials", err)
	}
	return ms, nil
}

func (e *Engine) DeleteMaterial(ctx context.Context, id string) error {
	if err := e.materials.DeleteMaterial(ctx, id); err != nil {
		return storeErr("delete material", err)
	}
	return nil
}

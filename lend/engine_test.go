package lend

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"lablend/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeStore keeps materials and requests in memory and mirrors the SQL
// return semantics, including the clamped availability increment.
type fakeStore struct {
	materials   map[string]*models.Material
	requests    map[string]*models.Request
	seq         int
	failList    bool
	dropOnWrite bool
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		materials: map[string]*models.Material{},
		requests:  map[string]*models.Request{},
	}
}

func (f *fakeStore) FindMaterialByID(_ context.Context, id string) (*models.Material, error) {
	m, ok := f.materials[id]
	if !ok {
		return nil, nil
	}
	cp := *m
	return &cp, nil
}

func (f *fakeStore) ListMaterials(_ context.Context) ([]models.Material, error) {
	var out []models.Material
	for _, m := range f.materials {
		out = append(out, *m)
	}
	return out, nil
}

func (f *fakeStore) CreateMaterial(_ context.Context, m *models.Material) error {
	cp := *m
	f.materials[m.ID] = &cp
	return nil
}

func (f *fakeStore) UpdateMaterial(_ context.Context, m *models.Material) error {
	cur, ok := f.materials[m.ID]
	if !ok {
		return errors.New("missing material")
	}
	cur.Name, cur.Category, cur.Description = m.Name, m.Category, m.Description
	cur.Quantity, cur.Available = m.Quantity, m.Available
	cur.Location, cur.ImageURL = m.Location, m.ImageURL
	return nil
}

func (f *fakeStore) DeleteMaterial(_ context.Context, id string) error {
	delete(f.materials, id)
	return nil
}

func (f *fakeStore) CreateRequest(_ context.Context, req *models.Request) error {
	f.seq++
	cp := *req
	cp.CreatedAt = time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC).Add(time.Duration(f.seq) * time.Minute)
	f.requests[req.ID] = &cp
	return nil
}

func (f *fakeStore) FindRequestByID(_ context.Context, id string) (*models.Request, error) {
	req, ok := f.requests[id]
	if !ok {
		return nil, nil
	}
	cp := *req
	return &cp, nil
}

func (f *fakeStore) UpdateRequestStatus(_ context.Context, id string, status models.Status, notes string) (*models.Request, error) {
	if f.dropOnWrite {
		delete(f.requests, id)
	}
	req, ok := f.requests[id]
	if !ok {
		return nil, ErrRequestNotFound
	}
	req.Status = status
	if notes != "" {
		req.AdminNotes = notes
	}
	cp := *req
	return &cp, nil
}

func (f *fakeStore) ReturnRequest(_ context.Context, id string, notes string) (*models.Request, error) {
	req, ok := f.requests[id]
	if !ok {
		return nil, ErrRequestNotFound
	}
	// Same re-check the SQL transaction does under its row lock.
	if req.Status != models.StatusDelivered {
		cp := *req
		return &cp, nil
	}
	req.Status = models.StatusReturned
	if notes != "" {
		req.AdminNotes = notes
	}
	if m, ok := f.materials[req.MaterialID]; ok {
		if m.Available+1 < m.Quantity {
			m.Available++
		} else {
			m.Available = m.Quantity
		}
	}
	cp := *req
	return &cp, nil
}

func (f *fakeStore) ListRequests(_ context.Context, flt models.RequestFilter) ([]models.Request, error) {
	if f.failList {
		return nil, errors.New("scan failed")
	}
	var out []models.Request
	for _, req := range f.requests {
		if flt.UserID != "" && req.UserID != flt.UserID {
			continue
		}
		if flt.Status != "" && req.Status != flt.Status {
			continue
		}
		out = append(out, *req)
	}
	return out, nil
}

func (f *fakeStore) DeleteRequest(_ context.Context, id string) error {
	delete(f.requests, id)
	return nil
}

func newTestEngine(store *fakeStore) *Engine {
	e := NewEngine(store, store)
	e.now = func() time.Time { return time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC) }
	return e
}

func seedMaterial(store *fakeStore, id string, quantity, available int) {
	store.materials[id] = &models.Material{
		ID: id, Name: "Osciloscopio", Category: "electronics",
		Quantity: quantity, Available: available, ImageURL: "http://img/osc.png",
	}
}

func TestCreateRequestValidation(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	day := 24 * time.Hour

	tests := []struct {
		name  string
		in    CreateRequestInput
		errIs error
		wantV bool
	}{
		{
			name: "missing dates",
			in: CreateRequestInput{
				UserID: "u1", MaterialID: "m1",
			},
			wantV: true,
		},
		{
			name: "end before start",
			in: CreateRequestInput{
				UserID: "u1", MaterialID: "m1",
				StartDate: now.Add(3 * day), EndDate: now.Add(1 * day),
			},
			wantV: true,
		},
		{
			name: "end equals start",
			in: CreateRequestInput{
				UserID: "u1", MaterialID: "m1",
				StartDate: now.Add(1 * day), EndDate: now.Add(1 * day),
			},
			wantV: true,
		},
		{
			name: "start in the past",
			in: CreateRequestInput{
				UserID: "u1", MaterialID: "m1",
				StartDate: now.Add(-1 * day), EndDate: now.Add(2 * day),
			},
			wantV: true,
		},
		{
			name: "fifteen day loan",
			in: CreateRequestInput{
				UserID: "u1", MaterialID: "m1",
				StartDate: now.Add(1 * day), EndDate: now.Add(16 * day),
			},
			wantV: true,
		},
		{
			name: "material missing",
			in: CreateRequestInput{
				UserID: "u1", MaterialID: "ghost",
				StartDate: now.Add(1 * day), EndDate: now.Add(3 * day),
			},
			errIs: ErrMaterialNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := newFakeStore()
			seedMaterial(store, "m1", 2, 2)
			e := newTestEngine(store)

			req, err := e.CreateRequest(context.Background(), tt.in)
			require.Error(t, err)
			assert.Nil(t, req)
			if tt.wantV {
				var ve *ValidationError
				assert.True(t, errors.As(err, &ve), "want ValidationError, got %v", err)
			}
			if tt.errIs != nil {
				assert.ErrorIs(t, err, tt.errIs)
			}
			// No stored document on any failure.
			assert.Empty(t, store.requests)
		})
	}
}

func TestCreateRequestZeroStockRejected(t *testing.T) {
	store := newFakeStore()
	seedMaterial(store, "m1", 3, 0)
	e := newTestEngine(store)

	_, err := e.CreateRequest(context.Background(), CreateRequestInput{
		UserID: "u1", MaterialID: "m1",
		StartDate: e.now().Add(24 * time.Hour),
		EndDate:   e.now().Add(72 * time.Hour),
	})
	assert.ErrorIs(t, err, ErrMaterialUnavailable)
	assert.Empty(t, store.requests)
}

func TestCreateRequestDefaultsAndDenormalization(t *testing.T) {
	store := newFakeStore()
	seedMaterial(store, "m1", 2, 2)
	e := newTestEngine(store)

	req, err := e.CreateRequest(context.Background(), CreateRequestInput{
		UserID: "u1", MaterialID: "m1",
		StartDate: e.now().Add(24 * time.Hour),
		EndDate:   e.now().Add(72 * time.Hour),
	})
	require.NoError(t, err)
	assert.Equal(t, models.StatusPending, req.Status)
	assert.Equal(t, DefaultPurpose, req.Purpose)
	assert.Equal(t, 1, req.Quantity)
	assert.Equal(t, "Osciloscopio", req.MaterialName)
	assert.Equal(t, "http://img/osc.png", req.MaterialImage)
}

func TestCreateRequestFourteenDaysAllowed(t *testing.T) {
	store := newFakeStore()
	seedMaterial(store, "m1", 1, 1)
	e := newTestEngine(store)

	start := e.now().Add(24 * time.Hour)
	_, err := e.CreateRequest(context.Background(), CreateRequestInput{
		UserID: "u1", MaterialID: "m1",
		StartDate: start, EndDate: start.Add(MaxLoanDays * 24 * time.Hour),
	})
	assert.NoError(t, err)
}

func TestSetStatusTransitions(t *testing.T) {
	tests := []struct {
		name    string
		from    models.Status
		to      models.Status
		allowed bool
	}{
		{"approve pending", models.StatusPending, models.StatusApproved, true},
		{"reject pending", models.StatusPending, models.StatusRejected, true},
		{"deliver approved", models.StatusApproved, models.StatusDelivered, true},
		{"return delivered", models.StatusDelivered, models.StatusReturned, true},
		{"approve rejected", models.StatusRejected, models.StatusApproved, false},
		{"approve delivered", models.StatusDelivered, models.StatusApproved, false},
		{"deliver pending", models.StatusPending, models.StatusDelivered, false},
		{"return pending", models.StatusPending, models.StatusReturned, false},
		{"return returned", models.StatusReturned, models.StatusReturned, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := newFakeStore()
			seedMaterial(store, "m1", 5, 5)
			store.requests["r1"] = &models.Request{
				ID: "r1", UserID: "u1", MaterialID: "m1", Status: tt.from,
			}
			e := newTestEngine(store)

			_, err := e.SetStatus(context.Background(), "r1", tt.to, "")
			if tt.allowed {
				assert.NoError(t, err)
				assert.Equal(t, tt.to, store.requests["r1"].Status)
			} else {
				var ve *ValidationError
				assert.True(t, errors.As(err, &ve), "want ValidationError, got %v", err)
				assert.Equal(t, tt.from, store.requests["r1"].Status, "status must not change")
			}
		})
	}
}

func TestSetStatusUnknownAndPending(t *testing.T) {
	store := newFakeStore()
	store.requests["r1"] = &models.Request{ID: "r1", Status: models.StatusPending}
	e := newTestEngine(store)

	var ve *ValidationError
	_, err := e.SetStatus(context.Background(), "r1", "perdido", "")
	assert.True(t, errors.As(err, &ve))

	_, err = e.SetStatus(context.Background(), "r1", models.StatusPending, "")
	assert.True(t, errors.As(err, &ve))
}

func TestSetStatusMissingRequest(t *testing.T) {
	e := newTestEngine(newFakeStore())
	_, err := e.SetStatus(context.Background(), "ghost", models.StatusApproved, "")
	assert.ErrorIs(t, err, ErrRequestNotFound)
}

func TestReturnClampsAvailable(t *testing.T) {
	store := newFakeStore()
	seedMaterial(store, "m1", 5, 5)
	store.requests["r1"] = &models.Request{
		ID: "r1", UserID: "u1", MaterialID: "m1", Status: models.StatusDelivered,
	}
	e := newTestEngine(store)

	_, err := e.SetStatus(context.Background(), "r1", models.StatusReturned, "")
	require.NoError(t, err)
	assert.Equal(t, 5, store.materials["m1"].Available, "return clamps at quantity")

	// A second return is an illegal transition and leaves the counter alone.
	_, err = e.SetStatus(context.Background(), "r1", models.StatusReturned, "")
	assert.Error(t, err)
	assert.Equal(t, 5, store.materials["m1"].Available)
}

func TestReturnSkipsRestockWhenAlreadySettled(t *testing.T) {
	store := newFakeStore()
	seedMaterial(store, "m1", 5, 3)
	store.requests["r1"] = &models.Request{
		ID: "r1", UserID: "u1", MaterialID: "m1", Status: models.StatusDelivered,
	}
	e := newTestEngine(store)

	_, err := e.SetStatus(context.Background(), "r1", models.StatusReturned, "")
	require.NoError(t, err)
	assert.Equal(t, 4, store.materials["m1"].Available)

	// Two admins returning the same request at once: the second call
	// passed the lifecycle check before the first committed, so it
	// reaches the store directly. The store's own status re-check must
	// keep it from restocking again.
	upd, err := store.ReturnRequest(context.Background(), "r1", "")
	require.NoError(t, err)
	assert.Equal(t, models.StatusReturned, upd.Status)
	assert.Equal(t, 4, store.materials["m1"].Available, "one returned unit restocks exactly once")
}

func TestSetStatusRequestDeletedMidWrite(t *testing.T) {
	store := newFakeStore()
	store.requests["r1"] = &models.Request{ID: "r1", Status: models.StatusPending}
	store.dropOnWrite = true
	e := newTestEngine(store)

	_, err := e.SetStatus(context.Background(), "r1", models.StatusApproved, "")
	assert.ErrorIs(t, err, ErrRequestNotFound)
	assert.Equal(t, http.StatusNotFound, StatusFor(err))
}

func TestFullLifecycle(t *testing.T) {
	store := newFakeStore()
	seedMaterial(store, "m1", 2, 2)
	e := newTestEngine(store)
	ctx := context.Background()

	req, err := e.CreateRequest(ctx, CreateRequestInput{
		UserID: "u1", StudentName: "Ana", StudentEmail: "ana@uni.edu",
		MaterialID: "m1",
		StartDate:  e.now().Add(24 * time.Hour),
		EndDate:    e.now().Add(4 * 24 * time.Hour),
		Purpose:    "práctica de circuitos",
	})
	require.NoError(t, err)
	assert.Equal(t, models.StatusPending, req.Status)
	assert.Equal(t, 2, store.materials["m1"].Available, "creation must not touch stock")

	upd, err := e.SetStatus(ctx, req.ID, models.StatusApproved, "")
	require.NoError(t, err)
	assert.Equal(t, models.StatusApproved, upd.Status)
	assert.Equal(t, 2, store.materials["m1"].Available, "approval must not touch stock")

	upd, err = e.SetStatus(ctx, req.ID, models.StatusDelivered, "")
	require.NoError(t, err)
	assert.Equal(t, models.StatusDelivered, upd.Status)

	upd, err = e.SetStatus(ctx, req.ID, models.StatusReturned, "")
	require.NoError(t, err)
	assert.Equal(t, models.StatusReturned, upd.Status)
	assert.Equal(t, 2, store.materials["m1"].Available, "clamped: never above quantity")
}

func TestRejectStoresNotes(t *testing.T) {
	store := newFakeStore()
	store.requests["r1"] = &models.Request{ID: "r1", Status: models.StatusPending}
	e := newTestEngine(store)

	upd, err := e.SetStatus(context.Background(), "r1", models.StatusRejected, "material reservado para el laboratorio 2")
	require.NoError(t, err)
	assert.Equal(t, models.StatusRejected, upd.Status)
	assert.Equal(t, "material reservado para el laboratorio 2", upd.AdminNotes)
}

func TestUpsertMaterialValidation(t *testing.T) {
	tests := []struct {
		name string
		in   MaterialInput
		ok   bool
	}{
		{"valid", MaterialInput{Name: "Multímetro", Quantity: 4, Available: 4}, true},
		{"available below quantity", MaterialInput{Name: "Multímetro", Quantity: 4, Available: 2}, true},
		{"zero counts", MaterialInput{Name: "Multímetro"}, true},
		{"missing name", MaterialInput{Quantity: 1, Available: 1}, false},
		{"available above quantity", MaterialInput{Name: "Multímetro", Quantity: 2, Available: 3}, false},
		{"negative quantity", MaterialInput{Name: "Multímetro", Quantity: -1}, false},
		{"negative available", MaterialInput{Name: "Multímetro", Quantity: 2, Available: -1}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := newFakeStore()
			e := newTestEngine(store)

			id, err := e.UpsertMaterial(context.Background(), "", tt.in)
			if tt.ok {
				require.NoError(t, err)
				m := store.materials[id]
				require.NotNil(t, m)
				assert.GreaterOrEqual(t, m.Available, 0)
				assert.LessOrEqual(t, m.Available, m.Quantity)
			} else {
				var ve *ValidationError
				assert.True(t, errors.As(err, &ve), "want ValidationError, got %v", err)
				assert.Empty(t, store.materials, "rejected upsert must not write")
			}
		})
	}
}

func TestUpsertMaterialUpdateMissing(t *testing.T) {
	e := newTestEngine(newFakeStore())
	_, err := e.UpsertMaterial(context.Background(), "ghost", MaterialInput{Name: "x", Quantity: 1, Available: 1})
	assert.ErrorIs(t, err, ErrMaterialNotFound)
}

func TestGetMaterialAbsentIsNil(t *testing.T) {
	e := newTestEngine(newFakeStore())
	m, err := e.GetMaterial(context.Background(), "ghost")
	assert.NoError(t, err)
	assert.Nil(t, m)
}

func TestListRequestsWrapsStoreError(t *testing.T) {
	store := newFakeStore()
	store.failList = true
	e := newTestEngine(store)

	_, err := e.ListRequests(context.Background(), models.RequestFilter{})
	var se *StoreError
	assert.True(t, errors.As(err, &se))
}

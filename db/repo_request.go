package db

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sort"

	"lablend/lend"
	"lablend/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

func (r *Repo) CreateRequest(ctx context.Context, req *models.Request) error {
	return r.DB.WithContext(ctx).Create(req).Error
}

// FindRequestByID returns (nil, nil) when absent.
func (r *Repo) FindRequestByID(ctx context.Context, id string) (*models.Request, error) {
	var req models.Request
	err := r.DB.WithContext(ctx).First(&req, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &req, nil
}

func (r *Repo) DeleteRequest(ctx context.Context, id string) error {
	return r.DB.WithContext(ctx).Delete(&models.Request{}, "id = ?", id).Error
}

// UpdateRequestStatus stamps the new status (and admin notes when
// given). Transition legality is the caller's job; this only writes.
func (r *Repo) UpdateRequestStatus(ctx context.Context, id string, status models.Status, notes string) (*models.Request, error) {
	updates := map[string]interface{}{"status": status}
	if notes != "" {
		updates["admin_notes"] = notes
	}
	res := r.DB.WithContext(ctx).Model(&models.Request{}).
		Where("id = ?", id).
		Updates(updates)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, lend.ErrRequestNotFound
	}
	return r.FindRequestByID(ctx, id)
}

// ReturnRequest marks the request devuelto and gives the unit back to
// the material in one transaction: the request row is locked and the
// counter moves via a single clamped UPDATE, so a concurrent admin
// edit of the material cannot be silently overwritten. A material that
// was deleted in the meantime is tolerated; the status still flips.
func (r *Repo) ReturnRequest(ctx context.Context, id string, notes string) (*models.Request, error) {
	var out models.Request
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var req models.Request
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			First(&req, "id = ?", id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return lend.ErrRequestNotFound
			}
			return err
		}
		// Re-check under the lock: the caller's transition check ran
		// against a read that may be stale. A request already settled
		// by a concurrent return is handed back unchanged.
		if req.Status != models.StatusDelivered {
			out = req
			return nil
		}

		updates := map[string]interface{}{"status": models.StatusReturned}
		if notes != "" {
			updates["admin_notes"] = notes
		}
		if err := tx.Model(&models.Request{}).
			Where("id = ?", req.ID).
			Updates(updates).Error; err != nil {
			return err
		}

		if req.MaterialID != "" {
			if err := tx.Model(&models.Material{}).
				Where("id = ?", req.MaterialID).
				Updates(map[string]interface{}{
					"available":  gorm.Expr("LEAST(quantity, available + 1)"),
					"updated_at": gorm.Expr("NOW()"),
				}).Error; err != nil {
				return err
			}
		}

		return tx.First(&out, "id = ?", req.ID).Error
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// ListRequests is the one listing contract. The ordered SQL scan is
// preferred; if the store refuses it (most likely a deployment whose
// composite indexes never got created), a full scan is filtered and
// sorted in memory instead. Both paths order by creation time
// descending, requests without a creation timestamp last.
func (r *Repo) ListRequests(ctx context.Context, f models.RequestFilter) ([]models.Request, error) {
	reqs, err := r.listRequestsOrdered(ctx, f)
	if err == nil {
		return reqs, nil
	}
	log.Printf("ordered request scan failed, falling back to full scan: %v", err)

	var all []models.Request
	if err2 := r.DB.WithContext(ctx).Find(&all).Error; err2 != nil {
		return nil, fmt.Errorf("list requests: %w", err)
	}
	return FilterSortRequests(all, f), nil
}

func (r *Repo) listRequestsOrdered(ctx context.Context, f models.RequestFilter) ([]models.Request, error) {
	q := r.DB.WithContext(ctx).Model(&models.Request{}).Order("created_at DESC")
	if f.UserID != "" {
		q = q.Where("user_id = ?", f.UserID)
	}
	if f.Status != "" {
		q = q.Where("status = ?", f.Status)
	}
	var reqs []models.Request
	if err := q.Find(&reqs).Error; err != nil {
		return nil, err
	}
	return reqs, nil
}

// FilterSortRequests is the in-memory half of the dual listing path.
// It must agree exactly with the SQL ordering: created_at descending,
// zero timestamps last, and a stable order for equal keys.
func FilterSortRequests(all []models.Request, f models.RequestFilter) []models.Request {
	out := make([]models.Request, 0, len(all))
	for _, req := range all {
		if f.UserID != "" && req.UserID != f.UserID {
			continue
		}
		if f.Status != "" && req.Status != f.Status {
			continue
		}
		out = append(out, req)
	}
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i].CreatedAt, out[j].CreatedAt
		if a.IsZero() {
			return false
		}
		if b.IsZero() {
			return true
		}
		return a.After(b)
	})
	return out
}

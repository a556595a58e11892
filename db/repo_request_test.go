package db

import (
	"testing"
	"time"

	"lablend/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ts(day int) time.Time {
	return time.Date(2026, 2, day, 10, 0, 0, 0, time.UTC)
}

func sampleRequests() []models.Request {
	return []models.Request{
		{ID: "r-old", UserID: "u1", Status: models.StatusReturned, CreatedAt: ts(1)},
		{ID: "r-mid", UserID: "u2", Status: models.StatusPending, CreatedAt: ts(5)},
		{ID: "r-new", UserID: "u1", Status: models.StatusPending, CreatedAt: ts(9)},
		{ID: "r-zero", UserID: "u1", Status: models.StatusApproved},
	}
}

func ids(reqs []models.Request) []string {
	out := make([]string, len(reqs))
	for i, r := range reqs {
		out[i] = r.ID
	}
	return out
}

func TestFilterSortRequestsOrdering(t *testing.T) {
	got := FilterSortRequests(sampleRequests(), models.RequestFilter{})
	assert.Equal(t, []string{"r-new", "r-mid", "r-old", "r-zero"}, ids(got),
		"newest first, missing timestamps last")
}

func TestFilterSortRequestsByUser(t *testing.T) {
	got := FilterSortRequests(sampleRequests(), models.RequestFilter{UserID: "u1"})
	assert.Equal(t, []string{"r-new", "r-old", "r-zero"}, ids(got))
}

func TestFilterSortRequestsByStatus(t *testing.T) {
	got := FilterSortRequests(sampleRequests(), models.RequestFilter{Status: models.StatusPending})
	assert.Equal(t, []string{"r-new", "r-mid"}, ids(got))
}

func TestFilterSortRequestsCombinedFilter(t *testing.T) {
	got := FilterSortRequests(sampleRequests(), models.RequestFilter{
		UserID: "u1", Status: models.StatusPending,
	})
	require.Len(t, got, 1)
	assert.Equal(t, "r-new", got[0].ID)
}

func TestFilterSortRequestsStableOnEqualTimestamps(t *testing.T) {
	same := ts(3)
	in := []models.Request{
		{ID: "a", CreatedAt: same},
		{ID: "b", CreatedAt: same},
		{ID: "c", CreatedAt: same},
	}
	got := FilterSortRequests(in, models.RequestFilter{})
	assert.Equal(t, []string{"a", "b", "c"}, ids(got), "equal keys keep input order")
}

func TestFilterSortRequestsEmptyInput(t *testing.T) {
	got := FilterSortRequests(nil, models.RequestFilter{})
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

package numbering

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"einvoice/internal/core/apperror"
	"einvoice/internal/core/id"
)

type stubRangeRepo struct {
	rng         *Range
	usedNumbers map[string]bool
	advanced    *Range
}

func (r *stubRangeRepo) GetActiveForUpdate(ctx context.Context, tenantID id.ID, year, term int) (*Range, error) {
	if r.rng == nil || r.rng.Year != year || r.rng.Term != term {
		return nil, apperror.NewNotFound("number range", year)
	}
	copied := *r.rng
	return &copied, nil
}

func (r *stubRangeRepo) Advance(ctx context.Context, rng *Range) error {
	copied := *rng
	r.advanced = &copied
	r.rng = rng
	return nil
}

func (r *stubRangeRepo) NumberInUse(ctx context.Context, number string) (bool, error) {
	return r.usedNumbers[number], nil
}

// fixedNow is a date in the third two-month term (May-June).
var fixedNow = time.Date(2026, time.May, 14, 10, 30, 0, 0, time.UTC)

func activeRange(tenantID id.ID, now, end int64) *Range {
	return &Range{
		ID:        id.New(),
		TenantID:  tenantID,
		Year:      2026,
		Term:      3,
		Letter:    "AB",
		NowNumber: now,
		EndNumber: end,
		Status:    StatusInUse,
	}
}

func TestAllocate_AdvancesCursorAndFormats(t *testing.T) {
	tenantID := id.New()
	repo := &stubRangeRepo{rng: activeRange(tenantID, 122, 99999999)}

	got, err := NewAllocator(repo).Allocate(context.Background(), tenantID, "QB", fixedNow)

	require.NoError(t, err)
	assert.Equal(t, "AB00000123", got.Number)
	assert.Equal(t, 2026, got.Year)
	assert.Equal(t, 3, got.Term)
	assert.Equal(t, int64(123), repo.advanced.NowNumber)
}

func TestAllocate_NoActiveRange(t *testing.T) {
	tenantID := id.New()
	repo := &stubRangeRepo{}

	_, err := NewAllocator(repo).Allocate(context.Background(), tenantID, "QB", fixedNow)

	require.Error(t, err)
	assert.True(t, apperror.IsCode(err, apperror.CodeRangeExhausted), "got %v", err)
}

func TestAllocate_ExhaustedRangeLeavesCursor(t *testing.T) {
	tenantID := id.New()
	repo := &stubRangeRepo{rng: activeRange(tenantID, 500, 500)}

	_, err := NewAllocator(repo).Allocate(context.Background(), tenantID, "QB", fixedNow)

	require.Error(t, err)
	assert.True(t, apperror.IsCode(err, apperror.CodeRangeExhausted), "got %v", err)
	assert.Nil(t, repo.advanced, "exhausted range must not be advanced")
	assert.Equal(t, int64(500), repo.rng.NowNumber)
}

func TestAllocate_LastNumberMarksRangeExhausted(t *testing.T) {
	tenantID := id.New()
	repo := &stubRangeRepo{rng: activeRange(tenantID, 499, 500)}

	got, err := NewAllocator(repo).Allocate(context.Background(), tenantID, "QB", fixedNow)

	require.NoError(t, err)
	assert.Equal(t, "AB00000500", got.Number)
	assert.Equal(t, StatusExhausted, repo.advanced.Status)
}

func TestAllocate_NumberCollisionIsFatal(t *testing.T) {
	tenantID := id.New()
	repo := &stubRangeRepo{
		rng:         activeRange(tenantID, 122, 99999999),
		usedNumbers: map[string]bool{"AB00000123": true},
	}

	_, err := NewAllocator(repo).Allocate(context.Background(), tenantID, "QB", fixedNow)

	require.Error(t, err)
	assert.True(t, apperror.IsCode(err, apperror.CodeNumberCollision), "got %v", err)
}

func TestTermOf(t *testing.T) {
	cases := []struct {
		month time.Month
		term  int
	}{
		{time.January, 1}, {time.February, 1},
		{time.March, 2}, {time.April, 2},
		{time.May, 3}, {time.June, 3},
		{time.July, 4}, {time.August, 4},
		{time.September, 5}, {time.October, 5},
		{time.November, 6}, {time.December, 6},
	}
	for _, tc := range cases {
		at := time.Date(2026, tc.month, 15, 0, 0, 0, 0, time.UTC)
		assert.Equal(t, tc.term, TermOf(at), "month %s", tc.month)
	}
}

func TestRange_FormatNumber(t *testing.T) {
	r := &Range{Letter: "AB", NowNumber: 7}
	assert.Equal(t, "AB00000007", r.FormatNumber())
}

package carrier

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"einvoice/internal/core/apperror"
	"einvoice/internal/core/id"
	"einvoice/internal/domain/tenant"
	"einvoice/pkg/retry"
)

// fakeTxManager runs the function directly; transactional semantics are
// exercised in storage tests, not here.
type fakeTxManager struct{}

func (fakeTxManager) RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

type stubCarrierRepo struct {
	bindings map[string]*Binding
	serial   *Serial

	// updateConflicts makes the next N UpdateSerial calls lose the version check.
	updateConflicts int
	updateCalls     int
}

func newStubCarrierRepo() *stubCarrierRepo {
	return &stubCarrierRepo{bindings: make(map[string]*Binding)}
}

func (r *stubCarrierRepo) FindBinding(ctx context.Context, tenantID id.ID, userID string) (*Binding, error) {
	if b, ok := r.bindings[userID]; ok {
		return b, nil
	}
	return nil, apperror.NewNotFound("carrier binding", userID)
}

func (r *stubCarrierRepo) GetSerial(ctx context.Context, tenantID id.ID) (*Serial, error) {
	if r.serial == nil {
		return nil, apperror.NewNotFound("carrier serial", tenantID)
	}
	s := *r.serial
	return &s, nil
}

func (r *stubCarrierRepo) UpdateSerial(ctx context.Context, s *Serial) error {
	r.updateCalls++
	if r.updateConflicts > 0 {
		r.updateConflicts--
		return apperror.NewConcurrentModification("carrier serial", s.TenantID)
	}
	s.Version++
	copied := *s
	r.serial = &copied
	return nil
}

func (r *stubCarrierRepo) CreateBinding(ctx context.Context, b *Binding) error {
	r.bindings[b.UserID] = b
	return nil
}

func testTenant() *tenant.Tenant {
	return &tenant.Tenant{ID: id.New(), Code: "QB"}
}

func testBinder(repo Repository) *Binder {
	b := NewBinder(repo, fakeTxManager{})
	b.policy = retry.Policy{Attempts: 3, Delay: time.Millisecond, Jitter: time.Millisecond}
	return b
}

func TestGetOrBind_ReturnsExistingBinding(t *testing.T) {
	tn := testTenant()
	repo := newStubCarrierRepo()
	existing := NewBinding(tn.ID, "user-1", 42)
	repo.bindings["user-1"] = existing

	got, err := testBinder(repo).GetOrBind(context.Background(), tn, "user-1")

	require.NoError(t, err)
	assert.Equal(t, existing, got)
	assert.Zero(t, repo.updateCalls, "existing binding must not touch the serial")
}

func TestGetOrBind_CreatesBindingWithNextSerial(t *testing.T) {
	tn := testTenant()
	repo := newStubCarrierRepo()
	repo.serial = &Serial{TenantID: tn.ID, SerialNo: 122, Version: 7}

	got, err := testBinder(repo).GetOrBind(context.Background(), tn, "user-1")

	require.NoError(t, err)
	assert.Equal(t, int64(123), got.SerialNo)
	assert.Equal(t, tn.ID, got.TenantID)
	assert.Equal(t, "user-1", got.UserID)
	assert.Equal(t, int64(123), repo.serial.SerialNo)
}

func TestGetOrBind_RetriesSerialConflict(t *testing.T) {
	tn := testTenant()
	repo := newStubCarrierRepo()
	repo.serial = &Serial{TenantID: tn.ID, SerialNo: 5, Version: 1}
	repo.updateConflicts = 2

	got, err := testBinder(repo).GetOrBind(context.Background(), tn, "user-1")

	require.NoError(t, err)
	assert.Equal(t, int64(6), got.SerialNo)
	assert.Equal(t, 3, repo.updateCalls)
}

func TestGetOrBind_BindingFailedAfterBudget(t *testing.T) {
	tn := testTenant()
	repo := newStubCarrierRepo()
	repo.serial = &Serial{TenantID: tn.ID, SerialNo: 5, Version: 1}
	repo.updateConflicts = 100

	_, err := testBinder(repo).GetOrBind(context.Background(), tn, "user-1")

	require.Error(t, err)
	assert.True(t, apperror.IsCode(err, apperror.CodeBindingFailed), "got %v", err)
	assert.Equal(t, 3, repo.updateCalls)
}

func TestGetOrBind_SerialNotInitialized(t *testing.T) {
	tn := testTenant()
	repo := newStubCarrierRepo()

	_, err := testBinder(repo).GetOrBind(context.Background(), tn, "user-1")

	require.Error(t, err)
	assert.True(t, apperror.IsCode(err, apperror.CodeSerialNotInitialized), "got %v", err)
}

func TestCarrierID_Format(t *testing.T) {
	b := &Binding{SerialNo: 123}
	assert.Equal(t, "QB000000123", b.CarrierID("QB"))
}

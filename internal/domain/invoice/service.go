package invoice

import (
	"context"
	"fmt"
	"time"

	"einvoice/internal/core/apperror"
	"einvoice/internal/core/tx"
	"einvoice/internal/domain/carrier"
	"einvoice/internal/domain/numbering"
	"einvoice/internal/domain/tenant"
	"einvoice/pkg/logger"
	"einvoice/pkg/retry"
)

// IssueResult is the outcome of an issuance call.
type IssueResult struct {
	InvoiceNumber string
	// AlreadyIssued is true when the order reference matched an existing
	// invoice and its number was returned instead of issuing a new one.
	AlreadyIssued bool
}

// Issuer orchestrates invoice issuance:
// validate, resolve tenant, idempotency pre-check, bind carrier, then
// allocate a number and persist the record with its line items in one
// transaction under a bounded conflict-retry loop.
type Issuer struct {
	registry  tenant.Registry
	binder    *carrier.Binder
	allocator *numbering.Allocator
	repo      Repository
	txm       tx.Manager
	defaults  IssueDefaults
	policy    retry.Policy

	// now is replaceable in tests.
	now func() time.Time
}

// NewIssuer creates the issuance orchestrator.
func NewIssuer(
	registry tenant.Registry,
	binder *carrier.Binder,
	allocator *numbering.Allocator,
	repo Repository,
	txm tx.Manager,
	defaults IssueDefaults,
) *Issuer {
	return &Issuer{
		registry:  registry,
		binder:    binder,
		allocator: allocator,
		repo:      repo,
		txm:       txm,
		defaults:  defaults,
		policy:    retry.DefaultPolicy(),
		now:       time.Now,
	}
}

// Issue processes one issuance request and returns the invoice number.
//
// Issuing twice with the same (tenant, order reference) returns the original
// number as a success, both via the unlocked pre-check and, for requests
// racing past it, via the storage-level uniqueness on (tenant, order).
func (s *Issuer) Issue(ctx context.Context, req *IssueRequest) (*IssueResult, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	tn, err := s.registry.GetByCode(ctx, req.SystemCode)
	if err != nil {
		if apperror.IsNotFound(err) {
			return nil, apperror.NewUnknownTenant(req.SystemCode)
		}
		return nil, fmt.Errorf("lookup tenant: %w", err)
	}

	// Idempotency pre-check. Unlocked: the (tenant, order) unique
	// constraint catches whatever races past this read.
	if existing, err := s.repo.FindByOrder(ctx, tn.ID, req.OrderNo); err == nil {
		logger.Info(ctx, "invoice already issued",
			"order_no", req.OrderNo,
			"invoice_number", existing.InvoiceNumber,
		)
		return &IssueResult{InvoiceNumber: existing.InvoiceNumber, AlreadyIssued: true}, nil
	} else if !apperror.IsNotFound(err) {
		return nil, fmt.Errorf("idempotency check: %w", err)
	}

	binding, err := s.binder.GetOrBind(ctx, tn, req.UserID)
	if err != nil {
		return nil, err
	}

	issuedAt := s.now()
	inv, lines := NewInvoice(req, tn, binding, s.defaults, issuedAt)

	err = retry.Do(ctx, s.policy, apperror.IsConcurrentModification, func(ctx context.Context) error {
		return s.txm.RunInTransaction(ctx, func(ctx context.Context) error {
			alloc, err := s.allocator.Allocate(ctx, tn.ID, tn.Code, issuedAt)
			if err != nil {
				return err
			}
			inv.ApplyAllocation(alloc)

			if err := s.repo.Create(ctx, inv); err != nil {
				return err
			}
			return s.repo.SaveLines(ctx, inv.ID, lines)
		})
	})
	if err != nil {
		return s.resolveIssueFailure(ctx, tn, req, err)
	}

	logger.Info(ctx, "invoice issued",
		"order_no", req.OrderNo,
		"invoice_number", inv.InvoiceNumber,
		"year", inv.Year,
		"term", inv.Term,
	)
	return &IssueResult{InvoiceNumber: inv.InvoiceNumber}, nil
}

// resolveIssueFailure classifies a failed allocation+persist loop.
func (s *Issuer) resolveIssueFailure(ctx context.Context, tn *tenant.Tenant, req *IssueRequest, err error) (*IssueResult, error) {
	// A concurrent request with the same order reference won the insert:
	// resolve to its number, this is an idempotent replay.
	if apperror.IsDuplicate(err) {
		existing, findErr := s.repo.FindByOrder(ctx, tn.ID, req.OrderNo)
		if findErr != nil {
			return nil, apperror.NewIssuanceFailed(req.OrderNo).WithCause(err)
		}
		logger.Info(ctx, "concurrent duplicate resolved to existing invoice",
			"order_no", req.OrderNo,
			"invoice_number", existing.InvoiceNumber,
		)
		return &IssueResult{InvoiceNumber: existing.InvoiceNumber, AlreadyIssued: true}, nil
	}

	// Retry budget exhausted on conflicts.
	if apperror.IsConcurrentModification(err) {
		return nil, apperror.NewIssuanceFailed(req.OrderNo).WithCause(err)
	}

	// Business failures (range exhausted, number collision, validation)
	// propagate untouched and were never retried.
	if apperror.IsAppError(err) {
		return nil, err
	}

	return nil, apperror.NewIssuanceFailed(req.OrderNo).WithCause(err)
}

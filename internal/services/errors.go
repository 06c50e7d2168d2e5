// Package services holds the business rules of the agency book: ownership
// checks, schedule regeneration, renewals and the read models behind the
// dashboard and reports. Every call takes the agent explicitly.
package services

import (
	"errors"

	"github.com/stwalsh4118/brokerdesk/api/internal/repository"
)

// Service-level errors
var (
	ErrClientNotFound      = errors.New("client not found")
	ErrInsurerNotFound     = errors.New("insurer not found")
	ErrPolicyNotFound      = errors.New("policy not found")
	ErrInstallmentNotFound = errors.New("installment not found")
	ErrInsuredNotFound     = errors.New("insured person not found")
	ErrClaimNotFound       = errors.New("claim not found")
	ErrDocumentNotFound    = errors.New("document not found")

	ErrClientDocumentTaken = errors.New("a client with this document number already exists")
	ErrInsurerNameTaken    = errors.New("an insurer with this name already exists")
	ErrInsurerTaxIDTaken   = errors.New("an insurer with this tax id already exists")
	ErrPolicyNumberTaken   = errors.New("policy number already in use")

	ErrInvalidDateRange = errors.New("end date must not be before start date")
	ErrPolicyTerminal   = errors.New("policy is already renewed or cancelled")
	ErrRenewalLocked    = errors.New("renewal can no longer be cancelled")
	ErrEmptyUpload      = errors.New("uploaded file is empty")
)

// translate maps repository.ErrNotFound to the domain error for the entity.
func translate(err, notFound error) error {
	if errors.Is(err, repository.ErrNotFound) {
		return notFound
	}
	return err
}

// constraintError maps a unique or check violation to the domain error
// registered for its constraint. Unknown constraints are returned unchanged.
func constraintError(err error, byConstraint map[string]error) error {
	if name, ok := repository.ConstraintName(err); ok {
		if mapped, ok := byConstraint[name]; ok {
			return mapped
		}
	}
	return err
}

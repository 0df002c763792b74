// Package bank forwards accepted simulations to the lending bank.
package bank

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/iwvelando/loan-simulator/pkg/validation"
	"go.uber.org/zap"
)

// ErrInvalidSubmission is returned when a submission is missing consent or
// valid contact details.
var ErrInvalidSubmission = errors.New("invalid submission")

// StatusReceived marks a submission the bank has accepted for review.
const StatusReceived = "received"

// Submission is an applicant's request to have a simulation reviewed.
type Submission struct {
	SimulationID   uuid.UUID `json:"simulationId"`
	FullName       string    `json:"fullName"`
	Email          string    `json:"email"`
	PhoneNumber    string    `json:"phoneNumber"`
	AcceptTerms    bool      `json:"acceptTerms"`
	ProductType    string    `json:"productType,omitempty"`
	Amount         float64   `json:"amount,omitempty"`
	Term           int       `json:"term,omitempty"`
	MonthlyPayment float64   `json:"monthlyPayment,omitempty"`
	Currency       string    `json:"currency,omitempty"`
}

// Validate checks consent and the contact fields.
func (s Submission) Validate() error {
	if s.SimulationID == uuid.Nil {
		return fmt.Errorf("%w: missing simulation id", ErrInvalidSubmission)
	}
	if !s.AcceptTerms {
		return fmt.Errorf("%w: terms must be accepted", ErrInvalidSubmission)
	}
	if err := validation.ValidateContact(s.FullName, s.Email, s.PhoneNumber); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidSubmission, err)
	}
	return nil
}

// Receipt acknowledges a submission.
type Receipt struct {
	Reference    uuid.UUID `json:"reference"`
	SimulationID uuid.UUID `json:"simulationId"`
	SubmittedAt  time.Time `json:"submittedAt"`
	Status       string    `json:"status"`
}

// Submitter hands simulations over to the bank.
type Submitter interface {
	Submit(ctx context.Context, submission Submission) (Receipt, error)
}

// LogSubmitter records submissions in the log instead of calling a bank
// backend.
type LogSubmitter struct {
	logger *zap.Logger
	now    func() time.Time
}

// NewLogSubmitter creates a submitter that logs every accepted submission.
func NewLogSubmitter(logger *zap.Logger) *LogSubmitter {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LogSubmitter{logger: logger, now: time.Now}
}

// Submit validates the submission and returns a receipt with a new reference.
func (s *LogSubmitter) Submit(ctx context.Context, submission Submission) (Receipt, error) {
	if err := ctx.Err(); err != nil {
		return Receipt{}, err
	}
	if err := submission.Validate(); err != nil {
		return Receipt{}, err
	}

	receipt := Receipt{
		Reference:    uuid.New(),
		SimulationID: submission.SimulationID,
		SubmittedAt:  s.now(),
		Status:       StatusReceived,
	}

	s.logger.Info("simulation submitted to bank",
		zap.String("op", "bank.LogSubmitter.Submit"),
		zap.String("reference", receipt.Reference.String()),
		zap.String("simulationId", submission.SimulationID.String()),
		zap.String("productType", submission.ProductType),
		zap.Float64("amount", submission.Amount),
		zap.Int("term", submission.Term),
		zap.Float64("monthlyPayment", submission.MonthlyPayment),
		zap.String("currency", submission.Currency),
	)
	return receipt, nil
}

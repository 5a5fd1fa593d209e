package data

import (
	"fmt"
	"time"
)

// Expense is one travel reimbursement. Fraud is 1 for a confirmed fraud.
type Expense struct {
	ExpenseID      string    `json:"expense_id"`
	RequestID      string    `json:"request_id"`
	RequesterID    string    `json:"requester_id"`
	TravellerID    string    `json:"traveller_id"`
	ApproverID     string    `json:"approver_id"`
	RequestDate    time.Time `json:"request_date"`
	TravelDate     time.Time `json:"travel_date"`
	Category       string    `json:"category"`
	Description    string    `json:"description"`
	Amount         float64   `json:"amount"`
	Currency       string    `json:"currency"`
	JobTitle       string    `json:"job_title"`
	Department     string    `json:"department"`
	ApprovalStatus string    `json:"approval_status"`
	Fraud          int       `json:"fraud"`
}

// ExpenseInput is the request body form of an Expense, dates as DateLayout.
type ExpenseInput struct {
	ExpenseID      string  `json:"expense_id"`
	RequestID      string  `json:"request_id"`
	RequesterID    string  `json:"requester_id"`
	TravellerID    string  `json:"traveller_id"`
	ApproverID     string  `json:"approver_id"`
	RequestDate    string  `json:"request_date" binding:"required,datetime=2006-01-02"`
	TravelDate     string  `json:"travel_date" binding:"required,datetime=2006-01-02"`
	Category       string  `json:"category" binding:"required"`
	Description    string  `json:"description"`
	Amount         float64 `json:"amount"`
	Currency       string  `json:"currency"`
	JobTitle       string  `json:"job_title"`
	Department     string  `json:"department"`
	ApprovalStatus string  `json:"approval_status"`
}

func (in ExpenseInput) Expense() (Expense, error) {
	rd, err := time.Parse(DateLayout, in.RequestDate)
	if err != nil {
		return Expense{}, fmt.Errorf("request_date: %w", err)
	}
	td, err := time.Parse(DateLayout, in.TravelDate)
	if err != nil {
		return Expense{}, fmt.Errorf("travel_date: %w", err)
	}
	return Expense{
		ExpenseID:      in.ExpenseID,
		RequestID:      in.RequestID,
		RequesterID:    in.RequesterID,
		TravellerID:    in.TravellerID,
		ApproverID:     in.ApproverID,
		RequestDate:    rd,
		TravelDate:     td,
		Category:       in.Category,
		Description:    in.Description,
		Amount:         in.Amount,
		Currency:       in.Currency,
		JobTitle:       in.JobTitle,
		Department:     in.Department,
		ApprovalStatus: in.ApprovalStatus,
	}, nil
}

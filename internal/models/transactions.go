package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// TransactionType enumerates the ledger entry kinds the backend emits.
type TransactionType string

const (
	TxOrder         TransactionType = "ORDER"
	TxTopupApproved TransactionType = "TOPUP_APPROVED"
	TxTopupRejected TransactionType = "TOPUP_REJECTED"
	TxRefund        TransactionType = "REFUND"
	TxLoanDeduction TransactionType = "LOAN_DEDUCTION"
	TxCartAdd       TransactionType = "CART_ADD"
	TxCartRemove    TransactionType = "CART_REMOVE"
	TxLoanStatus    TransactionType = "LOAN_STATUS"
	TxTopupRequest  TransactionType = "TOPUP_REQUEST"
)

// TransactionTypes lists the filterable types in display order.
func TransactionTypes() []TransactionType {
	return []TransactionType{
		TxTopupApproved, TxOrder, TxLoanDeduction,
		TxCartAdd, TxCartRemove, TxLoanStatus, TxTopupRequest,
	}
}

// TxUser identifies the account a transaction belongs to.
type TxUser struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Transaction is an append-only ledger entry. Amount is signed; Balance
// is the running total as supplied by the backend and is never
// recomputed client-side.
type Transaction struct {
	ID          string          `json:"id"`
	Type        TransactionType `json:"type"`
	Amount      decimal.Decimal `json:"amount"`
	Balance     decimal.Decimal `json:"balance"`
	Description string          `json:"description"`
	User        *TxUser         `json:"user"`
	CreatedAt   time.Time       `json:"createdAt"`
}

// UserName returns the owning user's name, or "" when unattributed.
func (t *Transaction) UserName() string {
	if t.User == nil {
		return ""
	}
	return t.User.Name
}

package utils

import "errors"

var (
	ErrInvalidAmount         = errors.New("invalid amount")
	ErrGigNotFound           = errors.New("gig not found")
	ErrGigNotPurchasable     = errors.New("gig not purchasable")
	ErrOrderNotFound         = errors.New("order not found")
	ErrTransactionNotFound   = errors.New("transaction not found")
	ErrDisputeNotFound       = errors.New("dispute not found")
	ErrPayoutNotFound        = errors.New("payout not found")
	ErrCheckoutFailed        = errors.New("checkout creation failed")
	ErrIllegalTransition     = errors.New("illegal state transition")
	ErrSignatureVerification = errors.New("webhook signature verification failed")
	ErrInsufficientBalance   = errors.New("insufficient balance")
	ErrDisputeAlreadyOpen    = errors.New("dispute already open for this order")
	ErrRefundExceedsCharge   = errors.New("refund amount exceeds charged amount")
	ErrForbidden             = errors.New("forbidden")
	ErrConflict              = errors.New("conflicting concurrent update")
	ErrGateway               = errors.New("payment gateway error")
	ErrDatabaseError         = errors.New("database error")
)

package services

import (
	"craftly/pkg/utils"
)

// FeeSplitService computes the platform/seller split for one order total.
// Pure arithmetic, no side effects.
type FeeSplitService interface {
	Split(totalAmount int64, feePercent int) (platformFee int64, sellerEarnings int64, err error)
}

type feeSplitService struct{}

func NewFeeSplitService() FeeSplitService {
	return &feeSplitService{}
}

// Split uses half-up rounding on the fee: fee = round(total * percent / 100).
// The remainder goes to the seller, so fee + earnings == total always holds.
func (f *feeSplitService) Split(totalAmount int64, feePercent int) (int64, int64, error) {
	if totalAmount <= 0 {
		return 0, 0, utils.ErrInvalidAmount
	}
	if feePercent < 0 || feePercent > 100 {
		return 0, 0, utils.ErrInvalidAmount
	}

	platformFee := (totalAmount*int64(feePercent) + 50) / 100
	sellerEarnings := totalAmount - platformFee
	return platformFee, sellerEarnings, nil
}

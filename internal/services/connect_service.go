package services

import (
	"context"

	"github.com/google/uuid"

	"craftly/internal/gateway"
	"craftly/internal/models/db_models"
	"craftly/internal/models/response_models"
	"craftly/internal/repositories"
	"craftly/pkg/utils"
)

// ConnectService onboards sellers onto the gateway's connected-account
// program so destination charges and transfers can route to them.
type ConnectService interface {
	CreateAccount(ctx context.Context, userID uuid.UUID, email, country, refreshURL, returnURL string) (*response_models.ConnectAccountResponse, error)
	GetAccountStatus(ctx context.Context, userID uuid.UUID) (*response_models.ConnectAccountResponse, error)
	CreateLoginLink(ctx context.Context, userID uuid.UUID) (string, error)
}

type connectService struct {
	accountRepo repositories.SellerAccountRepositoryInterface
	gw          gateway.Client
}

func NewConnectService(
	accountRepo repositories.SellerAccountRepositoryInterface,
	gw gateway.Client,
) ConnectService {
	return &connectService{accountRepo: accountRepo, gw: gw}
}

func (s *connectService) CreateAccount(ctx context.Context, userID uuid.UUID, email, country, refreshURL, returnURL string) (*response_models.ConnectAccountResponse, error) {
	existing, err := s.accountRepo.GetByUserID(ctx, userID)
	if err != nil {
		return nil, utils.ErrDatabaseError
	}

	if existing == nil {
		accountRef, err := s.gw.CreateConnectAccount(ctx, email, country)
		if err != nil {
			return nil, err
		}
		existing = &db_models.SellerAccount{
			UserID:            userID,
			GatewayAccountRef: accountRef,
			Country:           country,
		}
		if err := s.accountRepo.Create(ctx, existing); err != nil {
			return nil, utils.ErrDatabaseError
		}
	}

	// Onboarding links are single-use; mint a fresh one on every call so a
	// seller can always resume an abandoned onboarding.
	link, err := s.gw.CreateAccountLink(ctx, existing.GatewayAccountRef, refreshURL, returnURL)
	if err != nil {
		return nil, err
	}

	return &response_models.ConnectAccountResponse{
		AccountRef:       existing.GatewayAccountRef,
		OnboardingURL:    link,
		ChargesEnabled:   existing.ChargesEnabled,
		PayoutsEnabled:   existing.PayoutsEnabled,
		DetailsSubmitted: existing.DetailsSubmitted,
	}, nil
}

func (s *connectService) GetAccountStatus(ctx context.Context, userID uuid.UUID) (*response_models.ConnectAccountResponse, error) {
	account, err := s.requireAccount(ctx, userID)
	if err != nil {
		return nil, err
	}

	// Refresh from the gateway; the webhook feed normally keeps us current
	// but this endpoint is also the poll target right after onboarding.
	status, err := s.gw.GetAccountStatus(ctx, account.GatewayAccountRef)
	if err == nil {
		if status.ChargesEnabled != account.ChargesEnabled ||
			status.PayoutsEnabled != account.PayoutsEnabled ||
			status.DetailsSubmitted != account.DetailsSubmitted {
			_ = s.accountRepo.UpdateCapabilities(ctx, account.GatewayAccountRef,
				status.ChargesEnabled, status.PayoutsEnabled, status.DetailsSubmitted)
		}
		account.ChargesEnabled = status.ChargesEnabled
		account.PayoutsEnabled = status.PayoutsEnabled
		account.DetailsSubmitted = status.DetailsSubmitted
	}

	return &response_models.ConnectAccountResponse{
		AccountRef:       account.GatewayAccountRef,
		ChargesEnabled:   account.ChargesEnabled,
		PayoutsEnabled:   account.PayoutsEnabled,
		DetailsSubmitted: account.DetailsSubmitted,
	}, nil
}

func (s *connectService) CreateLoginLink(ctx context.Context, userID uuid.UUID) (string, error) {
	account, err := s.requireAccount(ctx, userID)
	if err != nil {
		return "", err
	}
	return s.gw.CreateLoginLink(ctx, account.GatewayAccountRef)
}

func (s *connectService) requireAccount(ctx context.Context, userID uuid.UUID) (*db_models.SellerAccount, error) {
	account, err := s.accountRepo.GetByUserID(ctx, userID)
	if err != nil {
		return nil, utils.ErrDatabaseError
	}
	if account == nil {
		return nil, utils.ErrPayoutNotFound
	}
	return account, nil
}

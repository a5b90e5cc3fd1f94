package services

import (
	"context"
	"errors"
	"log"
	"time"

	"craftly/internal/gateway"
	"craftly/internal/repositories"
	"craftly/pkg/memcache"
	"craftly/pkg/utils"
)

// WebhookService consumes one inbound gateway event at a time. Delivery is
// at-least-once and unordered: events are verified, de-duplicated by gateway
// event id and applied through CAS transitions, so a replay lands on the
// same final state as the first delivery.
type WebhookService interface {
	// ProcessWebhook verifies and applies one raw event. Error mapping at
	// the HTTP boundary: ErrSignatureVerification -> 400; ErrDatabaseError
	// or ErrGateway -> 500 so the gateway redelivers; anything else,
	// including unknown event types, acks with 200.
	ProcessWebhook(ctx context.Context, payload []byte, sigHeader string) error
}

type webhookService struct {
	verifier    gateway.Verifier
	escrow      EscrowService
	orderRepo   repositories.OrderRepositoryInterface
	eventRepo   repositories.WebhookEventRepositoryInterface
	disputeRepo repositories.DisputeRepositoryInterface
	accountRepo repositories.SellerAccountRepositoryInterface
	mail        IMailService
	seen        memcache.EventCache
}

func NewWebhookService(
	verifier gateway.Verifier,
	escrow EscrowService,
	orderRepo repositories.OrderRepositoryInterface,
	eventRepo repositories.WebhookEventRepositoryInterface,
	disputeRepo repositories.DisputeRepositoryInterface,
	accountRepo repositories.SellerAccountRepositoryInterface,
	mail IMailService,
	seen memcache.EventCache,
) WebhookService {
	return &webhookService{
		verifier:    verifier,
		escrow:      escrow,
		orderRepo:   orderRepo,
		eventRepo:   eventRepo,
		disputeRepo: disputeRepo,
		accountRepo: accountRepo,
		mail:        mail,
		seen:        seen,
	}
}

const seenTTL = 24 * time.Hour

func (s *webhookService) ProcessWebhook(ctx context.Context, payload []byte, sigHeader string) error {
	// Nothing in the raw body is trusted before this verification.
	event, err := s.verifier.Verify(payload, sigHeader)
	if err != nil {
		log.Printf("webhook: rejected event, signature verification failed: %v", err)
		return err
	}

	if s.seen != nil && s.seen.Seen(event.ID) {
		log.Printf("webhook: event %s already processed (cache), acking", event.ID)
		return nil
	}

	if err := s.dispatch(ctx, event); err != nil {
		// Not marked processed: a 5xx response makes the gateway retry and
		// the CAS transitions tolerate the replay.
		return err
	}

	// Record the id only after the handlers succeeded.
	fresh, err := s.eventRepo.MarkProcessed(ctx, event.ID, string(event.RawType))
	if err != nil {
		log.Printf("webhook: failed to record processed event %s: %v", event.ID, err)
		return utils.ErrDatabaseError
	}
	if !fresh {
		log.Printf("webhook: event %s was a redelivery, state unchanged", event.ID)
	}
	if s.seen != nil {
		s.seen.MarkSeen(event.ID, seenTTL)
	}
	return nil
}

func (s *webhookService) dispatch(ctx context.Context, event *gateway.Event) error {
	switch event.Kind {
	case gateway.EventCheckoutCompleted:
		return s.handleCheckoutCompleted(ctx, event.Session)

	case gateway.EventPaymentCaptured:
		return s.escrow.ConfirmCapture(ctx, event.Payment.PaymentRef)

	case gateway.EventPaymentFailed:
		return s.escrow.ConfirmPaymentFailed(ctx, event.Payment.PaymentRef, event.Payment.FailureMessage)

	case gateway.EventChargeRefunded:
		return s.handleChargeRefunded(ctx, event.Refund)

	case gateway.EventAccountUpdated:
		return s.handleAccountUpdated(ctx, event.Account)

	default:
		// Acknowledge unknown types, otherwise the gateway redelivers them
		// forever.
		log.Printf("webhook: unhandled event type %q (%s), acking", event.RawType, event.ID)
		return nil
	}
}

func (s *webhookService) handleCheckoutCompleted(ctx context.Context, payload *gateway.SessionPayload) error {
	if err := s.escrow.ConfirmPayment(ctx, payload); err != nil {
		// A session we cannot match or rebuild is logged and acked; a
		// retry storm will not make the metadata any better.
		if errors.Is(err, utils.ErrDatabaseError) {
			return err
		}
		log.Printf("webhook: checkout session %s not applied: %v", payload.SessionID, err)
		return nil
	}

	if s.mail != nil && payload.BuyerEmail != "" {
		orderRef := payload.Metadata["order_id"]
		go func() {
			if err := s.mail.SendOrderConfirmation(payload.BuyerEmail, orderRef, payload.AmountTotal, payload.Currency); err != nil {
				log.Printf("webhook: order confirmation mail for %s failed: %v", orderRef, err)
			}
		}()
	}
	return nil
}

func (s *webhookService) handleChargeRefunded(ctx context.Context, payload *gateway.RefundPayload) error {
	orderID, err := s.escrow.ConfirmRefund(ctx, payload.PaymentRef, payload.AmountRefunded)
	if err != nil {
		if errors.Is(err, utils.ErrTransactionNotFound) {
			// Refund for a payment we never tracked; log for investigation
			// and ack so the gateway stops retrying.
			log.Printf("webhook: refund for unknown payment %s, needs manual review", payload.PaymentRef)
			return nil
		}
		return err
	}

	// If this refund settles a resolved dispute, close it.
	closed, err := s.disputeRepo.CloseResolvedByOrder(ctx, orderID)
	if err != nil {
		return utils.ErrDatabaseError
	}
	if closed {
		log.Printf("webhook: dispute on order %s closed after refund confirmation", orderID)
	}

	if s.mail != nil {
		txn, err := s.orderRepo.GetTransactionByPaymentRef(ctx, payload.PaymentRef)
		if err == nil && txn != nil {
			if email := txn.BuyerEmail(); email != "" {
				currency := txn.Currency
				go func() {
					if err := s.mail.SendRefundNotice(email, orderID.String(), payload.AmountRefunded, currency); err != nil {
						log.Printf("webhook: refund notice mail for order %s failed: %v", orderID, err)
					}
				}()
			}
		}
	}
	return nil
}

func (s *webhookService) handleAccountUpdated(ctx context.Context, payload *gateway.AccountPayload) error {
	account, err := s.accountRepo.GetByAccountRef(ctx, payload.AccountRef)
	if err != nil {
		return utils.ErrDatabaseError
	}
	if account == nil {
		log.Printf("webhook: account update for unknown connect account %s, acking", payload.AccountRef)
		return nil
	}
	if err := s.accountRepo.UpdateCapabilities(ctx, payload.AccountRef,
		payload.ChargesEnabled, payload.PayoutsEnabled, payload.DetailsSubmitted); err != nil {
		return utils.ErrDatabaseError
	}
	return nil
}

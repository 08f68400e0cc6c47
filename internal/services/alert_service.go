package services

import (
	"fmt"
	"math/big"

	"github.com/resend/resend-go/v2"
	"go.uber.org/zap"

	"github.com/veritix/veritix-api/internal/logger"
)

// AlertService emails operators about conditions that need a human: a
// draining relayer wallet, an unusually expensive execution, a user pinned
// at their quota. Delivery is best effort and never blocks the caller.
type AlertService struct {
	client *resend.Client
	from   string
	to     []string
	logger *zap.Logger
}

// NewAlertService creates the alerting client. An empty API key disables
// delivery; alerts are then logged and dropped.
func NewAlertService(apiKey, from string, to []string) *AlertService {
	var client *resend.Client
	if apiKey != "" {
		client = resend.NewClient(apiKey)
	}
	return &AlertService{
		client: client,
		from:   from,
		to:     to,
		logger: logger.Log,
	}
}

// NotifyLowBalance reports the relayer wallet dropping under its threshold.
func (s *AlertService) NotifyLowBalance(relayer string, balance, threshold *big.Int) {
	subject := "Veritix relayer balance low"
	body := fmt.Sprintf(
		"<p>Relayer wallet <strong>%s</strong> holds %s wei, below the configured threshold of %s wei.</p>"+
			"<p>Top up the wallet to keep attestation sponsorship running.</p>",
		relayer, balance.String(), threshold.String(),
	)
	go s.send(subject, body)
}

// NotifyHighCost reports a single execution crossing the cost threshold.
func (s *AlertService) NotifyHighCost(userID, txHash string, usdCents, thresholdCents int64) {
	subject := "Veritix attestation cost threshold exceeded"
	body := fmt.Sprintf(
		"<p>Transaction <strong>%s</strong> for user %s cost %d USD cents (threshold %d).</p>",
		txHash, userID, usdCents, thresholdCents,
	)
	go s.send(subject, body)
}

// NotifyLimitReached reports a user hitting a daily sponsorship quota.
func (s *AlertService) NotifyLimitReached(userID, reason string) {
	subject := "Veritix sponsorship quota reached"
	body := fmt.Sprintf(
		"<p>User <strong>%s</strong> was denied sponsorship: %s.</p>",
		userID, reason,
	)
	go s.send(subject, body)
}

func (s *AlertService) send(subject, body string) {
	if s == nil {
		return
	}
	if s.client == nil || len(s.to) == 0 {
		s.logger.Debug("Alert delivery disabled, dropping", zap.String("subject", subject))
		return
	}

	params := &resend.SendEmailRequest{
		From:    s.from,
		To:      s.to,
		Subject: subject,
		Html:    body,
	}
	sent, err := s.client.Emails.Send(params)
	if err != nil {
		s.logger.Error("Failed to send alert email",
			zap.String("subject", subject),
			zap.Error(err),
		)
		return
	}
	s.logger.Info("Sent alert email",
		zap.String("subject", subject),
		zap.String("email_id", sent.Id),
	)
}

package notification

import (
	"context"
	"log/slog"
)

const (
	// KindOTP carries a login code to a mobile number.
	KindOTP = "otp_code"
	// KindTxnCreated tells a merchant a QR payment awaits review.
	KindTxnCreated = "txn_created"
	// KindCashback tells a customer cashback landed in their wallet.
	KindCashback = "cashback_credited"
	// KindWithdrawal acknowledges a withdrawal request.
	KindWithdrawal = "withdrawal_requested"
)

// Message describes a notification payload.
type Message struct {
	Kind        string
	Destination string
	Body        string
}

// Notifier delivers notifications to downstream systems. The production
// deployment hangs an SMS gateway here; the default wiring logs instead.
type Notifier interface {
	Send(ctx context.Context, message Message) error
}

// LoggerNotifier is a stub implementation that writes notifications to the logger.
type LoggerNotifier struct {
	logger *slog.Logger
}

// NewLoggerNotifier constructs a logging notifier stub.
func NewLoggerNotifier(logger *slog.Logger) *LoggerNotifier {
	return &LoggerNotifier{logger: logger}
}

// Send writes the message to the structured logger.
func (n *LoggerNotifier) Send(_ context.Context, message Message) error {
	if n == nil || n.logger == nil {
		return nil
	}
	n.logger.Info("notification", "kind", message.Kind, "destination", message.Destination, "body", message.Body)
	return nil
}

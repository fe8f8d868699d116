package notify

import "context"

// SMSNotifier is a placeholder until an SMS provider is wired in. It honors
// the Notifier contract so a real provider can drop in, but every send
// reports failure.
type SMSNotifier struct{}

// NewSMSNotifier creates the placeholder SMS notifier.
func NewSMSNotifier() *SMSNotifier { return &SMSNotifier{} }

func (s *SMSNotifier) Channel() Channel { return ChannelSMS }

func (s *SMSNotifier) Send(_ context.Context, _ string, _ Message) Result {
	return Result{
		Channel: ChannelSMS,
		Error:   "sms provider not configured",
	}
}

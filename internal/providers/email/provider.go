package email

import "context"

// Provider delivers workflow notifications. Delivery is best effort:
// callers log or surface failures as warnings and never roll back the
// state change that triggered the message.
type Provider interface {
	Send(ctx context.Context, to []string, subject string, htmlBody string) error
}

type NoOpProvider struct{}

func (p *NoOpProvider) Send(ctx context.Context, to []string, subject string, htmlBody string) error {
	return nil
}

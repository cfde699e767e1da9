package otp

import (
	"context"
	"log/slog"
)

// LogSender stands in for an SMS provider. It logs the masked destination
// only; the code itself is written at debug level for local development.
type LogSender struct {
	logger *slog.Logger
}

func NewLogSender(logger *slog.Logger) *LogSender {
	return &LogSender{logger: logger}
}

func (s *LogSender) Send(ctx context.Context, phone, code string) error {
	s.logger.InfoContext(ctx, "verification code issued", "phone", maskPhone(phone))
	s.logger.DebugContext(ctx, "verification code", "phone", maskPhone(phone), "code", code)
	return nil
}

package service

import (
	"context"
	"fmt"
	"html"
	"strings"

	"github.com/municipia/apoios/internal/application/domain"
	"go.uber.org/zap"
)

// notifyDeliberation emails the applicant entity about the chamber's
// decision. Best effort only.
func (s *Service) notifyDeliberation(ctx context.Context, application *domain.Application, deliberation *domain.MeetingDeliberation) error {
	entity, err := s.entities.FindByID(ctx, s.db, application.EntityID)
	if err != nil {
		return err
	}
	if entity == nil || strings.TrimSpace(entity.Email) == "" {
		s.log.Info("deliberation notification skipped, no recipient",
			zap.String("application_id", application.ID.String()),
		)
		return nil
	}

	subject := fmt.Sprintf("Support application decision: %s", application.Object)
	var body strings.Builder
	body.WriteString(fmt.Sprintf("<p>Dear %s,</p>", html.EscapeString(entity.Name)))

	outcome := "rejected"
	if deliberation.Decision == domain.DeliberationApproved {
		outcome = "approved"
	}
	decided := fmt.Sprintf("Your application <strong>%s</strong> was %s",
		html.EscapeString(application.Object), outcome)
	if deliberation.MeetingDate != nil {
		decided += fmt.Sprintf(" at the chamber meeting of %s", deliberation.MeetingDate.Format("2006-01-02"))
	}
	body.WriteString(fmt.Sprintf("<p>%s.</p>", decided))

	if deliberation.VotesFor != nil || deliberation.VotesAgainst != nil || deliberation.VotesAbstain != nil {
		body.WriteString(fmt.Sprintf("<p>Voting: %s in favour, %s against, %s abstentions.</p>",
			formatTally(deliberation.VotesFor),
			formatTally(deliberation.VotesAgainst),
			formatTally(deliberation.VotesAbstain),
		))
	}
	if deliberation.Decision == domain.DeliberationApproved && application.ApprovedAmount != nil {
		body.WriteString(fmt.Sprintf("<p>Approved amount: %.2f EUR.</p>", *application.ApprovedAmount))
	}
	if deliberation.Comment != "" {
		body.WriteString(fmt.Sprintf("<p>%s</p>", html.EscapeString(deliberation.Comment)))
	}

	if err := s.notifier.Send(ctx, []string{entity.Email}, subject, body.String()); err != nil {
		s.log.Warn("deliberation notification failed",
			zap.String("application_id", application.ID.String()),
			zap.String("entity_id", entity.ID.String()),
			zap.Error(err),
		)
		return err
	}
	return nil
}

func formatTally(votes *int) string {
	if votes == nil {
		return "-"
	}
	return fmt.Sprintf("%d", *votes)
}

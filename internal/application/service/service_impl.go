package service

import (
	"context"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/gosimple/slug"
	"github.com/municipia/apoios/internal/actorcontext"
	"github.com/municipia/apoios/internal/application/domain"
	"github.com/municipia/apoios/internal/clock"
	entitydomain "github.com/municipia/apoios/internal/entity/domain"
	historydomain "github.com/municipia/apoios/internal/history/domain"
	"github.com/municipia/apoios/internal/providers/email"
	"github.com/municipia/apoios/pkg/db/pagination"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	warnHistoryNotRecorded = "status history not recorded"
	warnNotificationFailed = "notification not delivered"
)

type Params struct {
	fx.In

	DB       *gorm.DB
	Log      *zap.Logger
	GenID    *snowflake.Node
	Clock    clock.Clock
	Repo     domain.Repository
	History  historydomain.Service
	Entities entitydomain.Repository
	Notifier email.Provider
}

type Service struct {
	db       *gorm.DB
	log      *zap.Logger
	genID    *snowflake.Node
	clock    clock.Clock
	repo     domain.Repository
	hist     historydomain.Service
	entities entitydomain.Repository
	notifier email.Provider
}

func New(p Params) domain.Service {
	return &Service{
		db:       p.DB,
		log:      p.Log.Named("application.service"),
		genID:    p.GenID,
		clock:    p.Clock,
		repo:     p.Repo,
		hist:     p.History,
		entities: p.Entities,
		notifier: p.Notifier,
	}
}

func (s *Service) Create(ctx context.Context, req domain.CreateApplicationRequest) (domain.CreateApplicationResult, error) {
	entityID := req.EntityID
	if actorEntityID, ok := actorcontext.EntityIDFromContext(ctx); ok {
		entityID = actorEntityID
	}
	if entityID == 0 {
		return domain.CreateApplicationResult{}, domain.ErrInvalidEntity
	}

	object := strings.TrimSpace(req.Object)
	if object == "" {
		return domain.CreateApplicationResult{}, domain.ErrInvalidObject
	}
	if req.RequestedAmount < 0 {
		return domain.CreateApplicationResult{}, domain.ErrInvalidAmount
	}

	entity, err := s.entities.FindByID(ctx, s.db, entityID)
	if err != nil {
		return domain.CreateApplicationResult{}, err
	}
	if entity == nil {
		return domain.CreateApplicationResult{}, domain.ErrInvalidEntity
	}

	now := s.clock.Now()
	application := domain.Application{
		ID:               s.genID.Generate(),
		EntityID:         entityID,
		CategoryID:       req.CategoryID,
		Object:           object,
		ObjectNormalized: normalizeObject(object),
		Description:      strings.TrimSpace(req.Description),
		RequestedAmount:  req.RequestedAmount,
		CurrentStatus:    domain.StatusDraft,
		CreatedBy:        s.actorID(ctx),
		CreatedAt:        now,
		UpdatedAt:        now,
	}

	if err := s.repo.Insert(ctx, s.db, &application); err != nil {
		return domain.CreateApplicationResult{}, err
	}

	var warnings []string
	if err := s.hist.RecordStatus(ctx, historydomain.RecordStatusRequest{
		ApplicationID: application.ID,
		ToStatus:      string(domain.StatusDraft),
		ChangedBy:     s.actorID(ctx),
	}); err != nil {
		warnings = append(warnings, warnHistoryNotRecorded)
	}

	duplicates, err := s.repo.FindDuplicates(ctx, s.db, application.ObjectNormalized, application.ID)
	if err != nil {
		// Duplicate detection is advisory; a lookup failure never fails intake.
		s.log.Warn("duplicate lookup failed",
			zap.String("application_id", application.ID.String()),
			zap.Error(err),
		)
		duplicates = nil
	}

	return domain.CreateApplicationResult{
		Application: application,
		Duplicates:  duplicates,
		Warnings:    warnings,
	}, nil
}

func (s *Service) Update(ctx context.Context, id string, req domain.UpdateApplicationRequest) (domain.Application, error) {
	applicationID, err := s.parseID(id)
	if err != nil {
		return domain.Application{}, err
	}

	var updated domain.Application
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		application, err := s.repo.FindByIDForUpdate(ctx, tx, applicationID)
		if err != nil {
			return err
		}
		if application == nil {
			return domain.ErrNotFound
		}
		if err := s.checkOwnership(ctx, application); err != nil {
			return err
		}
		if !domain.Editable(application.CurrentStatus) {
			return domain.ErrNotEditable
		}

		if object := strings.TrimSpace(req.Object); object != "" {
			application.Object = object
			application.ObjectNormalized = normalizeObject(object)
		}
		if description := strings.TrimSpace(req.Description); description != "" {
			application.Description = description
		}
		if req.CategoryID != nil {
			application.CategoryID = req.CategoryID
		}
		if req.RequestedAmount != nil {
			if *req.RequestedAmount < 0 {
				return domain.ErrInvalidAmount
			}
			application.RequestedAmount = *req.RequestedAmount
		}
		application.UpdatedAt = s.clock.Now()

		if err := s.repo.Save(ctx, tx, application); err != nil {
			return err
		}
		updated = *application
		return nil
	})
	if err != nil {
		return domain.Application{}, err
	}
	return updated, nil
}

func (s *Service) Delete(ctx context.Context, id string) error {
	applicationID, err := s.parseID(id)
	if err != nil {
		return err
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		application, err := s.repo.FindByIDForUpdate(ctx, tx, applicationID)
		if err != nil {
			return err
		}
		if application == nil {
			return domain.ErrNotFound
		}
		if err := s.checkOwnership(ctx, application); err != nil {
			return err
		}
		if application.CurrentStatus != domain.StatusDraft {
			return domain.ErrNotEditable
		}
		return s.repo.Delete(ctx, tx, applicationID)
	})
}

func (s *Service) GetByID(ctx context.Context, id string) (domain.Application, error) {
	applicationID, err := s.parseID(id)
	if err != nil {
		return domain.Application{}, err
	}

	application, err := s.repo.FindByID(ctx, s.db, applicationID)
	if err != nil {
		return domain.Application{}, err
	}
	if application == nil {
		return domain.Application{}, domain.ErrNotFound
	}
	if err := s.checkOwnership(ctx, application); err != nil {
		return domain.Application{}, err
	}
	return *application, nil
}

func (s *Service) List(ctx context.Context, req domain.ListApplicationRequest) (domain.ListApplicationResponse, error) {
	filter := domain.ListApplicationFilter{
		EntityID: req.EntityID,
		Status:   req.Status,
	}
	// Entity users only ever see their own applications.
	if actorEntityID, ok := actorcontext.EntityIDFromContext(ctx); ok {
		filter.EntityID = &actorEntityID
	}

	pageSize := req.PageSize
	if pageSize <= 0 {
		pageSize = 50
	}

	items, err := s.repo.List(ctx, s.db, filter, pagination.Pagination{
		PageToken: req.PageToken,
		PageSize:  int(pageSize),
	})
	if err != nil {
		return domain.ListApplicationResponse{}, err
	}

	pageInfo := pagination.BuildCursorPageInfo(items, pageSize, func(application *domain.Application) string {
		token, err := pagination.EncodeCursor(pagination.Cursor{
			ID:        application.ID.String(),
			CreatedAt: application.CreatedAt.Format(time.RFC3339),
		})
		if err != nil {
			return ""
		}
		return token
	})
	if pageInfo != nil && pageInfo.HasMore && len(items) > int(pageSize) {
		items = items[:pageSize]
	}

	applications := make([]domain.Application, 0, len(items))
	for _, item := range items {
		if item == nil {
			continue
		}
		applications = append(applications, *item)
	}

	resp := domain.ListApplicationResponse{Applications: applications}
	if pageInfo != nil {
		resp.PageInfo = *pageInfo
	}
	return resp, nil
}

func (s *Service) Submit(ctx context.Context, id string, req domain.SubmitRequest) (domain.TransitionResult, error) {
	return s.runTransition(ctx, domain.OpSubmit, id, req.Comment, true, func(now time.Time, _ *domain.Application) map[string]any {
		return map[string]any{"submitted_at": now}
	}, nil)
}

func (s *Service) BeginReview(ctx context.Context, id string) (domain.TransitionResult, error) {
	return s.runTransition(ctx, domain.OpBeginReview, id, "", false, nil, nil)
}

func (s *Service) Return(ctx context.Context, id string, req domain.ReturnRequest) (domain.TransitionResult, error) {
	return s.runTransition(ctx, domain.OpReturn, id, req.Comment, false, nil, nil)
}

func (s *Service) Validate(ctx context.Context, id string, req domain.ValidateRequest) (domain.TransitionResult, error) {
	return s.runTransition(ctx, domain.OpValidate, id, req.Comment, false, func(now time.Time, _ *domain.Application) map[string]any {
		return map[string]any{"tech_validated_at": now}
	}, nil)
}

func (s *Service) SendToPresident(ctx context.Context, id string) (domain.TransitionResult, error) {
	return s.runTransition(ctx, domain.OpSendToPresident, id, "", false, nil, nil)
}

// runTransition executes one table-driven transition: lock the row,
// check the window, CAS the status, then append history outside the
// transaction so an audit failure cannot roll back the change.
func (s *Service) runTransition(
	ctx context.Context,
	op domain.Operation,
	id string,
	comment string,
	ownerOnly bool,
	stamps func(now time.Time, application *domain.Application) map[string]any,
	metadata map[string]any,
) (domain.TransitionResult, error) {
	applicationID, err := s.parseID(id)
	if err != nil {
		return domain.TransitionResult{}, err
	}

	rule, ok := domain.RuleFor(op)
	if !ok {
		return domain.TransitionResult{}, domain.ErrInvalidDecision
	}
	comment = strings.TrimSpace(comment)
	if rule.RequiresComment && comment == "" {
		return domain.TransitionResult{}, domain.ErrCommentRequired
	}

	var (
		fromStatus domain.ApplicationStatus
		updated    domain.Application
	)
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		application, err := s.repo.FindByIDForUpdate(ctx, tx, applicationID)
		if err != nil {
			return err
		}
		if application == nil {
			return domain.ErrNotFound
		}
		if ownerOnly {
			if err := s.checkOwnership(ctx, application); err != nil {
				return err
			}
		}
		if !rule.Allowed(application.CurrentStatus) {
			return domain.NewInvalidState(op, application.CurrentStatus, rule.From...)
		}

		now := s.clock.Now()
		extra := map[string]any{"updated_at": now}
		if stamps != nil {
			for column, value := range stamps(now, application) {
				extra[column] = value
			}
		}

		affected, err := s.repo.UpdateStatusCAS(ctx, tx, applicationID, application.CurrentStatus, rule.To, extra)
		if err != nil {
			return err
		}
		if affected == 0 {
			return domain.ErrConcurrentUpdate
		}

		fromStatus = application.CurrentStatus
		updated = *application
		updated.CurrentStatus = rule.To
		updated.UpdatedAt = now
		applyStampsToModel(&updated, extra)
		return nil
	})
	if err != nil {
		return domain.TransitionResult{}, err
	}

	result := domain.TransitionResult{Application: updated}
	from := string(fromStatus)
	if err := s.hist.RecordStatus(ctx, historydomain.RecordStatusRequest{
		ApplicationID: applicationID,
		FromStatus:    &from,
		ToStatus:      string(rule.To),
		Comment:       comment,
		ChangedBy:     s.actorID(ctx),
		Metadata:      metadata,
	}); err != nil {
		result.Warnings = append(result.Warnings, warnHistoryNotRecorded)
	}
	return result, nil
}

func (s *Service) PresidentDecide(ctx context.Context, id string, req domain.PresidentDecideRequest) (domain.TransitionResult, error) {
	applicationID, err := s.parseID(id)
	if err != nil {
		return domain.TransitionResult{}, err
	}

	decision := strings.ToUpper(strings.TrimSpace(req.Decision))
	if decision != domain.PresidentForward && decision != domain.PresidentReturn {
		return domain.TransitionResult{}, domain.ErrInvalidDecision
	}
	comment := strings.TrimSpace(req.Comment)
	if decision == domain.PresidentReturn && comment == "" {
		return domain.TransitionResult{}, domain.ErrCommentRequired
	}

	target := domain.StatusSentToMeeting
	if decision == domain.PresidentReturn {
		target = domain.StatusReturned
	}

	var updated domain.Application
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		application, err := s.repo.FindByIDForUpdate(ctx, tx, applicationID)
		if err != nil {
			return err
		}
		if application == nil {
			return domain.ErrNotFound
		}
		if application.CurrentStatus != domain.StatusReadyForPresident {
			return domain.NewInvalidState(domain.OpPresidentDecide, application.CurrentStatus, domain.StatusReadyForPresident)
		}

		now := s.clock.Now()
		record := &domain.PresidentDecision{
			ID:            s.genID.Generate(),
			ApplicationID: applicationID,
			Decision:      decision,
			Comment:       comment,
			DecidedBy:     s.actorID(ctx),
			DecidedAt:     &now,
			CreatedAt:     now,
			UpdatedAt:     now,
		}
		if err := s.repo.UpsertPresidentDecision(ctx, tx, record); err != nil {
			return err
		}

		extra := map[string]any{"updated_at": now}
		if target == domain.StatusSentToMeeting {
			extra["sent_to_meeting_at"] = now
		}
		affected, err := s.repo.UpdateStatusCAS(ctx, tx, applicationID, domain.StatusReadyForPresident, target, extra)
		if err != nil {
			return err
		}
		if affected == 0 {
			return domain.ErrConcurrentUpdate
		}

		updated = *application
		updated.CurrentStatus = target
		updated.UpdatedAt = now
		applyStampsToModel(&updated, extra)
		return nil
	})
	if err != nil {
		return domain.TransitionResult{}, err
	}

	result := domain.TransitionResult{Application: updated}
	from := string(domain.StatusReadyForPresident)
	if err := s.hist.RecordStatus(ctx, historydomain.RecordStatusRequest{
		ApplicationID: applicationID,
		FromStatus:    &from,
		ToStatus:      string(target),
		Comment:       comment,
		ChangedBy:     s.actorID(ctx),
		Metadata:      map[string]any{"president_decision": decision},
	}); err != nil {
		result.Warnings = append(result.Warnings, warnHistoryNotRecorded)
	}
	return result, nil
}

// Deliberate records the chamber decision and advances the application
// twice: into S9_DELIBERATED and then to its resting status. Each hop
// gets its own history row.
func (s *Service) Deliberate(ctx context.Context, id string, req domain.DeliberateRequest) (domain.TransitionResult, error) {
	applicationID, err := s.parseID(id)
	if err != nil {
		return domain.TransitionResult{}, err
	}

	decision := strings.ToUpper(strings.TrimSpace(req.Decision))
	if decision != domain.DeliberationApproved && decision != domain.DeliberationRejected {
		return domain.TransitionResult{}, domain.ErrInvalidDecision
	}
	if req.MeetingDate == nil {
		return domain.TransitionResult{}, domain.ErrMeetingDateRequired
	}
	if req.ApprovedAmount != nil && *req.ApprovedAmount < 0 {
		return domain.TransitionResult{}, domain.ErrInvalidAmount
	}
	comment := strings.TrimSpace(req.Comment)

	final := domain.StatusAwaitingExpense
	if decision == domain.DeliberationRejected {
		final = domain.StatusClosed
	}

	var (
		updated      domain.Application
		deliberation *domain.MeetingDeliberation
	)
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		application, err := s.repo.FindByIDForUpdate(ctx, tx, applicationID)
		if err != nil {
			return err
		}
		if application == nil {
			return domain.ErrNotFound
		}
		if application.CurrentStatus != domain.StatusSentToMeeting {
			return domain.NewInvalidState(domain.OpDeliberate, application.CurrentStatus, domain.StatusSentToMeeting)
		}

		now := s.clock.Now()
		deliberation = &domain.MeetingDeliberation{
			ID:             s.genID.Generate(),
			ApplicationID:  applicationID,
			Decision:       decision,
			ApprovedAmount: req.ApprovedAmount,
			MeetingDate:    req.MeetingDate,
			VotesFor:       req.VotesFor,
			VotesAgainst:   req.VotesAgainst,
			VotesAbstain:   req.VotesAbstain,
			VotingNotes:    strings.TrimSpace(req.VotingNotes),
			Comment:        comment,
			RecordedBy:     s.actorID(ctx),
			CreatedAt:      now,
			UpdatedAt:      now,
		}
		if err := s.repo.UpsertDeliberation(ctx, tx, deliberation); err != nil {
			return err
		}

		extra := map[string]any{"updated_at": now}
		// The approved amount is fixed at deliberation: the recorded
		// amount when given, otherwise whatever was already set.
		if decision == domain.DeliberationApproved && req.ApprovedAmount != nil {
			extra["approved_amount"] = *req.ApprovedAmount
		}
		affected, err := s.repo.UpdateStatusCAS(ctx, tx, applicationID, domain.StatusSentToMeeting, domain.StatusDeliberated, extra)
		if err != nil {
			return err
		}
		if affected == 0 {
			return domain.ErrConcurrentUpdate
		}

		updated = *application
		updated.CurrentStatus = domain.StatusDeliberated
		updated.UpdatedAt = now
		if decision == domain.DeliberationApproved && req.ApprovedAmount != nil {
			updated.ApprovedAmount = req.ApprovedAmount
		}
		return nil
	})
	if err != nil {
		return domain.TransitionResult{}, err
	}

	result := domain.TransitionResult{Application: updated}
	from := string(domain.StatusSentToMeeting)
	if err := s.hist.RecordStatus(ctx, historydomain.RecordStatusRequest{
		ApplicationID: applicationID,
		FromStatus:    &from,
		ToStatus:      string(domain.StatusDeliberated),
		Comment:       comment,
		ChangedBy:     s.actorID(ctx),
		Metadata:      map[string]any{"deliberation": decision},
	}); err != nil {
		result.Warnings = append(result.Warnings, warnHistoryNotRecorded)
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		now := s.clock.Now()
		extra := map[string]any{"updated_at": now}
		if final == domain.StatusClosed {
			extra["closed_at"] = now
		}
		affected, err := s.repo.UpdateStatusCAS(ctx, tx, applicationID, domain.StatusDeliberated, final, extra)
		if err != nil {
			return err
		}
		if affected == 0 {
			return domain.ErrConcurrentUpdate
		}
		updated.CurrentStatus = final
		updated.UpdatedAt = now
		applyStampsToModel(&updated, extra)
		return nil
	})
	if err != nil {
		return domain.TransitionResult{}, err
	}
	result.Application = updated

	fromDeliberated := string(domain.StatusDeliberated)
	if err := s.hist.RecordStatus(ctx, historydomain.RecordStatusRequest{
		ApplicationID: applicationID,
		FromStatus:    &fromDeliberated,
		ToStatus:      string(final),
		ChangedBy:     s.actorID(ctx),
		Metadata:      map[string]any{"deliberation": decision},
	}); err != nil {
		result.Warnings = append(result.Warnings, warnHistoryNotRecorded)
	}

	if err := s.notifyDeliberation(ctx, &updated, deliberation); err != nil {
		result.Warnings = append(result.Warnings, warnNotificationFailed)
	}
	return result, nil
}

// Deliberation returns the recorded chamber decision for an
// application.
func (s *Service) Deliberation(ctx context.Context, id string) (domain.MeetingDeliberation, error) {
	applicationID, err := s.parseID(id)
	if err != nil {
		return domain.MeetingDeliberation{}, err
	}

	application, err := s.repo.FindByID(ctx, s.db, applicationID)
	if err != nil {
		return domain.MeetingDeliberation{}, err
	}
	if application == nil {
		return domain.MeetingDeliberation{}, domain.ErrNotFound
	}
	if err := s.checkOwnership(ctx, application); err != nil {
		return domain.MeetingDeliberation{}, err
	}

	deliberation, err := s.repo.FindDeliberation(ctx, s.db, applicationID)
	if err != nil {
		return domain.MeetingDeliberation{}, err
	}
	if deliberation == nil {
		return domain.MeetingDeliberation{}, domain.ErrDeliberationMissing
	}
	return *deliberation, nil
}

func (s *Service) ForceReturn(ctx context.Context, id snowflake.ID, comment string) (domain.TransitionResult, error) {
	if id == 0 {
		return domain.TransitionResult{}, domain.ErrInvalidID
	}

	var (
		fromStatus domain.ApplicationStatus
		updated    domain.Application
		moved      bool
	)
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		application, err := s.repo.FindByIDForUpdate(ctx, tx, id)
		if err != nil {
			return err
		}
		if application == nil {
			return domain.ErrNotFound
		}

		updated = *application
		if !domain.Returnable(application.CurrentStatus) {
			return nil
		}

		now := s.clock.Now()
		extra := map[string]any{"updated_at": now}
		affected, err := s.repo.UpdateStatusCAS(ctx, tx, id, application.CurrentStatus, domain.StatusReturned, extra)
		if err != nil {
			return err
		}
		if affected == 0 {
			return domain.ErrConcurrentUpdate
		}

		fromStatus = application.CurrentStatus
		updated.CurrentStatus = domain.StatusReturned
		updated.UpdatedAt = now
		moved = true
		return nil
	})
	if err != nil {
		return domain.TransitionResult{}, err
	}

	result := domain.TransitionResult{Application: updated}
	if !moved {
		return result, nil
	}

	from := string(fromStatus)
	if err := s.hist.RecordStatus(ctx, historydomain.RecordStatusRequest{
		ApplicationID: id,
		FromStatus:    &from,
		ToStatus:      string(domain.StatusReturned),
		Comment:       strings.TrimSpace(comment),
		ChangedBy:     s.actorID(ctx),
		Metadata:      map[string]any{"cascade": "document_rejected"},
	}); err != nil {
		result.Warnings = append(result.Warnings, warnHistoryNotRecorded)
	}
	return result, nil
}

func (s *Service) CanUploadDocuments(ctx context.Context, id snowflake.ID) (bool, error) {
	if id == 0 {
		return false, domain.ErrInvalidID
	}
	application, err := s.repo.FindByID(ctx, s.db, id)
	if err != nil {
		return false, err
	}
	if application == nil {
		return false, domain.ErrNotFound
	}
	return domain.Editable(application.CurrentStatus), nil
}

func (s *Service) checkOwnership(ctx context.Context, application *domain.Application) error {
	actorEntityID, ok := actorcontext.EntityIDFromContext(ctx)
	if !ok {
		return nil
	}
	if application.EntityID != actorEntityID {
		return domain.ErrNotOwner
	}
	return nil
}

func (s *Service) actorID(ctx context.Context) *snowflake.ID {
	actor, ok := actorcontext.ActorFromContext(ctx)
	if !ok {
		return nil
	}
	id := actor.UserID
	return &id
}

func (s *Service) parseID(value string) (snowflake.ID, error) {
	id, err := snowflake.ParseString(strings.TrimSpace(value))
	if err != nil || id == 0 {
		return 0, domain.ErrInvalidID
	}
	return id, nil
}

// normalizeObject folds case and diacritics so "Apoio à Festa" and
// "apoio a festa" collide in duplicate detection.
func normalizeObject(object string) string {
	return slug.Make(object)
}

func applyStampsToModel(application *domain.Application, extra map[string]any) {
	for column, value := range extra {
		ts, ok := value.(time.Time)
		if !ok {
			continue
		}
		stamp := ts
		switch column {
		case "submitted_at":
			application.SubmittedAt = &stamp
		case "tech_validated_at":
			application.TechValidatedAt = &stamp
		case "sent_to_meeting_at":
			application.SentToMeetingAt = &stamp
		case "closed_at":
			application.ClosedAt = &stamp
		}
	}
}

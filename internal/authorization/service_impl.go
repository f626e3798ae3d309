package authorization

import (
	"context"
	_ "embed"
	"fmt"
	"strings"

	"github.com/casbin/casbin/v2"
	"github.com/casbin/casbin/v2/model"
	gormadapter "github.com/casbin/gorm-adapter/v3"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

//go:embed model.conf
var modelText string

const (
	ObjectApplication = "application"
	ObjectDocument    = "document"
	ObjectHistory     = "history"
	ObjectEntity      = "entity"
	ObjectReference   = "reference"
	ObjectUser        = "user"
)

const (
	ActionApplicationView   = "application.view"
	ActionApplicationCreate = "application.create"
	ActionApplicationUpdate = "application.update"
	ActionApplicationDelete = "application.delete"

	ActionApplicationSubmit          = "application.submit"
	ActionApplicationBeginReview     = "application.begin_review"
	ActionApplicationReturn          = "application.return"
	ActionApplicationValidate        = "application.validate"
	ActionApplicationSendToPresident = "application.send_to_president"
	ActionApplicationDecide          = "application.decide"
	ActionApplicationDeliberate      = "application.deliberate"

	ActionDocumentView   = "document.view"
	ActionDocumentUpload = "document.upload"
	ActionDocumentReview = "document.review"
	ActionDocumentDelete = "document.delete"

	ActionHistoryView = "history.view"

	ActionEntityView   = "entity.view"
	ActionEntityManage = "entity.manage"

	ActionReferenceView   = "reference.view"
	ActionReferenceManage = "reference.manage"

	ActionUserView   = "user.view"
	ActionUserManage = "user.manage"
)

type Params struct {
	fx.In

	DB       *gorm.DB
	Log      *zap.Logger
	Enforcer *casbin.SyncedEnforcer
}

type ServiceImpl struct {
	db       *gorm.DB
	log      *zap.Logger
	enforcer *casbin.SyncedEnforcer
}

func NewEnforcer(db *gorm.DB) (*casbin.SyncedEnforcer, error) {
	adapter, err := gormadapter.NewAdapterByDB(db)
	if err != nil {
		return nil, err
	}
	m, err := model.NewModelFromString(modelText)
	if err != nil {
		return nil, err
	}
	enforcer, err := casbin.NewSyncedEnforcer(m, adapter)
	if err != nil {
		return nil, err
	}
	enforcer.EnableAutoSave(true)
	enforcer.EnableAutoBuildRoleLinks(true)
	if err := enforcer.LoadPolicy(); err != nil {
		return nil, err
	}
	if err := SeedPolicies(enforcer); err != nil {
		return nil, err
	}
	enforcer.BuildRoleLinks()
	return enforcer, nil
}

func NewService(p Params) Service {
	return &ServiceImpl{
		db:       p.DB,
		log:      p.Log.Named("authorization.service"),
		enforcer: p.Enforcer,
	}
}

func (s *ServiceImpl) Authorize(ctx context.Context, actor string, role string, object string, action string) error {
	_ = ctx

	actor = strings.TrimSpace(actor)
	if actor == "" {
		return ErrInvalidActor
	}
	object = strings.TrimSpace(object)
	if object == "" {
		return ErrInvalidObject
	}
	action = strings.TrimSpace(action)
	if action == "" {
		return ErrInvalidAction
	}

	role = strings.ToLower(strings.TrimSpace(role))
	if role == "" {
		return ErrForbidden
	}
	roleName := fmt.Sprintf("role:%s", role)

	if err := s.ensureGrouping(actor, roleName); err != nil {
		return err
	}

	allowed, err := s.enforcer.Enforce(actor, object, action)
	if err != nil {
		return err
	}
	if !allowed {
		s.log.Warn("authorization denied",
			zap.String("actor", actor),
			zap.String("role", roleName),
			zap.String("object", object),
			zap.String("action", action),
		)
		return ErrForbidden
	}
	return nil
}

// ensureGrouping keeps exactly one role binding per subject. Role changes
// in the users table take effect on the next request.
func (s *ServiceImpl) ensureGrouping(subject string, roleName string) error {
	existing, err := s.enforcer.GetFilteredGroupingPolicy(0, subject)
	if err != nil {
		return err
	}
	for _, rule := range existing {
		if len(rule) < 2 {
			continue
		}
		if rule[1] != roleName {
			params := make([]interface{}, 0, len(rule))
			for _, value := range rule {
				params = append(params, value)
			}
			_, _ = s.enforcer.RemoveGroupingPolicy(params...)
		}
	}

	has, err := s.enforcer.HasGroupingPolicy(subject, roleName)
	if err != nil {
		return err
	}
	if has {
		return nil
	}
	_, err = s.enforcer.AddGroupingPolicy(subject, roleName)
	return err
}

// SeedPolicies installs the fixed role capabilities. AddPolicy is
// idempotent, so repeated startups leave the policy set unchanged.
func SeedPolicies(enforcer *casbin.SyncedEnforcer) error {
	policies := [][]string{
		// Entity users manage their own applications up to submission.
		{"role:entity", ObjectApplication, ActionApplicationView},
		{"role:entity", ObjectApplication, ActionApplicationCreate},
		{"role:entity", ObjectApplication, ActionApplicationUpdate},
		{"role:entity", ObjectApplication, ActionApplicationDelete},
		{"role:entity", ObjectApplication, ActionApplicationSubmit},
		{"role:entity", ObjectDocument, ActionDocumentView},
		{"role:entity", ObjectDocument, ActionDocumentUpload},
		{"role:entity", ObjectDocument, ActionDocumentDelete},
		{"role:entity", ObjectHistory, ActionHistoryView},
		{"role:entity", ObjectReference, ActionReferenceView},

		// Technicians drive the review workflow.
		{"role:tech", ObjectApplication, ActionApplicationView},
		{"role:tech", ObjectApplication, ActionApplicationBeginReview},
		{"role:tech", ObjectApplication, ActionApplicationReturn},
		{"role:tech", ObjectApplication, ActionApplicationValidate},
		{"role:tech", ObjectApplication, ActionApplicationSendToPresident},
		{"role:tech", ObjectApplication, ActionApplicationDeliberate},
		{"role:tech", ObjectDocument, ActionDocumentView},
		{"role:tech", ObjectDocument, ActionDocumentReview},
		{"role:tech", ObjectHistory, ActionHistoryView},
		{"role:tech", ObjectEntity, ActionEntityView},
		{"role:tech", ObjectReference, ActionReferenceView},

		// Validators are read-only reviewers.
		{"role:validator", ObjectApplication, ActionApplicationView},
		{"role:validator", ObjectDocument, ActionDocumentView},
		{"role:validator", ObjectHistory, ActionHistoryView},
		{"role:validator", ObjectEntity, ActionEntityView},
		{"role:validator", ObjectReference, ActionReferenceView},

		// The president decides forwarded applications.
		{"role:president", ObjectApplication, ActionApplicationView},
		{"role:president", ObjectApplication, ActionApplicationDecide},
		{"role:president", ObjectDocument, ActionDocumentView},
		{"role:president", ObjectHistory, ActionHistoryView},
		{"role:president", ObjectEntity, ActionEntityView},
		{"role:president", ObjectReference, ActionReferenceView},

		// Admins hold every workflow capability plus back-office management.
		{"role:admin", ObjectApplication, ActionApplicationView},
		{"role:admin", ObjectApplication, ActionApplicationBeginReview},
		{"role:admin", ObjectApplication, ActionApplicationReturn},
		{"role:admin", ObjectApplication, ActionApplicationValidate},
		{"role:admin", ObjectApplication, ActionApplicationSendToPresident},
		{"role:admin", ObjectApplication, ActionApplicationDeliberate},
		{"role:admin", ObjectDocument, ActionDocumentView},
		{"role:admin", ObjectDocument, ActionDocumentReview},
		{"role:admin", ObjectHistory, ActionHistoryView},
		{"role:admin", ObjectEntity, ActionEntityView},
		{"role:admin", ObjectEntity, ActionEntityManage},
		{"role:admin", ObjectReference, ActionReferenceView},
		{"role:admin", ObjectReference, ActionReferenceManage},
		{"role:admin", ObjectUser, ActionUserView},
		{"role:admin", ObjectUser, ActionUserManage},
	}

	for _, policy := range policies {
		if len(policy) < 3 {
			continue
		}
		if _, err := enforcer.AddPolicy(policy); err != nil {
			return err
		}
	}
	return nil
}

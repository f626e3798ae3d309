package authorization

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/glebarez/sqlite"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func newTestService(t *testing.T) *ServiceImpl {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	dbConn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open database: %v", err)
	}

	enforcer, err := NewEnforcer(dbConn)
	if err != nil {
		t.Fatalf("enforcer: %v", err)
	}
	svc := NewService(Params{DB: dbConn, Log: zap.NewNop(), Enforcer: enforcer})
	return svc.(*ServiceImpl)
}

func TestAuthorizeRoleMatrix(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	tests := []struct {
		name    string
		role    string
		object  string
		action  string
		allowed bool
	}{
		{"entity submits own application", "ENTITY", ObjectApplication, ActionApplicationSubmit, true},
		{"entity cannot validate", "ENTITY", ObjectApplication, ActionApplicationValidate, false},
		{"entity cannot review documents", "ENTITY", ObjectDocument, ActionDocumentReview, false},
		{"tech validates", "TECH", ObjectApplication, ActionApplicationValidate, true},
		{"tech reviews documents", "TECH", ObjectDocument, ActionDocumentReview, true},
		{"tech cannot decide", "TECH", ObjectApplication, ActionApplicationDecide, false},
		{"tech cannot manage users", "TECH", ObjectUser, ActionUserManage, false},
		{"validator reads applications", "VALIDATOR", ObjectApplication, ActionApplicationView, true},
		{"validator cannot return", "VALIDATOR", ObjectApplication, ActionApplicationReturn, false},
		{"president decides", "PRESIDENT", ObjectApplication, ActionApplicationDecide, true},
		{"president cannot deliberate", "PRESIDENT", ObjectApplication, ActionApplicationDeliberate, false},
		{"admin manages users", "ADMIN", ObjectUser, ActionUserManage, true},
		{"admin deliberates", "ADMIN", ObjectApplication, ActionApplicationDeliberate, true},
		{"admin cannot submit for entities", "ADMIN", ObjectApplication, ActionApplicationSubmit, false},
	}

	for i, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			subject := fmt.Sprintf("user:%d", i+1)
			err := svc.Authorize(ctx, subject, tc.role, tc.object, tc.action)
			if tc.allowed && err != nil {
				t.Errorf("expected allow, got %v", err)
			}
			if !tc.allowed && !errors.Is(err, ErrForbidden) {
				t.Errorf("expected %v, got %v", ErrForbidden, err)
			}
		})
	}
}

func TestAuthorizeValidation(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	if err := svc.Authorize(ctx, "", "TECH", ObjectApplication, ActionApplicationView); !errors.Is(err, ErrInvalidActor) {
		t.Errorf("err = %v, want %v", err, ErrInvalidActor)
	}
	if err := svc.Authorize(ctx, "user:1", "TECH", "", ActionApplicationView); !errors.Is(err, ErrInvalidObject) {
		t.Errorf("err = %v, want %v", err, ErrInvalidObject)
	}
	if err := svc.Authorize(ctx, "user:1", "TECH", ObjectApplication, ""); !errors.Is(err, ErrInvalidAction) {
		t.Errorf("err = %v, want %v", err, ErrInvalidAction)
	}
	if err := svc.Authorize(ctx, "user:1", "", ObjectApplication, ActionApplicationView); !errors.Is(err, ErrForbidden) {
		t.Errorf("err = %v, want %v", err, ErrForbidden)
	}
}

func TestRoleChangeDropsOldBinding(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	subject := "user:77"

	if err := svc.Authorize(ctx, subject, "TECH", ObjectApplication, ActionApplicationValidate); err != nil {
		t.Fatalf("authorize as tech: %v", err)
	}

	// Demoted to validator: the tech binding must not linger.
	if err := svc.Authorize(ctx, subject, "VALIDATOR", ObjectApplication, ActionApplicationValidate); !errors.Is(err, ErrForbidden) {
		t.Fatalf("err = %v, want %v", err, ErrForbidden)
	}

	groups, err := svc.enforcer.GetFilteredGroupingPolicy(0, subject)
	if err != nil {
		t.Fatalf("grouping policy: %v", err)
	}
	if len(groups) != 1 {
		t.Fatalf("bindings = %d, want 1", len(groups))
	}
	if groups[0][1] != "role:validator" {
		t.Errorf("binding = %v, want role:validator", groups[0])
	}
}

func TestSeedPoliciesIsIdempotent(t *testing.T) {
	svc := newTestService(t)

	before, err := svc.enforcer.GetPolicy()
	if err != nil {
		t.Fatalf("policy: %v", err)
	}
	if err := SeedPolicies(svc.enforcer); err != nil {
		t.Fatalf("reseed: %v", err)
	}
	after, err := svc.enforcer.GetPolicy()
	if err != nil {
		t.Fatalf("policy: %v", err)
	}
	if len(before) != len(after) {
		t.Errorf("policy grew from %d to %d rules", len(before), len(after))
	}
}

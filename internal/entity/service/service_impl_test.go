package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	"github.com/municipia/apoios/internal/clock"
	"github.com/municipia/apoios/internal/entity/domain"
	"github.com/municipia/apoios/internal/entity/repository"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func newTestService(t *testing.T) (domain.Service, *clock.FakeClock) {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	dbConn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open database: %v", err)
	}
	if err := dbConn.AutoMigrate(&domain.Entity{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	node, err := snowflake.NewNode(5)
	if err != nil {
		t.Fatalf("snowflake: %v", err)
	}
	clk := clock.NewFakeClock(time.Date(2026, 1, 5, 9, 0, 0, 0, time.UTC))

	svc := New(Params{
		DB:    dbConn,
		Log:   zap.NewNop(),
		GenID: node,
		Clock: clk,
		Repo:  repository.Provide(),
	})
	return svc, clk
}

func TestCreateEntity(t *testing.T) {
	svc, _ := newTestService(t)

	entity, err := svc.Create(context.Background(), domain.CreateEntityRequest{
		Name:  "  Clube Náutico  ",
		TaxID: " 501111222 ",
		Email: "geral@clube.pt",
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if entity.Name != "Clube Náutico" {
		t.Errorf("name = %q", entity.Name)
	}
	if entity.TaxID != "501111222" {
		t.Errorf("tax id = %q", entity.TaxID)
	}
	if !entity.IsActive {
		t.Error("new entities start active")
	}
}

func TestCreateEntityValidation(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	tests := []struct {
		name    string
		req     domain.CreateEntityRequest
		wantErr error
	}{
		{"missing name", domain.CreateEntityRequest{TaxID: "501111222"}, domain.ErrInvalidName},
		{"missing tax id", domain.CreateEntityRequest{Name: "Clube"}, domain.ErrInvalidTaxID},
		{"bad email", domain.CreateEntityRequest{Name: "Clube", TaxID: "501111222", Email: "nope"}, domain.ErrInvalidEmail},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := svc.Create(ctx, tc.req); !errors.Is(err, tc.wantErr) {
				t.Errorf("err = %v, want %v", err, tc.wantErr)
			}
		})
	}
}

func TestCreateEntityDuplicateTaxID(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	if _, err := svc.Create(ctx, domain.CreateEntityRequest{Name: "First", TaxID: "501111222"}); err != nil {
		t.Fatalf("create: %v", err)
	}
	_, err := svc.Create(ctx, domain.CreateEntityRequest{Name: "Second", TaxID: "501111222"})
	if !errors.Is(err, domain.ErrTaxIDExists) {
		t.Errorf("err = %v, want %v", err, domain.ErrTaxIDExists)
	}
}

func TestUpdateEntity(t *testing.T) {
	svc, clk := newTestService(t)
	ctx := context.Background()

	entity, err := svc.Create(ctx, domain.CreateEntityRequest{Name: "Clube", TaxID: "501111222"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	clk.Advance(time.Hour)

	inactive := false
	updated, err := svc.Update(ctx, entity.ID.String(), domain.UpdateEntityRequest{
		Email:    "novo@clube.pt",
		IsActive: &inactive,
	})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.Email != "novo@clube.pt" {
		t.Errorf("email = %q", updated.Email)
	}
	if updated.IsActive {
		t.Error("expected the entity to be deactivated")
	}
	if updated.Name != "Clube" {
		t.Errorf("name changed to %q", updated.Name)
	}

	if _, err := svc.Update(ctx, entity.ID.String(), domain.UpdateEntityRequest{Email: "nope"}); !errors.Is(err, domain.ErrInvalidEmail) {
		t.Errorf("err = %v, want %v", err, domain.ErrInvalidEmail)
	}
}

func TestGetEntityByID(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	if _, err := svc.GetByID(ctx, "garbage"); !errors.Is(err, domain.ErrInvalidID) {
		t.Errorf("err = %v, want %v", err, domain.ErrInvalidID)
	}
	if _, err := svc.GetByID(ctx, "123456789"); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("err = %v, want %v", err, domain.ErrNotFound)
	}
}

func TestListEntities(t *testing.T) {
	svc, clk := newTestService(t)
	ctx := context.Background()

	active, err := svc.Create(ctx, domain.CreateEntityRequest{Name: "Clube Náutico", TaxID: "501111222"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	clk.Advance(time.Minute)
	retired, err := svc.Create(ctx, domain.CreateEntityRequest{Name: "Grupo Desportivo", TaxID: "502222333"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	off := false
	if _, err := svc.Update(ctx, retired.ID.String(), domain.UpdateEntityRequest{IsActive: &off}); err != nil {
		t.Fatalf("deactivate: %v", err)
	}

	resp, err := svc.List(ctx, domain.ListEntityRequest{OnlyActive: true})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(resp.Entities) != 1 || resp.Entities[0].ID != active.ID {
		t.Fatalf("unexpected listing: %+v", resp.Entities)
	}

	resp, err = svc.List(ctx, domain.ListEntityRequest{Name: "Desportivo"})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(resp.Entities) != 1 || resp.Entities[0].ID != retired.ID {
		t.Fatalf("name filter listing: %+v", resp.Entities)
	}
}

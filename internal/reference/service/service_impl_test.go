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
	"github.com/municipia/apoios/internal/reference/domain"
	"github.com/municipia/apoios/internal/reference/repository"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func newTestService(t *testing.T) domain.Service {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	dbConn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open database: %v", err)
	}
	if err := dbConn.AutoMigrate(&domain.ApplicationCategory{}, &domain.DocumentType{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	node, err := snowflake.NewNode(6)
	if err != nil {
		t.Fatalf("snowflake: %v", err)
	}

	return New(Params{
		DB:    dbConn,
		Log:   zap.NewNop(),
		GenID: node,
		Clock: clock.NewFakeClock(time.Date(2026, 1, 2, 9, 0, 0, 0, time.UTC)),
		Repo:  repository.Provide(),
	})
}

func TestCreateCategory(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	category, err := svc.CreateCategory(ctx, domain.UpsertCategoryRequest{Code: " desporto ", Name: "Desporto"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if category.Code != "DESPORTO" {
		t.Errorf("code = %q, want normalized uppercase", category.Code)
	}
	if !category.IsActive {
		t.Error("new categories start active")
	}

	if _, err := svc.CreateCategory(ctx, domain.UpsertCategoryRequest{Code: "desporto", Name: "Other"}); !errors.Is(err, domain.ErrCodeExists) {
		t.Errorf("err = %v, want %v", err, domain.ErrCodeExists)
	}
	if _, err := svc.CreateCategory(ctx, domain.UpsertCategoryRequest{Name: "No code"}); !errors.Is(err, domain.ErrInvalidCode) {
		t.Errorf("err = %v, want %v", err, domain.ErrInvalidCode)
	}
	if _, err := svc.CreateCategory(ctx, domain.UpsertCategoryRequest{Code: "CULTURA"}); !errors.Is(err, domain.ErrInvalidName) {
		t.Errorf("err = %v, want %v", err, domain.ErrInvalidName)
	}
}

func TestUpdateCategory(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	category, err := svc.CreateCategory(ctx, domain.UpsertCategoryRequest{Code: "CULTURA", Name: "Cultura"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	off := false
	updated, err := svc.UpdateCategory(ctx, category.ID, domain.UpsertCategoryRequest{Name: "Cultura e Património", IsActive: &off})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.Name != "Cultura e Património" {
		t.Errorf("name = %q", updated.Name)
	}
	if updated.IsActive {
		t.Error("expected the category to be deactivated")
	}
	if updated.Code != "CULTURA" {
		t.Errorf("code changed to %q", updated.Code)
	}

	if _, err := svc.UpdateCategory(ctx, snowflake.ID(999), domain.UpsertCategoryRequest{Name: "x"}); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("err = %v, want %v", err, domain.ErrNotFound)
	}
}

func TestListCategoriesFiltersInactive(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	active, err := svc.CreateCategory(ctx, domain.UpsertCategoryRequest{Code: "DESPORTO", Name: "Desporto"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	off := false
	if _, err := svc.CreateCategory(ctx, domain.UpsertCategoryRequest{Code: "ANTIGA", Name: "Antiga", IsActive: &off}); err != nil {
		t.Fatalf("create: %v", err)
	}

	visible, err := svc.ListCategories(ctx, false)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(visible) != 1 || visible[0].ID != active.ID {
		t.Fatalf("unexpected listing: %+v", visible)
	}

	all, err := svc.ListCategories(ctx, true)
	if err != nil {
		t.Fatalf("list all: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("all categories = %d, want 2", len(all))
	}
}

func TestDocumentTypes(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	required := true
	documentType, err := svc.CreateDocumentType(ctx, domain.UpsertDocumentTypeRequest{
		Code:     "estatutos",
		Name:     "Estatutos",
		Required: &required,
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if documentType.Code != "ESTATUTOS" {
		t.Errorf("code = %q", documentType.Code)
	}
	if !documentType.Required {
		t.Error("expected a required document type")
	}

	if _, err := svc.CreateDocumentType(ctx, domain.UpsertDocumentTypeRequest{Code: "ESTATUTOS", Name: "Dup"}); !errors.Is(err, domain.ErrCodeExists) {
		t.Errorf("err = %v, want %v", err, domain.ErrCodeExists)
	}

	optional := false
	updated, err := svc.UpdateDocumentType(ctx, documentType.ID, domain.UpsertDocumentTypeRequest{Required: &optional})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.Required {
		t.Error("expected the requirement flag to clear")
	}

	types, err := svc.ListDocumentTypes(ctx, false)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(types) != 1 {
		t.Fatalf("types = %d, want 1", len(types))
	}
}

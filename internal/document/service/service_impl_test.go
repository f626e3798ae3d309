package service

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	"github.com/municipia/apoios/internal/actorcontext"
	applicationdomain "github.com/municipia/apoios/internal/application/domain"
	applicationrepository "github.com/municipia/apoios/internal/application/repository"
	applicationservice "github.com/municipia/apoios/internal/application/service"
	"github.com/municipia/apoios/internal/clock"
	"github.com/municipia/apoios/internal/document/domain"
	"github.com/municipia/apoios/internal/document/repository"
	entitydomain "github.com/municipia/apoios/internal/entity/domain"
	entityrepository "github.com/municipia/apoios/internal/entity/repository"
	historydomain "github.com/municipia/apoios/internal/history/domain"
	historyrepository "github.com/municipia/apoios/internal/history/repository"
	historyservice "github.com/municipia/apoios/internal/history/service"
	"github.com/municipia/apoios/internal/providers/email"
	"github.com/municipia/apoios/internal/providers/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type harness struct {
	db          *gorm.DB
	svc         domain.Service
	apps        applicationdomain.Service
	signer      *storage.Signer
	clk         *clock.FakeClock
	node        *snowflake.Node
	entityID    snowflake.ID
	application applicationdomain.Application
}

func newHarness(t *testing.T) *harness {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	dbConn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, dbConn.AutoMigrate(
		&entitydomain.Entity{},
		&applicationdomain.Application{},
		&applicationdomain.MeetingDeliberation{},
		&applicationdomain.PresidentDecision{},
		&domain.Document{},
		&historydomain.StatusEntry{},
		&historydomain.DocumentReviewEntry{},
	))

	node, err := snowflake.NewNode(2)
	require.NoError(t, err)
	clk := clock.NewFakeClock(time.Date(2026, 5, 4, 10, 0, 0, 0, time.UTC))

	entity := &entitydomain.Entity{
		ID:        node.Generate(),
		Name:      "Rancho Folclórico",
		TaxID:     "502222333",
		IsActive:  true,
		CreatedAt: clk.Now(),
		UpdatedAt: clk.Now(),
	}
	require.NoError(t, dbConn.Create(entity).Error)

	histSvc := historyservice.New(historyservice.Params{
		DB:    dbConn,
		Log:   zap.NewNop(),
		GenID: node,
		Clock: clk,
		Repo:  historyrepository.Provide(),
	})
	appSvc := applicationservice.New(applicationservice.Params{
		DB:       dbConn,
		Log:      zap.NewNop(),
		GenID:    node,
		Clock:    clk,
		Repo:     applicationrepository.Provide(),
		History:  histSvc,
		Entities: entityrepository.Provide(),
		Notifier: &email.NoOpProvider{},
	})

	store, err := storage.NewLocalStore(t.TempDir())
	require.NoError(t, err)
	signer := storage.NewSigner("test-secret", time.Minute, "http://localhost:8080")

	svc := New(Params{
		DB:           dbConn,
		Log:          zap.NewNop(),
		GenID:        node,
		Clock:        clk,
		Repo:         repository.Provide(),
		Applications: appSvc,
		History:      histSvc,
		Store:        store,
		Signer:       signer,
	})

	result, err := appSvc.Create(context.Background(), applicationdomain.CreateApplicationRequest{
		EntityID:        entity.ID,
		Object:          "Festival de folclore",
		RequestedAmount: 1200,
	})
	require.NoError(t, err)

	return &harness{
		db:          dbConn,
		svc:         svc,
		apps:        appSvc,
		signer:      signer,
		clk:         clk,
		node:        node,
		entityID:    entity.ID,
		application: result.Application,
	}
}

func (h *harness) setStatus(t *testing.T, status applicationdomain.ApplicationStatus) {
	t.Helper()
	err := h.db.Model(&applicationdomain.Application{}).
		Where("id = ?", h.application.ID).
		Update("current_status", status).Error
	require.NoError(t, err)
}

func (h *harness) upload(t *testing.T, name string, content string) domain.Document {
	t.Helper()
	document, err := h.svc.Upload(context.Background(), domain.UploadDocumentRequest{
		ApplicationID: h.application.ID.String(),
		Name:          name,
		OriginalName:  name + ".pdf",
		ContentType:   "application/pdf",
		Data:          bytes.NewBufferString(content),
	})
	require.NoError(t, err)
	return document
}

func TestUploadAndDownload(t *testing.T) {
	h := newHarness(t)

	document := h.upload(t, "budget", "line items")
	assert.Equal(t, domain.ReviewPending, document.ReviewStatus)
	assert.Equal(t, int64(len("line items")), document.SizeBytes)
	assert.Equal(t, "budget", document.Name)

	reader, got, err := h.svc.Download(context.Background(), document.ID.String())
	require.NoError(t, err)
	defer reader.Close()

	content, err := io.ReadAll(reader)
	require.NoError(t, err)
	assert.Equal(t, "line items", string(content))
	assert.Equal(t, document.ID, got.ID)
}

func TestUploadValidation(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	_, err := h.svc.Upload(ctx, domain.UploadDocumentRequest{
		ApplicationID: h.application.ID.String(),
		Name:          "   ",
		Data:          bytes.NewBufferString("x"),
	})
	assert.ErrorIs(t, err, domain.ErrInvalidName)

	_, err = h.svc.Upload(ctx, domain.UploadDocumentRequest{
		ApplicationID: h.application.ID.String(),
		Name:          "statutes",
	})
	assert.ErrorIs(t, err, domain.ErrInvalidName)
}

func TestUploadWindowClosed(t *testing.T) {
	h := newHarness(t)
	h.setStatus(t, applicationdomain.StatusTechValidated)

	_, err := h.svc.Upload(context.Background(), domain.UploadDocumentRequest{
		ApplicationID: h.application.ID.String(),
		Name:          "late annex",
		Data:          bytes.NewBufferString("x"),
	})
	assert.ErrorIs(t, err, domain.ErrWindowClosed)
}

func TestReviewApprove(t *testing.T) {
	h := newHarness(t)
	document := h.upload(t, "statutes", "articles of association")
	h.setStatus(t, applicationdomain.StatusInReview)

	result, err := h.svc.Review(context.Background(), document.ID.String(), domain.ReviewDocumentRequest{Decision: "approved"})
	require.NoError(t, err)
	assert.Equal(t, domain.ReviewApproved, result.Document.ReviewStatus)
	assert.Empty(t, result.Warnings)

	// Approval never touches the application status.
	var application applicationdomain.Application
	require.NoError(t, h.db.Where("id = ?", h.application.ID).First(&application).Error)
	assert.Equal(t, applicationdomain.StatusInReview, application.CurrentStatus)

	trail, err := h.svc.(*Service).hist.DocumentTrail(context.Background(), document.ID)
	require.NoError(t, err)
	require.Len(t, trail, 1)
	assert.Equal(t, string(domain.ReviewApproved), trail[0].Decision)
}

func TestReviewRejectRequiresComment(t *testing.T) {
	h := newHarness(t)
	document := h.upload(t, "budget", "numbers")

	_, err := h.svc.Review(context.Background(), document.ID.String(), domain.ReviewDocumentRequest{Decision: string(domain.ReviewRejected)})
	assert.ErrorIs(t, err, domain.ErrCommentRequired)
}

func TestReviewInvalidDecision(t *testing.T) {
	h := newHarness(t)
	document := h.upload(t, "budget", "numbers")

	_, err := h.svc.Review(context.Background(), document.ID.String(), domain.ReviewDocumentRequest{Decision: "MAYBE"})
	assert.ErrorIs(t, err, domain.ErrInvalidDecision)
}

func TestReviewRejectCascades(t *testing.T) {
	h := newHarness(t)
	document := h.upload(t, "budget", "numbers")
	h.setStatus(t, applicationdomain.StatusInReview)

	result, err := h.svc.Review(context.Background(), document.ID.String(), domain.ReviewDocumentRequest{
		Decision: string(domain.ReviewRejected),
		Comment:  "totals do not add up",
	})
	require.NoError(t, err)
	assert.Equal(t, domain.ReviewRejected, result.Document.ReviewStatus)
	assert.Empty(t, result.Warnings)

	var application applicationdomain.Application
	require.NoError(t, h.db.Where("id = ?", h.application.ID).First(&application).Error)
	assert.Equal(t, applicationdomain.StatusReturned, application.CurrentStatus)

	var entries []historydomain.StatusEntry
	require.NoError(t, h.db.Where("application_id = ?", h.application.ID).
		Order("created_at ASC, id ASC").Find(&entries).Error)
	require.NotEmpty(t, entries)
	last := entries[len(entries)-1]
	assert.Equal(t, string(applicationdomain.StatusReturned), last.ToStatus)
	assert.Equal(t, "Document rejected: budget (totals do not add up)", last.Comment)
	assert.Equal(t, "document_rejected", last.Metadata["cascade"])
}

func TestReviewRejectAfterWindowLeavesApplication(t *testing.T) {
	h := newHarness(t)
	document := h.upload(t, "invoice", "paid")
	h.setStatus(t, applicationdomain.StatusAwaitingExpense)

	result, err := h.svc.Review(context.Background(), document.ID.String(), domain.ReviewDocumentRequest{
		Decision: string(domain.ReviewRejected),
		Comment:  "wrong invoice",
	})
	require.NoError(t, err)
	assert.Empty(t, result.Warnings)

	var application applicationdomain.Application
	require.NoError(t, h.db.Where("id = ?", h.application.ID).First(&application).Error)
	assert.Equal(t, applicationdomain.StatusAwaitingExpense, application.CurrentStatus)
}

func TestReviewRejectWarnsWhenCascadeFails(t *testing.T) {
	h := newHarness(t)
	document := h.upload(t, "budget", "numbers")

	// Hard-delete the application so the return cascade cannot find it.
	require.NoError(t, h.db.Unscoped().
		Delete(&applicationdomain.Application{}, "id = ?", h.application.ID).Error)

	result, err := h.svc.Review(context.Background(), document.ID.String(), domain.ReviewDocumentRequest{
		Decision: string(domain.ReviewRejected),
		Comment:  "orphaned",
	})
	require.NoError(t, err)
	assert.Contains(t, result.Warnings, warnApplicationNotReturned)
}

func TestReReviewIsAudited(t *testing.T) {
	h := newHarness(t)
	document := h.upload(t, "statutes", "articles")
	h.setStatus(t, applicationdomain.StatusInReview)

	_, err := h.svc.Review(context.Background(), document.ID.String(), domain.ReviewDocumentRequest{Decision: string(domain.ReviewApproved)})
	require.NoError(t, err)
	_, err = h.svc.Review(context.Background(), document.ID.String(), domain.ReviewDocumentRequest{
		Decision: string(domain.ReviewRejected),
		Comment:  "outdated version",
	})
	require.NoError(t, err)

	var entries []historydomain.DocumentReviewEntry
	require.NoError(t, h.db.Where("document_id = ?", document.ID).
		Order("created_at ASC, id ASC").Find(&entries).Error)
	require.Len(t, entries, 2)
	assert.Equal(t, string(domain.ReviewApproved), entries[0].Decision)
	assert.Equal(t, string(domain.ReviewRejected), entries[1].Decision)

	got, err := h.svc.GetByID(context.Background(), document.ID.String())
	require.NoError(t, err)
	assert.Equal(t, domain.ReviewRejected, got.ReviewStatus)
}

func TestDeleteRespectsWindow(t *testing.T) {
	h := newHarness(t)
	document := h.upload(t, "draft annex", "wip")

	require.NoError(t, h.svc.Delete(context.Background(), document.ID.String()))
	_, err := h.svc.GetByID(context.Background(), document.ID.String())
	assert.ErrorIs(t, err, domain.ErrNotFound)

	second := h.upload(t, "final annex", "done")
	h.setStatus(t, applicationdomain.StatusSentToMeeting)
	err = h.svc.Delete(context.Background(), second.ID.String())
	assert.ErrorIs(t, err, domain.ErrWindowClosed)
}

func TestSignedURLRoundTrip(t *testing.T) {
	h := newHarness(t)
	document := h.upload(t, "statutes", "articles")

	signed, err := h.svc.SignedURL(context.Background(), document.ID.String())
	require.NoError(t, err)

	parsed, err := url.Parse(signed)
	require.NoError(t, err)
	segments := strings.Split(strings.Trim(parsed.Path, "/"), "/")
	key := segments[len(segments)-1]
	query := parsed.Query()

	assert.Equal(t, "statutes.pdf", query.Get("filename"))
	require.NoError(t, h.signer.Verify(key, query.Get("expires"), query.Get("signature"), h.clk.Now()))

	h.clk.Advance(2 * time.Minute)
	assert.ErrorIs(t,
		h.signer.Verify(key, query.Get("expires"), query.Get("signature"), h.clk.Now()),
		storage.ErrLinkExpired,
	)
}

func contextWithEntityActor(entityID snowflake.ID, userID snowflake.ID) context.Context {
	id := entityID
	return actorcontext.WithActor(context.Background(), actorcontext.Actor{
		UserID:   userID,
		Role:     "ENTITY",
		EntityID: &id,
	})
}

func TestEntityActorCannotReachForeignDocuments(t *testing.T) {
	h := newHarness(t)
	document := h.upload(t, "statutes", "articles")

	otherEntity := h.node.Generate()
	ctx := contextWithEntityActor(otherEntity, h.node.Generate())

	_, err := h.svc.GetByID(ctx, document.ID.String())
	assert.ErrorIs(t, err, applicationdomain.ErrNotOwner)
}

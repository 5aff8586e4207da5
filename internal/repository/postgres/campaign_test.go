package postgres

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/verticalhire/verticalhire/internal/domain"
	"github.com/verticalhire/verticalhire/internal/service/campaign"
)

func setupTestDB(t *testing.T) (*CampaignRepo, sqlmock.Sqlmock, func()) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	return NewCampaignRepo(db), mock, func() { db.Close() }
}

func TestBeginDispatchClaimsOnce(t *testing.T) {
	repo, mock, cleanup := setupTestDB(t)
	defer cleanup()

	// First caller hits a draft row and wins the claim.
	mock.ExpectExec("UPDATE campaigns SET status = 'active'").
		WithArgs("camp-1", "co-1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	// Second caller finds no draft/paused row.
	mock.ExpectExec("UPDATE campaigns SET status = 'active'").
		WithArgs("camp-1", "co-1").
		WillReturnResult(sqlmock.NewResult(0, 0))

	claimed, err := repo.BeginDispatch(context.Background(), "co-1", "camp-1")
	if err != nil || !claimed {
		t.Fatalf("first claim: claimed=%v err=%v", claimed, err)
	}
	claimed, err = repo.BeginDispatch(context.Background(), "co-1", "camp-1")
	if err != nil {
		t.Fatalf("second claim: %v", err)
	}
	if claimed {
		t.Error("second dispatch claimed an already-active campaign")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}

func TestStatsForCountsCumulatively(t *testing.T) {
	repo, mock, cleanup := setupTestDB(t)
	defer cleanup()

	rows := sqlmock.NewRows([]string{"status", "count"}).
		AddRow("pending", 2).
		AddRow("queued", 3).
		AddRow("cancelled", 1).
		AddRow("sent", 4).
		AddRow("opened", 2).
		AddRow("clicked", 1).
		AddRow("bounced", 1)
	mock.ExpectQuery("SELECT status, COUNT").
		WithArgs("camp-1").
		WillReturnRows(rows)

	stats, err := repo.StatsFor(context.Background(), "camp-1")
	if err != nil {
		t.Fatalf("stats: %v", err)
	}

	if stats.Recipients != 14 {
		t.Errorf("recipients = %d, want 14", stats.Recipients)
	}
	// An opened send was also sent; a clicked one was also opened.
	if stats.Sent != 8 {
		t.Errorf("sent = %d, want 8", stats.Sent)
	}
	if stats.Opened != 3 {
		t.Errorf("opened = %d, want 3", stats.Opened)
	}
	if stats.Clicked != 1 {
		t.Errorf("clicked = %d, want 1", stats.Clicked)
	}
	if stats.Cancelled != 1 || stats.Bounced != 1 || stats.Queued != 3 {
		t.Errorf("unexpected stats: %+v", stats)
	}
}

func TestGetCampaignNotFound(t *testing.T) {
	repo, mock, cleanup := setupTestDB(t)
	defer cleanup()

	mock.ExpectQuery("SELECT id, company_id").
		WithArgs("missing", "co-1").
		WillReturnError(sql.ErrNoRows)

	if _, err := repo.Get(context.Background(), "co-1", "missing"); err != campaign.ErrNotFound {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestMarkQueuedUsesArrayBinding(t *testing.T) {
	repo, mock, cleanup := setupTestDB(t)
	defer cleanup()

	at := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	mock.ExpectExec("UPDATE campaign_sends SET status = 'queued'").
		WillReturnResult(sqlmock.NewResult(0, 2))

	if err := repo.MarkQueued(context.Background(), []string{"s1", "s2"}, at); err != nil {
		t.Fatalf("mark queued: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}

func TestStatsForEmptyCampaign(t *testing.T) {
	repo, mock, cleanup := setupTestDB(t)
	defer cleanup()

	mock.ExpectQuery("SELECT status, COUNT").
		WithArgs("camp-empty").
		WillReturnRows(sqlmock.NewRows([]string{"status", "count"}))

	stats, err := repo.StatsFor(context.Background(), "camp-empty")
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if stats != (domain.CampaignStats{}) {
		t.Errorf("want zero stats, got %+v", stats)
	}
}

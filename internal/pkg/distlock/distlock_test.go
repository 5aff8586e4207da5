package distlock

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newTestRedis(t *testing.T) *redis.Client {
	t.Helper()
	mr := miniredis.RunT(t)
	return redis.NewClient(&redis.Options{Addr: mr.Addr()})
}

func TestRedisLockAcquireRelease(t *testing.T) {
	client := newTestRedis(t)
	ctx := context.Background()

	l1 := NewRedisLock(client, "reminder-sweep", time.Minute)
	ok, err := l1.Acquire(ctx)
	if err != nil {
		t.Fatalf("acquire: %v", err)
	}
	if !ok {
		t.Fatal("expected first acquire to succeed")
	}

	l2 := NewRedisLock(client, "reminder-sweep", time.Minute)
	ok, err = l2.Acquire(ctx)
	if err != nil {
		t.Fatalf("second acquire: %v", err)
	}
	if ok {
		t.Fatal("expected second acquire to fail while lock held")
	}

	if err := l1.Release(ctx); err != nil {
		t.Fatalf("release: %v", err)
	}

	ok, err = l2.Acquire(ctx)
	if err != nil {
		t.Fatalf("reacquire: %v", err)
	}
	if !ok {
		t.Fatal("expected acquire to succeed after release")
	}
}

func TestRedisLockReleaseNotOwned(t *testing.T) {
	client := newTestRedis(t)
	ctx := context.Background()

	l1 := NewRedisLock(client, "sweep", time.Minute)
	l2 := NewRedisLock(client, "sweep", time.Minute)

	if ok, _ := l1.Acquire(ctx); !ok {
		t.Fatal("expected acquire to succeed")
	}

	// l2 never acquired; releasing must not free l1's lock.
	if err := l2.Release(ctx); err != nil {
		t.Fatalf("release: %v", err)
	}

	ok, _ := l2.Acquire(ctx)
	if ok {
		t.Fatal("lock was freed by a non-owner release")
	}
}

var (
	tryLockSQL = regexp.QuoteMeta("SELECT pg_try_advisory_lock($1)")
	unlockSQL  = regexp.QuoteMeta("SELECT pg_advisory_unlock($1)")
)

func TestPGAdvisoryLockAcquireRelease(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()
	ctx := context.Background()

	mock.ExpectQuery(tryLockSQL).
		WillReturnRows(sqlmock.NewRows([]string{"pg_try_advisory_lock"}).AddRow(true))
	mock.ExpectQuery(unlockSQL).
		WillReturnRows(sqlmock.NewRows([]string{"pg_advisory_unlock"}).AddRow(true))

	l := NewPGAdvisoryLock(db, "reminder-sweep")
	ok, err := l.Acquire(ctx)
	if err != nil {
		t.Fatalf("acquire: %v", err)
	}
	if !ok {
		t.Fatal("expected acquire to succeed")
	}
	if l.conn == nil {
		t.Fatal("acquired lock must pin its session")
	}

	if err := l.Release(ctx); err != nil {
		t.Fatalf("release: %v", err)
	}
	if l.conn != nil {
		t.Fatal("released lock must drop its session")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestPGAdvisoryLockFailedAcquireHoldsNothing(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()
	ctx := context.Background()

	mock.ExpectQuery(tryLockSQL).
		WillReturnRows(sqlmock.NewRows([]string{"pg_try_advisory_lock"}).AddRow(false))

	l := NewPGAdvisoryLock(db, "delivery-drain")
	ok, err := l.Acquire(ctx)
	if err != nil {
		t.Fatalf("acquire: %v", err)
	}
	if ok {
		t.Fatal("expected acquire to fail")
	}
	if l.conn != nil {
		t.Fatal("failed acquire must not pin a connection")
	}

	// No unlock may be issued for a lock that was never taken.
	if err := l.Release(ctx); err != nil {
		t.Fatalf("release after failed acquire: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestPGAdvisoryLockReleaseNotOwnedErrors(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()
	ctx := context.Background()

	mock.ExpectQuery(tryLockSQL).
		WillReturnRows(sqlmock.NewRows([]string{"pg_try_advisory_lock"}).AddRow(true))
	mock.ExpectQuery(unlockSQL).
		WillReturnRows(sqlmock.NewRows([]string{"pg_advisory_unlock"}).AddRow(false))

	l := NewPGAdvisoryLock(db, "reminder-sweep")
	if ok, _ := l.Acquire(ctx); !ok {
		t.Fatal("expected acquire to succeed")
	}
	if err := l.Release(ctx); err == nil {
		t.Fatal("unlock rejected by the session must surface as an error")
	}
}

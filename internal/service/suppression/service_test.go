package suppression_test

import (
	"context"
	"sync"
	"testing"

	"github.com/verticalhire/verticalhire/internal/domain"
	"github.com/verticalhire/verticalhire/internal/service/suppression"
)

// memRepo is an in-memory suppression repository for unit testing.
type memRepo struct {
	mu      sync.Mutex
	entries map[string]map[string]domain.EmailSuppression // companyID -> email -> entry
}

func newMemRepo() *memRepo {
	return &memRepo{entries: make(map[string]map[string]domain.EmailSuppression)}
}

func (m *memRepo) IsSuppressed(_ context.Context, companyID, email string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.entries[companyID][email]
	return ok, nil
}

func (m *memRepo) Set(_ context.Context, companyID string) (map[string]struct{}, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make(map[string]struct{}, len(m.entries[companyID]))
	for email := range m.entries[companyID] {
		out[email] = struct{}{}
	}
	return out, nil
}

func (m *memRepo) Suppress(_ context.Context, s *domain.EmailSuppression) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.entries[s.CompanyID] == nil {
		m.entries[s.CompanyID] = make(map[string]domain.EmailSuppression)
	}
	if _, exists := m.entries[s.CompanyID][s.Email]; exists {
		return nil // idempotent
	}
	m.entries[s.CompanyID][s.Email] = *s
	return nil
}

func (m *memRepo) Remove(_ context.Context, companyID, email string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.entries[companyID][email]; !ok {
		return suppression.ErrNotFound
	}
	delete(m.entries[companyID], email)
	return nil
}

func (m *memRepo) List(_ context.Context, companyID string, _, _ int) ([]domain.EmailSuppression, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.EmailSuppression
	for _, e := range m.entries[companyID] {
		out = append(out, e)
	}
	return out, len(out), nil
}

const testCompany = "co-1"

func TestSuppressIsCaseInsensitive(t *testing.T) {
	svc := suppression.NewService(newMemRepo())
	ctx := context.Background()

	if err := svc.Suppress(ctx, testCompany, "Jane.Doe@Example.COM", domain.ReasonUnsubscribe); err != nil {
		t.Fatalf("suppress: %v", err)
	}

	for _, email := range []string{"jane.doe@example.com", "JANE.DOE@EXAMPLE.COM", " jane.doe@example.com "} {
		ok, err := svc.IsSuppressed(ctx, testCompany, email)
		if err != nil {
			t.Fatalf("check %q: %v", email, err)
		}
		if !ok {
			t.Errorf("expected %q to be suppressed", email)
		}
	}
}

func TestSuppressRequiresEmail(t *testing.T) {
	svc := suppression.NewService(newMemRepo())
	if err := svc.Suppress(context.Background(), testCompany, "  ", domain.ReasonManual); err != suppression.ErrEmailMissing {
		t.Fatalf("expected ErrEmailMissing, got %v", err)
	}
}

func TestSetReturnsNormalizedAddresses(t *testing.T) {
	svc := suppression.NewService(newMemRepo())
	ctx := context.Background()

	svc.Suppress(ctx, testCompany, "A@x.com", domain.ReasonHardBounce)
	svc.Suppress(ctx, testCompany, "b@x.com", domain.ReasonManual)

	set, err := svc.Set(ctx, testCompany)
	if err != nil {
		t.Fatalf("set: %v", err)
	}
	if len(set) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(set))
	}
	if _, ok := set["a@x.com"]; !ok {
		t.Error("expected lower-cased a@x.com in set")
	}
}

func TestRemove(t *testing.T) {
	svc := suppression.NewService(newMemRepo())
	ctx := context.Background()

	svc.Suppress(ctx, testCompany, "x@y.com", domain.ReasonManual)
	if err := svc.Remove(ctx, testCompany, "X@Y.com"); err != nil {
		t.Fatalf("remove: %v", err)
	}
	if err := svc.Remove(ctx, testCompany, "x@y.com"); err != suppression.ErrNotFound {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestCompanyIsolation(t *testing.T) {
	svc := suppression.NewService(newMemRepo())
	ctx := context.Background()

	svc.Suppress(ctx, "co-1", "shared@x.com", domain.ReasonManual)

	ok, _ := svc.IsSuppressed(ctx, "co-2", "shared@x.com")
	if ok {
		t.Fatal("suppression leaked across companies")
	}
}

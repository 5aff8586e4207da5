package campaign_test

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/verticalhire/verticalhire/internal/domain"
	"github.com/verticalhire/verticalhire/internal/service/campaign"
	"github.com/verticalhire/verticalhire/internal/service/suppression"
)

// memRepo is an in-memory campaign repository for unit testing.
type memRepo struct {
	mu        sync.Mutex
	campaigns map[string]*domain.Campaign
	sends     map[string]*domain.CampaignSend
	queue     []domain.EmailQueueItem
	accounts  []domain.EmailAccount

	jobTitle    string
	companyName string

	failBatchInsert    bool
	failItemInserts    map[string]bool // keyed by send id
	failMarkQueuedOnce bool
	failFinishOnce     bool
	accountErr         error
}

func newMemRepo() *memRepo {
	return &memRepo{
		campaigns:       make(map[string]*domain.Campaign),
		sends:           make(map[string]*domain.CampaignSend),
		failItemInserts: make(map[string]bool),
	}
}

func (m *memRepo) Get(_ context.Context, companyID, id string) (*domain.Campaign, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.campaigns[id]
	if !ok || c.CompanyID != companyID {
		return nil, campaign.ErrNotFound
	}
	cp := *c
	return &cp, nil
}

func (m *memRepo) Create(_ context.Context, c *domain.Campaign) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *c
	m.campaigns[cp.ID] = &cp
	return cp.ID, nil
}

func (m *memRepo) CreateSends(_ context.Context, campaignID string, candidateIDs []string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	created := 0
	for _, cid := range candidateIDs {
		exists := false
		for _, s := range m.sends {
			if s.CampaignID == campaignID && s.CandidateID == cid && s.Status != domain.SendCancelled {
				exists = true
				break
			}
		}
		if exists {
			continue
		}
		id := fmt.Sprintf("send-%s-%s", campaignID, cid)
		m.sends[id] = &domain.CampaignSend{
			ID: id, CampaignID: campaignID, CandidateID: cid, Status: domain.SendPending,
		}
		created++
	}
	return created, nil
}

func (m *memRepo) BeginDispatch(_ context.Context, companyID, id string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.campaigns[id]
	if !ok || c.CompanyID != companyID {
		return false, nil
	}
	if c.Status != domain.CampaignDraft && c.Status != domain.CampaignPaused {
		return false, nil
	}
	c.Status = domain.CampaignActive
	return true, nil
}

func (m *memRepo) SetStatus(_ context.Context, companyID, id string, status domain.CampaignStatus) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if c, ok := m.campaigns[id]; ok && c.CompanyID == companyID {
		c.Status = status
	}
	return nil
}

func (m *memRepo) FinishDispatch(_ context.Context, companyID, id, accountID string, sentAt time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failFinishOnce {
		m.failFinishOnce = false
		return errors.New("finish dispatch failed")
	}
	c, ok := m.campaigns[id]
	if !ok || c.CompanyID != companyID {
		return campaign.ErrNotFound
	}
	c.SentAt = &sentAt
	c.AccountID = &accountID
	return nil
}

func (m *memRepo) PendingSends(_ context.Context, campaignID string) ([]domain.CampaignSend, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.CampaignSend
	for _, s := range m.sends {
		if s.CampaignID == campaignID && s.Status == domain.SendPending {
			out = append(out, *s)
		}
	}
	return out, nil
}

func (m *memRepo) CancelSend(_ context.Context, sendID, reason string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sends[sendID]
	if !ok {
		return campaign.ErrSendNotFound
	}
	s.Status = domain.SendCancelled
	s.CancelReason = reason
	return nil
}

func (m *memRepo) MarkQueued(_ context.Context, sendIDs []string, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failMarkQueuedOnce {
		m.failMarkQueuedOnce = false
		return errors.New("mark queued failed")
	}
	for _, id := range sendIDs {
		if s, ok := m.sends[id]; ok {
			s.Status = domain.SendQueued
			s.QueuedAt = &at
		}
	}
	return nil
}

func (m *memRepo) InsertQueueItems(_ context.Context, items []domain.EmailQueueItem) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failBatchInsert {
		return errors.New("batch insert failed")
	}
	m.queue = append(m.queue, items...)
	return nil
}

func (m *memRepo) InsertQueueItem(_ context.Context, item *domain.EmailQueueItem) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if item.CampaignSendID != nil && m.failItemInserts[*item.CampaignSendID] {
		return errors.New("item insert failed")
	}
	m.queue = append(m.queue, *item)
	return nil
}

func (m *memRepo) GetSend(_ context.Context, sendID string) (*domain.CampaignSend, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sends[sendID]
	if !ok {
		return nil, campaign.ErrSendNotFound
	}
	cp := *s
	return &cp, nil
}

func (m *memRepo) SetSendStatus(_ context.Context, sendID string, status domain.SendStatus) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sends[sendID]
	if !ok {
		return campaign.ErrSendNotFound
	}
	s.Status = status
	return nil
}

func (m *memRepo) StatsFor(_ context.Context, campaignID string) (domain.CampaignStats, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var st domain.CampaignStats
	for _, s := range m.sends {
		if s.CampaignID != campaignID {
			continue
		}
		st.Recipients++
		switch s.Status {
		case domain.SendQueued:
			st.Queued++
		case domain.SendSent:
			st.Sent++
		case domain.SendOpened:
			st.Opened++
		case domain.SendClicked:
			st.Clicked++
		case domain.SendReplied:
			st.Replied++
		case domain.SendBounced:
			st.Bounced++
		case domain.SendCancelled:
			st.Cancelled++
		}
	}
	return st, nil
}

func (m *memRepo) GetAccount(_ context.Context, companyID, accountID string) (*domain.EmailAccount, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.accountErr != nil {
		return nil, m.accountErr
	}
	for i := range m.accounts {
		a := m.accounts[i]
		if a.CompanyID == companyID && a.ID == accountID {
			return &a, nil
		}
	}
	return nil, campaign.ErrNoSendingAccount
}

func (m *memRepo) DefaultAccount(_ context.Context, companyID string) (*domain.EmailAccount, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.accountErr != nil {
		return nil, m.accountErr
	}
	for i := range m.accounts {
		a := m.accounts[i]
		if a.CompanyID == companyID && a.IsDefault && a.Active {
			return &a, nil
		}
	}
	return nil, campaign.ErrNoSendingAccount
}

func (m *memRepo) AnyOutboundAccount(_ context.Context, companyID string) (*domain.EmailAccount, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.accountErr != nil {
		return nil, m.accountErr
	}
	for i := range m.accounts {
		a := m.accounts[i]
		if a.CompanyID == companyID && a.Active && a.Outbound {
			return &a, nil
		}
	}
	return nil, campaign.ErrNoSendingAccount
}

func (m *memRepo) RenderMeta(_ context.Context, _ *domain.Campaign) (string, string, error) {
	return m.jobTitle, m.companyName, nil
}

// suppMemRepo mirrors the suppression test fake; duplicated here to keep
// the packages independent.
type suppMemRepo struct {
	mu  sync.Mutex
	set map[string]struct{}
}

func (m *suppMemRepo) IsSuppressed(_ context.Context, _, email string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.set[email]
	return ok, nil
}

func (m *suppMemRepo) Set(_ context.Context, _ string) (map[string]struct{}, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make(map[string]struct{}, len(m.set))
	for k := range m.set {
		out[k] = struct{}{}
	}
	return out, nil
}

func (m *suppMemRepo) Suppress(_ context.Context, s *domain.EmailSuppression) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.set == nil {
		m.set = make(map[string]struct{})
	}
	m.set[s.Email] = struct{}{}
	return nil
}

func (m *suppMemRepo) Remove(_ context.Context, _, email string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.set, email)
	return nil
}

func (m *suppMemRepo) List(_ context.Context, _ string, _, _ int) ([]domain.EmailSuppression, int, error) {
	return nil, 0, nil
}

const testCompany = "co-1"

type fixture struct {
	repo *memRepo
	supp *suppMemRepo
	svc  *campaign.Service
}

func newFixture() *fixture {
	repo := newMemRepo()
	repo.jobTitle = "Senior Welder"
	repo.companyName = "VertiCo"
	repo.accounts = []domain.EmailAccount{{
		ID: "acct-1", CompanyID: testCompany, Email: "recruiting@vertico.com",
		FromName: "Sam Recruiter", IsDefault: true, Active: true, Outbound: true,
	}}
	supp := &suppMemRepo{}
	return &fixture{
		repo: repo,
		supp: supp,
		svc:  campaign.NewService(repo, suppression.NewService(supp)),
	}
}

func (f *fixture) addCampaign(status domain.CampaignStatus) *domain.Campaign {
	c := &domain.Campaign{
		ID: "camp-1", CompanyID: testCompany, Name: "Outreach",
		Subject: "Hi {{firstName}}, re {{jobTitle}}",
		Body:    "Dear {{firstName}} {{lastName}}, {{senderName}} at {{companyName}} would like to chat.",
		Status:  status,
	}
	f.repo.Create(context.Background(), c)
	return c
}

func (f *fixture) addSend(candidateID, email string) {
	id := fmt.Sprintf("send-camp-1-%s", candidateID)
	f.repo.sends[id] = &domain.CampaignSend{
		ID: id, CampaignID: "camp-1", CandidateID: candidateID, Status: domain.SendPending,
		Candidate: domain.Candidate{
			ID: candidateID, FirstName: "Ana", LastName: "Ruiz", Email: email,
			CurrentCompany: "Acme", CurrentTitle: "Welder", Location: "Austin",
		},
	}
}

func TestDispatchEndToEnd(t *testing.T) {
	f := newFixture()
	f.addCampaign(domain.CampaignDraft)
	f.addSend("cand-1", "ana@example.com")
	f.addSend("cand-2", "Blocked@Example.com")
	f.addSend("cand-3", "")
	f.supp.Suppress(context.Background(), &domain.EmailSuppression{CompanyID: testCompany, Email: "blocked@example.com"})

	res, err := f.svc.Dispatch(context.Background(), testCompany, "camp-1")
	if err != nil {
		t.Fatalf("dispatch: %v", err)
	}
	if res.Queued != 1 || res.Skipped != 2 || res.Total != 3 {
		t.Fatalf("unexpected counts: %+v", res)
	}
	if res.Message != "1 emails queued, 2 skipped" {
		t.Errorf("unexpected message: %q", res.Message)
	}

	c, _ := f.repo.Get(context.Background(), testCompany, "camp-1")
	if c.Status != domain.CampaignActive {
		t.Errorf("expected active, got %s", c.Status)
	}
	if c.SentAt == nil {
		t.Error("sent_at not stamped")
	}
	if c.AccountID == nil || *c.AccountID != "acct-1" {
		t.Error("resolved account not persisted")
	}

	// Suppressed send cancelled, never enqueued.
	supSend := f.repo.sends["send-camp-1-cand-2"]
	if supSend.Status != domain.SendCancelled || supSend.CancelReason != "suppressed" {
		t.Errorf("suppressed send not cancelled: %+v", supSend)
	}
	for _, item := range f.repo.queue {
		if item.ToEmail == "blocked@example.com" {
			t.Error("suppressed address appeared in queue")
		}
	}

	// Missing-address send left pending.
	if got := f.repo.sends["send-camp-1-cand-3"].Status; got != domain.SendPending {
		t.Errorf("missing-address send should stay pending, got %s", got)
	}

	// Valid send queued with rendered content.
	if got := f.repo.sends["send-camp-1-cand-1"].Status; got != domain.SendQueued {
		t.Errorf("expected queued, got %s", got)
	}
	if len(f.repo.queue) != 1 {
		t.Fatalf("expected 1 queue item, got %d", len(f.repo.queue))
	}
	item := f.repo.queue[0]
	if item.Subject != "Hi Ana, re Senior Welder" {
		t.Errorf("subject not rendered: %q", item.Subject)
	}
	if !strings.Contains(item.HTMLBody, "Sam Recruiter at VertiCo") {
		t.Errorf("body not rendered: %q", item.HTMLBody)
	}
}

func TestDispatchSecondCallFailsFast(t *testing.T) {
	f := newFixture()
	f.addCampaign(domain.CampaignDraft)
	f.addSend("cand-1", "ana@example.com")

	if _, err := f.svc.Dispatch(context.Background(), testCompany, "camp-1"); err != nil {
		t.Fatalf("first dispatch: %v", err)
	}
	_, err := f.svc.Dispatch(context.Background(), testCompany, "camp-1")
	if err != campaign.ErrInvalidCampaignState {
		t.Fatalf("expected ErrInvalidCampaignState, got %v", err)
	}

	// The queued send was not re-processed.
	if got := f.repo.sends["send-camp-1-cand-1"].Status; got != domain.SendQueued {
		t.Errorf("send status changed on second dispatch: %s", got)
	}
	if len(f.repo.queue) != 1 {
		t.Errorf("queue grew on second dispatch: %d items", len(f.repo.queue))
	}
}

func TestDispatchFromPaused(t *testing.T) {
	f := newFixture()
	f.addCampaign(domain.CampaignPaused)
	f.addSend("cand-1", "ana@example.com")

	res, err := f.svc.Dispatch(context.Background(), testCompany, "camp-1")
	if err != nil {
		t.Fatalf("dispatch: %v", err)
	}
	if res.Queued != 1 {
		t.Fatalf("expected 1 queued, got %d", res.Queued)
	}
}

func TestDispatchCompletedCampaignRejected(t *testing.T) {
	f := newFixture()
	f.addCampaign(domain.CampaignCompleted)
	f.addSend("cand-1", "ana@example.com")

	_, err := f.svc.Dispatch(context.Background(), testCompany, "camp-1")
	if err != campaign.ErrInvalidCampaignState {
		t.Fatalf("expected ErrInvalidCampaignState, got %v", err)
	}
}

func TestDispatchNoSendingAccount(t *testing.T) {
	f := newFixture()
	f.repo.accounts = nil
	f.addCampaign(domain.CampaignDraft)
	f.addSend("cand-1", "ana@example.com")

	_, err := f.svc.Dispatch(context.Background(), testCompany, "camp-1")
	if err != campaign.ErrNoSendingAccount {
		t.Fatalf("expected ErrNoSendingAccount, got %v", err)
	}

	// Campaign must not be claimed when the account check fails.
	c, _ := f.repo.Get(context.Background(), testCompany, "camp-1")
	if c.Status != domain.CampaignDraft {
		t.Errorf("campaign status changed: %s", c.Status)
	}
}

func TestDispatchNoEligibleRecipientsRestoresStatus(t *testing.T) {
	f := newFixture()
	f.addCampaign(domain.CampaignPaused)

	_, err := f.svc.Dispatch(context.Background(), testCompany, "camp-1")
	if err != campaign.ErrNoEligibleRecipients {
		t.Fatalf("expected ErrNoEligibleRecipients, got %v", err)
	}
	c, _ := f.repo.Get(context.Background(), testCompany, "camp-1")
	if c.Status != domain.CampaignPaused {
		t.Errorf("status not restored, got %s", c.Status)
	}
}

func TestDispatchExplicitAccountPreferred(t *testing.T) {
	f := newFixture()
	f.repo.accounts = append(f.repo.accounts, domain.EmailAccount{
		ID: "acct-2", CompanyID: testCompany, Email: "hiring@vertico.com",
		FromName: "Hiring Team", Active: true, Outbound: true,
	})
	c := f.addCampaign(domain.CampaignDraft)
	explicit := "acct-2"
	f.repo.campaigns[c.ID].AccountID = &explicit
	f.addSend("cand-1", "ana@example.com")

	if _, err := f.svc.Dispatch(context.Background(), testCompany, "camp-1"); err != nil {
		t.Fatalf("dispatch: %v", err)
	}
	if f.repo.queue[0].FromEmail != "hiring@vertico.com" {
		t.Errorf("explicit account not used: %s", f.repo.queue[0].FromEmail)
	}
}

func TestDispatchPerItemInsertFallback(t *testing.T) {
	f := newFixture()
	f.addCampaign(domain.CampaignDraft)
	f.addSend("cand-1", "ana@example.com")
	f.addSend("cand-2", "bob@example.com")
	f.repo.failBatchInsert = true
	f.repo.failItemInserts["send-camp-1-cand-2"] = true

	res, err := f.svc.Dispatch(context.Background(), testCompany, "camp-1")
	if err != nil {
		t.Fatalf("dispatch: %v", err)
	}
	if res.Queued != 1 || res.Skipped != 1 {
		t.Fatalf("expected 1 queued / 1 skipped, got %+v", res)
	}
	if got := f.repo.sends["send-camp-1-cand-1"].Status; got != domain.SendQueued {
		t.Errorf("good send not queued: %s", got)
	}
	if got := f.repo.sends["send-camp-1-cand-2"].Status; got != domain.SendPending {
		t.Errorf("failed send should stay pending: %s", got)
	}

	// A partial enqueue pauses the campaign so the pending send stays
	// reachable by a re-dispatch.
	c, _ := f.repo.Get(context.Background(), testCompany, "camp-1")
	if c.Status != domain.CampaignPaused {
		t.Fatalf("expected paused after partial enqueue, got %s", c.Status)
	}

	f.repo.failBatchInsert = false
	delete(f.repo.failItemInserts, "send-camp-1-cand-2")
	res, err = f.svc.Dispatch(context.Background(), testCompany, "camp-1")
	if err != nil {
		t.Fatalf("re-dispatch: %v", err)
	}
	if res.Queued != 1 {
		t.Fatalf("re-dispatch should pick up only the failed send, got %+v", res)
	}
	if got := f.repo.sends["send-camp-1-cand-2"].Status; got != domain.SendQueued {
		t.Errorf("retried send not queued: %s", got)
	}
}

func TestDispatchMarkQueuedFailurePausesCampaign(t *testing.T) {
	f := newFixture()
	f.addCampaign(domain.CampaignDraft)
	f.addSend("cand-1", "ana@example.com")
	f.repo.failMarkQueuedOnce = true

	if _, err := f.svc.Dispatch(context.Background(), testCompany, "camp-1"); err == nil {
		t.Fatal("expected dispatch to fail")
	}

	c, _ := f.repo.Get(context.Background(), testCompany, "camp-1")
	if c.Status != domain.CampaignPaused {
		t.Fatalf("campaign must not stay active after a failed dispatch, got %s", c.Status)
	}

	// The pause keeps the pending send reachable: a retry succeeds
	// instead of failing fast on the claim.
	res, err := f.svc.Dispatch(context.Background(), testCompany, "camp-1")
	if err != nil {
		t.Fatalf("retry after failure: %v", err)
	}
	if res.Queued != 1 {
		t.Fatalf("retry should queue the pending send, got %+v", res)
	}
	if got := f.repo.sends["send-camp-1-cand-1"].Status; got != domain.SendQueued {
		t.Errorf("send not queued after retry: %s", got)
	}
}

func TestDispatchFinishFailurePausesCampaign(t *testing.T) {
	f := newFixture()
	f.addCampaign(domain.CampaignDraft)
	f.addSend("cand-1", "ana@example.com")
	f.repo.failFinishOnce = true

	if _, err := f.svc.Dispatch(context.Background(), testCompany, "camp-1"); err == nil {
		t.Fatal("expected dispatch to fail")
	}
	c, _ := f.repo.Get(context.Background(), testCompany, "camp-1")
	if c.Status != domain.CampaignPaused {
		t.Fatalf("expected paused, got %s", c.Status)
	}
}

func TestDispatchAccountLookupErrorPropagates(t *testing.T) {
	f := newFixture()
	f.addCampaign(domain.CampaignDraft)
	f.addSend("cand-1", "ana@example.com")
	f.repo.accountErr = errors.New("db down")

	_, err := f.svc.Dispatch(context.Background(), testCompany, "camp-1")
	if err == nil {
		t.Fatal("expected dispatch to fail")
	}
	if errors.Is(err, campaign.ErrNoSendingAccount) {
		t.Fatalf("lookup failure must not masquerade as a missing account: %v", err)
	}

	// Nothing was claimed: the campaign is still dispatchable.
	c, _ := f.repo.Get(context.Background(), testCompany, "camp-1")
	if c.Status != domain.CampaignDraft {
		t.Errorf("campaign status changed: %s", c.Status)
	}
}

func TestCreateDedupesCandidates(t *testing.T) {
	f := newFixture()
	c, err := f.svc.Create(context.Background(), testCompany, campaign.CreateInput{
		Name: "Outreach", Subject: "Hello", Body: "Hi",
		CandidateIDs: []string{"cand-1", "cand-2", "cand-1"},
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if c.Stats.Recipients != 2 {
		t.Fatalf("expected 2 sends, got %d", c.Stats.Recipients)
	}
}

func TestApplyDeliveryEventMonotonic(t *testing.T) {
	f := newFixture()
	f.addCampaign(domain.CampaignDraft)
	f.addSend("cand-1", "ana@example.com")
	sendID := "send-camp-1-cand-1"
	f.repo.sends[sendID].Status = domain.SendQueued

	ctx := context.Background()
	if err := f.svc.ApplyDeliveryEvent(ctx, sendID, domain.SendOpened); err != nil {
		t.Fatalf("apply opened: %v", err)
	}
	if got := f.repo.sends[sendID].Status; got != domain.SendOpened {
		t.Fatalf("expected opened, got %s", got)
	}

	// A late "sent" event must not regress the send.
	if err := f.svc.ApplyDeliveryEvent(ctx, sendID, domain.SendSent); err != nil {
		t.Fatalf("apply stale sent: %v", err)
	}
	if got := f.repo.sends[sendID].Status; got != domain.SendOpened {
		t.Fatalf("send regressed to %s", got)
	}

	// Forward again.
	if err := f.svc.ApplyDeliveryEvent(ctx, sendID, domain.SendReplied); err != nil {
		t.Fatalf("apply replied: %v", err)
	}
	if got := f.repo.sends[sendID].Status; got != domain.SendReplied {
		t.Fatalf("expected replied, got %s", got)
	}
}

func TestApplyDeliveryEventCancelledSendIgnored(t *testing.T) {
	f := newFixture()
	f.addCampaign(domain.CampaignDraft)
	f.addSend("cand-1", "ana@example.com")
	sendID := "send-camp-1-cand-1"
	f.repo.sends[sendID].Status = domain.SendCancelled

	if err := f.svc.ApplyDeliveryEvent(context.Background(), sendID, domain.SendSent); err != nil {
		t.Fatalf("apply: %v", err)
	}
	if got := f.repo.sends[sendID].Status; got != domain.SendCancelled {
		t.Fatalf("cancelled send mutated: %s", got)
	}
}

func TestGetRecomputesStats(t *testing.T) {
	f := newFixture()
	f.addCampaign(domain.CampaignDraft)
	f.addSend("cand-1", "ana@example.com")
	f.addSend("cand-2", "bob@example.com")
	f.repo.sends["send-camp-1-cand-1"].Status = domain.SendOpened
	f.repo.sends["send-camp-1-cand-2"].Status = domain.SendBounced

	c, err := f.svc.Get(context.Background(), testCompany, "camp-1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if c.Stats.Recipients != 2 || c.Stats.Opened != 1 || c.Stats.Bounced != 1 {
		t.Fatalf("stats not recomputed: %+v", c.Stats)
	}
}

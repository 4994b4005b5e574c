package estimate

import (
	"fmt"
	"strings"
	"time"

	"soq/internal/apperror"
	"soq/models"
)

// CreateTender создаёт черновик тендера. Каждая работа должна существовать.
func (b *Book) CreateTender(in models.TenderInput, jobIDs []string, createdBy string) (models.Tender, error) {
	b.mu.Lock()
	for _, jid := range jobIDs {
		if _, ok := b.jobs[jid]; !ok {
			b.mu.Unlock()
			return models.Tender{}, apperror.NotFound("job", jid)
		}
	}
	t, err := models.NewTender(b.newID(), in, jobIDs, createdBy, b.now())
	if err != nil {
		b.mu.Unlock()
		return models.Tender{}, err
	}
	if _, dup := b.tenders[t.ID]; dup {
		b.mu.Unlock()
		return models.Tender{}, apperror.Conflict("tender %q already exists", t.ID)
	}
	b.tenders[t.ID] = &tenderEntry{t: t}
	b.tenderOrder = append(b.tenderOrder, t.ID)
	for _, jid := range t.JobIDs {
		b.addRef(jid, t.ID)
	}
	out := t.Clone()
	b.mu.Unlock()

	b.notify(models.Notification{
		Kind:       models.NotifyTenderCreated,
		TenderID:   out.ID,
		Private:    out.Privacy == models.PrivacyPrivate,
		Recipients: recipients(out.CreatedBy),
		Subject:    fmt.Sprintf("Tender %q created", out.Name),
		Body:       fmt.Sprintf("Draft tender %q was created with %d jobs.", out.Name, len(out.JobIDs)),
		At:         out.CreatedAt,
	})
	return out, nil
}

// withTender выполняет fn под блокировкой тендера. fn обязана проверить все
// условия до первого изменения записи.
func (b *Book) withTender(tenderID string, fn func(te *tenderEntry) error) (models.Tender, []models.BidderProposal, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	te, ok := b.tenders[tenderID]
	if !ok {
		return models.Tender{}, nil, apperror.NotFound("tender", tenderID)
	}
	te.mu.Lock()
	defer te.mu.Unlock()

	if err := fn(te); err != nil {
		return models.Tender{}, nil, err
	}
	return te.t.Clone(), cloneProposals(te.proposals), nil
}

func (b *Book) Tender(tenderID string) (models.Tender, error) {
	t, _, err := b.withTender(tenderID, func(*tenderEntry) error { return nil })
	return t, err
}

// Tenders список тендеров в порядке создания.
func (b *Book) Tenders() []models.Tender {
	b.mu.Lock()
	defer b.mu.Unlock()

	out := make([]models.Tender, 0, len(b.tenderOrder))
	for _, id := range b.tenderOrder {
		out = append(out, b.tenders[id].t.Clone())
	}
	return out
}

func (b *Book) Proposals(tenderID string) ([]models.BidderProposal, error) {
	_, ps, err := b.withTender(tenderID, func(*tenderEntry) error { return nil })
	return ps, err
}

func (b *Book) AddJobToTender(tenderID, jobID string) (models.Tender, error) {
	t, _, err := b.withTender(tenderID, func(te *tenderEntry) error {
		if err := te.t.RequireDraft(models.EventAddJob); err != nil {
			return err
		}
		if _, ok := b.jobs[jobID]; !ok {
			return apperror.NotFound("job", jobID)
		}
		if te.t.HasJob(jobID) {
			return nil
		}
		te.t.JobIDs = append(te.t.JobIDs, jobID)
		te.t.Version++
		b.addRef(jobID, te.t.ID)
		return nil
	})
	return t, err
}

func (b *Book) RemoveJobFromTender(tenderID, jobID string) (models.Tender, error) {
	t, _, err := b.withTender(tenderID, func(te *tenderEntry) error {
		if err := te.t.RequireDraft(models.EventRemoveJob); err != nil {
			return err
		}
		if !te.t.HasJob(jobID) {
			return apperror.NotFound("tender job", jobID)
		}
		te.t.JobIDs = models.RemoveID(te.t.JobIDs, jobID)
		te.t.Version++
		b.dropRef(jobID, te.t.ID)
		return nil
	})
	return t, err
}

func (b *Book) SetPrivacy(tenderID string, privacy models.TenderPrivacy) (models.Tender, error) {
	t, _, err := b.withTender(tenderID, func(te *tenderEntry) error {
		if err := te.t.RequireDraft(models.EventSetPrivacy); err != nil {
			return err
		}
		if !privacy.IsValid() {
			return apperror.Validation("invalid privacy %q", privacy)
		}
		if te.t.Privacy != privacy {
			te.t.Privacy = privacy
			te.t.Version++
		}
		return nil
	})
	return t, err
}

// Reschedule меняет окно приёма предложений черновика.
func (b *Book) Reschedule(tenderID string, start, end time.Time) (models.Tender, error) {
	t, _, err := b.withTender(tenderID, func(te *tenderEntry) error {
		if err := te.t.RequireDraft(models.EventReschedule); err != nil {
			return err
		}
		if err := models.ValidateWindow(start, end); err != nil {
			return err
		}
		te.t.StartTime, te.t.EndTime = start, end
		te.t.Version++
		return nil
	})
	return t, err
}

func (b *Book) Submit(tenderID string) (models.Tender, error) {
	now := b.now()
	t, ps, err := b.withTender(tenderID, func(te *tenderEntry) error {
		to, err := te.t.Status.Next(models.EventSubmit)
		if err != nil {
			return err
		}
		if len(te.t.JobIDs) == 0 {
			return apperror.Validation("tender %q must reference at least one job", te.t.ID)
		}
		for _, jid := range te.t.JobIDs {
			if _, ok := b.jobs[jid]; !ok {
				return apperror.Validation("tender %q references missing job %q", te.t.ID, jid)
			}
		}
		if err := models.ValidateWindow(te.t.StartTime, te.t.EndTime); err != nil {
			return err
		}
		te.t.Status = to
		te.t.SubmittedAt = &now
		te.t.Version++
		return nil
	})
	if err != nil {
		return models.Tender{}, err
	}
	b.notify(lifecycleNotice(models.NotifyTenderSubmitted, t, ps, now,
		fmt.Sprintf("Tender %q is open for bids from %s to %s.", t.Name,
			t.StartTime.Format(time.RFC3339), t.EndTime.Format(time.RFC3339))))
	return t, nil
}

func (b *Book) Withdraw(tenderID string) (models.Tender, error) {
	now := b.now()
	t, ps, err := b.withTender(tenderID, func(te *tenderEntry) error {
		to, err := te.t.Status.Next(models.EventWithdraw)
		if err != nil {
			return err
		}
		te.t.Status = to
		te.t.SubmittedAt = nil
		te.t.Version++
		return nil
	})
	if err != nil {
		return models.Tender{}, err
	}
	b.notify(lifecycleNotice(models.NotifyTenderWithdrawn, t, ps, now,
		fmt.Sprintf("Tender %q was withdrawn to draft.", t.Name)))
	return t, nil
}

// Award присуждает тендер подрядчику. После этого тендер и его предложения неизменяемы.
func (b *Book) Award(tenderID, bidderName string) (models.Tender, error) {
	now := b.now()
	bidderName = strings.TrimSpace(bidderName)
	t, ps, err := b.withTender(tenderID, func(te *tenderEntry) error {
		to, err := te.t.Status.Next(models.EventAward)
		if err != nil {
			return err
		}
		if len(te.proposals) == 0 {
			return apperror.InvalidTransition(string(te.t.Status), string(models.EventAward))
		}
		idx := findProposal(te.proposals, bidderName)
		if idx < 0 {
			return apperror.NotFound("proposal", bidderName)
		}
		te.t.Status = to
		te.t.AwardedTo = te.proposals[idx].BidderName
		te.t.AwardedAt = &now
		te.t.Version++
		return nil
	})
	if err != nil {
		return models.Tender{}, err
	}
	b.notify(lifecycleNotice(models.NotifyTenderAwarded, t, ps, now,
		fmt.Sprintf("Tender %q was awarded to %s.", t.Name, t.AwardedTo)))
	return t, nil
}

// DeleteTender удаляет черновик тендера вместе со ссылками на работы.
func (b *Book) DeleteTender(tenderID string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	te, ok := b.tenders[tenderID]
	if !ok {
		return apperror.NotFound("tender", tenderID)
	}
	if err := te.t.RequireDraft(models.EventDelete); err != nil {
		return err
	}
	for _, jid := range te.t.JobIDs {
		b.dropRef(jid, tenderID)
	}
	delete(b.tenders, tenderID)
	b.tenderOrder = models.RemoveID(b.tenderOrder, tenderID)
	return nil
}

// SubmitProposal записывает предложение подрядчика. Один подрядчик, одно
// предложение на тендер; приём только в статусе submitted и внутри окна.
func (b *Book) SubmitProposal(tenderID string, in models.ProposalInput, submittedBy string) (models.BidderProposal, error) {
	now := b.now()
	var out models.BidderProposal
	t, _, err := b.withTender(tenderID, func(te *tenderEntry) error {
		if err := requireBidding(te.t, models.EventPropose, now); err != nil {
			return err
		}
		if findProposal(te.proposals, in.BidderName) >= 0 {
			return apperror.Conflict("bidder %q already submitted a proposal", strings.TrimSpace(in.BidderName))
		}
		p, err := models.NewBidderProposal(b.newID(), te.t.ID, in, submittedBy, now, te.seq+1)
		if err != nil {
			return err
		}
		te.seq++
		te.proposals = append(te.proposals, p)
		out = p.Clone()
		return nil
	})
	if err != nil {
		return models.BidderProposal{}, err
	}
	b.notify(models.Notification{
		Kind:       models.NotifyProposalReceived,
		TenderID:   t.ID,
		Private:    t.Privacy == models.PrivacyPrivate,
		Recipients: recipients(t.CreatedBy),
		Subject:    fmt.Sprintf("New proposal for %q", t.Name),
		Body:       fmt.Sprintf("%s submitted a proposal for tender %q.", out.BidderName, t.Name),
		At:         now,
	})
	return out, nil
}

// ReviseProposal заменяет стоимость, срок и котировки предложения, сохраняя
// его id и порядок подачи.
func (b *Book) ReviseProposal(tenderID, bidderName string, in models.ProposalInput) (models.BidderProposal, error) {
	now := b.now()
	var out models.BidderProposal
	t, _, err := b.withTender(tenderID, func(te *tenderEntry) error {
		if err := requireBidding(te.t, models.EventRevise, now); err != nil {
			return err
		}
		idx := findProposal(te.proposals, bidderName)
		if idx < 0 {
			return apperror.NotFound("proposal", bidderName)
		}
		prev := te.proposals[idx]
		in.BidderName = prev.BidderName
		p, err := models.NewBidderProposal(prev.ID, te.t.ID, in, prev.SubmittedBy, prev.SubmittedAt, prev.Seq)
		if err != nil {
			return err
		}
		p.Version = prev.Version + 1
		te.proposals[idx] = p
		out = p.Clone()
		return nil
	})
	if err != nil {
		return models.BidderProposal{}, err
	}
	b.notify(models.Notification{
		Kind:       models.NotifyProposalRevised,
		TenderID:   t.ID,
		Private:    t.Privacy == models.PrivacyPrivate,
		Recipients: recipients(t.CreatedBy),
		Subject:    fmt.Sprintf("Proposal revised for %q", t.Name),
		Body:       fmt.Sprintf("%s revised the proposal for tender %q.", out.BidderName, t.Name),
		At:         now,
	})
	return out, nil
}

func requireBidding(t models.Tender, event models.TenderEvent, now time.Time) error {
	switch t.Status {
	case models.TenderAwarded:
		return apperror.Frozen("tender", t.ID)
	case models.TenderSubmitted:
	default:
		return apperror.InvalidTransition(string(t.Status), string(event))
	}
	if !t.InWindow(now) {
		return apperror.Validation("tender %q accepts proposals only between %s and %s",
			t.ID, t.StartTime.Format(time.RFC3339), t.EndTime.Format(time.RFC3339))
	}
	return nil
}

func findProposal(ps []models.BidderProposal, bidderName string) int {
	name := strings.TrimSpace(bidderName)
	for i, p := range ps {
		if strings.EqualFold(p.BidderName, name) {
			return i
		}
	}
	return -1
}

func cloneProposals(ps []models.BidderProposal) []models.BidderProposal {
	out := make([]models.BidderProposal, len(ps))
	for i, p := range ps {
		out[i] = p.Clone()
	}
	return out
}

func lifecycleNotice(kind models.NotificationKind, t models.Tender, ps []models.BidderProposal, at time.Time, body string) models.Notification {
	users := []string{t.CreatedBy}
	for _, p := range ps {
		users = append(users, p.SubmittedBy)
	}
	return models.Notification{
		Kind:       kind,
		TenderID:   t.ID,
		Private:    t.Privacy == models.PrivacyPrivate,
		Recipients: recipients(users...),
		Subject:    fmt.Sprintf("Tender %q: %s", t.Name, t.Status),
		Body:       body,
		At:         at,
	}
}

func recipients(users ...string) []string {
	seen := make(map[string]struct{}, len(users))
	out := make([]string, 0, len(users))
	for _, u := range users {
		if u == "" {
			continue
		}
		if _, ok := seen[u]; ok {
			continue
		}
		seen[u] = struct{}{}
		out = append(out, u)
	}
	return out
}

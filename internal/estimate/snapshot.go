package estimate

import (
	"soq/internal/apperror"
	"soq/internal/compare"
	"soq/models"
)

// Snapshot полное состояние в форме записей для хранилища.
type Snapshot struct {
	Categories []models.Category       `json:"categories"`
	Jobs       []models.Job            `json:"jobs"`
	Tenders    []models.Tender         `json:"tenders"`
	Proposals  []models.BidderProposal `json:"proposals"`
}

func (s Snapshot) IsEmpty() bool {
	return len(s.Categories) == 0 && len(s.Jobs) == 0 && len(s.Tenders) == 0
}

// Export возвращает согласованный снимок. Работы идут в порядке категорий,
// предложения в порядке подачи.
func (b *Book) Export() Snapshot {
	b.mu.Lock()
	defer b.mu.Unlock()

	s := Snapshot{
		Categories: make([]models.Category, 0, len(b.categoryOrder)),
		Jobs:       make([]models.Job, 0, len(b.jobs)),
		Tenders:    make([]models.Tender, 0, len(b.tenderOrder)),
		Proposals:  []models.BidderProposal{},
	}
	for _, cid := range b.categoryOrder {
		c := b.categories[cid].c
		s.Categories = append(s.Categories, c.Clone())
		for _, jid := range c.JobIDs {
			s.Jobs = append(s.Jobs, b.jobView(b.jobs[jid].j))
		}
	}
	for _, tid := range b.tenderOrder {
		te := b.tenders[tid]
		s.Tenders = append(s.Tenders, te.t.Clone())
		s.Proposals = append(s.Proposals, cloneProposals(te.proposals)...)
	}
	return s
}

// Restore заменяет состояние снимком после проверки ссылочной целостности.
// При ошибке текущее состояние не меняется. Итоги пересчитываются.
func (b *Book) Restore(s Snapshot) error {
	categories := make(map[string]*categoryEntry, len(s.Categories))
	categoryOrder := make([]string, 0, len(s.Categories))
	owner := make(map[string]string)
	for _, c := range s.Categories {
		if err := c.Validate(); err != nil {
			return err
		}
		if _, dup := categories[c.ID]; dup {
			return apperror.Conflict("duplicate category id %q", c.ID)
		}
		for _, jid := range c.JobIDs {
			if prev, taken := owner[jid]; taken {
				return apperror.Conflict("job %q is owned by categories %q and %q", jid, prev, c.ID)
			}
			owner[jid] = c.ID
		}
		categories[c.ID] = &categoryEntry{c: c.Clone()}
		categoryOrder = append(categoryOrder, c.ID)
	}

	jobs := make(map[string]*jobEntry, len(s.Jobs))
	items := make(map[string]string)
	for _, j := range s.Jobs {
		cid, ok := owner[j.ID]
		if !ok {
			return apperror.Validation("job %q is not owned by any category", j.ID)
		}
		if _, dup := jobs[j.ID]; dup {
			return apperror.Conflict("duplicate job id %q", j.ID)
		}
		j = j.Clone()
		j.CategoryID = cid
		if err := j.Validate(); err != nil {
			return err
		}
		for _, itemID := range j.ItemIDs() {
			if _, dup := items[itemID]; dup {
				return apperror.Conflict("duplicate item id %q", itemID)
			}
			items[itemID] = j.ID
		}
		j.Recompute()
		jobs[j.ID] = &jobEntry{j: j}
	}
	for jid, cid := range owner {
		if _, ok := jobs[jid]; !ok {
			return apperror.NotFound("job", jid+" (listed in category "+cid+")")
		}
	}

	tenders := make(map[string]*tenderEntry, len(s.Tenders))
	tenderOrder := make([]string, 0, len(s.Tenders))
	refs := make(map[string]map[string]struct{})
	for _, t := range s.Tenders {
		if err := t.Validate(); err != nil {
			return err
		}
		if _, dup := tenders[t.ID]; dup {
			return apperror.Conflict("duplicate tender id %q", t.ID)
		}
		for _, jid := range t.JobIDs {
			if _, ok := jobs[jid]; !ok {
				return apperror.NotFound("job", jid)
			}
			if refs[jid] == nil {
				refs[jid] = make(map[string]struct{})
			}
			refs[jid][t.ID] = struct{}{}
		}
		tenders[t.ID] = &tenderEntry{t: t.Clone()}
		tenderOrder = append(tenderOrder, t.ID)
	}
	for _, p := range s.Proposals {
		te, ok := tenders[p.TenderID]
		if !ok {
			return apperror.NotFound("tender", p.TenderID)
		}
		if err := p.Validate(); err != nil {
			return err
		}
		if findProposal(te.proposals, p.BidderName) >= 0 {
			return apperror.Conflict("bidder %q has two proposals for tender %q", p.BidderName, p.TenderID)
		}
		p = p.Clone()
		p.Recalculate()
		te.proposals = append(te.proposals, p)
		if p.Seq > te.seq {
			te.seq = p.Seq
		}
	}
	for _, te := range tenders {
		if te.t.Status == models.TenderAwarded && findProposal(te.proposals, te.t.AwardedTo) < 0 {
			return apperror.Validation("awarded tender %q has no proposal from %q", te.t.ID, te.t.AwardedTo)
		}
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	b.categories, b.categoryOrder = categories, categoryOrder
	b.jobs = jobs
	b.tenders, b.tenderOrder = tenders, tenderOrder

	b.itemsMu.Lock()
	b.items = items
	b.itemsMu.Unlock()

	b.refsMu.Lock()
	b.refs = refs
	b.refsMu.Unlock()
	return nil
}

// CompareBids запускает сравнение по согласованному снимку тендера, его работ и предложений.
func (b *Book) CompareBids(tenderID string) (compare.Result, error) {
	b.mu.Lock()
	te, ok := b.tenders[tenderID]
	if !ok {
		b.mu.Unlock()
		return compare.Result{}, apperror.NotFound("tender", tenderID)
	}
	t := te.t.Clone()
	proposals := cloneProposals(te.proposals)
	jobs := make([]models.Job, 0, len(t.JobIDs))
	for _, jid := range t.JobIDs {
		if je, ok := b.jobs[jid]; ok {
			jobs = append(jobs, b.jobView(je.j))
		}
	}
	b.mu.Unlock()

	return compare.Run(t, jobs, proposals)
}

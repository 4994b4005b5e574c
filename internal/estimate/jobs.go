package estimate

import (
	"soq/internal/apperror"
	"soq/models"
)

// CreateJob создаёт работу в статусе draft с нулевыми итогами.
func (b *Book) CreateJob(categoryID string, in models.JobInput) (models.Job, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	ce, ok := b.categories[categoryID]
	if !ok {
		return models.Job{}, apperror.NotFound("category", categoryID)
	}
	j, err := models.NewJob(b.newID(), categoryID, in)
	if err != nil {
		return models.Job{}, err
	}
	if _, dup := b.jobs[j.ID]; dup {
		return models.Job{}, apperror.Conflict("job %q already exists", j.ID)
	}
	b.jobs[j.ID] = &jobEntry{j: j}
	ce.c.JobIDs = append(ce.c.JobIDs, j.ID)
	ce.c.Version++
	return j.Clone(), nil
}

func (b *Book) Job(jobID string) (models.Job, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	e, ok := b.jobs[jobID]
	if !ok {
		return models.Job{}, apperror.NotFound("job", jobID)
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return b.jobView(e.j), nil
}

// RecomputeTotals пересчитывает итоги работы по текущим позициям.
func (b *Book) RecomputeTotals(jobID string) (models.Job, error) {
	return b.mutateJob(jobID, func(*models.Job) error { return nil })
}

func (b *Book) SetStatus(jobID string, status models.JobStatus) (models.Job, error) {
	return b.mutateJob(jobID, func(j *models.Job) error {
		next, err := j.WithStatus(status)
		if err != nil {
			return err
		}
		*j = next
		return nil
	})
}

func (b *Book) UpdateJob(jobID string, patch models.JobPatch) (models.Job, error) {
	return b.mutateJob(jobID, func(j *models.Job) error {
		next, err := patch.Apply(*j)
		if err != nil {
			return err
		}
		*j = next
		return nil
	})
}

// MoveJob переносит работу в другую категорию одним шагом.
func (b *Book) MoveJob(jobID, targetCategoryID string) (models.Job, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	je, ok := b.jobs[jobID]
	if !ok {
		return models.Job{}, apperror.NotFound("job", jobID)
	}
	src, ok := b.categories[je.j.CategoryID]
	if !ok {
		return models.Job{}, apperror.NotFound("category", je.j.CategoryID)
	}
	dst, ok := b.categories[targetCategoryID]
	if !ok {
		return models.Job{}, apperror.NotFound("category", targetCategoryID)
	}
	if src == dst {
		return b.jobView(je.j), nil
	}

	src.c.JobIDs = models.RemoveID(src.c.JobIDs, jobID)
	src.c.Version++
	dst.c.JobIDs = append(models.RemoveID(dst.c.JobIDs, jobID), jobID)
	dst.c.Version++
	next := je.j.Clone()
	next.CategoryID = targetCategoryID
	next.Version++
	je.j = next
	return b.jobView(je.j), nil
}

// Removal сущности, изменённые удалением работы: её категория и черновые
// тендеры, из которых вычищена ссылка.
type Removal struct {
	JobID      string   `json:"deleted"`
	CategoryID string   `json:"categoryId"`
	TenderIDs  []string `json:"prunedTenders"`
}

// DeleteJob удаляет работу и вычищает ссылку на неё из всех черновых тендеров.
// Работа в поданном тендере не удаляется (ConflictError), в присуждённом FrozenStateError.
func (b *Book) DeleteJob(jobID string) (Removal, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	je, ok := b.jobs[jobID]
	if !ok {
		return Removal{}, apperror.NotFound("job", jobID)
	}
	tenderIDs := b.referencingTenders(jobID)
	for _, tid := range tenderIDs {
		te := b.tenders[tid]
		switch te.t.Status {
		case models.TenderAwarded:
			return Removal{}, apperror.Frozen("tender", tid)
		case models.TenderSubmitted:
			return Removal{}, apperror.Conflict("job %q is referenced by submitted tender %q", jobID, tid)
		}
	}

	for _, tid := range tenderIDs {
		te := b.tenders[tid]
		te.t.JobIDs = models.RemoveID(te.t.JobIDs, jobID)
		te.t.Version++
		b.dropRef(jobID, tid)
	}
	if ce, ok := b.categories[je.j.CategoryID]; ok {
		ce.c.JobIDs = models.RemoveID(ce.c.JobIDs, jobID)
		ce.c.Version++
	}
	for _, itemID := range je.j.ItemIDs() {
		b.unindexItem(itemID)
	}
	delete(b.jobs, jobID)
	return Removal{JobID: jobID, CategoryID: je.j.CategoryID, TenderIDs: tenderIDs}, nil
}

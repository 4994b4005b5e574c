package estimate

import (
	"strings"

	"soq/internal/apperror"
	"soq/models"
)

// mutateJob применяет fn к копии работы под её блокировкой и сохраняет результат
// только при успехе. Итоги пересчитываются до записи.
func (b *Book) mutateJob(jobID string, fn func(j *models.Job) error) (models.Job, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	e, ok := b.jobs[jobID]
	if !ok {
		return models.Job{}, apperror.NotFound("job", jobID)
	}
	e.mu.Lock()
	defer e.mu.Unlock()

	next := e.j.Clone()
	if err := fn(&next); err != nil {
		return models.Job{}, err
	}
	next.Recompute()
	next.Version++
	e.j = next
	return b.jobView(next), nil
}

func (b *Book) AddMaterialItem(jobID string, in models.MaterialInput) (models.MaterialItem, error) {
	item, err := models.NewMaterialItem(b.newID(), in)
	if err != nil {
		return models.MaterialItem{}, err
	}
	if _, err := b.mutateJob(jobID, func(j *models.Job) error {
		j.Materials = append(j.Materials, item)
		b.indexItem(item.ID, jobID)
		return nil
	}); err != nil {
		return models.MaterialItem{}, err
	}
	return item.Clone(), nil
}

func (b *Book) AddLaborItem(jobID string, in models.LaborInput) (models.LaborItem, error) {
	item, err := models.NewLaborItem(b.newID(), in)
	if err != nil {
		return models.LaborItem{}, err
	}
	if _, err := b.mutateJob(jobID, func(j *models.Job) error {
		j.Labor = append(j.Labor, item)
		b.indexItem(item.ID, jobID)
		return nil
	}); err != nil {
		return models.LaborItem{}, err
	}
	return item.Clone(), nil
}

// UpdateItem применяет патч к позиции и возвращает работу с пересчитанными итогами.
func (b *Book) UpdateItem(itemID string, patch models.ItemPatch) (models.Job, error) {
	jobID, ok := b.itemJob(itemID)
	if !ok {
		return models.Job{}, apperror.NotFound("item", itemID)
	}
	return b.mutateJob(jobID, func(j *models.Job) error {
		kind, idx, found := j.FindItem(itemID)
		if !found {
			return apperror.NotFound("item", itemID)
		}
		if kind == models.KindMaterial {
			m, err := patch.ApplyMaterial(j.Materials[idx])
			if err != nil {
				return err
			}
			j.Materials[idx] = m
			return nil
		}
		l, err := patch.ApplyLabor(j.Labor[idx])
		if err != nil {
			return err
		}
		j.Labor[idx] = l
		return nil
	})
}

// RemoveItem удаляет позицию. Статус работы не меняется.
func (b *Book) RemoveItem(itemID string) (models.Job, error) {
	jobID, ok := b.itemJob(itemID)
	if !ok {
		return models.Job{}, apperror.NotFound("item", itemID)
	}
	return b.mutateJob(jobID, func(j *models.Job) error {
		kind, idx, found := j.FindItem(itemID)
		if !found {
			return apperror.NotFound("item", itemID)
		}
		if kind == models.KindMaterial {
			j.Materials = append(j.Materials[:idx], j.Materials[idx+1:]...)
		} else {
			j.Labor = append(j.Labor[:idx], j.Labor[idx+1:]...)
		}
		b.unindexItem(itemID)
		return nil
	})
}

// RecordAttachment сохраняет URL, выданный файловым хранилищем хоста.
func (b *Book) RecordAttachment(itemID, url string) (models.MaterialItem, error) {
	url = strings.TrimSpace(url)
	if url == "" {
		return models.MaterialItem{}, apperror.Validation("attachment url is required")
	}
	jobID, ok := b.itemJob(itemID)
	if !ok {
		return models.MaterialItem{}, apperror.NotFound("item", itemID)
	}
	var out models.MaterialItem
	_, err := b.mutateJob(jobID, func(j *models.Job) error {
		kind, idx, found := j.FindItem(itemID)
		if !found {
			return apperror.NotFound("item", itemID)
		}
		if kind != models.KindMaterial {
			return apperror.Validation("attachments are only supported on material items")
		}
		j.Materials[idx].AttachmentURLs = append(j.Materials[idx].AttachmentURLs, url)
		j.Materials[idx].AttachmentCount++
		out = j.Materials[idx].Clone()
		return nil
	})
	return out, err
}

// ItemJob id работы, которой принадлежит позиция.
func (b *Book) ItemJob(itemID string) (string, error) {
	jobID, ok := b.itemJob(itemID)
	if !ok {
		return "", apperror.NotFound("item", itemID)
	}
	return jobID, nil
}

package estimate

import (
	"soq/internal/apperror"
	"soq/models"

	"github.com/shopspring/decimal"
)

func (b *Book) AddCategory(name string) (models.Category, error) {
	c, err := models.NewCategory(b.newID(), name)
	if err != nil {
		return models.Category{}, err
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if _, dup := b.categories[c.ID]; dup {
		return models.Category{}, apperror.Conflict("category %q already exists", c.ID)
	}
	b.categories[c.ID] = &categoryEntry{c: c}
	b.categoryOrder = append(b.categoryOrder, c.ID)
	return c.Clone(), nil
}

func (b *Book) RenameCategory(id, name string) (models.Category, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	ce, ok := b.categories[id]
	if !ok {
		return models.Category{}, apperror.NotFound("category", id)
	}
	ce.mu.Lock()
	defer ce.mu.Unlock()

	renamed, err := models.NewCategory(id, name)
	if err != nil {
		return models.Category{}, err
	}
	next := ce.c.Clone()
	next.Name = renamed.Name
	next.Version++
	ce.c = next
	return next.Clone(), nil
}

// RemoveCategory удаляет пустую категорию. Работы нужно перенести или удалить заранее.
func (b *Book) RemoveCategory(id string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	ce, ok := b.categories[id]
	if !ok {
		return apperror.NotFound("category", id)
	}
	if len(ce.c.JobIDs) > 0 {
		return apperror.Conflict("category %q still owns %d jobs", id, len(ce.c.JobIDs))
	}
	delete(b.categories, id)
	b.categoryOrder = models.RemoveID(b.categoryOrder, id)
	return nil
}

func (b *Book) Category(id string) (models.Category, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	ce, ok := b.categories[id]
	if !ok {
		return models.Category{}, apperror.NotFound("category", id)
	}
	ce.mu.Lock()
	defer ce.mu.Unlock()
	return ce.c.Clone(), nil
}

// Categories согласованный снимок дерева с итогами, посчитанными в момент чтения.
func (b *Book) Categories() []models.CategoryView {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.categoryViewsLocked()
}

// CategoryTotal сумма итогов работ категории.
func (b *Book) CategoryTotal(id string) (decimal.Decimal, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	ce, ok := b.categories[id]
	if !ok {
		return decimal.Zero, apperror.NotFound("category", id)
	}
	return b.categoryViewLocked(ce.c).Total, nil
}

// Search фильтрует снимок дерева по подстроке имени или jobId.
func (b *Book) Search(term string) []models.CategoryView {
	return Filter(b.Categories(), term)
}

func (b *Book) categoryViewsLocked() []models.CategoryView {
	views := make([]models.CategoryView, 0, len(b.categoryOrder))
	for _, id := range b.categoryOrder {
		views = append(views, b.categoryViewLocked(b.categories[id].c))
	}
	return views
}

func (b *Book) categoryViewLocked(c models.Category) models.CategoryView {
	jobs := make([]models.Job, 0, len(c.JobIDs))
	for _, jid := range c.JobIDs {
		if je, ok := b.jobs[jid]; ok {
			jobs = append(jobs, b.jobView(je.j))
		}
	}
	return models.NewCategoryView(c, jobs)
}

package estimate

import (
	"strings"

	"soq/models"
)

// Filter оставляет в каждой категории только работы, у которых имя или jobId
// содержат term без учёта регистра, и отбрасывает опустевшие категории.
// Входные данные не изменяются. Пустой term возвращает копию без фильтрации.
func Filter(categories []models.CategoryView, term string) []models.CategoryView {
	needle := strings.ToLower(strings.TrimSpace(term))
	out := make([]models.CategoryView, 0, len(categories))
	for _, c := range categories {
		jobs := make([]models.Job, 0, len(c.Jobs))
		for _, j := range c.Jobs {
			if needle == "" || matches(j, needle) {
				jobs = append(jobs, j.Clone())
			}
		}
		if needle != "" && len(jobs) == 0 {
			continue
		}
		out = append(out, models.NewCategoryView(models.Category{ID: c.ID, Name: c.Name}, jobs))
	}
	return out
}

func matches(j models.Job, needle string) bool {
	return strings.Contains(strings.ToLower(j.Name), needle) ||
		strings.Contains(strings.ToLower(j.JobID), needle)
}

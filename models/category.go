package models

import (
	"strings"

	"soq/internal/apperror"

	"github.com/shopspring/decimal"
)

// Сущность Категории. Своей стоимости нет, итог считается по работам.
// Version растёт с каждым изменением, как у тендера.
type Category struct {
	ID      string   `json:"id"`
	Name    string   `json:"name"`
	JobIDs  []string `json:"jobIds"`
	Version int      `json:"version"`
}

func NewCategory(id, name string) (Category, error) {
	c := Category{ID: id, Name: strings.TrimSpace(name), JobIDs: []string{}, Version: 1}
	if err := c.Validate(); err != nil {
		return Category{}, err
	}
	return c, nil
}

func (c Category) Validate() error {
	if c.ID == "" {
		return apperror.Validation("category id is required")
	}
	if c.Name == "" {
		return apperror.Validation("category name is required")
	}
	if len(c.Name) > 100 {
		return apperror.Validation("category name max length is 100")
	}
	return nil
}

func (c Category) HasJob(jobID string) bool {
	for _, id := range c.JobIDs {
		if id == jobID {
			return true
		}
	}
	return false
}

func (c Category) Clone() Category {
	c.JobIDs = append([]string{}, c.JobIDs...)
	return c
}

// CategoryView представление категории с работами и итогом на момент чтения.
type CategoryView struct {
	ID    string          `json:"id"`
	Name  string          `json:"name"`
	Jobs  []Job           `json:"jobs"`
	Total decimal.Decimal `json:"total"`
}

func NewCategoryView(c Category, jobs []Job) CategoryView {
	v := CategoryView{ID: c.ID, Name: c.Name, Jobs: jobs, Total: decimal.Zero}
	for _, j := range jobs {
		v.Total = v.Total.Add(j.TotalCost)
	}
	return v
}

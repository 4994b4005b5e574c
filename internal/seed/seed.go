// Package seed загружает демонстрационные категории и работы из YAML.
package seed

import (
	"fmt"
	"os"

	"soq/internal/estimate"
	"soq/models"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

// Числа задаются строками, чтобы не терять точность при разборе YAML.
type File struct {
	Categories []Category `yaml:"categories"`
}

type Category struct {
	Name string `yaml:"name"`
	Jobs []Job  `yaml:"jobs"`
}

type Job struct {
	JobID       string     `yaml:"jobId"`
	Name        string     `yaml:"name"`
	Description string     `yaml:"description"`
	Ready       bool       `yaml:"ready"`
	Materials   []Material `yaml:"materials"`
	Labor       []Labor    `yaml:"labor"`
}

type Material struct {
	Description       string `yaml:"description"`
	Unit              string `yaml:"unit"`
	EstimatedQuantity string `yaml:"estimatedQuantity"`
	UnitRate          string `yaml:"unitRate"`
	ProductLink       string `yaml:"productLink"`
}

type Labor struct {
	Description    string `yaml:"description"`
	EstimatedStaff string `yaml:"estimatedStaff"`
	EstimatedHours string `yaml:"estimatedHours"`
	HourlyRate     string `yaml:"hourlyRate"`
	Notes          string `yaml:"notes"`
}

func Load(path string) (File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return File{}, fmt.Errorf("read seed %s: %w", path, err)
	}
	return Parse(data)
}

func Parse(data []byte) (File, error) {
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return File{}, fmt.Errorf("parse seed: %w", err)
	}
	return f, nil
}

// Apply создаёт категории, работы и позиции через обычные операции Book,
// поэтому к данным применяются те же проверки.
func Apply(book *estimate.Book, f File) error {
	for _, c := range f.Categories {
		cat, err := book.AddCategory(c.Name)
		if err != nil {
			return fmt.Errorf("category %q: %w", c.Name, err)
		}
		for _, j := range c.Jobs {
			if err := applyJob(book, cat.ID, j); err != nil {
				return fmt.Errorf("job %q: %w", j.JobID, err)
			}
		}
	}
	return nil
}

func applyJob(book *estimate.Book, categoryID string, j Job) error {
	job, err := book.CreateJob(categoryID, models.JobInput{JobID: j.JobID, Name: j.Name, Description: j.Description})
	if err != nil {
		return err
	}
	for _, m := range j.Materials {
		in := models.MaterialInput{Description: m.Description, Unit: m.Unit, ProductLink: m.ProductLink}
		if in.EstimatedQuantity, err = number("estimatedQuantity", m.EstimatedQuantity); err != nil {
			return err
		}
		if in.UnitRate, err = number("unitRate", m.UnitRate); err != nil {
			return err
		}
		if _, err := book.AddMaterialItem(job.ID, in); err != nil {
			return err
		}
	}
	for _, l := range j.Labor {
		in := models.LaborInput{Description: l.Description, Notes: l.Notes}
		if in.EstimatedStaff, err = number("estimatedStaff", l.EstimatedStaff); err != nil {
			return err
		}
		if in.EstimatedHours, err = number("estimatedHours", l.EstimatedHours); err != nil {
			return err
		}
		if in.HourlyRate, err = number("hourlyRate", l.HourlyRate); err != nil {
			return err
		}
		if _, err := book.AddLaborItem(job.ID, in); err != nil {
			return err
		}
	}
	if j.Ready {
		if _, err := book.SetStatus(job.ID, models.JobReady); err != nil {
			return err
		}
	}
	return nil
}

func number(field, v string) (decimal.Decimal, error) {
	if v == "" {
		return decimal.Zero, nil
	}
	d, err := decimal.NewFromString(v)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%s: %w", field, err)
	}
	return d, nil
}

package models

import (
	"strings"

	"soq/internal/apperror"

	"github.com/shopspring/decimal"
)

type JobStatus string

const (
	JobDraft JobStatus = "draft"
	JobReady JobStatus = "ready"
)

func (s JobStatus) IsValid() bool {
	switch s {
	case JobDraft, JobReady:
		return true
	}
	return false
}

// Сущность Работы. TotalCost всегда производная от позиций.
type Job struct {
	ID               string          `json:"id"`
	JobID            string          `json:"jobId"`
	CategoryID       string          `json:"categoryId"`
	Name             string          `json:"name"`
	Description      string          `json:"description"`
	Materials        []MaterialItem  `json:"materials"`
	Labor            []LaborItem     `json:"labor"`
	Status           JobStatus       `json:"status"`
	IncludedInTender bool            `json:"includedInTender"`
	TotalCost        decimal.Decimal `json:"totalCost"`
	Version          int             `json:"version"`
}

type JobInput struct {
	JobID       string `json:"jobId"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

type JobPatch struct {
	JobID       *string `json:"jobId"`
	Name        *string `json:"name"`
	Description *string `json:"description"`
}

func NewJob(id, categoryID string, in JobInput) (Job, error) {
	j := Job{
		ID:          id,
		JobID:       strings.TrimSpace(in.JobID),
		CategoryID:  categoryID,
		Name:        strings.TrimSpace(in.Name),
		Description: strings.TrimSpace(in.Description),
		Materials:   []MaterialItem{},
		Labor:       []LaborItem{},
		Status:      JobDraft,
		TotalCost:   decimal.Zero,
		Version:     1,
	}
	if err := j.validateHeader(); err != nil {
		return Job{}, err
	}
	return j, nil
}

func (j Job) validateHeader() error {
	if j.ID == "" {
		return apperror.Validation("job id is required")
	}
	if j.Name == "" {
		return apperror.Validation("job name is required")
	}
	if len(j.Name) > 100 {
		return apperror.Validation("job name max length is 100")
	}
	if j.JobID == "" {
		return apperror.Validation("external jobId is required")
	}
	return nil
}

// Apply возвращает копию работы с обновлёнными реквизитами.
func (p JobPatch) Apply(j Job) (Job, error) {
	out := j.Clone()
	if p.JobID != nil {
		out.JobID = strings.TrimSpace(*p.JobID)
	}
	if p.Name != nil {
		out.Name = strings.TrimSpace(*p.Name)
	}
	if p.Description != nil {
		out.Description = strings.TrimSpace(*p.Description)
	}
	if err := out.validateHeader(); err != nil {
		return Job{}, err
	}
	return out, nil
}

// Validate проверяет работу целиком, включая позиции. Используется при загрузке из хранилища.
// Готовность не проверяется: это условие перехода draft→ready, а не состояния.
func (j Job) Validate() error {
	if err := j.validateHeader(); err != nil {
		return err
	}
	if !j.Status.IsValid() {
		return apperror.Validation("invalid job status %q", j.Status)
	}
	for _, m := range j.Materials {
		if err := m.Validate(); err != nil {
			return err
		}
	}
	for _, l := range j.Labor {
		if err := l.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// Recompute суммирует итоги позиций.
func (j *Job) Recompute() {
	total := decimal.Zero
	for i := range j.Materials {
		j.Materials[i].Recalculate()
		total = total.Add(j.Materials[i].TotalCost)
	}
	for i := range j.Labor {
		j.Labor[i].Recalculate()
		total = total.Add(j.Labor[i].TotalCost)
	}
	j.TotalCost = total
}

// EstimateTotal сметная стоимость работы без котировок подрядчика.
func (j Job) EstimateTotal() decimal.Decimal {
	total := decimal.Zero
	for _, m := range j.Materials {
		total = total.Add(m.EstimateTotal())
	}
	for _, l := range j.Labor {
		total = total.Add(l.EstimateTotal())
	}
	return total
}

func (j Job) ItemCount() int {
	return len(j.Materials) + len(j.Labor)
}

// ReadinessError nil, если работу можно перевести в ready.
func (j Job) ReadinessError() error {
	if j.ItemCount() == 0 {
		return apperror.Validation("job %q has no line items", j.ID)
	}
	for _, m := range j.Materials {
		if !m.IsPriced() {
			return apperror.Validation("material item %q needs a non-zero rate and quantity", m.ID)
		}
	}
	for _, l := range j.Labor {
		if !l.IsPriced() {
			return apperror.Validation("labor item %q needs a non-zero rate and hours", l.ID)
		}
	}
	return nil
}

// WithStatus проверяет правило draft↔ready. ready→draft разрешён всегда.
func (j Job) WithStatus(s JobStatus) (Job, error) {
	if !s.IsValid() {
		return Job{}, apperror.Validation("invalid job status %q", s)
	}
	if s == JobReady && j.Status != JobReady {
		if err := j.ReadinessError(); err != nil {
			return Job{}, err
		}
	}
	out := j.Clone()
	out.Status = s
	return out, nil
}

// FindItem возвращает вид позиции и её индекс.
func (j Job) FindItem(itemID string) (ItemKind, int, bool) {
	for i, m := range j.Materials {
		if m.ID == itemID {
			return KindMaterial, i, true
		}
	}
	for i, l := range j.Labor {
		if l.ID == itemID {
			return KindLabor, i, true
		}
	}
	return "", -1, false
}

func (j Job) ItemIDs() []string {
	ids := make([]string, 0, j.ItemCount())
	for _, m := range j.Materials {
		ids = append(ids, m.ID)
	}
	for _, l := range j.Labor {
		ids = append(ids, l.ID)
	}
	return ids
}

func (j Job) Clone() Job {
	out := j
	out.Materials = make([]MaterialItem, len(j.Materials))
	for i, m := range j.Materials {
		out.Materials[i] = m.Clone()
	}
	out.Labor = make([]LaborItem, len(j.Labor))
	for i, l := range j.Labor {
		out.Labor[i] = l.Clone()
	}
	return out
}

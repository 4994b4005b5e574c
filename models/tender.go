package models

import (
	"strings"
	"time"

	"soq/internal/apperror"
)

type (
	TenderStatus  string // Статус тендера
	TenderEvent   string // Событие жизненного цикла
	TenderPrivacy string // Видимость тендера
)

const (
	TenderDraft     TenderStatus = "draft"
	TenderSubmitted TenderStatus = "submitted"
	TenderAwarded   TenderStatus = "awarded"

	EventSubmit   TenderEvent = "submit"
	EventAward    TenderEvent = "award"
	EventWithdraw TenderEvent = "withdraw"

	// События редактирования, не меняющие статус.
	EventAddJob     TenderEvent = "add_job"
	EventRemoveJob  TenderEvent = "remove_job"
	EventSetPrivacy TenderEvent = "set_privacy"
	EventReschedule TenderEvent = "reschedule"
	EventDelete     TenderEvent = "delete"
	EventPropose    TenderEvent = "propose"
	EventRevise     TenderEvent = "revise_proposal"

	PrivacyPublic  TenderPrivacy = "public"
	PrivacyPrivate TenderPrivacy = "private"
)

var tenderTransitions = map[TenderStatus]map[TenderEvent]TenderStatus{
	TenderDraft:     {EventSubmit: TenderSubmitted},
	TenderSubmitted: {EventAward: TenderAwarded, EventWithdraw: TenderDraft},
	TenderAwarded:   {},
}

func (s TenderStatus) IsValid() bool {
	_, ok := tenderTransitions[s]
	return ok
}

func (s TenderStatus) IsTerminal() bool {
	return s.IsValid() && len(tenderTransitions[s]) == 0
}

// Next возвращает целевой статус для события или InvalidTransitionError.
func (s TenderStatus) Next(e TenderEvent) (TenderStatus, error) {
	to, ok := tenderTransitions[s][e]
	if !ok {
		return "", apperror.InvalidTransition(string(s), string(e))
	}
	return to, nil
}

// RequireDraft разрешает правки только в черновике. Присуждённый тендер заморожен.
func (t Tender) RequireDraft(e TenderEvent) error {
	switch t.Status {
	case TenderDraft:
		return nil
	case TenderAwarded:
		return apperror.Frozen("tender", t.ID)
	default:
		return apperror.InvalidTransition(string(t.Status), string(e))
	}
}

func (p TenderPrivacy) IsValid() bool {
	switch p {
	case PrivacyPublic, PrivacyPrivate:
		return true
	}
	return false
}

// Сущность Тендера. Работы хранятся только ссылками по id.
type Tender struct {
	ID          string        `json:"id"`
	Name        string        `json:"name"`
	Description string        `json:"description"`
	JobIDs      []string      `json:"jobIds"`
	Status      TenderStatus  `json:"status"`
	Privacy     TenderPrivacy `json:"privacy"`
	StartTime   time.Time     `json:"startTime"`
	EndTime     time.Time     `json:"endTime"`
	CreatedBy   string        `json:"createdBy,omitempty"`
	AwardedTo   string        `json:"awardedTo,omitempty"`
	SubmittedAt *time.Time    `json:"submittedAt,omitempty"`
	AwardedAt   *time.Time    `json:"awardedAt,omitempty"`
	Version     int           `json:"version"`
	CreatedAt   time.Time     `json:"createdAt"`
}

type TenderInput struct {
	Name        string        `json:"name"`
	Description string        `json:"description"`
	Privacy     TenderPrivacy `json:"privacy"`
	StartTime   time.Time     `json:"startTime"`
	EndTime     time.Time     `json:"endTime"`
}

func NewTender(id string, in TenderInput, jobIDs []string, createdBy string, now time.Time) (Tender, error) {
	t := Tender{
		ID:          id,
		Name:        strings.TrimSpace(in.Name),
		Description: strings.TrimSpace(in.Description),
		JobIDs:      uniqueIDs(jobIDs),
		Status:      TenderDraft,
		Privacy:     in.Privacy,
		StartTime:   in.StartTime,
		EndTime:     in.EndTime,
		CreatedBy:   createdBy,
		Version:     1,
		CreatedAt:   now,
	}
	if t.Privacy == "" {
		t.Privacy = PrivacyPublic
	}
	if err := t.Validate(); err != nil {
		return Tender{}, err
	}
	return t, nil
}

func (t Tender) Validate() error {
	if t.ID == "" {
		return apperror.Validation("tender id is required")
	}
	if t.Name == "" || len(t.Name) > 100 {
		return apperror.Validation("name is required and max length 100")
	}
	if len(t.Description) > 500 {
		return apperror.Validation("description max length is 500")
	}
	if !t.Status.IsValid() {
		return apperror.Validation("invalid tender status %q", t.Status)
	}
	if !t.Privacy.IsValid() {
		return apperror.Validation("invalid privacy %q", t.Privacy)
	}
	return ValidateWindow(t.StartTime, t.EndTime)
}

func ValidateWindow(start, end time.Time) error {
	if start.IsZero() || end.IsZero() {
		return apperror.Validation("startTime and endTime are required")
	}
	if !end.After(start) {
		return apperror.Validation("endTime must be after startTime")
	}
	return nil
}

// InWindow true, если момент попадает в окно приёма предложений.
func (t Tender) InWindow(at time.Time) bool {
	return !at.Before(t.StartTime) && !at.After(t.EndTime)
}

func (t Tender) HasJob(jobID string) bool {
	for _, id := range t.JobIDs {
		if id == jobID {
			return true
		}
	}
	return false
}

func (t Tender) Clone() Tender {
	out := t
	out.JobIDs = append([]string{}, t.JobIDs...)
	if t.SubmittedAt != nil {
		at := *t.SubmittedAt
		out.SubmittedAt = &at
	}
	if t.AwardedAt != nil {
		at := *t.AwardedAt
		out.AwardedAt = &at
	}
	return out
}

func uniqueIDs(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

func RemoveID(ids []string, id string) []string {
	out := make([]string, 0, len(ids))
	for _, v := range ids {
		if v != id {
			out = append(out, v)
		}
	}
	return out
}

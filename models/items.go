package models

import (
	"strings"

	"soq/internal/apperror"

	"github.com/shopspring/decimal"
)

type ItemKind string

const (
	KindMaterial ItemKind = "material"
	KindLabor    ItemKind = "labor"
)

func (k ItemKind) IsValid() bool {
	switch k {
	case KindMaterial, KindLabor:
		return true
	}
	return false
}

// Материальная позиция сметы
type MaterialItem struct {
	ID                string           `json:"id"`
	Description       string           `json:"description"`
	Unit              string           `json:"unit"`
	EstimatedQuantity decimal.Decimal  `json:"estimatedQuantity"`
	BidderQuantity    *decimal.Decimal `json:"bidderQuantity,omitempty"`
	UnitRate          decimal.Decimal  `json:"unitRate"`
	TotalCost         decimal.Decimal  `json:"totalCost"`
	AttachmentCount   int              `json:"attachmentCount"`
	AttachmentURLs    []string         `json:"attachmentUrls,omitempty"`
	ProductLink       string           `json:"productLink,omitempty"`
}

type MaterialInput struct {
	Description       string           `json:"description"`
	Unit              string           `json:"unit"`
	EstimatedQuantity decimal.Decimal  `json:"estimatedQuantity"`
	BidderQuantity    *decimal.Decimal `json:"bidderQuantity"`
	UnitRate          decimal.Decimal  `json:"unitRate"`
	ProductLink       string           `json:"productLink"`
}

func NewMaterialItem(id string, in MaterialInput) (MaterialItem, error) {
	m := MaterialItem{
		ID:                id,
		Description:       strings.TrimSpace(in.Description),
		Unit:              strings.TrimSpace(in.Unit),
		EstimatedQuantity: in.EstimatedQuantity,
		BidderQuantity:    copyDecimal(in.BidderQuantity),
		UnitRate:          in.UnitRate,
		ProductLink:       strings.TrimSpace(in.ProductLink),
	}
	if err := m.Validate(); err != nil {
		return MaterialItem{}, err
	}
	m.Recalculate()
	return m, nil
}

func (m MaterialItem) Validate() error {
	if m.ID == "" {
		return apperror.Validation("material item id is required")
	}
	if m.Description == "" {
		return apperror.Validation("material item description is required")
	}
	if err := nonNegative("estimatedQuantity", m.EstimatedQuantity); err != nil {
		return err
	}
	if m.BidderQuantity != nil {
		if err := nonNegative("bidderQuantity", *m.BidderQuantity); err != nil {
			return err
		}
	}
	if m.AttachmentCount < 0 {
		return apperror.Validation("attachmentCount must be >= 0")
	}
	return nonNegative("unitRate", m.UnitRate)
}

// Recalculate пересчитывает TotalCost: количество подрядчика, если оно есть, иначе сметное.
func (m *MaterialItem) Recalculate() {
	qty := m.EstimatedQuantity
	if m.BidderQuantity != nil {
		qty = *m.BidderQuantity
	}
	m.TotalCost = qty.Mul(m.UnitRate)
}

// EstimateTotal сметная стоимость без учёта котировки подрядчика.
func (m MaterialItem) EstimateTotal() decimal.Decimal {
	return m.EstimatedQuantity.Mul(m.UnitRate)
}

func (m MaterialItem) IsPriced() bool {
	if m.UnitRate.IsZero() {
		return false
	}
	return !m.EstimatedQuantity.IsZero() || (m.BidderQuantity != nil && !m.BidderQuantity.IsZero())
}

func (m MaterialItem) Clone() MaterialItem {
	m.BidderQuantity = copyDecimal(m.BidderQuantity)
	m.AttachmentURLs = append([]string(nil), m.AttachmentURLs...)
	return m
}

// Трудовая позиция сметы
type LaborItem struct {
	ID             string           `json:"id"`
	Description    string           `json:"description"`
	EstimatedStaff decimal.Decimal  `json:"estimatedStaff"`
	BidderStaff    *decimal.Decimal `json:"bidderStaff,omitempty"`
	EstimatedHours decimal.Decimal  `json:"estimatedHours"`
	BidderHours    *decimal.Decimal `json:"bidderHours,omitempty"`
	HourlyRate     decimal.Decimal  `json:"hourlyRate"`
	TotalCost      decimal.Decimal  `json:"totalCost"`
	Notes          string           `json:"notes,omitempty"`
}

type LaborInput struct {
	Description    string           `json:"description"`
	EstimatedStaff decimal.Decimal  `json:"estimatedStaff"`
	BidderStaff    *decimal.Decimal `json:"bidderStaff"`
	EstimatedHours decimal.Decimal  `json:"estimatedHours"`
	BidderHours    *decimal.Decimal `json:"bidderHours"`
	HourlyRate     decimal.Decimal  `json:"hourlyRate"`
	Notes          string           `json:"notes"`
}

func NewLaborItem(id string, in LaborInput) (LaborItem, error) {
	l := LaborItem{
		ID:             id,
		Description:    strings.TrimSpace(in.Description),
		EstimatedStaff: in.EstimatedStaff,
		BidderStaff:    copyDecimal(in.BidderStaff),
		EstimatedHours: in.EstimatedHours,
		BidderHours:    copyDecimal(in.BidderHours),
		HourlyRate:     in.HourlyRate,
		Notes:          strings.TrimSpace(in.Notes),
	}
	if err := l.Validate(); err != nil {
		return LaborItem{}, err
	}
	l.Recalculate()
	return l, nil
}

func (l LaborItem) Validate() error {
	if l.ID == "" {
		return apperror.Validation("labor item id is required")
	}
	if l.Description == "" {
		return apperror.Validation("labor item description is required")
	}
	checks := []struct {
		field string
		value *decimal.Decimal
	}{
		{"estimatedStaff", &l.EstimatedStaff},
		{"bidderStaff", l.BidderStaff},
		{"estimatedHours", &l.EstimatedHours},
		{"bidderHours", l.BidderHours},
		{"hourlyRate", &l.HourlyRate},
	}
	for _, c := range checks {
		if c.value == nil {
			continue
		}
		if err := nonNegative(c.field, *c.value); err != nil {
			return err
		}
	}
	return nil
}

// HasBidderQuote true, когда подрядчик указал и людей, и часы.
func (l LaborItem) HasBidderQuote() bool {
	return l.BidderStaff != nil && l.BidderHours != nil
}

func (l *LaborItem) Recalculate() {
	if l.HasBidderQuote() {
		l.TotalCost = l.BidderStaff.Mul(*l.BidderHours).Mul(l.HourlyRate)
		return
	}
	l.TotalCost = l.EstimateTotal()
}

func (l LaborItem) EstimateTotal() decimal.Decimal {
	return l.EstimatedStaff.Mul(l.EstimatedHours).Mul(l.HourlyRate)
}

// EstimatedManHours сметная трудоёмкость (люди × часы).
func (l LaborItem) EstimatedManHours() decimal.Decimal {
	return l.EstimatedStaff.Mul(l.EstimatedHours)
}

func (l LaborItem) IsPriced() bool {
	if l.HourlyRate.IsZero() {
		return false
	}
	if !l.EstimatedHours.IsZero() {
		return true
	}
	return l.BidderHours != nil && !l.BidderHours.IsZero()
}

func (l LaborItem) Clone() LaborItem {
	l.BidderStaff = copyDecimal(l.BidderStaff)
	l.BidderHours = copyDecimal(l.BidderHours)
	return l
}

// ItemPatch частичное обновление позиции. Поля, не относящиеся к виду позиции,
// отклоняются с ValidationError.
type ItemPatch struct {
	Description       *string          `json:"description"`
	Unit              *string          `json:"unit"`
	EstimatedQuantity *decimal.Decimal `json:"estimatedQuantity"`
	BidderQuantity    *decimal.Decimal `json:"bidderQuantity"`
	UnitRate          *decimal.Decimal `json:"unitRate"`
	ProductLink       *string          `json:"productLink"`
	EstimatedStaff    *decimal.Decimal `json:"estimatedStaff"`
	BidderStaff       *decimal.Decimal `json:"bidderStaff"`
	EstimatedHours    *decimal.Decimal `json:"estimatedHours"`
	BidderHours       *decimal.Decimal `json:"bidderHours"`
	HourlyRate        *decimal.Decimal `json:"hourlyRate"`
	Notes             *string          `json:"notes"`
	ClearBidderQuote  bool             `json:"clearBidderQuote"`
}

func (p ItemPatch) touchesLabor() bool {
	return p.EstimatedStaff != nil || p.BidderStaff != nil || p.EstimatedHours != nil ||
		p.BidderHours != nil || p.HourlyRate != nil || p.Notes != nil
}

func (p ItemPatch) touchesMaterial() bool {
	return p.Unit != nil || p.EstimatedQuantity != nil || p.BidderQuantity != nil ||
		p.UnitRate != nil || p.ProductLink != nil
}

// ApplyMaterial возвращает обновлённую копию позиции; исходная не меняется.
func (p ItemPatch) ApplyMaterial(m MaterialItem) (MaterialItem, error) {
	if p.touchesLabor() {
		return MaterialItem{}, apperror.Validation("labor fields cannot be set on material item %q", m.ID)
	}
	out := m.Clone()
	if p.Description != nil {
		out.Description = strings.TrimSpace(*p.Description)
	}
	if p.Unit != nil {
		out.Unit = strings.TrimSpace(*p.Unit)
	}
	if p.EstimatedQuantity != nil {
		out.EstimatedQuantity = *p.EstimatedQuantity
	}
	if p.ClearBidderQuote {
		out.BidderQuantity = nil
	}
	if p.BidderQuantity != nil {
		out.BidderQuantity = copyDecimal(p.BidderQuantity)
	}
	if p.UnitRate != nil {
		out.UnitRate = *p.UnitRate
	}
	if p.ProductLink != nil {
		out.ProductLink = strings.TrimSpace(*p.ProductLink)
	}
	if err := out.Validate(); err != nil {
		return MaterialItem{}, err
	}
	out.Recalculate()
	return out, nil
}

func (p ItemPatch) ApplyLabor(l LaborItem) (LaborItem, error) {
	if p.touchesMaterial() {
		return LaborItem{}, apperror.Validation("material fields cannot be set on labor item %q", l.ID)
	}
	out := l.Clone()
	if p.Description != nil {
		out.Description = strings.TrimSpace(*p.Description)
	}
	if p.EstimatedStaff != nil {
		out.EstimatedStaff = *p.EstimatedStaff
	}
	if p.EstimatedHours != nil {
		out.EstimatedHours = *p.EstimatedHours
	}
	if p.ClearBidderQuote {
		out.BidderStaff = nil
		out.BidderHours = nil
	}
	if p.BidderStaff != nil {
		out.BidderStaff = copyDecimal(p.BidderStaff)
	}
	if p.BidderHours != nil {
		out.BidderHours = copyDecimal(p.BidderHours)
	}
	if p.HourlyRate != nil {
		out.HourlyRate = *p.HourlyRate
	}
	if p.Notes != nil {
		out.Notes = strings.TrimSpace(*p.Notes)
	}
	if err := out.Validate(); err != nil {
		return LaborItem{}, err
	}
	out.Recalculate()
	return out, nil
}

func nonNegative(field string, v decimal.Decimal) error {
	if v.IsNegative() {
		return apperror.Validation("%s must be >= 0, got %s", field, v.String())
	}
	return nil
}

func copyDecimal(d *decimal.Decimal) *decimal.Decimal {
	if d == nil {
		return nil
	}
	v := *d
	return &v
}

package models

import (
	"strings"
	"time"

	"soq/internal/apperror"

	"github.com/shopspring/decimal"
)

// ProposalItem котировка подрядчика по позиции сметы с тем же id.
// Для материалов используется Quantity, для труда Staff и Hours.
type ProposalItem struct {
	ItemID     string          `json:"itemId"`
	Kind       ItemKind        `json:"kind"`
	Quantity   decimal.Decimal `json:"quantity"`
	Staff      decimal.Decimal `json:"staff"`
	Hours      decimal.Decimal `json:"hours"`
	Rate       decimal.Decimal `json:"rate"`
	TotalPrice decimal.Decimal `json:"totalPrice"`
}

func (p ProposalItem) Validate() error {
	if p.ItemID == "" {
		return apperror.Validation("proposal item id is required")
	}
	if !p.Kind.IsValid() {
		return apperror.Validation("proposal item %q has invalid kind %q", p.ItemID, p.Kind)
	}
	fields := []struct {
		name  string
		value decimal.Decimal
	}{
		{"quantity", p.Quantity}, {"staff", p.Staff}, {"hours", p.Hours}, {"rate", p.Rate},
	}
	for _, f := range fields {
		if err := nonNegative(f.name, f.value); err != nil {
			return err
		}
	}
	return nil
}

// ManHours трудоёмкость котировки (только для труда).
func (p ProposalItem) ManHours() decimal.Decimal {
	return p.Staff.Mul(p.Hours)
}

func (p *ProposalItem) Recalculate() {
	if p.Kind == KindLabor {
		p.TotalPrice = p.ManHours().Mul(p.Rate)
		return
	}
	p.TotalPrice = p.Quantity.Mul(p.Rate)
}

// Сущность Предложения подрядчика
type BidderProposal struct {
	ID                string          `json:"id"`
	TenderID          string          `json:"tenderId"`
	BidderName        string          `json:"bidderName"`
	EstimatedCost     decimal.Decimal `json:"estimatedCost"`
	EstimatedDuration int             `json:"estimatedDuration"` // в днях
	Items             []ProposalItem  `json:"items"`
	SubmittedBy       string          `json:"submittedBy,omitempty"`
	SubmittedAt       time.Time       `json:"submittedAt"`
	Seq               int             `json:"seq"`
	Version           int             `json:"version"`
}

type ProposalInput struct {
	BidderName        string          `json:"bidderName"`
	EstimatedCost     decimal.Decimal `json:"estimatedCost"`
	EstimatedDuration int             `json:"estimatedDuration"`
	Items             []ProposalItem  `json:"items"`
}

func NewBidderProposal(id, tenderID string, in ProposalInput, submittedBy string, now time.Time, seq int) (BidderProposal, error) {
	p := BidderProposal{
		ID:                id,
		TenderID:          tenderID,
		BidderName:        strings.TrimSpace(in.BidderName),
		EstimatedCost:     in.EstimatedCost,
		EstimatedDuration: in.EstimatedDuration,
		Items:             append([]ProposalItem{}, in.Items...),
		SubmittedBy:       submittedBy,
		SubmittedAt:       now,
		Seq:               seq,
		Version:           1,
	}
	if err := p.Validate(); err != nil {
		return BidderProposal{}, err
	}
	p.Recalculate()
	return p, nil
}

func (p BidderProposal) Validate() error {
	if p.ID == "" || p.TenderID == "" {
		return apperror.Validation("proposal id and tenderId are required")
	}
	if p.BidderName == "" || len(p.BidderName) > 100 {
		return apperror.Validation("bidderName is required and max length 100")
	}
	if err := nonNegative("estimatedCost", p.EstimatedCost); err != nil {
		return err
	}
	if p.EstimatedDuration < 0 {
		return apperror.Validation("estimatedDuration must be >= 0")
	}
	seen := make(map[string]struct{}, len(p.Items))
	for _, it := range p.Items {
		if err := it.Validate(); err != nil {
			return err
		}
		if _, dup := seen[it.ItemID]; dup {
			return apperror.Validation("item %q is quoted twice", it.ItemID)
		}
		seen[it.ItemID] = struct{}{}
	}
	return nil
}

func (p *BidderProposal) Recalculate() {
	for i := range p.Items {
		p.Items[i].Recalculate()
	}
}

// QuotedTotal сумма TotalPrice по всем котировкам предложения.
func (p BidderProposal) QuotedTotal() decimal.Decimal {
	total := decimal.Zero
	for _, it := range p.Items {
		total = total.Add(it.TotalPrice)
	}
	return total
}

func (p BidderProposal) Clone() BidderProposal {
	p.Items = append([]ProposalItem{}, p.Items...)
	return p
}

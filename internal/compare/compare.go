// Package compare сравнивает предложения подрядчиков со сметой заказчика.
package compare

import (
	"sort"

	"soq/internal/apperror"
	"soq/models"

	"github.com/shopspring/decimal"
)

// PctPrecision число знаков после запятой для относительных отклонений.
const PctPrecision = 6

type Side string

const (
	SideEstimate Side = "estimate" // позиция сметы без котировки
	SideBid      Side = "bid"      // котировка без позиции в смете
)

type ItemVariance struct {
	JobID             string          `json:"jobId"`
	ItemID            string          `json:"itemId"`
	Kind              models.ItemKind `json:"kind"`
	Description       string          `json:"description"`
	EstimatedQuantity decimal.Decimal `json:"estimatedQuantity"`
	BidderQuantity    decimal.Decimal `json:"bidderQuantity"`
	QuantityVariance  decimal.Decimal `json:"quantityVariance"`
	StaffVariance     decimal.Decimal `json:"staffVariance"`
	HoursVariance     decimal.Decimal `json:"hoursVariance"`
	EstimatedTotal    decimal.Decimal `json:"estimatedTotal"`
	BidderTotal       decimal.Decimal `json:"bidderTotal"`
	CostVariance      decimal.Decimal `json:"costVariance"`
	CostVariancePct   decimal.Decimal `json:"costVariancePct"`
}

type UnmatchedItem struct {
	JobID  string          `json:"jobId,omitempty"`
	ItemID string          `json:"itemId"`
	Kind   models.ItemKind `json:"kind"`
	Side   Side            `json:"side"`
}

type BidderResult struct {
	Rank                 int             `json:"rank"`
	ProposalID           string          `json:"proposalId"`
	BidderName           string          `json:"bidderName"`
	Seq                  int             `json:"seq"`
	EstimatedCost        decimal.Decimal `json:"estimatedCost"`
	EstimatedDuration    int             `json:"estimatedDuration"`
	Items                []ItemVariance  `json:"items"`
	Unmatched            []UnmatchedItem `json:"unmatched"`
	AggregateCost        decimal.Decimal `json:"aggregateCost"`
	AggregateEstimate    decimal.Decimal `json:"aggregateEstimate"`
	AggregateVariance    decimal.Decimal `json:"aggregateVariance"`
	AggregateVariancePct decimal.Decimal `json:"aggregateVariancePct"`
}

type Result struct {
	TenderID      string              `json:"tenderId"`
	TenderName    string              `json:"tenderName"`
	Status        models.TenderStatus `json:"status"`
	AwardedTo     string              `json:"awardedTo,omitempty"`
	EstimateTotal decimal.Decimal     `json:"estimateTotal"`
	Bidders       []BidderResult      `json:"bidders"`
}

// estimateLine позиция сметы в порядке тендера.
type estimateLine struct {
	jobID    string
	kind     models.ItemKind
	material models.MaterialItem
	labor    models.LaborItem
}

func (l estimateLine) itemID() string {
	if l.kind == models.KindMaterial {
		return l.material.ID
	}
	return l.labor.ID
}

// Run считает отклонения и ранжирует подрядчиков. Ничего не изменяет, при
// одинаковых входных данных результат одинаков.
func Run(tender models.Tender, jobs []models.Job, proposals []models.BidderProposal) (Result, error) {
	if tender.Status == models.TenderDraft {
		return Result{}, apperror.Validation("tender %q must be submitted before comparison", tender.ID)
	}
	byID := make(map[string]models.Job, len(jobs))
	for _, j := range jobs {
		byID[j.ID] = j
	}

	var lines []estimateLine
	res := Result{
		TenderID:      tender.ID,
		TenderName:    tender.Name,
		Status:        tender.Status,
		AwardedTo:     tender.AwardedTo,
		EstimateTotal: decimal.Zero,
		Bidders:       make([]BidderResult, 0, len(proposals)),
	}
	for _, jid := range tender.JobIDs {
		j, ok := byID[jid]
		if !ok {
			return Result{}, apperror.NotFound("job", jid)
		}
		for _, m := range j.Materials {
			lines = append(lines, estimateLine{jobID: jid, kind: models.KindMaterial, material: m})
		}
		for _, l := range j.Labor {
			lines = append(lines, estimateLine{jobID: jid, kind: models.KindLabor, labor: l})
		}
		res.EstimateTotal = res.EstimateTotal.Add(j.EstimateTotal())
	}

	for _, p := range proposals {
		if p.TenderID != tender.ID {
			return Result{}, apperror.Validation("proposal %q belongs to tender %q", p.ID, p.TenderID)
		}
		res.Bidders = append(res.Bidders, compareProposal(lines, p))
	}
	rank(res.Bidders)
	return res, nil
}

func compareProposal(lines []estimateLine, p models.BidderProposal) BidderResult {
	quotes := make(map[string]models.ProposalItem, len(p.Items))
	for _, it := range p.Items {
		quotes[it.ItemID] = it
	}

	br := BidderResult{
		ProposalID:        p.ID,
		BidderName:        p.BidderName,
		Seq:               p.Seq,
		EstimatedCost:     p.EstimatedCost,
		EstimatedDuration: p.EstimatedDuration,
		Items:             []ItemVariance{},
		Unmatched:         []UnmatchedItem{},
		AggregateCost:     decimal.Zero,
		AggregateEstimate: decimal.Zero,
	}
	matched := make(map[string]struct{}, len(lines))
	for _, line := range lines {
		q, ok := quotes[line.itemID()]
		if !ok || q.Kind != line.kind {
			br.Unmatched = append(br.Unmatched, UnmatchedItem{
				JobID: line.jobID, ItemID: line.itemID(), Kind: line.kind, Side: SideEstimate,
			})
			continue
		}
		matched[q.ItemID] = struct{}{}
		v := variance(line, q)
		br.Items = append(br.Items, v)
		br.AggregateCost = br.AggregateCost.Add(v.BidderTotal)
		br.AggregateEstimate = br.AggregateEstimate.Add(v.EstimatedTotal)
	}
	for _, it := range p.Items {
		if _, ok := matched[it.ItemID]; !ok {
			br.Unmatched = append(br.Unmatched, UnmatchedItem{ItemID: it.ItemID, Kind: it.Kind, Side: SideBid})
		}
	}
	br.AggregateVariance = br.AggregateCost.Sub(br.AggregateEstimate)
	br.AggregateVariancePct = pct(br.AggregateVariance, br.AggregateEstimate)
	return br
}

func variance(line estimateLine, q models.ProposalItem) ItemVariance {
	v := ItemVariance{
		JobID:         line.jobID,
		ItemID:        q.ItemID,
		Kind:          line.kind,
		StaffVariance: decimal.Zero,
		HoursVariance: decimal.Zero,
	}
	q.Recalculate()
	if line.kind == models.KindMaterial {
		m := line.material
		v.Description = m.Description
		v.EstimatedQuantity = m.EstimatedQuantity
		v.BidderQuantity = q.Quantity
		v.EstimatedTotal = m.EstimateTotal()
	} else {
		l := line.labor
		v.Description = l.Description
		v.EstimatedQuantity = l.EstimatedManHours()
		v.BidderQuantity = q.ManHours()
		v.StaffVariance = q.Staff.Sub(l.EstimatedStaff)
		v.HoursVariance = q.Hours.Sub(l.EstimatedHours)
		v.EstimatedTotal = l.EstimateTotal()
	}
	v.QuantityVariance = v.BidderQuantity.Sub(v.EstimatedQuantity)
	v.BidderTotal = q.TotalPrice
	v.CostVariance = v.BidderTotal.Sub(v.EstimatedTotal)
	v.CostVariancePct = pct(v.CostVariance, v.EstimatedTotal)
	return v
}

// pct относительное отклонение; 0, если база равна нулю.
func pct(delta, base decimal.Decimal) decimal.Decimal {
	if base.IsZero() {
		return decimal.Zero
	}
	return delta.DivRound(base, PctPrecision)
}

// rank: по возрастанию суммы, затем срока, затем порядка подачи.
func rank(bs []BidderResult) {
	sort.SliceStable(bs, func(i, j int) bool {
		a, b := bs[i], bs[j]
		if c := a.AggregateCost.Cmp(b.AggregateCost); c != 0 {
			return c < 0
		}
		if a.EstimatedDuration != b.EstimatedDuration {
			return a.EstimatedDuration < b.EstimatedDuration
		}
		if a.Seq != b.Seq {
			return a.Seq < b.Seq
		}
		return a.BidderName < b.BidderName
	})
	for i := range bs {
		bs[i].Rank = i + 1
	}
}

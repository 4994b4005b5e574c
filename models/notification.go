package models

import "time"

type NotificationKind string

const (
	NotifyTenderCreated      NotificationKind = "tender.created"
	NotifyTenderSubmitted    NotificationKind = "tender.submitted"
	NotifyTenderWithdrawn    NotificationKind = "tender.withdrawn"
	NotifyTenderAwarded      NotificationKind = "tender.awarded"
	NotifyTenderWindowOpened NotificationKind = "tender.window_opened"
	NotifyTenderWindowClosed NotificationKind = "tender.window_closed"
	NotifyProposalReceived   NotificationKind = "proposal.received"
	NotifyProposalRevised    NotificationKind = "proposal.revised"
)

// Notification описание события для диспетчера уведомлений. Доставку выполняет хост.
type Notification struct {
	Kind       NotificationKind `json:"kind"`
	TenderID   string           `json:"tenderId"`
	Private    bool             `json:"private"`
	Recipients []string         `json:"recipients"`
	Subject    string           `json:"subject,omitempty"`
	Body       string           `json:"body"`
	At         time.Time        `json:"at"`
}

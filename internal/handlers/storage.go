package handlers

import (
	"context"

	"soq/models"
)

// StorageInterface долговременное хранение сущностей по id. Реализуется db.Storage.
//
// Save* принимают запись, только если её Version больше сохранённой, поэтому
// запоздавший старый снимок не затирает более свежий. Операции над несколькими
// сущностями выполняются одной транзакцией.
type StorageInterface interface {
	SaveCategory(ctx context.Context, c models.Category) error
	DeleteCategory(ctx context.Context, id string) error

	SaveJob(ctx context.Context, j models.Job) error
	SaveJobPlacement(ctx context.Context, j models.Job, categories ...models.Category) error
	DeleteJob(ctx context.Context, id string, category *models.Category, pruned []models.Tender) error

	SaveTender(ctx context.Context, t models.Tender) error
	DeleteTender(ctx context.Context, id string) error
	GetTenderVersion(ctx context.Context, tenderID string, version int) (*models.Tender, error)

	SaveProposal(ctx context.Context, p models.BidderProposal) error
}

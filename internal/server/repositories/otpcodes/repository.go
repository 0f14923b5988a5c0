package otpcodes

import (
	"context"
	"time"

	"github.com/sapatil2212/CMS-SYSTEM-sub003/internal/server/models"
)

type Repository interface {
	Create(ctx context.Context, code *models.OneTimeCode) (*models.OneTimeCode, error)
	FindValid(ctx context.Context, owner models.OwnerKey, purpose models.Purpose, code string, now time.Time) (*models.OneTimeCode, error)
	LatestCreatedAt(ctx context.Context, owner models.OwnerKey, purpose models.Purpose) (time.Time, error)
	DeleteByOwner(ctx context.Context, owner models.OwnerKey, purpose models.Purpose) error
	DeleteByID(ctx context.Context, id string) error
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}

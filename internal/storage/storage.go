package storage

import (
	"errors"
	"time"

	"github.com/martinsuchenak/netgen/internal/model"
)

var (
	ErrPlanNotFound = errors.New("plan not found")
	ErrInvalidID    = errors.New("invalid plan ID")
)

// PlanStore defines the interface for plan history storage. Plans are
// immutable once saved; history only grows, gets pruned or deleted.
type PlanStore interface {
	SavePlan(plan *model.Plan) error
	GetPlan(id string) (*model.Plan, error)
	FindPlanByDigest(digest string) (*model.Plan, error)
	ListPlans(filter *model.PlanFilter) ([]model.Plan, error)
	DeletePlan(id string) error
	PrunePlans(olderThan time.Time) (int, error)
	CountPlans() (int, error)
	Close() error
}

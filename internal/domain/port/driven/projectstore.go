package driven

import (
	"context"

	"github.com/ericfisherdev/timeguru/internal/domain/model"
)

// ProjectStore defines the driven port for cached projects.
type ProjectStore interface {
	UpsertProjects(ctx context.Context, accountID int64, projects []model.Project) error
	ListProjects(ctx context.Context, accountID int64) ([]model.Project, error)
	GetProject(ctx context.Context, accountID, projectID int64) (*model.Project, error)
}

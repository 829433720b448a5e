package port

import (
	"context"

	"github.com/fiapx/fiapx-frametype-service/internal/domain/entity"
	"github.com/google/uuid"
)

type JobRepository interface {
	Create(ctx context.Context, job *entity.AnalysisJob) error
	Update(ctx context.Context, job *entity.AnalysisJob) error
	FindByID(ctx context.Context, id uuid.UUID) (*entity.AnalysisJob, error)
	// Delete drops a job once its final result has been published.
	Delete(ctx context.Context, id uuid.UUID) error
}

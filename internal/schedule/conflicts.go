package schedule

import (
	"context"

	"github.com/sysu-ecnc-dev/field-scheduler/backend/internal/domain"
)

// ListConflicts 返回尚未解决的冲突，最新的在前
func (s *Service) ListConflicts(ctx context.Context) ([]*domain.ScheduleConflict, error) {
	conflicts, err := s.conflicts.ListUnresolvedConflicts(ctx)
	if err != nil {
		return nil, s.storeFailure("查询冲突", err)
	}
	if conflicts == nil {
		conflicts = []*domain.ScheduleConflict{}
	}
	return conflicts, nil
}

func (s *Service) ResolveConflict(ctx context.Context, id string, actor string) error {
	if actor == "" {
		return domain.ErrActorRequired
	}

	if err := s.conflicts.ResolveConflict(ctx, id, actor, s.now()); err != nil {
		return s.storeFailure("解决冲突", err)
	}

	s.opts.Logger.Info("冲突已解决", "id", id, "actor", actor)
	return nil
}

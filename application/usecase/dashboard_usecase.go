package usecase

import (
	"context"

	"github.com/chtmcooks/auth-service/application/port/inbound"
	"github.com/chtmcooks/auth-service/application/port/outbound"
	"github.com/chtmcooks/auth-service/domain/entity"
	"github.com/chtmcooks/auth-service/infrastructure/service/logger"
)

type DashboardUseCase struct {
	userRepository outbound.UserRepository
	logger         logger.Logger
}

func NewDashboardUseCase(userRepo outbound.UserRepository, log logger.Logger) *DashboardUseCase {
	return &DashboardUseCase{userRepository: userRepo, logger: log}
}

// Overview lists every account without credentials plus per-role counts.
func (uc *DashboardUseCase) Overview(ctx context.Context) (*inbound.SystemOverview, error) {
	users, err := uc.userRepository.List(ctx)
	if err != nil {
		return nil, storeFailure(ctx, uc.logger, "list users", err, nil)
	}

	overview := &inbound.SystemOverview{
		TotalUsers: len(users),
		Users:      make([]inbound.UserResponse, 0, len(users)),
	}
	for _, u := range users {
		overview.Users = append(overview.Users, toUserResponse(u))
		switch u.Role {
		case entity.RoleStudent:
			overview.SystemStats.Students++
		case entity.RoleAdvisor:
			overview.SystemStats.Advisors++
		case entity.RoleConsultant:
			overview.SystemStats.Consultants++
		}
	}
	return overview, nil
}

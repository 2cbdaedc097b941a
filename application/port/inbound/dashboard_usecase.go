package inbound

import "context"

type RoleStats struct {
	Students    int `json:"students"`
	Advisors    int `json:"advisors"`
	Consultants int `json:"consultants"`
}

type SystemOverview struct {
	TotalUsers  int            `json:"totalUsers"`
	Users       []UserResponse `json:"users"`
	SystemStats RoleStats      `json:"systemStats"`
}

type DashboardUseCase interface {
	Overview(ctx context.Context) (*SystemOverview, error)
}

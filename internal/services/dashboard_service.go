package services

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
	"workspace-service/internal/clients"
	"workspace-service/internal/models"
)

// UsageProvider supplies listing/booking figures from the marketplace
// service. A nil provider degrades those figures to zero.
type UsageProvider interface {
	GetWorkspaceUsage(ctx context.Context, workspaceID uuid.UUID) (*clients.WorkspaceUsage, error)
}

// DashboardService composes the workspace dashboard read-model
type DashboardService struct {
	workspaceRepo  WorkspaceStore
	membershipRepo MembershipStore
	invitationRepo InvitationStore
	activityRepo   ActivityStore
	usage          UsageProvider
}

// NewDashboardService creates a new dashboard service
func NewDashboardService(workspaceRepo WorkspaceStore, membershipRepo MembershipStore, invitationRepo InvitationStore, activityRepo ActivityStore, usage UsageProvider) *DashboardService {
	return &DashboardService{
		workspaceRepo:  workspaceRepo,
		membershipRepo: membershipRepo,
		invitationRepo: invitationRepo,
		activityRepo:   activityRepo,
		usage:          usage,
	}
}

// WorkspaceStats holds the dashboard counters
type WorkspaceStats struct {
	MemberCount        int64   `json:"member_count"`
	ListingCount       int64   `json:"listing_count"`
	BookingCount       int64   `json:"booking_count"`
	PendingInvitations int64   `json:"pending_invitations"`
	MonthlyRevenue     float64 `json:"monthly_revenue"`
	// MemberGrowthPct compares member_joined activity in the last 30 days
	// to the preceding 30. Listing/booking growth is not derived yet and
	// reads as zero.
	MemberGrowthPct  float64 `json:"member_growth_pct"`
	ListingGrowthPct float64 `json:"listing_growth_pct"`
	BookingGrowthPct float64 `json:"booking_growth_pct"`
}

// WorkspaceDashboard is the aggregate read-model for a workspace landing page
type WorkspaceDashboard struct {
	Workspace          *models.Workspace            `json:"workspace"`
	Stats              *WorkspaceStats              `json:"stats"`
	RecentActivity     []models.WorkspaceActivity   `json:"recent_activity"`
	Members            []models.WorkspaceMember     `json:"members"`
	PendingInvitations []models.WorkspaceInvitation `json:"pending_invitations"`
}

// GetWorkspaceDashboard fetches the dashboard inputs concurrently.
// A missing workspace is fatal (NotFoundError); every secondary fetch is
// best-effort and degrades to an empty list or zeroes on failure.
func (s *DashboardService) GetWorkspaceDashboard(ctx context.Context, workspaceID uuid.UUID) (*WorkspaceDashboard, error) {
	workspace, err := s.workspaceRepo.GetWorkspace(ctx, workspaceID)
	if err != nil {
		return nil, err
	}
	if workspace == nil {
		return nil, NewNotFoundError("workspace", workspaceID.String())
	}

	dashboard := &WorkspaceDashboard{
		Workspace:          workspace,
		Stats:              &WorkspaceStats{},
		RecentActivity:     []models.WorkspaceActivity{},
		Members:            []models.WorkspaceMember{},
		PendingInvitations: []models.WorkspaceInvitation{},
	}

	var wg sync.WaitGroup
	wg.Add(4)

	go func() {
		defer wg.Done()
		members, err := s.membershipRepo.GetWorkspaceMembers(ctx, workspaceID)
		if err != nil {
			log.Printf("Warning: dashboard members fetch failed: %v", err)
			return
		}
		dashboard.Members = members
	}()

	go func() {
		defer wg.Done()
		invitations, err := s.invitationRepo.GetPendingInvitations(ctx, workspaceID)
		if err != nil {
			log.Printf("Warning: dashboard invitations fetch failed: %v", err)
			return
		}
		dashboard.PendingInvitations = invitations
	}()

	go func() {
		defer wg.Done()
		activity, err := s.activityRepo.GetWorkspaceActivity(ctx, workspaceID, 10, 0)
		if err != nil {
			log.Printf("Warning: dashboard activity fetch failed: %v", err)
			return
		}
		dashboard.RecentActivity = activity
	}()

	go func() {
		defer wg.Done()
		stats, err := s.GetWorkspaceStats(ctx, workspaceID)
		if err != nil {
			log.Printf("Warning: dashboard stats fetch failed: %v", err)
			return
		}
		dashboard.Stats = stats
	}()

	wg.Wait()

	// The members goroutine already fetched the count implicitly; keep the
	// stats counter consistent with the list when the count query failed
	if dashboard.Stats.MemberCount == 0 && len(dashboard.Members) > 0 {
		dashboard.Stats.MemberCount = int64(len(dashboard.Members))
	}
	if dashboard.Stats.PendingInvitations == 0 && len(dashboard.PendingInvitations) > 0 {
		dashboard.Stats.PendingInvitations = int64(len(dashboard.PendingInvitations))
	}

	return dashboard, nil
}

// GetWorkspaceStats computes the dashboard counters. Marketplace figures
// (listings, bookings, current-month completed revenue) come from the
// marketplace service and zero out when it is unreachable.
func (s *DashboardService) GetWorkspaceStats(ctx context.Context, workspaceID uuid.UUID) (*WorkspaceStats, error) {
	stats := &WorkspaceStats{}

	memberCount, err := s.membershipRepo.CountActiveMembers(ctx, workspaceID)
	if err != nil {
		return nil, err
	}
	stats.MemberCount = memberCount

	invitations, err := s.invitationRepo.GetPendingInvitations(ctx, workspaceID)
	if err == nil {
		stats.PendingInvitations = int64(len(invitations))
	} else {
		log.Printf("Warning: stats invitation count failed: %v", err)
	}

	stats.MemberGrowthPct = s.memberGrowth(ctx, workspaceID)

	if s.usage != nil {
		usage, err := s.usage.GetWorkspaceUsage(ctx, workspaceID)
		if err != nil {
			log.Printf("Warning: marketplace usage fetch failed: %v", err)
		} else if usage != nil {
			stats.ListingCount = usage.ListingCount
			stats.BookingCount = usage.BookingCount
			stats.MonthlyRevenue = usage.MonthlyRevenue
		}
	}

	return stats, nil
}

// memberGrowth compares member_joined entries in the trailing 30 days to
// the 30 days before that
func (s *DashboardService) memberGrowth(ctx context.Context, workspaceID uuid.UUID) float64 {
	now := time.Now()
	recent, err := s.activityRepo.CountActivitySince(ctx, workspaceID, models.ActivityMemberJoined, now.AddDate(0, 0, -30))
	if err != nil {
		log.Printf("Warning: member growth count failed: %v", err)
		return 0
	}
	older, err := s.activityRepo.CountActivitySince(ctx, workspaceID, models.ActivityMemberJoined, now.AddDate(0, 0, -60))
	if err != nil {
		log.Printf("Warning: member growth count failed: %v", err)
		return 0
	}

	previous := older - recent
	if previous <= 0 {
		if recent > 0 {
			return 100
		}
		return 0
	}
	return (float64(recent) - float64(previous)) / float64(previous) * 100
}

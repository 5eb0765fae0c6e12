package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"workspace-service/internal/clients"
	"workspace-service/internal/models"
)

func newDashboardServiceForTest() (*DashboardService, *MockWorkspaceStore, *MockMembershipStore, *MockInvitationStore, *MockActivityStore, *MockUsageProvider) {
	workspaceRepo := new(MockWorkspaceStore)
	membershipRepo := new(MockMembershipStore)
	invitationRepo := new(MockInvitationStore)
	activityRepo := new(MockActivityStore)
	usage := new(MockUsageProvider)
	svc := NewDashboardService(workspaceRepo, membershipRepo, invitationRepo, activityRepo, usage)
	return svc, workspaceRepo, membershipRepo, invitationRepo, activityRepo, usage
}

func TestGetWorkspaceDashboard(t *testing.T) {
	ctx := context.Background()
	workspaceID := uuid.New()

	t.Run("missing workspace is fatal", func(t *testing.T) {
		svc, workspaceRepo, _, _, _, _ := newDashboardServiceForTest()
		workspaceRepo.On("GetWorkspace", mock.Anything, workspaceID).Return(nil, nil)

		dashboard, err := svc.GetWorkspaceDashboard(ctx, workspaceID)
		assert.Nil(t, dashboard)
		notFound, ok := IsNotFoundError(err)
		assert.True(t, ok)
		assert.Equal(t, "workspace", notFound.Resource)
	})

	t.Run("workspace lookup failure is fatal", func(t *testing.T) {
		svc, workspaceRepo, _, _, _, _ := newDashboardServiceForTest()
		workspaceRepo.On("GetWorkspace", mock.Anything, workspaceID).Return(nil, errors.New("connection reset"))

		dashboard, err := svc.GetWorkspaceDashboard(ctx, workspaceID)
		assert.Nil(t, dashboard)
		assert.Error(t, err)
	})

	t.Run("assembles all sections", func(t *testing.T) {
		svc, workspaceRepo, membershipRepo, invitationRepo, activityRepo, usage := newDashboardServiceForTest()
		workspace := &models.Workspace{ID: workspaceID, Name: "Acme", Slug: "acme", IsActive: true}
		members := []models.WorkspaceMember{
			{ID: uuid.New(), WorkspaceID: workspaceID, Role: models.MembershipRoleOwner, IsActive: true},
			{ID: uuid.New(), WorkspaceID: workspaceID, Role: models.MembershipRoleMember, IsActive: true},
		}
		invitations := []models.WorkspaceInvitation{
			{ID: uuid.New(), WorkspaceID: workspaceID, Email: "new@acme.test", Status: models.InvitationStatusPending},
		}
		activity := []models.WorkspaceActivity{
			{ID: uuid.New(), WorkspaceID: workspaceID, Action: models.ActivityMemberJoined},
		}

		workspaceRepo.On("GetWorkspace", mock.Anything, workspaceID).Return(workspace, nil)
		membershipRepo.On("GetWorkspaceMembers", mock.Anything, workspaceID).Return(members, nil)
		membershipRepo.On("CountActiveMembers", mock.Anything, workspaceID).Return(int64(2), nil)
		invitationRepo.On("GetPendingInvitations", mock.Anything, workspaceID).Return(invitations, nil)
		activityRepo.On("GetWorkspaceActivity", mock.Anything, workspaceID, 10, 0).Return(activity, nil)
		activityRepo.On("CountActivitySince", mock.Anything, workspaceID, models.ActivityMemberJoined, mock.Anything).Return(int64(0), nil)
		usage.On("GetWorkspaceUsage", mock.Anything, workspaceID).Return(&clients.WorkspaceUsage{
			ListingCount:   12,
			BookingCount:   45,
			MonthlyRevenue: 1280.50,
		}, nil)

		dashboard, err := svc.GetWorkspaceDashboard(ctx, workspaceID)
		assert.NoError(t, err)
		assert.Equal(t, workspace, dashboard.Workspace)
		assert.Len(t, dashboard.Members, 2)
		assert.Len(t, dashboard.PendingInvitations, 1)
		assert.Len(t, dashboard.RecentActivity, 1)
		assert.Equal(t, int64(2), dashboard.Stats.MemberCount)
		assert.Equal(t, int64(1), dashboard.Stats.PendingInvitations)
		assert.Equal(t, int64(12), dashboard.Stats.ListingCount)
		assert.Equal(t, int64(45), dashboard.Stats.BookingCount)
		assert.Equal(t, 1280.50, dashboard.Stats.MonthlyRevenue)
	})

	t.Run("secondary failures degrade to empty sections", func(t *testing.T) {
		svc, workspaceRepo, membershipRepo, invitationRepo, activityRepo, usage := newDashboardServiceForTest()
		workspace := &models.Workspace{ID: workspaceID, Name: "Acme", Slug: "acme", IsActive: true}
		boom := errors.New("downstream unavailable")

		workspaceRepo.On("GetWorkspace", mock.Anything, workspaceID).Return(workspace, nil)
		membershipRepo.On("GetWorkspaceMembers", mock.Anything, workspaceID).Return(nil, boom)
		membershipRepo.On("CountActiveMembers", mock.Anything, workspaceID).Return(int64(0), boom)
		invitationRepo.On("GetPendingInvitations", mock.Anything, workspaceID).Return(nil, boom)
		activityRepo.On("GetWorkspaceActivity", mock.Anything, workspaceID, 10, 0).Return(nil, boom)
		usage.On("GetWorkspaceUsage", mock.Anything, workspaceID).Return(nil, boom)

		dashboard, err := svc.GetWorkspaceDashboard(ctx, workspaceID)
		assert.NoError(t, err)
		assert.Equal(t, workspace, dashboard.Workspace)
		assert.Empty(t, dashboard.Members)
		assert.Empty(t, dashboard.PendingInvitations)
		assert.Empty(t, dashboard.RecentActivity)
		assert.Equal(t, int64(0), dashboard.Stats.MemberCount)
		assert.Equal(t, int64(0), dashboard.Stats.ListingCount)
	})

	t.Run("member count falls back to the fetched list", func(t *testing.T) {
		svc, workspaceRepo, membershipRepo, invitationRepo, activityRepo, usage := newDashboardServiceForTest()
		workspace := &models.Workspace{ID: workspaceID, Name: "Acme", Slug: "acme", IsActive: true}
		members := []models.WorkspaceMember{
			{ID: uuid.New(), WorkspaceID: workspaceID, Role: models.MembershipRoleOwner, IsActive: true},
			{ID: uuid.New(), WorkspaceID: workspaceID, Role: models.MembershipRoleAdmin, IsActive: true},
			{ID: uuid.New(), WorkspaceID: workspaceID, Role: models.MembershipRoleMember, IsActive: true},
		}

		workspaceRepo.On("GetWorkspace", mock.Anything, workspaceID).Return(workspace, nil)
		membershipRepo.On("GetWorkspaceMembers", mock.Anything, workspaceID).Return(members, nil)
		// Stats fetch fails wholesale; the list still informs the counter
		membershipRepo.On("CountActiveMembers", mock.Anything, workspaceID).Return(int64(0), errors.New("timeout"))
		invitationRepo.On("GetPendingInvitations", mock.Anything, workspaceID).Return([]models.WorkspaceInvitation{}, nil)
		activityRepo.On("GetWorkspaceActivity", mock.Anything, workspaceID, 10, 0).Return([]models.WorkspaceActivity{}, nil)
		usage.On("GetWorkspaceUsage", mock.Anything, workspaceID).Return(nil, errors.New("timeout"))

		dashboard, err := svc.GetWorkspaceDashboard(ctx, workspaceID)
		assert.NoError(t, err)
		assert.Equal(t, int64(3), dashboard.Stats.MemberCount)
	})
}

func TestGetWorkspaceStats(t *testing.T) {
	ctx := context.Background()
	workspaceID := uuid.New()

	t.Run("member count failure is fatal", func(t *testing.T) {
		svc, _, membershipRepo, _, _, _ := newDashboardServiceForTest()
		membershipRepo.On("CountActiveMembers", mock.Anything, workspaceID).Return(int64(0), errors.New("timeout"))

		stats, err := svc.GetWorkspaceStats(ctx, workspaceID)
		assert.Nil(t, stats)
		assert.Error(t, err)
	})

	t.Run("invitation and usage failures zero out", func(t *testing.T) {
		svc, _, membershipRepo, invitationRepo, activityRepo, usage := newDashboardServiceForTest()
		membershipRepo.On("CountActiveMembers", mock.Anything, workspaceID).Return(int64(5), nil)
		invitationRepo.On("GetPendingInvitations", mock.Anything, workspaceID).Return(nil, errors.New("timeout"))
		activityRepo.On("CountActivitySince", mock.Anything, workspaceID, models.ActivityMemberJoined, mock.Anything).Return(int64(0), nil)
		usage.On("GetWorkspaceUsage", mock.Anything, workspaceID).Return(nil, errors.New("unreachable"))

		stats, err := svc.GetWorkspaceStats(ctx, workspaceID)
		assert.NoError(t, err)
		assert.Equal(t, int64(5), stats.MemberCount)
		assert.Equal(t, int64(0), stats.PendingInvitations)
		assert.Equal(t, int64(0), stats.ListingCount)
		assert.Equal(t, int64(0), stats.BookingCount)
		assert.Equal(t, float64(0), stats.MonthlyRevenue)
	})

	t.Run("nil usage provider reads as zero", func(t *testing.T) {
		workspaceRepo := new(MockWorkspaceStore)
		membershipRepo := new(MockMembershipStore)
		invitationRepo := new(MockInvitationStore)
		activityRepo := new(MockActivityStore)
		svc := NewDashboardService(workspaceRepo, membershipRepo, invitationRepo, activityRepo, nil)

		membershipRepo.On("CountActiveMembers", mock.Anything, workspaceID).Return(int64(2), nil)
		invitationRepo.On("GetPendingInvitations", mock.Anything, workspaceID).Return([]models.WorkspaceInvitation{}, nil)
		activityRepo.On("CountActivitySince", mock.Anything, workspaceID, models.ActivityMemberJoined, mock.Anything).Return(int64(0), nil)

		stats, err := svc.GetWorkspaceStats(ctx, workspaceID)
		assert.NoError(t, err)
		assert.Equal(t, int64(0), stats.ListingCount)
		assert.Equal(t, float64(0), stats.MonthlyRevenue)
	})
}

func TestMemberGrowth(t *testing.T) {
	ctx := context.Background()
	workspaceID := uuid.New()

	setupGrowth := func(recent, total int64) *DashboardService {
		svc, _, membershipRepo, invitationRepo, activityRepo, usage := newDashboardServiceForTest()
		membershipRepo.On("CountActiveMembers", mock.Anything, workspaceID).Return(int64(1), nil)
		invitationRepo.On("GetPendingInvitations", mock.Anything, workspaceID).Return([]models.WorkspaceInvitation{}, nil)
		usage.On("GetWorkspaceUsage", mock.Anything, workspaceID).Return(&clients.WorkspaceUsage{}, nil)
		activityRepo.On("CountActivitySince", mock.Anything, workspaceID, models.ActivityMemberJoined, mock.MatchedBy(func(since time.Time) bool {
			return time.Since(since) < 45*24*time.Hour
		})).Return(recent, nil)
		activityRepo.On("CountActivitySince", mock.Anything, workspaceID, models.ActivityMemberJoined, mock.MatchedBy(func(since time.Time) bool {
			return time.Since(since) >= 45*24*time.Hour
		})).Return(total, nil)
		return svc
	}

	t.Run("doubles read as one hundred percent", func(t *testing.T) {
		// 2 joins in the previous window, 4 in the recent one
		svc := setupGrowth(4, 6)
		stats, err := svc.GetWorkspaceStats(ctx, workspaceID)
		assert.NoError(t, err)
		assert.InDelta(t, 100.0, stats.MemberGrowthPct, 0.01)
	})

	t.Run("all growth with an empty prior window caps at one hundred", func(t *testing.T) {
		svc := setupGrowth(3, 3)
		stats, err := svc.GetWorkspaceStats(ctx, workspaceID)
		assert.NoError(t, err)
		assert.InDelta(t, 100.0, stats.MemberGrowthPct, 0.01)
	})

	t.Run("no joins at all reads as zero", func(t *testing.T) {
		svc := setupGrowth(0, 0)
		stats, err := svc.GetWorkspaceStats(ctx, workspaceID)
		assert.NoError(t, err)
		assert.Equal(t, float64(0), stats.MemberGrowthPct)
	})

	t.Run("decline reads negative", func(t *testing.T) {
		// 4 joins previously, 1 recently
		svc := setupGrowth(1, 5)
		stats, err := svc.GetWorkspaceStats(ctx, workspaceID)
		assert.NoError(t, err)
		assert.InDelta(t, -75.0, stats.MemberGrowthPct, 0.01)
	})
}

package services

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"workspace-service/internal/clients"
	"workspace-service/internal/models"
	"workspace-service/internal/nats"
	"workspace-service/internal/repository"
)

// MockWorkspaceStore is a mock implementation of WorkspaceStore
type MockWorkspaceStore struct {
	mock.Mock
}

func (m *MockWorkspaceStore) CreateWorkspaceWithOwner(ctx context.Context, workspace *models.Workspace, ownerID uuid.UUID) error {
	args := m.Called(ctx, workspace, ownerID)
	return args.Error(0)
}

func (m *MockWorkspaceStore) GetWorkspace(ctx context.Context, id uuid.UUID) (*models.Workspace, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Workspace), args.Error(1)
}

func (m *MockWorkspaceStore) GetWorkspaceBySlug(ctx context.Context, slug string) (*models.Workspace, error) {
	args := m.Called(ctx, slug)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Workspace), args.Error(1)
}

func (m *MockWorkspaceStore) UpdateWorkspace(ctx context.Context, id uuid.UUID, updates map[string]interface{}) (*models.Workspace, error) {
	args := m.Called(ctx, id, updates)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Workspace), args.Error(1)
}

func (m *MockWorkspaceStore) SoftDeleteWorkspace(ctx context.Context, id uuid.UUID) (bool, error) {
	args := m.Called(ctx, id)
	return args.Bool(0), args.Error(1)
}

func (m *MockWorkspaceStore) IsSlugAvailable(ctx context.Context, slug string) (bool, error) {
	args := m.Called(ctx, slug)
	return args.Bool(0), args.Error(1)
}

func (m *MockWorkspaceStore) IsReservedSlug(ctx context.Context, slug string) (bool, *models.ReservedSlug, error) {
	args := m.Called(ctx, slug)
	if args.Get(1) == nil {
		return args.Bool(0), nil, args.Error(2)
	}
	return args.Bool(0), args.Get(1).(*models.ReservedSlug), args.Error(2)
}

func (m *MockWorkspaceStore) GenerateUniqueSlug(ctx context.Context, name string) (string, error) {
	args := m.Called(ctx, name)
	return args.String(0), args.Error(1)
}

func (m *MockWorkspaceStore) GenerateSlugSuggestions(ctx context.Context, baseSlug string, count int) ([]string, error) {
	args := m.Called(ctx, baseSlug, count)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

func (m *MockWorkspaceStore) ValidateSlugWithSuggestions(ctx context.Context, requestedSlug string) (*repository.SlugValidationResult, error) {
	args := m.Called(ctx, requestedSlug)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*repository.SlugValidationResult), args.Error(1)
}

// MockMembershipStore is a mock implementation of MembershipStore
type MockMembershipStore struct {
	mock.Mock
}

func (m *MockMembershipStore) CreateMembership(ctx context.Context, membership *models.WorkspaceMember) error {
	args := m.Called(ctx, membership)
	return args.Error(0)
}

func (m *MockMembershipStore) GetMembership(ctx context.Context, workspaceID, userID uuid.UUID) (*models.WorkspaceMember, error) {
	args := m.Called(ctx, workspaceID, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.WorkspaceMember), args.Error(1)
}

func (m *MockMembershipStore) GetMemberByID(ctx context.Context, memberID uuid.UUID) (*models.WorkspaceMember, error) {
	args := m.Called(ctx, memberID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.WorkspaceMember), args.Error(1)
}

func (m *MockMembershipStore) GetWorkspaceMembers(ctx context.Context, workspaceID uuid.UUID) ([]models.WorkspaceMember, error) {
	args := m.Called(ctx, workspaceID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.WorkspaceMember), args.Error(1)
}

func (m *MockMembershipStore) GetUserMemberships(ctx context.Context, userID uuid.UUID) ([]models.WorkspaceMember, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.WorkspaceMember), args.Error(1)
}

func (m *MockMembershipStore) UpdateMember(ctx context.Context, memberID uuid.UUID, updates map[string]interface{}) (bool, error) {
	args := m.Called(ctx, memberID, updates)
	return args.Bool(0), args.Error(1)
}

func (m *MockMembershipStore) DeactivateMember(ctx context.Context, workspaceID, memberID uuid.UUID) (bool, error) {
	args := m.Called(ctx, workspaceID, memberID)
	return args.Bool(0), args.Error(1)
}

func (m *MockMembershipStore) UpdateLastAccessed(ctx context.Context, workspaceID, userID uuid.UUID) error {
	args := m.Called(ctx, workspaceID, userID)
	return args.Error(0)
}

func (m *MockMembershipStore) GetUserRole(ctx context.Context, workspaceID, userID uuid.UUID) (string, error) {
	args := m.Called(ctx, workspaceID, userID)
	return args.String(0), args.Error(1)
}

func (m *MockMembershipStore) CountActiveMembers(ctx context.Context, workspaceID uuid.UUID) (int64, error) {
	args := m.Called(ctx, workspaceID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockMembershipStore) CountActiveOwners(ctx context.Context, workspaceID uuid.UUID) (int64, error) {
	args := m.Called(ctx, workspaceID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockMembershipStore) CountMembersJoinedSince(ctx context.Context, workspaceID uuid.UUID, since time.Time) (int64, error) {
	args := m.Called(ctx, workspaceID, since)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockMembershipStore) GetPreferences(ctx context.Context, userID uuid.UUID) (*models.UserWorkspacePreferences, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.UserWorkspacePreferences), args.Error(1)
}

func (m *MockMembershipStore) SetDefaultWorkspace(ctx context.Context, userID, workspaceID uuid.UUID) error {
	args := m.Called(ctx, userID, workspaceID)
	return args.Error(0)
}

func (m *MockMembershipStore) SetLastActiveWorkspace(ctx context.Context, userID, workspaceID uuid.UUID) error {
	args := m.Called(ctx, userID, workspaceID)
	return args.Error(0)
}

// MockInvitationStore is a mock implementation of InvitationStore
type MockInvitationStore struct {
	mock.Mock
}

func (m *MockInvitationStore) CreateInvitation(ctx context.Context, invitation *models.WorkspaceInvitation) error {
	args := m.Called(ctx, invitation)
	return args.Error(0)
}

func (m *MockInvitationStore) GetInvitationByID(ctx context.Context, id uuid.UUID) (*models.WorkspaceInvitation, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.WorkspaceInvitation), args.Error(1)
}

func (m *MockInvitationStore) GetInvitationByToken(ctx context.Context, token string) (*models.WorkspaceInvitation, error) {
	args := m.Called(ctx, token)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.WorkspaceInvitation), args.Error(1)
}

func (m *MockInvitationStore) GetPendingInvitations(ctx context.Context, workspaceID uuid.UUID) ([]models.WorkspaceInvitation, error) {
	args := m.Called(ctx, workspaceID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.WorkspaceInvitation), args.Error(1)
}

func (m *MockInvitationStore) HasPendingInvitation(ctx context.Context, workspaceID uuid.UUID, email string) (bool, error) {
	args := m.Called(ctx, workspaceID, email)
	return args.Bool(0), args.Error(1)
}

func (m *MockInvitationStore) AcceptInvitation(ctx context.Context, token string, userID uuid.UUID) (*models.WorkspaceInvitation, error) {
	args := m.Called(ctx, token, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.WorkspaceInvitation), args.Error(1)
}

func (m *MockInvitationStore) DeclineInvitation(ctx context.Context, token string) (*models.WorkspaceInvitation, error) {
	args := m.Called(ctx, token)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.WorkspaceInvitation), args.Error(1)
}

func (m *MockInvitationStore) CancelInvitation(ctx context.Context, id uuid.UUID) (bool, error) {
	args := m.Called(ctx, id)
	return args.Bool(0), args.Error(1)
}

func (m *MockInvitationStore) ResendInvitation(ctx context.Context, id uuid.UUID) (bool, error) {
	args := m.Called(ctx, id)
	return args.Bool(0), args.Error(1)
}

func (m *MockInvitationStore) ExpireOverdueInvitations(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

// MockActivityStore is a mock implementation of ActivityStore
type MockActivityStore struct {
	mock.Mock
}

func (m *MockActivityStore) LogActivity(ctx context.Context, activity *models.WorkspaceActivity) error {
	args := m.Called(ctx, activity)
	return args.Error(0)
}

func (m *MockActivityStore) GetWorkspaceActivity(ctx context.Context, workspaceID uuid.UUID, limit, offset int) ([]models.WorkspaceActivity, error) {
	args := m.Called(ctx, workspaceID, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.WorkspaceActivity), args.Error(1)
}

func (m *MockActivityStore) CountActivitySince(ctx context.Context, workspaceID uuid.UUID, action string, since time.Time) (int64, error) {
	args := m.Called(ctx, workspaceID, action, since)
	return args.Get(0).(int64), args.Error(1)
}

// MockEventPublisher is a mock implementation of EventPublisher
type MockEventPublisher struct {
	mock.Mock
}

func (m *MockEventPublisher) PublishWorkspaceEvent(ctx context.Context, eventType string, event *nats.WorkspaceEvent) error {
	args := m.Called(ctx, eventType, event)
	return args.Error(0)
}

func (m *MockEventPublisher) PublishMemberEvent(ctx context.Context, eventType string, event *nats.MemberEvent) error {
	args := m.Called(ctx, eventType, event)
	return args.Error(0)
}

// MockUsageProvider is a mock implementation of UsageProvider
type MockUsageProvider struct {
	mock.Mock
}

func (m *MockUsageProvider) GetWorkspaceUsage(ctx context.Context, workspaceID uuid.UUID) (*clients.WorkspaceUsage, error) {
	args := m.Called(ctx, workspaceID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*clients.WorkspaceUsage), args.Error(1)
}

package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// JSONB is a custom type for PostgreSQL JSONB fields
// It can hold any valid JSON value (objects, arrays, primitives)
type JSONB json.RawMessage

// Value implements the driver.Valuer interface for JSONB
func (j JSONB) Value() (driver.Value, error) {
	if len(j) == 0 {
		return nil, nil
	}
	return []byte(j), nil
}

// Scan implements the sql.Scanner interface for JSONB
func (j *JSONB) Scan(value interface{}) error {
	if value == nil {
		*j = nil
		return nil
	}

	switch v := value.(type) {
	case []byte:
		*j = JSONB(v)
		return nil
	case string:
		*j = JSONB([]byte(v))
		return nil
	default:
		return fmt.Errorf("unsupported Scan type for JSONB: %T", value)
	}
}

// MarshalJSON implements json.Marshaler
func (j JSONB) MarshalJSON() ([]byte, error) {
	if len(j) == 0 {
		return []byte("null"), nil
	}
	return []byte(j), nil
}

// UnmarshalJSON implements json.Unmarshaler
func (j *JSONB) UnmarshalJSON(data []byte) error {
	if len(data) == 0 {
		*j = nil
		return nil
	}
	*j = JSONB(data)
	return nil
}

// NewJSONB creates a JSONB from any value
func NewJSONB(v interface{}) (JSONB, error) {
	if v == nil {
		return nil, nil
	}
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return JSONB(data), nil
}

// MustNewJSONB creates a JSONB from any value, panics on error
func MustNewJSONB(v interface{}) JSONB {
	j, err := NewJSONB(v)
	if err != nil {
		panic(err)
	}
	return j
}

// Workspace represents a tenant container for a team's listings, bookings and members
type Workspace struct {
	ID          uuid.UUID `json:"id" gorm:"type:uuid;primary_key;default:uuid_generate_v4()"`
	Name        string    `json:"name" gorm:"not null" validate:"required,min=2,max=255"`
	Slug        string    `json:"slug" gorm:"unique;not null;size:63;index" validate:"required"`
	Type        string    `json:"type" gorm:"size:50;not null;default:'team';index" validate:"oneof=personal team business enterprise"`
	Description string    `json:"description"`
	IsActive    bool      `json:"is_active" gorm:"default:true;index"`

	// Branding
	LogoURL        string `json:"logo_url" gorm:"size:512"`
	PrimaryColor   string `json:"primary_color" gorm:"size:7;default:'#6366f1'"`
	SecondaryColor string `json:"secondary_color" gorm:"size:7;default:'#8b5cf6'"`

	// Billing reference (subscription lives in the billing service)
	BillingCustomerID string `json:"billing_customer_id,omitempty" gorm:"size:255"`

	// Defaults
	Timezone string `json:"timezone" gorm:"size:50;default:'UTC'"`
	Locale   string `json:"locale" gorm:"size:10;default:'en'"`

	// Free-form settings and feature toggles
	Settings JSONB `json:"settings" gorm:"type:jsonb;default:'{}'"`
	Features JSONB `json:"features" gorm:"type:jsonb;default:'{}'"`

	// Owner tracking (user_id from auth-service)
	OwnerUserID uuid.UUID `json:"owner_user_id" gorm:"type:uuid;not null;index"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Relations
	Members []WorkspaceMember `json:"members,omitempty" gorm:"foreignKey:WorkspaceID"`
}

// TableName specifies the table name for Workspace
func (Workspace) TableName() string {
	return "workspaces"
}

// WorkspaceMember represents a user's membership in a workspace
// One user can belong to multiple workspaces with different roles
type WorkspaceMember struct {
	ID          uuid.UUID `json:"id" gorm:"type:uuid;primary_key;default:uuid_generate_v4()"`
	WorkspaceID uuid.UUID `json:"workspace_id" gorm:"type:uuid;not null;index:idx_workspace_user,unique,where:is_active"`
	UserID      uuid.UUID `json:"user_id" gorm:"type:uuid;not null;index:idx_workspace_user,unique,where:is_active"` // User ID from auth-service

	// Role within this workspace
	// owner: Full control, can delete workspace, manage billing
	// admin: Can manage members and workspace settings (not delete)
	// manager: Can manage members and day-to-day operations
	// member: Read/write access to workspace content
	// viewer: Read-only access
	Role  string `json:"role" gorm:"size:50;not null;default:'member'" validate:"oneof=owner admin manager member viewer"`
	Title string `json:"title" gorm:"size:100"`

	// Fine-grained permission overrides as JSONB
	// Example: {"listings": ["read", "write"], "bookings": ["read"]}
	Permissions JSONB `json:"permissions" gorm:"type:jsonb;default:'{}'"`

	// Is this membership currently active? Removal flips this flag, rows are never deleted
	IsActive bool `json:"is_active" gorm:"default:true;index"`

	InvitedBy *uuid.UUID `json:"invited_by" gorm:"type:uuid"`
	JoinedAt  time.Time  `json:"joined_at" gorm:"not null;index"`

	// Activity tracking
	LastAccessedAt *time.Time `json:"last_accessed_at"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Relations
	Workspace *Workspace `json:"workspace,omitempty" gorm:"foreignKey:WorkspaceID"`
}

// TableName specifies the table name for WorkspaceMember
func (WorkspaceMember) TableName() string {
	return "workspace_members"
}

// WorkspaceInvitation represents a pending offer to join a workspace
// Status transitions are one-way: pending -> accepted | declined | expired
type WorkspaceInvitation struct {
	ID          uuid.UUID `json:"id" gorm:"type:uuid;primary_key;default:uuid_generate_v4()"`
	WorkspaceID uuid.UUID `json:"workspace_id" gorm:"type:uuid;not null;index"`
	Email       string    `json:"email" gorm:"not null;index" validate:"required,email"`
	Role        string    `json:"role" gorm:"size:50;not null;default:'member'" validate:"oneof=admin manager member viewer"`
	Message     string    `json:"message,omitempty"`
	Status      string    `json:"status" gorm:"size:20;not null;default:'pending';index" validate:"oneof=pending accepted declined expired"`
	Token       string    `json:"-" gorm:"unique;not null;size:255;index"` // Hidden from JSON - sensitive
	InvitedBy   uuid.UUID `json:"invited_by" gorm:"type:uuid;not null"`
	ExpiresAt   time.Time `json:"expires_at" gorm:"not null;index"`
	AcceptedAt  *time.Time `json:"accepted_at"`
	DeclinedAt  *time.Time `json:"declined_at"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`

	// Relations
	Workspace *Workspace `json:"workspace,omitempty" gorm:"foreignKey:WorkspaceID"`
}

// TableName specifies the table name for WorkspaceInvitation
func (WorkspaceInvitation) TableName() string {
	return "workspace_invitations"
}

// WorkspaceActivity represents the append-only audit trail for workspace actions
// Rows are never updated or deleted after insert
type WorkspaceActivity struct {
	ID          uuid.UUID  `json:"id" gorm:"type:uuid;primary_key;default:uuid_generate_v4()"`
	WorkspaceID uuid.UUID  `json:"workspace_id" gorm:"type:uuid;not null;index"`
	UserID      *uuid.UUID `json:"user_id" gorm:"type:uuid;index"` // NULL for system actions
	Action      string     `json:"action" gorm:"size:100;not null;index"` // e.g., 'member_invited', 'workspace_updated'
	Description string     `json:"description"`
	EntityType  string     `json:"entity_type" gorm:"size:50"` // e.g., 'member', 'invitation', 'workspace'
	EntityID    *uuid.UUID `json:"entity_id" gorm:"type:uuid"`
	Metadata    JSONB      `json:"metadata" gorm:"type:jsonb;default:'{}'"`
	CreatedAt   time.Time  `json:"created_at" gorm:"index"`
}

// TableName specifies the table name for WorkspaceActivity
func (WorkspaceActivity) TableName() string {
	return "workspace_activity"
}

// UserWorkspacePreferences holds per-user workspace context state
// Convenience state only, never consulted for authorization
type UserWorkspacePreferences struct {
	ID                    uuid.UUID  `json:"id" gorm:"type:uuid;primary_key;default:uuid_generate_v4()"`
	UserID                uuid.UUID  `json:"user_id" gorm:"type:uuid;unique;not null;index"`
	DefaultWorkspaceID    *uuid.UUID `json:"default_workspace_id" gorm:"type:uuid"`
	LastActiveWorkspaceID *uuid.UUID `json:"last_active_workspace_id" gorm:"type:uuid"`
	ViewPreferences       JSONB      `json:"view_preferences" gorm:"type:jsonb;default:'{}'"`
	CreatedAt             time.Time  `json:"created_at"`
	UpdatedAt             time.Time  `json:"updated_at"`
}

// TableName specifies the table name for UserWorkspacePreferences
func (UserWorkspacePreferences) TableName() string {
	return "user_workspace_preferences"
}

// ReservedSlug represents a slug that cannot be claimed by workspaces
// Stored in database for easy management via API without code deployment
type ReservedSlug struct {
	ID        uuid.UUID `json:"id" gorm:"type:uuid;primary_key;default:uuid_generate_v4()"`
	Slug      string    `json:"slug" gorm:"unique;not null;size:63"`
	Reason    string    `json:"reason" gorm:"not null;size:255"`
	Category  string    `json:"category" gorm:"not null;size:50;default:'system'"` // system, brand, infrastructure
	IsActive  bool      `json:"is_active" gorm:"default:true"`
	CreatedAt time.Time `json:"created_at"`
	CreatedBy string    `json:"created_by" gorm:"size:255"` // admin email or 'system'
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName returns the table name for ReservedSlug
func (ReservedSlug) TableName() string {
	return "reserved_slugs"
}

// ReservedSlugCategory constants
const (
	ReservedSlugCategorySystem         = "system"         // System routes (admin, api, login)
	ReservedSlugCategoryBrand          = "brand"          // Brand protection
	ReservedSlugCategoryInfrastructure = "infrastructure" // Infrastructure (www, cdn, mail)
)

// WorkspaceType constants
const (
	WorkspaceTypePersonal   = "personal"
	WorkspaceTypeTeam       = "team"
	WorkspaceTypeBusiness   = "business"
	WorkspaceTypeEnterprise = "enterprise"
)

// MembershipRole constants
const (
	MembershipRoleOwner   = "owner"
	MembershipRoleAdmin   = "admin"
	MembershipRoleManager = "manager"
	MembershipRoleMember  = "member"
	MembershipRoleViewer  = "viewer"
)

// InvitationStatus constants
const (
	InvitationStatusPending  = "pending"
	InvitationStatusAccepted = "accepted"
	InvitationStatusDeclined = "declined"
	InvitationStatusExpired  = "expired"
)

// DefaultInvitationTTL is the validity window for new and resent invitations
const DefaultInvitationTTL = 7 * 24 * time.Hour

// WorkspaceActivityAction constants
const (
	ActivityWorkspaceCreated  = "workspace_created"
	ActivityWorkspaceUpdated  = "workspace_updated"
	ActivityWorkspaceDeleted  = "workspace_deleted"
	ActivityMemberInvited     = "member_invited"
	ActivityMemberJoined      = "member_joined"
	ActivityMemberRemoved     = "member_removed"
	ActivityMemberRoleChanged = "member_role_changed"
	ActivityInviteCancelled   = "invitation_cancelled"
	ActivityInviteDeclined    = "invitation_declined"
	ActivityInviteResent      = "invitation_resent"
)

// BeforeCreate hooks
func (w *Workspace) BeforeCreate(tx *gorm.DB) error {
	if w.ID == uuid.Nil {
		w.ID = uuid.New()
	}
	return nil
}

func (m *WorkspaceMember) BeforeCreate(tx *gorm.DB) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	if m.JoinedAt.IsZero() {
		m.JoinedAt = time.Now()
	}
	return nil
}

func (i *WorkspaceInvitation) BeforeCreate(tx *gorm.DB) error {
	if i.ID == uuid.Nil {
		i.ID = uuid.New()
	}
	return nil
}

func (a *WorkspaceActivity) BeforeCreate(tx *gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return nil
}

func (p *UserWorkspacePreferences) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}

package domain

import (
	"context"
	"regexp"
	"strings"
	"time"
)

var emailPattern = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)

// ValidEmail reports whether email looks like a deliverable address.
func ValidEmail(email string) bool {
	return emailPattern.MatchString(email)
}

// NormalizeEmail is the canonical form emails are stored and matched in.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Invitation records that an inviter generated a signup link for an email address.
// swagger:model Invitation
type Invitation struct {
	ID          string    `json:"id"`
	Email       string    `json:"email"`
	InvitedBy   string    `json:"invited_by"`
	InvitedAt   time.Time `json:"invited_at"`
	HasSignedUp bool      `json:"has_signed_up"`
	UID         *string   `json:"uid,omitempty"`
}

// NewInvitation returns a pending invitation. ID is set by the repository on create.
func NewInvitation(email, invitedBy string, invitedAt time.Time) *Invitation {
	return &Invitation{
		Email:     email,
		InvitedBy: invitedBy,
		InvitedAt: invitedAt,
	}
}

// InvitationSnapshot is one push of a live invitation subscription.
type InvitationSnapshot struct {
	Invitations []*Invitation
	Err         error
}

// InvitationRepository is the Invitation Store Adapter.
type InvitationRepository interface {
	FindByEmailAndInviter(ctx context.Context, email, inviterID string) ([]*Invitation, error)
	// Create inserts inv. It returns created=false without error when the
	// storage layer already holds an invitation for the same (email, inviter) pair.
	Create(ctx context.Context, inv *Invitation) (created bool, err error)
	// ListByEmail returns invitations for email from every inviter.
	ListByEmail(ctx context.Context, email string) ([]*Invitation, error)
	ListByInviter(ctx context.Context, inviterID string) ([]*Invitation, error)
	MarkSignedUp(ctx context.Context, id, uid string) error
	Subscribe(ctx context.Context, inviterID string) (<-chan InvitationSnapshot, error)
}

// InviteResult is the outcome of inviting an email address.
type InviteResult struct {
	Link       string      `json:"link"`
	Invitation *Invitation `json:"invitation"`
	Created    bool        `json:"created"`
	Emailed    bool        `json:"emailed"`
}

// InvitationOverview splits an inviter's invitations by signup state.
// swagger:model InvitationOverview
type InvitationOverview struct {
	All      []*Invitation `json:"all"`
	SignedUp []*Invitation `json:"signed_up"`
	Pending  []*Invitation `json:"pending"`
}

// NewInvitationOverview partitions invs preserving order.
func NewInvitationOverview(invs []*Invitation) *InvitationOverview {
	o := &InvitationOverview{
		All:      invs,
		SignedUp: []*Invitation{},
		Pending:  []*Invitation{},
	}
	if o.All == nil {
		o.All = []*Invitation{}
	}
	for _, inv := range invs {
		if inv.HasSignedUp {
			o.SignedUp = append(o.SignedUp, inv)
		} else {
			o.Pending = append(o.Pending, inv)
		}
	}
	return o
}

// InvitationService defines invitation operations.
type InvitationService interface {
	// Create stores an invitation unless one exists for (email, inviterID).
	Create(ctx context.Context, email, inviterID string) (*Invitation, bool, error)
	// Invite generates the signup link for email, records the invitation and optionally emails the link.
	Invite(ctx context.Context, inviter *Identity, email, origin string, sendEmail bool) (*InviteResult, error)
	// MarkSignedUp flags every invitation for email as signed up by uid and returns how many changed.
	MarkSignedUp(ctx context.Context, email, uid string) (int, error)
	Overview(ctx context.Context, inviterID string) (*InvitationOverview, error)
	Subscribe(ctx context.Context, inviterID string) (<-chan InvitationSnapshot, error)
}

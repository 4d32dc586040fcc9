package firestore

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"time"

	"cloud.google.com/go/firestore"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"eventscheduler/internal/domain"
	"eventscheduler/internal/repository/live"
)

type invitationDoc struct {
	Email       string    `firestore:"email"`
	InvitedBy   string    `firestore:"invitedBy"`
	InvitedAt   time.Time `firestore:"invitedAt"`
	HasSignedUp bool      `firestore:"hasSignedUp"`
	UID         *string   `firestore:"uid,omitempty"`
}

func toInvitationDoc(inv *domain.Invitation) invitationDoc {
	return invitationDoc{
		Email:       inv.Email,
		InvitedBy:   inv.InvitedBy,
		InvitedAt:   inv.InvitedAt.UTC(),
		HasSignedUp: inv.HasSignedUp,
		UID:         inv.UID,
	}
}

func (d invitationDoc) toDomain(id string) *domain.Invitation {
	return &domain.Invitation{
		ID:          id,
		Email:       d.Email,
		InvitedBy:   d.InvitedBy,
		InvitedAt:   d.InvitedAt,
		HasSignedUp: d.HasSignedUp,
		UID:         d.UID,
	}
}

// invitationDocID derives the document id from the (email, inviter) pair so a second
// create for the same pair collides instead of duplicating.
func invitationDocID(email, inviterID string) string {
	sum := sha256.Sum256([]byte(email + "\x00" + inviterID))
	return hex.EncodeToString(sum[:20])
}

type InvitationRepository struct {
	Client *firestore.Client
}

func NewInvitationRepository(client *firestore.Client) domain.InvitationRepository {
	return &InvitationRepository{Client: client}
}

func (r *InvitationRepository) col() *firestore.CollectionRef {
	return r.Client.Collection(invitationsCollection)
}

func (r *InvitationRepository) inviterQuery(inviterID string) firestore.Query {
	return r.col().Where("invitedBy", "==", inviterID).OrderBy("invitedAt", firestore.Asc)
}

func decodeInvitations(docs []*firestore.DocumentSnapshot) ([]*domain.Invitation, error) {
	invs := make([]*domain.Invitation, 0, len(docs))
	for _, doc := range docs {
		var d invitationDoc
		if err := doc.DataTo(&d); err != nil {
			return nil, err
		}
		invs = append(invs, d.toDomain(doc.Ref.ID))
	}
	return invs, nil
}

func (r *InvitationRepository) query(ctx context.Context, op string, q firestore.Query) ([]*domain.Invitation, error) {
	docs, err := q.Documents(ctx).GetAll()
	if err != nil {
		return nil, storeError(op, err)
	}
	invs, err := decodeInvitations(docs)
	if err != nil {
		return nil, storeError(op, err)
	}
	return invs, nil
}

func (r *InvitationRepository) FindByEmailAndInviter(ctx context.Context, email, inviterID string) ([]*domain.Invitation, error) {
	q := r.col().Where("email", "==", email).Where("invitedBy", "==", inviterID)
	return r.query(ctx, "find invitation", q)
}

func (r *InvitationRepository) Create(ctx context.Context, inv *domain.Invitation) (bool, error) {
	id := invitationDocID(inv.Email, inv.InvitedBy)
	_, err := r.col().Doc(id).Create(ctx, toInvitationDoc(inv))
	if err != nil {
		if status.Code(err) == codes.AlreadyExists {
			inv.ID = id
			return false, nil
		}
		return false, storeError("create invitation", err)
	}
	inv.ID = id
	return true, nil
}

func (r *InvitationRepository) ListByEmail(ctx context.Context, email string) ([]*domain.Invitation, error) {
	return r.query(ctx, "list invitations by email", r.col().Where("email", "==", email))
}

func (r *InvitationRepository) ListByInviter(ctx context.Context, inviterID string) ([]*domain.Invitation, error) {
	return r.query(ctx, "list invitations", r.inviterQuery(inviterID))
}

func (r *InvitationRepository) MarkSignedUp(ctx context.Context, id, uid string) error {
	_, err := r.col().Doc(id).Update(ctx, []firestore.Update{
		{Path: "hasSignedUp", Value: true},
		{Path: "uid", Value: uid},
	})
	return storeError("mark invitation signed up", err)
}

func (r *InvitationRepository) Subscribe(ctx context.Context, inviterID string) (<-chan domain.InvitationSnapshot, error) {
	out := make(chan domain.InvitationSnapshot, 1)
	it := r.inviterQuery(inviterID).Snapshots(ctx)
	go func() {
		defer close(out)
		defer it.Stop()
		for {
			qs, err := it.Next()
			if err != nil {
				if !watchStopped(ctx, err) {
					live.Offer(out, domain.InvitationSnapshot{Err: storeError("watch invitations", err)})
				}
				return
			}
			docs, err := qs.Documents.GetAll()
			if err == nil {
				var invs []*domain.Invitation
				if invs, err = decodeInvitations(docs); err == nil {
					live.Offer(out, domain.InvitationSnapshot{Invitations: invs})
					continue
				}
			}
			live.Offer(out, domain.InvitationSnapshot{Err: storeError("watch invitations", err)})
		}
	}()
	return out, nil
}

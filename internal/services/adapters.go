package services

import (
	"context"

	"github.com/creatorjobs/creatorjobs-api/internal/models"
	"github.com/creatorjobs/creatorjobs-api/internal/saga"
	"github.com/creatorjobs/creatorjobs-api/pkg/memberstack"
	"github.com/creatorjobs/creatorjobs-api/pkg/sheetdb"
	"github.com/creatorjobs/creatorjobs-api/pkg/webflow"
)

// Adapters bridging the transport clients to the coordinator's backend
// interfaces. The coordinator works in ServicePayloads and domain models; the
// clients speak their services' wire shapes.

type sheetBackend struct {
	client *sheetdb.Client
}

// NewSheetBackend adapts the sheet worker client to the coordinator.
func NewSheetBackend(client *sheetdb.Client) saga.SheetBackend {
	return &sheetBackend{client: client}
}

func (b *sheetBackend) CreateRecord(ctx context.Context, idempotencyKey string, fields models.ServicePayload) (string, error) {
	return b.client.CreateRecord(ctx, idempotencyKey, fields)
}

func (b *sheetBackend) UpdateRecord(ctx context.Context, recordID string, fields models.ServicePayload) error {
	return b.client.UpdateRecord(ctx, recordID, fields)
}

func (b *sheetBackend) DeleteRecord(ctx context.Context, recordID string) error {
	return b.client.DeleteRecord(ctx, recordID)
}

type cmsBackend struct {
	client       *webflow.Client
	collectionID string
}

// NewCMSBackend adapts the CMS client to the coordinator, bound to the jobs
// collection.
func NewCMSBackend(client *webflow.Client, collectionID string) saga.CMSBackend {
	return &cmsBackend{client: client, collectionID: collectionID}
}

func (b *cmsBackend) CreateItem(ctx context.Context, idempotencyKey string, fields models.ServicePayload) (string, error) {
	item, err := b.client.CreateItem(ctx, b.collectionID, idempotencyKey, fields)
	if err != nil {
		return "", err
	}
	return item.ID, nil
}

type membershipBackend struct {
	client *memberstack.Client
}

// NewMembershipBackend adapts the membership worker client to the coordinator.
func NewMembershipBackend(client *memberstack.Client) saga.MembershipBackend {
	return &membershipBackend{client: client}
}

func (b *membershipBackend) ResolveMember(ctx context.Context, memberRef string) (*models.Member, error) {
	m, err := b.client.GetMember(ctx, memberRef)
	if err != nil {
		return nil, err
	}
	return &models.Member{
		ID:      m.ID,
		Email:   m.Auth.Email,
		Name:    m.Name(),
		Plan:    m.Plan(),
		Credits: m.Credits(),
	}, nil
}

func (b *membershipBackend) AdjustCredits(ctx context.Context, memberRef string, delta int) error {
	return b.client.AdjustCredits(ctx, memberRef, delta)
}

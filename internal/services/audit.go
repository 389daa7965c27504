package services

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"internet-banking/internal/models"
	"internet-banking/internal/repository"
	"internet-banking/internal/utils"
)

const DefaultMyLogsLimit = 20

// Actor identifies who is performing an operation and from where.
type Actor struct {
	AccountID string
	Role      models.Role
	IP        string
}

type AuditService struct {
	store repository.Store
}

func NewAuditService(store repository.Store) *AuditService {
	return &AuditService{store: store}
}

// Record appends one entry through the given repository, normally the one
// bound to the caller's atomic unit.
func (s *AuditService) Record(ctx context.Context, audit repository.AuditRepo, accountID, ip string, action models.AuditAction, metadata map[string]any) (*models.AuditEntry, error) {
	if metadata == nil {
		metadata = map[string]any{}
	}
	raw, err := json.Marshal(metadata)
	if err != nil {
		return nil, fmt.Errorf("encode audit metadata: %w", err)
	}

	entry := &models.AuditEntry{
		ID:        uuid.NewString(),
		AccountID: accountID,
		Action:    action,
		Metadata:  raw,
		IPAddress: ip,
	}
	if err := audit.Create(ctx, entry); err != nil {
		return nil, err
	}

	utils.LogDebug("AuditService", "audit %s recorded for %s", action, accountID)
	return entry, nil
}

func (s *AuditService) ListMine(ctx context.Context, accountID string, page models.Page) (*models.AuditListResponse, error) {
	logs, total, err := s.store.Audit().ListByAccount(ctx, accountID, page)
	if err != nil {
		utils.LogError("AuditService", "failed to list audit entries", err)
		return nil, err
	}
	return &models.AuditListResponse{Logs: logs, Pagination: models.NewPagination(page, total)}, nil
}

func (s *AuditService) ListAll(ctx context.Context, page models.Page) (*models.AuditListResponse, error) {
	logs, total, err := s.store.Audit().List(ctx, page)
	if err != nil {
		utils.LogError("AuditService", "failed to list audit entries", err)
		return nil, err
	}
	return &models.AuditListResponse{Logs: logs, Pagination: models.NewPagination(page, total)}, nil
}

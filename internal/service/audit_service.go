package service

import (
	"context"
	"log/slog"

	"go-ceremony-portal/internal/event"
	"go-ceremony-portal/internal/model"
)

type AuditStore interface {
	Log(ctx context.Context, entry model.AuditEntry) error
	Query(ctx context.Context, query model.AuditQuery) ([]model.AuditEntry, model.Meta, error)
}

// AuditService persists bus events and serves the audit listing.
type AuditService struct {
	store AuditStore
}

func NewAuditService(store AuditStore) *AuditService {
	return &AuditService{store: store}
}

// Consume persists events until ctx is cancelled or the channel closes.
// A failed write is logged and skipped.
func (s *AuditService) Consume(ctx context.Context, events <-chan event.Event) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case e, ok := <-events:
			if !ok {
				return nil
			}
			if err := s.Record(ctx, e); err != nil {
				slog.Warn("audit write failed", "type", e.Type, "error", err)
			}
		}
	}
}

func (s *AuditService) Record(ctx context.Context, e event.Event) error {
	return s.store.Log(ctx, e.AuditEntry())
}

func (s *AuditService) Query(ctx context.Context, query model.AuditQuery) ([]model.AuditEntry, model.Meta, error) {
	return s.store.Query(ctx, query)
}

package service

import (
	"context"
	"fmt"
)

// MaintenanceService houses destructive actions surfaced through the CLI.
type MaintenanceService struct {
	Memory     *MatchMemory
	Ledger     *Ledger
	Duplicates *DuplicateDetector
}

// Reset wipes match memory, payments and account entries. The schema stays.
func (s *MaintenanceService) Reset(ctx context.Context) error {
	if s.Memory == nil || s.Ledger == nil {
		return fmt.Errorf("maintenance: store not configured")
	}
	if err := s.Memory.Store.Delete(ctx, s.Memory.key()); err != nil {
		return fmt.Errorf("reset memory: %w", err)
	}
	if err := s.Ledger.Reset(ctx); err != nil {
		return fmt.Errorf("reset ledger: %w", err)
	}
	return nil
}

// Cleanup removes fingerprint duplicates from the payment ledger.
func (s *MaintenanceService) Cleanup(ctx context.Context) (CleanupReport, error) {
	if s.Duplicates == nil {
		return CleanupReport{}, fmt.Errorf("maintenance: duplicate detector not configured")
	}
	return s.Duplicates.CleanupDuplicateData(ctx)
}

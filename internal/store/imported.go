package store

import (
	"context"
	"fmt"

	"github.com/cleared-dev/tally/internal/model"
)

// externalIDChunk bounds the size of IN lists sent to the database.
const externalIDChunk = 500

// ExternalIDs returns which of ids already exist as imported rows of an account.
func (s *Store) ExternalIDs(ctx context.Context, accountID uint, ids []int64) (map[int64]bool, error) {
	seen := make(map[int64]bool, len(ids))
	for start := 0; start < len(ids); start += externalIDChunk {
		end := min(start+externalIDChunk, len(ids))

		var found []int64
		err := s.db.WithContext(ctx).
			Model(&model.ImportedTransaction{}).
			Where("account_id = ? AND external_id IN ?", accountID, ids[start:end]).
			Pluck("external_id", &found).Error
		if err != nil {
			return nil, fmt.Errorf("reading external ids of account %d: %w", accountID, err)
		}
		for _, id := range found {
			seen[id] = true
		}
	}
	return seen, nil
}

// InsertImported persists a statement row and fills in its ID.
func (s *Store) InsertImported(ctx context.Context, row *model.ImportedTransaction) error {
	if err := s.db.WithContext(ctx).Create(row).Error; err != nil {
		return fmt.Errorf("inserting imported row %d: %w", row.ExternalID, err)
	}
	return nil
}

// LinkImported records the ledger entry created from a statement row.
func (s *Store) LinkImported(ctx context.Context, importedID, transactionID uint) error {
	err := s.db.WithContext(ctx).
		Model(&model.ImportedTransaction{}).
		Where("id = ?", importedID).
		Update("transaction_id", transactionID).Error
	if err != nil {
		return fmt.Errorf("linking imported row %d: %w", importedID, err)
	}
	return nil
}

// ImportedRows lists an account's statement rows by issue date.
func (s *Store) ImportedRows(ctx context.Context, accountID uint) ([]model.ImportedTransaction, error) {
	var rows []model.ImportedTransaction
	err := s.db.WithContext(ctx).
		Where("account_id = ?", accountID).
		Order("issue_date, external_id").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("listing imported rows of account %d: %w", accountID, err)
	}
	return rows, nil
}

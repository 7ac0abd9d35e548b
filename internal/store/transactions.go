package store

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/cleared-dev/tally/internal/model"
)

// Transaction returns a ledger entry by ID. The row is not locked; callers
// that edit it lock its account first.
func (s *Store) Transaction(ctx context.Context, id uint) (*model.Transaction, error) {
	var txn model.Transaction
	if err := s.db.WithContext(ctx).First(&txn, id).Error; err != nil {
		return nil, notFound(err, "transaction %d", id)
	}
	return &txn, nil
}

// Entries returns an account's ledger in ascending ledger order.
func (s *Store) Entries(ctx context.Context, accountID uint) ([]model.Transaction, error) {
	var txns []model.Transaction
	err := s.db.WithContext(ctx).
		Where("account_id = ?", accountID).
		Order("seq").
		Find(&txns).Error
	if err != nil {
		return nil, fmt.Errorf("reading ledger of account %d: %w", accountID, err)
	}
	return txns, nil
}

// Tail returns the last entry of an account's ledger, or nil if it is empty.
func (s *Store) Tail(ctx context.Context, accountID uint) (*model.Transaction, error) {
	var txns []model.Transaction
	err := s.db.WithContext(ctx).
		Where("account_id = ?", accountID).
		Order("seq DESC").
		Limit(1).
		Find(&txns).Error
	if err != nil {
		return nil, fmt.Errorf("reading tail of account %d: %w", accountID, err)
	}
	if len(txns) == 0 {
		return nil, nil
	}
	return &txns[0], nil
}

// Predecessor returns the entry immediately before seq, or nil if seq is
// the first position of the ledger.
func (s *Store) Predecessor(ctx context.Context, accountID uint, seq int64) (*model.Transaction, error) {
	var txns []model.Transaction
	err := s.db.WithContext(ctx).
		Where("account_id = ? AND seq < ?", accountID, seq).
		Order("seq DESC").
		Limit(1).
		Find(&txns).Error
	if err != nil {
		return nil, fmt.Errorf("reading predecessor of %d/%d: %w", accountID, seq, err)
	}
	if len(txns) == 0 {
		return nil, nil
	}
	return &txns[0], nil
}

// Suffix returns the entries after seq in ascending ledger order.
func (s *Store) Suffix(ctx context.Context, accountID uint, afterSeq int64) ([]model.Transaction, error) {
	var txns []model.Transaction
	err := s.db.WithContext(ctx).
		Where("account_id = ? AND seq > ?", accountID, afterSeq).
		Order("seq").
		Find(&txns).Error
	if err != nil {
		return nil, fmt.Errorf("reading suffix of %d/%d: %w", accountID, afterSeq, err)
	}
	return txns, nil
}

// TransferLegs returns the entries sharing a transfer ID, oldest first.
func (s *Store) TransferLegs(ctx context.Context, transferID string) ([]model.Transaction, error) {
	var txns []model.Transaction
	err := s.db.WithContext(ctx).
		Where("transfer_id = ?", transferID).
		Order("id").
		Find(&txns).Error
	if err != nil {
		return nil, fmt.Errorf("reading transfer %s: %w", transferID, err)
	}
	return txns, nil
}

// TransferIDs returns the IDs of transfers with a leg on the account, in
// the order their legs were written.
func (s *Store) TransferIDs(ctx context.Context, accountID uint) ([]string, error) {
	var ids []string
	err := s.db.WithContext(ctx).
		Model(&model.Transaction{}).
		Select("transfer_id").
		Where("account_id = ? AND transfer_id <> ''", accountID).
		Group("transfer_id").
		Order("MIN(id)").
		Pluck("transfer_id", &ids).Error
	if err != nil {
		return nil, fmt.Errorf("listing transfers of account %d: %w", accountID, err)
	}
	return ids, nil
}

// InsertTransaction persists a new entry and fills in its ID.
func (s *Store) InsertTransaction(ctx context.Context, txn *model.Transaction) error {
	if err := s.db.WithContext(ctx).Create(txn).Error; err != nil {
		return fmt.Errorf("inserting transaction: %w", err)
	}
	return nil
}

// SaveTransaction writes every column of an existing entry.
func (s *Store) SaveTransaction(ctx context.Context, txn *model.Transaction) error {
	if err := s.db.WithContext(ctx).Save(txn).Error; err != nil {
		return fmt.Errorf("saving transaction %d: %w", txn.ID, err)
	}
	return nil
}

// UpdateBalance rewrites only the running balance of an entry.
func (s *Store) UpdateBalance(ctx context.Context, id uint, balance decimal.Decimal) error {
	err := s.db.WithContext(ctx).
		Model(&model.Transaction{}).
		Where("id = ?", id).
		Update("balance", balance).Error
	if err != nil {
		return fmt.Errorf("updating balance of transaction %d: %w", id, err)
	}
	return nil
}

// DeleteTransaction removes an entry. A statement row that produced it keeps
// existing, unlinked, so the row is still recognised on re-import.
func (s *Store) DeleteTransaction(ctx context.Context, id uint) error {
	err := s.db.WithContext(ctx).
		Model(&model.ImportedTransaction{}).
		Where("transaction_id = ?", id).
		Update("transaction_id", nil).Error
	if err != nil {
		return fmt.Errorf("unlinking imported row of transaction %d: %w", id, err)
	}

	res := s.db.WithContext(ctx).Delete(&model.Transaction{}, id)
	if res.Error != nil {
		return fmt.Errorf("deleting transaction %d: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("transaction %d: %w", id, model.ErrNotFound)
	}
	return nil
}

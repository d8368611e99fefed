package pgsql

import "gorm.io/gorm"

func (s *Store) Transaction(fc func(tx *gorm.DB) error) error {
	return s.DB.Transaction(fc)
}

// Nested transaction on an existing tx, backed by savepoints.
func TransactionWithTx(tx *gorm.DB, fc func(tx *gorm.DB) error) error {
	return tx.Transaction(fc)
}

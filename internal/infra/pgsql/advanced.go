package pgsql

import "gorm.io/gorm/clause"

// Upsert inserts obj, updating the non-conflict columns when a row
// with the same conflict columns already exists.
func Upsert[T any](s *Store, obj *T, conflictColumns []string, updateColumns []string) error {
	columns := make([]clause.Column, len(conflictColumns))
	for i, c := range conflictColumns {
		columns[i] = clause.Column{Name: c}
	}
	return s.DB.Clauses(clause.OnConflict{
		Columns:   columns,
		DoUpdates: clause.AssignmentColumns(updateColumns),
	}).Create(obj).Error
}

func (s *Store) RawQuery(dest any, query string, args ...any) error {
	return s.DB.Raw(query, args...).Scan(dest).Error
}

func (s *Store) Exec(query string, args ...any) error {
	return s.DB.Exec(query, args...).Error
}

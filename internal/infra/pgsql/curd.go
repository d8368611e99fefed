package pgsql

// Generic shorthands for the common single-model operations. Anything
// beyond these goes through Store.DB with scopes from query.go.

func Create[T any](s *Store, obj *T) error {
	return s.DB.Create(obj).Error
}

func Save[T any](s *Store, obj *T) error {
	return s.DB.Save(obj).Error
}

func UpdateFields[T any](s *Store, obj *T, fields map[string]any) error {
	return s.DB.Model(obj).Updates(fields).Error
}

func Delete[T any](s *Store, conds ...any) error {
	var zero T
	return s.DB.Delete(&zero, conds...).Error
}

func FirstBy[T any](s *Store, cond map[string]any) (*T, error) {
	var out T
	if err := s.DB.Where(cond).First(&out).Error; err != nil {
		return nil, err
	}
	return &out, nil
}

func FindBy[T any](s *Store, cond map[string]any) ([]T, error) {
	var out []T
	if err := s.DB.Where(cond).Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func FindByIDs[T any](s *Store, ids []any) ([]T, error) {
	var out []T
	if err := s.DB.Where("id IN ?", ids).Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func Exists[T any](s *Store, cond map[string]any) (bool, error) {
	var count int64
	var zero T
	if err := s.DB.Model(&zero).Where(cond).Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

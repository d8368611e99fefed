package pgsql

import "gorm.io/gorm"

type Scope = func(db *gorm.DB) *gorm.DB

func Paginate(page, pageSize int) Scope {
	return func(db *gorm.DB) *gorm.DB {
		if page <= 0 {
			page = 1
		}
		if pageSize <= 0 {
			pageSize = 10
		}
		return db.Offset((page - 1) * pageSize).Limit(pageSize)
	}
}

func Like(field, value string) Scope {
	return func(db *gorm.DB) *gorm.DB {
		return db.Where(field+" ILIKE ?", "%"+value+"%")
	}
}

func In(field string, values []any) Scope {
	return func(db *gorm.DB) *gorm.DB {
		return db.Where(field+" IN ?", values)
	}
}

func OrderBy(field string, desc bool) Scope {
	return func(db *gorm.DB) *gorm.DB {
		if desc {
			return db.Order(field + " DESC")
		}
		return db.Order(field + " ASC")
	}
}

func WhereMap(conds map[string]any) Scope {
	return func(db *gorm.DB) *gorm.DB {
		return db.Where(conds)
	}
}

func WhereRange(field string, min, max any) Scope {
	return func(db *gorm.DB) *gorm.DB {
		switch {
		case min != nil && max != nil:
			return db.Where(field+" BETWEEN ? AND ?", min, max)
		case min != nil:
			return db.Where(field+" >= ?", min)
		case max != nil:
			return db.Where(field+" <= ?", max)
		}
		return db
	}
}

// FindPage runs a scoped query twice, once for the total and once for
// the page window. Each run chains from the root handle so the count
// does not consume the scopes meant for the page query.
func FindPage[T any](s *Store, page, pageSize int, scopes ...Scope) (*PageResult[T], error) {
	var list []T
	var total int64
	if err := s.DB.Scopes(scopes...).Model(new(T)).Count(&total).Error; err != nil {
		return nil, err
	}
	if err := s.DB.Scopes(scopes...).Scopes(Paginate(page, pageSize)).Find(&list).Error; err != nil {
		return nil, err
	}
	if pageSize <= 0 {
		pageSize = 10
	}
	pageCount := int((total + int64(pageSize) - 1) / int64(pageSize))
	return &PageResult[T]{
		List:      list,
		Total:     total,
		Page:      page,
		PageSize:  pageSize,
		PageCount: pageCount,
	}, nil
}

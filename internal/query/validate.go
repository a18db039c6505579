package query

import (
	"fmt"
	"slices"
)

// ValidationError describes a single rejected search parameter.
type ValidationError struct {
	Field       string
	Description string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Description)
}

func errPageSize(size int) ValidationError {
	return ValidationError{Field: "pageSize", Description: fmt.Sprintf("must be at least 1, got %d", size)}
}

// ValidateCriteria checks the parts of a search that the engine cannot interpret.
// Reversed date bounds and a minimum above the maximum are not errors; they
// simply match nothing.
func ValidateCriteria(criteria FilterCriteria, sort SortSpec, page Pagination) []ValidationError {
	var errs []ValidationError

	if page.PageSize <= 0 {
		errs = append(errs, errPageSize(page.PageSize))
	}

	if !IsSortField(sort.Field) {
		errs = append(errs, ValidationError{
			Field:       "sort",
			Description: fmt.Sprintf("unknown sort field %q", sort.Field),
		})
	}

	if sort.Order != Asc && sort.Order != Desc {
		errs = append(errs, ValidationError{
			Field:       "order",
			Description: fmt.Sprintf("order must be asc or desc, got %q", sort.Order),
		})
	}

	if criteria.Type != "" && !slices.Contains([]TxnType{TypeAll, TypeDebit, TypeCredit}, criteria.Type) {
		errs = append(errs, ValidationError{
			Field:       "type",
			Description: fmt.Sprintf("type must be all, debit or credit, got %q", criteria.Type),
		})
	}

	return errs
}

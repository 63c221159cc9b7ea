package reconcile

import (
	"fmt"
	"html"
	"net/mail"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/bagdasarian/uniportal-groups/internal/domain"
	"github.com/microcosm-cc/bluemonday"
)

const maxNameLength = 120

var markupPolicy = bluemonday.StrictPolicy()

// Validate проверяет желаемый список до любых изменений в хранилище.
// Порядок проверок: лимит участников, имена и email, id, неизменность создателя.
func Validate(group *domain.Group, desired []domain.DesiredMember) error {
	if len(desired)+1 > group.MaxMembers {
		return &domain.DomainError{
			Code: domain.CodeCapacityExceeded,
			Message: fmt.Sprintf("group allows at most %d members including the creator, got %d",
				group.MaxMembers, len(desired)+1),
		}
	}

	for i, entry := range desired {
		name := strings.TrimSpace(entry.Name)
		if name == "" {
			return domain.NewInvalidMemberError(i, "name is required")
		}
		if utf8.RuneCountInString(name) > maxNameLength {
			return domain.NewInvalidMemberError(i, fmt.Sprintf("name is longer than %d characters", maxNameLength))
		}
		if containsMarkup(name) {
			return domain.NewInvalidMemberError(i, "name must not contain markup")
		}
		if email := strings.TrimSpace(entry.Email); email != "" && !validEmail(email) {
			return domain.NewInvalidMemberError(i, "email is invalid")
		}
	}

	seen := make(map[int64]int, len(desired))
	for i, entry := range desired {
		if entry.ID < 0 {
			return domain.NewInvalidMemberError(i, "member id must be positive")
		}
		if entry.ID == 0 {
			continue
		}
		if first, ok := seen[entry.ID]; ok {
			return domain.NewInvalidMemberError(i, fmt.Sprintf("member id %d already used by member #%d", entry.ID, first))
		}
		seen[entry.ID] = i
	}

	for i, entry := range desired {
		if entry.IsCreator || (entry.ID != 0 && entry.ID == group.Creator.ID) {
			return &domain.DomainError{
				Code:    domain.CodeCreatorImmutable,
				Message: fmt.Sprintf("member #%d: group creator cannot be changed", i),
			}
		}
	}

	return nil
}

// NormalizeDesired обрезает пробелы в именах и email
func NormalizeDesired(desired []domain.DesiredMember) []domain.DesiredMember {
	normalized := make([]domain.DesiredMember, 0, len(desired))
	for _, entry := range desired {
		entry.Name = strings.TrimSpace(entry.Name)
		entry.Email = strings.TrimSpace(entry.Email)
		normalized = append(normalized, entry)
	}
	return normalized
}

// DuplicateNames возвращает имена, которые встречаются в списке больше одного раза.
// Повторы допустимы, участники различаются по id.
func DuplicateNames(desired []domain.DesiredMember) []string {
	counts := make(map[string]int, len(desired))
	first := make(map[string]string, len(desired))
	for _, entry := range desired {
		key := normalizeName(entry.Name)
		counts[key]++
		if _, ok := first[key]; !ok {
			first[key] = strings.TrimSpace(entry.Name)
		}
	}

	var duplicates []string
	for key, count := range counts {
		if count > 1 {
			duplicates = append(duplicates, first[key])
		}
	}
	sort.Strings(duplicates)
	return duplicates
}

func containsMarkup(name string) bool {
	return html.UnescapeString(markupPolicy.Sanitize(name)) != name
}

func validEmail(email string) bool {
	addr, err := mail.ParseAddress(email)
	return err == nil && addr.Address == email
}

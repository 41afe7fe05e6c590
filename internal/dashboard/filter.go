// Package dashboard строит представление заявок для администратора:
// фильтр по статусу, поиск по подстроке и счётчики по статусам.
package dashboard

import (
	"strings"

	"github.com/ignatzorin/delivery-backend/internal/domain/valueobject"
	"github.com/ignatzorin/delivery-backend/internal/models"
	"github.com/ignatzorin/delivery-backend/internal/pkg/apperror"
)

// Filter либо "all", либо один из статусов.
type Filter string

// FilterAll пропускает заявки с любым статусом.
const FilterAll Filter = "all"

// ParseFilter разбирает фильтр из строки запроса. Пустая строка означает all.
func ParseFilter(raw string) (Filter, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" || raw == string(FilterAll) {
		return FilterAll, nil
	}
	if !valueobject.RequestStatus(raw).IsValid() {
		return "", apperror.Validation(map[string]string{"status": "Filtre invalide"})
	}
	return Filter(raw), nil
}

// Matches сообщает, проходит ли заявка фильтр и поиск.
// Поиск регистронезависимый, по имени клиента и описанию.
func Matches(r models.DeliveryRequest, filter Filter, search string) bool {
	if filter != FilterAll && string(r.Status) != string(filter) {
		return false
	}
	if search == "" {
		return true
	}

	needle := strings.ToLower(search)
	return strings.Contains(strings.ToLower(r.ClientName), needle) ||
		strings.Contains(strings.ToLower(r.Description), needle)
}

// Apply возвращает подходящие заявки в исходном порядке. Входной срез не меняется.
func Apply(requests []models.DeliveryRequest, filter Filter, search string) []models.DeliveryRequest {
	out := make([]models.DeliveryRequest, 0, len(requests))
	for _, r := range requests {
		if Matches(r, filter, search) {
			out = append(out, r)
		}
	}
	return out
}

// Stats счётчики заявок по статусам.
type Stats struct {
	Total      int `json:"total"`
	Pending    int `json:"pending"`
	Finding    int `json:"finding"`
	Delivering int `json:"delivering"`
	Completed  int `json:"completed"`
}

// ComputeStats считает по всему набору, без учёта фильтра и поиска.
func ComputeStats(requests []models.DeliveryRequest) Stats {
	stats := Stats{Total: len(requests)}
	for _, r := range requests {
		switch r.Status {
		case valueobject.StatusPending:
			stats.Pending++
		case valueobject.StatusFinding:
			stats.Finding++
		case valueobject.StatusDelivering:
			stats.Delivering++
		case valueobject.StatusCompleted:
			stats.Completed++
		}
	}
	return stats
}

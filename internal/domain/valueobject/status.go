package valueobject

import (
	"database/sql/driver"
	"fmt"

	"github.com/ignatzorin/delivery-backend/internal/pkg/apperror"
)

// RequestStatus этап жизненного цикла заявки.
type RequestStatus string

const (
	StatusPending    RequestStatus = "pending"
	StatusFinding    RequestStatus = "finding"
	StatusDelivering RequestStatus = "delivering"
	StatusCompleted  RequestStatus = "completed"
)

// Statuses перечисляет статусы в порядке жизненного цикла.
var Statuses = []RequestStatus{StatusPending, StatusFinding, StatusDelivering, StatusCompleted}

var statusLabels = map[RequestStatus]string{
	StatusPending:    "En attente",
	StatusFinding:    "Recherche",
	StatusDelivering: "Livraison",
	StatusCompleted:  "Terminé",
}

func (s RequestStatus) IsValid() bool {
	_, ok := statusLabels[s]
	return ok
}

// Label возвращает подпись статуса для интерфейса; для неизвестного статуса возвращается сам статус.
func (s RequestStatus) Label() string {
	if label, ok := statusLabels[s]; ok {
		return label
	}
	return string(s)
}

// Ordinal позиция статуса в цепочке pending → completed, -1 для неизвестного.
func (s RequestStatus) Ordinal() int {
	for i, st := range Statuses {
		if st == s {
			return i
		}
	}
	return -1
}

// Next возвращает следующий статус цепочки. У completed следующего нет.
func (s RequestStatus) Next() (RequestStatus, bool) {
	i := s.Ordinal()
	if i < 0 || i == len(Statuses)-1 {
		return "", false
	}
	return Statuses[i+1], true
}

// IsTerminal сообщает, что статус последний в цепочке.
// Переходы из него при этом не запрещены.
func (s RequestStatus) IsTerminal() bool {
	return s == StatusCompleted
}

// CanTransitionTo разрешает переход в любой валидный статус, в том числе назад
// и из completed: администратор выставляет статус напрямую.
func (s RequestStatus) CanTransitionTo(target RequestStatus) bool {
	return s.IsValid() && target.IsValid()
}

// Value реализует driver.Valuer.
func (s RequestStatus) Value() (driver.Value, error) {
	return string(s), nil
}

// Scan реализует sql.Scanner.
func (s *RequestStatus) Scan(src any) error {
	switch v := src.(type) {
	case string:
		*s = RequestStatus(v)
	case []byte:
		*s = RequestStatus(v)
	default:
		return fmt.Errorf("valueobject: неподдерживаемый тип статуса %T", src)
	}
	return nil
}

func NewRequestStatus(status string) (RequestStatus, error) {
	s := RequestStatus(status)
	if !s.IsValid() {
		return "", apperror.Validation(map[string]string{"status": "Statut invalide"})
	}
	return s, nil
}

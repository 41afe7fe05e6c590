package dashboard

import (
	"github.com/ignatzorin/delivery-backend/internal/catalog"
	"github.com/ignatzorin/delivery-backend/internal/models"
)

// State неизменяемое состояние панели. Меняется только через Reduce.
type State struct {
	Requests []models.DeliveryRequest
	Filter   Filter
	Search   string
}

// NewState начальное состояние: пустой список, фильтр all.
func NewState() State {
	return State{Requests: []models.DeliveryRequest{}, Filter: FilterAll}
}

// Action событие, переводящее панель в новое состояние.
type Action interface {
	reduce(State) State
}

// Loaded заменяет список свежим снимком из хранилища.
type Loaded struct {
	Requests []models.DeliveryRequest
}

// FilterChanged выбирает фильтр по статусу.
type FilterChanged struct {
	Filter Filter
}

// SearchChanged меняет строку поиска.
type SearchChanged struct {
	Search string
}

// StatusChanged подменяет заявку обновлённой версией. Неизвестный id ничего не меняет.
type StatusChanged struct {
	Request models.DeliveryRequest
}

// RequestAdded вставляет новую заявку с сохранением порядка "новые первыми".
type RequestAdded struct {
	Request models.DeliveryRequest
}

// Reduce возвращает новое состояние; исходное не изменяется.
func Reduce(s State, a Action) State {
	if a == nil {
		return s
	}
	return a.reduce(s)
}

func (a Loaded) reduce(s State) State {
	s.Requests = cloneRequests(a.Requests)
	return s
}

func (a FilterChanged) reduce(s State) State {
	s.Filter = a.Filter
	return s
}

func (a SearchChanged) reduce(s State) State {
	s.Search = a.Search
	return s
}

func (a StatusChanged) reduce(s State) State {
	requests := cloneRequests(s.Requests)
	for i := range requests {
		if requests[i].ID == a.Request.ID {
			requests[i] = a.Request
			s.Requests = requests
			return s
		}
	}
	return s
}

func (a RequestAdded) reduce(s State) State {
	requests := make([]models.DeliveryRequest, 0, len(s.Requests)+1)
	inserted := false
	for _, r := range s.Requests {
		if !inserted && !r.CreatedAt.After(a.Request.CreatedAt) {
			requests = append(requests, a.Request)
			inserted = true
		}
		requests = append(requests, r)
	}
	if !inserted {
		requests = append(requests, a.Request)
	}
	s.Requests = requests
	return s
}

// RequestView заявка с подписями для отображения.
type RequestView struct {
	models.DeliveryRequest
	CategoryName string `json:"category_name"`
	StatusLabel  string `json:"status_label"`
}

// View то, что отдаётся панели администратора.
type View struct {
	Requests []RequestView `json:"requests"`
	Stats    Stats         `json:"stats"`
	Filter   Filter        `json:"filter"`
	Search   string        `json:"search"`
}

// View строит представление с названиями категорий из catalog.Default.
func (s State) View() View {
	return s.ViewWith(catalog.Default)
}

// ViewWith строит представление с заданным справочником категорий.
func (s State) ViewWith(registry *catalog.Registry) View {
	filtered := Apply(s.Requests, s.Filter, s.Search)

	views := make([]RequestView, 0, len(filtered))
	for _, r := range filtered {
		views = append(views, RequestView{
			DeliveryRequest: r,
			CategoryName:    registry.DisplayName(r.Category),
			StatusLabel:     r.Status.Label(),
		})
	}

	return View{
		Requests: views,
		Stats:    ComputeStats(s.Requests),
		Filter:   s.Filter,
		Search:   s.Search,
	}
}

func cloneRequests(in []models.DeliveryRequest) []models.DeliveryRequest {
	out := make([]models.DeliveryRequest, len(in))
	copy(out, in)
	return out
}

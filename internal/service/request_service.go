package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/ignatzorin/delivery-backend/internal/catalog"
	"github.com/ignatzorin/delivery-backend/internal/dashboard"
	"github.com/ignatzorin/delivery-backend/internal/domain/valueobject"
	"github.com/ignatzorin/delivery-backend/internal/logger"
	"github.com/ignatzorin/delivery-backend/internal/models"
	"github.com/ignatzorin/delivery-backend/internal/notify"
	"github.com/ignatzorin/delivery-backend/internal/pkg/apperror"
	"github.com/ignatzorin/delivery-backend/internal/repository"
	"github.com/ignatzorin/delivery-backend/internal/storage"
	"github.com/ignatzorin/delivery-backend/internal/validation"
	"github.com/ignatzorin/delivery-backend/internal/ws"
)

// Тексты уведомлений для администраторов и клиента формы.
const (
	MsgSubmitSuccess       = "Demande envoyée avec succès!"
	MsgSubmitFailure       = "Erreur lors de l'envoi de la demande"
	MsgStatusUpdateSuccess = "Statut mis à jour avec succès!"
	MsgStatusUpdateFailure = "Erreur lors de la mise à jour du statut"
	MsgLoadFailure         = "Erreur lors du chargement des demandes"
)

// Broadcaster рассылает сигнал обновления подключённым администраторам.
type Broadcaster interface {
	Broadcast(event string, data any) error
}

// Notifier ставит уведомление в очередь.
type Notifier interface {
	Notify(kind notify.Kind, message string, duration time.Duration) notify.Notification
}

// PhotoStore сохраняет фотографии заявок.
type PhotoStore interface {
	Save(ctx context.Context, r io.Reader) (*storage.StoredPhoto, error)
	Delete(ctx context.Context, relativePath string) error
	MaxUploadBytes() int64
}

// ImageUpload фотография из формы. Size < 0, если размер заранее неизвестен.
type ImageUpload struct {
	Reader io.Reader
	Size   int64
}

// SubmitInput сырые значения формы заявки.
type SubmitInput struct {
	ClientName  string
	ClientPhone string
	Description string
	Category    string
	Budget      string
	Image       *ImageUpload
}

// SubmitResult созданная заявка и уведомление об успехе.
type SubmitResult struct {
	Request      *models.DeliveryRequest `json:"request"`
	Notification notify.Notification     `json:"notification"`
}

// StatusResult обновлённая заявка и уведомление.
type StatusResult struct {
	Request      *models.DeliveryRequest `json:"request"`
	Notification notify.Notification     `json:"notification"`
}

// RequestService бизнес-логика заявок: приём, смена статуса, панель администратора.
type RequestService struct {
	repo       repository.DeliveryRequestRepository
	categories *catalog.Registry
	photos     PhotoStore
	hub        Broadcaster
	notifier   Notifier
	timeout    time.Duration
}

// NewRequestService создаёт сервис. photos может быть nil: тогда фотографии не принимаются.
func NewRequestService(
	repo repository.DeliveryRequestRepository,
	categories *catalog.Registry,
	photos PhotoStore,
	hub Broadcaster,
	notifier Notifier,
	timeout time.Duration,
) *RequestService {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &RequestService{
		repo:       repo,
		categories: categories,
		photos:     photos,
		hub:        hub,
		notifier:   notifier,
		timeout:    timeout,
	}
}

// Submit проверяет форму, сохраняет фотографию и создаёт заявку со статусом pending.
// Ошибки всех полей возвращаются вместе; при ошибке валидации хранилище не вызывается.
func (s *RequestService) Submit(ctx context.Context, in SubmitInput) (*SubmitResult, error) {
	log := logger.WithComponent("request_service")

	name := strings.TrimSpace(in.ClientName)
	phone := strings.TrimSpace(in.ClientPhone)
	description := strings.TrimSpace(in.Description)
	category := strings.TrimSpace(in.Category)

	errs := validation.FieldErrors{}
	errs.Check("client_name", validation.ValidateNonEmpty(name, validation.MsgNameRequired))
	errs.Check("client_phone", validation.ValidatePhone(phone))
	errs.Check("description", validation.ValidateNonEmpty(description, validation.MsgDescriptionRequired))
	switch {
	case category == "":
		errs.Add("category", validation.MsgCategoryRequired)
	case !s.categories.Has(category):
		errs.Add("category", validation.MsgCategoryUnknown)
	}
	budget, err := validation.ParseBudget(in.Budget)
	errs.Check("budget", err)

	if in.Image != nil {
		switch {
		case s.photos == nil:
			errs.Add("image", validation.MsgImageInvalid)
		case in.Image.Size > s.photos.MaxUploadBytes():
			errs.Add("image", validation.MsgImageTooLarge)
		}
	}

	if err := errs.Err(); err != nil {
		return nil, err
	}

	var photo *storage.StoredPhoto
	if in.Image != nil {
		photo, err = s.photos.Save(ctx, in.Image.Reader)
		switch {
		case errors.Is(err, storage.ErrTooLarge):
			return nil, apperror.Validation(map[string]string{"image": validation.MsgImageTooLarge})
		case errors.Is(err, storage.ErrNotImage):
			return nil, apperror.Validation(map[string]string{"image": validation.MsgImageInvalid})
		case err != nil:
			s.notify(notify.KindError, MsgSubmitFailure)
			return nil, apperror.Persistence(fmt.Errorf("request service: сохранение фото: %w", err), MsgSubmitFailure)
		}
	}

	req := &models.DeliveryRequest{
		ClientName:  name,
		ClientPhone: phone,
		Description: description,
		Category:    category,
		Budget:      budget,
		Status:      valueobject.StatusPending,
	}
	if photo != nil {
		url := photo.PublicURL
		req.Image = &url
	}

	opCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	id, err := s.repo.Create(opCtx, req)
	if err != nil {
		if photo != nil {
			if delErr := s.photos.Delete(context.WithoutCancel(ctx), photo.RelativePath); delErr != nil {
				log.WithError(delErr).Warn("не удалось удалить фото несохранённой заявки")
			}
		}
		log.WithError(err).Error("не удалось сохранить заявку")
		s.notify(notify.KindError, MsgSubmitFailure)
		return nil, apperror.Persistence(err, MsgSubmitFailure)
	}
	req.ID = id

	log.WithFields(logrus.Fields{
		"request_id": req.ID,
		"category":   req.Category,
	}).Info("заявка создана")

	s.broadcast(map[string]string{"reason": "created", "id": req.ID})
	n := s.notify(notify.KindSuccess, MsgSubmitSuccess)

	return &SubmitResult{Request: req, Notification: n}, nil
}

// UpdateStatus переводит заявку в указанный статус. Допустим переход в любой валидный статус.
func (s *RequestService) UpdateStatus(ctx context.Context, id, rawStatus string) (*StatusResult, error) {
	log := logger.WithComponent("request_service").WithField("request_id", id)

	status, err := valueobject.NewRequestStatus(strings.TrimSpace(rawStatus))
	if err != nil {
		return nil, err
	}

	opCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	updated, err := s.repo.UpdateStatus(opCtx, id, status)
	if err != nil {
		if apperror.IsNotFound(err) {
			// Администратор видел заявку, которой нет: рассинхронизация списка
			log.Warn("смена статуса для несуществующей заявки")
			return nil, err
		}
		log.WithError(err).Error("не удалось обновить статус")
		s.notify(notify.KindError, MsgStatusUpdateFailure)
		if apperror.IsPersistence(err) {
			return nil, err
		}
		return nil, apperror.Persistence(err, MsgStatusUpdateFailure)
	}

	log.WithField("status", updated.Status).Info("статус заявки обновлён")

	s.broadcast(map[string]string{"reason": "status_updated", "id": updated.ID, "status": string(updated.Status)})
	n := s.notify(notify.KindSuccess, MsgStatusUpdateSuccess)

	return &StatusResult{Request: updated, Notification: n}, nil
}

// List возвращает все заявки, новые первыми.
func (s *RequestService) List(ctx context.Context) ([]models.DeliveryRequest, error) {
	opCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	requests, err := s.repo.List(opCtx)
	if err != nil {
		logger.WithComponent("request_service").WithError(err).Error("не удалось загрузить заявки")
		s.notify(notify.KindError, MsgLoadFailure)
		return nil, err
	}
	return requests, nil
}

// Dashboard строит представление панели из свежего снимка хранилища.
func (s *RequestService) Dashboard(ctx context.Context, rawFilter, search string) (*dashboard.View, error) {
	filter, err := dashboard.ParseFilter(rawFilter)
	if err != nil {
		return nil, err
	}

	requests, err := s.List(ctx)
	if err != nil {
		return nil, err
	}

	state := dashboard.NewState()
	state = dashboard.Reduce(state, dashboard.Loaded{Requests: requests})
	state = dashboard.Reduce(state, dashboard.FilterChanged{Filter: filter})
	state = dashboard.Reduce(state, dashboard.SearchChanged{Search: search})

	view := state.ViewWith(s.categories)
	return &view, nil
}

// Stats считает заявки по статусам.
func (s *RequestService) Stats(ctx context.Context) (dashboard.Stats, error) {
	requests, err := s.List(ctx)
	if err != nil {
		return dashboard.Stats{}, err
	}
	return dashboard.ComputeStats(requests), nil
}

func (s *RequestService) broadcast(data map[string]string) {
	if s.hub == nil {
		return
	}
	if err := s.hub.Broadcast(ws.EventRequestsChanged, data); err != nil {
		logger.WithComponent("request_service").WithError(err).Warn("не удалось разослать сигнал обновления")
	}
}

func (s *RequestService) notify(kind notify.Kind, message string) notify.Notification {
	if s.notifier == nil {
		return notify.Notification{Kind: kind, Message: message}
	}
	return s.notifier.Notify(kind, message, 0)
}

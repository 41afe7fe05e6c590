package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/ignatzorin/delivery-backend/internal/dto"
	"github.com/ignatzorin/delivery-backend/internal/http/handlers/common"
	"github.com/ignatzorin/delivery-backend/internal/pkg/apperror"
	"github.com/ignatzorin/delivery-backend/internal/service"
	"github.com/ignatzorin/delivery-backend/internal/storage"
	"github.com/ignatzorin/delivery-backend/internal/validation"
)

// RequestHandler принимает заявки из публичной формы.
type RequestHandler struct {
	requests     *service.RequestService
	maxBodyBytes int64
}

// NewRequestHandler создаёт хэндлер. maxUploadBytes задаёт лимит фотографии, тело запроса может быть
// немного больше из-за base64 и полей формы.
func NewRequestHandler(requests *service.RequestService, maxUploadBytes int64) *RequestHandler {
	return &RequestHandler{
		requests:     requests,
		maxBodyBytes: maxUploadBytes*4/3 + 64*1024,
	}
}

// Submit обрабатывает POST /api/requests (JSON или multipart/form-data).
func (h *RequestHandler) Submit(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxBodyBytes)

	var (
		in  service.SubmitInput
		err error
	)
	if strings.HasPrefix(c.ContentType(), "multipart/form-data") {
		var closeFile func()
		in, closeFile, err = h.bindMultipart(c)
		defer closeFile()
	} else {
		in, err = h.bindJSON(c)
	}
	if err != nil {
		common.Fail(c, err)
		return
	}

	result, err := h.requests.Submit(c.Request.Context(), in)
	if err != nil {
		common.Fail(c, err)
		return
	}

	common.RespondSuccess(c, http.StatusCreated, result)
}

func (h *RequestHandler) bindJSON(c *gin.Context) (service.SubmitInput, error) {
	var req dto.SubmitRequestPayload
	if err := c.ShouldBindJSON(&req); err != nil {
		return service.SubmitInput{}, bodyError(err)
	}

	in := service.SubmitInput{
		ClientName:  req.ClientName,
		ClientPhone: req.ClientPhone,
		Description: req.Description,
		Category:    req.Category,
		Budget:      string(req.Budget),
	}

	if strings.TrimSpace(req.Image) != "" {
		reader, err := storage.DecodeDataURL(req.Image)
		if err != nil {
			return service.SubmitInput{}, apperror.Validation(map[string]string{"image": validation.MsgImageInvalid})
		}
		in.Image = &service.ImageUpload{Reader: reader, Size: -1}
	}

	return in, nil
}

func (h *RequestHandler) bindMultipart(c *gin.Context) (service.SubmitInput, func(), error) {
	noop := func() {}

	in := service.SubmitInput{
		ClientName:  c.PostForm("client_name"),
		ClientPhone: c.PostForm("client_phone"),
		Description: c.PostForm("description"),
		Category:    c.PostForm("category"),
		Budget:      c.PostForm("budget"),
	}

	fileHeader, err := c.FormFile("image")
	switch {
	case errors.Is(err, http.ErrMissingFile):
		return in, noop, nil
	case err != nil:
		return service.SubmitInput{}, noop, bodyError(err)
	}

	file, err := fileHeader.Open()
	if err != nil {
		return service.SubmitInput{}, noop, apperror.Validation(map[string]string{"image": validation.MsgImageInvalid})
	}

	in.Image = &service.ImageUpload{Reader: file, Size: fileHeader.Size}
	return in, func() { _ = file.Close() }, nil
}

// bodyError отличает слишком большое тело от просто некорректного.
func bodyError(err error) error {
	var maxErr *http.MaxBytesError
	if errors.As(err, &maxErr) {
		return apperror.Validation(map[string]string{"image": validation.MsgImageTooLarge})
	}
	return apperror.Wrap(err, apperror.ErrCodeBadRequest, "Requête invalide")
}

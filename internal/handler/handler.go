package handler

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/GoArmGo/PromptReveal/internal/core/ports"
	"github.com/GoArmGo/PromptReveal/internal/domain"
	"github.com/GoArmGo/PromptReveal/internal/upload"
	"github.com/GoArmGo/PromptReveal/internal/usecase"
)

// formOverhead — запас на поля multipart-формы сверх размера файла.
const formOverhead = 1 << 20

// PromptHandler — обработчик HTTP-запросов загрузки и просмотра промптов.
type PromptHandler struct {
	promptUseCase usecase.PromptUseCase
	uploadLimiter chan struct{}
	logger        *slog.Logger
}

// NewPromptHandler создаёт новый экземпляр PromptHandler.
// limiter ограничивает число одновременных загрузок; с nil ограничения нет.
func NewPromptHandler(uc usecase.PromptUseCase, limiter chan struct{}, logger *slog.Logger) *PromptHandler {
	return &PromptHandler{
		promptUseCase: uc,
		uploadLimiter: limiter,
		logger:        logger,
	}
}

// respondWithJSON — отправляет JSON-ответ клиенту.
func respondWithJSON(w http.ResponseWriter, code int, payload interface{}, logger *slog.Logger) {
	response, err := json.Marshal(payload)
	if err != nil {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		logger.Error("failed to marshal JSON response", "error", err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if _, err = w.Write(response); err != nil {
		logger.Error("failed to write HTTP response", "error", err)
	}
}

// respondWithError — отправляет JSON-ответ с ошибкой.
func respondWithError(w http.ResponseWriter, code int, message string, logger *slog.Logger) {
	respondWithJSON(w, code, map[string]string{"error": message}, logger)
}

// statusFor: ошибки запроса дают 400, остальное 500.
func statusFor(f *usecase.Failure) int {
	if f != nil && f.ClientError() {
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

// acquire занимает слот загрузки; false, если клиент ушёл раньше.
func (h *PromptHandler) acquire(r *http.Request) (release func(), ok bool) {
	if h.uploadLimiter == nil {
		return func() {}, true
	}
	select {
	case h.uploadLimiter <- struct{}{}:
		return func() { <-h.uploadLimiter }, true
	case <-r.Context().Done():
		return nil, false
	}
}

// readFile разбирает multipart-форму и читает поле file.
// Возвращает сообщение для клиента, если файла нет или тело слишком большое.
func (h *PromptHandler) readFile(w http.ResponseWriter, r *http.Request) (usecase.FileInput, string) {
	r.Body = http.MaxBytesReader(w, r.Body, upload.MaxFileSize+formOverhead)
	if err := r.ParseMultipartForm(upload.MaxFileSize + formOverhead); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return usecase.FileInput{}, "File too large. Maximum size is 10MB."
		}
		h.logger.Warn("failed to parse multipart form", "error", err)
		return usecase.FileInput{}, "No file provided"
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		return usecase.FileInput{}, "No file provided"
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		h.logger.Warn("failed to read uploaded file", "file", header.Filename, "error", err)
		return usecase.FileInput{}, "No file provided"
	}

	return usecase.FileInput{
		FileName:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Data:        data,
	}, ""
}

// UploadImage — POST /api/upload: загрузка изображения без создания промпта.
func (h *PromptHandler) UploadImage(w http.ResponseWriter, r *http.Request) {
	release, ok := h.acquire(r)
	if !ok {
		respondWithError(w, http.StatusServiceUnavailable, "Request cancelled", h.logger)
		return
	}
	defer release()

	in, msg := h.readFile(w, r)
	if msg != "" {
		respondWithError(w, http.StatusBadRequest, msg, h.logger)
		return
	}

	res, err := h.promptUseCase.UploadImage(r.Context(), in)
	if err != nil {
		f := usecase.AsFailure(err)
		h.logger.Warn("upload rejected", "file", in.FileName, "stage", f.Stage, "kind", f.Kind, "error", err)
		respondWithError(w, statusFor(f), f.Message, h.logger)
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]interface{}{"success": true, "data": res}, h.logger)
}

// CreatePrompt создаёт промпт по уже загруженному изображению (POST /api/prompts).
func (h *PromptHandler) CreatePrompt(w http.ResponseWriter, r *http.Request) {
	var in usecase.CreatePromptInput
	if err := json.NewDecoder(io.LimitReader(r.Body, formOverhead)).Decode(&in); err != nil {
		h.logger.Warn("invalid create prompt body", "error", err)
		respondWithJSON(w, http.StatusBadRequest, usecase.CreateResult{Error: "Invalid request body"}, h.logger)
		return
	}

	res := h.promptUseCase.CreatePrompt(r.Context(), in)
	if !res.Success {
		respondWithJSON(w, statusFor(res.Failure), res, h.logger)
		return
	}
	respondWithJSON(w, http.StatusCreated, res, h.logger)
}

// IngestPrompt — POST /api/prompts/ingest: файл и поля формы за один запрос.
func (h *PromptHandler) IngestPrompt(w http.ResponseWriter, r *http.Request) {
	release, ok := h.acquire(r)
	if !ok {
		respondWithError(w, http.StatusServiceUnavailable, "Request cancelled", h.logger)
		return
	}
	defer release()

	file, msg := h.readFile(w, r)
	if msg != "" {
		respondWithJSON(w, http.StatusBadRequest, usecase.IngestResult{Error: msg, Stage: usecase.StageReceived}, h.logger)
		return
	}

	res := h.promptUseCase.Ingest(r.Context(), usecase.IngestInput{
		File: file,
		Prompt: usecase.CreatePromptInput{
			Title:          r.FormValue("title"),
			PromptText:     r.FormValue("promptText"),
			NegativePrompt: r.FormValue("negativePrompt"),
			Category:       r.FormValue("category"),
			Generator:      r.FormValue("model"),
			Tags:           domain.SplitTags(r.FormValue("tags")),
			UserID:         r.FormValue("userId"),
			UserEmail:      r.FormValue("userEmail"),
			UserName:       r.FormValue("userName"),
			UserAvatar:     r.FormValue("userAvatar"),
		},
	})
	if !res.Success {
		respondWithJSON(w, statusFor(res.Failure), res, h.logger)
		return
	}

	h.logger.Info("prompt ingested", "id", res.Content.ID, "key", res.Upload.Key)
	respondWithJSON(w, http.StatusCreated, res, h.logger)
}

// ListPrompts: GET /api/prompts?sort=&limit=&offset=&category=
func (h *PromptHandler) ListPrompts(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	limit, _ := strconv.Atoi(q.Get("limit"))
	offset, _ := strconv.Atoi(q.Get("offset"))

	prompts, err := h.promptUseCase.ListPrompts(r.Context(), usecase.ListQuery{
		Sort:     ports.SortOrder(strings.ToLower(q.Get("sort"))),
		Limit:    limit,
		Offset:   offset,
		Category: q.Get("category"),
	})
	if err != nil {
		h.logger.Error("failed to list prompts", "error", err)
		respondWithError(w, http.StatusInternalServerError, "Failed to load prompts", h.logger)
		return
	}
	respondWithJSON(w, http.StatusOK, prompts, h.logger)
}

// GetPrompt: GET /api/prompts/{id}
func (h *PromptHandler) GetPrompt(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	prompt, err := h.promptUseCase.GetPrompt(r.Context(), id)
	if err != nil {
		h.logger.Error("failed to get prompt", "id", id, "error", err)
		respondWithError(w, http.StatusInternalServerError, "Failed to load prompt", h.logger)
		return
	}
	if prompt == nil {
		respondWithError(w, http.StatusNotFound, "Prompt not found", h.logger)
		return
	}
	respondWithJSON(w, http.StatusOK, prompt, h.logger)
}

// Home: GET /api/home
func (h *PromptHandler) Home(w http.ResponseWriter, r *http.Request) {
	home, err := h.promptUseCase.Home(r.Context())
	if err != nil {
		h.logger.Error("failed to build home view", "error", err)
		respondWithError(w, http.StatusInternalServerError, "Failed to load home page", h.logger)
		return
	}
	respondWithJSON(w, http.StatusOK, home, h.logger)
}

// Categories: GET /api/categories
func (h *PromptHandler) Categories(w http.ResponseWriter, r *http.Request) {
	cards, err := h.promptUseCase.CategoryCards(r.Context())
	if err != nil {
		h.logger.Error("failed to load categories", "error", err)
		respondWithError(w, http.StatusInternalServerError, "Failed to load categories", h.logger)
		return
	}
	respondWithJSON(w, http.StatusOK, cards, h.logger)
}

// Generators отдаёт варианты для выпадающего списка формы.
func (h *PromptHandler) Generators(w http.ResponseWriter, r *http.Request) {
	respondWithJSON(w, http.StatusOK, domain.GeneratorOptions, h.logger)
}

func (h *PromptHandler) Health(w http.ResponseWriter, r *http.Request) {
	respondWithJSON(w, http.StatusOK, map[string]string{"status": "ok"}, h.logger)
}

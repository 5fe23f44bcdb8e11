package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/GoArmGo/PromptReveal/internal/cache"
	"github.com/GoArmGo/PromptReveal/internal/core/ports"
	"github.com/GoArmGo/PromptReveal/internal/domain"
	"github.com/GoArmGo/PromptReveal/internal/media"
	"github.com/GoArmGo/PromptReveal/internal/messaging/payloads"
	"github.com/GoArmGo/PromptReveal/internal/metrics"
	"github.com/GoArmGo/PromptReveal/internal/upload"
)

const (
	homeLatestLimit  = 12
	homePopularLimit = 8
	defaultListLimit = 100
)

// promptUseCase implements PromptUseCase
type promptUseCase struct {
	contents      ports.ContentStorage
	files         ports.FileStorage
	images        ImageProcessor
	orphans       ports.OrphanCleanupPublisher
	views         *cache.Views
	metrics       *metrics.Metrics
	defaultAuthor ports.AuthorInput
	logger        *slog.Logger
}

// NewPromptUseCase создает новый экземпляр PromptUseCase.
// files равен nil, если хранилище не настроено: загрузка тогда отвечает ErrStorageNotConfigured.
// orphans равен nil без очереди: "осиротевшие" ключи только логируются.
func NewPromptUseCase(
	contents ports.ContentStorage,
	files ports.FileStorage,
	images ImageProcessor,
	orphans ports.OrphanCleanupPublisher,
	views *cache.Views,
	m *metrics.Metrics,
	defaultAuthor ports.AuthorInput,
	logger *slog.Logger,
) PromptUseCase {
	if views == nil {
		views = cache.NewViews(0, 0)
	}
	return &promptUseCase{
		contents:      contents,
		files:         files,
		images:        images,
		orphans:       orphans,
		views:         views,
		metrics:       m,
		defaultAuthor: defaultAuthor,
		logger:        logger,
	}
}

// UploadImage: received → validated → derived → original_stored → thumbnail_stored.
// Ошибка записи миниатюры не фатальна: вместо неё отдаётся адрес оригинала.
func (uc *promptUseCase) UploadImage(ctx context.Context, in FileInput) (res *UploadResult, err error) {
	stage := StageReceived
	started := time.Now()
	defer func() {
		if r := recover(); r != nil {
			uc.logger.Error("panic in upload pipeline", "stage", stage, "panic", r)
			res, err = nil, &Failure{Stage: stage, Kind: KindInternal, Message: "Internal server error", Err: fmt.Errorf("panic: %v", r)}
		}
		if err != nil {
			f := AsFailure(err)
			uc.metrics.IncFailure(string(f.Stage), string(f.Kind))
		}
	}()

	if uc.files == nil {
		return nil, &Failure{Stage: stage, Kind: KindNotConfigured, Message: ErrStorageNotConfigured.Error(), Err: ErrStorageNotConfigured}
	}

	stage = StageValidated
	t := time.Now()
	if err := upload.Validate(in.ContentType, int64(len(in.Data))); err != nil {
		uc.observe(stage, t, err)
		return nil, invalid(stage, err.Error(), err)
	}
	uc.observe(stage, t, nil)

	stage = StageDerived
	t = time.Now()
	d, err := uc.images.Derive(in.Data)
	uc.observe(stage, t, err)
	if err != nil {
		if errors.Is(err, media.ErrTooManyPixels) {
			return nil, invalid(stage, "Image dimensions are too large.", err)
		}
		return nil, invalid(stage, "Invalid or corrupted image file.", err)
	}

	stage = StageOriginalStored
	t = time.Now()
	if err := uc.files.EnsureBucket(ctx); err != nil {
		uc.observe(stage, t, err)
		return nil, uc.storageFailure(stage, err)
	}

	fileName := domain.ObjectFileName(uuid.NewString(), upload.Extension(in.FileName, in.ContentType))
	key := domain.OriginalKey(fileName)
	if err := uc.files.Put(ctx, key, in.Data, upload.NormalizeType(in.ContentType)); err != nil {
		uc.observe(stage, t, err)
		return nil, uc.storageFailure(stage, err)
	}
	uc.observe(stage, t, nil)

	url := uc.files.PublicURL(key)
	res = &UploadResult{
		URL:         url,
		Key:         key,
		BlurDataURL: d.BlurDataURL,
		Width:       d.Metadata.Width,
		Height:      d.Metadata.Height,
		Format:      d.Metadata.Format,
		Size:        len(in.Data),
		storedKeys:  []string{key},
	}

	stage = StageThumbnailStored
	t = time.Now()
	thumbKey := domain.ThumbnailKey(fileName)
	if err := uc.files.Put(ctx, thumbKey, d.Thumbnail, media.ThumbnailContentType); err != nil {
		uc.observe(stage, t, err)
		uc.metrics.IncThumbnailFallback()
		uc.logger.Warn("thumbnail upload failed, using original image",
			"key", thumbKey,
			"category", ports.StorageCategoryOf(err),
			"error", err,
		)
		res.ThumbnailURL = url
	} else {
		uc.observe(stage, t, nil)
		res.ThumbnailURL = uc.files.PublicURL(thumbKey)
		res.storedKeys = append(res.storedKeys, thumbKey)
	}

	uc.logger.Info("image uploaded",
		"key", key,
		"size", res.Size,
		"width", res.Width,
		"height", res.Height,
		"format", res.Format,
		"duration_ms", time.Since(started).Milliseconds(),
	)
	return res, nil
}

// CreatePrompt проверяет поля, находит автора, сохраняет промпт и сбрасывает
// кэш главной, галереи и категорий.
func (uc *promptUseCase) CreatePrompt(ctx context.Context, in CreatePromptInput) (res CreateResult) {
	defer func() {
		if r := recover(); r != nil {
			uc.logger.Error("panic while creating prompt", "panic", r)
			res = failedCreate(&Failure{Stage: StagePersisted, Kind: KindInternal, Message: "Failed to create prompt", Err: fmt.Errorf("panic: %v", r)})
		}
		if res.Failure != nil {
			uc.metrics.IncFailure(string(res.Failure.Stage), string(res.Failure.Kind))
		}
	}()

	if f := validatePromptFields(in); f != nil {
		return failedCreate(f)
	}
	if strings.TrimSpace(in.Image.URL) == "" || strings.TrimSpace(in.Image.Key) == "" {
		return failedCreate(invalid(StageValidated, "Image is required", nil))
	}

	generator, known := domain.NormalizeGenerator(in.Generator)
	if !known {
		uc.logger.Warn("unknown generator coerced to default", "given", in.Generator, "generator", generator)
	}

	author := ports.AuthorInput{ID: in.UserID, Email: in.UserEmail, Name: in.UserName, Avatar: in.UserAvatar}
	if strings.TrimSpace(author.ID) == "" && strings.TrimSpace(author.Email) == "" {
		author = uc.defaultAuthor
	}

	t := time.Now()
	authorID, err := uc.contents.ResolveAuthor(ctx, author)
	if err != nil {
		uc.observe(StagePersisted, t, err)
		uc.logger.Error("failed to resolve author", "error", err)
		return failedCreate(&Failure{Stage: StagePersisted, Kind: KindPersistence, Message: "Failed to create prompt", Err: err})
	}

	item, err := uc.contents.CreateContent(ctx, ports.NewContent{
		AuthorID:       authorID,
		Title:          strings.TrimSpace(in.Title),
		PromptText:     strings.TrimSpace(in.PromptText),
		NegativePrompt: strings.TrimSpace(in.NegativePrompt),
		Category:       strings.TrimSpace(in.Category),
		Generator:      generator,
		Image:          in.Image,
		Tags:           in.Tags,
	})
	uc.observe(StagePersisted, t, err)
	if err != nil {
		uc.logger.Error("failed to persist prompt", "title", in.Title, "error", err)
		return failedCreate(&Failure{Stage: StagePersisted, Kind: KindPersistence, Message: "Failed to create prompt", Err: err})
	}

	removed := uc.views.Invalidate(cache.ViewHome, cache.ViewGallery, cache.ViewCategories)
	uc.logger.Info("prompt created", "id", item.ID, "slug", item.Slug, "invalidated_views", removed)

	view := NewPromptView(item)
	return CreateResult{Success: true, Prompt: &view}
}

// Ingest выполняет весь конвейер и никогда не паникует наружу.
// Если после записи в бакет сохранить промпт не удалось, ключи уходят в очередь очистки.
func (uc *promptUseCase) Ingest(ctx context.Context, in IngestInput) (res IngestResult) {
	started := time.Now()
	defer func() {
		if r := recover(); r != nil {
			uc.logger.Error("panic in ingestion", "panic", r)
			res = failedIngest(&Failure{Stage: StageFailed, Kind: KindInternal, Message: "Internal server error", Err: fmt.Errorf("panic: %v", r)}, nil)
		}
	}()

	if f := validatePromptFields(in.Prompt); f != nil {
		f.Stage = StageReceived
		uc.metrics.IncFailure(string(f.Stage), string(f.Kind))
		return failedIngest(f, nil)
	}

	uploaded, err := uc.UploadImage(ctx, in.File)
	if err != nil {
		return failedIngest(AsFailure(err), nil)
	}

	p := in.Prompt
	p.Image = uploaded.ImageRefs()
	created := uc.CreatePrompt(ctx, p)
	if !created.Success {
		uc.releaseOrphans(ctx, uploaded.storedKeys, created.Failure)
		return failedIngest(created.Failure, uploaded)
	}

	uc.observe(StageDone, started, nil)
	return IngestResult{Success: true, Content: created.Prompt, Upload: uploaded, Stage: StageDone}
}

// ListPrompts отдаёт страницу галереи; если задан Category, то все промпты категории.
func (uc *promptUseCase) ListPrompts(ctx context.Context, q ListQuery) ([]PromptView, error) {
	if strings.TrimSpace(q.Category) != "" {
		return uc.ListByCategory(ctx, q.Category)
	}

	sort := ports.SortNewest
	if q.Sort == ports.SortPopular {
		sort = ports.SortPopular
	}
	limit := q.Limit
	if limit <= 0 {
		limit = defaultListLimit
	}
	offset := q.Offset
	if offset < 0 {
		offset = 0
	}

	key := cache.Key(cache.ViewGallery, string(sort), strconv.Itoa(limit), strconv.Itoa(offset))
	if cached, ok := uc.views.Get(key); ok {
		return cached.([]PromptView), nil
	}

	gen := uc.views.Generation()
	items, err := uc.contents.ListPublic(ctx, ports.ListOptions{Sort: sort, Limit: limit, Offset: offset})
	if err != nil {
		return nil, fmt.Errorf("usecase: ошибка при получении галереи: %w", err)
	}
	views := toViews(items)
	uc.views.SetIfCurrent(key, views, gen)
	return views, nil
}

// ListByCategory отдаёт публичные промпты категории (без учёта регистра).
func (uc *promptUseCase) ListByCategory(ctx context.Context, category string) ([]PromptView, error) {
	category = strings.TrimSpace(category)
	key := cache.Key(cache.ViewGallery, "category", strings.ToLower(category))
	if cached, ok := uc.views.Get(key); ok {
		return cached.([]PromptView), nil
	}

	gen := uc.views.Generation()
	items, err := uc.contents.ListPublicByCategory(ctx, category)
	if err != nil {
		return nil, fmt.Errorf("usecase: ошибка при получении промптов категории %q: %w", category, err)
	}
	views := toViews(items)
	uc.views.SetIfCurrent(key, views, gen)
	return views, nil
}

// GetPrompt возвращает промпт по id или nil, если его нет.
func (uc *promptUseCase) GetPrompt(ctx context.Context, id string) (*PromptView, error) {
	item, err := uc.contents.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("usecase: ошибка при получении промпта %s: %w", id, err)
	}
	if item == nil {
		return nil, nil
	}
	view := NewPromptView(item)
	return &view, nil
}

// Home собирает главную страницу: свежие и популярные промпты.
func (uc *promptUseCase) Home(ctx context.Context) (*HomeView, error) {
	if cached, ok := uc.views.Get(cache.ViewHome); ok {
		return cached.(*HomeView), nil
	}

	gen := uc.views.Generation()
	latest, err := uc.contents.ListPublic(ctx, ports.ListOptions{Sort: ports.SortNewest, Limit: homeLatestLimit})
	if err != nil {
		return nil, fmt.Errorf("usecase: ошибка при получении свежих промптов: %w", err)
	}
	popular, err := uc.contents.ListPublic(ctx, ports.ListOptions{Sort: ports.SortPopular, Limit: homePopularLimit})
	if err != nil {
		return nil, fmt.Errorf("usecase: ошибка при получении популярных промптов: %w", err)
	}
	total, err := uc.contents.Count(ctx)
	if err != nil {
		return nil, fmt.Errorf("usecase: ошибка при подсчёте промптов: %w", err)
	}

	home := &HomeView{Latest: toViews(latest), Popular: toViews(popular), Total: total}
	uc.views.SetIfCurrent(cache.ViewHome, home, gen)
	return home, nil
}

// CategoryStats пересчитывается при каждом чтении.
func (uc *promptUseCase) CategoryStats(ctx context.Context) ([]domain.CategoryStat, error) {
	stats, err := uc.contents.CategoryStats(ctx)
	if err != nil {
		return nil, fmt.Errorf("usecase: ошибка при получении статистики категорий: %w", err)
	}
	return stats, nil
}

func (uc *promptUseCase) CategoryCards(ctx context.Context) ([]domain.CategoryCard, error) {
	stats, err := uc.CategoryStats(ctx)
	if err != nil {
		return nil, err
	}
	return domain.JoinCategoryStats(domain.CategoryMetadata, stats), nil
}

// releaseOrphans передаёт ключи в очередь очистки; без очереди только пишет в лог.
func (uc *promptUseCase) releaseOrphans(ctx context.Context, keys []string, cause *Failure) {
	if len(keys) == 0 {
		return
	}

	reason := "persist failed"
	if cause != nil {
		reason = fmt.Sprintf("%s: %s", cause.Stage, cause.Message)
	}

	if uc.orphans == nil {
		uc.logger.Warn("stored objects left without metadata", "keys", keys, "reason", reason)
		uc.metrics.AddOrphans("logged", len(keys))
		return
	}

	payload := payloads.OrphanCleanupPayload{Keys: keys, Reason: reason, OccurredAt: time.Now().UTC()}
	if err := uc.orphans.PublishOrphanCleanup(context.WithoutCancel(ctx), payload); err != nil {
		uc.logger.Error("failed to publish orphan cleanup", "keys", keys, "error", err)
		uc.metrics.AddOrphans("logged", len(keys))
		return
	}
	uc.metrics.AddOrphans("published", len(keys))
}

func (uc *promptUseCase) storageFailure(stage Stage, err error) *Failure {
	category := ports.StorageCategoryOf(err)
	uc.logger.Error("storage operation failed", "stage", stage, "category", category, "error", err)
	return &Failure{Stage: stage, Kind: KindStorage, Message: category.Message(), Err: err}
}

func (uc *promptUseCase) observe(stage Stage, start time.Time, err error) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	uc.metrics.ObserveStage(string(stage), status, time.Since(start))
}

func validatePromptFields(in CreatePromptInput) *Failure {
	switch {
	case strings.TrimSpace(in.Title) == "":
		return invalid(StageValidated, "Title is required", nil)
	case strings.TrimSpace(in.PromptText) == "":
		return invalid(StageValidated, "Prompt text is required", nil)
	case strings.TrimSpace(in.Category) == "":
		return invalid(StageValidated, "Category is required", nil)
	}
	return nil
}

func failedCreate(f *Failure) CreateResult {
	return CreateResult{Success: false, Error: f.Message, Failure: f}
}

func failedIngest(f *Failure, uploaded *UploadResult) IngestResult {
	return IngestResult{Success: false, Error: f.Message, Stage: f.Stage, Upload: uploaded, Failure: f}
}

func toViews(items []domain.ContentItem) []PromptView {
	views := make([]PromptView, 0, len(items))
	for i := range items {
		views = append(views, NewPromptView(&items[i]))
	}
	return views
}

package usecase

import (
	"errors"
	"fmt"
)

// Stage — шаг конвейера загрузки.
type Stage string

const (
	StageReceived        Stage = "received"
	StageValidated       Stage = "validated"
	StageDerived         Stage = "derived"
	StageOriginalStored  Stage = "original_stored"
	StageThumbnailStored Stage = "thumbnail_stored"
	StagePersisted       Stage = "persisted"
	StageDone            Stage = "done"
	StageFailed          Stage = "failed"
)

// Kind — категория ошибки для вызывающего: InvalidInput отдаётся как 4xx, остальное как 5xx.
type Kind string

const (
	KindInvalidInput  Kind = "invalid_input"
	KindStorage       Kind = "storage"
	KindNotConfigured Kind = "not_configured"
	KindPersistence   Kind = "persistence"
	KindInternal      Kind = "internal"
)

// ErrStorageNotConfigured — не заданы настройки объектного хранилища.
var ErrStorageNotConfigured = errors.New("server storage not configured")

// Failure — ошибка конвейера: на каком шаге, какого рода и что показать пользователю.
type Failure struct {
	Stage   Stage
	Kind    Kind
	Message string
	Err     error
}

func (f *Failure) Error() string {
	if f.Err != nil {
		return fmt.Sprintf("%s at %s: %s: %v", f.Kind, f.Stage, f.Message, f.Err)
	}
	return fmt.Sprintf("%s at %s: %s", f.Kind, f.Stage, f.Message)
}

func (f *Failure) Unwrap() error { return f.Err }

// ClientError сообщает, что виноват запрос, а не сервер.
func (f *Failure) ClientError() bool { return f.Kind == KindInvalidInput }

// AsFailure достаёт *Failure из цепочки; прочие ошибки считаются внутренними.
func AsFailure(err error) *Failure {
	if err == nil {
		return nil
	}
	var f *Failure
	if errors.As(err, &f) {
		return f
	}
	return &Failure{Stage: StageFailed, Kind: KindInternal, Message: "Internal server error", Err: err}
}

func invalid(stage Stage, msg string, err error) *Failure {
	return &Failure{Stage: stage, Kind: KindInvalidInput, Message: msg, Err: err}
}

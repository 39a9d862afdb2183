package service

import (
	"errors"

	"github.com/4sizn/animal-zoom-sub000/internal/repository"
)

var (
	ErrUserNotFound         = errors.New("user not found")
	ErrRoomNotFound         = errors.New("room not found")
	ErrParticipantNotFound  = errors.New("not an active participant of this room")
	ErrNotWaiting           = errors.New("user is not in the waiting room")
	ErrRoomFull             = errors.New("room is full")
	ErrForbidden            = errors.New("only the host can perform this action")
	ErrCodeConflict         = errors.New("room code already in use")
	ErrUnauthorized         = errors.New("unauthorized")
	ErrAuthenticationFailed = errors.New("authentication failed")
	ErrRegistrationFailed   = errors.New("registration failed: username already exists")
	ErrInvalidRoomCode      = errors.New("invalid room code")
	ErrInvalidMessage       = errors.New("invalid chat message")
	ErrInvalidSettings      = errors.New("room settings must be a JSON object")
	ErrInvalidInput         = errors.New("invalid input")
	ErrInternalServer       = errors.New("internal server error")
)

// ErrorKind 是服务层错误的分类，用于日志、指标和 HTTP 状态码映射
type ErrorKind string

const (
	KindNone         ErrorKind = ""
	KindNotFound     ErrorKind = "not_found"
	KindCapacity     ErrorKind = "capacity"
	KindForbidden    ErrorKind = "forbidden"
	KindConflict     ErrorKind = "conflict"
	KindUnauthorized ErrorKind = "unauthorized"
	KindInvalid      ErrorKind = "invalid"
	KindInternal     ErrorKind = "internal"
)

// Kind 返回错误所属的分类。未知错误一律视为 internal。
func Kind(err error) ErrorKind {
	switch {
	case err == nil:
		return KindNone
	case errors.Is(err, ErrRoomNotFound), errors.Is(err, ErrParticipantNotFound),
		errors.Is(err, ErrNotWaiting), errors.Is(err, ErrUserNotFound):
		return KindNotFound
	case errors.Is(err, ErrRoomFull):
		return KindCapacity
	case errors.Is(err, ErrForbidden):
		return KindForbidden
	case errors.Is(err, ErrCodeConflict), errors.Is(err, ErrRegistrationFailed):
		return KindConflict
	case errors.Is(err, ErrUnauthorized), errors.Is(err, ErrAuthenticationFailed):
		return KindUnauthorized
	case errors.Is(err, ErrInvalidRoomCode), errors.Is(err, ErrInvalidMessage),
		errors.Is(err, ErrInvalidSettings), errors.Is(err, ErrInvalidInput):
		return KindInvalid
	default:
		return KindInternal
	}
}

// mapRepoError 将仓库层错误映射到服务层错误：记录不存在映射为 notFound，其余都是内部错误。
func mapRepoError(err error, notFound error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, repository.ErrNotFound) {
		return notFound
	}
	return ErrInternalServer
}

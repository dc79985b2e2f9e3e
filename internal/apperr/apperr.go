// Package apperr 定义跨层使用的错误分类，由路由层统一映射为 HTTP 状态码。
package apperr

import (
	"errors"
	"fmt"
)

// Kind 错误类别
type Kind int

const (
	KindInternal Kind = iota
	KindValidation
	KindAuth
	KindNotFound
	KindConflict
	KindUpstream
	KindPersistence
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindAuth:
		return "auth"
	case KindNotFound:
		return "not_found"
	case KindConflict:
		return "conflict"
	case KindUpstream:
		return "upstream"
	case KindPersistence:
		return "persistence"
	default:
		return "internal"
	}
}

// Error 带分类的应用错误
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil && e.Message == "" {
		return e.Err.Error()
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Public 返回可以直接展示给调用方的消息
func (e *Error) Public() string {
	if e.Message != "" {
		return e.Message
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return e.Kind.String()
}

func Validation(msg string) error {
	return &Error{Kind: KindValidation, Message: msg}
}

func Auth(msg string, err error) error {
	return &Error{Kind: KindAuth, Message: msg, Err: err}
}

func NotFound(msg string) error {
	return &Error{Kind: KindNotFound, Message: msg}
}

func Conflict(msg string) error {
	return &Error{Kind: KindConflict, Message: msg}
}

// Upstream 上游服务调用失败，消息原样透传给调用方
func Upstream(err error) error {
	return &Error{Kind: KindUpstream, Err: err}
}

// Persistence 存储层提交失败，消息为底层错误信息
func Persistence(err error) error {
	return &Error{Kind: KindPersistence, Err: err}
}

// Internal 服务内部错误，对外只暴露 msg
func Internal(msg string, err error) error {
	return &Error{Kind: KindInternal, Message: msg, Err: err}
}

// KindOf 返回错误链上第一个 *Error 的类别，没有则为 KindInternal
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// Is 判断 err 是否属于某个类别
func Is(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}

package errors

import (
	"fmt"
)

type AppError struct {
	Code       string                 `json:"code"`
	Message    string                 `json:"message"`
	Details    map[string]interface{} `json:"details,omitempty"`
	StatusCode int                    `json:"-"`
	Err        error                  `json:"-"`
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap возвращает исходную ошибку библиотеки, если она есть
func (e *AppError) Unwrap() error {
	return e.Err
}

// Is сравнивает ошибки по коду, чтобы errors.Is работал с копиями сентинелов
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	if !ok {
		return false
	}
	return t.Code == e.Code
}

func New(code, message string, statusCode int) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		StatusCode: statusCode,
		Details:    make(map[string]interface{}),
	}
}

// WithDetails возвращает копию ошибки с деталями
func (e *AppError) WithDetails(details map[string]interface{}) *AppError {
	cp := *e
	cp.Details = details
	return &cp
}

// WithMessage возвращает копию ошибки с уточненным сообщением
func (e *AppError) WithMessage(format string, args ...interface{}) *AppError {
	cp := *e
	cp.Message = fmt.Sprintf(format, args...)
	return &cp
}

// Wrap возвращает копию ошибки с причиной
func (e *AppError) Wrap(err error) *AppError {
	cp := *e
	cp.Err = err
	return &cp
}

package docx

import (
	"errors"
	"fmt"
)

// 错误分类，调用方用 errors.Is 判断
var (
	// ErrInvalidInput 没有文件、不是 zip 容器、缺少正文条目
	ErrInvalidInput = errors.New("invalid input")
	// ErrMalformedMarkup 正文条目无法解析为 XML
	ErrMalformedMarkup = errors.New("malformed markup")
	// ErrSerialization 转换后的树无法重新编码
	ErrSerialization = errors.New("serialization failed")
)

// InvalidInputError 的原因
const (
	ReasonNoFile       = "no file"
	ReasonNotContainer = "not a valid container"
	ReasonMissingBody  = "missing body entry"
)

// InvalidInputError 输入无效
type InvalidInputError struct {
	Reason string // ReasonNoFile / ReasonNotContainer / ReasonMissingBody
	Entry  string // 相关的条目名，可为空
	Err    error  // 底层错误，可为空
}

func (e *InvalidInputError) Error() string {
	msg := "无效输入: " + e.Reason
	if e.Entry != "" {
		msg += " (" + e.Entry + ")"
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *InvalidInputError) Unwrap() []error {
	return wrapped(ErrInvalidInput, e.Err)
}

// MalformedMarkupError 正文条目解析失败，Err 为解析器的诊断信息
type MalformedMarkupError struct {
	Entry string
	Err   error
}

func (e *MalformedMarkupError) Error() string {
	return fmt.Sprintf("条目 %s 不是合法的 XML: %v", e.Entry, e.Err)
}

func (e *MalformedMarkupError) Unwrap() []error {
	return wrapped(ErrMalformedMarkup, e.Err)
}

// SerializationError 转换结果编码或重新打包失败
type SerializationError struct {
	Entry string
	Err   error
}

func (e *SerializationError) Error() string {
	if e.Entry != "" {
		return fmt.Sprintf("条目 %s 序列化失败: %v", e.Entry, e.Err)
	}
	return fmt.Sprintf("序列化失败: %v", e.Err)
}

func (e *SerializationError) Unwrap() []error {
	return wrapped(ErrSerialization, e.Err)
}

func wrapped(sentinel, err error) []error {
	if err == nil {
		return []error{sentinel}
	}
	return []error{sentinel, err}
}

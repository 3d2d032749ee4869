// Package api describes the JSON frames exchanged by peer sync endpoints
// over the loopback WebSocket connection.
package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

// FrameType тип кадра
type FrameType string

const (
	// FrameHello первый кадр каждой стороны после установки соединения
	FrameHello FrameType = "hello"
	// FrameUpdate полное состояние одного объекта
	FrameUpdate FrameType = "update"
	// FrameDelete удаление объекта по id
	FrameDelete FrameType = "delete"
)

// ErrInvalidFrame is returned for frames that cannot be decoded.
var ErrInvalidFrame = errors.New("invalid frame")

// Hello представляет приветствие пира
type Hello struct {
	Capabilities map[string]string `json:"capabilities"` // версии протоколов, например {"theme_sync":"1.0"}
	ServiceName  string            `json:"service_name"` // имя сервиса, общее для всех пиров одного типа
	AppName      string            `json:"app_name"`     // человекочитаемое имя приложения
	AppVersion   string            `json:"app_version"`  // версия приложения
	Schema       string            `json:"schema"`       // отпечаток схемы "name:TYPE,..."
	Objects      int               `json:"objects"`      // число объектов, которые отправитель пришлет сразу после hello
}

// Frame представляет один кадр протокола
type Frame struct {
	Hello  *Hello         `json:"hello,omitempty"`
	Fields map[string]any `json:"fields,omitempty"` // поля объекта (только update)
	Type   FrameType      `json:"type"`
	AppID  string         `json:"app_id"` // отправитель кадра
	ID     string         `json:"id,omitempty"`
}

// Validate checks the fields required by the frame type.
func (f *Frame) Validate() error {
	if f.AppID == "" {
		return fmt.Errorf("%w: missing app_id", ErrInvalidFrame)
	}
	switch f.Type {
	case FrameHello:
		if f.Hello == nil || f.Hello.ServiceName == "" {
			return fmt.Errorf("%w: hello without service name", ErrInvalidFrame)
		}
		if f.Hello.Objects < 0 {
			return fmt.Errorf("%w: negative object count", ErrInvalidFrame)
		}
	case FrameUpdate:
		if f.ID == "" || f.Fields == nil {
			return fmt.Errorf("%w: update without id or fields", ErrInvalidFrame)
		}
	case FrameDelete:
		if f.ID == "" {
			return fmt.Errorf("%w: delete without id", ErrInvalidFrame)
		}
	default:
		return fmt.Errorf("%w: unknown type %q", ErrInvalidFrame, f.Type)
	}
	return nil
}

// DecodeFrame parses and validates one frame. Numbers inside Fields are
// kept as json.Number so LONG values do not lose precision.
func DecodeFrame(data []byte) (*Frame, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var f Frame
	if err := dec.Decode(&f); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidFrame, err)
	}
	if err := f.Validate(); err != nil {
		return nil, err
	}
	return &f, nil
}

// EncodeFrame serializes a frame.
func EncodeFrame(f *Frame) ([]byte, error) {
	data, err := json.Marshal(f)
	if err != nil {
		return nil, fmt.Errorf("failed to encode %s frame: %w", f.Type, err)
	}
	return data, nil
}

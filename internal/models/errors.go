package models

import "errors"

// Ошибки схемы и декодирования полей
var (
	// ErrTypeMismatch indicates that a field value cannot be coerced to the declared type
	ErrTypeMismatch = errors.New("field type mismatch")

	// ErrUnknownFieldType indicates a schema field with an unsupported type
	ErrUnknownFieldType = errors.New("unknown field type")

	// ErrUnknownField indicates a payload field that is not declared in the schema
	ErrUnknownField = errors.New("field not declared in schema")

	// ErrInvalidSchema indicates that a schema is malformed
	ErrInvalidSchema = errors.New("invalid schema")

	// ErrInvalidEntity indicates that an entity envelope is malformed (missing id, bad version)
	ErrInvalidEntity = errors.New("invalid entity")
)

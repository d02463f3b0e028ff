package spr

import "errors"

// Input validation errors.
var (
	ErrEmptyInput    = errors.New("input is empty")
	ErrInputTooShort = errors.New("input below minimum word count")
	ErrInvalidRatio  = errors.New("compression ratio must be in (0, 1]")
)

// Option parsing errors.
var (
	ErrUnknownFormat    = errors.New("unknown statement format")
	ErrUnknownExpansion = errors.New("unknown expansion type")
	ErrUnknownLength    = errors.New("unknown target length")
)

// Document structure errors.
var (
	ErrNoStatements   = errors.New("document contains no statements")
	ErrEmptyStatement = errors.New("document contains an empty statement")
)

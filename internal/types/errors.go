package types

import "errors"

var (
	// ErrUnsupportedSyntax is returned when a statement has no recognized leading keyword.
	ErrUnsupportedSyntax = errors.New("unsupported syntax")
	// ErrMalformedStatement is returned when a recognized statement is missing a
	// required clause or a clause does not follow the grammar.
	ErrMalformedStatement = errors.New("malformed statement")
	// ErrMissingRequiredArgument is returned when a payload lacks a required key.
	ErrMissingRequiredArgument = errors.New("missing required argument")

	ErrTableNotFound = errors.New("table does not exist")
	ErrTableExists   = errors.New("table already exists")
	ErrReadOnly      = errors.New("storage is read-only")
)

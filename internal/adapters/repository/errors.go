package repository

import "errors"

// Sentinel kinds for record store errors.
var (
	ErrNotFound      = errors.New("technician not found")
	ErrIntegrity     = errors.New("dataset integrity fault")
	ErrUnknownFormat = errors.New("unknown dataset format")
	ErrLoad          = errors.New("load dataset failed")
)

package prescription

import "errors"

var (
	ErrPrescriptionNotFound = errors.New("prescription not found")
	ErrMissingMedication    = errors.New("medication and dosage are required")
)

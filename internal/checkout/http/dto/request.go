// Package dto provides data transfer objects for checkout HTTP handling.
package dto

import (
	validation "github.com/jellydator/validation"

	customValidation "github.com/allisson/accessgate/internal/validation"
)

// CreateSessionRequest contains the parameters for starting a checkout.
type CreateSessionRequest struct {
	Name    string `json:"name" binding:"required"`
	PlanKey string `json:"planKey"`
	Email   string `json:"email" binding:"required"`
}

// Validate checks if the create session request is valid.
func (r *CreateSessionRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.Name,
			validation.Required,
			customValidation.NotBlank,
		),
		validation.Field(&r.Email,
			validation.Required,
			customValidation.Email,
		),
	)
}

package dto

import "fueldesk/internal/domain/auth"

// LoginRequest for user login.
type LoginRequest struct {
	NationalID string `json:"nationalId" binding:"required"`
	Secret     string `json:"secret" binding:"required"`
}

// ToCredentials converts to domain credentials.
func (r *LoginRequest) ToCredentials() auth.Credentials {
	return auth.Credentials{NationalID: r.NationalID, Secret: r.Secret}
}

// MeResponse describes the authenticated caller.
type MeResponse struct {
	UserID     int64    `json:"userId"`
	NationalID string   `json:"nationalId"`
	Name       string   `json:"name"`
	Roles      []string `json:"roles"`
	UnitID     *int64   `json:"unitId,omitempty"`
}

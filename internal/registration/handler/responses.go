package handler

import (
	"time"

	"regdesk/internal/registration/models"
)

// UserResponse is one entry of GET /api/users.
type UserResponse struct {
	Username     string   `json:"username"`
	Email        string   `json:"email"`
	Phone        string   `json:"phone"`
	DateOfBirth  string   `json:"dob"`
	Address      string   `json:"address"`
	Skills       []string `json:"skills"`
	RegisteredAt string   `json:"registeredAt"`
}

func toUserResponse(r *models.Record) UserResponse {
	resp := UserResponse{
		Username:     r.Username,
		Email:        r.Email,
		Phone:        r.Phone,
		Address:      r.Address,
		Skills:       r.Skills,
		RegisteredAt: r.RegisteredAt.UTC().Format(time.RFC3339Nano),
	}
	if r.Skills == nil {
		resp.Skills = []string{}
	}
	if r.DateOfBirth != nil {
		resp.DateOfBirth = r.DateOfBirth.String()
	}
	return resp
}

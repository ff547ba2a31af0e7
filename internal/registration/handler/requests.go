package handler

import "regdesk/internal/registration/models"

// RegisterRequest is the HTTP request body for POST /api/register.
// ConfirmPassword is optional: when absent the client has already confirmed.
type RegisterRequest struct {
	Username        string   `json:"username"`
	Email           string   `json:"email"`
	Password        string   `json:"password"`
	ConfirmPassword *string  `json:"confirmPassword,omitempty"`
	Phone           string   `json:"phone,omitempty"`
	DateOfBirth     string   `json:"dob,omitempty"`
	Address         string   `json:"address"`
	Skills          []string `json:"skills"`
}

// MissingRequired reports whether any of the fields the API always demands
// is empty.
func (r *RegisterRequest) MissingRequired() bool {
	return r.Username == "" || r.Email == "" || r.Password == ""
}

// Candidate converts the request into service input.
func (r *RegisterRequest) Candidate() models.Candidate {
	confirm := r.Password
	if r.ConfirmPassword != nil {
		confirm = *r.ConfirmPassword
	}
	return models.Candidate{
		Username:        r.Username,
		Email:           r.Email,
		Password:        r.Password,
		ConfirmPassword: confirm,
		Phone:           r.Phone,
		DateOfBirth:     r.DateOfBirth,
		Address:         r.Address,
		Skills:          append([]string(nil), r.Skills...),
	}
}

package dto

type RegisterDTO struct {
	Email    string `json:"email"    validate:"required"`
	Password string `json:"password" validate:"required"`
}

type LoginDTO struct {
	Email    string `json:"email"    validate:"required"`
	Password string `json:"password" validate:"required"`
}

type MessageResponse struct {
	Message string `json:"message"`
}

type AccessTokenResponse struct {
	AccessToken string `json:"accessToken"`
}

type MeResponse struct {
	Email string `json:"email"`
}

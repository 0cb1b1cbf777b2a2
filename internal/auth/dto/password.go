package dto

type ChangePasswordInput struct {
	CurrentPassword string `json:"currentPassword"`
	NewPassword     string `json:"newPassword"`
}

type LogoutInput struct {
	RefreshToken string `json:"refreshToken"`
}

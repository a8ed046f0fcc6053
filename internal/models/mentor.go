// Package models содержит доменную модель ментора.
package models

// Mentor представляет профиль ментора, доступного для бронирования.
type Mentor struct {
	UID       string `json:"uid"`
	Name      string `json:"name"`
	Email     string `json:"email"`
	Specialty string `json:"specialty"`
	IsActive  bool   `json:"is_active"`
}

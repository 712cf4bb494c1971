package model

import (
	"time"

	"github.com/google/uuid"
)

// Cashier is a row of the head-office cashier table.
type Cashier struct {
	Kode     string `json:"kode"`
	Nama     string `json:"nama"`
	Outlet   string `json:"outlet"`
	IsActive bool   `json:"isActive"`
}

// Session identifies the signed-in cashier for the lifetime of the cookie.
type Session struct {
	ID       uuid.UUID `json:"id"`
	KasirID  string    `json:"kode"`
	Name     string    `json:"nama"`
	Outlet   string    `json:"outlet"`
	IssuedAt time.Time `json:"issuedAt"`
}

// SignInRequest represents the sign-in payload.
type SignInRequest struct {
	Passkey string `json:"passkey"`
}

// SignInResponse is returned after a successful sign-in.
type SignInResponse struct {
	Message string `json:"message"`
	Kode    string `json:"kode"`
	Nama    string `json:"nama"`
	Outlet  string `json:"outlet"`
}

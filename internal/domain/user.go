package domain

import "time"

// Person guarda el perfil biometrico de una cuenta.
type Person struct {
	ID            string    `json:"id"`
	Name          string    `json:"name"`
	LastName      string    `json:"last_name"`
	Birthdate     Date      `json:"birthdate"`
	Gender        string    `json:"gender"`
	Weight        float64   `json:"weight"`
	Height        float64   `json:"height"`
	ActivityLevel string    `json:"activity_level"`
	Objective     string    `json:"objective"`
	CreatedAt     time.Time `json:"created_at"`
}

// Account es la credencial de acceso, 1:1 con Person.
type Account struct {
	ID              string     `json:"id"`
	PersonID        string     `json:"person_id"`
	Email           string     `json:"email"`
	Username        string     `json:"username"`
	PasswordHash    string     `json:"-"`
	EmailVerifiedAt *time.Time `json:"email_verified_at,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
}

// UserProfile es la proyeccion person+account que consume el frontend.
// ID es el id de la persona.
type UserProfile struct {
	ID            string     `json:"id"`
	AccountID     string     `json:"-"`
	Name          string     `json:"name"`
	LastName      string     `json:"last_name"`
	Email         string     `json:"email"`
	Birthdate     Date       `json:"birthdate"`
	Gender        string     `json:"gender"`
	Weight        float64    `json:"weight"`
	Height        float64    `json:"height"`
	ActivityLevel string     `json:"activity_level"`
	Objective     string     `json:"objective"`
	VerifiedAt    *time.Time `json:"email_verified_at,omitempty"`
}

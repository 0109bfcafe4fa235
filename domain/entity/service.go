package entity

import (
	"time"
)

// Service is a downstream system that users can hold roles on.
type Service struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

func NewService(id, name string) *Service {
	return &Service{
		ID:        id,
		Name:      name,
		CreatedAt: time.Now().UTC(),
	}
}

package agents

import (
	"time"

	"github.com/google/uuid"

	"github.com/sabjimart/sabji-backend/pkg/db/models"
)

type AgentDTO struct {
	ID         uuid.UUID `json:"id"`
	Name       string    `json:"name"`
	Mobile     string    `json:"mobile"`
	Email      *string   `json:"email,omitempty"`
	IsApproved bool      `json:"isApproved"`
	CreatedAt  time.Time `json:"createdAt"`
}

func FromModel(a models.DeliveryAgent) AgentDTO {
	return AgentDTO{
		ID:         a.ID,
		Name:       a.Name,
		Mobile:     a.Mobile,
		Email:      a.Email,
		IsApproved: a.IsApproved,
		CreatedAt:  a.CreatedAt,
	}
}

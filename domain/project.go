package domain

import "time"

// Project is the membership source for chat authorization. The owner never
// appears in Contributors; Pending holds contribution requests that have not
// been accepted and grants no chat access.
type Project struct {
	ID           string    `json:"id"`
	Title        string    `json:"title"`
	OwnerID      string    `json:"ownerId"`
	Contributors []string  `json:"contributors"`
	Pending      []string  `json:"pending"`
	CreatedAt    time.Time `json:"createdAt"`
}

func (p Project) IsOwner(userID string) bool {
	return p.OwnerID == userID
}

func (p Project) IsContributor(userID string) bool {
	for _, id := range p.Contributors {
		if id == userID {
			return true
		}
	}
	return false
}

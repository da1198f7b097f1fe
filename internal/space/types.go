package space

import (
	"time"

	"github.com/google/uuid"
)

// Space is a joinable room with an access policy. PrivateYN gates entry
// behind a password, LobbyYN behind explicit owner approval. Spaces are
// soft-deleted via UseYN; personal spaces cannot be deleted at all.
type Space struct {
	ID         uuid.UUID `json:"id"`
	OwnerID    uuid.UUID `json:"owner_id"`
	Name       string    `json:"name"`
	Notice     string    `json:"notice"`
	IconKey    string    `json:"-"`
	PrivateYN  bool      `json:"private_yn"`
	LobbyYN    bool      `json:"lobby_yn"`
	Password   string    `json:"-"`
	IsPersonal bool      `json:"is_personal"`
	UseYN      bool      `json:"-"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

type CreateSpaceRequest struct {
	Name       string `json:"name"`
	Notice     string `json:"notice"`
	PrivateYN  bool   `json:"private_yn"`
	LobbyYN    bool   `json:"lobby_yn"`
	Password   string `json:"password"`
	IsPersonal bool   `json:"is_personal"`
}

// UpdateSpaceRequest carries owner-side mutations. Pointer fields
// distinguish "not supplied" from zero values.
type UpdateSpaceRequest struct {
	Name      *string `json:"name"`
	Notice    *string `json:"notice"`
	PrivateYN *bool   `json:"private_yn"`
	LobbyYN   *bool   `json:"lobby_yn"`
	Password  *string `json:"password"`
}

type SpaceResponse struct {
	Space   Space `json:"space"`
	IsOwner bool  `json:"is_owner"`
}

type ListSpacesResponse struct {
	Spaces []Space `json:"spaces"`
	Count  int     `json:"count"`
}

package space

import "fmt"

const (
	minNameLen = 2
	maxNameLen = 120
)

func validateCreateSpaceRequest(req *CreateSpaceRequest) error {
	if req.Name == "" {
		return fmt.Errorf("name is required")
	}
	if len(req.Name) < minNameLen {
		return fmt.Errorf("name must be at least %d characters long, got %d", minNameLen, len(req.Name))
	}
	if len(req.Name) > maxNameLen {
		return fmt.Errorf("name must be no more than %d characters long, got %d", maxNameLen, len(req.Name))
	}

	// A private space without a password would lock everyone out
	if req.PrivateYN && req.Password == "" {
		return fmt.Errorf("password is required for a private space")
	}
	if !req.PrivateYN && req.Password != "" {
		return fmt.Errorf("password is only allowed on a private space")
	}

	return nil
}

// applyUpdate merges an update request into the space and re-checks the
// private/password invariant on the merged result.
func applyUpdate(sp *Space, req *UpdateSpaceRequest) error {
	if req.Name != nil {
		sp.Name = *req.Name
	}
	if req.Notice != nil {
		sp.Notice = *req.Notice
	}
	if req.PrivateYN != nil {
		sp.PrivateYN = *req.PrivateYN
	}
	if req.LobbyYN != nil {
		sp.LobbyYN = *req.LobbyYN
	}
	if req.Password != nil {
		sp.Password = *req.Password
	}

	if sp.Name == "" || len(sp.Name) < minNameLen || len(sp.Name) > maxNameLen {
		return fmt.Errorf("name must be between %d and %d characters", minNameLen, maxNameLen)
	}
	if sp.PrivateYN && sp.Password == "" {
		return fmt.Errorf("password is required for a private space")
	}
	if !sp.PrivateYN {
		sp.Password = ""
	}

	return nil
}

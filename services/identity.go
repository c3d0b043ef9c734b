package services

import (
	"net/http"

	"sitedocs/config"

	"github.com/google/uuid"
)

// Identity is the caller on whose behalf store operations run. It is
// supplied by the surrounding application; this subsystem only requires
// that one exists before any blob write.
type Identity struct {
	UserID    string `json:"user_id"`
	Anonymous bool   `json:"anonymous"`
}

func (i Identity) Empty() bool {
	return i.UserID == ""
}

// EnsureSignedIn returns the given identity, or a transient anonymous one
// when the deployment allows it. With no identity and no anonymous
// fallback the batch fails before any transfer starts.
func EnsureSignedIn(identity Identity) (Identity, error) {
	if !identity.Empty() {
		return identity, nil
	}
	if config.AppConfig != nil && config.AppConfig.Auth.AllowAnonymous {
		return Identity{UserID: "anon-" + uuid.New().String(), Anonymous: true}, nil
	}
	return Identity{}, newAppError(http.StatusUnauthorized, "sign-in required", ErrIdentityRequired)
}

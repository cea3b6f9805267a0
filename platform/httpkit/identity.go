package httpkit

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// Identity is the caller as established by the auth middleware. Handlers
// read it instead of digging JWT claims out of the Gin context, which keeps
// role checks and actor IDs in one place.
type Identity interface {
	// UserID is the authenticated account id, or the zero UUID for
	// anonymous callers.
	UserID() uuid.UUID
	// Roles lists the roles carried by the access token.
	Roles() []string
	// HasRole reports whether the token carries the given role.
	HasRole(role string) bool
	// IsAuthenticated reports whether a valid access token was presented.
	IsAuthenticated() bool
}

type identity struct {
	userID        uuid.UUID
	roles         []string
	authenticated bool
}

func (i *identity) UserID() uuid.UUID {
	return i.userID
}

func (i *identity) Roles() []string {
	return i.roles
}

func (i *identity) HasRole(role string) bool {
	for _, r := range i.roles {
		if r == role {
			return true
		}
	}
	return false
}

func (i *identity) IsAuthenticated() bool {
	return i.authenticated
}

// GetIdentity reads the caller's identity from the Gin context. Requests
// that passed no valid token, such as guest intake submissions behind the
// optional-auth middleware, yield an anonymous identity.
func GetIdentity(c *gin.Context) Identity {
	userID, userOK := c.Get(ContextUserIDKey)
	roles, rolesOK := c.Get(ContextRolesKey)

	if !userOK {
		return &identity{authenticated: false}
	}

	uid, ok := userID.(uuid.UUID)
	if !ok {
		return &identity{authenticated: false}
	}

	var roleList []string
	if rolesOK {
		roleList, _ = roles.([]string)
	}

	return &identity{
		userID:        uid,
		roles:         roleList,
		authenticated: true,
	}
}

// MustGetIdentity is GetIdentity for routes that require authentication: an
// anonymous caller gets a 401 and the handler receives nil.
func MustGetIdentity(c *gin.Context) Identity {
	id := GetIdentity(c)
	if !id.IsAuthenticated() {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return nil
	}
	return id
}

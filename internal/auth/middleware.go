package auth

import (
	"net/http"

	"github.com/carlesonielfa/isthatslop-sub000/internal/models"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

const identityKey = "auth_identity"

// Middleware validates the Authorization header and attaches the caller
// identity to the request context. A user row is created on first contact so
// downstream foreign keys always resolve.
func Middleware(verifier Verifier, db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
			return
		}

		identity, err := verifier.Verify(header)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}

		if err := ensureUser(db, identity); err != nil {
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "failed to resolve user"})
			return
		}

		c.Set(identityKey, identity)
		c.Next()
	}
}

// RequireVerified rejects callers whose email is not verified. Must run
// after Middleware.
func RequireVerified() gin.HandlerFunc {
	return func(c *gin.Context) {
		identity, ok := IdentityFrom(c)
		if !ok || !identity.EmailVerified {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "verified email required"})
			return
		}
		c.Next()
	}
}

// IdentityFrom returns the identity set by Middleware.
func IdentityFrom(c *gin.Context) (*Identity, bool) {
	value, exists := c.Get(identityKey)
	if !exists {
		return nil, false
	}
	identity, ok := value.(*Identity)
	return identity, ok
}

// ensureUser upserts the minimal user record for an authenticated caller,
// keeping the verification flag in sync with the provider.
func ensureUser(db *gorm.DB, identity *Identity) error {
	var user models.User
	err := db.First(&user, "id = ?", identity.UserID).Error
	if err == gorm.ErrRecordNotFound {
		handle := identity.Handle
		if handle == "" {
			handle = identity.UserID.String()
		}
		user = models.User{
			ID:            identity.UserID,
			Handle:        handle,
			EmailVerified: identity.EmailVerified,
			IsActive:      true,
		}
		return db.Create(&user).Error
	}
	if err != nil {
		return err
	}

	if user.EmailVerified != identity.EmailVerified {
		return db.Model(&user).Update("email_verified", identity.EmailVerified).Error
	}
	return nil
}

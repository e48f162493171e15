// api/handlers/auth_handlers.go
package handlers

import (
	"log"
	"net/http"
	"os"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"

	"portfolio/api/models"
	"portfolio/api/utils"
)

// AuthHandlers authenticates the single site admin. Credentials live in the
// environment (ADMIN_EMAIL plus a bcrypt ADMIN_PASSWORD_HASH); there is no
// user registry behind a one-operator portfolio site.
type AuthHandlers struct{}

func NewAuthHandlers() *AuthHandlers {
	return &AuthHandlers{}
}

// Login verifies the admin credentials and issues a JWT cookie.
func (h *AuthHandlers) Login(c *gin.Context) {
	var req models.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
		return
	}

	adminEmail := os.Getenv("ADMIN_EMAIL")
	adminHash := os.Getenv("ADMIN_PASSWORD_HASH")
	if adminEmail == "" || adminHash == "" {
		log.Println("Login attempted but ADMIN_EMAIL/ADMIN_PASSWORD_HASH are not configured")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Admin login is not configured"})
		return
	}

	if req.Email != adminEmail {
		log.Printf("Login failed for email %s: unknown admin", req.Email)
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid credentials"})
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(adminHash), []byte(req.Password)); err != nil {
		log.Printf("Login failed for email %s: password mismatch", req.Email)
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid credentials"})
		return
	}

	tokenString, err := utils.GenerateJWT(req.Email)
	if err != nil {
		log.Printf("ERROR: Failed to generate JWT for admin: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate authentication token"})
		return
	}

	c.SetCookie(
		"jwt_token",
		tokenString,
		int(24*time.Hour/time.Second),
		"/",
		"",
		false,
		true,
	)

	log.Printf("Admin logged in: %s. JWT issued.", req.Email)
	c.JSON(http.StatusOK, gin.H{
		"message":    "Login successful",
		"user_email": req.Email,
	})
}

// Logout clears the JWT cookie.
func (h *AuthHandlers) Logout(c *gin.Context) {
	c.SetCookie(
		"jwt_token",
		"",
		-1,
		"/",
		"",
		false,
		true,
	)

	log.Println("Admin logged out (JWT cookie cleared).")
	c.JSON(http.StatusOK, gin.H{"message": "Logged out successfully"})
}

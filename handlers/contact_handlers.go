// api/handlers/contact_handlers.go
package handlers

import (
	"log"
	"net/http"

	"portfolio/api/models"
	"portfolio/api/utils"

	"github.com/gin-gonic/gin"
)

// maxMessageLen caps the contact message before it is relayed.
const maxMessageLen = 1000

// ContactSender relays one sanitized submission; satisfied by mailer.Mailer.
type ContactSender interface {
	SendContactMessage(name, email, message string) error
}

type ContactHandlers struct {
	Mailer ContactSender
}

func NewContactHandlers(m ContactSender) *ContactHandlers {
	return &ContactHandlers{Mailer: m}
}

// SendMessage validates and sanitizes a contact-form submission, then relays
// it by mail.
func (h *ContactHandlers) SendMessage(c *gin.Context) {
	var req models.ContactRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Name, email and message are required"})
		return
	}

	if !utils.ValidateEmailAddress(req.Email) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid email address"})
		return
	}

	name := utils.SanitizeMessage(req.Name, 200)
	message := utils.SanitizeMessage(req.Message, maxMessageLen)
	if name == "" || message == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Name and message must not be empty"})
		return
	}

	if err := h.Mailer.SendContactMessage(name, req.Email, message); err != nil {
		log.Printf("Error relaying contact message from %s: %v", req.Email, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to send message"})
		return
	}

	log.Printf("Contact message relayed from %s", req.Email)
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Message sent successfully"})
}

package utils

import (
	"crypto/sha256"
	"encoding/hex"
	"net"
	"net/http"
	"strings"
)

func IsValidInterval(interval string) bool {
	switch interval {
	case "Minute", "Hour", "Day", "Week", "Month", "Quarter", "Year":
		return true
	default:
		return false
	}
}

// Fingerprint derives the secondary de-duplication signal from the client
// address and user agent. Weak on purpose: everyone behind one NAT with the
// same browser shares it. Not a security boundary.
func Fingerprint(ipAddress, userAgent string) string {
	sum := sha256.Sum256([]byte(ipAddress + userAgent))
	return hex.EncodeToString(sum[:])[:16]
}

// ClientKey derives the client address: first entry of the forwarded header,
// else the connection address, else loopback. Forwarded headers are
// spoofable; this ordering assumes a trusted proxy in front.
func ClientKey(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		parts := strings.Split(fwd, ",")
		if ip := strings.TrimSpace(parts[0]); ip != "" {
			return ip
		}
	}
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil && host != "" {
		return host
	}
	if r.RemoteAddr != "" {
		return r.RemoteAddr
	}
	return "127.0.0.1"
}

// ValidateEmailAddress performs basic email validation. Addresses carrying
// CR, LF or spaces are rejected outright: the address is spliced into SMTP
// headers downstream and a line break there injects arbitrary headers.
func ValidateEmailAddress(email string) bool {
	if strings.ContainsAny(email, "\r\n ") {
		return false
	}
	parts := strings.Split(email, "@")
	if len(parts) != 2 {
		return false
	}
	if len(parts[0]) == 0 {
		return false
	}
	if !strings.Contains(parts[1], ".") {
		return false
	}
	return true
}

var newlineReplacer = strings.NewReplacer("\r\n", " ", "\r", " ", "\n", " ")

// SanitizeMessage strips angle brackets, flattens line breaks to spaces and
// truncates to maxLen runes before the text is relayed by mail. The sanitized
// text ends up inside SMTP headers (the sender name feeds the subject line),
// so CR/LF must not survive.
func SanitizeMessage(s string, maxLen int) string {
	s = strings.ReplaceAll(s, "<", "")
	s = strings.ReplaceAll(s, ">", "")
	s = newlineReplacer.Replace(s)
	runes := []rune(s)
	if len(runes) > maxLen {
		return string(runes[:maxLen])
	}
	return s
}

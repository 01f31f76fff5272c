package tui

import (
	"fmt"
	"net/http"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"marketchat/internal/domain/entity"
	"marketchat/pkg/errors"
)

// PlaceholderImage is shown for listings without an image.
const PlaceholderImage = "/assets/default-image.png"

const uploadsPrefix = "/uploads/"

// ImageDisplayURL maps a stored listing image reference to a path the image
// endpoint under base can serve.
func ImageDisplayURL(base, url string) string {
	switch {
	case url == "":
		return PlaceholderImage
	case strings.HasPrefix(url, "http"):
		return url
	}
	base = strings.TrimRight(base, "/")
	if strings.HasPrefix(url, uploadsPrefix) {
		return base + "/image/" + strings.TrimPrefix(url, uploadsPrefix)
	}
	return base + "/image/" + url
}

// FormatPrice renders a price with the won grouping, e.g. 1,250,000.
func FormatPrice(price int64) string {
	return message.NewPrinter(language.Korean).Sprintf("%d", price)
}

// Remediation returns the message shown for a failed resolution.
func Remediation(failure *errors.AppError) string {
	if failure == nil {
		return "Chat information cannot be displayed."
	}
	switch failure.Code {
	case errors.CodeInvalidCounterparty:
		return "The seller of this listing could not be identified, or it is your own listing. Go back and pick another listing."
	case errors.CodeMissingContext:
		return "Nothing to open. Start with --room <id> or --listing-json <file>, and make sure you are signed in."
	case errors.CodeNetworkOrServer:
		switch {
		case failure.Status >= http.StatusInternalServerError:
			return fmt.Sprintf("The chat server failed (HTTP %d). Try again later.", failure.Status)
		case failure.Status == http.StatusForbidden:
			return "You are not a participant of this chat room."
		case failure.Status == http.StatusNotFound:
			return "This chat room no longer exists."
		case failure.Status > 0:
			return fmt.Sprintf("The chat server rejected the request (HTTP %d).", failure.Status)
		default:
			return "Could not reach the chat server. Check your connection and CHAT_API_BASE_URL."
		}
	}
	return failure.Message
}

// statusLabel is the display text for a listing status.
func statusLabel(status string) string {
	switch status {
	case "", entity.ListingStatusAvailable:
		return "For sale"
	case entity.ListingStatusReserved:
		return "Reserved"
	case entity.ListingStatusDone:
		return "Sold"
	}
	return status
}

package entity

import "time"

// ChatRoom is the authoritative room two identities share. ParticipantA is
// always the viewing identity.
type ChatRoom struct {
	RoomID       string `json:"roomId"`
	ParticipantA string `json:"participantA"`
	ParticipantB string `json:"participantB"`
	// LinkedListingID is 0 when the room is not tied to a listing.
	LinkedListingID int64 `json:"linkedListingId,omitempty"`
}

// RoomLookup is the room payload returned by both the lookup and the
// create-or-get endpoints. Listing fields are flattened in when the backend
// knows the listing; otherwise only ItemTransactionID is set.
type RoomLookup struct {
	RoomID            FlexString `json:"roomId,omitempty"`
	ID                FlexString `json:"id,omitempty"`
	OtherUserID       FlexString `json:"otherUserId,omitempty"`
	OtherUserName     string     `json:"otherUserName,omitempty"`
	ItemID            FlexInt    `json:"itemId,omitempty"`
	ItemTitle         string     `json:"itemTitle,omitempty"`
	ItemPrice         FlexInt    `json:"itemPrice,omitempty"`
	ItemImageURL      string     `json:"itemImageUrl,omitempty"`
	ItemTransactionID FlexInt    `json:"itemTransactionId,omitempty"`
	Status            string     `json:"status,omitempty"`
	LastMessage       string     `json:"lastMessage,omitempty"`
	UpdatedAt         string     `json:"updatedAt,omitempty"`
}

// Key returns roomId, falling back to id.
func (r RoomLookup) Key() string {
	if r.RoomID != "" {
		return r.RoomID.String()
	}
	return r.ID.String()
}

// CreateRoomRequest is the create-or-get payload.
type CreateRoomRequest struct {
	UserID      string `json:"userId" validate:"required"`
	OtherUserID string `json:"otherUserId" validate:"required,nefield=UserID"`
	ItemID      int64  `json:"itemId" validate:"required,gt=0"`
}

// Room is the backend's stored room. Participants are kept sorted so that the
// pair is unordered.
type Room struct {
	ID           string    `json:"id" firestore:"id"`
	Participants []string  `json:"participants" firestore:"participants"`
	ItemID       int64     `json:"itemId" firestore:"itemId"`
	CreatedAt    time.Time `json:"createdAt" firestore:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt" firestore:"updatedAt"`
}

// HasParticipant reports whether userID is one of the room's participants.
func (r *Room) HasParticipant(userID string) bool {
	for _, p := range r.Participants {
		if p == userID {
			return true
		}
	}
	return false
}

// OtherParticipant returns the participant that is not userID.
func (r *Room) OtherParticipant(userID string) string {
	for _, p := range r.Participants {
		if p != userID {
			return p
		}
	}
	return ""
}

// StatusUpdateRequest is the body of a listing status transition.
type StatusUpdateRequest struct {
	Status string `json:"status" validate:"required"`
	UserID string `json:"userId" validate:"required"`
}

// StatusUpdateResponse is the part of the status transition reply the client reads.
type StatusUpdateResponse struct {
	Success bool `json:"success"`
}

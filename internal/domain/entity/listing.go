package entity

import "time"

const (
	ListingStatusAvailable = "available"
	ListingStatusReserved  = "reserved"
	ListingStatusDone      = "done"
)

// ListingRef is the normalized display record for the item under discussion.
type ListingRef struct {
	ID             int64  `json:"id"`
	Title          string `json:"title"`
	Price          int64  `json:"price"`
	ImageURL       string `json:"imageUrl,omitempty"`
	CounterpartyID string `json:"counterpartyId,omitempty"`
	Status         string `json:"status"`
	// OwnerID is only known when the record came from a raw listing.
	OwnerID string `json:"ownerId,omitempty"`
}

// RawListing is a listing as handed over by listing pages or the catalog. The
// seller id has lived under several field names over time.
type RawListing struct {
	ID           FlexInt    `json:"id"`
	Title        string     `json:"title"`
	Price        FlexInt    `json:"price"`
	ImageURL     string     `json:"imageUrl"`
	Status       string     `json:"status"`
	OwnerID      FlexString `json:"OwnerId"`
	SellerID     FlexString `json:"sellerId"`
	SellerUserID FlexString `json:"sellerUserid"`
	Seller       *SellerRef `json:"seller,omitempty"`
	RegDate      string     `json:"regDate,omitempty"`
	UpdatedAt    string     `json:"updatedAt,omitempty"`
}

type SellerRef struct {
	UserID FlexString `json:"userid"`
	ID     FlexString `json:"id"`
}

// Listing is the catalog record kept by the reference backend.
type Listing struct {
	ID        int64     `json:"id" firestore:"id"`
	Title     string    `json:"title" firestore:"title"`
	Price     int64     `json:"price" firestore:"price"`
	ImageURL  string    `json:"imageUrl,omitempty" firestore:"imageUrl,omitempty"`
	OwnerID   string    `json:"OwnerId" firestore:"ownerId"`
	Status    string    `json:"status" firestore:"status"`
	RegDate   time.Time `json:"regDate" firestore:"regDate"`
	UpdatedAt time.Time `json:"updatedAt" firestore:"updatedAt"`
}

// IsValidListingStatus reports whether status is one the catalog accepts.
func IsValidListingStatus(status string) bool {
	switch status {
	case ListingStatusAvailable, ListingStatusReserved, ListingStatusDone:
		return true
	}
	return false
}

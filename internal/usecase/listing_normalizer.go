package usecase

import (
	"marketchat/internal/domain/entity"
)

// NormalizeOutcome tells the caller what NormalizeFromRoom could derive.
type NormalizeOutcome int

const (
	// ListingAbsent: the room carries no listing information at all.
	ListingAbsent NormalizeOutcome = iota
	// ListingReady: the room carried flattened listing fields.
	ListingReady
	// FetchRequired: only a listing-transaction id is known; fetch it and
	// pass the result to NormalizeFromRaw.
	FetchRequired
)

func (o NormalizeOutcome) String() string {
	switch o {
	case ListingReady:
		return "ready"
	case FetchRequired:
		return "fetch_required"
	default:
		return "absent"
	}
}

// counterpartyAccessor reads one candidate seller id out of a raw listing.
type counterpartyAccessor struct {
	name string
	get  func(entity.RawListing) entity.FlexString
}

// counterpartyChain lists seller id locations in priority order.
var counterpartyChain = []counterpartyAccessor{
	{name: "OwnerId", get: func(l entity.RawListing) entity.FlexString { return l.OwnerID }},
	{name: "sellerId", get: func(l entity.RawListing) entity.FlexString { return l.SellerID }},
	{name: "sellerUserid", get: func(l entity.RawListing) entity.FlexString { return l.SellerUserID }},
	{name: "seller.userid", get: func(l entity.RawListing) entity.FlexString {
		if l.Seller == nil {
			return ""
		}
		return l.Seller.UserID
	}},
	{name: "seller.id", get: func(l entity.RawListing) entity.FlexString {
		if l.Seller == nil {
			return ""
		}
		return l.Seller.ID
	}},
}

// ListingNormalizer derives ListingRefs from room payloads and raw listings.
type ListingNormalizer struct{}

func NewListingNormalizer() *ListingNormalizer {
	return &ListingNormalizer{}
}

// NormalizeFromRoom builds a ListingRef from the flattened fields of a room
// payload. The other participant is assumed to be the seller. When only a
// listing-transaction id is present it returns FetchRequired and that id.
func (n *ListingNormalizer) NormalizeFromRoom(room entity.RoomLookup) (entity.ListingRef, int64, NormalizeOutcome) {
	if room.ItemID != 0 && room.ItemTitle != "" {
		return entity.ListingRef{
			ID:             room.ItemID.Int64(),
			Title:          room.ItemTitle,
			Price:          room.ItemPrice.Int64(),
			ImageURL:       room.ItemImageURL,
			CounterpartyID: room.OtherUserID.String(),
			Status:         entity.ListingStatusAvailable,
		}, 0, ListingReady
	}
	if room.ItemTransactionID != 0 {
		return entity.ListingRef{}, room.ItemTransactionID.Int64(), FetchRequired
	}
	return entity.ListingRef{}, 0, ListingAbsent
}

// NormalizeFromRaw builds a ListingRef from a raw listing, resolving the
// seller through counterpartyChain.
func (n *ListingNormalizer) NormalizeFromRaw(listing entity.RawListing) entity.ListingRef {
	status := listing.Status
	if status == "" {
		status = entity.ListingStatusAvailable
	}
	return entity.ListingRef{
		ID:             listing.ID.Int64(),
		Title:          listing.Title,
		Price:          listing.Price.Int64(),
		ImageURL:       listing.ImageURL,
		CounterpartyID: n.ResolveCounterparty(listing),
		Status:         status,
		OwnerID:        listing.OwnerID.String(),
	}
}

// ResolveCounterparty returns the first non-empty seller id, or "" when none resolve.
func (n *ListingNormalizer) ResolveCounterparty(listing entity.RawListing) string {
	for _, accessor := range counterpartyChain {
		if v := accessor.get(listing); v != "" {
			return v.String()
		}
	}
	return ""
}

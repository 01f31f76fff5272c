package entity

import (
	"encoding/json"
	"sort"
	"strconv"
	"time"
)

// ListingsCacheKey is the local store key holding the cached listing collection.
const ListingsCacheKey = "items"

// CachedListing is one record of the locally cached listing collection. Only
// id, status, updatedAt and regDate are interpreted; every other field is
// carried through a rewrite untouched.
type CachedListing struct {
	ID        FlexString
	Status    string
	UpdatedAt string
	RegDate   string

	fields map[string]json.RawMessage
	// opaque holds a record that is not a listing object. It never matches an
	// id and is written back as is.
	opaque json.RawMessage
}

// DecodeCachedListings decodes the cached collection one record at a time so
// that a single unreadable record does not discard the rest.
func DecodeCachedListings(data []byte) ([]CachedListing, error) {
	var raws []json.RawMessage
	if err := json.Unmarshal(data, &raws); err != nil {
		return nil, err
	}
	items := make([]CachedListing, 0, len(raws))
	for _, raw := range raws {
		var item CachedListing
		if err := item.UnmarshalJSON(raw); err != nil {
			item = CachedListing{opaque: append(json.RawMessage(nil), raw...)}
		}
		items = append(items, item)
	}
	return items, nil
}

func (c *CachedListing) UnmarshalJSON(data []byte) error {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return err
	}
	if fields == nil {
		*c = CachedListing{opaque: append(json.RawMessage(nil), data...)}
		return nil
	}
	c.fields = fields
	if raw, ok := fields["id"]; ok {
		// An id that is neither a string nor a number stays in fields and
		// never matches.
		if err := json.Unmarshal(raw, &c.ID); err != nil {
			c.ID = ""
		}
	}
	c.Status = stringField(fields, "status")
	c.UpdatedAt = stringField(fields, "updatedAt")
	c.RegDate = stringField(fields, "regDate")
	return nil
}

func (c CachedListing) MarshalJSON() ([]byte, error) {
	if c.opaque != nil {
		return c.opaque, nil
	}
	out := make(map[string]json.RawMessage, len(c.fields)+3)
	for k, v := range c.fields {
		out[k] = v
	}
	if _, ok := out["id"]; !ok && c.ID != "" {
		if n, err := strconv.ParseInt(c.ID.String(), 10, 64); err == nil {
			out["id"] = json.RawMessage(strconv.FormatInt(n, 10))
		} else {
			out["id"] = mustRaw(c.ID.String())
		}
	}
	if c.Status != "" {
		out["status"] = mustRaw(c.Status)
	}
	if c.UpdatedAt != "" {
		out["updatedAt"] = mustRaw(c.UpdatedAt)
	}
	if c.RegDate != "" {
		out["regDate"] = mustRaw(c.RegDate)
	}
	return json.Marshal(out)
}

// Field returns the raw JSON of a field that is not interpreted.
func (c CachedListing) Field(name string) (json.RawMessage, bool) {
	v, ok := c.fields[name]
	return v, ok
}

// MatchesID reports whether the record belongs to listingID.
func (c CachedListing) MatchesID(listingID int64) bool {
	if c.opaque != nil || c.ID == "" {
		return false
	}
	n, err := ParseNumericID(c.ID.String())
	return err == nil && n == listingID
}

// RecencyTime is updatedAt, or regDate when updatedAt is absent. Unparseable
// values yield the zero time.
func (c CachedListing) RecencyTime() time.Time {
	value := c.UpdatedAt
	if value == "" {
		value = c.RegDate
	}
	return parseTimestamp(value)
}

// SortByRecency orders the collection newest first. Records without a usable
// timestamp keep their relative order at the end.
func SortByRecency(items []CachedListing) {
	sort.SliceStable(items, func(i, j int) bool {
		return items[i].RecencyTime().After(items[j].RecencyTime())
	})
}

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

func parseTimestamp(value string) time.Time {
	if value == "" {
		return time.Time{}
	}
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t
		}
	}
	return time.Time{}
}

func stringField(fields map[string]json.RawMessage, name string) string {
	raw, ok := fields[name]
	if !ok {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return ""
	}
	return s
}

func mustRaw(s string) json.RawMessage {
	b, _ := json.Marshal(s)
	return b
}

package domain

import (
	"fmt"

	"github.com/goccy/go-json"
)

// Track is one recommended song. Only the two display fields are interpreted;
// the full object the service sent is kept in Raw and re-encoded unchanged.
type Track struct {
	TrackName string
	Artists   string
	Raw       json.RawMessage
}

// trackFields mirrors the wire names of the fields Track reads.
type trackFields struct {
	TrackName string `json:"track_name_x"`
	Artists   string `json:"artists"`
}

// UnmarshalJSON decodes the display fields and keeps the original bytes.
func (t *Track) UnmarshalJSON(data []byte) error {
	var f trackFields
	if err := json.Unmarshal(data, &f); err != nil {
		return err
	}
	t.TrackName = f.TrackName
	t.Artists = f.Artists
	t.Raw = append(t.Raw[:0], data...)
	return nil
}

// MarshalJSON re-emits the service payload when one was decoded.
func (t Track) MarshalJSON() ([]byte, error) {
	if len(t.Raw) > 0 {
		return t.Raw, nil
	}
	return json.Marshal(trackFields{TrackName: t.TrackName, Artists: t.Artists})
}

// Title returns the display title, falling back for unnamed tracks.
func (t Track) Title() string {
	if t.TrackName == "" {
		return "Untitled"
	}
	return t.TrackName
}

// Key identifies the track at position index of a result list. Names repeat,
// so the position is part of the key.
func (t Track) Key(index int) string {
	return fmt.Sprintf("%s-%d", t.TrackName, index)
}

// RecommendationPage is one page of ranked recommendations.
type RecommendationPage struct {
	Tracks  []Track `json:"recommendations"`
	HasMore bool    `json:"hasMore"`

	RequestID string `json:"-"` // X-Request-ID sent with the request
}

// RecommendationRequest is the body posted to the service.
type RecommendationRequest struct {
	PlaylistID int `json:"playlist_id"`
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
}

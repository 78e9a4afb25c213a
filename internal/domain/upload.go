package domain

import "fmt"

// UploadRequest identifies one upload run: whose credential to use and
// which player/mode to reconcile.
type UploadRequest struct {
	RequestID string `json:"request_id,omitempty"`
	UserID    string `json:"user_id"`
	Player    string `json:"player"`
	Mode      Mode   `json:"mode"`
}

// Validate checks that the request carries everything a run needs.
func (r UploadRequest) Validate() error {
	if r.UserID == "" {
		return fmt.Errorf("%w: missing user id", ErrInvalidRequest)
	}
	if r.Player == "" {
		return fmt.Errorf("%w: missing player", ErrInvalidRequest)
	}
	if !r.Mode.Valid() {
		return fmt.Errorf("%w: invalid mode %d", ErrInvalidRequest, int(r.Mode))
	}
	return nil
}

// UploadResult is the outcome of one upload run as reported by osu!track.
// The zero result (nothing fetched, nothing submitted) is a valid success.
type UploadResult struct {
	Username    string `json:"username,omitempty"`
	Accepted    int    `json:"accepted"`
	Rejected    int    `json:"rejected"`
	NewBests    int    `json:"new_bests"`
	FirstUpdate bool   `json:"first_update,omitempty"`
}

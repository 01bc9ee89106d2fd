package model

import (
	"encoding/json"
	"fmt"
	"strconv"
)

const (
	StatusPending  = "Pending"
	StatusReviewed = "Reviewed"
	StatusHired    = "Hired"
	StatusRejected = "Rejected"
)

// ParseStatus validates a candidate status value
func ParseStatus(s string) (string, error) {
	switch s {
	case StatusPending, StatusReviewed, StatusHired, StatusRejected:
		return s, nil
	}
	return "", fmt.Errorf("invalid candidate status %q", s)
}

// Candidate represents a referred candidate as held by the candidate store.
// The gateway may identify records either by a canonical document id ("_id")
// or a legacy numeric key ("id"); both are normalized into the single ID
// field at the unmarshal boundary, so everything past the gateway client
// matches on one identifier.
type Candidate struct {
	ID       string `json:"-"`
	Name     string `json:"name"`
	Email    string `json:"email"`
	Phone    string `json:"phone"`
	JobTitle string `json:"jobTitle"`
	Status   string `json:"status"`
	Resume   string `json:"resume"`
}

type candidateWire struct {
	DocID    json.RawMessage `json:"_id,omitempty"`
	LegacyID json.RawMessage `json:"id,omitempty"`
	Name     string          `json:"name"`
	Email    string          `json:"email"`
	Phone    string          `json:"phone"`
	JobTitle string          `json:"jobTitle"`
	Status   string          `json:"status"`
	Resume   string          `json:"resume"`
}

// UnmarshalJSON normalizes the two identifier spellings into Candidate.ID.
// The canonical "_id" wins when both are present.
func (c *Candidate) UnmarshalJSON(data []byte) error {
	var w candidateWire
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}

	id, err := decodeID(w.DocID)
	if err != nil {
		return err
	}
	if id == "" {
		if id, err = decodeID(w.LegacyID); err != nil {
			return err
		}
	}

	*c = Candidate{
		ID:       id,
		Name:     w.Name,
		Email:    w.Email,
		Phone:    w.Phone,
		JobTitle: w.JobTitle,
		Status:   w.Status,
		Resume:   w.Resume,
	}
	return nil
}

// MarshalJSON emits the identifier under both keys so either flavor of
// consumer keeps working.
func (c Candidate) MarshalJSON() ([]byte, error) {
	id, err := json.Marshal(c.ID)
	if err != nil {
		return nil, err
	}
	return json.Marshal(candidateWire{
		DocID:    id,
		LegacyID: id,
		Name:     c.Name,
		Email:    c.Email,
		Phone:    c.Phone,
		JobTitle: c.JobTitle,
		Status:   c.Status,
		Resume:   c.Resume,
	})
}

func decodeID(raw json.RawMessage) (string, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return "", nil
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s, nil
	}
	var n int64
	if err := json.Unmarshal(raw, &n); err == nil {
		return strconv.FormatInt(n, 10), nil
	}
	return "", fmt.Errorf("unrecognized candidate identifier %s", string(raw))
}

// ReferralRequest is used to submit a new candidate referral
type ReferralRequest struct {
	Name     string `json:"name" form:"name" binding:"required"`
	Email    string `json:"email" form:"email" binding:"required"`
	Phone    string `json:"phone" form:"phone"`
	JobTitle string `json:"jobTitle" form:"jobTitle" binding:"required"`
	Resume   string `json:"resume" form:"resume"` // URL; a file part may be sent instead
}

// StatusUpdateRequest changes a candidate's pipeline status
type StatusUpdateRequest struct {
	Status string `json:"status" binding:"required,oneof=Pending Reviewed Hired Rejected"`
}

// CandidateUpdateRequest replaces a candidate's full record. Unlike a
// referral, the edit form requires the phone as well; status is optional
// and keeps the current value when omitted.
type CandidateUpdateRequest struct {
	Name     string `json:"name" form:"name" binding:"required"`
	Email    string `json:"email" form:"email" binding:"required"`
	Phone    string `json:"phone" form:"phone" binding:"required"`
	JobTitle string `json:"jobTitle" form:"jobTitle" binding:"required"`
	Status   string `json:"status" form:"status" binding:"omitempty,oneof=Pending Reviewed Hired Rejected"`
	Resume   string `json:"resume" form:"resume"`
}

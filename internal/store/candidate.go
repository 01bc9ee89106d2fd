package store

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"referral_console/internal/gateway"
	"referral_console/internal/model"
)

// Search categories accepted by the filter
const (
	CategoryJobTitle = "jobTitle"
	CategoryStatus   = "status"
	CategoryName     = "name"
)

// Transient success/error banners clear themselves after this window
const messageTTL = 3 * time.Second

var (
	ErrMissingReferralFields = errors.New("please fill in all required fields")
	ErrCandidateNotFound     = errors.New("candidate not found")
)

// SessionSource is what the candidate store needs from the session: the
// bearer token for gateway calls and the identity that decides the listing
// scope.
type SessionSource interface {
	Token() string
	CurrentUser() *model.User
}

// CandidateStore holds the in-memory candidate list visible to the current
// session plus a derived filtered view. The gateway remains the source of
// truth: every mutation goes there first and the local list is only
// patched after the gateway confirms.
type CandidateStore struct {
	mu      sync.Mutex
	gw      gateway.Client
	session SessionSource
	log     *zap.Logger

	candidates []model.Candidate
	filtered   []model.Candidate

	searchTerm     string
	searchCategory string

	loading bool
	errMsg  string
	success string

	// Cancellable handles: setting a new message stops the prior timer so
	// a stale timer can never wipe a newer banner.
	errTimer     *time.Timer
	successTimer *time.Timer
	ttl          time.Duration
}

// NewCandidateStore creates an empty store. Wire it to the session's
// authenticated/logout events at construction time.
func NewCandidateStore(gw gateway.Client, session SessionSource, log *zap.Logger) *CandidateStore {
	return &CandidateStore{
		gw:             gw,
		session:        session,
		log:            log,
		searchCategory: CategoryJobTitle,
		ttl:            messageTTL,
	}
}

// LoadForSession fetches the listing scoped to the given user: the admin
// listing for admins, the self-scoped one otherwise. A nil user is a
// no-op. Call it again whenever the session identity changes.
func (c *CandidateStore) LoadForSession(ctx context.Context, user *model.User) {
	if user == nil {
		return
	}

	c.setLoading(true)
	defer c.setLoading(false)

	var (
		list []model.Candidate
		err  error
	)
	if user.Role == model.RoleAdmin {
		list, err = c.gw.AdminReferrals(ctx, c.session.Token())
	} else {
		list, err = c.gw.MyReferrals(ctx, c.session.Token())
	}
	if err != nil {
		c.log.Warn("failed to fetch candidates", zap.String("role", user.Role), zap.Error(err))
		c.setError("Failed to fetch candidates")
		return
	}

	c.mu.Lock()
	c.candidates = list
	c.filtered = append([]model.Candidate(nil), list...)
	c.mu.Unlock()
	c.log.Info("candidates loaded", zap.Int("count", len(list)), zap.String("role", user.Role))
}

// Reset drops all local candidate state, for logout
func (c *CandidateStore) Reset() {
	c.mu.Lock()
	c.candidates = nil
	c.filtered = nil
	c.errMsg = ""
	c.success = ""
	c.stopTimers()
	c.mu.Unlock()
}

// SetSearchTerm updates the term and recomputes the filtered view
func (c *CandidateStore) SetSearchTerm(term string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.searchTerm = term
	c.refilter()
}

// SetSearchCategory updates the category and recomputes the filtered view
func (c *CandidateStore) SetSearchCategory(category string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.searchCategory = category
	c.refilter()
}

// refilter derives the filtered view. Caller holds the lock.
func (c *CandidateStore) refilter() {
	term := strings.TrimSpace(c.searchTerm)
	if term == "" {
		c.filtered = append([]model.Candidate(nil), c.candidates...)
		return
	}

	term = strings.ToLower(term)
	filtered := make([]model.Candidate, 0, len(c.candidates))
	for _, cand := range c.candidates {
		value, ok := searchField(cand, c.searchCategory)
		if ok && strings.Contains(strings.ToLower(value), term) {
			filtered = append(filtered, cand)
		}
	}
	c.filtered = filtered
}

// searchField resolves the candidate field a category names. An unknown
// category matches nothing rather than erroring.
func searchField(cand model.Candidate, category string) (string, bool) {
	switch category {
	case CategoryJobTitle:
		return cand.JobTitle, true
	case CategoryStatus:
		return cand.Status, true
	case CategoryName:
		return cand.Name, true
	}
	return "", false
}

// Submit sends a new referral through the gateway. On success the list is
// refreshed from the gateway rather than patched locally; the server is
// the sole authority for the new candidate's id and status.
func (c *CandidateStore) Submit(ctx context.Context, req model.ReferralRequest, file *gateway.ResumeFile) (*model.Candidate, error) {
	if strings.TrimSpace(req.Name) == "" || strings.TrimSpace(req.Email) == "" || strings.TrimSpace(req.JobTitle) == "" {
		return nil, ErrMissingReferralFields
	}

	c.setLoading(true)
	defer c.setLoading(false)

	created, err := c.gw.SubmitReferral(ctx, c.session.Token(), req, file)
	if err != nil {
		c.log.Warn("referral submission failed", zap.String("email", req.Email), zap.Error(err))
		c.setError(failureMessage(err, "Failed to submit referral"))
		return nil, err
	}

	c.LoadForSession(ctx, c.session.CurrentUser())
	c.setSuccess("Candidate referred successfully!")
	c.log.Info("referral submitted", zap.String("candidate_id", created.ID))
	return created, nil
}

// UpdateStatus transitions a candidate's status, gateway first. The local
// patch is only applied after the gateway confirms, so a failed call can
// never desync the list.
func (c *CandidateStore) UpdateStatus(ctx context.Context, id, status string) error {
	status, err := model.ParseStatus(status)
	if err != nil {
		return err
	}

	c.setLoading(true)
	defer c.setLoading(false)

	if _, err := c.gw.UpdateStatus(ctx, c.session.Token(), id, status); err != nil {
		c.log.Warn("status update failed", zap.String("candidate_id", id), zap.Error(err))
		c.setError("Failed to update candidate status")
		return err
	}

	c.mu.Lock()
	patched := false
	for i := range c.candidates {
		if c.candidates[i].ID == id {
			c.candidates[i].Status = status
			patched = true
		}
	}
	c.refilter()
	c.mu.Unlock()

	if !patched {
		c.log.Warn("status updated remotely but candidate missing locally", zap.String("candidate_id", id))
		return ErrCandidateNotFound
	}

	c.setSuccess("Candidate status updated to " + status)
	return nil
}

// Update replaces a candidate's full record, gateway first. The edit form
// requires phone in addition to the referral fields; an omitted status
// keeps the current one. Like UpdateStatus, the local record is only
// patched after the gateway confirms.
func (c *CandidateStore) Update(ctx context.Context, id string, req model.CandidateUpdateRequest) error {
	if strings.TrimSpace(req.Name) == "" || strings.TrimSpace(req.Email) == "" ||
		strings.TrimSpace(req.Phone) == "" || strings.TrimSpace(req.JobTitle) == "" {
		return ErrMissingReferralFields
	}
	if req.Status != "" {
		status, err := model.ParseStatus(req.Status)
		if err != nil {
			return err
		}
		req.Status = status
	}

	c.setLoading(true)
	defer c.setLoading(false)

	if _, err := c.gw.UpdateCandidate(ctx, c.session.Token(), id, req); err != nil {
		c.log.Warn("candidate update failed", zap.String("candidate_id", id), zap.Error(err))
		c.setError("Failed to update candidate")
		return err
	}

	c.mu.Lock()
	patched := false
	for i := range c.candidates {
		if c.candidates[i].ID == id {
			c.candidates[i].Name = req.Name
			c.candidates[i].Email = req.Email
			c.candidates[i].Phone = req.Phone
			c.candidates[i].JobTitle = req.JobTitle
			if req.Status != "" {
				c.candidates[i].Status = req.Status
			}
			if req.Resume != "" {
				c.candidates[i].Resume = req.Resume
			}
			patched = true
		}
	}
	c.refilter()
	c.mu.Unlock()

	if !patched {
		c.log.Warn("candidate updated remotely but missing locally", zap.String("candidate_id", id))
		return ErrCandidateNotFound
	}

	c.setSuccess("Candidate updated successfully!")
	return nil
}

// Delete removes a candidate, gateway first. On failure the list is left
// untouched.
func (c *CandidateStore) Delete(ctx context.Context, id string) error {
	c.setLoading(true)
	defer c.setLoading(false)

	if err := c.gw.DeleteCandidate(ctx, c.session.Token(), id); err != nil {
		c.log.Warn("candidate deletion failed", zap.String("candidate_id", id), zap.Error(err))
		c.setError("Failed to delete candidate")
		return err
	}

	c.mu.Lock()
	kept := c.candidates[:0]
	for _, cand := range c.candidates {
		if cand.ID != id {
			kept = append(kept, cand)
		}
	}
	c.candidates = kept
	c.refilter()
	c.mu.Unlock()

	c.setSuccess("Candidate deleted successfully!")
	return nil
}

// Get looks up a candidate in local state by its identifier
func (c *CandidateStore) Get(id string) (*model.Candidate, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, cand := range c.candidates {
		if cand.ID == id {
			out := cand
			return &out, true
		}
	}
	return nil, false
}

// Candidates returns a copy of the authoritative list
func (c *CandidateStore) Candidates() []model.Candidate {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]model.Candidate(nil), c.candidates...)
}

// Filtered returns a copy of the derived filtered view
func (c *CandidateStore) Filtered() []model.Candidate {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]model.Candidate(nil), c.filtered...)
}

// SearchTerm returns the current search term
func (c *CandidateStore) SearchTerm() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.searchTerm
}

// SearchCategory returns the current search category
func (c *CandidateStore) SearchCategory() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.searchCategory
}

// Loading reports whether a gateway call is in flight
func (c *CandidateStore) Loading() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.loading
}

// Error returns the transient error banner, empty when none
func (c *CandidateStore) Error() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.errMsg
}

// Success returns the transient success banner, empty when none
func (c *CandidateStore) Success() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.success
}

// ClearMessages drops both banners and their timers immediately
func (c *CandidateStore) ClearMessages() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.stopTimers()
	c.errMsg = ""
	c.success = ""
}

func (c *CandidateStore) setLoading(v bool) {
	c.mu.Lock()
	c.loading = v
	c.mu.Unlock()
}

func (c *CandidateStore) setError(msg string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.errTimer != nil {
		c.errTimer.Stop()
	}
	c.errMsg = msg
	// The handle comparison keeps an already-fired timer from wiping a
	// banner set after it.
	var t *time.Timer
	t = time.AfterFunc(c.ttl, func() {
		c.mu.Lock()
		if c.errTimer == t {
			c.errMsg = ""
			c.errTimer = nil
		}
		c.mu.Unlock()
	})
	c.errTimer = t
}

func (c *CandidateStore) setSuccess(msg string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.successTimer != nil {
		c.successTimer.Stop()
	}
	c.success = msg
	var t *time.Timer
	t = time.AfterFunc(c.ttl, func() {
		c.mu.Lock()
		if c.successTimer == t {
			c.success = ""
			c.successTimer = nil
		}
		c.mu.Unlock()
	})
	c.successTimer = t
}

// stopTimers cancels pending auto-clear timers. Caller holds the lock.
func (c *CandidateStore) stopTimers() {
	if c.errTimer != nil {
		c.errTimer.Stop()
		c.errTimer = nil
	}
	if c.successTimer != nil {
		c.successTimer.Stop()
		c.successTimer = nil
	}
}

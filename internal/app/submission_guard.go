package app

import "time"

// Per-IP penalty tiers. A fresh IP is "clear" (no record at all); every
// accepted submission arms a short cooldown; attempting to submit again
// while the cooldown is live escalates to a ban covering the rest of the
// calendar day.
type GuardTier string

const (
	GuardCooldown GuardTier = "cooldown"
	GuardDayBan   GuardTier = "day-ban"
)

// GuardRecord is the tagged per-IP state. Day is set only for day bans
// and names the UTC+9 calendar day the ban covers; a record that survives
// past its day (the TTL spans the rollover) no longer binds.
type GuardRecord struct {
	Tier GuardTier `json:"tier"`
	Day  string    `json:"day,omitempty"`
}

const (
	// SubmitCooldown is the window after an accepted submission during
	// which another submission is refused.
	SubmitCooldown = 2 * time.Minute
	// DayBanTTL keeps a day-ban record alive safely past the UTC+9
	// midnight rollover.
	DayBanTTL = 25 * time.Hour
	// FeedbackWindow allows one accepted feedback per IP per window.
	FeedbackWindow = time.Hour
	// GuardCapacity bounds both penalty stores.
	GuardCapacity = 100000
)

// banZone is the calendar used for day bans. The service's audience is
// concentrated in UTC+9, so "the rest of the day" is measured there.
var banZone = time.FixedZone("UTC+9", 9*60*60)

const (
	cooldownReason = "You just submitted a result. Please try again in a few minutes."
	dayBanReason   = "Submissions from this address are blocked for the rest of the day."
)

// SubmissionGuard rate-limits quiz submissions per client IP with an
// escalating penalty, and independently limits free-text feedback to one
// per IP per window. IPs on the exemption list (local development only)
// bypass every check.
type SubmissionGuard struct {
	penalties KeyStore[GuardRecord]
	feedback  KeyStore[time.Time]
	exempt    map[string]struct{}
	now       func() time.Time
}

func NewSubmissionGuard(penalties KeyStore[GuardRecord], feedback KeyStore[time.Time], exemptIPs []string) *SubmissionGuard {
	exempt := make(map[string]struct{}, len(exemptIPs))
	for _, ip := range exemptIPs {
		exempt[ip] = struct{}{}
	}
	return &SubmissionGuard{penalties: penalties, feedback: feedback, exempt: exempt, now: time.Now}
}

// WithClock is test-only for deterministic day rollovers.
func (g *SubmissionGuard) WithClock(now func() time.Time) *SubmissionGuard {
	g.now = now
	return g
}

// CanSubmit is the read-only eligibility probe used by the pre-flight
// endpoint. It must not mutate state, so checking eligibility repeatedly
// never escalates a penalty.
func (g *SubmissionGuard) CanSubmit(ip string) bool {
	if g.isExempt(ip) {
		return true
	}
	rec, ok := g.penalties.Get(ip)
	if !ok {
		return true
	}
	return !g.binds(rec)
}

// RejectReason is the authoritative check performed at submission time.
// It returns the client-visible refusal reason, or ok=false when the
// submission may proceed. An attempt during a live cooldown escalates to
// a day ban as a side effect; that escalation is the one piece of state
// this method is allowed to write.
func (g *SubmissionGuard) RejectReason(ip string) (string, bool) {
	if g.isExempt(ip) {
		return "", false
	}
	rec, ok := g.penalties.Get(ip)
	if !ok {
		return "", false
	}
	switch {
	case rec.Tier == GuardDayBan && rec.Day == g.today():
		return dayBanReason, true
	case rec.Tier == GuardCooldown:
		// Retrying during cooldown is treated as abuse: block the
		// remainder of the calendar day.
		g.penalties.PutTTL(ip, GuardRecord{Tier: GuardDayBan, Day: g.today()}, DayBanTTL)
		return cooldownReason, true
	default:
		// A ban from a previous day whose TTL hasn't lapsed yet.
		return "", false
	}
}

// Record arms the cooldown for ip. Called only after the result has been
// durably saved, so a failed save leaves the IP clear for a retry.
func (g *SubmissionGuard) Record(ip string) {
	if g.isExempt(ip) {
		return
	}
	g.penalties.PutTTL(ip, GuardRecord{Tier: GuardCooldown}, SubmitCooldown)
}

// CanSubmitFeedback reports whether ip is inside its feedback window.
func (g *SubmissionGuard) CanSubmitFeedback(ip string) bool {
	if g.isExempt(ip) {
		return true
	}
	_, ok := g.feedback.Get(ip)
	return !ok
}

// RecordFeedback opens the feedback window for ip.
func (g *SubmissionGuard) RecordFeedback(ip string) {
	if g.isExempt(ip) {
		return
	}
	g.feedback.PutTTL(ip, g.now(), FeedbackWindow)
}

func (g *SubmissionGuard) isExempt(ip string) bool {
	_, ok := g.exempt[ip]
	return ok
}

// binds reports whether rec still refuses submissions right now.
func (g *SubmissionGuard) binds(rec GuardRecord) bool {
	if rec.Tier == GuardDayBan {
		return rec.Day == g.today()
	}
	return rec.Tier == GuardCooldown
}

func (g *SubmissionGuard) today() string {
	return g.now().In(banZone).Format("2006-01-02")
}

package merge

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/fwojciec/leadcrawl"
)

// DefaultFallbackBudget bounds AI-fallback rounds per lead so the
// re-ingestion loop always terminates.
const DefaultFallbackBudget = 1

// stageRank orders extraction stages for field precedence. Higher ranks
// overwrite lower ones; aiFallback only fills fields no deterministic stage
// populated.
var stageRank = map[leadcrawl.Stage]int{
	leadcrawl.StageAIFallback: 0,
	leadcrawl.StageContact:    1,
	leadcrawl.StageBlock:      2,
	leadcrawl.StageProfile:    3,
}

// leadStatus tracks the per-lead state machine:
// New -> Merging -> (LowConfidence -> Merging) -> Final.
type leadStatus int

const (
	statusNew leadStatus = iota
	statusMerging
	statusLowConfidence
	statusFinal
)

// leadState is one lead plus its merge bookkeeping. All mutation happens
// under mu, the per-UID critical section.
type leadState struct {
	mu        sync.Mutex
	lead      *leadcrawl.Lead
	status    leadStatus
	fieldRank map[leadcrawl.FieldName]int
	fallbacks int

	// forward points at the surviving lead after this one was absorbed in a
	// UID collision. Guarded by mu. Merges that resolved this state before
	// the absorption follow the pointer so no fields land in a discarded
	// lead.
	forward *leadState
}

// lockLive locks the live state for st, following forward pointers left by
// absorbed duplicates. The returned state is locked and has no forward
// pointer.
func lockLive(st *leadState) *leadState {
	st.mu.Lock()
	for st.forward != nil {
		next := st.forward
		st.mu.Unlock()
		st = next
		st.mu.Lock()
	}
	return st
}

// Engine joins lead candidates from all extraction stages into canonical
// leads, deduplicates them by the priority key chain, scores them, and
// routes low-confidence leads through the AI fallback.
//
// Configure the exported fields before the first Ingest call.
type Engine struct {
	// Validator decides strong identity for emails. Optional; without it no
	// email counts as validated.
	Validator leadcrawl.Validator

	// Fallback recovers fields for low-confidence leads. Optional.
	Fallback leadcrawl.FallbackExtractor

	// Canon canonicalizes URLs for join keys. Defaults to the default
	// tracking-parameter denylist.
	Canon *leadcrawl.Canonicalizer

	// Weights is the confidence weight table.
	Weights leadcrawl.ScoreWeights

	// FuzzyThreshold is the minimum token-overlap similarity for the
	// (name, domain) join key.
	FuzzyThreshold float64

	// StopScoreThreshold is the confidence below which a lead is flagged
	// LOW_CONFIDENCE and routed to the fallback.
	StopScoreThreshold int

	// FallbackBudget bounds fallback rounds per lead.
	FallbackBudget int

	// OnScore, when set, receives the per-domain confidence delta after
	// each merge. The orchestrator uses it for the early-stop rule.
	OnScore func(domain string, delta int)

	Logger *slog.Logger

	mu      sync.Mutex
	leads   map[string]*leadState
	byPage  map[string]string
	byEmail map[string]string
	byName  []nameEntry
	seen    map[uint64]string
	order   []string
}

// nameEntry is one fuzzy-join index record.
type nameEntry struct {
	tokens []string
	domain string
	uid    string
}

// NewEngine creates an Engine with default weights, thresholds and budget.
func NewEngine() *Engine {
	return &Engine{
		Weights:            leadcrawl.DefaultScoreWeights(),
		FuzzyThreshold:     DefaultFuzzyThreshold,
		StopScoreThreshold: leadcrawl.DefaultLimits().StopScoreThreshold,
		FallbackBudget:     DefaultFallbackBudget,
		Logger:             slog.Default(),
		leads:              make(map[string]*leadState),
		byPage:             make(map[string]string),
		byEmail:            make(map[string]string),
		byName:             nil,
		seen:               make(map[uint64]string),
	}
}

// Ingest merges one candidate and returns the UID of the lead it joined or
// created. Ingest is idempotent for repeated delivery of an identical
// candidate, and safe for concurrent use.
func (e *Engine) Ingest(ctx context.Context, cand *leadcrawl.LeadCandidate) (string, error) {
	if err := cand.Validate(); err != nil {
		return "", err
	}

	c := e.prepare(ctx, cand)

	fp := fingerprint(c)
	e.mu.Lock()
	if uid, ok := e.seen[fp]; ok {
		e.mu.Unlock()
		return uid, nil
	}
	st, uid := e.resolve(c)
	e.seen[fp] = uid
	e.mu.Unlock()

	e.mergeInto(st, c)

	e.maybeFallback(ctx, st, uid)
	return uid, nil
}

// prepare returns a copy of the candidate with canonical URLs and the email
// validation verdict applied. The caller's candidate is never mutated.
func (e *Engine) prepare(ctx context.Context, cand *leadcrawl.LeadCandidate) *leadcrawl.LeadCandidate {
	c := *cand

	canon := e.canon()
	if u, err := canon.Canonicalize(c.PageURL); err == nil {
		c.PageURL = u
	}
	if c.ProfileLink != "" {
		if u, err := canon.Canonicalize(c.ProfileLink); err == nil {
			c.ProfileLink = u
		}
	}

	if c.Email != "" {
		c.Email = strings.ToLower(strings.TrimSpace(c.Email))
		if !c.EmailValidated && e.Validator != nil {
			verdict, err := e.Validator.Validate(ctx, leadcrawl.ContactEmail, c.Email)
			if err != nil {
				// Validation failure drops the verdict, not the value.
				e.logger().Warn("email validation failed", "email", c.Email, "err", err)
			}
			c.EmailValidated = err == nil && verdict == leadcrawl.ValidityValid
		}
	}
	return &c
}

// resolve finds the lead a candidate belongs to via the priority key chain
// (page URL, email, fuzzy name+domain), creating a new lead when no key
// matches. When keys point at several existing leads the fuzzy key misfired
// earlier; the losers are absorbed into the highest-confidence lead.
// Caller must hold e.mu.
func (e *Engine) resolve(c *leadcrawl.LeadCandidate) (*leadState, string) {
	domain := e.domainOf(c.PageURL)

	var uids []string
	addUID := func(uid string) {
		for _, u := range uids {
			if u == uid {
				return
			}
		}
		uids = append(uids, uid)
	}

	// Key 1: exact page/profile URL. Skipped for block-split candidates,
	// which deliberately share their listing page's URL.
	if c.BlockIndex == nil {
		if c.ProfileLink != "" {
			if uid, ok := e.byPage[c.ProfileLink]; ok {
				addUID(uid)
			}
		}
		if uid, ok := e.byPage[c.PageURL]; ok {
			addUID(uid)
		}
	}

	// Key 2: exact case-insensitive email.
	if c.Email != "" {
		if uid, ok := e.byEmail[c.Email]; ok {
			addUID(uid)
		}
	}

	// Key 3: fuzzy (name, domain).
	if c.Name != "" {
		tokens := nameTokens(NormalizeName(c.Name))
		for _, entry := range e.byName {
			if entry.domain != domain {
				continue
			}
			if tokenSimilarity(tokens, entry.tokens) >= e.fuzzyThreshold() {
				addUID(entry.uid)
			}
		}
	}

	var st *leadState
	var uid string
	switch len(uids) {
	case 0:
		uid = e.uidFor(c, domain)
		if existing, ok := e.leads[uid]; ok {
			st = existing
		} else {
			st = e.newLead(uid, c)
		}
	case 1:
		uid = uids[0]
		st = e.leads[uid]
	default:
		uid = e.absorb(uids)
		st = e.leads[uid]
	}

	e.index(c, uid, domain)
	return st, uid
}

// uidFor assigns the deduplication key for a brand-new lead: profile link if
// present, else validated email, else a stable hash of (normalizedName,
// domain). Entities with none of those get a per-page (and per-block) key.
func (e *Engine) uidFor(c *leadcrawl.LeadCandidate, domain string) string {
	if c.BlockIndex == nil && c.ProfileLink != "" {
		return c.ProfileLink
	}
	if c.Email != "" && c.EmailValidated {
		return "email:" + c.Email
	}
	if c.Name != "" {
		h := xxhash.Sum64String(NormalizeName(c.Name) + "|" + domain)
		return fmt.Sprintf("name:%016x", h)
	}
	if c.BlockIndex != nil {
		return fmt.Sprintf("%s#block-%d", c.PageURL, *c.BlockIndex)
	}
	return c.PageURL
}

// newLead registers a fresh lead. Caller must hold e.mu.
func (e *Engine) newLead(uid string, c *leadcrawl.LeadCandidate) *leadState {
	now := time.Now()
	st := &leadState{
		lead: &leadcrawl.Lead{
			UID:         uid,
			PageURL:     c.PageURL,
			ProfileLink: c.ProfileLink,
			SourceURLs:  make(map[leadcrawl.FieldName][]string),
			CreatedAt:   now,
			UpdatedAt:   now,
		},
		status:    statusNew,
		fieldRank: make(map[leadcrawl.FieldName]int),
	}
	e.leads[uid] = st
	e.order = append(e.order, uid)
	return st
}

// index points the candidate's join keys at uid. Caller must hold e.mu.
func (e *Engine) index(c *leadcrawl.LeadCandidate, uid, domain string) {
	if c.BlockIndex == nil {
		if c.ProfileLink != "" {
			e.byPage[c.ProfileLink] = uid
		}
		e.byPage[c.PageURL] = uid
	}
	if c.Email != "" {
		e.byEmail[c.Email] = uid
	}
	if c.Name != "" {
		tokens := nameTokens(NormalizeName(c.Name))
		for _, entry := range e.byName {
			if entry.uid == uid && entry.domain == domain && tokenSimilarity(tokens, entry.tokens) == 1 {
				return
			}
		}
		e.byName = append(e.byName, nameEntry{tokens: tokens, domain: domain, uid: uid})
	}
}

// absorb resolves a UID collision: the lead with the highest running
// confidence wins; the losers' non-conflicting fields and all sourceUrls are
// absorbed into the winner before being discarded. Caller must hold e.mu.
func (e *Engine) absorb(uids []string) string {
	confidence := func(uid string) int {
		st := e.leads[uid]
		st.mu.Lock()
		defer st.mu.Unlock()
		return st.lead.Confidence
	}

	winner := uids[0]
	best := confidence(winner)
	for _, uid := range uids[1:] {
		if c := confidence(uid); c > best {
			winner, best = uid, c
		}
	}

	for _, uid := range uids {
		if uid == winner {
			continue
		}
		loser := e.leads[uid]
		e.logger().Info("absorbing duplicate lead", "winner", winner, "loser", uid)
		e.mergeLead(e.leads[winner], loser)
		delete(e.leads, uid)
		for k, v := range e.byPage {
			if v == uid {
				e.byPage[k] = winner
			}
		}
		for k, v := range e.byEmail {
			if v == uid {
				e.byEmail[k] = winner
			}
		}
		for i := range e.byName {
			if e.byName[i].uid == uid {
				e.byName[i].uid = winner
			}
		}
		for k, v := range e.seen {
			if v == uid {
				e.seen[k] = winner
			}
		}
		for i, u := range e.order {
			if u == uid {
				e.order = append(e.order[:i], e.order[i+1:]...)
				break
			}
		}
	}
	return winner
}

// mergeLead folds a losing duplicate into the winner, field by field, at the
// loser's recorded precedence ranks.
func (e *Engine) mergeLead(winner, loser *leadState) {
	loser.mu.Lock()
	l := loser.lead
	c := &leadcrawl.LeadCandidate{
		Name: l.Name, Title: l.Title, BusinessName: l.BusinessName,
		Email: l.Email, Phone: l.Phone, SocialHandles: l.SocialHandles,
		ServicesOffered: l.ServicesOffered, StyleVibeDescriptors: l.StyleVibeDescriptors,
		Location: l.Location, TeamMemberNames: l.TeamMemberNames,
		PortfolioLinks: l.PortfolioLinks, BookingLinks: l.BookingLinks,
		Testimonials: l.Testimonials, MissionStatement: l.MissionStatement,
		RawPageText: l.RawPageText, PageURL: l.PageURL, ProfileLink: l.ProfileLink,
		SourceURLs: l.SourceURLs, EmailValidated: l.EmailValidated,
	}
	ranks := make(map[leadcrawl.FieldName]int, len(loser.fieldRank))
	for field, rank := range loser.fieldRank {
		ranks[field] = rank
	}
	mergedFrom := l.MergedFrom
	loser.forward = winner
	loser.mu.Unlock()

	e.applyCandidate(winner, c, ranks)

	w := lockLive(winner)
	w.lead.MergedFrom = append(w.lead.MergedFrom, mergedFrom...)
	w.mu.Unlock()
}

// mergeInto merges one candidate into its lead under the per-UID critical
// section and reports the confidence delta.
func (e *Engine) mergeInto(st *leadState, c *leadcrawl.LeadCandidate) {
	rank := stageRank[c.Stage]
	ranks := make(map[leadcrawl.FieldName]int)
	for field := range c.SourceURLs {
		ranks[field] = rank
	}
	e.applyCandidate(st, c, ranks)

	st = lockLive(st)
	st.lead.MergedFrom = append(st.lead.MergedFrom, c.Stage)
	if st.status == statusNew {
		st.status = statusMerging
	}
	st.mu.Unlock()
}

// applyCandidate performs the precedence-driven field merge and rescoring.
// ranks carries the per-field precedence of the incoming values.
func (e *Engine) applyCandidate(st *leadState, c *leadcrawl.LeadCandidate, ranks map[leadcrawl.FieldName]int) {
	st = lockLive(st)
	lead := st.lead
	before := lead.Confidence

	rankOf := func(field leadcrawl.FieldName) int { return ranks[field] }

	setScalar := func(field leadcrawl.FieldName, dst *string, val string) {
		if val == "" {
			return
		}
		cur, ok := st.fieldRank[field]
		switch {
		case *dst == "":
			*dst = val
			st.fieldRank[field] = rankOf(field)
		case ok && rankOf(field) > cur:
			*dst = val
			st.fieldRank[field] = rankOf(field)
		case *dst != val:
			e.logger().Debug("merge conflict resolved by precedence",
				"uid", lead.UID, "field", string(field), "kept", *dst, "dropped", val)
		}
	}

	setScalar(leadcrawl.FieldPersonName, &lead.Name, c.Name)
	setScalar(leadcrawl.FieldTitle, &lead.Title, c.Title)
	setScalar(leadcrawl.FieldBusinessName, &lead.BusinessName, c.BusinessName)
	setScalar(leadcrawl.FieldLocation, &lead.Location, c.Location)
	setScalar(leadcrawl.FieldMission, &lead.MissionStatement, c.MissionStatement)
	setScalar(leadcrawl.FieldPhone, &lead.Phone, c.Phone)

	e.mergeEmail(st, c, rankOf(leadcrawl.FieldEmail))

	if lead.RawPageText == "" {
		lead.RawPageText = c.RawPageText
	}
	if lead.ProfileLink == "" {
		lead.ProfileLink = c.ProfileLink
	}

	for platform, handle := range c.SocialHandles {
		if handle == "" {
			continue
		}
		if lead.SocialHandles == nil {
			lead.SocialHandles = make(map[string]string)
		}
		if _, ok := lead.SocialHandles[platform]; !ok {
			lead.SocialHandles[platform] = handle
		}
	}

	lead.ServicesOffered = unionNormalized(lead.ServicesOffered, c.ServicesOffered)
	lead.StyleVibeDescriptors = unionNormalized(lead.StyleVibeDescriptors, c.StyleVibeDescriptors)
	lead.TeamMemberNames = unionNormalized(lead.TeamMemberNames, c.TeamMemberNames)
	lead.PortfolioLinks = unionNormalized(lead.PortfolioLinks, c.PortfolioLinks)
	lead.BookingLinks = unionNormalized(lead.BookingLinks, c.BookingLinks)
	lead.Testimonials = unionNormalized(lead.Testimonials, c.Testimonials)

	// Provenance accumulates across merges, never overwritten.
	for field, urls := range c.SourceURLs {
		lead.SourceURLs[field] = unionNormalized(lead.SourceURLs[field], urls)
	}

	lead.Confidence = Score(lead, e.Weights)
	lead.UpdatedAt = time.Now()
	delta := lead.Confidence - before
	domain := e.domainOf(lead.PageURL)
	st.mu.Unlock()

	if delta != 0 && e.OnScore != nil {
		e.OnScore(domain, delta)
	}
}

// mergeEmail applies the strong-identity rule: a validated email is never
// overwritten by a weaker or generic value, regardless of stage precedence.
// Caller must hold st.mu.
func (e *Engine) mergeEmail(st *leadState, c *leadcrawl.LeadCandidate, rank int) {
	if c.Email == "" {
		return
	}
	lead := st.lead
	cur, ok := st.fieldRank[leadcrawl.FieldEmail]
	switch {
	case lead.Email == "":
		lead.Email = c.Email
		lead.EmailValidated = c.EmailValidated
		st.fieldRank[leadcrawl.FieldEmail] = rank
	case lead.EmailValidated && !c.EmailValidated:
		// Strong identity wins even against higher-precedence stages.
		if lead.Email != c.Email {
			e.logger().Debug("kept validated email over weaker value",
				"uid", lead.UID, "kept", lead.Email, "dropped", c.Email)
		}
	case c.EmailValidated && !lead.EmailValidated:
		lead.Email = c.Email
		lead.EmailValidated = true
		st.fieldRank[leadcrawl.FieldEmail] = rank
	case ok && rank > cur:
		lead.Email = c.Email
		lead.EmailValidated = c.EmailValidated
		st.fieldRank[leadcrawl.FieldEmail] = rank
	}
}

// maybeFallback routes a low-confidence lead through the AI fallback and
// re-ingests the result, bounded by the per-lead budget.
func (e *Engine) maybeFallback(ctx context.Context, st *leadState, uid string) {
	if e.Fallback == nil {
		return
	}

	st = lockLive(st)
	lead := st.lead
	trigger := lead.Confidence < e.StopScoreThreshold ||
		(lead.Name == "" && !lead.HasContactChannel())
	if !trigger || st.status == statusFinal {
		st.mu.Unlock()
		return
	}
	if st.fallbacks >= e.fallbackBudget() {
		lead.AddFlag(leadcrawl.FlagLowConfidence)
		lead.AddFlag(leadcrawl.FlagFallbackSpent)
		st.mu.Unlock()
		return
	}
	st.fallbacks++
	st.status = statusLowConfidence
	pageText := lead.RawPageText
	pageURL := lead.PageURL
	profileLink := lead.ProfileLink
	st.mu.Unlock()

	recovered, err := e.Fallback.Extract(ctx, pageText, pageURL)
	if err != nil {
		e.logger().Warn("ai fallback failed", "uid", uid, "err", err)
		return
	}
	if recovered == nil {
		return
	}

	recovered.Stage = leadcrawl.StageAIFallback
	recovered.PageURL = pageURL
	recovered.ProfileLink = profileLink
	if recovered.SourceURLs == nil {
		recovered.SourceURLs = make(map[leadcrawl.FieldName][]string)
	}

	st = lockLive(st)
	st.status = statusMerging
	st.mu.Unlock()

	// Re-enter the merge directly against the known UID: the fallback
	// candidate must not be re-resolved through the join keys.
	e.mergeInto(st, e.prepare(ctx, recovered))
	e.maybeFallback(ctx, st, uid)
}

// Finalize transitions every lead in the given domain to Final, applies the
// terminal quality flags, and returns the leads in creation order. Pass ""
// to finalize all domains. Finalize is idempotent.
func (e *Engine) Finalize(domain string) []*leadcrawl.Lead {
	e.mu.Lock()
	uids := make([]string, len(e.order))
	copy(uids, e.order)
	e.mu.Unlock()

	var out []*leadcrawl.Lead
	for _, uid := range uids {
		e.mu.Lock()
		st, ok := e.leads[uid]
		e.mu.Unlock()
		if !ok {
			continue
		}

		st = lockLive(st)
		lead := st.lead
		if lead.UID != uid {
			// Absorbed since the lookup; the winner has its own order slot.
			st.mu.Unlock()
			continue
		}
		if domain != "" && e.domainOf(lead.PageURL) != domain {
			st.mu.Unlock()
			continue
		}
		st.status = statusFinal
		if lead.Name == "" {
			lead.AddFlag(leadcrawl.FlagNoName)
		}
		if lead.Email == "" {
			lead.AddFlag(leadcrawl.FlagNoEmail)
		}
		if lead.Confidence < e.StopScoreThreshold {
			lead.AddFlag(leadcrawl.FlagLowConfidence)
		}
		out = append(out, lead)
		st.mu.Unlock()
	}
	return out
}

func (e *Engine) canon() *leadcrawl.Canonicalizer {
	if e.Canon == nil {
		return leadcrawl.NewCanonicalizer(nil)
	}
	return e.Canon
}

func (e *Engine) domainOf(pageURL string) string {
	domain, err := e.canon().Domain(pageURL)
	if err != nil {
		return ""
	}
	return domain
}

func (e *Engine) fuzzyThreshold() float64 {
	if e.FuzzyThreshold == 0 {
		return DefaultFuzzyThreshold
	}
	return e.FuzzyThreshold
}

func (e *Engine) fallbackBudget() int {
	if e.FallbackBudget == 0 {
		return DefaultFallbackBudget
	}
	return e.FallbackBudget
}

func (e *Engine) logger() *slog.Logger {
	if e.Logger == nil {
		return slog.Default()
	}
	return e.Logger
}

// unionNormalized unions two string slices, deduplicating on the trimmed
// lower-cased value while preserving insertion order.
func unionNormalized(dst, src []string) []string {
	seen := make(map[string]bool, len(dst))
	for _, v := range dst {
		seen[normKey(v)] = true
	}
	for _, v := range src {
		if v == "" {
			continue
		}
		k := normKey(v)
		if seen[k] {
			continue
		}
		seen[k] = true
		dst = append(dst, v)
	}
	return dst
}

func normKey(v string) string {
	return strings.ToLower(strings.TrimSpace(v))
}

// fingerprint hashes a candidate's JSON form for idempotent re-delivery.
func fingerprint(c *leadcrawl.LeadCandidate) uint64 {
	b, err := json.Marshal(c)
	if err != nil {
		return 0
	}
	return xxhash.Sum64(b)
}

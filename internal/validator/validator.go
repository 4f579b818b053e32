// Package validator classifies signup email addresses against fraud, fake,
// and disposable-mailbox heuristics.
//
// The classifier is pure and synchronous: no network, no DNS, no MX lookups.
// Everything it matches against is list data that can be reloaded at runtime.
package validator

import (
	"os"
	"regexp"
	"strings"
	"sync"
	"time"
)

// Rejection reasons, surfaced verbatim in delivery outcomes.
const (
	ReasonFakePattern   = "obvious fake email pattern detected"
	ReasonInvalidFormat = "invalid email format"
	ReasonDisposable    = "disposable email domains are not allowed"
)

// emailShape is the minimal acceptable address shape:
// something@something.something, with no spaces or extra @ in any segment.
var emailShape = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// Result is the outcome of classifying one address.
type Result struct {
	Accepted bool   `json:"accepted"`
	Reason   string `json:"reason,omitempty"`
}

// Validator applies the heuristic rules in a fixed order, first match wins:
//
//  1. fake local-part prefix
//  2. malformed address shape
//  3. disposable domain
//
// A Validator is safe for concurrent use. When constructed with a rules
// file it re-checks the file's mtime at most once per reload interval and
// hot-swaps the compiled lists when the file changes.
type Validator struct {
	mu       sync.RWMutex
	rules    compiled
	path     string
	interval time.Duration
	lastStat time.Time
	loadedAt time.Time
}

// New returns a Validator over the compiled-in default rules.
func New() *Validator {
	return &Validator{rules: compile(DefaultRules())}
}

// NewWithRules returns a Validator over explicit rules. Used by tests and
// by callers that manage rule loading themselves.
func NewWithRules(r Rules) *Validator {
	return &Validator{rules: compile(r)}
}

// NewFromFile loads rules from path and arranges for hot reload: each
// Validate call may re-stat the file, at most once per interval.
func NewFromFile(path string, interval time.Duration) (*Validator, error) {
	r, err := LoadRules(path)
	if err != nil {
		return nil, err
	}
	fi, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	return &Validator{
		rules:    compile(r),
		path:     path,
		interval: interval,
		lastStat: time.Now(),
		loadedAt: fi.ModTime(),
	}, nil
}

// Validate classifies one address. Pure and side-effect free apart from the
// rules-file mtime check.
func (v *Validator) Validate(email string) Result {
	v.maybeReload()

	v.mu.RLock()
	rules := v.rules
	v.mu.RUnlock()

	addr := strings.TrimSpace(email)

	// Rule 1: obviously fake local part. Applies before the shape check so
	// "test@" style garbage is reported as fake, not merely malformed.
	if local, _, ok := strings.Cut(addr, "@"); ok {
		if _, fake := rules.fakePrefixes[strings.ToLower(local)]; fake {
			return Result{Reason: ReasonFakePattern}
		}
	}

	// Rule 2: minimal shape.
	if !emailShape.MatchString(addr) {
		return Result{Reason: ReasonInvalidFormat}
	}

	// Rule 3: disposable provider. Domain is everything after the last @.
	dom := strings.ToLower(addr[strings.LastIndex(addr, "@")+1:])
	if _, disposable := rules.disposableDomains[dom]; disposable {
		return Result{Reason: ReasonDisposable}
	}

	return Result{Accepted: true}
}

// Reload forces a re-read of the rules file, regardless of mtime.
func (v *Validator) Reload() error {
	if v.path == "" {
		return nil
	}
	r, err := LoadRules(v.path)
	if err != nil {
		return err
	}
	fi, err := os.Stat(v.path)
	if err != nil {
		return err
	}

	v.mu.Lock()
	v.rules = compile(r)
	v.loadedAt = fi.ModTime()
	v.lastStat = time.Now()
	v.mu.Unlock()
	return nil
}

// maybeReload re-stats the rules file if the reload interval has elapsed
// and swaps in new rules when the file changed. Reload failures keep the
// previous rules; a bad edit must never take validation down.
func (v *Validator) maybeReload() {
	if v.path == "" {
		return
	}

	v.mu.RLock()
	due := time.Since(v.lastStat) >= v.interval
	v.mu.RUnlock()
	if !due {
		return
	}

	v.mu.Lock()
	defer v.mu.Unlock()
	if time.Since(v.lastStat) < v.interval {
		return
	}
	v.lastStat = time.Now()

	fi, err := os.Stat(v.path)
	if err != nil || !fi.ModTime().After(v.loadedAt) {
		return
	}
	r, err := LoadRules(v.path)
	if err != nil {
		return
	}
	v.rules = compile(r)
	v.loadedAt = fi.ModTime()
}

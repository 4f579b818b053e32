package validator

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Rules holds the heuristic lists the validator matches against. The lists
// are data, not code: they ship as a YAML file so operators can add a new
// disposable provider without a redeploy.
type Rules struct {
	// FakePrefixes are local parts that mark an address as obviously fake
	// when they make up the entire local part ("test@x.com", not "tester@x.com").
	FakePrefixes []string `yaml:"fake_prefixes"`

	// DisposableDomains are domains of known short-lived/anonymous mailbox
	// providers.
	DisposableDomains []string `yaml:"disposable_domains"`
}

// DefaultRules returns the compiled-in heuristic lists. These are the
// fallback when no rules file is configured and the baseline the sample
// config ships with.
func DefaultRules() Rules {
	return Rules{
		FakePrefixes: []string{
			"test", "fake", "temp", "dummy", "example",
			"admin", "user", "noreply", "no-reply",
			"donotreply", "do-not-reply", "mail", "email",
			"webmaster", "postmaster", "abuse", "security", "nobody",
		},
		DisposableDomains: []string{
			"tempmail.org", "10minutemail.com", "guerrillamail.com",
			"mailinator.com", "yopmail.com", "temp-mail.org",
			"sharklasers.com", "getairmail.com", "mailnesia.com",
			"trashmail.com",
		},
	}
}

// LoadRules reads a rules file. Lists in the file replace the defaults
// entirely; an empty list in the file means "match nothing", which is how
// an operator disables a heuristic.
func LoadRules(path string) (Rules, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Rules{}, fmt.Errorf("read rules file: %w", err)
	}
	var r Rules
	if err := yaml.Unmarshal(data, &r); err != nil {
		return Rules{}, fmt.Errorf("parse rules file: %w", err)
	}
	return r, nil
}

// compiled is the lookup form of Rules: lower-cased membership sets.
type compiled struct {
	fakePrefixes      map[string]struct{}
	disposableDomains map[string]struct{}
}

func compile(r Rules) compiled {
	c := compiled{
		fakePrefixes:      make(map[string]struct{}, len(r.FakePrefixes)),
		disposableDomains: make(map[string]struct{}, len(r.DisposableDomains)),
	}
	for _, p := range r.FakePrefixes {
		c.fakePrefixes[strings.ToLower(strings.TrimSpace(p))] = struct{}{}
	}
	for _, d := range r.DisposableDomains {
		c.disposableDomains[strings.ToLower(strings.TrimSpace(d))] = struct{}{}
	}
	return c
}

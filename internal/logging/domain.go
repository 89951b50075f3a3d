package logging

import (
	"fmt"
	"strings"
)

// Domain tags a log entry with the subsystem that produced it.
type Domain int

const (
	All Domain = iota
	Core
	Subscriptions
	EventListener
	Interval
	Effects
	Dom
	Time
	LocalStorage
	SessionStorage
	Navigation
	Console
	Clipboard
	Browser
	CustomEffect
)

var domainNames = [...]string{
	All:            "All",
	Core:           "Core",
	Subscriptions:  "Subscriptions",
	EventListener:  "EventListener",
	Interval:       "Interval",
	Effects:        "Effects",
	Dom:            "Dom",
	Time:           "Time",
	LocalStorage:   "LocalStorage",
	SessionStorage: "SessionStorage",
	Navigation:     "Navigation",
	Console:        "Console",
	Clipboard:      "Clipboard",
	Browser:        "Browser",
	CustomEffect:   "CustomEffect",
}

func (d Domain) String() string {
	if d < 0 || int(d) >= len(domainNames) {
		return fmt.Sprintf("Domain(%d)", int(d))
	}
	return domainNames[d]
}

// ParseDomain parses a domain name, case-insensitively.
func ParseDomain(s string) (Domain, error) {
	for i, name := range domainNames {
		if strings.EqualFold(name, strings.TrimSpace(s)) {
			return Domain(i), nil
		}
	}
	return 0, fmt.Errorf("unknown log domain %q", s)
}

// ParseDomains parses a list of domain names.
func ParseDomains(names []string) ([]Domain, error) {
	out := make([]Domain, 0, len(names))
	for _, n := range names {
		if strings.TrimSpace(n) == "" {
			continue
		}
		d, err := ParseDomain(n)
		if err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, nil
}

// Verbosity grades debug entries.
type Verbosity int

const (
	Normal Verbosity = iota
	Verbose
)

func (v Verbosity) String() string {
	if v == Verbose {
		return "verbose"
	}
	return "normal"
}

// ParseVerbosity parses "normal" or "verbose".
func ParseVerbosity(s string) (Verbosity, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "normal":
		return Normal, nil
	case "verbose":
		return Verbose, nil
	}
	return 0, fmt.Errorf("unknown verbosity %q (want normal or verbose)", s)
}

package models

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"gopkg.in/yaml.v3"
)

// Profile is the consultant's portfolio page, stored as YAML under
// SettingProfile.
type Profile struct {
	Name       string      `yaml:"name"`
	Title      string      `yaml:"title"`
	ImageURL   string      `yaml:"image"`
	Bio        string      `yaml:"bio"`
	Stats      []Stat      `yaml:"stats"`
	Milestones []Milestone `yaml:"milestones"`
	Skills     []string    `yaml:"skills"`
	Socials    Socials     `yaml:"socials"`
}

// Stat is a headline figure such as "12+ Years".
type Stat struct {
	Label string `yaml:"label"`
	Value string `yaml:"value"`
}

// Milestone is one entry of the career timeline.
type Milestone struct {
	Year        string `yaml:"year"`
	Title       string `yaml:"title"`
	Company     string `yaml:"company"`
	Description string `yaml:"description"`
}

// Socials are the profile's external links.
type Socials struct {
	LinkedIn  string `yaml:"linkedin"`
	Twitter   string `yaml:"twitter"`
	Instagram string `yaml:"instagram"`
}

// Listing is a showcased property on the portfolio section.
type Listing struct {
	Title    string `yaml:"title"`
	Location string `yaml:"location"`
	Price    string `yaml:"price"`
	Type     string `yaml:"type"`
	ImageURL string `yaml:"image"`
}

// FirstName returns the first word of the name.
func (p *Profile) FirstName() string {
	first, _, _ := strings.Cut(strings.TrimSpace(p.Name), " ")
	return first
}

// LastName returns everything after the first word of the name.
func (p *Profile) LastName() string {
	_, rest, _ := strings.Cut(strings.TrimSpace(p.Name), " ")
	return strings.TrimSpace(rest)
}

// Links returns every URL the profile points at, for validation.
func (p *Profile) Links() []string {
	var out []string
	for _, u := range []string{p.ImageURL, p.Socials.LinkedIn, p.Socials.Twitter, p.Socials.Instagram} {
		if u != "" {
			out = append(out, u)
		}
	}
	return out
}

// ParseProfile decodes a profile setting. An empty value yields (nil, nil).
func ParseProfile(src string) (*Profile, error) {
	var p Profile
	ok, err := decodeSetting(src, &p)
	if err != nil || !ok {
		return nil, err
	}
	if strings.TrimSpace(p.Name) == "" {
		return nil, errors.New("profile: name is required")
	}
	return &p, nil
}

// ParseListings decodes the portfolio listings setting.
func ParseListings(src string) ([]Listing, error) {
	var out []Listing
	if _, err := decodeSetting(src, &out); err != nil {
		return nil, err
	}
	for i, l := range out {
		if strings.TrimSpace(l.Title) == "" {
			return nil, fmt.Errorf("listing %d: title is required", i+1)
		}
	}
	return out, nil
}

// ParseStats decodes a list of label/value figures.
func ParseStats(src string) ([]Stat, error) {
	var out []Stat
	if _, err := decodeSetting(src, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// decodeSetting strictly decodes YAML into v. Unknown keys are rejected
// so a typo in the admin form is reported instead of silently dropped.
func decodeSetting(src string, v any) (bool, error) {
	if strings.TrimSpace(src) == "" {
		return false, nil
	}
	dec := yaml.NewDecoder(strings.NewReader(src))
	dec.KnownFields(true)
	if err := dec.Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return false, nil
		}
		return false, fmt.Errorf("decode yaml: %w", err)
	}
	return true, nil
}

package account

import (
	"context"
	"fmt"
	"strings"

	"github.com/rx3lixir/amparo/internal/backend"
)

// Health profile categories.
const (
	CategoryNote       = "note"
	CategoryCondition  = "condition"
	CategoryMedication = "medication"
)

// Profile is the client view of the device health profile. The wire
// carries each list as one semicolon-joined string.
type Profile struct {
	Notes       []string
	Conditions  []string
	Medications []string
}

// LoadProfile fetches and splits the health profile for deviceID.
func (s *Service) LoadProfile(ctx context.Context, deviceID string) (*Profile, error) {
	dp, err := s.api.DeviceProfile(ctx, deviceID)
	if err != nil {
		s.log.Error("Failed to load health profile", "error", err)
		return nil, err
	}

	return &Profile{
		Notes:       splitItems(dp.MedicalNotes),
		Conditions:  splitItems(dp.Conditions),
		Medications: splitItems(dp.Medications),
	}, nil
}

// SaveProfile writes the profile back, re-joining each list.
func (s *Service) SaveProfile(ctx context.Context, deviceID string, p *Profile) error {
	req := backend.UpdateDeviceProfileRequest{
		MedicalNotes: strings.Join(p.Notes, ";"),
		Conditions:   strings.Join(p.Conditions, ";"),
		Medications:  strings.Join(p.Medications, ";"),
	}

	if err := s.api.UpdateDeviceProfile(ctx, deviceID, req); err != nil {
		s.log.Error("Failed to save health profile", "error", err)
		return err
	}
	return nil
}

// AddProfileItem appends an entry to one category and saves the
// profile right away, mirroring the auto-save-on-change behavior of
// the profile screen.
func (s *Service) AddProfileItem(ctx context.Context, deviceID, category, text string) error {
	text = strings.TrimSpace(text)
	if text == "" {
		return fmt.Errorf("profile entry must not be blank")
	}

	p, err := s.LoadProfile(ctx, deviceID)
	if err != nil {
		return err
	}

	switch category {
	case CategoryNote:
		p.Notes = append(p.Notes, text)
	case CategoryCondition:
		p.Conditions = append(p.Conditions, text)
	case CategoryMedication:
		p.Medications = append(p.Medications, text)
	default:
		return fmt.Errorf("unknown profile category %q", category)
	}

	return s.SaveProfile(ctx, deviceID, p)
}

// RemoveProfileItem drops an entry from one category and saves.
func (s *Service) RemoveProfileItem(ctx context.Context, deviceID, category, text string) error {
	p, err := s.LoadProfile(ctx, deviceID)
	if err != nil {
		return err
	}

	switch category {
	case CategoryNote:
		p.Notes = removeItem(p.Notes, text)
	case CategoryCondition:
		p.Conditions = removeItem(p.Conditions, text)
	case CategoryMedication:
		p.Medications = removeItem(p.Medications, text)
	default:
		return fmt.Errorf("unknown profile category %q", category)
	}

	return s.SaveProfile(ctx, deviceID, p)
}

func splitItems(joined string) []string {
	items := make([]string, 0)
	for _, item := range strings.Split(joined, ";") {
		if item = strings.TrimSpace(item); item != "" {
			items = append(items, item)
		}
	}
	return items
}

func removeItem(items []string, text string) []string {
	out := items[:0]
	for _, item := range items {
		if item != text {
			out = append(out, item)
		}
	}
	return out
}

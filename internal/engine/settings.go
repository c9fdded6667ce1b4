package engine

import (
	"context"
	"errors"
	"fmt"
	"log"

	"bmad/internal/storage"
)

// SettingsID is the fixed id of the singleton settings document.
const SettingsID = "user"

// Settings returns the current app configuration.
func (s *Service) Settings(ctx context.Context) (Settings, error) {
	doc, err := s.settings.FindOne(ctx, SettingsID)
	if err != nil {
		return Settings{}, err
	}
	if doc == nil {
		return Settings{}, &storage.NotFoundError{Collection: ColSettings, ID: SettingsID}
	}
	return docAs[Settings](doc)
}

// updateSettings rewrites the singleton with one field changed, always as a
// fully-specified document so there is no partial-merge ambiguity.
func (s *Service) updateSettings(ctx context.Context, change func(*Settings)) error {
	cur, err := s.Settings(ctx)
	if err != nil {
		return err
	}
	change(&cur)
	cur.ID = SettingsID
	if _, err := s.settings.Upsert(ctx, toDoc(cur)); err != nil {
		return fmt.Errorf("update settings: %w", err)
	}
	return nil
}

// SetDailyLimit changes the capacity threshold.
func (s *Service) SetDailyLimit(ctx context.Context, limit float64) error {
	if limit < 0 {
		return errors.New("daily limit must be non-negative")
	}
	return s.updateSettings(ctx, func(st *Settings) { st.DailyLimit = limit })
}

// ToggleSound flips the sound preference and returns the new state.
func (s *Service) ToggleSound(ctx context.Context) (bool, error) {
	var enabled bool
	err := s.updateSettings(ctx, func(st *Settings) {
		st.SoundEnabled = !st.SoundEnabled
		enabled = st.SoundEnabled
	})
	return enabled, err
}

// ToggleHaptics flips the haptics preference and returns the new state.
func (s *Service) ToggleHaptics(ctx context.Context) (bool, error) {
	var enabled bool
	err := s.updateSettings(ctx, func(st *Settings) {
		st.HapticsEnabled = !st.HapticsEnabled
		enabled = st.HapticsEnabled
	})
	return enabled, err
}

// SetFontSize changes the UI font size preference.
func (s *Service) SetFontSize(ctx context.Context, size string) error {
	switch size {
	case "small", "medium", "large":
	default:
		return fmt.Errorf("invalid font size %q", size)
	}
	return s.updateSettings(ctx, func(st *Settings) { st.FontSize = size })
}

// SubscribeSettings streams settings changes, current value first.
func (s *Service) SubscribeSettings(fn func(Settings)) (cancel func()) {
	return s.settings.SubscribeOne(SettingsID, func(doc storage.Doc) {
		if doc == nil {
			return
		}
		st, err := docAs[Settings](doc)
		if err != nil {
			log.Printf("settings: decode: %v", err)
			return
		}
		fn(st)
	})
}

package engine

import (
	"context"
	"fmt"
	"sync"
	"time"

	"bmad/internal/sensory"
	"bmad/internal/storage"
)

// Config carries everything a Service needs. Zero values fall back to the
// on-disk defaults, so tests can point every path at a temp dir.
type Config struct {
	DBPath      string
	UnlocksPath string
	TagsPath    string
	DevMode     bool
	Sensory     sensory.Player
	Now         func() time.Time
}

// Service owns the document store and the derived aggregation state. It is
// the single write path for every collection.
type Service struct {
	store     *storage.Store
	tasks     *storage.Collection
	settings  *storage.Collection
	dailyLogs *storage.Collection
	eggs      *storage.Collection
	pets      *storage.Collection
	users     *storage.Collection

	sensory   sensory.Player
	now       func() time.Time
	load      *LoadTracker
	analytics *Analytics
	achieve   *Achievements
	tagsFile  *tagStore
}

// New opens the store, registers every collection (running migrations),
// seeds the singleton documents and wires the reactive aggregations.
func New(ctx context.Context, cfg Config) (*Service, error) {
	if cfg.DBPath == "" {
		path, err := storage.DefaultDBPath()
		if err != nil {
			return nil, err
		}
		cfg.DBPath = path
	}
	if cfg.UnlocksPath == "" {
		cfg.UnlocksPath = cfg.DBPath + ".achievements.json"
	}
	if cfg.TagsPath == "" {
		cfg.TagsPath = cfg.DBPath + ".tags.json"
	}
	if cfg.Sensory == nil {
		cfg.Sensory = sensory.Null{}
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}

	store, err := storage.Open(ctx, cfg.DBPath, storage.Options{DevMode: cfg.DevMode})
	if err != nil {
		return nil, err
	}

	s := &Service{
		store:   store,
		sensory: cfg.Sensory,
		now:     cfg.Now,
	}

	for _, schema := range Schemas() {
		col, err := store.AddCollection(ctx, schema)
		if err != nil {
			_ = store.Close()
			return nil, err
		}
		switch schema.Name {
		case ColTasks:
			s.tasks = col
		case ColSettings:
			s.settings = col
		case ColDailyLogs:
			s.dailyLogs = col
		case ColEggs:
			s.eggs = col
		case ColPets:
			s.pets = col
		case ColUsers:
			s.users = col
		}
	}

	if err := s.seedDefaults(ctx); err != nil {
		_ = store.Close()
		return nil, err
	}

	unlocks, err := loadUnlockSet(cfg.UnlocksPath)
	if err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("load achievement unlocks: %w", err)
	}

	s.tagsFile, err = loadTagStore(cfg.TagsPath)
	if err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("load tags: %w", err)
	}

	s.analytics = newAnalytics(s)
	s.achieve = newAchievements(s, unlocks)
	s.load = newLoadTracker(s)
	return s, nil
}

// seedDefaults creates the singleton documents on first boot.
func (s *Service) seedDefaults(ctx context.Context) error {
	cur, err := s.settings.FindOne(ctx, SettingsID)
	if err != nil {
		return err
	}
	if cur == nil {
		_, err := s.settings.Insert(ctx, toDoc(Settings{
			ID:             SettingsID,
			DailyLimit:     DefaultDailyLimit,
			SoundEnabled:   true,
			HapticsEnabled: true,
			FontSize:       "medium",
		}))
		if err != nil {
			return fmt.Errorf("seed settings: %w", err)
		}
	}

	player, err := s.users.FindOne(ctx, PlayerID)
	if err != nil {
		return err
	}
	if player == nil {
		_, err := s.users.Insert(ctx, toDoc(User{ID: PlayerID, Energy: 0, Level: 1, XP: 0}))
		if err != nil {
			return fmt.Errorf("seed player: %w", err)
		}
	}
	return nil
}

// Close tears down subscriptions and the underlying store.
func (s *Service) Close() error {
	if s.load != nil {
		s.load.close()
	}
	if s.analytics != nil {
		s.analytics.close()
	}
	return s.store.Close()
}

func (s *Service) Load() *LoadTracker       { return s.load }
func (s *Service) Analytics() *Analytics    { return s.analytics }
func (s *Service) Achievements() *Achievements { return s.achieve }
func (s *Service) Store() *storage.Store    { return s.store }

// Default is the process-wide service instance. The first caller creates
// it; concurrent callers block on the same initialization and all resolve
// to the same instance.
var (
	defaultMu  sync.Mutex
	defaultSvc *Service
	defaultErr error
	defaultSet bool
)

func Default(ctx context.Context, cfg Config) (*Service, error) {
	defaultMu.Lock()
	defer defaultMu.Unlock()
	if !defaultSet {
		defaultSvc, defaultErr = New(ctx, cfg)
		defaultSet = true
	}
	return defaultSvc, defaultErr
}

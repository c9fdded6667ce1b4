package root

import (
	"context"
	"os"

	"bmad/internal/config"
	"bmad/internal/engine"
	"bmad/internal/sensory"
)

func openService(ctx context.Context) (*engine.Service, func(), error) {
	var svc *engine.Service
	feedback := sensory.Console{
		Out: os.Stdout,
		Enabled: func() (bool, bool) {
			if svc == nil {
				return true, true
			}
			st, err := svc.Settings(ctx)
			if err != nil {
				return true, true
			}
			return st.SoundEnabled, st.HapticsEnabled
		},
	}

	svc, err := engine.Default(ctx, engine.Config{
		DBPath:      config.DBPath(),
		UnlocksPath: config.UnlocksPath(),
		TagsPath:    config.TagsPath(),
		DevMode:     config.DevMode(),
		Sensory:     feedback,
	})
	if err != nil {
		return nil, nil, err
	}
	cleanup := func() {
		_ = svc.Close()
	}
	return svc, cleanup, nil
}

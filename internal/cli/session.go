package cli

import (
	"encoding/json"
	"log/slog"

	"github.com/roach88/flowir/internal/config"
	"github.com/roach88/flowir/internal/engine"
	"github.com/roach88/flowir/internal/ir"
	"github.com/roach88/flowir/internal/store"
)

// engineSettings are per-command overrides of the loaded config.
type engineSettings struct {
	Cache      string // overrides cfg.Cache when set
	NoCache    bool   // disables the store even if configured
	NoValidate bool
}

// session is an engine together with the store it owns.
type session struct {
	Engine *engine.Engine
	store  *store.Store
}

// openSession builds an engine from cfg. The SQLite cache is opened when
// a cache path is configured.
func openSession(cfg *config.Config, s engineSettings) (*session, error) {
	opts := []engine.Option{
		engine.WithCacheSize(cfg.LRUSize),
		engine.WithValidation(cfg.ValidateGraph && !s.NoValidate),
		engine.WithExtensions(cfg.Extensions),
	}

	sess := &session{}
	cachePath := cfg.Cache
	if s.Cache != "" {
		cachePath = s.Cache
	}
	if cachePath != "" && !s.NoCache {
		st, err := store.Open(cachePath)
		if err != nil {
			return nil, WrapExitError(ExitCommandError, "failed to open cache", err)
		}
		sess.store = st
		opts = append(opts, engine.WithStore(st))
	}

	eng, err := engine.New(opts...)
	if err != nil {
		sess.Close()
		return nil, WrapExitError(ExitCommandError, "failed to create engine", err)
	}
	sess.Engine = eng
	slog.Debug("engine ready", "run_id", eng.RunID(), "cache", cachePath)
	return sess, nil
}

// Close releases the store, if any.
func (s *session) Close() error {
	if s.store == nil {
		return nil
	}
	return s.store.Close()
}

// plainTree converts m into maps, slices and scalars so that JSON and YAML
// encoders render the wire shape.
func plainTree(m *ir.Module) (any, error) {
	data, err := ir.MarshalCanonical(m)
	if err != nil {
		return nil, err
	}
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return nil, err
	}
	return v, nil
}

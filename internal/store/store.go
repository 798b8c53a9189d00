// Package store persists recordings and their checkpoints in SQLite through
// gorm.
package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/glebarez/sqlite"
	"github.com/rs/zerolog"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"breachline/internal/game"
	"breachline/internal/replay"
)

var ErrRecordingNotFound = errors.New("recording not found")

// Store is a handle to the recordings database. It is safe for concurrent use.
type Store struct {
	db  *gorm.DB
	log zerolog.Logger
}

// Open connects to the SQLite file at path and migrates the schema.
// ":memory:" opens a private in-memory database.
func Open(path string, log zerolog.Logger) (*Store, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		PrepareStmt:            true,
		SkipDefaultTransaction: true,
		Logger:                 logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", path, err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("access sql interface: %w", err)
	}
	// One writer; also keeps a :memory: database alive on a single connection.
	sqlDB.SetMaxOpenConns(1)

	if err := db.AutoMigrate(Models...); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	log.Info().Str("path", path).Msg("Store opened")
	return &Store{db: db, log: log}, nil
}

// Close releases the database.
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// SaveRun stores a run with its checkpoints and returns the recording id.
func (s *Store) SaveRun(ctx context.Context, run Run) (uint, error) {
	rec, err := run.toRecording()
	if err != nil {
		return 0, fmt.Errorf("save run %s: %w", run.SessionID, err)
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.Create(rec).Error
	})
	if err != nil {
		return 0, fmt.Errorf("save run %s: %w", run.SessionID, err)
	}

	s.log.Info().
		Uint("recording", rec.ID).
		Str("session", run.SessionID).
		Uint64("tick", rec.FinalTick).
		Int("score", rec.Score).
		Str("outcome", rec.Outcome).
		Int("checkpoints", len(rec.Checkpoints)).
		Msg("Recording saved")
	return rec.ID, nil
}

// Get loads a recording with its input stream. Checkpoints are not loaded.
func (s *Store) Get(ctx context.Context, id uint) (*Recording, error) {
	var rec Recording
	err := s.db.WithContext(ctx).First(&rec, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: %d", ErrRecordingNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("get recording %d: %w", id, err)
	}
	return &rec, nil
}

// ListFilter narrows List.
type ListFilter struct {
	Mode  string // Empty for every mode
	Limit int    // 0 means 50
}

// List returns recordings newest first, without their input blobs.
func (s *Store) List(ctx context.Context, f ListFilter) ([]Recording, error) {
	if f.Limit <= 0 {
		f.Limit = 50
	}
	q := s.db.WithContext(ctx).
		Omit("inputs", "config", "loadout").
		Order("id desc").
		Limit(f.Limit)
	if f.Mode != "" {
		q = q.Where("mode = ?", f.Mode)
	}

	var recs []Recording
	if err := q.Find(&recs).Error; err != nil {
		return nil, fmt.Errorf("list recordings: %w", err)
	}
	return recs, nil
}

// Top returns the best-scoring finished recordings of a mode, without blobs.
func (s *Store) Top(ctx context.Context, mode string, limit int) ([]Recording, error) {
	if limit <= 0 {
		limit = 100
	}
	var recs []Recording
	err := s.db.WithContext(ctx).
		Omit("inputs", "config", "loadout").
		Where("mode = ? AND outcome <> ?", mode, "running").
		Order("score desc").
		Order("id asc").
		Limit(limit).
		Find(&recs).Error
	if err != nil {
		return nil, fmt.Errorf("top recordings of %s: %w", mode, err)
	}
	return recs, nil
}

// Load returns what a replay needs: header and inputs.
func (s *Store) Load(ctx context.Context, id uint) (*Recording, replay.Header, []game.Input, error) {
	rec, err := s.Get(ctx, id)
	if err != nil {
		return nil, replay.Header{}, nil, err
	}
	h, err := rec.Header()
	if err != nil {
		return nil, replay.Header{}, nil, err
	}
	inputs, err := rec.DecodeInputs()
	if err != nil {
		return nil, replay.Header{}, nil, err
	}
	return rec, h, inputs, nil
}

// Verify re-runs a stored recording and compares the final state hash.
func (s *Store) Verify(ctx context.Context, id uint) (replay.Result, error) {
	rec, h, inputs, err := s.Load(ctx, id)
	if err != nil {
		return replay.Result{}, err
	}
	res := replay.Verify(h, inputs, rec.StateHash)
	if !res.Match {
		s.log.Warn().
			Uint("recording", id).
			Str("want", rec.StateHash).
			Str("got", res.Hash).
			Msg("Replay diverged")
	}
	return res, nil
}

// Checkpoints returns a recording's checkpoints in tick order.
func (s *Store) Checkpoints(ctx context.Context, id uint) ([]replay.Checkpoint, error) {
	var rows []Checkpoint
	err := s.db.WithContext(ctx).
		Where("recording_id = ?", id).
		Order("tick asc").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("checkpoints of recording %d: %w", id, err)
	}

	out := make([]replay.Checkpoint, 0, len(rows))
	for _, row := range rows {
		cp, err := replay.DecodeCheckpoint(row.Blob)
		if err != nil {
			return nil, fmt.Errorf("recording %d: %w", id, err)
		}
		out = append(out, cp)
	}
	return out, nil
}

// Delete removes a recording and its checkpoints.
func (s *Store) Delete(ctx context.Context, id uint) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("recording_id = ?", id).Delete(&Checkpoint{}).Error; err != nil {
			return fmt.Errorf("delete checkpoints of %d: %w", id, err)
		}
		res := tx.Unscoped().Delete(&Recording{}, id)
		if res.Error != nil {
			return fmt.Errorf("delete recording %d: %w", id, res.Error)
		}
		if res.RowsAffected == 0 {
			return fmt.Errorf("%w: %d", ErrRecordingNotFound, id)
		}
		return nil
	})
}

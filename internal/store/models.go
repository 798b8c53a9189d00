package store

import (
	"encoding/json"
	"fmt"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"breachline/internal/game"
	"breachline/internal/replay"
)

// Models lists every table migrated at open.
var Models = []interface{}{
	&Recording{},
	&Checkpoint{},
}

// Recording is one finished (or stopped) run: the header needed to rebuild
// tick 0, the complete input stream and the final outcome.
type Recording struct {
	gorm.Model
	SessionID string         `json:"sessionId" gorm:"size:64;index:idx_recording_session"`
	Seed      int64          `json:"seed"`
	Mode      string         `json:"mode" gorm:"size:16;index:idx_recording_mode"`
	Config    datatypes.JSON `json:"-"` // SimConfig
	Loadout   datatypes.JSON `json:"-"`
	Inputs    []byte         `json:"-"` // msgpack []game.Input
	FinalTick uint64         `json:"finalTick"`
	Score     int            `json:"score" gorm:"index:idx_recording_score"`
	Cash      int            `json:"cash"`
	Kills     int            `json:"kills"`
	Outcome   string         `json:"outcome" gorm:"size:16"`
	StateHash string         `json:"stateHash" gorm:"size:64"`

	Checkpoints []Checkpoint `json:"-" gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;foreignKey:RecordingID"`
}

func (*Recording) TableName() string {
	return "recordings"
}

// Header decodes the run header.
func (r *Recording) Header() (replay.Header, error) {
	mode, err := game.ParseMode(r.Mode)
	if err != nil {
		return replay.Header{}, fmt.Errorf("recording %d: %w", r.ID, err)
	}
	h := replay.Header{Seed: r.Seed, Mode: mode}
	if err := json.Unmarshal(r.Config, &h.Config); err != nil {
		return replay.Header{}, fmt.Errorf("recording %d config: %w", r.ID, err)
	}
	h.Config = h.Config.WithDefaults()
	if err := json.Unmarshal(r.Loadout, &h.Loadout); err != nil {
		return replay.Header{}, fmt.Errorf("recording %d loadout: %w", r.ID, err)
	}
	return h, nil
}

// DecodeInputs unpacks the stored input stream.
func (r *Recording) DecodeInputs() ([]game.Input, error) {
	inputs, err := replay.DecodeInputs(r.Inputs)
	if err != nil {
		return nil, fmt.Errorf("recording %d: %w", r.ID, err)
	}
	return inputs, nil
}

// Checkpoint is a ring recorder checkpoint kept with its recording.
type Checkpoint struct {
	ID          uint   `json:"id" gorm:"primarykey"`
	RecordingID uint   `json:"recordingId" gorm:"index:idx_checkpoint_recording"`
	Tick        uint64 `json:"tick"`
	Blob        []byte `json:"-"` // msgpack replay.Checkpoint
}

func (*Checkpoint) TableName() string {
	return "checkpoints"
}

// Run is everything a session hands over when a game ends.
type Run struct {
	SessionID   string
	Header      replay.Header
	Inputs      []game.Input
	Final       *game.World
	Checkpoints []replay.Checkpoint
}

func (run Run) toRecording() (*Recording, error) {
	cfg, err := json.Marshal(run.Header.Config)
	if err != nil {
		return nil, fmt.Errorf("encode config: %w", err)
	}
	loadout, err := json.Marshal(run.Header.Loadout)
	if err != nil {
		return nil, fmt.Errorf("encode loadout: %w", err)
	}
	inputs, err := replay.EncodeInputs(run.Inputs)
	if err != nil {
		return nil, err
	}

	rec := &Recording{
		SessionID: run.SessionID,
		Seed:      run.Header.Seed,
		Mode:      run.Header.Mode.String(),
		Config:    datatypes.JSON(cfg),
		Loadout:   datatypes.JSON(loadout),
		Inputs:    inputs,
	}
	if w := run.Final; w != nil {
		rec.FinalTick = w.Tick
		rec.Score = w.Score
		rec.Cash = w.Cash
		rec.Kills = w.Stats.Kills
		rec.Outcome = replay.Outcome(w)
		rec.StateHash = w.Snapshot().Hash()
	}
	for _, cp := range run.Checkpoints {
		blob, err := replay.EncodeCheckpoint(cp)
		if err != nil {
			return nil, err
		}
		rec.Checkpoints = append(rec.Checkpoints, Checkpoint{Tick: cp.Tick, Blob: blob})
	}
	return rec, nil
}

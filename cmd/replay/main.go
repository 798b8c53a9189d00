// Command replay re-runs stored recordings and checks that they reproduce
// the final state hash recorded live.
//
// USAGE:
//
//	go run ./cmd/replay -db breachline.db -id 12
//	go run ./cmd/replay -db breachline.db -all -mode arena
//	go run ./cmd/replay -db breachline.db -id 12 -tick 600 -png frame.png
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/rs/zerolog"

	"breachline/internal/config"
	"breachline/internal/render"
	"breachline/internal/replay"
	"breachline/internal/store"
)

type options struct {
	db      string
	id      uint
	all     bool
	mode    string
	limit   int
	tick    int
	png     string
	asJSON  bool
	verbose bool
}

func main() {
	var o options
	var id uint64
	flag.StringVar(&o.db, "db", config.StoreFromEnv().Path, "SQLite recordings database")
	flag.Uint64Var(&id, "id", 0, "recording to verify")
	flag.BoolVar(&o.all, "all", false, "verify every recording (newest first)")
	flag.StringVar(&o.mode, "mode", "", "with -all, only this mode")
	flag.IntVar(&o.limit, "limit", 500, "with -all, at most this many recordings")
	flag.IntVar(&o.tick, "tick", -1, "with -png, render this tick instead of the final one")
	flag.StringVar(&o.png, "png", "", "write a frame of the replayed run to this file")
	flag.BoolVar(&o.asJSON, "json", false, "print results as JSON lines")
	flag.BoolVar(&o.verbose, "v", false, "debug logging")
	flag.Parse()
	o.id = uint(id)

	lvl := zerolog.InfoLevel
	if o.verbose {
		lvl = zerolog.DebugLevel
	}
	log := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen}).
		Level(lvl).With().Timestamp().Logger()

	if o.id == 0 && !o.all {
		fmt.Fprintln(os.Stderr, "replay: -id or -all is required")
		flag.Usage()
		os.Exit(2)
	}

	code, err := run(context.Background(), o, log)
	if err != nil {
		log.Error().Err(err).Msg("Replay failed")
		os.Exit(1)
	}
	os.Exit(code)
}

// run returns exit code 3 when any recording diverged.
func run(ctx context.Context, o options, log zerolog.Logger) (int, error) {
	st, err := store.Open(o.db, log)
	if err != nil {
		return 1, err
	}
	defer st.Close()

	ids := []uint{o.id}
	if o.all {
		recs, err := st.List(ctx, store.ListFilter{Mode: o.mode, Limit: o.limit})
		if err != nil {
			return 1, err
		}
		ids = ids[:0]
		for _, r := range recs {
			ids = append(ids, r.ID)
		}
		log.Info().Int("recordings", len(ids)).Msg("Verifying")
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	if !o.asJSON {
		fmt.Fprintln(w, "ID\tTICKS\tSCORE\tOUTCOME\tMATCH\tELAPSED")
	}
	enc := json.NewEncoder(os.Stdout)

	diverged := 0
	for _, id := range ids {
		res, err := st.Verify(ctx, id)
		if errors.Is(err, store.ErrRecordingNotFound) {
			return 1, err
		}
		if err != nil {
			log.Error().Err(err).Uint("recording", id).Msg("Cannot replay recording")
			diverged++
			continue
		}
		if !res.Match {
			diverged++
		}

		if o.asJSON {
			enc.Encode(map[string]interface{}{
				"id":        id,
				"ticks":     res.Ticks,
				"score":     res.Score,
				"outcome":   res.Outcome,
				"match":     res.Match,
				"hash":      res.Hash,
				"expected":  res.Expected,
				"elapsedMs": res.Elapsed.Milliseconds(),
			})
		} else {
			fmt.Fprintf(w, "%d\t%d\t%d\t%s\t%t\t%s\n", id, res.Ticks, res.Score, res.Outcome, res.Match, res.Elapsed.Round(time.Millisecond))
		}
	}
	w.Flush()

	if o.png != "" && !o.all {
		if err := writeFrame(ctx, st, o); err != nil {
			return 1, err
		}
		log.Info().Str("file", o.png).Msg("Frame written")
	}

	if diverged > 0 {
		log.Warn().Int("diverged", diverged).Int("total", len(ids)).Msg("Replays diverged")
		return 3, nil
	}
	return 0, nil
}

// writeFrame replays a recording up to o.tick and renders that state.
func writeFrame(ctx context.Context, st *store.Store, o options) error {
	_, h, inputs, err := st.Load(ctx, o.id)
	if err != nil {
		return err
	}
	rec := &replay.FullRecorder{Header: h, Inputs: inputs}
	n := len(inputs)
	if o.tick >= 0 {
		n = o.tick
	}
	g := rec.ReplayTo(n)

	f, err := os.Create(o.png)
	if err != nil {
		return fmt.Errorf("create %s: %w", o.png, err)
	}
	if err := render.WritePNG(f, g.Snapshot(), render.DefaultOptions()); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

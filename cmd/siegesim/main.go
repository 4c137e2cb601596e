// Package main provides the siege simulator binary. It plays a scenario's
// battles with AI or human commanders, runs repeated AI trials of each
// battle, or reports the AI's pre-battle assessments.
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"
	"time"

	"go.uber.org/zap"

	"github.com/cory-johannsen/castlesiege/internal/config"
	"github.com/cory-johannsen/castlesiege/internal/game/siege"
	"github.com/cory-johannsen/castlesiege/internal/game/world"
	"github.com/cory-johannsen/castlesiege/internal/observability"
	"github.com/cory-johannsen/castlesiege/internal/sim"
)

func main() {
	start := time.Now()

	configPath := flag.String("config", "configs/siege.yaml", "path to configuration file")
	scenarioPath := flag.String("scenario", "content/scenarios/river_march.yaml", "path to a scenario YAML file")
	mode := flag.String("mode", "play", "one of play, trials, assess")
	trials := flag.Int("trials", 0, "trials per battle in trials mode; 0 uses battle.trials from the config")
	seed := flag.Uint64("seed", 0, "roll seed; 0 uses battle.seed from the config")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("loading config: %v", err)
	}
	if *seed != 0 {
		cfg.Battle.Seed = *seed
	}
	if *trials > 0 {
		cfg.Battle.Trials = *trials
	}

	logger, err := observability.NewLogger(cfg.Logging)
	if err != nil {
		log.Fatalf("initializing logger: %v", err)
	}
	defer logger.Sync()

	sc, err := world.LoadScenarioFromFile(*scenarioPath)
	if err != nil {
		logger.Fatal("loading scenario", zap.Error(err))
	}
	s, err := sim.New(cfg, logger)
	if err != nil {
		logger.Fatal("building simulator", zap.Error(err))
	}
	defer s.Close()

	logger.Info("simulator ready",
		zap.String("scenario", sc.ID),
		zap.Int("strongholds", len(sc.Strongholds)),
		zap.Int("battles", len(sc.Battles)),
		zap.String("mode", *mode),
		zap.Duration("startup", time.Since(start)),
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	switch *mode {
	case "play":
		err = play(ctx, s, sc, os.Stdin, os.Stdout)
	case "trials":
		err = runTrials(ctx, s, sc, cfg.Battle.Trials, os.Stdout)
	case "assess":
		err = assess(s, sc, os.Stdout)
	default:
		err = fmt.Errorf("unknown mode %q", *mode)
	}
	if err != nil {
		logger.Error("simulation failed", zap.Error(err))
		os.Exit(1)
	}
}

// lines feeds r's lines to a channel until r ends or ctx is done.
func lines(ctx context.Context, r io.Reader) <-chan string {
	ch := make(chan string)
	go func() {
		defer close(ch)
		sc := bufio.NewScanner(r)
		for sc.Scan() {
			select {
			case ch <- sc.Text():
			case <-ctx.Done():
				return
			}
		}
	}()
	return ch
}

func play(ctx context.Context, s *sim.Simulator, sc *world.Scenario, in io.Reader, out io.Writer) error {
	fmt.Fprintf(out, "%s\n\n%s\n", sc.Name, sc.Description)
	m, reports, err := s.Play(ctx, sc, lines(ctx, in), out)
	for i, r := range reports {
		o := r.Report.Outcome
		fmt.Fprintf(out, "\nBattle %d: %s against %s\n", i+1, r.Battle.Order.SourceID, r.Battle.Order.TargetID)
		if a := r.Assessment; a != nil {
			fmt.Fprintf(out, "  odds %.2f against a threshold of %.2f\n", a.Ratio, a.Threshold)
		}
		if r.Skipped {
			fmt.Fprintln(out, "  the march is called off")
			continue
		}
		fmt.Fprintf(out, "  %d soldiers march\n", r.Battle.Order.Soldiers)
		if f := r.Report.Field; f != nil {
			fmt.Fprintf(out, "  field: %s after %d rounds\n", f.Status, f.Rounds)
		}
		for _, line := range o.Log {
			fmt.Fprintf(out, "  %s\n", line)
		}
		fmt.Fprintf(out, "  outcome: %s in %d rounds, casualties %d/%d, %d prisoners\n",
			o.Kind, o.Rounds, o.Casualties[0], o.Casualties[1], len(o.Prisoners))
	}
	if m != nil {
		printMap(out, m)
	}
	return err
}

func printMap(out io.Writer, m *world.Manager) {
	fmt.Fprintln(out)
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "STRONGHOLD\tOWNER\tSOLDIERS\tRICE\tGOLD\tWALL\tOFFICERS")
	for _, st := range m.Strongholds() {
		fmt.Fprintf(tw, "%s\t%s\t%d\t%d\t%d\t%d/%d\t%d\n",
			st.Name, st.Owner, st.Soldiers, st.Rice, st.Gold, st.Wall, st.MaxWall, len(st.Officers))
	}
	tw.Flush()
	for _, c := range m.Captives() {
		fmt.Fprintf(out, "captive: %s held by %s at %s\n", c.Prisoner.Officer.Name, c.Captor, c.HeldAt)
	}
}

func runTrials(ctx context.Context, s *sim.Simulator, sc *world.Scenario, n int, out io.Writer) error {
	tallies, err := s.Trials(ctx, sc, n)
	if err != nil {
		return err
	}
	kinds := []siege.OutcomeKind{siege.AttackerVictory, siege.AttackerDefeat, siege.DefenderRetreat, siege.DrawTimeout}

	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprint(tw, "MARCH\tTRIALS")
	for _, k := range kinds {
		fmt.Fprintf(tw, "\t%s", k)
	}
	fmt.Fprintln(tw, "\tFIELD\tROUNDS\tLOSSES")
	for _, t := range tallies {
		fmt.Fprintf(tw, "%s->%s\t%d", t.Source, t.Target, t.Trials)
		for _, k := range kinds {
			fmt.Fprintf(tw, "\t%.1f%%", 100*t.Share(k))
		}
		fmt.Fprintf(tw, "\t%d\t%.1f\t%d/%d\n", t.FieldDecided, t.MeanRounds(),
			t.Casualties[0]/max(t.Trials, 1), t.Casualties[1]/max(t.Trials, 1))
	}
	return tw.Flush()
}

func assess(s *sim.Simulator, sc *world.Scenario, out io.Writer) error {
	got, err := s.Assess(sc)
	if err != nil {
		return err
	}
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "MARCH\tARCHETYPE\tSHREWD\tRATIO\tTHRESHOLD\tVERDICT")
	for _, a := range got {
		verdict := "hold"
		if a.Attack {
			verdict = fmt.Sprintf("march with %d", a.Commit)
		}
		fmt.Fprintf(tw, "%s->%s\t%s\t%.2f\t%.2f\t%.2f\t%s\n",
			a.Source, a.Target, a.Archetype, a.Shrewdness, a.Ratio, a.Threshold, verdict)
	}
	return tw.Flush()
}

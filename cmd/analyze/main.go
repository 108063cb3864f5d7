// Command analyze prints quick, human-readable heuristics about the rule sets
// in a configs directory. "configs" summarizes every rule set; "selfplay" runs
// headless matches with random choices for every human side and reports who
// wins and why.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"os"
	"sort"
	"strings"
	"text/tabwriter"

	"github.com/MakeNowJust/heredoc/v2"
	"github.com/urfave/cli/v3"

	"github.com/wricardo/nine-nine/game/config"
	"github.com/wricardo/nine-nine/game/engine"
)

// maxStepsPerMatch bounds a self-play run when a rule set never ends a match
const maxStepsPerMatch = 5000

// SelfPlayStats aggregates the outcomes of a self-play run
type SelfPlayStats struct {
	Config   string
	Matches  int
	Wins     map[engine.Side]int
	Reasons  map[engine.OutcomeReason]int
	Turns    int
	Longest  int
	Shortest int
}

// AverageTurns is the mean number of turns per finished match
func (s *SelfPlayStats) AverageTurns() float64 {
	if s.Matches == 0 {
		return 0
	}
	return float64(s.Turns) / float64(s.Matches)
}

func (s *SelfPlayStats) record(outcome *engine.Outcome) {
	s.Matches++
	if outcome.Winner != "" {
		s.Wins[outcome.Winner]++
	}
	s.Reasons[outcome.Reason]++
	s.Turns += outcome.Turn
	if outcome.Turn > s.Longest {
		s.Longest = outcome.Turn
	}
	if s.Shortest == 0 || outcome.Turn < s.Shortest {
		s.Shortest = outcome.Turn
	}
}

func main() {
	if err := newApp(os.Stdout).Run(context.Background(), os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "analyze: %v\n", err)
		os.Exit(1)
	}
}

func newApp(out io.Writer) *cli.Command {
	return &cli.Command{
		Name:  "analyze",
		Usage: "inspect nine-nine rule sets",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config-dir",
				Value:   "configs",
				Usage:   "directory containing rule sets",
				Sources: cli.EnvVars("CONFIG_DIR"),
			},
		},
		Commands: []*cli.Command{
			{
				Name:  "configs",
				Usage: "summarize every rule set",
				Action: func(ctx context.Context, cmd *cli.Command) error {
					return summarizeConfigs(out, cmd.String("config-dir"))
				},
			},
			{
				Name:      "selfplay",
				Usage:     "play headless matches with random choices",
				ArgsUsage: "[config-id...]",
				Description: heredoc.Doc(`
					Runs complete matches without clocks or delays. Human sides
					roll, pick directions and pick five-choice branches at random;
					the computer uses its configured policy. Matches end the same
					way they do on the server: a fall, no legal move or no legal
					placement.

					With no arguments every rule set in the config directory is
					played.
				`),
				Flags: []cli.Flag{
					&cli.IntFlag{Name: "matches", Value: 100, Usage: "matches per rule set"},
					&cli.IntFlag{Name: "seed", Value: 1, Usage: "random seed"},
				},
				Action: func(ctx context.Context, cmd *cli.Command) error {
					manager, err := config.NewManager(cmd.String("config-dir"))
					if err != nil {
						return err
					}

					ids := cmd.Args().Slice()
					if len(ids) == 0 {
						infos, err := manager.ListConfigs()
						if err != nil {
							return err
						}
						for _, info := range infos {
							ids = append(ids, info.ConfigID)
						}
					}

					for _, id := range ids {
						cfg, err := manager.LoadConfig(id)
						if err != nil {
							return err
						}
						stats, err := selfPlay(ctx, cfg, cmd.Int("matches"), int64(cmd.Int("seed")))
						if err != nil {
							return fmt.Errorf("%s: %w", id, err)
						}
						stats.Config = id
						printStats(out, stats)
					}
					return nil
				},
			},
		},
	}
}

// summarizeConfigs prints one row per rule set found in dir
func summarizeConfigs(out io.Writer, dir string) error {
	manager, err := config.NewManager(dir)
	if err != nil {
		return err
	}

	infos, err := manager.ListConfigs()
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tMODE\tDICE\tCLOCK\tPLACEMENT\tSTARTS")
	for _, info := range infos {
		cfg, err := manager.LoadConfig(info.ConfigID)
		if err != nil {
			fmt.Fprintf(w, "%s\t(invalid: %v)\n", info.ConfigID, err)
			continue
		}

		clock := "-"
		if cfg.TimeLimitSeconds > 0 {
			clock = fmt.Sprintf("%ds", cfg.TimeLimitSeconds)
		}
		sides := engine.SidesFor(cfg.Mode)
		starts := fmt.Sprintf("%s %s / %s %s",
			sides[0], cfg.StartPositions[sides[0]], sides[1], cfg.StartPositions[sides[1]])

		fmt.Fprintf(w, "%s\t%s\t%s\t1-%d\t%s\t%s\t%s\n",
			info.ConfigID, cfg.Name, cfg.Mode, cfg.DiceFaces, clock, cfg.AfterMovePlacement, starts)
	}
	return w.Flush()
}

// selfPlay runs matches until n have finished. Every restart reported by the
// engine carries the outcome of the match that just ended.
func selfPlay(ctx context.Context, cfg *engine.GameConfig, n int, seed int64) (*SelfPlayStats, error) {
	rnd := rand.New(rand.NewSource(seed))
	e, err := engine.NewEngine(cfg, engine.WithRand(rnd))
	if err != nil {
		return nil, err
	}
	defer e.Close()

	stats := &SelfPlayStats{
		Wins:    make(map[engine.Side]int),
		Reasons: make(map[engine.OutcomeReason]int),
	}

	res := e.Start()
	steps := 0
	for stats.Matches < n {
		if err := ctx.Err(); err != nil {
			return stats, err
		}

		steps++
		if steps > maxStepsPerMatch*n {
			return stats, fmt.Errorf("no outcome after %d steps", steps)
		}

		res, err = step(e, res, rnd)
		if err != nil {
			return stats, err
		}
		if res.Restarted {
			if outcome := findOutcome(res.Events); outcome != nil {
				stats.record(outcome)
			}
		}
	}
	return stats, nil
}

// step performs the next action the current state calls for
func step(e engine.Engine, res engine.Result, rnd *rand.Rand) (engine.Result, error) {
	if res.Next != nil {
		return e.Advance(res.Next.Token)
	}

	state := res.State
	side := state.Active
	switch state.Phase {
	case engine.PhaseAwaitingRoll:
		return e.RequestRoll(side)
	case engine.PhaseFiveChoice:
		options := []engine.FiveOption{engine.FiveMove, engine.FivePlace}
		return e.SelectFiveOption(side, options[rnd.Intn(len(options))])
	case engine.PhaseMovement, engine.PhasePlacement:
		if len(state.EnabledDirections) == 0 {
			return res, fmt.Errorf("%s has no enabled directions in %s", side, state.Phase)
		}
		return e.SelectDirection(side, state.EnabledDirections[rnd.Intn(len(state.EnabledDirections))])
	}
	return res, errors.New("match is stuck in phase " + string(state.Phase))
}

func findOutcome(events []engine.Event) *engine.Outcome {
	for _, event := range events {
		if event.Type == engine.EventOutcome && event.Outcome != nil {
			return event.Outcome
		}
	}
	return nil
}

func printStats(out io.Writer, stats *SelfPlayStats) {
	fmt.Fprintf(out, "\n=== %s: %d matches ===\n", stats.Config, stats.Matches)

	sides := make([]string, 0, len(stats.Wins))
	for side := range stats.Wins {
		sides = append(sides, string(side))
	}
	sort.Strings(sides)
	for _, side := range sides {
		wins := stats.Wins[engine.Side(side)]
		fmt.Fprintf(out, "%-10s %4d wins (%.1f%%)\n", side, wins, percent(wins, stats.Matches))
	}

	reasons := make([]string, 0, len(stats.Reasons))
	for reason, count := range stats.Reasons {
		reasons = append(reasons, fmt.Sprintf("%s=%d", reason, count))
	}
	sort.Strings(reasons)
	fmt.Fprintf(out, "Outcomes: %s\n", strings.Join(reasons, ", "))
	fmt.Fprintf(out, "Turns: avg %.1f, shortest %d, longest %d\n", stats.AverageTurns(), stats.Shortest, stats.Longest)
}

func percent(part, total int) float64 {
	if total == 0 {
		return 0
	}
	return 100 * float64(part) / float64(total)
}

package engine

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/wricardo/nine-nine/game/board"
)

const (
	MinDiceFaces        = 1
	MaxDiceFaces        = 6
	MaxTimeLimitSeconds = 3600
	MaxDelayMS          = 10000

	PlacementAll        = "all"
	PlacementOrthogonal = "orthogonal"

	FirstMoverRandom = "random"

	StalemateLose = "lose"
	StalematePass = "pass"
)

// Messages holds the texts shown for match outcomes. The fell, no-moves and
// no-placements texts receive the affected side through %s.
type Messages struct {
	Welcome      string `json:"welcome" yaml:"welcome"`
	Timeout      string `json:"timeout" yaml:"timeout"`
	Fell         string `json:"fell" yaml:"fell"`
	NoMoves      string `json:"no_moves" yaml:"no_moves"`
	NoPlacements string `json:"no_placements" yaml:"no_placements"`
}

// GameConfig is a rule set. It is loaded from JSON or YAML files; fields
// missing from a file keep the defaults of its mode.
type GameConfig struct {
	Name               string                  `json:"name" yaml:"name"`
	Description        string                  `json:"description" yaml:"description"`
	Mode               Mode                    `json:"mode" yaml:"mode"`
	DiceFaces          int                     `json:"dice_faces" yaml:"dice_faces"`
	TimeLimitSeconds   int                     `json:"time_limit_seconds" yaml:"time_limit_seconds"`
	RollDelayMS        int                     `json:"roll_delay_ms" yaml:"roll_delay_ms"`
	StepDelayMS        int                     `json:"step_delay_ms" yaml:"step_delay_ms"`
	SafeEdgeRoll       int                     `json:"safe_edge_roll" yaml:"safe_edge_roll"`
	FiveChoiceRoll     int                     `json:"five_choice_roll" yaml:"five_choice_roll"`
	AfterMovePlacement string                  `json:"after_move_placement" yaml:"after_move_placement"`
	FirstMover         string                  `json:"first_mover" yaml:"first_mover"`
	StartPositions     map[Side]board.Position `json:"start_positions" yaml:"start_positions"`
	TurnBonus          int                     `json:"turn_bonus" yaml:"turn_bonus"`
	ChoiceBonus        map[int]int             `json:"choice_bonus" yaml:"choice_bonus"`
	SkillCost          int                     `json:"skill_cost" yaml:"skill_cost"`
	PlacementStalemate string                  `json:"placement_stalemate" yaml:"placement_stalemate"`
	OpponentScript     string                  `json:"opponent_script,omitempty" yaml:"opponent_script,omitempty"`
	Messages           Messages                `json:"messages" yaml:"messages"`
}

// SidesFor returns the two participants of a mode in board piece order
func SidesFor(mode Mode) [2]Side {
	if mode == ModeVsPlayer {
		return [2]Side{Player1, Player2}
	}
	return [2]Side{Human, Computer}
}

// DefaultConfig returns the built-in rule set for a mode
func DefaultConfig(mode Mode) *GameConfig {
	if mode == ModeVsPlayer {
		return &GameConfig{
			Name:               "Duel",
			Description:        "Two players, 4-sided dice, points and skills",
			Mode:               ModeVsPlayer,
			DiceFaces:          4,
			AfterMovePlacement: PlacementOrthogonal,
			FirstMover:         string(Player1),
			StartPositions: map[Side]board.Position{
				Player1: {X: 0, Y: 4},
				Player2: {X: 8, Y: 4},
			},
			TurnBonus:          10,
			ChoiceBonus:        map[int]int{1: 10, 2: 5},
			SkillCost:          100,
			PlacementStalemate: StalemateLose,
			Messages: Messages{
				Welcome:      "Player 1 starts. Roll the dice!",
				Timeout:      "Time is up!",
				Fell:         "%s fell off the board!",
				NoMoves:      "%s has nowhere to move!",
				NoPlacements: "%s has nowhere to place an obstacle!",
			},
		}
	}

	return &GameConfig{
		Name:               "Classic",
		Description:        "Human against the computer, 5-sided dice, five-minute clock",
		Mode:               ModeVsCom,
		DiceFaces:          5,
		TimeLimitSeconds:   300,
		RollDelayMS:        1000,
		StepDelayMS:        1000,
		SafeEdgeRoll:       4,
		FiveChoiceRoll:     5,
		AfterMovePlacement: PlacementAll,
		FirstMover:         FirstMoverRandom,
		StartPositions: map[Side]board.Position{
			Human:    {X: 4, Y: 8},
			Computer: {X: 4, Y: 0},
		},
		ChoiceBonus:        map[int]int{},
		PlacementStalemate: StalemateLose,
		Messages: Messages{
			Welcome:      "Strand the computer before the clock runs out!",
			Timeout:      "Time is up! The board resets.",
			Fell:         "%s fell off the board!",
			NoMoves:      "%s has nowhere to move!",
			NoPlacements: "%s has nowhere to place an obstacle!",
		},
	}
}

// Clone returns a deep copy of the configuration
func (c *GameConfig) Clone() *GameConfig {
	clone := *c
	clone.StartPositions = make(map[Side]board.Position, len(c.StartPositions))
	for k, v := range c.StartPositions {
		clone.StartPositions[k] = v
	}
	clone.ChoiceBonus = make(map[int]int, len(c.ChoiceBonus))
	for k, v := range c.ChoiceBonus {
		clone.ChoiceBonus[k] = v
	}
	return &clone
}

// ValidateGameConfig validates a rule set for correctness and playability
func ValidateGameConfig(config *GameConfig) error {
	if config == nil {
		return fmt.Errorf("config validation: config is nil")
	}
	if config.Name == "" {
		return fmt.Errorf("config validation: name is required")
	}
	if config.Description == "" {
		return fmt.Errorf("config validation: description is required")
	}

	if config.Mode != ModeVsCom && config.Mode != ModeVsPlayer {
		return fmt.Errorf("config validation: mode must be %q or %q, got %q", ModeVsCom, ModeVsPlayer, config.Mode)
	}

	if config.DiceFaces < MinDiceFaces || config.DiceFaces > MaxDiceFaces {
		return fmt.Errorf("config validation: dice_faces must be between %d and %d, got %d", MinDiceFaces, MaxDiceFaces, config.DiceFaces)
	}
	if config.TimeLimitSeconds < 0 || config.TimeLimitSeconds > MaxTimeLimitSeconds {
		return fmt.Errorf("config validation: time_limit_seconds must be between 0 and %d, got %d", MaxTimeLimitSeconds, config.TimeLimitSeconds)
	}
	if config.RollDelayMS < 0 || config.RollDelayMS > MaxDelayMS {
		return fmt.Errorf("config validation: roll_delay_ms must be between 0 and %d, got %d", MaxDelayMS, config.RollDelayMS)
	}
	if config.StepDelayMS < 0 || config.StepDelayMS > MaxDelayMS {
		return fmt.Errorf("config validation: step_delay_ms must be between 0 and %d, got %d", MaxDelayMS, config.StepDelayMS)
	}
	if config.SafeEdgeRoll < 0 || config.SafeEdgeRoll > config.DiceFaces {
		return fmt.Errorf("config validation: safe_edge_roll must be between 0 and dice_faces (%d), got %d", config.DiceFaces, config.SafeEdgeRoll)
	}
	if config.FiveChoiceRoll < 0 || config.FiveChoiceRoll > config.DiceFaces {
		return fmt.Errorf("config validation: five_choice_roll must be between 0 and dice_faces (%d), got %d", config.DiceFaces, config.FiveChoiceRoll)
	}
	if config.Mode == ModeVsPlayer && config.FiveChoiceRoll != 0 {
		return fmt.Errorf("config validation: five_choice_roll is only supported in %s mode", ModeVsCom)
	}

	if config.AfterMovePlacement != PlacementAll && config.AfterMovePlacement != PlacementOrthogonal {
		return fmt.Errorf("config validation: after_move_placement must be %q or %q, got %q", PlacementAll, PlacementOrthogonal, config.AfterMovePlacement)
	}

	sides := SidesFor(config.Mode)
	if config.FirstMover != FirstMoverRandom && config.FirstMover != string(sides[0]) && config.FirstMover != string(sides[1]) {
		return fmt.Errorf("config validation: first_mover must be %q, %q or %q, got %q", FirstMoverRandom, sides[0], sides[1], config.FirstMover)
	}

	for side := range config.StartPositions {
		if side != sides[0] && side != sides[1] {
			return fmt.Errorf("config validation: start_positions has unknown side %q for mode %s", side, config.Mode)
		}
	}
	first, ok := config.StartPositions[sides[0]]
	if !ok {
		return fmt.Errorf("config validation: start_positions.%s is required", sides[0])
	}
	second, ok := config.StartPositions[sides[1]]
	if !ok {
		return fmt.Errorf("config validation: start_positions.%s is required", sides[1])
	}
	if !first.OnBoard() || !second.OnBoard() {
		return fmt.Errorf("config validation: start_positions must lie within the %dx%d board", board.Size, board.Size)
	}
	if first == second {
		return fmt.Errorf("config validation: start_positions must differ, both are %s", first)
	}

	if config.TurnBonus < 0 {
		return fmt.Errorf("config validation: turn_bonus must not be negative, got %d", config.TurnBonus)
	}
	for options, bonus := range config.ChoiceBonus {
		if options < 0 || options > len(board.AllDirections) {
			return fmt.Errorf("config validation: choice_bonus key must be between 0 and %d, got %d", len(board.AllDirections), options)
		}
		if bonus < 0 {
			return fmt.Errorf("config validation: choice_bonus[%d] must not be negative, got %d", options, bonus)
		}
	}
	if config.SkillCost < 0 {
		return fmt.Errorf("config validation: skill_cost must not be negative, got %d", config.SkillCost)
	}
	if config.PlacementStalemate != StalemateLose && config.PlacementStalemate != StalematePass {
		return fmt.Errorf("config validation: placement_stalemate must be %q or %q, got %q", StalemateLose, StalematePass, config.PlacementStalemate)
	}

	if config.Messages.Welcome == "" {
		return fmt.Errorf("config validation: messages.welcome is required")
	}
	for key, text := range map[string]string{
		"fell":          config.Messages.Fell,
		"no_moves":      config.Messages.NoMoves,
		"no_placements": config.Messages.NoPlacements,
	} {
		if strings.Count(text, "%s") != 1 || strings.Count(text, "%") != 1 {
			return fmt.Errorf("config validation: messages.%s must contain exactly one %%s for the side and no other verbs", key)
		}
	}

	if config.OpponentScript != "" {
		if config.Mode != ModeVsCom {
			return fmt.Errorf("config validation: opponent_script is only supported in %s mode", ModeVsCom)
		}
		if err := CheckOpponentScript(config.OpponentScript); err != nil {
			return fmt.Errorf("config validation: opponent_script: %w", err)
		}
	}

	return nil
}

// ParseGameConfig decodes a rule set. format is "json" or "yaml". The mode is
// read first so that the document is layered over that mode's defaults.
// start_positions entries merge per side; choice_bonus replaces the table.
func ParseGameConfig(data []byte, format string) (*GameConfig, error) {
	var header struct {
		Mode        Mode        `json:"mode" yaml:"mode"`
		ChoiceBonus map[int]int `json:"choice_bonus" yaml:"choice_bonus"`
	}
	if err := unmarshalConfig(data, format, &header); err != nil {
		return nil, err
	}
	if header.Mode == "" {
		header.Mode = ModeVsCom
	}

	config := DefaultConfig(header.Mode)
	// a choice_bonus table replaces the default one instead of merging into it
	if header.ChoiceBonus != nil {
		config.ChoiceBonus = nil
	}
	if err := unmarshalConfig(data, format, config); err != nil {
		return nil, err
	}
	return config, nil
}

func unmarshalConfig(data []byte, format string, out interface{}) error {
	switch strings.ToLower(format) {
	case "json":
		return json.Unmarshal(data, out)
	case "yaml", "yml":
		return yaml.Unmarshal(data, out)
	default:
		return fmt.Errorf("unsupported config format %q", format)
	}
}

// FormatForPath returns the config format implied by a file extension, or ""
func FormatForPath(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return "json"
	case ".yaml", ".yml":
		return "yaml"
	}
	return ""
}

// LoadGameConfig loads and validates a rule set from a JSON or YAML file
func LoadGameConfig(filename string) (*GameConfig, error) {
	// Support CONFIG_DIR environment variable for alternative config directory
	configPath := filename
	if configDir := os.Getenv("CONFIG_DIR"); configDir != "" {
		if strings.HasPrefix(filename, "configs/") {
			configPath = filepath.Join(configDir, strings.TrimPrefix(filename, "configs/"))
		}
	}

	format := FormatForPath(configPath)
	if format == "" {
		return nil, fmt.Errorf("config file '%s' must end in .json, .yaml or .yml", filename)
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, err
	}

	config, err := ParseGameConfig(data, format)
	if err != nil {
		return nil, fmt.Errorf("failed to parse config file '%s': %w", filename, err)
	}

	if err := ValidateGameConfig(config); err != nil {
		return nil, err
	}

	return config, nil
}

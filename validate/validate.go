// Command validate checks the rule sets in a configs directory (../configs
// by default, or the first argument). Every .json, .yaml and .yml file is
// layered over its mode defaults and must pass the engine's validation. It
// also checks that both pieces can make an opening move and that the custom
// opponent script, if any, loads.
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/wricardo/nine-nine/game/board"
	"github.com/wricardo/nine-nine/game/engine"
)

// ValidationResult captures the outcome of validating a single file.
// If Valid is true, Errors contains informational messages; otherwise it
// accumulates the validation errors that were found.
type ValidationResult struct {
	File   string
	Valid  bool
	Errors []string
}

func (r *ValidationResult) fail(format string, args ...interface{}) {
	r.Valid = false
	r.Errors = append(r.Errors, fmt.Sprintf(format, args...))
}

func (r *ValidationResult) info(format string, args ...interface{}) {
	r.Errors = append(r.Errors, "✓ "+fmt.Sprintf(format, args...))
}

// validateConfig loads and validates a single rule set file
func validateConfig(filePath string) ValidationResult {
	result := ValidationResult{
		File:   filepath.Base(filePath),
		Valid:  true,
		Errors: []string{},
	}

	format := engine.FormatForPath(filePath)
	if format == "" {
		result.fail("Unsupported file extension %q", filepath.Ext(filePath))
		return result
	}

	data, err := os.ReadFile(filePath)
	if err != nil {
		result.fail("Failed to read file: %v", err)
		return result
	}

	config, err := engine.ParseGameConfig(data, format)
	if err != nil {
		result.fail("Invalid %s: %v", strings.ToUpper(format), err)
		return result
	}

	if err := engine.ValidateGameConfig(config); err != nil {
		result.fail("%s", strings.TrimPrefix(err.Error(), "config validation: "))
		return result
	}

	opening := validateOpening(config)
	if !opening.Valid {
		result.Valid = false
	}
	result.Errors = append(result.Errors, opening.Errors...)

	if !result.Valid {
		return result
	}

	sides := engine.SidesFor(config.Mode)
	result.info("Name: %s", config.Name)
	result.info("Mode: %s", config.Mode)
	result.info("Dice: 1-%d", config.DiceFaces)
	if config.TimeLimitSeconds > 0 {
		result.info("Clock: %ds", config.TimeLimitSeconds)
	} else {
		result.info("Clock: none")
	}
	result.info("Starts: %s %s, %s %s", sides[0], config.StartPositions[sides[0]], sides[1], config.StartPositions[sides[1]])
	result.info("Placement: %s", config.AfterMovePlacement)
	if config.Mode == engine.ModeVsPlayer {
		result.info("Points: +%d per turn, skills cost %d", config.TurnBonus, config.SkillCost)
	}
	if config.OpponentScript != "" {
		result.info("Opponent: custom script")
	}

	return result
}

// validateOpening checks that each side has a legal one-step move and a legal
// placement from its start position on the empty board.
func validateOpening(config *engine.GameConfig) ValidationResult {
	result := ValidationResult{
		Valid:  true,
		Errors: []string{},
	}

	sides := engine.SidesFor(config.Mode)
	b := board.New(config.StartPositions[sides[0]], config.StartPositions[sides[1]])

	placementDirs := board.AllDirections
	if config.AfterMovePlacement == engine.PlacementOrthogonal {
		placementDirs = board.Orthogonal
	}

	for i, side := range sides {
		from := b.Pieces[i]
		moves := b.LegalMoves(from, board.AllDirections)
		placements := b.LegalPlacements(from, placementDirs)

		if len(moves) == 0 {
			result.fail("%s cannot move from %s", side, from)
		}
		if len(placements) == 0 {
			result.fail("%s cannot place an obstacle from %s", side, from)
		}
		if len(moves) > 0 && len(placements) > 0 {
			result.info("Opening for %s: %d moves, %d placements", side, len(moves), len(placements))
		}
	}

	return result
}

// findConfigs lists the rule set files of dir in name order
func findConfigs(dir string) ([]string, error) {
	var files []string
	for _, pattern := range []string{"*.json", "*.yaml", "*.yml"} {
		matches, err := filepath.Glob(filepath.Join(dir, pattern))
		if err != nil {
			return nil, err
		}
		files = append(files, matches...)
	}
	sort.Strings(files)
	return files, nil
}

// main validates each rule set, printing a concise report and exiting with
// non-zero status if any are invalid.
func main() {
	configDir := "../configs"
	if len(os.Args) > 1 {
		configDir = os.Args[1]
	}

	files, err := findConfigs(configDir)
	if err != nil {
		fmt.Printf("Error finding config files: %v\n", err)
		os.Exit(1)
	}
	if len(files) == 0 {
		fmt.Printf("No rule sets found in %s\n", configDir)
		os.Exit(1)
	}

	allValid := true
	for _, file := range files {
		result := validateConfig(file)

		fmt.Printf("\n%s %s\n", strings.Repeat("=", 20), result.File)

		if result.Valid {
			fmt.Println("✅ VALID")
			for _, info := range result.Errors {
				fmt.Println("  " + info)
			}
		} else {
			fmt.Println("❌ INVALID")
			allValid = false
			for _, err := range result.Errors {
				if !strings.HasPrefix(err, "✓") {
					fmt.Println("  ❌ " + err)
				}
			}
		}
	}

	fmt.Printf("\n%s\n", strings.Repeat("=", 40))
	if allValid {
		fmt.Println("✅ All rule sets are valid!")
	} else {
		fmt.Println("❌ Some rule sets have errors")
		os.Exit(1)
	}
}

// Package config provides rule-set management for nine-nine.
//
// The config package handles:
//   - Loading rule sets from JSON or YAML files
//   - Validation through engine.ValidateGameConfig
//   - Caching and default rule-set selection
//   - Listing and saving rule sets
//
// Rule Set Format:
//
// Rule sets live in the configs directory as <id>.json, <id>.yaml or
// <id>.yml. A file only needs the fields it changes: everything else keeps the
// defaults of its mode ("vscom" unless the file says otherwise). A vscom rule
// set may embed a Lua opponent_script that overrides the computer's choices.
//
//	name: Corner Start
//	description: Computer starts in the top-left corner
//	mode: vscom
//	start_positions:
//	  computer: {x: 0, y: 0}
//
// Default Selection:
//
// classic is the default when present, then the first valid file in the
// directory, then the built-in vscom rules.
//
// Usage:
//
//	manager, err := config.NewManager("configs")
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	duel, err := manager.LoadConfig("duel")
//	configs, err := manager.ListConfigs()
package config

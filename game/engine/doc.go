// Package engine implements the rules of the nine-nine board game.
//
// Two engines share one turn structure: roll the dice, move a piece that many
// cells in a straight line, then place an obstacle next to it. A participant
// who falls off the board, or who has no legal move or placement when one is
// required, loses; the board is then reinitialised.
//
//   - VsCom (mode "vscom") pits a human against a scripted opponent. A roll of
//     five lets the mover skip moving and place in any of eight directions
//     instead, a roll of four never falls off the edge, and a countdown clock
//     ends the match when it runs out.
//   - VsPlayer (mode "vsplayer") is for two humans. Players collect points at
//     the start of each turn and when their options are scarce, and spend them
//     on skills that adjust their next dice value.
//
// Core Types:
//
// Engine is the contract both implement. Every transition returns a Result
// holding a deep-copied Snapshot, the presentation Events it produced, and
// optionally a Continuation: a delayed step the caller must schedule and hand
// back through Advance. GameConfig is a rule set loaded from JSON or YAML.
// Policy decides for the scripted opponent; RandomPolicy picks uniformly and
// LuaPolicy asks a Lua script.
//
// Usage:
//
//	config := engine.DefaultConfig(engine.ModeVsCom)
//	config.FirstMover = string(engine.Human)
//
//	eng, err := engine.NewEngine(config)
//	if err != nil {
//		log.Fatal(err)
//	}
//	defer eng.Close()
//
//	res := eng.Start()
//	res, err = eng.RequestRoll(engine.Human)
//	if errors.Is(err, engine.ErrNotYourTurn) {
//		// wait for the opponent
//	}
//	for res.Next != nil {
//		time.Sleep(res.Next.Delay)
//		res, _ = eng.Advance(res.Next.Token)
//	}
//
// Engines are not safe for concurrent use; callers serialise access.
package engine

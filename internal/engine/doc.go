// Package engine runs expression operations and records them in the run
// log.
//
// Each Derive, Step, or Simplify call is one run: the engine stores the
// input tree, performs the operation, stores every tree the simplifier
// produced pass by pass, and writes a run row stamped with a run ID and a
// logical seq. Failed simplifications are recorded too, with the error
// code as their status and the last tree reached as their output.
//
// Replay re-executes a recorded run from its stored input and compares
// the result pass by pass. Runs are deterministic, so any difference
// means the rewrite rules changed between the recording and the replay.
//
// The engine is not safe for concurrent use; the CLI and the scenario
// harness drive it from a single goroutine.
package engine

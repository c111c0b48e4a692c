// Package roomcast automates a desktop chat client to deliver one message,
// and optionally one file, to many chat rooms in sequence.
//
// It drives the client's real UI: rooms are opened through the client's own
// search box, payloads are pasted through the clipboard, and the room window
// is closed again before the next target. There is no protocol access.
//
// Key Features:
// - Batched multi-room sends with randomized pacing between rooms
// - Text, attachment, or both, in a configurable order
// - Progress reporting and cooperative cancellation
// - Per-room failures never abort the run
//
// Example:
//
//	eng, err := roomcast.New(roomcast.Options{})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	res, err := eng.Run(ctx, "", model.SendRequest{
//	    Batches:  []model.SendBatch{{Rooms: []string{"Team"}, Message: "hello"}},
//	    DelayMin: 1, DelayMax: 3,
//	}, progress.Nop)
//
// While a run is active the desktop must not be used: the clipboard is
// overwritten and keystrokes go to whichever window has focus.
package roomcast

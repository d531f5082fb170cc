// meta/meta.go
package meta

// Search depth in plies per difficulty tier.
const (
	EASY_DEPTH   = 2
	MEDIUM_DEPTH = 4
	HARD_DEPTH   = 6
)

// BATCH_SIZE is the number of Monte Carlo playouts per turn change.
const BATCH_SIZE = 300

// DRAW_CAP is the number of playout moves after which a playout is a draw.
const DRAW_CAP = 200

// PROGRESS_EVERY is how many playouts pass between published progress snapshots.
const PROGRESS_EVERY = 10

// MAX_TURNS bounds AI-vs-AI games driven by the engine.
const MAX_TURNS = 300

// LISTEN_ADDR is where the UI bridge listens by default.
const LISTEN_ADDR = "127.0.0.1:3000"

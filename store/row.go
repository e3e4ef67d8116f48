package store

// SchemaTurnRow is written to every file's key/value metadata under "schema".
const SchemaTurnRow = "snake_turn_row_v1"

// TurnRow is one step of a recorded episode.
//
// Turn, Heading, HeadX/HeadY, FoodX/FoodY and Features describe what the
// policy saw before it chose Action. Length, Reward, Done and Cause describe
// the game after the turn was applied.
//
// Action uses the game's direction numbering: 0=Up, 1=Down, 2=Left, 3=Right,
// 4=Center.
type TurnRow struct {
	EpisodeID string `parquet:"episode_id,dict"`
	Policy    string `parquet:"policy,dict"`
	Seed      uint64 `parquet:"seed"`
	Size      int32  `parquet:"size"`
	Turn      int32  `parquet:"turn"`

	Heading string `parquet:"heading,dict"`
	HeadX   int32  `parquet:"head_x"`
	HeadY   int32  `parquet:"head_y"`
	FoodX   int32  `parquet:"food_x"`
	FoodY   int32  `parquet:"food_y"`

	// Features is the 24-wide sensor vector: wall, body, then food rays.
	Features []float32 `parquet:"features"`

	Action int32   `parquet:"action"`
	Reward float32 `parquet:"reward"`
	Length int32   `parquet:"length"`
	Done   bool    `parquet:"done"`
	Cause  string  `parquet:"cause,dict"`
}

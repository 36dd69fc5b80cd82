// Package leaderboard is the external score registry: a small HTTP API
// backed by SQLite on the server side, and a best-effort submitting client
// on the game side.
package leaderboard

// Entry is one leaderboard row.
type Entry struct {
	ID         string  `json:"id" gorm:"column:id;primaryKey"`
	PlayerName string  `json:"playerName" gorm:"column:player_name;index"`
	Score      float64 `json:"score" gorm:"column:score;index"`
	Difficulty string  `json:"difficulty" gorm:"column:difficulty"`
	CreatedAt  int64   `json:"createdAt" gorm:"column:created_at"`
}

// TableName keeps the table name stable across gorm versions.
func (Entry) TableName() string { return "leaderboard_entries" }

package model

// CodeCounter is a named sequence incremented under a row lock. Code
// generation takes the next value and retries on a uniqueness collision.
type CodeCounter struct {
	Name  string `gorm:"type:varchar(50);primaryKey" json:"name"`
	Value int64  `gorm:"not null;default:0" json:"value"`
}

package model

type Reminder struct {
	ID            string `json:"id"`
	UserID        string `json:"user_id"`
	Type          string `json:"type"`
	Title         string `json:"title"`
	RemindAt      string `json:"remind_at"`
	RepeatPattern string `json:"repeat_pattern"`
	Active        int    `json:"active"`
	Ctime         int64  `json:"ctime"`
}

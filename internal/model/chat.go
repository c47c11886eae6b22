package model

type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type ChatHistory struct {
	ID       string        `json:"id"`
	UserID   string        `json:"user_id"`
	Title    string        `json:"title"`
	Messages []ChatMessage `json:"messages"`
	Ctime    int64         `json:"ctime"`
	Mtime    int64         `json:"mtime"`
}

package models

import "time"

// Remote DTOs mirror the board API JSON. Field presence is the only
// invariant; absent file URLs mean the post is hidden for anonymous users.

type PostFile struct {
	Width  int    `json:"width"`
	Height int    `json:"height"`
	Ext    string `json:"ext"`
	Size   int64  `json:"size"`
	MD5    string `json:"md5"`
	URL    string `json:"url"`
}

type PostPreview struct {
	Width  int    `json:"width"`
	Height int    `json:"height"`
	URL    string `json:"url"`
}

type PostSample struct {
	Has    bool   `json:"has"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
	URL    string `json:"url"`
}

type PostScore struct {
	Up    int `json:"up"`
	Down  int `json:"down"`
	Total int `json:"total"`
}

type PostTags struct {
	General   []string `json:"general"`
	Species   []string `json:"species"`
	Character []string `json:"character"`
	Copyright []string `json:"copyright"`
	Artist    []string `json:"artist"`
	Invalid   []string `json:"invalid"`
	Lore      []string `json:"lore"`
	Meta      []string `json:"meta"`
}

type PostFlags struct {
	Pending      bool `json:"pending"`
	Flagged      bool `json:"flagged"`
	NoteLocked   bool `json:"note_locked"`
	StatusLocked bool `json:"status_locked"`
	RatingLocked bool `json:"rating_locked"`
	Deleted      bool `json:"deleted"`
}

type PostRelationships struct {
	ParentID          *int64  `json:"parent_id"`
	HasChildren       bool    `json:"has_children"`
	HasActiveChildren bool    `json:"has_active_children"`
	Children          []int64 `json:"children"`
}

type Post struct {
	ID            int64             `json:"id"`
	CreatedAt     time.Time         `json:"created_at"`
	UpdatedAt     time.Time         `json:"updated_at"`
	File          PostFile          `json:"file"`
	Preview       PostPreview       `json:"preview"`
	Sample        PostSample        `json:"sample"`
	Score         PostScore         `json:"score"`
	Tags          PostTags          `json:"tags"`
	Flags         PostFlags         `json:"flags"`
	Rating        string            `json:"rating"`
	FavCount      int               `json:"fav_count"`
	Sources       []string          `json:"sources"`
	Pools         []int64           `json:"pools"`
	Relationships PostRelationships `json:"relationships"`
	UploaderID    int64             `json:"uploader_id"`
	Description   string            `json:"description"`
	CommentCount  int               `json:"comment_count"`
	IsFavorited   bool              `json:"is_favorited"`
}

// AllTags flattens every tag category in display order.
func (p *Post) AllTags() []string {
	groups := [][]string{
		p.Tags.Artist,
		p.Tags.Copyright,
		p.Tags.Character,
		p.Tags.Species,
		p.Tags.General,
		p.Tags.Lore,
		p.Tags.Meta,
		p.Tags.Invalid,
	}

	var tags []string
	for _, g := range groups {
		tags = append(tags, g...)
	}

	return tags
}

type User struct {
	ID              int64     `json:"id"`
	Name            string    `json:"name"`
	Level           int       `json:"level"`
	LevelString     string    `json:"level_string"`
	CreatedAt       time.Time `json:"created_at"`
	AvatarID        *int64    `json:"avatar_id"`
	PostUploadCount int       `json:"post_upload_count"`
	PostUpdateCount int       `json:"post_update_count"`
	NoteUpdateCount int       `json:"note_update_count"`
	IsBanned        bool      `json:"is_banned"`
}

type Comment struct {
	ID        int64     `json:"id"`
	PostID    int64     `json:"post_id"`
	CreatorID int64     `json:"creator_id"`
	Creator   string    `json:"creator_name"`
	Body      string    `json:"body"`
	Score     int       `json:"score"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	IsHidden  bool      `json:"is_hidden"`
}

type Pool struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
	CreatorID   int64     `json:"creator_id"`
	IsActive    bool      `json:"is_active"`
	Category    string    `json:"category"`
	PostIDs     []int64   `json:"post_ids"`
	PostCount   int       `json:"post_count"`
}

type PostSet struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Shortname   string    `json:"shortname"`
	Description string    `json:"description"`
	CreatorID   int64     `json:"creator_id"`
	IsPublic    bool      `json:"is_public"`
	PostIDs     []int64   `json:"post_ids"`
	PostCount   int       `json:"post_count"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type WikiPage struct {
	ID        int64     `json:"id"`
	Title     string    `json:"title"`
	Body      string    `json:"body"`
	CreatorID int64     `json:"creator_id"`
	IsLocked  bool      `json:"is_locked"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type Note struct {
	ID        int64     `json:"id"`
	PostID    int64     `json:"post_id"`
	CreatorID int64     `json:"creator_id"`
	X         int       `json:"x"`
	Y         int       `json:"y"`
	Width     int       `json:"width"`
	Height    int       `json:"height"`
	Body      string    `json:"body"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type Tag struct {
	ID        int64  `json:"id"`
	Name      string `json:"name"`
	PostCount int64  `json:"post_count"`
	Category  int    `json:"category"`
}

type TagAlias struct {
	ID             int64  `json:"id"`
	AntecedentName string `json:"antecedent_name"`
	ConsequentName string `json:"consequent_name"`
	Status         string `json:"status"`
}

// Local cache records. Keyed rows with primary-key uniqueness only;
// last writer wins.

type FavoriteRecord struct {
	PostID    int64
	CreatedAt time.Time
}

type SeenPost struct {
	PostID int64
	SeenAt time.Time
}

type Download struct {
	ID        int64
	PostID    int64
	URL       string
	FileName  string
	Error     string
	CreatedAt time.Time
}

// Pending reports whether the row is still waiting for the queue worker.
// Rows with a recorded error stay in the table until a manual retry.
func (d *Download) Pending() bool {
	return d.Error == ""
}

type FollowedTag struct {
	ID            int64
	ChatID        int64
	Tag           string
	UnseenCount   int64
	LastCheckedAt *time.Time
}

type BlacklistLine struct {
	ID     int64
	ChatID int64
	Line   string
}

type SearchHistoryEntry struct {
	ID          int64
	Query       string
	ResultCount int64
	SearchedAt  time.Time
}

type SavedSearch struct {
	ID        int64
	Name      string
	Query     string
	CreatedAt time.Time
}

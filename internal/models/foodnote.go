package models

type Foodnote struct {
	ID       string        `json:"id"`
	StampID  string        `json:"stamp_id"`
	AuthorID string        `json:"author_id"`
	Text     string        `json:"text"`
	Place    PlaceDocument `json:"place"`

	// Unix seconds, assigned by server on creation
	Timestamp int64 `json:"timestamp"`

	ImgURLs  []string `json:"img_urls"`
	IsPublic bool     `json:"is_public"`
}

// Payload of POST /foodnotes. Author is always the authenticated user.
type CreateFoodnote struct {
	StampID  string        `json:"stamp_id" validate:"required"`
	Text     string        `json:"text"`
	Place    PlaceDocument `json:"place"`
	ImgURLs  []string      `json:"img_urls" validate:"dive,required"`
	IsPublic bool          `json:"is_public"`
}

// VisibleTo reports whether the user may read the foodnote
func (f *Foodnote) VisibleTo(userID string) bool {
	return f.IsPublic || f.AuthorID == userID
}

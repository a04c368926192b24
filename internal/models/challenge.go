package models

type Stamp struct {
	ID          string `json:"id" validate:"required"`
	Title       string `json:"title" validate:"required"`
	Description string `json:"description"`
	ImgURL      string `json:"img_url"`
}

type Challenge struct {
	ID     string  `json:"id"`
	Name   string  `json:"name"`
	Stamps []Stamp `json:"stamps"`
}

type CreateChallenge struct {
	Name   string  `json:"name" validate:"required"`
	Stamps []Stamp `json:"stamps" validate:"dive"`
}

// UpdateChallenge changes only the fields that are not nil
type UpdateChallenge struct {
	ID     string   `json:"id" validate:"required"`
	Name   *string  `json:"name,omitempty"`
	Stamps *[]Stamp `json:"stamps,omitempty" validate:"omitempty,dive"`
}

// Apply overwrites fields present in the update
func (c *Challenge) Apply(u UpdateChallenge) {
	if u.Name != nil {
		c.Name = *u.Name
	}
	if u.Stamps != nil {
		c.Stamps = append([]Stamp(nil), (*u.Stamps)...)
	}
}

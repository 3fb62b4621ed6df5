package validate

import "strings"

// Schema names a set of payload rules.
type Schema string

const (
	SchemaLogin      Schema = "login"
	SchemaRegister   Schema = "register"
	SchemaPostCreate Schema = "post-create"
	SchemaPostUpdate Schema = "post-update"
)

// Input is a request payload bound to a schema.
type Input interface {
	Schema() Schema
	normalize()
}

// LoginInput is the payload of POST /auth/login.
type LoginInput struct {
	Username string `json:"username" validate:"min=3,max=64"`
	Password string `json:"password" validate:"min=8,maxbytes=72"`
}

func (*LoginInput) Schema() Schema { return SchemaLogin }

func (in *LoginInput) normalize() { in.Username = strings.TrimSpace(in.Username) }

// RegisterInput is the payload of POST /auth/register.
type RegisterInput struct {
	Username string `json:"username" validate:"min=3,max=64"`
	Password string `json:"password" validate:"min=8,maxbytes=72"`
}

func (*RegisterInput) Schema() Schema { return SchemaRegister }

func (in *RegisterInput) normalize() { in.Username = strings.TrimSpace(in.Username) }

// PostCreateInput is the payload of POST /posts.
type PostCreateInput struct {
	Title   string `json:"title" validate:"min=1,max=255"`
	Content string `json:"content" validate:"min=1"`
}

func (*PostCreateInput) Schema() Schema { return SchemaPostCreate }

func (in *PostCreateInput) normalize() { in.Title = strings.TrimSpace(in.Title) }

// PostUpdateInput is the payload of PUT /posts/{id}. Absent fields stay unchanged,
// present fields follow the create rules.
type PostUpdateInput struct {
	Title   *string `json:"title" validate:"omitnil,min=1,max=255"`
	Content *string `json:"content" validate:"omitnil,min=1"`
}

func (*PostUpdateInput) Schema() Schema { return SchemaPostUpdate }

func (in *PostUpdateInput) normalize() {
	if in.Title != nil {
		title := strings.TrimSpace(*in.Title)
		in.Title = &title
	}
}

func (in *PostUpdateInput) empty() bool {
	return in.Title == nil && in.Content == nil
}

package model

// Selectors locates the parts of a comment listing in the rendered DOM.
// All values except the attribute names are CSS selectors.
//
// The defaults match the shoutbox markup the tool was first written for;
// other sites override them in the configuration file.
type Selectors struct {
	// PaginationMarker matches every page link of the pagination control.
	// The first and last matches give the page range.
	PaginationMarker string `yaml:"pagination_marker,omitempty" json:"pagination_marker" validate:"required"`

	// Container must be present before a page is considered rendered.
	Container string `yaml:"container,omitempty" json:"container" validate:"required"`

	// CommentItem matches a comment at any depth, top-level or reply.
	CommentItem string `yaml:"comment_item,omitempty" json:"comment_item" validate:"required"`

	User       string `yaml:"user,omitempty" json:"user" validate:"required"`
	Body       string `yaml:"body,omitempty" json:"body" validate:"required"`
	VoteButton string `yaml:"vote_button,omitempty" json:"vote_button" validate:"required"`
	Time       string `yaml:"time,omitempty" json:"time" validate:"required"`

	// DateAttr is the attribute of the Time element holding the timestamp.
	DateAttr string `yaml:"date_attr,omitempty" json:"date_attr" validate:"required"`

	// IdentityAttr is the attribute of a comment item holding its unique key.
	IdentityAttr string `yaml:"identity_attr,omitempty" json:"identity_attr" validate:"required"`

	// Strict makes a missing user, body, vote or time element a parse
	// failure for the comment instead of an empty value. Nil means unset,
	// so a site entry can turn strict mode off again.
	Strict *bool `yaml:"strict,omitempty" json:"strict,omitempty"`
}

// DefaultSelectors returns the built-in selector set.
func DefaultSelectors() Selectors {
	return Selectors{
		PaginationMarker: ".pagination-page",
		Container:        ".shoutbox",
		CommentItem:      ".shout-list-item",
		User:             ".shout-user",
		Body:             ".shout-body",
		VoteButton:       ".vote-button",
		Time:             "time",
		DateAttr:         "datetime",
		IdentityAttr:     "id",
	}
}

// IsStrict reports whether strict mode is on. Unset means off.
func (s Selectors) IsStrict() bool {
	return s.Strict != nil && *s.Strict
}

// Merge returns s with every non-empty field of override applied on top.
// Strict is taken from override whenever override sets it.
func (s Selectors) Merge(override Selectors) Selectors {
	out := s
	pick := func(dst *string, v string) {
		if v != "" {
			*dst = v
		}
	}
	pick(&out.PaginationMarker, override.PaginationMarker)
	pick(&out.Container, override.Container)
	pick(&out.CommentItem, override.CommentItem)
	pick(&out.User, override.User)
	pick(&out.Body, override.Body)
	pick(&out.VoteButton, override.VoteButton)
	pick(&out.Time, override.Time)
	pick(&out.DateAttr, override.DateAttr)
	pick(&out.IdentityAttr, override.IdentityAttr)
	if override.Strict != nil {
		out.Strict = Bool(*override.Strict)
	}
	return out
}

// Bool returns a pointer to b.
func Bool(b bool) *bool {
	return &b
}

package model

import "testing"

func TestSelectorsMerge(t *testing.T) {
	t.Parallel()

	t.Run("empty override keeps defaults", func(t *testing.T) {
		t.Parallel()

		got := DefaultSelectors().Merge(Selectors{})
		if got != DefaultSelectors() {
			t.Errorf("got %+v, want defaults", got)
		}
	})

	t.Run("non-empty fields replace defaults", func(t *testing.T) {
		t.Parallel()

		got := DefaultSelectors().Merge(Selectors{
			CommentItem:  "li.comment",
			IdentityAttr: "data-comment-id",
		})
		if got.CommentItem != "li.comment" {
			t.Errorf("CommentItem = %q", got.CommentItem)
		}
		if got.IdentityAttr != "data-comment-id" {
			t.Errorf("IdentityAttr = %q", got.IdentityAttr)
		}
		if got.User != ".shout-user" {
			t.Errorf("User should keep default, got %q", got.User)
		}
	})

	t.Run("strict follows the override when set", func(t *testing.T) {
		t.Parallel()

		tests := []struct {
			name     string
			base     *bool
			override *bool
			want     bool
		}{
			{name: "unset everywhere is lenient", base: nil, override: nil, want: false},
			{name: "override enables", base: nil, override: Bool(true), want: true},
			{name: "unset override keeps base", base: Bool(true), override: nil, want: true},
			{name: "override disables strict base", base: Bool(true), override: Bool(false), want: false},
		}

		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				t.Parallel()

				base := DefaultSelectors()
				base.Strict = tt.base
				if got := base.Merge(Selectors{Strict: tt.override}); got.IsStrict() != tt.want {
					t.Errorf("IsStrict() = %v, want %v", got.IsStrict(), tt.want)
				}
			})
		}
	})

	t.Run("merge does not alias the override flag", func(t *testing.T) {
		t.Parallel()

		flag := Bool(true)
		got := DefaultSelectors().Merge(Selectors{Strict: flag})
		*flag = false
		if !got.IsStrict() {
			t.Error("expected merged selectors to keep their own copy")
		}
	})
}

package crawler

import (
	"errors"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/nao1215/threadscrape/internal/model"
)

// Parser turns rendered comment elements into comment trees.
//
// A comment owns the elements whose nearest enclosing comment item is the
// comment itself. Field lookups and reply lookups are both restricted to
// owned elements, so a comment never picks up the author or vote button of
// one of its replies, and replies-of-replies are reached by recursion only.
type Parser struct {
	sel      model.Selectors
	observer Observer
}

// NewParser returns a Parser using sel. observer may be nil.
func NewParser(sel model.Selectors, observer Observer) *Parser {
	if observer == nil {
		observer = NopObserver{}
	}
	return &Parser{sel: sel, observer: observer}
}

// ParseResult is the outcome of parsing one comment element: either Node
// is set, or Err explains why the comment was skipped. Err is
// ErrDuplicateIdentity for an already seen identity and a *NodeError for
// a failure.
type ParseResult struct {
	Node     *model.CommentNode
	Identity string
	Err      error
}

// OK reports whether the comment was parsed.
func (r ParseResult) OK() bool {
	return r.Err == nil && r.Node != nil
}

// ParseComment parses item and its replies.
//
// The identity is checked and registered in seen before anything else is
// read. A duplicate returns immediately, so the whole duplicate subtree is
// skipped even if it holds replies never seen before. A failure after
// registration does not unregister the identity.
func (p *Parser) ParseComment(item *goquery.Selection, seen *IdentitySet) ParseResult {
	identity := strings.TrimSpace(item.AttrOr(p.sel.IdentityAttr, ""))

	if !seen.Add(identity) {
		return ParseResult{Identity: identity, Err: ErrDuplicateIdentity}
	}

	node, err := p.parseFields(item)
	if err != nil {
		return ParseResult{Identity: identity, Err: &NodeError{Identity: identity, Err: err}}
	}
	node.Identity = identity
	node.Responses = p.ExtractForest(p.owned(item, p.sel.CommentItem), seen)

	return ParseResult{Node: &node, Identity: identity}
}

// ExtractForest parses sibling comment elements in order and returns the
// successful ones. Duplicates and failures are left out silently; the
// observer is told about them.
func (p *Parser) ExtractForest(items *goquery.Selection, seen *IdentitySet) []model.CommentNode {
	forest := make([]model.CommentNode, 0, items.Length())

	items.Each(func(_ int, item *goquery.Selection) {
		res := p.ParseComment(item, seen)
		switch {
		case res.OK():
			forest = append(forest, *res.Node)
		case errors.Is(res.Err, ErrDuplicateIdentity):
			p.observer.DuplicateSkipped(res.Identity)
		default:
			p.observer.NodeFailed(res.Identity, res.Err)
		}
	})

	return forest
}

// TopLevel returns the comment items under root that are not nested in
// another comment item, in document order.
func (p *Parser) TopLevel(root *goquery.Selection) *goquery.Selection {
	return root.Find(p.sel.CommentItem).FilterFunction(func(_ int, s *goquery.Selection) bool {
		return s.ParentsFiltered(p.sel.CommentItem).Length() == 0
	})
}

func (p *Parser) parseFields(item *goquery.Selection) (model.CommentNode, error) {
	var node model.CommentNode

	user, err := p.field(item, p.sel.User, "user")
	if err != nil {
		return node, err
	}
	node.User = innerText(user)

	body, err := p.field(item, p.sel.Body, "body")
	if err != nil {
		return node, err
	}
	node.Content = innerText(body)

	vote, err := p.field(item, p.sel.VoteButton, "vote")
	if err != nil {
		return node, err
	}
	node.Votes = model.NoVotes()
	if vote.Length() > 0 {
		if node.Votes, err = parseVotes(innerText(vote)); err != nil {
			return node, err
		}
	}

	ts, err := p.field(item, p.sel.Time, "time")
	if err != nil {
		return node, err
	}
	if raw := ts.AttrOr(p.sel.DateAttr, ""); raw != "" {
		node.Date = model.StringPtr(strings.TrimSpace(raw))
	}

	return node, nil
}

// field returns the first owned element matching selector. A missing
// element yields an empty selection, or ErrMissingElement in strict mode.
func (p *Parser) field(item *goquery.Selection, selector, role string) (*goquery.Selection, error) {
	s := p.owned(item, selector).First()
	if s.Length() == 0 && p.sel.IsStrict() {
		return s, fmt.Errorf("%w: %s (%s)", ErrMissingElement, role, selector)
	}
	return s, nil
}

// owned returns the descendants of item matching selector whose nearest
// enclosing comment item is item.
func (p *Parser) owned(item *goquery.Selection, selector string) *goquery.Selection {
	if item.Length() == 0 {
		return item
	}
	self := item.Get(0)
	return item.Find(selector).FilterFunction(func(_ int, s *goquery.Selection) bool {
		owner := s.ParentsFiltered(p.sel.CommentItem).First()
		return owner.Length() == 1 && owner.Get(0) == self
	})
}

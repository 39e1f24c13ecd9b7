package crawler

import (
	"fmt"
	"net/url"
	"strconv"

	"github.com/PuerkitoBio/goquery"

	"github.com/nao1215/threadscrape/internal/model"
)

// ResolveBounds reads the pagination control of a listing page.
//
// The first and last elements matching marker are taken as the lowest and
// highest page numbers. Whatever they display is used as-is, so a control
// that truncates to "3 4 5 ... 9" yields [3,9].
func ResolveBounds(doc *goquery.Document, marker string) (model.PageRange, error) {
	markers := doc.Find(marker)
	if markers.Length() == 0 {
		return model.PageRange{}, fmt.Errorf("%w: no element matches %q", ErrNoPagination, marker)
	}

	first, err := pageNumber(markers.First())
	if err != nil {
		return model.PageRange{}, err
	}
	last, err := pageNumber(markers.Last())
	if err != nil {
		return model.PageRange{}, err
	}

	if first > last {
		return model.PageRange{}, fmt.Errorf("%w: %d > %d", ErrInvertedBounds, first, last)
	}
	return model.PageRange{First: first, Last: last}, nil
}

func pageNumber(s *goquery.Selection) (int, error) {
	text := innerText(s)
	n, err := strconv.Atoi(text)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidPageMarker, text)
	}
	return n, nil
}

// PageURL returns base with the page query parameter set to page.
//
// When base has no such parameter yet it is appended to the raw query, so
// the rest of the URL is left byte for byte as given. An existing value is
// replaced.
func PageURL(base, param string, page int) (string, error) {
	u, err := url.Parse(base)
	if err != nil {
		return "", fmt.Errorf("invalid pagination URL %q: %w", base, err)
	}

	value := strconv.Itoa(page)
	q := u.Query()
	if q.Has(param) {
		q.Set(param, value)
		u.RawQuery = q.Encode()
		return u.String(), nil
	}

	pair := url.QueryEscape(param) + "=" + value
	if u.RawQuery == "" {
		u.RawQuery = pair
	} else {
		u.RawQuery += "&" + pair
	}
	return u.String(), nil
}

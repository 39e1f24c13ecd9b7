package crawler

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"

	"github.com/nao1215/threadscrape/internal/model"
)

// parseVotes turns the text of a vote button into a count.
//
// Only digits are kept, so "👍 1,234 votes" gives 1234. Text is NFKC
// normalized first, which maps full-width and other compatibility digits
// to ASCII. Decimal digits of other scripts, such as "١٢" or "१२", keep
// their value. Empty text means the page shows no count and gives an absent
// value, not zero. Text without any digit, or a number that does not fit
// in an int, is an error.
func parseVotes(raw string) (model.Votes, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return model.NoVotes(), nil
	}

	digits := strings.Map(func(r rune) rune {
		if v, ok := digitValue(r); ok {
			return '0' + rune(v)
		}
		return -1
	}, norm.NFKC.String(raw))

	if digits == "" {
		return model.NoVotes(), fmt.Errorf("%w: no digits in %q", ErrInvalidVotes, raw)
	}

	n, err := strconv.Atoi(digits)
	if err != nil {
		return model.NoVotes(), fmt.Errorf("%w: %q: %w", ErrInvalidVotes, raw, err)
	}
	return model.VoteCount(n), nil
}

// digitValue returns the decimal value of a Unicode decimal digit.
// Every script encodes its digits as a contiguous run starting at zero,
// and unicode.Nd lists those runs with stride 1.
func digitValue(r rune) (int, bool) {
	if r >= '0' && r <= '9' {
		return int(r - '0'), true
	}
	if !unicode.IsDigit(r) {
		return 0, false
	}
	for _, rg := range unicode.Nd.R16 {
		if r <= 0xFFFF && rg.Stride == 1 && uint16(r) >= rg.Lo && uint16(r) <= rg.Hi {
			return int(r-rune(rg.Lo)) % 10, true
		}
	}
	for _, rg := range unicode.Nd.R32 {
		if rg.Stride == 1 && uint32(r) >= rg.Lo && uint32(r) <= rg.Hi {
			return int(r-rune(rg.Lo)) % 10, true
		}
	}
	return 0, false
}

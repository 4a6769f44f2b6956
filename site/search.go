package site

import (
	"encoding/json"
	"math"
	"sort"
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// SearchFile is the output name of the client-side search index.
const SearchFile = "search.json"

const (
	searchVersion   = 1
	maxTermPostings = 32
)

var searchFields = []string{"title", "description", "text"}

// searchIndex is the serialized form of the index. Docs rows are
// [route, title, description, lengths]; each term maps to its postings
// "count|doc:tf:tf:tf[:positions];..." with base-36 numbers and
// delta-encoded text positions.
type searchIndex struct {
	Version   int               `json:"v"`
	DocCount  int               `json:"c"`
	Fields    []string          `json:"f"`
	AvgLength []int             `json:"a"`
	Docs      [][]string        `json:"d"`
	Terms     map[string]string `json:"t"`
}

type posting struct {
	doc       int
	freq      [3]int
	positions []int
}

// buildSearchIndex tokenizes the title, description and plain text of every
// page. Page order defines document ids.
func buildSearchIndex(pages []*Page) ([]byte, error) {
	idx := searchIndex{
		Version:   searchVersion,
		DocCount:  len(pages),
		Fields:    append([]string(nil), searchFields...),
		AvgLength: make([]int, len(searchFields)),
		Docs:      make([][]string, 0, len(pages)),
		Terms:     map[string]string{},
	}

	postings := make(map[string][]*posting)
	var totals [3]int
	for doc, p := range pages {
		terms := make(map[string]*posting)
		entry := func(token string) *posting {
			e := terms[token]
			if e == nil {
				e = &posting{doc: doc}
				terms[token] = e
			}
			return e
		}

		var lengths [3]int
		for field, text := range []string{p.Title, p.Description, p.PlainText} {
			pos := 0
			lengths[field] = tokenize(text, func(token string) {
				e := entry(token)
				e.freq[field]++
				if field == 2 && len(e.positions) < maxTermPostings {
					e.positions = append(e.positions, pos)
				}
				pos++
			})
			totals[field] += lengths[field]
		}

		idx.Docs = append(idx.Docs, []string{
			p.Route, p.Title, p.Description,
			base36(lengths[0]) + "," + base36(lengths[1]) + "," + base36(lengths[2]),
		})
		for term, e := range terms {
			postings[term] = append(postings[term], e)
		}
	}

	if len(pages) > 0 {
		for i, total := range totals {
			idx.AvgLength[i] = int(math.Round(float64(total*100) / float64(len(pages))))
		}
	}
	for term, list := range postings {
		sort.Slice(list, func(i, j int) bool { return list[i].doc < list[j].doc })
		idx.Terms[term] = encodePostings(list)
	}
	return json.Marshal(idx)
}

// tokenize folds text to lower-case letters and digits with diacritics
// removed and calls emit for each token. Single letters are dropped. It
// returns the number of tokens emitted.
func tokenize(text string, emit func(string)) int {
	if text == "" {
		return 0
	}
	var (
		b     strings.Builder
		count int
	)
	flush := func() {
		if b.Len() == 0 {
			return
		}
		token := b.String()
		b.Reset()
		if len(token) == 1 && (token[0] < '0' || token[0] > '9') {
			return
		}
		emit(token)
		count++
	}
	for _, r := range norm.NFKD.String(text) {
		switch {
		case unicode.Is(unicode.Mn, r):
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(unicode.ToLower(r))
		default:
			flush()
		}
	}
	flush()
	return count
}

func encodePostings(list []*posting) string {
	var b strings.Builder
	b.WriteString(base36(len(list)))
	b.WriteByte('|')
	for i, e := range list {
		if i > 0 {
			b.WriteByte(';')
		}
		b.WriteString(base36(e.doc))
		for _, f := range e.freq {
			b.WriteByte(':')
			b.WriteString(base36(f))
		}
		if len(e.positions) == 0 {
			continue
		}
		b.WriteByte(':')
		prev := 0
		for j, pos := range e.positions {
			if j > 0 {
				b.WriteByte('.')
			}
			b.WriteString(base36(pos - prev))
			prev = pos
		}
	}
	return b.String()
}

func base36(v int) string {
	const digits = "0123456789abcdefghijklmnopqrstuvwxyz"
	if v == 0 {
		return "0"
	}
	var buf [16]byte
	i := len(buf)
	for v > 0 {
		i--
		buf[i] = digits[v%36]
		v /= 36
	}
	return string(buf[i:])
}

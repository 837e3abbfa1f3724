package service

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"hs-compliance/internal/models"
)

const DefaultPassageMaxLen = 1000

var paragraphBreak = regexp.MustCompile(`\n[ \t\r\f\v]*\n`)

// Segment splits text into passages of at most maxLen runes. Whole
// paragraphs are packed greedily; a paragraph longer than maxLen is packed
// word by word instead. A single word longer than maxLen becomes a passage
// of its own. Passage IDs are their position in the result.
func Segment(text string, maxLen int) []models.Passage {
	if maxLen <= 0 {
		maxLen = DefaultPassageMaxLen
	}

	s := segmenter{maxLen: maxLen}
	for _, para := range paragraphBreak.Split(text, -1) {
		para = strings.TrimSpace(para)
		if para == "" {
			continue
		}

		if utf8.RuneCountInString(para) <= maxLen {
			s.add(para, "\n\n")
			continue
		}

		s.flush()
		for _, word := range strings.Fields(para) {
			s.add(word, " ")
		}
	}
	s.flush()

	passages := make([]models.Passage, len(s.out))
	for i, content := range s.out {
		passages[i] = models.Passage{ID: i, Content: content}
	}
	return passages
}

type segmenter struct {
	maxLen int
	buf    strings.Builder
	bufLen int
	out    []string
}

func (s *segmenter) add(piece, sep string) {
	n := utf8.RuneCountInString(piece)
	if s.bufLen > 0 && s.bufLen+len(sep)+n > s.maxLen {
		s.flush()
	}
	if s.bufLen > 0 {
		s.buf.WriteString(sep)
		s.bufLen += len(sep)
	}
	s.buf.WriteString(piece)
	s.bufLen += n
}

func (s *segmenter) flush() {
	if s.bufLen == 0 {
		return
	}
	s.out = append(s.out, s.buf.String())
	s.buf.Reset()
	s.bufLen = 0
}

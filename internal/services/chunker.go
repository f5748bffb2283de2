package services

import (
	"strings"
	"unicode/utf8"
)

const (
	defaultChunkSize    = 1000
	defaultChunkOverlap = 100
)

type TextChunker interface {
	ChunkText(text string) []string
}

// textChunker packs paragraphs into chunks of at most maxChunkSize runes,
// splitting oversized paragraphs by sentence. Each chunk after the first
// starts with the last overlap runes of the previous one.
type textChunker struct {
	maxChunkSize int
	overlap      int
}

func NewTextChunker(maxChunkSize, overlap int) TextChunker {
	if maxChunkSize <= 0 {
		maxChunkSize = defaultChunkSize
	}
	if overlap < 0 {
		overlap = 0
	}
	if overlap >= maxChunkSize {
		overlap = maxChunkSize / 4
	}
	return &textChunker{maxChunkSize: maxChunkSize, overlap: overlap}
}

// ChunkText implements TextChunker.
func (tc *textChunker) ChunkText(text string) []string {
	var (
		chunks  []string
		current strings.Builder
		size    int
	)

	flush := func(sep string) {
		if current.Len() == 0 {
			return
		}
		chunks = append(chunks, current.String())
		tail := lastNRunes(current.String(), tc.overlap)
		current.Reset()
		size = 0
		if tail != "" {
			current.WriteString(tail)
			current.WriteString(sep)
			size = utf8.RuneCountInString(tail) + utf8.RuneCountInString(sep)
		}
	}

	add := func(piece, sep string) {
		n := utf8.RuneCountInString(piece)
		switch {
		case size > 0 && size+n+utf8.RuneCountInString(sep) > tc.maxChunkSize:
			// flush leaves the overlap tail already followed by sep.
			flush(sep)
		case size > 0:
			current.WriteString(sep)
			size += utf8.RuneCountInString(sep)
		}
		current.WriteString(piece)
		size += n
	}

	for _, para := range strings.Split(text, "\n\n") {
		para = strings.TrimSpace(para)
		if para == "" {
			continue
		}

		if utf8.RuneCountInString(para) <= tc.maxChunkSize {
			add(para, "\n\n")
			continue
		}

		for _, sentence := range splitIntoSentences(para) {
			add(sentence, " ")
		}
	}

	if current.Len() > 0 {
		chunks = append(chunks, current.String())
	}

	return chunks
}

func splitIntoSentences(text string) []string {
	sentences := strings.FieldsFunc(text, func(r rune) bool {
		return r == '.' || r == '!' || r == '?' || r == '\n'
	})

	var result []string
	for _, s := range sentences {
		s = strings.TrimSpace(s)
		if s != "" {
			result = append(result, s)
		}
	}
	return result
}

func lastNRunes(text string, n int) string {
	if n <= 0 {
		return ""
	}

	runes := []rune(text)
	if len(runes) <= n {
		return text
	}

	return string(runes[len(runes)-n:])
}

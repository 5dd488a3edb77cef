package scraper

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/yuhao0/newsrag/internal/article"
)

// ChunkSize is the target chunk length in runes. Splits prefer paragraph
// boundaries and stay well under the embedding input limit.
const ChunkSize = 1200

// Chunk splits scraped items into indexable article chunks with
// deterministic IDs, so re-ingesting the same pages upserts in place
// instead of duplicating.
func Chunk(items []Item) []article.Chunk {
	var chunks []article.Chunk
	for _, item := range items {
		meta := article.Metadata{
			Source:      item.Source,
			Title:       item.Title,
			URL:         item.URL,
			PublishedAt: item.PublishedAt,
		}
		for i, part := range splitText(item.Text, ChunkSize) {
			chunks = append(chunks, article.Chunk{
				ID:       chunkID(item.URL, i),
				Content:  part,
				Metadata: meta,
			})
		}
	}
	return chunks
}

// chunkID derives a stable chunk identifier from the article URL and the
// chunk's position within it.
func chunkID(articleURL string, index int) string {
	sum := sha256.Sum256([]byte(articleURL))
	return fmt.Sprintf("%s-%d", hex.EncodeToString(sum[:8]), index)
}

// splitText splits text into chunks of at most size runes, breaking at
// paragraph boundaries where possible. Empty paragraphs are dropped.
func splitText(text string, size int) []string {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}

	var (
		chunks []string
		cur    strings.Builder
		curLen int
	)
	flush := func() {
		if curLen > 0 {
			chunks = append(chunks, cur.String())
			cur.Reset()
			curLen = 0
		}
	}

	for _, para := range strings.Split(text, "\n\n") {
		para = strings.TrimSpace(para)
		if para == "" {
			continue
		}

		runes := []rune(para)

		// Oversized paragraphs are split hard at the chunk size.
		for len(runes) > size {
			flush()
			chunks = append(chunks, string(runes[:size]))
			runes = runes[size:]
		}
		if len(runes) == 0 {
			continue
		}

		if curLen > 0 && curLen+2+len(runes) > size {
			flush()
		}
		if curLen > 0 {
			cur.WriteString("\n\n")
			curLen += 2
		}
		cur.WriteString(string(runes))
		curLen += len(runes)
	}
	flush()
	return chunks
}

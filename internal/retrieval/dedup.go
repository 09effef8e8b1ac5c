package retrieval

import (
	"crypto/sha256"
	"encoding/hex"

	"ccms/internal/domain"
)

const dedupPrefixRunes = 200

// ContentKey hashes the first 200 characters of a document.
func ContentKey(content string) string {
	runes := []rune(content)
	if len(runes) > dedupPrefixRunes {
		runes = runes[:dedupPrefixRunes]
	}
	sum := sha256.Sum256([]byte(string(runes)))
	return hex.EncodeToString(sum[:])
}

// Deduplicate keeps the first document for each content key, preserving order.
func Deduplicate(docs []domain.RetrievedDocument) []domain.RetrievedDocument {
	seen := make(map[string]struct{}, len(docs))
	out := make([]domain.RetrievedDocument, 0, len(docs))
	for _, d := range docs {
		key := ContentKey(d.Content)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, d)
	}
	return out
}

// AboveThreshold drops scored documents under the threshold; unscored documents pass.
func AboveThreshold(docs []domain.RetrievedDocument, threshold float64) []domain.RetrievedDocument {
	if threshold <= 0 {
		return docs
	}
	out := docs[:0:0]
	for _, d := range docs {
		if d.HasScore && d.Score < threshold {
			continue
		}
		out = append(out, d)
	}
	return out
}

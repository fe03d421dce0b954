package ocr

import (
	"strings"
	"unicode"
)

// TextSimilarity scores recognized text against the expected text from 0.0
// (no match) to 1.0 (identical after normalization). Line structure counts.
func TextSimilarity(detected, truth string) float64 {
	detectedLines := splitLines(detected)
	truthLines := splitLines(truth)

	detectedNorm := normalizeText(detected)
	truthNorm := normalizeText(truth)

	if truthNorm == "" {
		if detectedNorm == "" {
			return 1.0
		}
		return 0.0
	}
	if detectedNorm == truthNorm {
		return 1.0
	}

	lcs := longestCommonSubsequence(detectedNorm, truthNorm)
	lcsScore := float64(lcs) / float64(max(len(detectedNorm), len(truthNorm)))

	charOverlap := characterOverlap(detectedNorm, truthNorm)

	lineScore := 0.0
	if len(truthLines) > 0 {
		matched := 0.0
		for _, tl := range truthLines {
			tlNorm := normalizeText(tl)
			best := 0.0
			for _, dl := range detectedLines {
				dlNorm := normalizeText(dl)
				if dlNorm == tlNorm {
					best = 1.0
					break
				}
				if m := max(len(dlNorm), len(tlNorm)); m > 0 {
					best = max(best, float64(longestCommonSubsequence(dlNorm, tlNorm))/float64(m))
				}
			}
			matched += best
		}
		lineScore = matched / float64(len(truthLines))
	}

	// Share of 3-character substrings of the truth found in the detection.
	substringScore := 0.0
	if len(truthNorm) >= 3 {
		matches, total := 0, 0
		for i := 0; i <= len(truthNorm)-3; i++ {
			total++
			if strings.Contains(detectedNorm, truthNorm[i:i+3]) {
				matches++
			}
		}
		substringScore = float64(matches) / float64(total)
	}

	return 0.35*lcsScore + 0.25*charOverlap + 0.25*lineScore + 0.15*substringScore
}

// splitLines splits text into non-blank lines, handling different line endings.
func splitLines(s string) []string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = strings.ReplaceAll(s, "\r", "\n")
	lines := strings.Split(s, "\n")
	result := make([]string, 0, len(lines))
	for _, l := range lines {
		if strings.TrimSpace(l) != "" {
			result = append(result, l)
		}
	}
	return result
}

// normalizeText uppercases and keeps only letters, digits and newlines.
func normalizeText(s string) string {
	s = strings.ToUpper(s)
	var result strings.Builder
	for _, r := range s {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == '\n' {
			result.WriteRune(r)
		}
	}
	return result.String()
}

// longestCommonSubsequence calculates LCS length over bytes.
func longestCommonSubsequence(a, b string) int {
	m, n := len(a), len(b)
	if m == 0 || n == 0 {
		return 0
	}

	prev := make([]int, n+1)
	curr := make([]int, n+1)
	for i := 1; i <= m; i++ {
		for j := 1; j <= n; j++ {
			if a[i-1] == b[j-1] {
				curr[j] = prev[j-1] + 1
			} else {
				curr[j] = max(prev[j], curr[j-1])
			}
		}
		prev, curr = curr, prev
	}
	return prev[n]
}

// characterOverlap returns the share of truth characters present in detected,
// counting multiplicity.
func characterOverlap(detected, truth string) float64 {
	if len(truth) == 0 {
		return 0.0
	}
	counts := make(map[rune]int)
	for _, r := range detected {
		counts[r]++
	}
	matched, total := 0, 0
	for _, r := range truth {
		total++
		if counts[r] > 0 {
			matched++
			counts[r]--
		}
	}
	return float64(matched) / float64(total)
}

package similarity

// SequenceRatio computes a ratio-of-matching-subsequences score between two
// strings using longest-matching-block decomposition: 2*M / (len(a)+len(b)),
// where M is the total length of matched blocks. It operates on runes.
//
// Two empty strings are identical absence of content and score 1.0; one
// empty side scores 0.0.
func SequenceRatio(a, b string) float64 {
	ar := []rune(a)
	br := []rune(b)
	if len(ar) == 0 && len(br) == 0 {
		return 1.0
	}
	if len(ar) == 0 || len(br) == 0 {
		return 0.0
	}

	matched := matchingTotal(ar, br)
	return 2.0 * float64(matched) / float64(len(ar)+len(br))
}

type matchRegion struct {
	alo, ahi, blo, bhi int
}

// matchingTotal sums the lengths of all matching blocks found by repeatedly
// taking the longest match in each region and recursing on both sides.
func matchingTotal(a, b []rune) int {
	b2j := make(map[rune][]int, len(b))
	for j, r := range b {
		b2j[r] = append(b2j[r], j)
	}

	total := 0
	queue := []matchRegion{{0, len(a), 0, len(b)}}
	for len(queue) > 0 {
		region := queue[len(queue)-1]
		queue = queue[:len(queue)-1]

		i, j, k := longestMatch(a, b2j, region)
		if k == 0 {
			continue
		}
		total += k
		queue = append(queue,
			matchRegion{region.alo, i, region.blo, j},
			matchRegion{i + k, region.ahi, j + k, region.bhi},
		)
	}
	return total
}

// longestMatch finds the longest block a[i:i+k] == b[j:j+k] inside the
// region, preferring the earliest (lowest i, then lowest j) on ties.
func longestMatch(a []rune, b2j map[rune][]int, r matchRegion) (besti, bestj, bestk int) {
	besti, bestj, bestk = r.alo, r.blo, 0
	j2len := make(map[int]int)
	for i := r.alo; i < r.ahi; i++ {
		newj2len := make(map[int]int)
		for _, j := range b2j[a[i]] {
			if j < r.blo {
				continue
			}
			if j >= r.bhi {
				break
			}
			k := j2len[j-1] + 1
			newj2len[j] = k
			if k > bestk {
				besti, bestj, bestk = i-k+1, j-k+1, k
			}
		}
		j2len = newj2len
	}
	return besti, bestj, bestk
}

package stats

import "sort"

// SelectWeakChars returns up to top answered characters with the lowest
// accuracy. Ties go to the character with more recorded mistakes.
func SelectWeakChars(chars []CharStat, top int) []CharStat {
	candidates := make([]CharStat, 0, len(chars))
	for _, st := range chars {
		if st.Attempts > 0 {
			candidates = append(candidates, st)
		}
	}
	sort.Slice(candidates, func(i, j int) bool {
		ai := candidates[i].Accuracy()
		aj := candidates[j].Accuracy()
		if ai != aj {
			return ai < aj
		}
		if candidates[i].Mistakes != candidates[j].Mistakes {
			return candidates[i].Mistakes > candidates[j].Mistakes
		}
		return candidates[i].Char < candidates[j].Char
	})
	if top <= 0 || top > len(candidates) {
		top = len(candidates)
	}
	return candidates[:top]
}

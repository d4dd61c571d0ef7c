package query

import "sort"

// Diff describes how one result set became the next. Deletions index the old
// result set; insertions and modifications index the new one. A row that
// changed position is reported as a deletion plus an insertion. All three
// slices are sorted and disjoint within their frame.
type Diff struct {
	Deletions     []int
	Insertions    []int
	Modifications []int
}

// IsEmpty reports whether nothing changed.
func (d Diff) IsEmpty() bool {
	return len(d.Deletions) == 0 && len(d.Insertions) == 0 && len(d.Modifications) == 0
}

// Count returns the total number of reported indexes.
func (d Diff) Count() int {
	return len(d.Deletions) + len(d.Insertions) + len(d.Modifications)
}

// Compute diffs two keyed result sets. Rows kept in place are the longest run
// of common rows whose relative order did not change; every other common row
// is treated as moved.
func Compute(old, new []Key) Diff {
	var d Diff

	oldIndex := make(map[string]int, len(old))
	for i, k := range old {
		oldIndex[k.ID] = i
	}
	newIndex := make(map[string]int, len(new))
	for j, k := range new {
		newIndex[k.ID] = j
	}

	for i, k := range old {
		if _, ok := newIndex[k.ID]; !ok {
			d.Deletions = append(d.Deletions, i)
		}
	}

	// Old positions of the common rows, in new order.
	var commonNew []int
	var commonOld []int
	for j, k := range new {
		if i, ok := oldIndex[k.ID]; ok {
			commonNew = append(commonNew, j)
			commonOld = append(commonOld, i)
		} else {
			d.Insertions = append(d.Insertions, j)
		}
	}

	stable := longestIncreasing(commonOld)
	for n, j := range commonNew {
		i := commonOld[n]
		if !stable[n] {
			d.Deletions = append(d.Deletions, i)
			d.Insertions = append(d.Insertions, j)
			continue
		}
		if old[i].Version != new[j].Version {
			d.Modifications = append(d.Modifications, j)
		}
	}

	sort.Ints(d.Deletions)
	sort.Ints(d.Insertions)
	return d
}

// longestIncreasing marks the members of one longest strictly increasing
// subsequence of seq.
func longestIncreasing(seq []int) []bool {
	marked := make([]bool, len(seq))
	if len(seq) == 0 {
		return marked
	}

	// tails[k] is the index in seq of the smallest tail of an increasing
	// subsequence of length k+1.
	tails := make([]int, 0, len(seq))
	prev := make([]int, len(seq))
	for i, v := range seq {
		k := sort.Search(len(tails), func(n int) bool { return seq[tails[n]] >= v })
		if k > 0 {
			prev[i] = tails[k-1]
		} else {
			prev[i] = -1
		}
		if k == len(tails) {
			tails = append(tails, i)
		} else {
			tails[k] = i
		}
	}

	for i := tails[len(tails)-1]; i >= 0; i = prev[i] {
		marked[i] = true
	}
	return marked
}

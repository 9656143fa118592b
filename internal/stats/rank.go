package stats

// KendallS returns the Mann-Kendall statistic S = sum over i<j of
// sign(x[j]-x[i]) in O(n log n): S = pairs - ties - 2*inversions, where
// inversions are counted during a merge sort.
func KendallS(values []float64) int64 {
	n := int64(len(values))
	if n < 2 {
		return 0
	}
	work := make([]float64, len(values))
	copy(work, values)
	buf := make([]float64, len(values))
	inversions := mergeCount(work, buf)

	// work is now sorted; count tied pairs
	var ties int64
	for i := 0; i < len(work); {
		j := i
		for j < len(work) && work[j] == work[i] {
			j++
		}
		t := int64(j - i)
		ties += t * (t - 1) / 2
		i = j
	}

	pairs := n * (n - 1) / 2
	return pairs - ties - 2*inversions
}

// mergeCount sorts a ascending and returns the number of pairs i<j with a[i] > a[j]
func mergeCount(a, buf []float64) int64 {
	if len(a) < 2 {
		return 0
	}
	mid := len(a) / 2
	count := mergeCount(a[:mid], buf[:mid]) + mergeCount(a[mid:], buf[mid:])

	i, j, k := 0, mid, 0
	for i < mid && j < len(a) {
		if a[i] <= a[j] {
			buf[k] = a[i]
			i++
		} else {
			buf[k] = a[j]
			count += int64(mid - i)
			j++
		}
		k++
	}
	k += copy(buf[k:], a[i:mid])
	copy(buf[k:], a[j:])
	copy(a, buf[:len(a)])
	return count
}

// Select returns the k-th smallest value (0-based) of values, reordering the
// slice in place. k must be in [0, len(values)). Keys equal to the pivot are
// settled in one pass, so heavily tied input stays linear on average.
func Select(values []float64, k int) float64 {
	lo, hi := 0, len(values)-1
	for lo < hi {
		lt, gt := partition3(values, lo, hi)
		switch {
		case k < lt:
			hi = lt - 1
		case k > gt:
			lo = gt + 1
		default:
			return values[k]
		}
	}
	return values[k]
}

// partition3 splits a[lo:hi+1] around a median-of-three pivot into values
// below it, equal to it and above it. a[lt:gt+1] is the equal band.
func partition3(a []float64, lo, hi int) (lt, gt int) {
	mid := lo + (hi-lo)/2
	if a[mid] < a[lo] {
		a[mid], a[lo] = a[lo], a[mid]
	}
	if a[hi] < a[lo] {
		a[hi], a[lo] = a[lo], a[hi]
	}
	if a[hi] < a[mid] {
		a[hi], a[mid] = a[mid], a[hi]
	}
	pivot := a[mid]

	lt, i, gt := lo, lo, hi
	for i <= gt {
		switch {
		case a[i] < pivot:
			a[lt], a[i] = a[i], a[lt]
			lt++
			i++
		case a[i] > pivot:
			a[i], a[gt] = a[gt], a[i]
			gt--
		default:
			i++
		}
	}
	return lt, gt
}

// MedianInPlace returns the median of values using selection, reordering the slice.
func MedianInPlace(values []float64) float64 {
	n := len(values)
	if n == 0 {
		return nan()
	}
	upper := Select(values, n/2)
	if n%2 == 1 {
		return upper
	}
	// after Select, every element left of n/2 is <= upper
	lower := values[0]
	for _, v := range values[1 : n/2] {
		if v > lower {
			lower = v
		}
	}
	return (lower + upper) / 2
}

package vdom

// FindLIS returns the indices of a longest strictly increasing subsequence of
// arr. Negative entries mark new nodes and are never part of the result.
//
// The tails/predecessor method runs in O(n log n):
//
//	FindLIS([]int{6, 4, 8, 9, 7})      // [1 2 3]
//	FindLIS([]int{8, 9, 7, 4, 10, 11}) // [0 1 4 5]
func FindLIS(arr []int) []int {
	pred := make([]int, len(arr))
	tails := make([]int, 0, len(arr))

	for i, v := range arr {
		if v < 0 {
			continue
		}
		if n := len(tails); n == 0 || arr[tails[n-1]] < v {
			if n > 0 {
				pred[i] = tails[n-1]
			}
			tails = append(tails, i)
			continue
		}
		lo, hi := 0, len(tails)-1
		for lo < hi {
			mid := (lo + hi) / 2
			if arr[tails[mid]] < v {
				lo = mid + 1
			} else {
				hi = mid
			}
		}
		if v < arr[tails[lo]] {
			if lo > 0 {
				pred[i] = tails[lo-1]
			}
			tails[lo] = i
		}
	}

	out := make([]int, len(tails))
	if len(tails) == 0 {
		return out
	}
	k := tails[len(tails)-1]
	for i := len(tails) - 1; i >= 0; i-- {
		out[i] = k
		k = pred[k]
	}
	return out
}

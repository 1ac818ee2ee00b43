// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package hdf5

// copyHyperslab copies the overlap between two blocks of an
// n-dimensional row-major array. Each block is described by its
// origin in array coordinates and its extent; dst and src hold the
// blocks' elements packed row-major. Overlapping runs along the last
// axis copy as single memmoves.
func copyHyperslab(dst []byte, dstStart, dstShape []uint64, src []byte, srcStart, srcShape []uint64, elemSize int) {
	nd := len(dstShape)
	if nd == 0 {
		copy(dst[:elemSize], src[:elemSize])
		return
	}

	lo := make([]uint64, nd)
	hi := make([]uint64, nd)
	for i := 0; i < nd; i++ {
		lo[i] = max(dstStart[i], srcStart[i])
		hi[i] = min(dstStart[i]+dstShape[i], srcStart[i]+srcShape[i])
		if lo[i] >= hi[i] {
			return
		}
	}

	srcStride := rowMajorStrides(srcShape)
	dstStride := rowMajorStrides(dstShape)

	run := int(hi[nd-1]-lo[nd-1]) * elemSize
	cur := append([]uint64(nil), lo...)
	for {
		var so, do uint64
		for i := 0; i < nd; i++ {
			so += (cur[i] - srcStart[i]) * srcStride[i]
			do += (cur[i] - dstStart[i]) * dstStride[i]
		}
		sOff := int(so) * elemSize
		dOff := int(do) * elemSize
		copy(dst[dOff:dOff+run], src[sOff:sOff+run])

		// Advance over every axis but the last.
		i := nd - 2
		for ; i >= 0; i-- {
			cur[i]++
			if cur[i] < hi[i] {
				break
			}
			cur[i] = lo[i]
		}
		if i < 0 {
			return
		}
	}
}

// rowMajorStrides gives per-axis strides in elements.
func rowMajorStrides(shape []uint64) []uint64 {
	s := make([]uint64, len(shape))
	acc := uint64(1)
	for i := len(shape) - 1; i >= 0; i-- {
		s[i] = acc
		acc *= shape[i]
	}
	return s
}

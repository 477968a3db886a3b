package dataset

// Partition returns the half-open frame range [start, end) owned by rank in a
// group of size workers. Frames are split into contiguous blocks, and the
// first frames%size ranks take one extra frame.
func Partition(frames, size, rank int) (start, end int) {
	if size <= 1 {
		return 0, frames
	}
	if rank < 0 || rank >= size || frames <= 0 {
		return 0, 0
	}
	base := frames / size
	extra := frames % size
	start = rank*base + min(rank, extra)
	end = start + base
	if rank < extra {
		end++
	}
	return start, end
}

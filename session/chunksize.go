// SPDX-License-Identifier: EPL-2.0

package session

// Chunk sizing bounds shared by the format sessions. Base sizes are per
// format; the recommended size scales with file size so small files are
// not over-chunked and large files are not under-chunked.
const (
	MinChunkSize = 16 * 1024
	MaxChunkSize = 1024 * 1024
)

// RecommendChunkSize scales baseSize by file size and clamps the result
// to [MinChunkSize, MaxChunkSize].
func RecommendChunkSize(baseSize int, fileSize int64) ChunkSizeRecommendation {
	size := baseSize

	switch {
	case fileSize < 1<<20: // < 1 MiB
		size = baseSize / 2
	case fileSize < 10<<20: // < 10 MiB
		// base size as-is
	case fileSize < 100<<20: // < 100 MiB
		size = baseSize * 2
	default:
		size = baseSize * 4
	}

	if size < MinChunkSize {
		size = MinChunkSize
	}
	if size > MaxChunkSize {
		size = MaxChunkSize
	}

	return ChunkSizeRecommendation{
		Min:         MinChunkSize,
		Recommended: size,
		Max:         MaxChunkSize,
	}
}

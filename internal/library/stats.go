package library

// Statistics aggregates catalog counts for reporting.
type Statistics struct {
	TotalSongs         int    `json:"total_songs"`
	TotalArtists       int    `json:"total_artists"`
	TotalStyles        int    `json:"total_styles"`
	SongsWithDocuments int    `json:"songs_with_documents"`
	SongsWithAudio     int    `json:"songs_with_audio"`
	SongsWithVideo     int    `json:"songs_with_video"`
	MostCommonStyle    string `json:"most_common_style,omitempty"`
	MostProlificArtist string `json:"most_prolific_artist,omitempty"`
}

// ComputeStatistics derives Statistics from a song listing. Artist and style
// grouping is case-folded; the reported names use the first spelling seen.
func ComputeStatistics(songs []Song) Statistics {
	stats := Statistics{TotalSongs: len(songs)}

	artists := make(map[string]*bucket)
	styles := make(map[string]*bucket)

	for _, song := range songs {
		if song.HasDocuments() {
			stats.SongsWithDocuments++
		}
		if song.HasAudio() {
			stats.SongsWithAudio++
		}
		if song.HasVideo() {
			stats.SongsWithVideo++
		}
		if artist := song.Artist; artist != "" {
			key := FoldKey(artist)
			if b, ok := artists[key]; ok {
				b.count++
			} else {
				artists[key] = &bucket{label: artist, count: 1}
			}
		}
		if style := song.Style; style != "" {
			key := FoldKey(style)
			if b, ok := styles[key]; ok {
				b.count++
			} else {
				styles[key] = &bucket{label: style, count: 1}
			}
		}
	}

	stats.TotalArtists = len(artists)
	stats.TotalStyles = len(styles)
	stats.MostProlificArtist = topBucket(artists)
	stats.MostCommonStyle = topBucket(styles)
	return stats
}

type bucket struct {
	label string
	count int
}

// topBucket picks the highest count; ties resolve to the lexically smaller
// label so results stay deterministic across map iteration order.
func topBucket(buckets map[string]*bucket) string {
	best := ""
	bestCount := 0
	for _, b := range buckets {
		if b.count > bestCount || (b.count == bestCount && bestCount > 0 && b.label < best) {
			best = b.label
			bestCount = b.count
		}
	}
	return best
}

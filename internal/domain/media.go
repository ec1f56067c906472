package domain

// MediaType distinguishes movies from TV episodes.
type MediaType string

const (
	MediaTypeMovie   MediaType = "movie"
	MediaTypeEpisode MediaType = "episode"
)

// IssueType identifies what a scan found in a file.
type IssueType string

const (
	IssueBumper      IssueType = "bumper"
	IssueChannelLogo IssueType = "channel_logo"
)

// MediaFile is one video file known to the server.
type MediaFile struct {
	ID               int        `json:"id"`
	Path             string     `json:"path"`
	Title            string     `json:"title"`
	MediaType        MediaType  `json:"media_type"`
	SeriesTitle      string     `json:"series_title"`
	SeasonNumber     int        `json:"season_number"`
	EpisodeNumber    int        `json:"episode_number"`
	DurationSeconds  float64    `json:"duration_seconds"`
	FileSizeBytes    int64      `json:"file_size_bytes"`
	Resolution       string     `json:"resolution"`
	Codec            string     `json:"codec"`
	Container        string     `json:"container"`
	PlexID           string     `json:"plex_id"`
	PlexLibrary      string     `json:"plex_library"`
	LastScanned      string     `json:"last_scanned"`
	AddedAt          string     `json:"added_at"`
	IssueCount       int        `json:"issue_count"`
	UnresolvedIssues int        `json:"unresolved_issues"`
	Issues           []MediaIssue `json:"issues,omitempty"`
}

// DisplayTitle returns the title with series context for episodes.
func (m MediaFile) DisplayTitle() string {
	if m.MediaType == MediaTypeEpisode && m.SeriesTitle != "" {
		return m.SeriesTitle + " — " + m.Title
	}
	return m.Title
}

// FirstUnresolvedIssue returns the first unresolved issue, or nil.
func (m MediaFile) FirstUnresolvedIssue() *MediaIssue {
	for i := range m.Issues {
		if !m.Issues[i].Resolved {
			return &m.Issues[i]
		}
	}
	return nil
}

// MediaIssue is a detected segment (bumper or channel logo) in a file.
type MediaIssue struct {
	ID               int       `json:"id"`
	MediaFileID      int       `json:"media_file_id"`
	IssueType        IssueType `json:"issue_type"`
	StartSeconds     float64   `json:"start_seconds"`
	EndSeconds       float64   `json:"end_seconds"`
	Duration         float64   `json:"duration"`
	Confidence       float64   `json:"confidence"`
	Description      string    `json:"description"`
	Resolved         bool      `json:"resolved"`
	ResolvedAt       string    `json:"resolved_at"`
	ResolutionMethod string    `json:"resolution_method"`
	CreatedAt        string    `json:"created_at"`
}

// MediaPage is one page of the media listing.
type MediaPage struct {
	Total int         `json:"total"`
	Items []MediaFile `json:"items"`
}

// LibraryStats is the aggregate dashboard view of the library.
type LibraryStats struct {
	TotalFiles       int `json:"total_files"`
	ScannedFiles     int `json:"scanned_files"`
	UnscannedFiles   int `json:"unscanned_files"`
	TotalIssues      int `json:"total_issues"`
	UnresolvedIssues int `json:"unresolved_issues"`
	BumpersFound     int `json:"bumpers_found"`
	LogosFound       int `json:"logos_found"`
	FilesWithIssues  int `json:"files_with_issues"`
	CleanFiles       int `json:"clean_files"`
}

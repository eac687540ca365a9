package discogs

// Discogs API response types.

// SearchResponse is the top-level response from the search endpoint.
type SearchResponse struct {
	Results    []SearchResult `json:"results"`
	Pagination Pagination     `json:"pagination"`
}

// SearchResult represents a single search hit. For releases Title is
// "Artist - Title".
type SearchResult struct {
	ID          int      `json:"id"`
	Title       string   `json:"title"`
	Type        string   `json:"type"`
	Year        string   `json:"year"`
	Country     string   `json:"country"`
	CatNo       string   `json:"catno"`
	Format      []string `json:"format"`
	Label       []string `json:"label"`
	MasterID    int      `json:"master_id"`
	ResourceURL string   `json:"resource_url"`
}

// Pagination holds pagination info.
type Pagination struct {
	Page    int `json:"page"`
	Pages   int `json:"pages"`
	PerPage int `json:"per_page"`
	Items   int `json:"items"`
}

// Release is the full release response from Discogs.
type Release struct {
	ID          int         `json:"id"`
	Title       string      `json:"title"`
	ArtistsSort string      `json:"artists_sort"`
	Artists     []ArtistRef `json:"artists"`
	Year        int         `json:"year"`
	Country     string      `json:"country"`
	Formats     []Format    `json:"formats"`
	ResourceURL string      `json:"resource_url"`
	URI         string      `json:"uri"`
}

// ArtistRef is a reference to an artist credited on a release.
type ArtistRef struct {
	ID          int    `json:"id"`
	Name        string `json:"name"`
	ResourceURL string `json:"resource_url"`
}

// Format describes one physical format of a release.
type Format struct {
	Name         string   `json:"name"`
	Qty          string   `json:"qty"`
	Descriptions []string `json:"descriptions"`
}

// Identity is the response from the OAuth identity endpoint.
type Identity struct {
	ID           int    `json:"id"`
	Username     string `json:"username"`
	ResourceURL  string `json:"resource_url"`
	ConsumerName string `json:"consumer_name"`
}

// apiError is the body Discogs returns with 4xx responses.
type apiError struct {
	Message string `json:"message"`
}

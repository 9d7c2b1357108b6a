package drive

import "testing"

func TestSearchOptions_ApplyDefaults(t *testing.T) {
	tests := []struct {
		name      string
		opts      SearchOptions
		wantLimit int
		wantQuery string
	}{
		{
			name:      "zero limit gets default",
			opts:      SearchOptions{OwnerID: "u1", Query: "report"},
			wantLimit: DefaultSearchLimit,
			wantQuery: "report",
		},
		{
			name:      "explicit limit kept",
			opts:      SearchOptions{OwnerID: "u1", Query: "report", Limit: 10},
			wantLimit: 10,
			wantQuery: "report",
		},
		{
			name:      "query trimmed",
			opts:      SearchOptions{OwnerID: "u1", Query: "  notes  "},
			wantLimit: DefaultSearchLimit,
			wantQuery: "notes",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.opts.ApplyDefaults()
			if tt.opts.Limit != tt.wantLimit {
				t.Errorf("Limit = %d, want %d", tt.opts.Limit, tt.wantLimit)
			}
			if tt.opts.Query != tt.wantQuery {
				t.Errorf("Query = %q, want %q", tt.opts.Query, tt.wantQuery)
			}
		})
	}
}

func TestSearchOptions_Validate(t *testing.T) {
	tests := []struct {
		name    string
		opts    SearchOptions
		wantErr bool
	}{
		{"valid", SearchOptions{OwnerID: "u1", Query: "a", Limit: 5}, false},
		{"missing owner", SearchOptions{Query: "a", Limit: 5}, true},
		{"empty query", SearchOptions{OwnerID: "u1", Limit: 5}, true},
		{"negative limit", SearchOptions{OwnerID: "u1", Query: "a", Limit: -1}, true},
		{"limit too large", SearchOptions{OwnerID: "u1", Query: "a", Limit: MaxSearchLimit + 1}, true},
		{"limit at max", SearchOptions{OwnerID: "u1", Query: "a", Limit: MaxSearchLimit}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.opts.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestFolderPaths(t *testing.T) {
	root := &Folder{Name: "Docs", Path: RootPath("Docs")}
	if root.Path != "/Docs/" {
		t.Errorf("RootPath = %q, want %q", root.Path, "/Docs/")
	}
	if got := root.ChildPath("Projects"); got != "/Docs/Projects/" {
		t.Errorf("ChildPath = %q, want %q", got, "/Docs/Projects/")
	}
}

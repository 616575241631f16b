package provider

import "testing"

func TestOpenModeValid(t *testing.T) {
	tests := []struct {
		mode OpenMode
		want bool
	}{
		{0, false},
		{OpenRead, true},
		{OpenWrite, true},
		{OpenRead | OpenWrite | OpenAllowAppend, true},
		{OpenAllowAppend, false},
		{OpenRead | 1<<5, false},
	}

	for _, tt := range tests {
		if got := tt.mode.Valid(); got != tt.want {
			t.Errorf("OpenMode(%#x).Valid() = %v, want %v", uint32(tt.mode), got, tt.want)
		}
	}
}

func TestDirectoryFilterIncludes(t *testing.T) {
	tests := []struct {
		name   string
		filter DirectoryFilter
		dirs   bool
		files  bool
	}{
		{"none", 0, false, false},
		{"directories", FilterDirectories, true, false},
		{"files", FilterFiles, false, true},
		{"all", FilterAll, true, true},
		{"all without sizes", FilterAll | FilterNoFileSize, true, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.filter.Includes(EntryDirectory); got != tt.dirs {
				t.Errorf("Includes(directory) = %v, want %v", got, tt.dirs)
			}
			if got := tt.filter.Includes(EntryFile); got != tt.files {
				t.Errorf("Includes(file) = %v, want %v", got, tt.files)
			}
			if tt.filter.Includes(EntryType(7)) {
				t.Error("unknown entry type must never pass")
			}
		})
	}
}

func TestEntryTypeString(t *testing.T) {
	if EntryDirectory.String() != "directory" || EntryFile.String() != "file" {
		t.Errorf("got %q %q", EntryDirectory, EntryFile)
	}
	if EntryType(9).String() != "unknown" {
		t.Errorf("got %q", EntryType(9))
	}
}

package objectstore

import (
	"errors"
	"slices"
	"testing"
)

func TestJoinPath(t *testing.T) {
	tests := []struct {
		p     string
		paths []string
		want  string
	}{
		{"s3://bucket", []string{"key"}, "s3://bucket/key"},
		{"s3://bucket/", []string{"key"}, "s3://bucket/key"},
		{"s3://bucket/", []string{"/key"}, "s3://bucket/key"},
		{"s3://bucket", []string{"/key"}, "s3://bucket/key"},
		{"s3://bucket", []string{"a/", "b"}, "s3://bucket/a/b"},
		{"s3://bucket", []string{""}, "s3://bucket"},
		{"s3://bucket/", []string{""}, "s3://bucket/"},
		{"", []string{"a", "b"}, "a/b"},
		{"a", []string{"b/", ""}, "a/b/"},
		{"a//", []string{"//b"}, "a//b"},
	}

	for _, tt := range tests {
		if got := JoinPath("/", tt.p, tt.paths...); got != tt.want {
			t.Errorf("JoinPath(%q, %q) = %q, want %q", tt.p, tt.paths, got, tt.want)
		}
	}
}

func TestDirPrefix(t *testing.T) {
	tests := map[string]string{
		"":       "",
		"a":      "a/",
		"a/":     "a/",
		"a/b/c":  "a/b/c/",
		"a/b/c/": "a/b/c/",
	}

	for path, want := range tests {
		if got := DirPrefix(path, "/"); got != want {
			t.Errorf("DirPrefix(%q) = %q, want %q", path, got, want)
		}
	}
}

func TestSplitURI(t *testing.T) {
	tests := []struct {
		path   string
		bucket string
		key    string
		err    bool
	}{
		{"s3://bucket/key", "bucket", "key", false},
		{"s3://bucket/a/b/c", "bucket", "a/b/c", false},
		{"s3://bucket/", "bucket", "", false},
		{"s3://bucket", "bucket", "", false},
		{"s3:///key", "", "", true},
		{"s3://", "", "", true},
		{"gs://bucket/key", "", "", true},
		{"/tmp/file", "", "", true},
	}

	for _, tt := range tests {
		bucket, key, err := SplitURI("s3", tt.path)
		if tt.err {
			if !errors.Is(err, ErrInvalidPath) {
				t.Errorf("SplitURI(%q) error = %v, want ErrInvalidPath", tt.path, err)
			}
			continue
		}

		if err != nil {
			t.Errorf("SplitURI(%q) failed: %v", tt.path, err)
			continue
		}
		if bucket != tt.bucket || key != tt.key {
			t.Errorf("SplitURI(%q) = (%q, %q), want (%q, %q)", tt.path, bucket, key, tt.bucket, tt.key)
		}
	}
}

func TestGroupChildren(t *testing.T) {
	keys := []string{
		"root/",
		"root/_lala",
		"root/folder/_lala",
		"root/folder/subfolder/wee.txt",
		"root/wee.txt",
		"other/file",
	}

	got := GroupChildren(keys, "root/", "/")
	want := []string{"root/_lala", "root/folder", "root/wee.txt"}
	if !slices.Equal(got, want) {
		t.Errorf("GroupChildren = %q, want %q", got, want)
	}

	got = GroupChildren(keys, "", "/")
	want = []string{"other", "root"}
	if !slices.Equal(got, want) {
		t.Errorf("GroupChildren at top level = %q, want %q", got, want)
	}
}

func TestSortedUnique(t *testing.T) {
	got := SortedUnique([]string{"b", "a", "c", "a", "b"})
	if !slices.Equal(got, []string{"a", "b", "c"}) {
		t.Errorf("SortedUnique = %q", got)
	}
}

func TestCheckRecursiveRemove(t *testing.T) {
	for _, path := range []string{"", "/", "/tmp", "s3:/", "C:\\"} {
		if err := CheckRecursiveRemove(path); !errors.Is(err, ErrUnsupportedOperation) {
			t.Errorf("CheckRecursiveRemove(%q) = %v, want ErrUnsupportedOperation", path, err)
		}
	}

	for _, path := range []string{"/tmp/", "s3://b", "/home/user/data"} {
		if err := CheckRecursiveRemove(path); err != nil {
			t.Errorf("CheckRecursiveRemove(%q) = %v, want nil", path, err)
		}
	}
}

package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDirectoryStatus_Counts(t *testing.T) {
	status := DirectoryStatus{
		Changed:   []Path{"/a/main.c.obj"},
		New:       []Path{"/a/new.txt", "/a/other.txt"},
		Unchanged: []Path{"/a/keep.txt"},
	}

	assert.Equal(t, StatusCounts{Changed: 1, New: 2, Deleted: 0, Unchanged: 1}, status.Counts())
	assert.True(t, status.Touched())
	assert.Equal(t, []string{"main.c.obj"}, status.ChangedNames())
}

func TestDirectoryStatus_Untouched(t *testing.T) {
	status := DirectoryStatus{Unchanged: []Path{"/a/keep.txt"}}
	assert.False(t, status.Touched())
	assert.Empty(t, status.ChangedNames())
}

func TestDirectorySnapshot_CloneAndStamps(t *testing.T) {
	snapshot := DirectorySnapshot{"/b": 2, "/a": 1}
	clone := snapshot.Clone()
	clone["/c"] = 3

	assert.Len(t, snapshot, 2)
	assert.Equal(t, []FileStamp{{Path: "/a", ModTime: 1}, {Path: "/b", ModTime: 2}}, snapshot.Stamps())
}

package model

import "path/filepath"

// Path represents a file system path.
type Path string

func (p Path) String() string {
	return string(p)
}

// Base returns the last element of the path.
func (p Path) Base() string {
	return filepath.Base(string(p))
}

// Join appends elements to the path.
func (p Path) Join(elem ...string) Path {
	return Path(filepath.Join(append([]string{string(p)}, elem...)...))
}

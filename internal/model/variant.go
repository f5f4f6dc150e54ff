// Package model defines the data structures shared by the build driver,
// the artifact packager and the directory change tracker.
package model

import (
	"path/filepath"
	"sort"
	"strings"
)

// Variant names a product configuration. It is only ever used as a path
// segment; a "/" inside the name yields nested directories.
type Variant string

// ParseVariant trims surrounding whitespace and converts backslashes so that
// "Bla\Blub" and "Bla/Blub" name the same variant.
func ParseVariant(s string) Variant {
	return Variant(strings.ReplaceAll(strings.TrimSpace(s), `\`, "/"))
}

// VariantFromSuiteName maps a verification suite name such as
// "Test_Other__Variant" to the variant "Other/Variant".
func VariantFromSuiteName(name string) Variant {
	name = strings.TrimPrefix(name, "Test_")
	return Variant(strings.ReplaceAll(name, "__", "/"))
}

func (v Variant) String() string {
	return string(v)
}

// Less reports whether v sorts before other (lexicographic).
func (v Variant) Less(other Variant) bool {
	return v < other
}

// SortVariants sorts variants in place and returns the slice.
func SortVariants(variants []Variant) []Variant {
	sort.Slice(variants, func(i, j int) bool {
		return variants[i].Less(variants[j])
	})

	return variants
}

// BuildKit selects a build profile. Validity is defined by the build script.
type BuildKit string

// Build kits used by the verification suite.
const (
	KitProd BuildKit = "prod"
	KitTest BuildKit = "test"
)

func (k BuildKit) String() string {
	return string(k)
}

// BuildDirName is the top-level directory the build script writes into.
const BuildDirName = "build"

// BuildDir returns root/build/<variant>/<kit>. The mapping is pure.
func BuildDir(root Path, variant Variant, kit BuildKit) Path {
	return Path(filepath.Join(string(root), BuildDirName, filepath.FromSlash(string(variant)), string(kit)))
}

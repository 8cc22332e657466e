package mergeme

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type settings struct {
	Name  string
	Tags  []string
	Attrs map[string]string
}

type partialSettings struct {
	Name  *string
	Tags  *[]string
	Attrs *map[string]string
}

func (s *settings) MergeInPlace(partial partialSettings) {
	if partial.Name != nil {
		s.Name = *partial.Name
	}
	if partial.Tags != nil {
		s.Tags = Append(s.Tags, *partial.Tags)
	}
	if partial.Attrs != nil {
		s.Attrs = Union(s.Attrs, *partial.Attrs)
	}
}

func (s settings) Merge(partial partialSettings) settings {
	s.MergeInPlace(partial)
	return s
}

var (
	_ Merger[partialSettings, settings] = settings{}
	_ InPlaceMerger[partialSettings]    = (*settings)(nil)
)

func TestAppend(t *testing.T) {
	tests := []struct {
		name     string
		dst      []string
		src      []string
		expected []string
	}{
		{name: "both populated", dst: []string{"a", "b"}, src: []string{"b", "c"}, expected: []string{"a", "b", "b", "c"}},
		{name: "nil dst", dst: nil, src: []string{"x"}, expected: []string{"x"}},
		{name: "empty src keeps dst", dst: []string{"a"}, src: nil, expected: []string{"a"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Append(tt.dst, tt.src))
		})
	}
}

func TestAppendDoesNotShareBackingArray(t *testing.T) {
	dst := make([]int, 2, 10)
	dst[0], dst[1] = 1, 2

	out := Append(dst, []int{3})
	out[0] = 99

	assert.Equal(t, []int{1, 2}, dst)
	assert.Equal(t, 0, dst[:3][2], "spare capacity of dst must not be written")
}

func TestAppendNamedSliceType(t *testing.T) {
	type names []string
	out := Append(names{"a"}, names{"b"})
	assert.IsType(t, names{}, out)
	assert.Equal(t, names{"a", "b"}, out)
}

func TestUnion(t *testing.T) {
	dst := map[string]int{"a": 1, "b": 2}
	out := Union(dst, map[string]int{"b": 20, "c": 3})

	assert.Equal(t, map[string]int{"a": 1, "b": 20, "c": 3}, out)
	assert.Equal(t, map[string]int{"a": 1, "b": 2}, dst, "dst must not be modified")

	assert.Nil(t, Union[map[string]int](nil, nil))
}

func TestMergeLeavesOriginalUntouched(t *testing.T) {
	original := settings{
		Name:  "base",
		Tags:  make([]string, 1, 8),
		Attrs: map[string]string{"k": "v"},
	}
	original.Tags[0] = "one"

	merged := original.Merge(partialSettings{
		Name:  Some("next"),
		Tags:  Some([]string{"two"}),
		Attrs: Some(map[string]string{"k": "w"}),
	})

	assert.Equal(t, "next", merged.Name)
	assert.Equal(t, []string{"one", "two"}, merged.Tags)
	assert.Equal(t, map[string]string{"k": "w"}, merged.Attrs)

	assert.Equal(t, "base", original.Name)
	assert.Equal(t, []string{"one"}, original.Tags)
	assert.Equal(t, map[string]string{"k": "v"}, original.Attrs)
}

func TestMergeEmptyPartialIsIdentity(t *testing.T) {
	original := settings{Name: "x", Tags: []string{"a"}}
	assert.Equal(t, original, original.Merge(partialSettings{}))
}

func TestFold(t *testing.T) {
	base := settings{Name: "base"}
	result := Fold(base,
		partialSettings{Tags: Some([]string{"a"})},
		partialSettings{Name: Some("second")},
		partialSettings{Tags: Some([]string{"b"})},
	)

	require.Equal(t, "second", result.Name)
	assert.Equal(t, []string{"a", "b"}, result.Tags)
	assert.Equal(t, "base", base.Name)
	assert.Nil(t, base.Tags)
}

func TestValueOr(t *testing.T) {
	assert.Equal(t, 5, ValueOr(nil, 5))
	assert.Equal(t, 7, ValueOr(Some(7), 5))
}

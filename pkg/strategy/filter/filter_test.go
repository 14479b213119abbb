package filter_test

import (
	"testing"

	"github.com/m-mizutani/gt"
	"github.com/m-mizutani/herald/pkg/domain/model"
	"github.com/m-mizutani/herald/pkg/strategy/filter"
)

func TestPath_Accept(t *testing.T) {
	tests := []struct {
		name          string
		pattern       string
		caseSensitive bool
		mod           *model.Modification
		expected      bool
	}{
		{"prefix with double star", "/src/**", false, &model.Modification{FolderName: "/src", FileName: "a.cs"}, true},
		{"double star across segments", "/src/**", false, &model.Modification{FolderName: "/src/pkg/x", FileName: "a.cs"}, true},
		{"other folder", "/src/**", false, &model.Modification{FolderName: "/docs", FileName: "b.md"}, false},
		{"leading slash ignored on path", "/src/**", false, &model.Modification{FolderName: "src", FileName: "a.cs"}, true},
		{"single star stays in segment", "src/*.go", false, &model.Modification{FolderName: "src/pkg", FileName: "a.go"}, false},
		{"single star match", "src/*.go", false, &model.Modification{FolderName: "src", FileName: "a.go"}, true},
		{"double star slash matches zero dirs", "**/*.go", false, &model.Modification{FileName: "main.go"}, true},
		{"question mark", "v?.txt", false, &model.Modification{FileName: "v1.txt"}, true},
		{"case insensitive by default", "SRC/**", false, &model.Modification{FolderName: "src", FileName: "a.go"}, true},
		{"case sensitive", "SRC/**", true, &model.Modification{FolderName: "src", FileName: "a.go"}, false},
		{"regex meta quoted", "a+b/*.go", false, &model.Modification{FolderName: "a+b", FileName: "x.go"}, true},
		{"double star in the middle", "src/**/test/*.go", false, &model.Modification{FolderName: "src/a/b/test", FileName: "x.go"}, true},
		{"brace alternation", "docs/*.{md,txt}", false, &model.Modification{FolderName: "docs", FileName: "a.txt"}, true},
		{"backslash folder", "src/**", false, &model.Modification{FolderName: "src\\win", FileName: "a.go"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, err := filter.NewPath(tt.pattern, tt.caseSensitive)
			gt.NoError(t, err)
			ok, err := f.Accept(tt.mod)
			gt.NoError(t, err)
			gt.Value(t, ok).Equal(tt.expected)
		})
	}

	t.Run("empty pattern is rejected", func(t *testing.T) {
		_, err := filter.NewPath("", false)
		gt.Error(t, err)
	})

	t.Run("malformed pattern is rejected", func(t *testing.T) {
		_, err := filter.NewPath("src/[", false)
		gt.Error(t, err)
	})

	t.Run("nil modification is an error", func(t *testing.T) {
		f, err := filter.NewPath("**", false)
		gt.NoError(t, err)
		_, err = f.Accept(nil)
		gt.Error(t, err)
	})
}

func TestUser_Accept(t *testing.T) {
	f := filter.NewUser("bot", "release-bot")

	ok, err := f.Accept(&model.Modification{UserName: "bot"})
	gt.NoError(t, err)
	gt.True(t, ok)

	ok, err = f.Accept(&model.Modification{UserName: "alice"})
	gt.NoError(t, err)
	gt.False(t, ok)
}

func TestAction_Accept(t *testing.T) {
	f := filter.NewAction("Deleted")

	ok, err := f.Accept(&model.Modification{Type: model.ModificationDeleted})
	gt.NoError(t, err)
	gt.True(t, ok)

	ok, err = f.Accept(&model.Modification{Type: model.ModificationAdded})
	gt.NoError(t, err)
	gt.False(t, ok)
}

func TestComment_Accept(t *testing.T) {
	f, err := filter.NewComment(`\[skip ci\]`)
	gt.NoError(t, err)

	ok, err := f.Accept(&model.Modification{Comment: "docs: typo [skip ci]"})
	gt.NoError(t, err)
	gt.True(t, ok)

	ok, err = f.Accept(&model.Modification{Comment: "fix: handle nil"})
	gt.NoError(t, err)
	gt.False(t, ok)

	_, err = filter.NewComment("(")
	gt.Error(t, err)
}

func TestExtension_Accept(t *testing.T) {
	f := filter.NewExtension(".md", "TXT")

	tests := []struct {
		file     string
		expected bool
	}{
		{"README.md", true},
		{"notes.txt", true},
		{"main.go", false},
		{"Makefile", false},
	}
	for _, tt := range tests {
		t.Run(tt.file, func(t *testing.T) {
			ok, err := f.Accept(&model.Modification{FileName: tt.file})
			gt.NoError(t, err)
			gt.Value(t, ok).Equal(tt.expected)
		})
	}
}

func TestNew(t *testing.T) {
	t.Run("builds every known type", func(t *testing.T) {
		cfgs := []model.FilterConfig{
			{Type: model.FilterTypePath, Pattern: "src/**"},
			{Type: model.FilterTypeUser, Names: []string{"bot"}},
			{Type: model.FilterTypeAction, Actions: []string{"deleted"}},
			{Type: model.FilterTypeComment, Pattern: "wip"},
			{Type: model.FilterTypeExtension, Extensions: []string{"md"}},
		}
		filters, err := filter.NewAll(cfgs)
		gt.NoError(t, err)
		gt.Equal(t, len(filters), len(cfgs))
	})

	t.Run("unknown type", func(t *testing.T) {
		_, err := filter.New(model.FilterConfig{Type: "magic"})
		gt.Error(t, err)
	})

	t.Run("error in list", func(t *testing.T) {
		_, err := filter.NewAll([]model.FilterConfig{
			{Type: model.FilterTypePath, Pattern: "src/**"},
			{Type: model.FilterTypeComment, Pattern: "("},
		})
		gt.Error(t, err)
	})
}

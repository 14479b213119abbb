package github_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/google/go-github/v75/github"
	"github.com/m-mizutani/gt"
	"github.com/m-mizutani/herald/pkg/domain/model"
	githubinfra "github.com/m-mizutani/herald/pkg/infra/github"
)

func newTestClient(t *testing.T, handler http.Handler) *github.Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client := github.NewClient(nil)
	base, err := url.Parse(server.URL + "/")
	gt.NoError(t, err)
	client.BaseURL = base
	return client
}

func writeJSON(t *testing.T, w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	gt.NoError(t, json.NewEncoder(w).Encode(v))
}

func TestSource_GetModifications(t *testing.T) {
	date := github.Timestamp{Time: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
	var listQuery url.Values

	mux := http.NewServeMux()
	mux.HandleFunc("GET /repos/example/web/commits", func(w http.ResponseWriter, r *http.Request) {
		listQuery = r.URL.Query()
		writeJSON(t, w, []*github.RepositoryCommit{{SHA: github.Ptr("abc123")}})
	})
	mux.HandleFunc("GET /repos/example/web/commits/abc123", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, &github.RepositoryCommit{
			SHA:     github.Ptr("abc123"),
			HTMLURL: github.Ptr("https://github.com/example/web/commit/abc123"),
			Author:  &github.User{Login: github.Ptr("alice")},
			Commit: &github.Commit{
				Message: github.Ptr("fix parser\n"),
				Author: &github.CommitAuthor{
					Name:  github.Ptr("Alice"),
					Email: github.Ptr("alice@example.com"),
					Date:  &date,
				},
			},
			Files: []*github.CommitFile{
				{Filename: github.Ptr("src/parser.go"), Status: github.Ptr("modified")},
				{Filename: github.Ptr("src/lexer.go"), Status: github.Ptr("added")},
				{Filename: github.Ptr("old.go"), Status: github.Ptr("removed")},
				{Filename: github.Ptr("src/new.go"), Status: github.Ptr("renamed"), PreviousFilename: github.Ptr("src/old.go")},
			},
		})
	})

	src, err := githubinfra.New(newTestClient(t, mux), "example/web", "main")
	gt.NoError(t, err)

	from := &model.IntegrationResult{StartTime: date.Add(-time.Hour)}
	to := &model.IntegrationResult{StartTime: date.Add(time.Hour)}
	mods, err := src.GetModifications(context.Background(), from, to)
	gt.NoError(t, err)

	gt.Equal(t, listQuery.Get("sha"), "main")
	gt.String(t, listQuery.Get("since")).Contains("2026-03-01T11:00:00")
	gt.String(t, listQuery.Get("until")).Contains("2026-03-01T13:00:00")

	gt.Equal(t, len(mods), 4)
	gt.Equal(t, mods[0].Type, model.ModificationModified)
	gt.Equal(t, mods[0].FolderName, "src")
	gt.Equal(t, mods[0].FileName, "parser.go")
	gt.Equal(t, mods[0].UserName, "alice")
	gt.Equal(t, mods[0].EmailAddress, "alice@example.com")
	gt.Equal(t, mods[0].Comment, "fix parser")
	gt.Equal(t, mods[0].ChangeNumber, "abc123")
	gt.Equal(t, mods[0].URL, "https://github.com/example/web/commit/abc123")
	gt.True(t, mods[0].ModifiedTime.Equal(date.Time))
	gt.Equal(t, mods[1].Type, model.ModificationAdded)
	gt.Equal(t, mods[2].Type, model.ModificationDeleted)
	gt.Equal(t, mods[2].FolderName, "")
	gt.Equal(t, mods[3].Type, model.ModificationRenamed)
}

func TestSource_GetModifications_Error(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /repos/example/web/commits", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"message":"Not Found"}`, http.StatusNotFound)
	})

	src, err := githubinfra.New(newTestClient(t, mux), "example/web", "")
	gt.NoError(t, err)

	_, err = src.GetModifications(context.Background(), nil, nil)
	gt.Error(t, err)
}

func TestSource_Initialize(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /repos/example/web", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, &github.Repository{
			FullName:      github.Ptr("example/web"),
			DefaultBranch: github.Ptr("main"),
		})
	})

	src, err := githubinfra.New(newTestClient(t, mux), "example/web", "")
	gt.NoError(t, err)
	gt.NoError(t, src.Initialize(context.Background(), &model.ProjectInfo{Name: "web"}))

	missing, err := githubinfra.New(newTestClient(t, http.NotFoundHandler()), "example/none", "")
	gt.NoError(t, err)
	gt.Error(t, missing.Initialize(context.Background(), &model.ProjectInfo{Name: "none"}))
}

func TestNew_InvalidRepository(t *testing.T) {
	for _, repo := range []string{"", "web", "/web", "example/", "a/b/c"} {
		_, err := githubinfra.New(nil, repo, "")
		gt.Error(t, err)
	}
}

func TestSource_ApplyParameters(t *testing.T) {
	src, err := githubinfra.New(nil, "example/web", "main")
	gt.NoError(t, err)

	src.ApplyParameters(map[string]string{githubinfra.ParamBranch: "release"}, nil)
	gt.Equal(t, src.Branch(), "release")

	src.ApplyParameters(nil, []model.ParameterDefinition{{Name: githubinfra.ParamBranch, Default: "main"}})
	gt.Equal(t, src.Branch(), "main")

	src.ApplyParameters(nil, nil)
	gt.Equal(t, src.Branch(), "main")
}

func TestNewAppClient_InvalidKey(t *testing.T) {
	_, err := githubinfra.NewAppClient(1, 2, []byte("not a key"))
	gt.Error(t, err)
}

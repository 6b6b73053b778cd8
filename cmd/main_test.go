package main

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/fieldops/techrank/internal/adapters/repository"
	"github.com/fieldops/techrank/internal/config"
	"github.com/fieldops/techrank/internal/domain/ranking"
	"github.com/fieldops/techrank/pkg/logger"
	"github.com/smartystreets/goconvey/convey"
)

func init() {
	if err := logger.Init(); err != nil {
		panic(err)
	}
}

// isolate keeps developer .env files and shell settings out of the tests.
func isolate(t *testing.T) {
	t.Helper()
	t.Setenv(config.EnvDotenv, filepath.Join(t.TempDir(), "missing.env"))
	t.Setenv(config.EnvConfigFile, "")
	t.Setenv(config.EnvAPIKey, "")
	for _, k := range []string{"TECHRANK_ADDR", "TECHRANK_DATA_PATH", "TECHRANK_DATA_FORMAT"} {
		t.Setenv(k, "")
		_ = os.Unsetenv(k)
	}
}

func run(ctx context.Context, args ...string) (string, error) {
	var buf bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&buf)
	cmd.SetErr(io.Discard)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(ctx)
	return buf.String(), err
}

func TestGenerateAndRank(t *testing.T) {
	convey.Convey("Given the CLI", t, func() {
		isolate(t)
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		dir := t.TempDir()

		convey.Convey("When generating a JSON dataset", func() {
			path := filepath.Join(dir, "nested", "data.json")
			_, err := run(ctx, "generate", "--technicians", "12", "--days", "30", "--out", path)
			convey.So(err, convey.ShouldBeNil)

			convey.Convey("Then it loads into the record store", func() {
				store, err := repository.Load(ctx, path, repository.FormatJSON)
				convey.So(err, convey.ShouldBeNil)
				techs, _ := store.Count(ctx)
				convey.So(techs, convey.ShouldEqual, 12)
			})

			convey.Convey("And rank prints a limited table", func() {
				out, err := run(ctx, "rank", "--data", path, "--limit", "3", "--meta")
				convey.So(err, convey.ShouldBeNil)
				lines := strings.Split(strings.TrimSpace(out), "\n")
				convey.So(lines[0], convey.ShouldStartWith, "RANK")
				convey.So(lines[0], convey.ShouldContainSubstring, "performanceScore")
				convey.So(lines[1], convey.ShouldStartWith, "1 ")
				convey.So(lines[3], convey.ShouldStartWith, "3 ")
				convey.So(out, convey.ShouldContainSubstring, "sortBy=performanceScore order=desc")
			})

			convey.Convey("And rank accepts filters and ascending order", func() {
				out, err := run(ctx, "rank", "--data", path,
					"--sort-by", "avgCompletionTimeMinutes", "--order", "asc",
					"--date-from", "2024-01-08", "--date-to", "2024-01-21")
				convey.So(err, convey.ShouldBeNil)
				convey.So(out, convey.ShouldContainSubstring, "avgCompletionTimeMinutes")
			})

			convey.Convey("And an unknown sort key is rejected", func() {
				_, err := run(ctx, "rank", "--data", path, "--sort-by", "name")
				convey.So(errors.Is(err, ranking.ErrInvalidSortKey), convey.ShouldBeTrue)
			})
		})

		convey.Convey("When generating a SQLite dataset", func() {
			path := filepath.Join(dir, "data.db")
			_, err := run(ctx, "generate", "--technicians", "8", "--days", "20", "--out", path)
			convey.So(err, convey.ShouldBeNil)

			convey.Convey("Then rank reads it back", func() {
				out, err := run(ctx, "rank", "--data", path, "--format", "sqlite")
				convey.So(err, convey.ShouldBeNil)
				convey.So(out, convey.ShouldStartWith, "RANK")
			})

			convey.Convey("And regenerating replaces the file", func() {
				_, err := run(ctx, "generate", "--technicians", "4", "--days", "20", "--out", path)
				convey.So(err, convey.ShouldBeNil)
				store, err := repository.Load(ctx, path, repository.FormatSQLite)
				convey.So(err, convey.ShouldBeNil)
				techs, _ := store.Count(ctx)
				convey.So(techs, convey.ShouldEqual, 4)
			})
		})

		convey.Convey("When generating to stdout", func() {
			out, err := run(ctx, "generate", "--technicians", "3", "--days", "10")
			convey.So(err, convey.ShouldBeNil)

			convey.Convey("Then the output is a JSON dataset", func() {
				ds, err := repository.ReadJSON(strings.NewReader(out))
				convey.So(err, convey.ShouldBeNil)
				convey.So(len(ds.Technicians), convey.ShouldEqual, 3)
			})
		})

		convey.Convey("When the start day is malformed", func() {
			_, err := run(ctx, "generate", "--start", "01/01/2024")
			convey.So(err, convey.ShouldNotBeNil)
		})

		convey.Convey("When the dataset is missing", func() {
			_, err := run(ctx, "rank", "--data", filepath.Join(dir, "nope.json"))
			convey.So(errors.Is(err, repository.ErrLoad), convey.ShouldBeTrue)
		})

		convey.Convey("When the format flag is unknown", func() {
			_, err := run(ctx, "rank", "--format", "csv")
			convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
		})
	})
}

func TestOutputFormat(t *testing.T) {
	convey.Convey("Given output paths", t, func() {
		convey.So(outputFormat("", "a/b.json"), convey.ShouldEqual, repository.FormatJSON)
		convey.So(outputFormat("", "a/b.db"), convey.ShouldEqual, repository.FormatSQLite)
		convey.So(outputFormat("", "a/b.SQLITE"), convey.ShouldEqual, repository.FormatSQLite)
		convey.So(outputFormat("SQLite", "a/b.json"), convey.ShouldEqual, repository.FormatSQLite)
	})
}

func TestRunServe(t *testing.T) {
	convey.Convey("Given a generated dataset", t, func() {
		isolate(t)
		path := filepath.Join(t.TempDir(), "data.json")
		_, err := run(context.Background(), "generate", "--technicians", "10", "--days", "30", "--out", path)
		convey.So(err, convey.ShouldBeNil)

		cfg := config.New(context.Background())
		cfg.DataPath = path
		cfg.Addr = "127.0.0.1:0"

		convey.Convey("When the server runs", func() {
			ctx, cancel := context.WithCancel(context.Background())
			ready := make(chan string, 1)
			done := make(chan error, 1)
			go func() { done <- runServe(ctx, cfg, logger.Get(), ready) }()

			var addr string
			select {
			case addr = <-ready:
			case err := <-done:
				t.Fatalf("server exited early: %v", err)
			case <-time.After(10 * time.Second):
				t.Fatal("server did not start")
			}

			get := func(p string) int {
				resp, err := http.Get("http://" + addr + p)
				convey.So(err, convey.ShouldBeNil)
				defer func() { _ = resp.Body.Close() }()
				_, _ = io.Copy(io.Discard, resp.Body)
				return resp.StatusCode
			}

			convey.Convey("Then every surface answers", func() {
				convey.So(get("/api/summary"), convey.ShouldEqual, http.StatusOK)
				convey.So(get("/api/rankings?sortBy=jobsPerWeek"), convey.ShouldEqual, http.StatusOK)
				convey.So(get("/healthz"), convey.ShouldEqual, http.StatusOK)
				convey.So(get("/api-docs"), convey.ShouldEqual, http.StatusOK)
				convey.So(get("/openapi.yaml"), convey.ShouldEqual, http.StatusOK)
				convey.So(get("/api/technicians/nope"), convey.ShouldEqual, http.StatusNotFound)
			})

			convey.Convey("And verify finds no mismatches", func() {
				out, err := run(ctx, "verify", "--data", path, "--url", "http://"+addr, "--workers", "2")
				convey.So(err, convey.ShouldBeNil)
				convey.So(out, convey.ShouldContainSubstring, "checked 12 rankings")
				convey.So(out, convey.ShouldContainSubstring, "all rankings match")
			})

			convey.Convey("And insights report the disabled generator", func() {
				store, err := repository.Load(ctx, path, repository.FormatJSON)
				convey.So(err, convey.ShouldBeNil)
				var id string
				for _, tech := range store.Technicians(ctx) {
					if tech.Active() {
						id = tech.NetworkID
						break
					}
				}
				convey.So(id, convey.ShouldNotBeEmpty)
				convey.So(get("/api/technicians/"+id+"/ai-insights"), convey.ShouldEqual, http.StatusServiceUnavailable)
				convey.So(get("/api/technicians/nope/ai-insights"), convey.ShouldEqual, http.StatusNotFound)
			})

			cancel()
			select {
			case err := <-done:
				convey.So(err, convey.ShouldBeNil)
			case <-time.After(10 * time.Second):
				t.Fatal("server did not stop")
			}
		})

		convey.Convey("When the dataset cannot be loaded", func() {
			cfg.DataPath = filepath.Join(t.TempDir(), "missing.json")
			err := runServe(context.Background(), cfg, logger.Get(), nil)

			convey.Convey("Then serve fails before listening", func() {
				convey.So(errors.Is(err, repository.ErrLoad), convey.ShouldBeTrue)
			})
		})
	})
}

func TestBuildGenerator(t *testing.T) {
	convey.Convey("Given insight configuration", t, func() {
		ctx := context.Background()
		cfg := config.New(ctx)

		convey.Convey("When no API key is set", func() {
			gen, closeGen := buildGenerator(ctx, cfg, logger.Get())
			defer closeGen()

			convey.Convey("Then insights are disabled", func() {
				convey.So(gen, convey.ShouldBeNil)
			})
		})

		convey.Convey("When a key is set but redis is unreachable", func() {
			cfg.Insight.APIKey = "sk-test"
			cfg.Redis.Addr = "127.0.0.1:1"
			gen, closeGen := buildGenerator(ctx, cfg, logger.Get())
			defer closeGen()

			convey.Convey("Then the generator still runs without a cache", func() {
				convey.So(gen, convey.ShouldNotBeNil)
			})
		})
	})
}

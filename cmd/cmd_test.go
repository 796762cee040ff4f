package cmd

import (
	"context"
	"log/slog"
	"strconv"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/spf13/cobra"

	"github.com/kozaktomas/lora-person/internal/backend"
	"github.com/kozaktomas/lora-person/internal/backend/mock"
	"github.com/kozaktomas/lora-person/internal/config"
)

func TestParseID(t *testing.T) {
	tests := []struct {
		arg     string
		want    int64
		wantErr bool
	}{
		{"12", 12, false},
		{"0", 0, true},
		{"-3", 0, true},
		{"abc", 0, true},
		{"", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.arg, func(t *testing.T) {
			got, err := parseID(tt.arg, "person")
			if (err != nil) != tt.wantErr {
				t.Fatalf("parseID(%q) error = %v, wantErr %v", tt.arg, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("parseID(%q) = %d, want %d", tt.arg, got, tt.want)
			}
		})
	}
}

func TestNewLogger_Levels(t *testing.T) {
	tests := []struct {
		level string
		want  slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"info", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"error", slog.LevelError},
		{"bogus", slog.LevelInfo},
	}

	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			logger := newLogger(config.LogConfig{Level: tt.level, Format: "json"})
			ctx := context.Background()
			if !logger.Enabled(ctx, tt.want) {
				t.Errorf("expected %s to be enabled", tt.want)
			}
			if tt.want > slog.LevelDebug && logger.Enabled(ctx, tt.want-4) {
				t.Errorf("expected levels below %s to be disabled", tt.want)
			}
		})
	}
}

func TestLoadConfig_FlagOverrides(t *testing.T) {
	t.Setenv("LORA_API_URL", "http://backend:8000/")
	t.Setenv("LORA_CAPTURE_DIR", "/tmp/env-capture")

	cfg := loadConfig()
	if cfg.API.URL != "http://backend:8000" {
		t.Errorf("expected trimmed env URL, got %q", cfg.API.URL)
	}

	apiURL, captureDir = "http://flag:9000", "/tmp/flag-capture"
	t.Cleanup(func() { apiURL, captureDir = "", "" })

	cfg = loadConfig()
	if cfg.API.URL != "http://flag:9000" || cfg.API.CaptureDir != "/tmp/flag-capture" {
		t.Errorf("expected flags to override the environment, got %+v", cfg.API)
	}
}

func TestPhotoCounts(t *testing.T) {
	srv := mock.New()
	defer srv.Close()

	var persons []backend.Person
	for i, n := range []int{0, 3, 30} {
		p := srv.AddPerson(string(rune('a'+i)), true, true)
		srv.AddPhotos(p.ID, n, backend.StatusUploaded)
		persons = append(persons, p)
	}

	client, err := backend.NewClient(srv.URL, "")
	if err != nil {
		t.Fatalf("failed to create client: %v", err)
	}

	counts, err := photoCounts(context.Background(), client, persons, 2)
	if err != nil {
		t.Fatalf("photoCounts failed: %v", err)
	}
	if diff := cmp.Diff([]int{0, 3, 30}, counts); diff != "" {
		t.Errorf("counts mismatch (-want +got):\n%s", diff)
	}
}

func TestPhotoCounts_Failure(t *testing.T) {
	srv := mock.New()
	defer srv.Close()

	p := srv.AddPerson("a", true, true)
	srv.Fail(mock.OpListPhotos, "", mock.Failure{Status: 500})

	client, err := backend.NewClient(srv.URL, "")
	if err != nil {
		t.Fatalf("failed to create client: %v", err)
	}

	if _, err := photoCounts(context.Background(), client, []backend.Person{p}, 0); err == nil {
		t.Error("expected error")
	}
}

func TestCommands_BackendErrorsNameTheCallOnce(t *testing.T) {
	srv := mock.New()
	defer srv.Close()

	person := srv.AddPerson("Jane", true, true)
	srv.AddPhotos(person.ID, 5, backend.StatusUploaded)
	id := strconv.FormatInt(person.ID, 10)

	apiURL = srv.URL
	t.Cleanup(func() { apiURL = "" })

	tests := []struct {
		name   string
		op     mock.Op
		cmd    *cobra.Command
		run    func(*cobra.Command, []string) error
		args   []string
		phrase string
	}{
		{"create", mock.OpCreatePerson, personCreateCmd, runPersonCreate, []string{"Jane"}, "failed to create person"},
		{"show", mock.OpGetPerson, personShowCmd, runPersonShow, []string{id}, "failed to fetch person"},
		{"delete", mock.OpDeletePerson, personDeleteCmd, runPersonDelete, []string{id}, "failed to delete person"},
		{"list", mock.OpListPersons, personListCmd, runPersonList, nil, "failed to fetch persons"},
		{"preprocess", mock.OpPreprocess, preprocessCmd, runPreprocess, []string{id}, "failed to start preprocessing"},
		{"status", mock.OpListPhotos, statusCmd, runStatus, []string{id}, "failed to fetch photos"},
		{"photo url", mock.OpPhotoURL, photoURLCmd, runPhotoURL, []string{id, "7"}, "failed to fetch photo URL"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv.ClearFailures()
			srv.Fail(tt.op, "", mock.Failure{Status: 500})
			tt.cmd.SetContext(t.Context())

			err := tt.run(tt.cmd, tt.args)
			if err == nil {
				t.Fatal("expected error")
			}
			if n := strings.Count(err.Error(), tt.phrase); n != 1 {
				t.Errorf("expected %q once in %q, got %d", tt.phrase, err.Error(), n)
			}
		})
	}
}

package main

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/nkiryanov/foodrhapsody/internal/testutil"
)

func noEnv(string) string { return "" }

func Test_run(t *testing.T) {
	// Start run with args and stop it by context after checking health endpoint
	runAndStop := func(t *testing.T, args ...string) error {
		port, err := testutil.RandomPort()
		require.NoError(t, err, "failed to get random port to start server")
		listenAddr := fmt.Sprintf("localhost:%d", port)

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		wd := t.TempDir()
		errCh := make(chan error, 1)
		go func() {
			errCh <- run(ctx, noEnv, func() (string, error) { return wd, nil }, append(args, "--address", listenAddr))
		}()

		require.Eventually(t, func() bool {
			resp, err := http.Get("http://" + listenAddr + "/health")
			if err != nil {
				return false
			}
			defer resp.Body.Close() // nolint:errcheck
			body, _ := io.ReadAll(resp.Body)
			return resp.StatusCode == http.StatusOK && string(body) == "OK"
		}, 5*time.Second, 50*time.Millisecond, "server has to start")

		cancel()

		select {
		case err := <-errCh:
			return err
		case <-time.After(10 * time.Second):
			t.Fatal("server has not stopped")
			return nil
		}
	}

	t.Run("sqlite stop with signal", func(t *testing.T) {
		err := runAndStop(t,
			"--log-level", "debug",
			"--database", testutil.SQLiteDSN(),
			"--secret-key", "secret",
		)

		require.NoError(t, err, "on correct stop should not return error")
	})

	t.Run("sqlite with cbor codec", func(t *testing.T) {
		err := runAndStop(t,
			"--database", testutil.SQLiteDSN(),
			"--access-secret", "access",
			"--refresh-secret", "refresh",
			"--codec", "cbor",
		)

		require.NoError(t, err)
	})

	t.Run("postgres stop with signal", func(t *testing.T) {
		pg := testutil.StartPostgresContainer(t)
		t.Cleanup(pg.Terminate)

		err := runAndStop(t,
			"--log-level", "debug",
			"--database", pg.DSN,
			"--secret-key", "secret",
		)

		require.NoError(t, err, "on correct stop should not return error")
	})

	t.Run("fail on start", func(t *testing.T) {
		tests := []struct {
			name string
			args []string
		}{
			{"no secret", []string{"--database", testutil.SQLiteDSN()}},
			{"no database", []string{"--secret-key", "secret"}},
			{"unknown database", []string{"--database", "mysql://localhost", "--secret-key", "secret"}},
			{"unknown codec", []string{"--database", testutil.SQLiteDSN(), "--secret-key", "secret", "--codec", "xml"}},
			{"unknown log level", []string{"--database", testutil.SQLiteDSN(), "--secret-key", "secret", "-l", "loud"}},
			{"unknown flag", []string{"--accrual", "localhost:3000"}},
		}

		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond) // Half Second
				t.Cleanup(cancel)

				err := run(ctx, noEnv, func() (string, error) { return t.TempDir(), nil }, tt.args)

				require.Error(t, err, "on incorrect start should return error")
			})
		}
	})
}

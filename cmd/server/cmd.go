// cmd.go wires the serve command's flags and env bindings, grounded on the
// pack's spf13/cobra + spf13/viper pattern (Seednode-partybox/config.go):
// one cobra.Command, pflag-backed flags, each bound to a WORDROUND_-prefixed
// env var via viper.AutomaticEnv.
package main

import (
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const releaseVersion = "0.1.0"

func newServeCmd() *cobra.Command {
	v := viper.New()
	v.SetEnvPrefix("WORDROUND")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	cmd := &cobra.Command{
		Use:           "wordround-server",
		Short:         "Real-time backend for a word-round party game.",
		Args:          cobra.ExactArgs(0),
		SilenceErrors: true,
		SilenceUsage:  true,
		Version:       releaseVersion,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context(), v)
		},
	}

	fs := cmd.Flags()
	fs.SetNormalizeFunc(func(_ *pflag.FlagSet, name string) pflag.NormalizedName {
		return pflag.NormalizedName(strings.ReplaceAll(name, "_", "-"))
	})

	fs.String("port", "8080", "port to listen on (env: WORDROUND_PORT)")
	fs.Bool("redis-enabled", false, "enable the Redis-backed persisted log and rate-limit store (env: WORDROUND_REDIS_ENABLED)")
	fs.String("redis-addr", "localhost:6379", "redis host:port (env: WORDROUND_REDIS_ADDR)")
	fs.String("redis-password", "", "redis password (env: WORDROUND_REDIS_PASSWORD)")
	fs.String("log-level", "info", "log level (env: WORDROUND_LOG_LEVEL)")
	fs.Bool("development", false, "enable development-mode logging (env: WORDROUND_DEVELOPMENT)")
	fs.String("allowed-origins", "http://localhost:3000", "comma-separated list of allowed CORS origins (env: WORDROUND_ALLOWED_ORIGINS)")
	fs.Duration("room-cleanup-grace", 0, "grace period before a terminal room with no subscribers is reclaimed (env: WORDROUND_ROOM_CLEANUP_GRACE)")
	fs.String("rate-limit-rooms", "30-M", "rate limit for room creation, formatted <n>-<S|M|H|D> (env: WORDROUND_RATE_LIMIT_ROOMS)")
	fs.String("rate-limit-join", "60-M", "rate limit for room joins, per room (env: WORDROUND_RATE_LIMIT_JOIN)")
	fs.String("rate-limit-submit", "120-M", "rate limit for answer submissions, per room (env: WORDROUND_RATE_LIMIT_SUBMIT)")

	fs.VisitAll(func(f *pflag.Flag) {
		_ = v.BindPFlag(f.Name, f)
		_ = v.BindEnv(f.Name)
	})

	cmd.CompletionOptions.HiddenDefaultCmd = true
	cmd.SetHelpCommand(&cobra.Command{Hidden: true})
	cmd.SetVersionTemplate("wordround-server v{{.Version}}\n")

	return cmd
}
